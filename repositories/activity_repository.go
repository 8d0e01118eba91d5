package repositories

import (
	"context"

	"gorm.io/gorm"

	"kd-resto/models"
)

type ActivityRepository struct {
	db *gorm.DB
}

func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return classify(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *ActivityRepository) ListForEntity(ctx context.Context, entityType string, entityID uint) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, classify(err)
}
