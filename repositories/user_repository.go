package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, classify(err)
	}
	return &user, nil
}

// Upsert creates the user or leaves an existing username untouched.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	return classify(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(user).Error)
}
