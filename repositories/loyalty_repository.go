package repositories

import (
	"context"

	"gorm.io/gorm"

	"kd-resto/models"
)

type LoyaltyRepository struct {
	db *gorm.DB
}

type LoyaltyTotals struct {
	Earned   int
	Redeemed int
}

func (r *LoyaltyRepository) Create(ctx context.Context, txn *models.LoyaltyTransaction) error {
	return classify(r.db.WithContext(ctx).Create(txn).Error)
}

func (r *LoyaltyRepository) Totals(ctx context.Context, customerID uint) (LoyaltyTotals, error) {
	var totals LoyaltyTotals
	err := r.db.WithContext(ctx).Model(&models.LoyaltyTransaction{}).
		Select(`
			COALESCE(SUM(CASE WHEN type = ? THEN points ELSE 0 END), 0) AS earned,
			COALESCE(SUM(CASE WHEN type = ? THEN points ELSE 0 END), 0) AS redeemed
		`, models.LoyaltyEarn, models.LoyaltyRedeem).
		Where("customer_id = ?", customerID).
		Scan(&totals).Error
	return totals, classify(err)
}

func (r *LoyaltyRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.LoyaltyTransaction, error) {
	var txns []models.LoyaltyTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&txns).Error
	return txns, classify(err)
}
