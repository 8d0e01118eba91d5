package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type PaymentRepository struct {
	db *gorm.DB
}

func (r *PaymentRepository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	return classify(r.db.WithContext(ctx).Create(txn).Error)
}

func (r *PaymentRepository) FindByProviderTransactionID(ctx context.Context, providerTxnID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("provider_transaction_id = ?", providerTxnID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment transaction not found")
		}
		return nil, classify(err)
	}
	return &txn, nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID uint) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&txns).Error
	return txns, classify(err)
}
