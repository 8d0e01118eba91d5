package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type CustomerRepository struct {
	db *gorm.DB
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("customer not found")
		}
		return nil, classify(err)
	}
	return &customer, nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("customer not found")
		}
		return nil, classify(err)
	}
	return &customer, nil
}

// FindOrCreateGuest returns the customer owning email, creating a guest row the
// first time. A concurrent insert of the same email is resolved by re-reading.
func (r *CustomerRepository) FindOrCreateGuest(ctx context.Context, name, email string) (*models.Customer, error) {
	existing, err := r.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	customer := &models.Customer{Name: name, Email: &email, IsGuest: true}
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		if IsDuplicate(err) {
			return r.FindByEmail(ctx, email)
		}
		return nil, classify(err)
	}
	return customer, nil
}

func (r *CustomerRepository) AddPoints(ctx context.Context, id uint, points int) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", id).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points))
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("customer not found")
	}
	return nil
}

// SettlePoints replaces the stored balance with next, provided it still reads
// expected, and marks the welcome bonus as settled.
func (r *CustomerRepository) SettlePoints(ctx context.Context, id uint, expected, next int) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND loyalty_points = ?", id, expected).
		Updates(map[string]interface{}{
			"loyalty_points": next,
			"bonus_settled":  true,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("loyalty balance changed, try again")
	}
	return nil
}
