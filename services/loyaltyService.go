package services

import (
	"context"
	"fmt"
	"math"

	"kd-resto/apperrors"
	"kd-resto/config"
	"kd-resto/models"
	"kd-resto/repositories"
)

type LoyaltyService interface {
	EarnPoints(ctx context.Context, customerID, orderID uint, amount float64, points int) error
	ComputeBalance(ctx context.Context, customerID uint) (int, error)
	Redeem(ctx context.Context, customerID uint, points int, orderID *uint, description string) (int, error)
	History(ctx context.Context, customerID uint) ([]models.LoyaltyTransaction, error)
	PointsFor(amount float64) int
}

type loyaltyService struct {
	store *repositories.Store
	cfg   config.Loyalty
}

func NewLoyaltyService(store *repositories.Store, cfg config.Loyalty) LoyaltyService {
	if cfg.PointsPerUnit <= 0 {
		cfg.PointsPerUnit = 10
	}
	return &loyaltyService{store: store, cfg: cfg}
}

func (s *loyaltyService) PointsFor(amount float64) int {
	if amount <= 0 {
		return 0
	}
	return int(math.Floor(amount / s.cfg.PointsPerUnit))
}

// EarnPoints bumps the cached balance and appends the earn row atomically.
func (s *loyaltyService) EarnPoints(ctx context.Context, customerID, orderID uint, amount float64, points int) error {
	if points <= 0 {
		return apperrors.Validation("points must be positive")
	}
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		return earnPointsTx(ctx, tx, customerID, orderID, amount, points)
	})
}

func earnPointsTx(ctx context.Context, tx *repositories.Store, customerID, orderID uint, amount float64, points int) error {
	if err := tx.Customers.AddPoints(ctx, customerID, points); err != nil {
		return err
	}
	return tx.Loyalty.Create(ctx, &models.LoyaltyTransaction{
		CustomerID:  customerID,
		OrderID:     &orderID,
		Points:      points,
		Type:        models.LoyaltyEarn,
		Description: fmt.Sprintf("Earned %d points on %.2f purchase", points, amount),
	})
}

// ComputeBalance prefers the stored counter. A zero counter is treated as
// possibly stale and rebuilt from the transaction log, plus the welcome bonus
// while it is still unsettled.
func (s *loyaltyService) ComputeBalance(ctx context.Context, customerID uint) (int, error) {
	customer, err := s.store.Customers.FindByID(ctx, customerID)
	if err != nil {
		return 0, err
	}
	return s.balanceOf(ctx, s.store, customer)
}

func (s *loyaltyService) balanceOf(ctx context.Context, store *repositories.Store, customer *models.Customer) (int, error) {
	if customer.LoyaltyPoints > 0 {
		return customer.LoyaltyPoints, nil
	}

	totals, err := store.Loyalty.Totals(ctx, customer.ID)
	if err != nil {
		return 0, err
	}
	balance := totals.Earned - totals.Redeemed
	if !customer.BonusSettled {
		balance += s.cfg.WelcomeBonus
	}
	if balance < 0 {
		balance = 0
	}
	return balance, nil
}

// Redeem spends from the same balance ComputeBalance reports. The stored
// counter is rewritten to what is left, so a stale zero counter is repaired
// and the welcome bonus is settled on the way.
func (s *loyaltyService) Redeem(ctx context.Context, customerID uint, points int, orderID *uint, description string) (int, error) {
	if points <= 0 {
		return 0, apperrors.Validation("points must be positive")
	}
	if description == "" {
		description = fmt.Sprintf("Redeemed %d points", points)
	}

	var remaining int
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		customer, err := tx.Customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		available, err := s.balanceOf(ctx, tx, customer)
		if err != nil {
			return err
		}
		if available < points {
			return apperrors.Conflict("insufficient loyalty points").
				WithDetails(map[string]int{"available": available, "requested": points})
		}
		remaining = available - points
		if err := tx.Customers.SettlePoints(ctx, customerID, customer.LoyaltyPoints, remaining); err != nil {
			return err
		}
		return tx.Loyalty.Create(ctx, &models.LoyaltyTransaction{
			CustomerID:  customerID,
			OrderID:     orderID,
			Points:      points,
			Type:        models.LoyaltyRedeem,
			Description: description,
		})
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *loyaltyService) History(ctx context.Context, customerID uint) ([]models.LoyaltyTransaction, error) {
	if _, err := s.store.Customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.Loyalty.ListByCustomer(ctx, customerID)
}
