package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type OrderRepository struct {
	db *gorm.DB
}

type OrderFilter struct {
	Date          string
	Status        string
	PaymentStatus string
	Page          int
	Limit         int
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return classify(r.db.WithContext(ctx).Create(order).Error)
}

func (r *OrderRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, classify(err)
	}
	return &order, nil
}

// NextQueuePosition bumps the per-day counter with a single upsert, so two
// concurrent checkouts can never read the same value.
func (r *OrderRepository) NextQueuePosition(ctx context.Context, day string) (int, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "queue_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_value": gorm.Expr("queue_counters.last_value + 1"),
		}),
	}).Create(&models.QueueCounter{QueueDate: day, LastValue: 1}).Error
	if err != nil {
		return 0, classify(err)
	}

	var counter models.QueueCounter
	if err := db.Where("queue_date = ?", day).First(&counter).Error; err != nil {
		return 0, classify(err)
	}
	return counter.LastValue, nil
}

// MarkPaid flips the order to paid only if it is neither paid nor cancelled.
// Zero affected rows means someone else won the race. Orders still waiting on
// payment move on to the kitchen.
func (r *OrderRepository) MarkPaid(ctx context.Context, id uint, method string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ? AND status <> ?", id, models.PaymentStatusPaid, models.OrderStatusCancelled).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"payment_method": method,
			"completed_time": now,
			"status": gorm.Expr("CASE WHEN status IN ? THEN ? ELSE status END",
				[]string{models.OrderStatusPending, models.OrderStatusPendingVerification}, models.OrderStatusPreparing),
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("order already paid or cancelled")
	}
	return nil
}

type PaymentRequest struct {
	Method            string
	QRCode            string
	Reference         string
	ProviderPaymentID string
	TableNumber       *int
}

func (r *OrderRepository) SavePaymentRequest(ctx context.Context, id uint, req PaymentRequest) error {
	updates := map[string]interface{}{
		"payment_method":      req.Method,
		"qr_code":             req.QRCode,
		"payment_reference":   req.Reference,
		"provider_payment_id": req.ProviderPaymentID,
	}
	if req.TableNumber != nil {
		updates["table_number"] = *req.TableNumber
	}
	return r.updateUnpaid(ctx, id, updates)
}

func (r *OrderRepository) AttachReceipt(ctx context.Context, id uint, path string) error {
	return r.updateUnpaid(ctx, id, map[string]interface{}{
		"receipt_path":   path,
		"payment_status": models.PaymentStatusPendingVerification,
	})
}

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id uint, status string) error {
	return r.updateUnpaid(ctx, id, map[string]interface{}{"payment_status": status})
}

// updateUnpaid applies updates to an order that can still take a payment.
func (r *OrderRepository) updateUnpaid(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ? AND status <> ?", id, models.PaymentStatusPaid, models.OrderStatusCancelled).
		Updates(updates)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("order already paid or cancelled")
	}
	return nil
}

// UpdateStatus moves the kitchen status forward. Only non-terminal orders move.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, status string, completedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if completedAt != nil {
		updates["completed_time"] = *completedAt
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", id, []string{models.OrderStatusCancelled, models.OrderStatusCompleted}).
		Updates(updates)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("order is already closed")
	}
	return nil
}

func (r *OrderRepository) Cancel(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ? AND status NOT IN ?", id, models.PaymentStatusPaid,
			[]string{models.OrderStatusCancelled, models.OrderStatusCompleted}).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("only unpaid open orders can be cancelled")
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Order{})
	if f.Date != "" {
		db = db.Where("queue_date = ?", f.Date)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		db = db.Where("payment_status = ?", f.PaymentStatus)
	}

	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var orders []models.Order
	if err := db.Order("created_at DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, classify(err)
	}
	return orders, total, nil
}

// PurgeExpired deletes cancelled orders and abandoned unpaid ones last touched
// before cutoff. Paid orders are kept because transactions reference them, and
// orders the kitchen has picked up are never abandoned.
func (r *OrderRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("updated_at < ? AND payment_status <> ?", cutoff, models.PaymentStatusPaid).
		Where("(status = ? OR (status IN ? AND payment_status IN ?))", models.OrderStatusCancelled,
			[]string{models.OrderStatusPending, models.OrderStatusPendingVerification},
			[]string{models.PaymentStatusPending, models.PaymentStatusFailed}).
		Delete(&models.Order{})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}
