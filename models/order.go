package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	OrderStatusPending             = "pending"
	OrderStatusPendingVerification = "pending_verification"
	OrderStatusPreparing           = "preparing"
	OrderStatusReady               = "ready"
	OrderStatusCompleted           = "completed"
	OrderStatusCancelled           = "cancelled"
)

const (
	PaymentStatusPending             = "pending"
	PaymentStatusPendingVerification = "pending_verification"
	PaymentStatusPaid                = "paid"
	PaymentStatusFailed              = "failed"
)

const (
	PaymentMethodCash    = "cash"
	PaymentMethodGCash   = "gcash"
	PaymentMethodPayMaya = "paymaya"
)

const (
	MinTableNumber = 1
	MaxTableNumber = 6
)

// ActiveOrderStatuses are the statuses that still occupy a place in the kitchen queue.
var ActiveOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPendingVerification,
	OrderStatusPreparing,
	OrderStatusReady,
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID                 uint                           `gorm:"primaryKey" json:"id"`
	OrderID            string                         `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	CustomerID         *uint                          `gorm:"index" json:"customer_id,omitempty"`
	Customer           *Customer                      `json:"customer,omitempty"`
	CustomerName       string                         `gorm:"size:120" json:"customer_name"`
	CustomerEmail      *string                        `gorm:"size:190" json:"customer_email,omitempty"`
	TableNumber        *int                           `json:"table_number,omitempty"`
	Items              datatypes.JSONSlice[OrderItem] `json:"items"`
	TotalPrice         float64                        `gorm:"not null;default:0" json:"total_price"`
	Status             string                         `gorm:"size:32;index;not null" json:"status"`
	PaymentStatus      string                         `gorm:"size:32;index;not null" json:"payment_status"`
	PaymentMethod      string                         `gorm:"size:16;not null" json:"payment_method"`
	QueueDate          string                         `gorm:"size:10;index" json:"queue_date"`
	QueuePosition      int                            `json:"queue_position"`
	Notes              *string                        `gorm:"type:text" json:"notes,omitempty"`
	QRCode             *string                        `gorm:"type:text" json:"qr_code,omitempty"`
	PaymentReference   *string                        `gorm:"size:120" json:"payment_reference,omitempty"`
	ProviderPaymentID  *string                        `gorm:"size:120" json:"provider_payment_id,omitempty"`
	ReceiptPath        *string                        `gorm:"size:255" json:"receipt_path,omitempty"`
	OrderTime          time.Time                      `json:"order_time"`
	EstimatedReadyTime *time.Time                     `json:"estimated_ready_time,omitempty"`
	CompletedTime      *time.Time                     `json:"completed_time,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCancelled || o.Status == OrderStatusCompleted
}

// QueueCounter hands out per-day queue positions atomically.
type QueueCounter struct {
	QueueDate string `gorm:"primaryKey;size:10"`
	LastValue int    `gorm:"not null;default:0"`
}
