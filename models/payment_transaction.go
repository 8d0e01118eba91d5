package models

import "time"

const (
	TransactionStatusCompleted     = "completed"
	TransactionStatusRejected      = "rejected"
	TransactionStatusRefundPending = "refund_pending"
)

// PaymentTransaction rows are append-only; corrections are new rows.
type PaymentTransaction struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	OrderID               uint      `gorm:"index;not null" json:"order_id"`
	PaymentMethod         string    `gorm:"size:16;not null" json:"payment_method"`
	Amount                float64   `gorm:"not null" json:"amount"`
	ProviderTransactionID *string   `gorm:"size:120;uniqueIndex" json:"provider_transaction_id,omitempty"`
	ReferenceCode         *string   `gorm:"size:120" json:"reference_code,omitempty"`
	Status                string    `gorm:"size:32;not null" json:"status"`
	StaffID               *uint     `json:"staff_id,omitempty"`
	Notes                 *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
}
