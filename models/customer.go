package models

import "time"

type Customer struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"size:120" json:"name"`
	Email         *string `gorm:"size:190;uniqueIndex" json:"email,omitempty"`
	Phone         *string `gorm:"size:32" json:"phone,omitempty"`
	LoyaltyPoints int     `gorm:"not null;default:0" json:"loyalty_points"`
	// BonusSettled is set by the first redemption; the welcome bonus is
	// either folded into LoyaltyPoints then or never offered again.
	BonusSettled bool      `gorm:"not null;default:false" json:"-"`
	IsGuest      bool      `gorm:"not null;default:false" json:"is_guest"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	LoyaltyEarn   = "earn"
	LoyaltyRedeem = "redeem"
)

type LoyaltyTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CustomerID  uint      `gorm:"index;not null" json:"customer_id"`
	OrderID     *uint     `gorm:"index" json:"order_id,omitempty"`
	Points      int       `gorm:"not null" json:"points"`
	Type        string    `gorm:"size:16;not null" json:"type"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
