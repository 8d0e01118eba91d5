package dtos

import "kd-resto/models"

type OrderItemInput struct {
	Name     string  `json:"name" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"gte=0"`
}

func ToOrderItems(in []OrderItemInput) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(in))
	for _, i := range in {
		items = append(items, models.OrderItem{Name: i.Name, Quantity: i.Quantity, Price: i.Price})
	}
	return items
}

type GuestCheckoutRequest struct {
	CustomerName  string           `json:"customerName" binding:"required"`
	CustomerEmail string           `json:"customerEmail" binding:"omitempty,email"`
	Items         []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	TotalAmount   float64          `json:"totalAmount" binding:"gte=0"`
	PaymentMethod string           `json:"paymentMethod" binding:"omitempty,paymentmethod"`
	TableNumber   *int             `json:"tableNumber"`
	Notes         string           `json:"notes"`
}

// CreateOrderRequest is a staff-entered order, optionally for a known customer.
type CreateOrderRequest struct {
	CustomerID    *uint            `json:"customerId"`
	CustomerName  string           `json:"customerName"`
	CustomerEmail string           `json:"customerEmail" binding:"omitempty,email"`
	Items         []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	TotalAmount   float64          `json:"totalAmount" binding:"gte=0"`
	PaymentMethod string           `json:"paymentMethod" binding:"omitempty,paymentmethod"`
	TableNumber   *int             `json:"tableNumber"`
	Notes         string           `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=preparing ready completed"`
}

type OrderFilter struct {
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
	Date          string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
}
