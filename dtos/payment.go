package dtos

type QRRequest struct {
	TableNumber *int `json:"tableNumber"`
}

type CashPaymentRequest struct {
	Amount  float64 `json:"amount" binding:"gte=0"`
	StaffID *uint   `json:"staffId"`
	Notes   string  `json:"notes"`
}

type VerifyReceiptRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Notes   string `json:"notes"`
}

type RedeemRequest struct {
	Points      int    `json:"points" binding:"required,gt=0"`
	OrderID     *uint  `json:"orderId"`
	Description string `json:"description"`
}

type FulfillmentCheckRequest struct {
	Items []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}
