package providers

import (
	"encoding/json"
	"strings"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type GCash struct {
	walletProvider
}

func NewGCash(secret, baseURL string, encoder QREncoder) *GCash {
	return &GCash{walletProvider{name: models.PaymentMethodGCash, secret: []byte(secret), baseURL: baseURL, encoder: encoder}}
}

type gcashCallback struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
	Status        string  `json:"status"`
}

func (g *GCash) ParseCallback(payload []byte) (*CallbackEvent, error) {
	var body gcashCallback
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, apperrors.Validation("malformed gcash callback")
	}
	if body.OrderID == "" || body.TransactionID == "" {
		return nil, apperrors.Validation("gcash callback missing orderId or transactionId")
	}
	return &CallbackEvent{
		OrderID:       body.OrderID,
		Amount:        body.Amount,
		TransactionID: body.TransactionID,
		Succeeded:     strings.EqualFold(body.Status, "SUCCESS"),
	}, nil
}
