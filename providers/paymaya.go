package providers

import (
	"encoding/json"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type PayMaya struct {
	walletProvider
}

func NewPayMaya(secret, baseURL string, encoder QREncoder) *PayMaya {
	return &PayMaya{walletProvider{name: models.PaymentMethodPayMaya, secret: []byte(secret), baseURL: baseURL, encoder: encoder}}
}

type paymayaCallback struct {
	ID                     string `json:"id"`
	RequestReferenceNumber string `json:"requestReferenceNumber"`
	PaymentStatus          string `json:"paymentStatus"`
	TotalAmount            struct {
		Value    float64 `json:"value"`
		Currency string  `json:"currency"`
	} `json:"totalAmount"`
}

func (p *PayMaya) ParseCallback(payload []byte) (*CallbackEvent, error) {
	var body paymayaCallback
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, apperrors.Validation("malformed paymaya callback")
	}
	if body.RequestReferenceNumber == "" || body.ID == "" {
		return nil, apperrors.Validation("paymaya callback missing requestReferenceNumber or id")
	}
	return &CallbackEvent{
		OrderID:       body.RequestReferenceNumber,
		Amount:        body.TotalAmount.Value,
		TransactionID: body.ID,
		Succeeded:     body.PaymentStatus == "PAYMENT_SUCCESS",
	}, nil
}
