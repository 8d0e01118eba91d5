package utils

import (
	"encoding/json"

	"kd-resto/models"
)

// NewOrderAuditLog builds the activity_logs row for an order change. Callers
// write it inside the same transaction as the change itself.
func NewOrderAuditLog(
	action string,
	entityID uint,
	oldOrder, newOrder *models.Order,
	userID *uint,
	ipAddress string,
	description string,
) *models.ActivityLog {
	entry := &models.ActivityLog{
		EntityType:  "order",
		EntityID:    entityID,
		Action:      action,
		UserID:      userID,
		OldValue:    toJSONString(orderSnapshot(oldOrder)),
		NewValue:    toJSONString(orderSnapshot(newOrder)),
		Description: description,
	}
	if changes := calculateOrderChanges(oldOrder, newOrder); changes != nil {
		entry.NewValue = changes
	}
	if ipAddress != "" {
		entry.IPAddress = &ipAddress
	}
	return entry
}

type snapshot struct {
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	PaymentMethod string  `json:"payment_method"`
	TotalPrice    float64 `json:"total_price"`
	ReceiptPath   string  `json:"receipt_path,omitempty"`
}

func orderSnapshot(o *models.Order) interface{} {
	if o == nil {
		return nil
	}
	return snapshot{
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		TotalPrice:    o.TotalPrice,
		ReceiptPath:   GetStringValue(o.ReceiptPath),
	}
}

// calculateOrderChanges returns an old/new diff of the audited fields, or nil
// when this is not an update.
func calculateOrderChanges(oldOrder, newOrder *models.Order) *string {
	if oldOrder == nil || newOrder == nil {
		return nil
	}

	changes := make(map[string]interface{})

	if oldOrder.Status != newOrder.Status {
		changes["status"] = map[string]string{"old": oldOrder.Status, "new": newOrder.Status}
	}
	if oldOrder.PaymentStatus != newOrder.PaymentStatus {
		changes["payment_status"] = map[string]string{"old": oldOrder.PaymentStatus, "new": newOrder.PaymentStatus}
	}
	if oldOrder.PaymentMethod != newOrder.PaymentMethod {
		changes["payment_method"] = map[string]string{"old": oldOrder.PaymentMethod, "new": newOrder.PaymentMethod}
	}
	if GetStringValue(oldOrder.ReceiptPath) != GetStringValue(newOrder.ReceiptPath) {
		changes["receipt_path"] = map[string]string{
			"old": GetStringValue(oldOrder.ReceiptPath),
			"new": GetStringValue(newOrder.ReceiptPath),
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return toJSONString(changes)
}

func toJSONString(v interface{}) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func GetStringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
