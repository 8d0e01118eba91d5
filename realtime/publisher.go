package realtime

import (
	"context"
	"log/slog"
	"time"
)

const (
	EventPaymentUpdated   = "payment-updated"
	EventNewOrderReceived = "new-order-received"
	EventOrderUpdated     = "order-updated"
	EventLowStockAlert    = "low-stock-alert"
)

const (
	RoomStaff = "staff-room"
	RoomAdmin = "admin-room"
)

func OrderRoom(orderID string) string { return "order-" + orderID }

func CustomerRoom(email string) string { return "customer-" + email }

type Event struct {
	Name          string      `json:"event"`
	OrderID       string      `json:"orderId,omitempty"`
	Status        string      `json:"status,omitempty"`
	PaymentStatus string      `json:"paymentStatus,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Publisher delivers an event to everyone listening on room.
type Publisher interface {
	Publish(ctx context.Context, room string, evt Event) error
}

// Broadcast sends evt to each room. Delivery is best effort: failures are
// logged and never reach the caller.
func Broadcast(ctx context.Context, pub Publisher, log *slog.Logger, evt Event, rooms ...string) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	for _, room := range rooms {
		if err := pub.Publish(ctx, room, evt); err != nil {
			log.Warn("realtime publish failed", "action", "broadcast", "room", room, "event", evt.Name, "error", err)
		}
	}
}

// Fanout publishes to several transports; it reports the last error seen.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, room string, evt Event) error {
	var lastErr error
	for _, p := range f {
		if err := p.Publish(ctx, room, evt); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
