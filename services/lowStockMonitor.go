package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"kd-resto/models"
	"kd-resto/notifications"
	"kd-resto/realtime"
)

// LowStockMonitor polls ingredient levels and alerts admins when an ingredient
// drops to its threshold. Each ingredient alerts once until it is restocked.
type LowStockMonitor struct {
	inventory  InventoryService
	pub        realtime.Publisher
	notifier   notifications.Sender
	adminPhone string
	log        *slog.Logger
	now        func() time.Time

	alerted map[string]bool
}

func NewLowStockMonitor(inventory InventoryService, pub realtime.Publisher, notifier notifications.Sender, adminPhone string, log *slog.Logger) *LowStockMonitor {
	return &LowStockMonitor{
		inventory:  inventory,
		pub:        pub,
		notifier:   notifier,
		adminPhone: adminPhone,
		log:        log,
		now:        time.Now,
		alerted:    make(map[string]bool),
	}
}

// Check returns the ingredients that newly crossed their threshold. It is not
// safe for concurrent use; Run calls it from a single goroutine.
func (m *LowStockMonitor) Check(ctx context.Context) ([]models.Ingredient, error) {
	low, err := m.inventory.LowStock(ctx)
	if err != nil {
		m.log.Error("low stock check failed", "action", "low_stock_check", "error", err)
		return nil, err
	}

	current := make(map[string]bool, len(low))
	var fresh []models.Ingredient
	for _, ing := range low {
		current[ing.Name] = true
		if !m.alerted[ing.Name] {
			fresh = append(fresh, ing)
		}
	}
	m.alerted = current

	if len(fresh) == 0 {
		return nil, nil
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Name < fresh[j].Name })

	m.log.Warn("ingredients low on stock", "action", "low_stock_check", "count", len(fresh))
	realtime.Broadcast(ctx, m.pub, m.log, realtime.Event{
		Name: realtime.EventLowStockAlert,
		Data: fresh,
	}, realtime.RoomAdmin)

	if m.notifier != nil && m.adminPhone != "" {
		if err := m.notifier.Send(ctx, m.adminPhone, notifications.FormatLowStockMessage(fresh, m.now())); err != nil {
			m.log.Warn("low stock whatsapp alert failed", "action", "low_stock_check", "error", err)
		}
	}
	return fresh, nil
}

func (m *LowStockMonitor) Run(ctx context.Context, interval time.Duration) error {
	return runEvery(ctx, interval, func(ctx context.Context) {
		_, _ = m.Check(ctx)
	})
}
