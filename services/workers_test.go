package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kd-resto/logger"
	"kd-resto/models"
	"kd-resto/realtime"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (s *fakeSender) Send(_ context.Context, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, phone+": "+message)
	return s.err
}

func TestCleanupPurgesExpiredUnpaidOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	abandoned := f.placeBurgerOrder(t, "")
	paid := f.placeBurgerOrder(t, "")
	_, err := f.payments.ConfirmCashPayment(ctx, CashPaymentInput{OrderID: paid.OrderID, StaffID: uintPtr(1)})
	require.NoError(t, err)

	cleanup := NewCleanupService(f.store, 24*time.Hour, logger.Discard())

	n, err := cleanup.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	cleanup.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	n, err = cleanup.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.store.Orders.FindByOrderID(ctx, abandoned.OrderID)
	assert.Error(t, err)
	f.reload(t, paid.OrderID)
}

func TestLowStockMonitorAlertsOncePerDip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := &fakeSender{}
	monitor := NewLowStockMonitor(f.inventory, f.rec, sender, "62811", logger.Discard())

	fresh, err := monitor.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	require.NoError(t, f.store.Inventory.Deduct(ctx, f.beefPattyID, 8))
	fresh, err = monitor.Check(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Beef Patty", fresh[0].Name)
	assert.Equal(t, []string{realtime.RoomAdmin}, f.rec.Rooms(realtime.EventLowStockAlert))
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "62811: LOW STOCK ALERT")

	fresh, err = monitor.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Len(t, sender.messages, 1)

	// restock then dip again
	require.NoError(t, f.store.Inventory.UpsertIngredient(ctx, &models.Ingredient{Name: "Beef Patty", Quantity: 50, Unit: "pcs", MinThreshold: 3}))
	_, err = monitor.Check(ctx)
	require.NoError(t, err)
	require.NoError(t, f.store.Inventory.Deduct(ctx, f.beefPattyID, 49))
	fresh, err = monitor.Check(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
	assert.Len(t, sender.messages, 2)
}

func TestLowStockMonitorSurvivesSenderFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := &fakeSender{err: errors.New("gateway down")}
	monitor := NewLowStockMonitor(f.inventory, f.rec, sender, "62811", logger.Discard())

	require.NoError(t, f.store.Inventory.Deduct(ctx, f.beefPattyID, 10))
	fresh, err := monitor.Check(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	done := make(chan error)
	go func() {
		done <- runEvery(ctx, time.Hour, func(context.Context) {
			calls++
			cancel()
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("runEvery did not stop")
	}
}

func TestCheckFulfillment(t *testing.T) {
	f := newFixture(t)

	res, err := f.inventory.CheckFulfillment(context.Background(), []models.OrderItem{
		{Name: "Burger", Quantity: 3, Price: 150},
		{Name: "Burger", Quantity: 2, Price: 150},
		{Name: "Iced Tea", Quantity: 1, Price: 50},
	})
	require.NoError(t, err)
	assert.True(t, res.CanFulfillOrder)
	require.Len(t, res.Details, 1)
	assert.Equal(t, 5.0, res.Details[0].Required)
	assert.Equal(t, 10.0, res.Details[0].Available)
}
