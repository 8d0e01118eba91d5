package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kd-resto/apperrors"
	"kd-resto/models"
	"kd-resto/realtime"
	"kd-resto/repositories"
)

func TestPlaceGuestOrder(t *testing.T) {
	f := newFixture(t)

	order, err := f.orders.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer:      CustomerIdentity{Name: "Juan", Email: "Juan@Example.com"},
		Items:         []models.OrderItem{{Name: "Burger", Quantity: 2, Price: 150}},
		TotalAmount:   300,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d+-[0-9a-f]{9}$`, order.OrderID)
	assert.Equal(t, models.OrderStatusPendingVerification, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 300.0, order.TotalPrice)
	assert.Equal(t, 1, order.QueuePosition)
	require.NotNil(t, order.CustomerID)
	require.NotNil(t, order.CustomerEmail)
	assert.Equal(t, "juan@example.com", *order.CustomerEmail)

	assert.ElementsMatch(t,
		[]string{realtime.RoomAdmin, realtime.RoomStaff, realtime.CustomerRoom("juan@example.com")},
		f.rec.Rooms(realtime.EventNewOrderReceived))

	// placement never touches stock
	patty, err := f.store.Inventory.FindIngredientByName(context.Background(), "Beef Patty")
	require.NoError(t, err)
	assert.Equal(t, 10.0, patty.Quantity)
}

func TestPlaceOrderReusesGuestCustomer(t *testing.T) {
	f := newFixture(t)

	first := f.placeBurgerOrder(t, "repeat@example.com")
	second := f.placeBurgerOrder(t, "repeat@example.com")

	assert.Equal(t, *first.CustomerID, *second.CustomerID)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, 2, second.QueuePosition)
	assert.Equal(t, int64(1), f.countRows(t, &models.Customer{}))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.PlaceOrder(ctx, PlaceOrderInput{Customer: CustomerIdentity{Name: "A"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.orders.PlaceOrder(ctx, PlaceOrderInput{
		Items:       []models.OrderItem{{Name: "Burger", Quantity: 1, Price: 150}},
		TotalAmount: 999,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.orders.PlaceOrder(ctx, PlaceOrderInput{
		Items:         []models.OrderItem{{Name: "Burger", Quantity: 1, Price: 150}},
		PaymentMethod: "bitcoin",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Equal(t, int64(0), f.countRows(t, &models.Order{}))
}

func TestPlaceOrderRejectsWhenStockIsShort(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer: CustomerIdentity{Name: "Big Group", Email: "group@example.com"},
		Items:    []models.OrderItem{{Name: "Burger", Quantity: 20, Price: 150}},
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details.([]FulfillmentDetail)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "Beef Patty", details[0].Ingredient)
	assert.Equal(t, 20.0, details[0].Required)
	assert.False(t, details[0].Sufficient)

	assert.Equal(t, int64(0), f.countRows(t, &models.Order{}))
	assert.Empty(t, f.rec.Events)
}

func TestClampTableNumber(t *testing.T) {
	assert.Nil(t, ClampTableNumber(nil))
	assert.Equal(t, 1, *ClampTableNumber(intPtr(0)))
	assert.Equal(t, 4, *ClampTableNumber(intPtr(4)))
	assert.Equal(t, 6, *ClampTableNumber(intPtr(9)))
}

func TestUpdateStatusAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := Actor{UserID: uintPtr(7)}

	order := f.placeBurgerOrder(t, "")

	_, err := f.orders.UpdateStatus(ctx, order.OrderID, models.OrderStatusCompleted, staff)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.orders.UpdateStatus(ctx, order.OrderID, "teleported", staff)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	cancelled, err := f.orders.Cancel(ctx, order.OrderID, staff)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.ElementsMatch(t,
		[]string{realtime.OrderRoom(order.OrderID), realtime.RoomStaff, realtime.RoomAdmin},
		f.rec.Rooms(realtime.EventOrderUpdated))

	_, err = f.orders.Cancel(ctx, order.OrderID, staff)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	logs, err := f.store.Activity.ListForEntity(ctx, "order", order.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestKitchenStatusesRequirePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := Actor{UserID: uintPtr(7)}

	order := f.placeBurgerOrder(t, "")
	for _, status := range []string{models.OrderStatusPreparing, models.OrderStatusReady} {
		_, err := f.orders.UpdateStatus(ctx, order.OrderID, status, staff)
		assert.ErrorIs(t, err, apperrors.ErrConflict, status)
	}
	assert.Equal(t, models.OrderStatusPendingVerification, f.reload(t, order.OrderID).Status)

	_, err := f.payments.ConfirmCashPayment(ctx, CashPaymentInput{OrderID: order.OrderID, Amount: 300, StaffID: uintPtr(7)})
	require.NoError(t, err)

	ready, err := f.orders.UpdateStatus(ctx, order.OrderID, models.OrderStatusReady, staff)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, ready.Status)

	done, err := f.orders.UpdateStatus(ctx, order.OrderID, models.OrderStatusCompleted, staff)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, done.Status)

	_, err = f.orders.Cancel(ctx, order.OrderID, staff)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestListOrdersDefaultsPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.placeBurgerOrder(t, "")
	}

	orders, total, err := f.orders.List(context.Background(), repositories.OrderFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 2)
}
