package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"kd-resto/apperrors"
	"kd-resto/models"
	"kd-resto/realtime"
	"kd-resto/repositories"
	"kd-resto/utils"
)

// estimatedPrepTime is added per queue slot ahead of an order.
const estimatedPrepTime = 5 * time.Minute

// Actor identifies who triggered a write, for the audit trail.
type Actor struct {
	UserID *uint
	IP     string
}

type CustomerIdentity struct {
	CustomerID *uint
	Name       string
	Email      string
}

type PlaceOrderInput struct {
	Customer      CustomerIdentity
	Items         []models.OrderItem
	TotalAmount   float64
	TableNumber   *int
	PaymentMethod string
	Notes         string
	Actor         Actor
}

type OrderService interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID string) (*models.Order, error)
	List(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID, status string, actor Actor) (*models.Order, error)
	Cancel(ctx context.Context, orderID string, actor Actor) (*models.Order, error)
}

type orderService struct {
	store     *repositories.Store
	inventory InventoryService
	pub       realtime.Publisher
	log       *slog.Logger
	now       func() time.Time
}

func NewOrderService(store *repositories.Store, inventory InventoryService, pub realtime.Publisher, log *slog.Logger) OrderService {
	return &orderService{store: store, inventory: inventory, pub: pub, log: log, now: time.Now}
}

// ClampTableNumber keeps a table number inside the dining room. Nil stays nil.
func ClampTableNumber(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	if v < models.MinTableNumber {
		v = models.MinTableNumber
	}
	if v > models.MaxTableNumber {
		v = models.MaxTableNumber
	}
	return &v
}

func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

func validateItems(items []models.OrderItem) (float64, error) {
	if len(items) == 0 {
		return 0, apperrors.Validation("items are required")
	}
	var total float64
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return 0, apperrors.Validation(fmt.Sprintf("item %d: name is required", i))
		}
		if item.Quantity <= 0 {
			return 0, apperrors.Validation(fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.Price < 0 {
			return 0, apperrors.Validation(fmt.Sprintf("item %d: price must not be negative", i))
		}
		total += item.Price * float64(item.Quantity)
	}
	return math.Round(total*100) / 100, nil
}

func normalizeMethod(method string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(method)); m {
	case "":
		return models.PaymentMethodCash, nil
	case models.PaymentMethodCash, models.PaymentMethodGCash, models.PaymentMethodPayMaya:
		return m, nil
	default:
		return "", apperrors.Validation(fmt.Sprintf("unsupported payment method %q", method))
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	total, err := validateItems(in.Items)
	if err != nil {
		return nil, err
	}
	if in.TotalAmount > 0 && math.Abs(in.TotalAmount-total) > 0.01 {
		return nil, apperrors.Validation("totalAmount does not match line items").
			WithDetails(map[string]float64{"expected": total, "received": in.TotalAmount})
	}
	method, err := normalizeMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	check, err := s.inventory.CheckFulfillment(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	if !check.CanFulfillOrder {
		return nil, apperrors.Validation("insufficient stock to fulfill order").WithDetails(check.Details)
	}

	customer, err := s.resolveCustomer(ctx, in.Customer)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		OrderID:       NewOrderID(now),
		CustomerName:  strings.TrimSpace(in.Customer.Name),
		TableNumber:   ClampTableNumber(in.TableNumber),
		Items:         in.Items,
		TotalPrice:    total,
		Status:        models.OrderStatusPendingVerification,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: method,
		QueueDate:     now.Format("2006-01-02"),
		Notes:         utils.StringPtr(strings.TrimSpace(in.Notes)),
		OrderTime:     now,
	}
	if customer != nil {
		order.CustomerID = &customer.ID
		order.CustomerEmail = customer.Email
		if order.CustomerName == "" {
			order.CustomerName = customer.Name
		}
	}
	if order.CustomerName == "" {
		order.CustomerName = "Guest"
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		position, err := tx.Orders.NextQueuePosition(ctx, order.QueueDate)
		if err != nil {
			return err
		}
		order.QueuePosition = position
		ready := now.Add(time.Duration(position) * estimatedPrepTime)
		order.EstimatedReadyTime = &ready

		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		return tx.Activity.Create(ctx, utils.NewOrderAuditLog("order_created", order.ID, nil, order,
			in.Actor.UserID, in.Actor.IP, fmt.Sprintf("Order %s placed (%s)", order.OrderID, method)))
	})
	if err != nil {
		s.log.Error("failed to place order", "action", "place_order", "error", err)
		return nil, err
	}

	s.log.Info("order placed", "action", "place_order", "order_id", order.OrderID,
		"queue_position", order.QueuePosition, "total", order.TotalPrice)

	rooms := []string{realtime.RoomAdmin, realtime.RoomStaff}
	if order.CustomerEmail != nil {
		rooms = append(rooms, realtime.CustomerRoom(*order.CustomerEmail))
	}
	realtime.Broadcast(ctx, s.pub, s.log, realtime.Event{
		Name:          realtime.EventNewOrderReceived,
		OrderID:       order.OrderID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Data: map[string]interface{}{
			"customerName":  order.CustomerName,
			"tableNumber":   order.TableNumber,
			"totalPrice":    order.TotalPrice,
			"queuePosition": order.QueuePosition,
		},
	}, rooms...)
	return order, nil
}

func (s *orderService) resolveCustomer(ctx context.Context, id CustomerIdentity) (*models.Customer, error) {
	if id.CustomerID != nil {
		return s.store.Customers.FindByID(ctx, *id.CustomerID)
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, nil
	}
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = "Guest"
	}
	return s.store.Customers.FindOrCreateGuest(ctx, name, email)
}

func (s *orderService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.Orders.FindByOrderID(ctx, orderID)
}

func (s *orderService) List(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}
	return s.store.Orders.List(ctx, filter)
}

var kitchenStatuses = map[string]bool{
	models.OrderStatusPreparing: true,
	models.OrderStatusReady:     true,
	models.OrderStatusCompleted: true,
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID, status string, actor Actor) (*models.Order, error) {
	if !kitchenStatuses[status] {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status %q", status))
	}
	before, err := s.store.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !before.IsPaid() {
		return nil, apperrors.Conflict(fmt.Sprintf("order must be paid before it is %s", status))
	}

	var after *models.Order
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var completedAt *time.Time
		if status == models.OrderStatusCompleted {
			now := s.now()
			completedAt = &now
		}
		if err := tx.Orders.UpdateStatus(ctx, before.ID, status, completedAt); err != nil {
			return err
		}
		after, err = tx.Orders.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		return tx.Activity.Create(ctx, utils.NewOrderAuditLog("order_status_updated", before.ID, before, after,
			actor.UserID, actor.IP, fmt.Sprintf("Order %s moved to %s", orderID, status)))
	})
	if err != nil {
		return nil, err
	}

	s.broadcastUpdate(ctx, after)
	return after, nil
}

func (s *orderService) Cancel(ctx context.Context, orderID string, actor Actor) (*models.Order, error) {
	before, err := s.store.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var after *models.Order
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Orders.Cancel(ctx, before.ID); err != nil {
			return err
		}
		after, err = tx.Orders.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		return tx.Activity.Create(ctx, utils.NewOrderAuditLog("order_cancelled", before.ID, before, after,
			actor.UserID, actor.IP, fmt.Sprintf("Order %s cancelled", orderID)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order cancelled", "action", "cancel_order", "order_id", orderID)
	s.broadcastUpdate(ctx, after)
	return after, nil
}

func (s *orderService) broadcastUpdate(ctx context.Context, order *models.Order) {
	realtime.Broadcast(ctx, s.pub, s.log, realtime.Event{
		Name:          realtime.EventOrderUpdated,
		OrderID:       order.OrderID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}, realtime.OrderRoom(order.OrderID), realtime.RoomStaff, realtime.RoomAdmin)
}
