package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kd-resto/apperrors"
	"kd-resto/models"
	"kd-resto/notifications"
	"kd-resto/providers"
	"kd-resto/realtime"
	"kd-resto/repositories"
	"kd-resto/utils"
)

type QRPaymentResult struct {
	OrderID string
	Method  string
	providers.QRPayment
}

type CashPaymentInput struct {
	OrderID string
	Amount  float64
	StaffID *uint
	Notes   string
	IP      string
}

type CallbackResult struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Duplicate     bool    `json:"duplicate"`
	RefundPending bool    `json:"refundPending"`
}

type ReceiptDecision struct {
	OrderID string
	Approve bool
	StaffID *uint
	Notes   string
	IP      string
}

type PaymentSnapshot struct {
	OrderID          string                      `json:"orderId"`
	Status           string                      `json:"status"`
	PaymentStatus    string                      `json:"paymentStatus"`
	PaymentMethod    string                      `json:"paymentMethod"`
	TotalPrice       float64                     `json:"totalPrice"`
	PaymentReference *string                     `json:"paymentReference,omitempty"`
	ReceiptPath      *string                     `json:"receiptPath,omitempty"`
	CompletedTime    *time.Time                  `json:"completedTime,omitempty"`
	Transactions     []models.PaymentTransaction `json:"transactions"`
}

type PaymentService interface {
	RequestPayment(ctx context.Context, orderID, method string, tableNumber *int) (*QRPaymentResult, error)
	ConfirmCashPayment(ctx context.Context, in CashPaymentInput) (*models.PaymentTransaction, error)
	HandleProviderCallback(ctx context.Context, method string, payload []byte, signature string) (*CallbackResult, error)
	VerifyReceipt(ctx context.Context, in ReceiptDecision) (*models.Order, error)
	Status(ctx context.Context, orderID string) (*PaymentSnapshot, error)
}

type paymentService struct {
	store      *repositories.Store
	providers  providers.Registry
	loyalty    LoyaltyService
	pub        realtime.Publisher
	log        *slog.Logger
	now        func() time.Time
	notifier   notifications.Sender
	adminPhone string
}

type PaymentOption func(*paymentService)

// WithPaymentAlerts texts adminPhone whenever an order is paid.
func WithPaymentAlerts(sender notifications.Sender, adminPhone string) PaymentOption {
	return func(s *paymentService) {
		s.notifier = sender
		s.adminPhone = adminPhone
	}
}

func NewPaymentService(
	store *repositories.Store,
	registry providers.Registry,
	loyalty LoyaltyService,
	pub realtime.Publisher,
	log *slog.Logger,
	opts ...PaymentOption,
) PaymentService {
	s := &paymentService{
		store:     store,
		providers: registry,
		loyalty:   loyalty,
		pub:       pub,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *paymentService) RequestPayment(ctx context.Context, orderID, method string, tableNumber *int) (*QRPaymentResult, error) {
	provider, err := s.providers.Get(method)
	if err != nil {
		return nil, err
	}
	order, err := s.store.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := payable(order); err != nil {
		return nil, err
	}

	qr, err := provider.GenerateQR(ctx, order)
	if err != nil {
		return nil, err
	}

	err = s.store.Orders.SavePaymentRequest(ctx, order.ID, repositories.PaymentRequest{
		Method:            provider.Name(),
		QRCode:            qr.QRCode,
		Reference:         qr.Reference,
		ProviderPaymentID: qr.ProviderPaymentID,
		TableNumber:       ClampTableNumber(tableNumber),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment QR issued", "action", "request_payment", "order_id", orderID,
		"method", provider.Name(), "reference", qr.Reference)
	return &QRPaymentResult{OrderID: order.OrderID, Method: provider.Name(), QRPayment: *qr}, nil
}

// settle performs the paid transition inside tx: conditional flip, transaction
// row, ingredient deduction, loyalty accrual and audit entry. It returns the
// order as it reads after the flip.
func (s *paymentService) settle(ctx context.Context, tx *repositories.Store, order *models.Order, txn *models.PaymentTransaction, ip, action string) (*models.Order, error) {
	now := s.now()
	if err := tx.Orders.MarkPaid(ctx, order.ID, txn.PaymentMethod, now); err != nil {
		return nil, err
	}
	txn.ID = 0
	txn.CreatedAt = time.Time{}
	txn.OrderID = order.ID
	if err := tx.Payments.Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := deductForOrder(ctx, tx, order, s.log); err != nil {
		return nil, err
	}
	if order.CustomerID != nil {
		if points := s.loyalty.PointsFor(txn.Amount); points > 0 {
			if err := earnPointsTx(ctx, tx, *order.CustomerID, order.ID, txn.Amount, points); err != nil {
				return nil, err
			}
		}
	}

	after, err := tx.Orders.FindByOrderID(ctx, order.OrderID)
	if err != nil {
		return nil, err
	}
	err = tx.Activity.Create(ctx, utils.NewOrderAuditLog(action, order.ID, order, after, txn.StaffID, ip,
		fmt.Sprintf("Payment of %.2f via %s recorded for %s", txn.Amount, txn.PaymentMethod, order.OrderID)))
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (s *paymentService) ConfirmCashPayment(ctx context.Context, in CashPaymentInput) (*models.PaymentTransaction, error) {
	if in.StaffID == nil {
		return nil, apperrors.Unauthenticated("staff identity is required to confirm cash payments")
	}
	order, err := s.store.Orders.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := payable(order); err != nil {
		return nil, err
	}
	amount := in.Amount
	if amount <= 0 {
		amount = order.TotalPrice
	}

	txn := &models.PaymentTransaction{
		PaymentMethod: models.PaymentMethodCash,
		Amount:        amount,
		ReferenceCode: order.PaymentReference,
		Status:        models.TransactionStatusCompleted,
		StaffID:       in.StaffID,
		Notes:         utils.StringPtr(in.Notes),
	}
	var paid *models.Order
	write := func(tx *repositories.Store) error {
		var err error
		paid, err = s.settle(ctx, tx, order, txn, in.IP, "cash_payment_confirmed")
		return err
	}

	if err := s.store.Transaction(ctx, write); err != nil {
		if !apperrors.IsTransient(err) {
			return nil, err
		}
		s.log.Warn("cash payment write failed, retrying on a fresh connection",
			"action", "confirm_cash_payment", "order_id", in.OrderID, "error", err)
		if fallbackErr := s.store.TransactionOnFreshConn(ctx, write); fallbackErr != nil {
			s.log.Error("cash payment fallback failed",
				"action", "confirm_cash_payment", "order_id", in.OrderID,
				"error", err, "fallback_error", fallbackErr)
			return nil, err
		}
	}

	s.log.Info("cash payment confirmed", "action", "confirm_cash_payment", "order_id", in.OrderID,
		"amount", amount, "staff_id", *in.StaffID, "transaction_id", txn.ID)
	s.alertPaid(paid, models.PaymentMethodCash, amount)
	s.broadcastPayment(ctx, paid, map[string]interface{}{
		"amount":        amount,
		"method":        models.PaymentMethodCash,
		"transactionId": txn.ID,
	})
	return txn, nil
}

func (s *paymentService) HandleProviderCallback(ctx context.Context, method string, payload []byte, signature string) (*CallbackResult, error) {
	provider, err := s.providers.Get(method)
	if err != nil {
		return nil, err
	}
	if !provider.VerifySignature(payload, signature) {
		s.log.Warn("rejected provider callback", "action", "provider_callback", "method", provider.Name())
		return nil, apperrors.InvalidSignature("invalid signature")
	}
	evt, err := provider.ParseCallback(payload)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.Payments.FindByProviderTransactionID(ctx, evt.TransactionID); err == nil {
		s.log.Info("duplicate provider callback ignored", "action", "provider_callback",
			"order_id", evt.OrderID, "transaction_id", evt.TransactionID)
		return &CallbackResult{OrderID: evt.OrderID, Amount: existing.Amount, Duplicate: true}, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	order, err := s.store.Orders.FindByOrderID(ctx, evt.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return &CallbackResult{OrderID: order.OrderID, Amount: evt.Amount, Duplicate: true}, nil
	}
	if order.Status == models.OrderStatusCancelled && !evt.Succeeded {
		s.log.Info("failed payment for cancelled order ignored", "action", "provider_callback",
			"order_id", order.OrderID, "method", provider.Name())
		return &CallbackResult{OrderID: order.OrderID, Amount: evt.Amount}, nil
	}

	if !evt.Succeeded {
		if err := s.store.Orders.SetPaymentStatus(ctx, order.ID, models.PaymentStatusFailed); err != nil &&
			!errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		s.log.Info("provider reported failed payment", "action", "provider_callback",
			"order_id", order.OrderID, "method", provider.Name())
		realtime.Broadcast(ctx, s.pub, s.log, realtime.Event{
			Name:          realtime.EventPaymentUpdated,
			OrderID:       order.OrderID,
			Status:        order.Status,
			PaymentStatus: models.PaymentStatusFailed,
		}, realtime.OrderRoom(order.OrderID), realtime.RoomStaff, realtime.RoomAdmin)
		return &CallbackResult{OrderID: order.OrderID, Amount: evt.Amount}, nil
	}

	amount := evt.Amount
	if amount <= 0 {
		amount = order.TotalPrice
	}
	if order.Status == models.OrderStatusCancelled {
		return s.recordUnapplied(ctx, provider.Name(), order, evt.TransactionID, amount)
	}
	transactionID := evt.TransactionID
	txn := &models.PaymentTransaction{
		PaymentMethod:         provider.Name(),
		Amount:                amount,
		ProviderTransactionID: &transactionID,
		ReferenceCode:         order.PaymentReference,
		Status:                models.TransactionStatusCompleted,
	}
	var paid *models.Order
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		paid, err = s.settle(ctx, tx, order, txn, "", "provider_payment_confirmed")
		return err
	})
	if errors.Is(err, apperrors.ErrConflict) {
		// lost a race with a replay, a cash confirmation or a cancellation
		current, findErr := s.store.Orders.FindByOrderID(ctx, order.OrderID)
		if findErr != nil {
			return nil, findErr
		}
		if current.Status == models.OrderStatusCancelled && !current.IsPaid() {
			return s.recordUnapplied(ctx, provider.Name(), current, evt.TransactionID, amount)
		}
		return &CallbackResult{OrderID: order.OrderID, Amount: amount, Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("provider payment confirmed", "action", "provider_callback", "order_id", order.OrderID,
		"method", provider.Name(), "amount", amount)
	s.alertPaid(paid, provider.Name(), amount)
	s.broadcastPayment(ctx, paid, map[string]interface{}{
		"amount":        amount,
		"method":        provider.Name(),
		"transactionId": txn.ID,
	})
	return &CallbackResult{OrderID: order.OrderID, Amount: amount}, nil
}

// recordUnapplied keeps a wallet payment that reached a cancelled order. The
// order stays cancelled, no stock moves and no points accrue; the row is left
// in refund_pending for staff to settle with the customer.
func (s *paymentService) recordUnapplied(ctx context.Context, method string, order *models.Order, transactionID string, amount float64) (*CallbackResult, error) {
	txn := &models.PaymentTransaction{
		OrderID:               order.ID,
		PaymentMethod:         method,
		Amount:                amount,
		ProviderTransactionID: &transactionID,
		ReferenceCode:         order.PaymentReference,
		Status:                models.TransactionStatusRefundPending,
		Notes:                 utils.StringPtr("received after the order was cancelled"),
	}
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Payments.Create(ctx, txn); err != nil {
			return err
		}
		return tx.Activity.Create(ctx, utils.NewOrderAuditLog("payment_after_cancel", order.ID, order, order, nil, "",
			fmt.Sprintf("Payment of %.2f via %s received for cancelled order %s", amount, method, order.OrderID)))
	})
	if errors.Is(err, apperrors.ErrConflict) {
		// the same provider event raced in twice
		return &CallbackResult{OrderID: order.OrderID, Amount: amount, Duplicate: true, RefundPending: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Warn("payment received for cancelled order", "action", "provider_callback", "order_id", order.OrderID,
		"method", method, "amount", amount, "transaction_id", transactionID)
	realtime.Broadcast(ctx, s.pub, s.log, realtime.Event{
		Name:          realtime.EventPaymentUpdated,
		OrderID:       order.OrderID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Data: map[string]interface{}{
			"amount":        amount,
			"method":        method,
			"transactionId": txn.ID,
			"refundPending": true,
		},
	}, realtime.OrderRoom(order.OrderID), realtime.RoomStaff, realtime.RoomAdmin)
	return &CallbackResult{OrderID: order.OrderID, Amount: amount, RefundPending: true}, nil
}

func (s *paymentService) VerifyReceipt(ctx context.Context, in ReceiptDecision) (*models.Order, error) {
	if in.StaffID == nil {
		return nil, apperrors.Unauthenticated("staff identity is required to verify receipts")
	}
	order, err := s.store.Orders.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := payable(order); err != nil {
		return nil, err
	}
	if order.ReceiptPath == nil {
		return nil, apperrors.Validation("order has no receipt to verify")
	}

	if in.Approve {
		txn := &models.PaymentTransaction{
			PaymentMethod: order.PaymentMethod,
			Amount:        order.TotalPrice,
			ReferenceCode: order.PaymentReference,
			Status:        models.TransactionStatusCompleted,
			StaffID:       in.StaffID,
			Notes:         utils.StringPtr(in.Notes),
		}
		err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
			_, err := s.settle(ctx, tx, order, txn, in.IP, "receipt_approved")
			return err
		})
	} else {
		err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
			if err := tx.Orders.SetPaymentStatus(ctx, order.ID, models.PaymentStatusFailed); err != nil {
				return err
			}
			after := *order
			after.PaymentStatus = models.PaymentStatusFailed
			description := "Receipt rejected for " + order.OrderID
			if in.Notes != "" {
				description += ": " + in.Notes
			}
			return tx.Activity.Create(ctx, utils.NewOrderAuditLog("receipt_rejected", order.ID, order, &after,
				in.StaffID, in.IP, description))
		})
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Orders.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	s.log.Info("receipt verified", "action", "verify_receipt", "order_id", in.OrderID, "approved", in.Approve)
	realtime.Broadcast(ctx, s.pub, s.log, realtime.Event{
		Name:          realtime.EventPaymentUpdated,
		OrderID:       updated.OrderID,
		Status:        updated.Status,
		PaymentStatus: updated.PaymentStatus,
	}, realtime.OrderRoom(updated.OrderID), realtime.RoomStaff, realtime.RoomAdmin)
	return updated, nil
}

func (s *paymentService) Status(ctx context.Context, orderID string) (*PaymentSnapshot, error) {
	order, err := s.store.Orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &PaymentSnapshot{
		OrderID:          order.OrderID,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		PaymentMethod:    order.PaymentMethod,
		TotalPrice:       order.TotalPrice,
		PaymentReference: order.PaymentReference,
		ReceiptPath:      order.ReceiptPath,
		CompletedTime:    order.CompletedTime,
		Transactions:     txns,
	}, nil
}

// payable rejects orders that can no longer take a payment.
func payable(order *models.Order) error {
	switch {
	case order.IsPaid():
		return apperrors.Conflict("order already paid")
	case order.Status == models.OrderStatusCancelled:
		return apperrors.Conflict("order is cancelled")
	}
	return nil
}

// alertPaid is fire-and-forget; the gateway call must not hold up the response.
func (s *paymentService) alertPaid(order *models.Order, method string, amount float64) {
	if s.notifier == nil || s.adminPhone == "" {
		return
	}
	msg := notifications.FormatPaymentMessage(order, method, amount, s.now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, s.adminPhone, msg); err != nil {
			s.log.Warn("payment alert failed", "action", "notify_payment", "order_id", order.OrderID, "error", err)
		}
	}()
}

func (s *paymentService) broadcastPayment(ctx context.Context, order *models.Order, data map[string]interface{}) {
	realtime.Broadcast(ctx, s.pub, s.log, realtime.Event{
		Name:          realtime.EventPaymentUpdated,
		OrderID:       order.OrderID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Data:          data,
	}, realtime.OrderRoom(order.OrderID), realtime.RoomStaff, realtime.RoomAdmin)
}
