package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"kd-resto/apperrors"
	"kd-resto/models"
	"kd-resto/realtime"
	"kd-resto/repositories"
	"kd-resto/storage"
	"kd-resto/utils"
)

const MaxReceiptSize = 5 << 20

type ReceiptUpload struct {
	OrderID string
	Data    io.Reader
	Actor   Actor
}

type ReceiptService interface {
	UploadReceipt(ctx context.Context, in ReceiptUpload) (string, error)
	ReceiptFile(ctx context.Context, name string) (string, error)
}

type receiptService struct {
	store    *repositories.Store
	receipts *storage.ReceiptStore
	pub      realtime.Publisher
	log      *slog.Logger
}

func NewReceiptService(store *repositories.Store, receipts *storage.ReceiptStore, pub realtime.Publisher, log *slog.Logger) ReceiptService {
	return &receiptService{store: store, receipts: receipts, pub: pub, log: log}
}

func (s *receiptService) UploadReceipt(ctx context.Context, in ReceiptUpload) (path string, err error) {
	if strings.TrimSpace(in.OrderID) == "" {
		return "", apperrors.Validation("orderId is required")
	}
	if in.Data == nil {
		return "", apperrors.Validation("receipt file is required")
	}

	data, err := io.ReadAll(io.LimitReader(in.Data, MaxReceiptSize+1))
	if err != nil {
		return "", apperrors.Validation("failed to read receipt upload")
	}
	if len(data) == 0 {
		return "", apperrors.Validation("receipt file is empty")
	}
	if len(data) > MaxReceiptSize {
		return "", apperrors.Validation("receipt exceeds the 5MB limit")
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") || mtype.Is("image/svg+xml") {
		return "", apperrors.Validation(fmt.Sprintf("receipt must be a raster image, got %s", mtype.String()))
	}

	order, err := s.store.Orders.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return "", err
	}
	if err := payable(order); err != nil {
		return "", err
	}

	name, err := s.receipts.Save(order.OrderID, strings.TrimPrefix(mtype.Extension(), "."), bytes.NewReader(data))
	if err != nil {
		return "", apperrors.Internal("failed to store receipt", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := s.receipts.Remove(name); rmErr != nil {
			s.log.Error("failed to remove orphaned receipt", "action", "upload_receipt",
				"order_id", order.OrderID, "file", name, "error", rmErr)
		}
	}()

	var after *models.Order
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Orders.AttachReceipt(ctx, order.ID, name); err != nil {
			return err
		}
		var err error
		after, err = tx.Orders.FindByOrderID(ctx, order.OrderID)
		if err != nil {
			return err
		}
		return tx.Activity.Create(ctx, utils.NewOrderAuditLog("receipt_uploaded", order.ID, order, after,
			in.Actor.UserID, in.Actor.IP, fmt.Sprintf("Receipt %s uploaded for %s", name, order.OrderID)))
	})
	if err != nil {
		s.log.Error("failed to attach receipt", "action", "upload_receipt", "order_id", order.OrderID, "error", err)
		return "", err
	}

	s.log.Info("receipt uploaded", "action", "upload_receipt", "order_id", order.OrderID,
		"file", name, "mime", mtype.String(), "size", len(data))
	realtime.Broadcast(ctx, s.pub, s.log, realtime.Event{
		Name:          realtime.EventPaymentUpdated,
		OrderID:       after.OrderID,
		Status:        after.Status,
		PaymentStatus: after.PaymentStatus,
		Data:          map[string]string{"receiptPath": name},
	}, realtime.OrderRoom(after.OrderID), realtime.RoomStaff, realtime.RoomAdmin)
	return name, nil
}

// ReceiptFile resolves a stored receipt name to its path on disk.
func (s *receiptService) ReceiptFile(_ context.Context, name string) (string, error) {
	path, ok := s.receipts.Lookup(name)
	if !ok {
		return "", apperrors.NotFound("receipt not found")
	}
	return path, nil
}
