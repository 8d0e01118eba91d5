package controllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kd-resto/dtos"
	"kd-resto/middlewares"
	"kd-resto/models"
	"kd-resto/services"
)

// maxCallbackBody bounds webhook payloads read into memory.
const maxCallbackBody = 1 << 20

type PaymentController struct {
	payments services.PaymentService
	log      *slog.Logger
}

func NewPaymentController(payments services.PaymentService, log *slog.Logger) *PaymentController {
	return &PaymentController{payments: payments, log: log}
}

// RequestQR issues a wallet QR code for provider.
func (ctl *PaymentController) RequestQR(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input dtos.QRRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				respondBindError(c, err)
				return
			}
		}

		res, err := ctl.payments.RequestPayment(c.Request.Context(), c.Param("orderId"), provider, input.TableNumber)
		if err != nil {
			respondError(c, ctl.log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":                  true,
			"qrCode":                   res.QRCode,
			"paymentUrl":               res.PaymentURL,
			"orderId":                  res.OrderID,
			"amount":                   res.Amount,
			"reference":                res.Reference,
			res.Method + "PaymentId": res.ProviderPaymentID,
		})
	}
}

func (ctl *PaymentController) ConfirmCash(c *gin.Context) {
	var input dtos.CashPaymentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	staffID := middlewares.CurrentUserID(c)
	if staffID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
		return
	}
	if input.StaffID != nil && *input.StaffID != *staffID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "staffId does not match the signed-in staff"})
		return
	}

	orderID := c.Param("orderId")
	txn, err := ctl.payments.ConfirmCashPayment(c.Request.Context(), services.CashPaymentInput{
		OrderID: orderID,
		Amount:  input.Amount,
		StaffID: staffID,
		Notes:   input.Notes,
		IP:      c.ClientIP(),
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Cash payment confirmed",
		"orderId":       orderID,
		"amount":        txn.Amount,
		"method":        models.PaymentMethodCash,
		"transactionId": txn.ID,
		"staffId":       *staffID,
		"timestamp":     txn.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Callback receives a signed provider webhook.
func (ctl *PaymentController) Callback(provider string) gin.HandlerFunc {
	header := "x-" + provider + "-signature"
	return func(c *gin.Context) {
		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Payload too large"})
				return
			}
			respondBindError(c, err)
			return
		}

		res, err := ctl.payments.HandleProviderCallback(c.Request.Context(), provider, payload, c.GetHeader(header))
		if err != nil {
			respondError(c, ctl.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"orderId":       res.OrderID,
			"amount":        res.Amount,
			"duplicate":     res.Duplicate,
			"refundPending": res.RefundPending,
		})
	}
}

func (ctl *PaymentController) GetStatus(c *gin.Context) {
	snapshot, err := ctl.payments.Status(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

func (ctl *PaymentController) VerifyReceipt(c *gin.Context) {
	var input dtos.VerifyReceiptRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.payments.VerifyReceipt(c.Request.Context(), services.ReceiptDecision{
		OrderID: c.Param("orderId"),
		Approve: *input.Approve,
		StaffID: middlewares.CurrentUserID(c),
		Notes:   input.Notes,
		IP:      c.ClientIP(),
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	message := "Receipt rejected"
	if *input.Approve {
		message = "Receipt approved"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       message,
		"orderId":       order.OrderID,
		"paymentStatus": order.PaymentStatus,
	})
}
