package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kd-resto/services"
)

type ReceiptController struct {
	receipts services.ReceiptService
	log      *slog.Logger
}

func NewReceiptController(receipts services.ReceiptService, log *slog.Logger) *ReceiptController {
	return &ReceiptController{receipts: receipts, log: log}
}

func (ctl *ReceiptController) UploadReceipt(c *gin.Context) {
	orderID := c.PostForm("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "orderId is required"})
		return
	}

	header, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "receipt file is required"})
		return
	}
	if header.Size > services.MaxReceiptSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "receipt exceeds the 5MB limit"})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondBindError(c, err)
		return
	}
	defer file.Close()

	path, err := ctl.receipts.UploadReceipt(c.Request.Context(), services.ReceiptUpload{
		OrderID: orderID,
		Data:    file,
		Actor:   actorFrom(c),
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Receipt uploaded",
		"orderId":     orderID,
		"receiptPath": path,
	})
}

// Download streams a stored receipt to signed-in staff.
func (ctl *ReceiptController) Download(c *gin.Context) {
	path, err := ctl.receipts.ReceiptFile(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.File(path)
}
