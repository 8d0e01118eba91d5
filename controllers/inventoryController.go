package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kd-resto/dtos"
	"kd-resto/services"
)

type InventoryController struct {
	inventory services.InventoryService
	log       *slog.Logger
}

func NewInventoryController(inventory services.InventoryService, log *slog.Logger) *InventoryController {
	return &InventoryController{inventory: inventory, log: log}
}

func (ctl *InventoryController) CheckFulfillment(c *gin.Context) {
	var input dtos.FulfillmentCheckRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ctl.inventory.CheckFulfillment(c.Request.Context(), dtos.ToOrderItems(input.Items))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"canFulfillOrder": result.CanFulfillOrder,
		"details":         result.Details,
	})
}

func (ctl *InventoryController) GetLowStock(c *gin.Context) {
	ingredients, err := ctl.inventory.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ingredients, "count": len(ingredients)})
}
