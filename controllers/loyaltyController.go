package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kd-resto/dtos"
	"kd-resto/services"
)

type LoyaltyController struct {
	loyalty services.LoyaltyService
	log     *slog.Logger
}

func NewLoyaltyController(loyalty services.LoyaltyService, log *slog.Logger) *LoyaltyController {
	return &LoyaltyController{loyalty: loyalty, log: log}
}

func customerIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("customerId"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid customer ID"})
		return 0, false
	}
	return uint(id), true
}

func (ctl *LoyaltyController) GetBalance(c *gin.Context) {
	id, ok := customerIDParam(c)
	if !ok {
		return
	}
	balance, err := ctl.loyalty.ComputeBalance(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customerId": id, "points": balance})
}

func (ctl *LoyaltyController) GetHistory(c *gin.Context) {
	id, ok := customerIDParam(c)
	if !ok {
		return
	}
	history, err := ctl.loyalty.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

func (ctl *LoyaltyController) Redeem(c *gin.Context) {
	id, ok := customerIDParam(c)
	if !ok {
		return
	}
	var input dtos.RedeemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	balance, err := ctl.loyalty.Redeem(c.Request.Context(), id, input.Points, input.OrderID, input.Description)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Points redeemed",
		"redeemed": input.Points,
		"points":   balance,
	})
}
