package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kd-resto/dtos"
	"kd-resto/middlewares"
	"kd-resto/repositories"
	"kd-resto/services"
)

type OrderController struct {
	orders services.OrderService
	log    *slog.Logger
}

func NewOrderController(orders services.OrderService, log *slog.Logger) *OrderController {
	return &OrderController{orders: orders, log: log}
}

func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{UserID: middlewares.CurrentUserID(c), IP: c.ClientIP()}
}

// GuestCheckout places an order for a customer without a session.
func (ctl *OrderController) GuestCheckout(c *gin.Context) {
	var input dtos.GuestCheckoutRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.PlaceOrder(c.Request.Context(), services.PlaceOrderInput{
		Customer:      services.CustomerIdentity{Name: input.CustomerName, Email: input.CustomerEmail},
		Items:         dtos.ToOrderItems(input.Items),
		TotalAmount:   input.TotalAmount,
		TableNumber:   input.TableNumber,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
		Actor:         actorFrom(c),
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"orderId":       order.OrderID,
		"status":        order.Status,
		"paymentStatus": order.PaymentStatus,
		"queuePosition": order.QueuePosition,
		"totalPrice":    order.TotalPrice,
		"tableNumber":   order.TableNumber,
	})
}

// CreateOrder is the staff counter flow.
func (ctl *OrderController) CreateOrder(c *gin.Context) {
	var input dtos.CreateOrderRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.PlaceOrder(c.Request.Context(), services.PlaceOrderInput{
		Customer: services.CustomerIdentity{
			CustomerID: input.CustomerID,
			Name:       input.CustomerName,
			Email:      input.CustomerEmail,
		},
		Items:         dtos.ToOrderItems(input.Items),
		TotalAmount:   input.TotalAmount,
		TableNumber:   input.TableNumber,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
		Actor:         actorFrom(c),
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

// GetOrders lists orders newest first with pagination.
func (ctl *OrderController) GetOrders(c *gin.Context) {
	var filter dtos.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	orders, total, err := ctl.orders.List(c.Request.Context(), repositories.OrderFilter{
		Date:          filter.Date,
		Status:        filter.Status,
		PaymentStatus: filter.PaymentStatus,
		Page:          filter.Page,
		Limit:         filter.Limit,
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       orders,
		"page":       filter.Page,
		"limit":      filter.Limit,
		"total":      total,
		"totalPages": int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	})
}

func (ctl *OrderController) GetOrderByID(c *gin.Context) {
	order, err := ctl.orders.Get(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

func (ctl *OrderController) UpdateOrderStatus(c *gin.Context) {
	var input dtos.UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.UpdateStatus(c.Request.Context(), c.Param("orderId"), input.Status, actorFrom(c))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

func (ctl *OrderController) CancelOrder(c *gin.Context) {
	order, err := ctl.orders.Cancel(c.Request.Context(), c.Param("orderId"), actorFrom(c))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled", "data": order})
}
