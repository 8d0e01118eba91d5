package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"kd-resto/controllers"
	"kd-resto/dtos"
	"kd-resto/logger"
	"kd-resto/middlewares"
	"kd-resto/models"
	"kd-resto/realtime"
	"kd-resto/services"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Auth        services.AuthService
	Orders      services.OrderService
	Payments    services.PaymentService
	Receipts    services.ReceiptService
	Loyalty     services.LoyaltyService
	Inventory   services.InventoryService
	Hub         *realtime.Hub
	JWTSecret   string
	CORSOrigins []string
	Log         *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(d.Log))
	r.MaxMultipartMemory = services.MaxReceiptSize + (1 << 20)

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.CORSOrigins) == 0 || (len(d.CORSOrigins) == 1 && d.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = d.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dtos.RegisterValidations(v); err != nil {
			d.Log.Error("failed to register validations", "error", err)
		}
	}

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := controllers.NewAuthController(d.Auth, d.Log)
	orders := controllers.NewOrderController(d.Orders, d.Log)
	payments := controllers.NewPaymentController(d.Payments, d.Log)
	receipts := controllers.NewReceiptController(d.Receipts, d.Log)
	loyalty := controllers.NewLoyaltyController(d.Loyalty, d.Log)
	inventory := controllers.NewInventoryController(d.Inventory, d.Log)
	stream := controllers.NewRealtimeController(d.Hub)

	requireAuth := middlewares.AuthMiddleware(d.JWTSecret)
	optionalAuth := middlewares.OptionalAuth(d.JWTSecret)
	staffOnly := middlewares.RoleMiddleware(models.RoleAdmin, models.RoleStaff)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})
	r.POST("/login", auth.Login)

	// Guest flow
	r.POST("/guest/checkout", optionalAuth, orders.GuestCheckout)

	// Payments
	payment := r.Group("/payment")
	{
		for _, provider := range []string{models.PaymentMethodGCash, models.PaymentMethodPayMaya} {
			payment.POST("/"+provider+"/qr/:orderId", payments.RequestQR(provider))
			payment.POST("/"+provider+"/callback", payments.Callback(provider))
		}
		payment.POST("/cash/:orderId", requireAuth, staffOnly, payments.ConfirmCash)
		payment.GET("/status/:orderId", payments.GetStatus)
		payment.POST("/verify/:orderId", requireAuth, staffOnly, payments.VerifyReceipt)
	}

	// Receipts
	r.POST("/receipts/upload-receipt", optionalAuth, receipts.UploadReceipt)
	r.GET("/receipts/:name", requireAuth, staffOnly, receipts.Download)

	// Orders (staff)
	orderGroup := r.Group("/orders")
	orderGroup.Use(requireAuth, staffOnly)
	{
		orderGroup.POST("", orders.CreateOrder)
		orderGroup.GET("", orders.GetOrders)
		orderGroup.GET("/:orderId", orders.GetOrderByID)
		orderGroup.PATCH("/:orderId/status", orders.UpdateOrderStatus)
		orderGroup.POST("/:orderId/cancel", orders.CancelOrder)
	}

	// Loyalty
	loyaltyGroup := r.Group("/loyalty/:customerId")
	{
		loyaltyGroup.GET("/balance", loyalty.GetBalance)
		loyaltyGroup.GET("/history", loyalty.GetHistory)
		loyaltyGroup.POST("/redeem", requireAuth, staffOnly, loyalty.Redeem)
	}

	// Inventory
	inventoryGroup := r.Group("/inventory")
	{
		inventoryGroup.POST("/check", inventory.CheckFulfillment)
		inventoryGroup.GET("/low-stock", requireAuth, staffOnly, inventory.GetLowStock)
	}

	// Realtime
	r.GET("/realtime/:room", optionalAuth, stream.Stream)
}
