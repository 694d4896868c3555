// internal/app/router.go
package app

import (
	"net/http"

	authHandler "loyalty-service/internal/handlers/auth"
	customerHandler "loyalty-service/internal/handlers/customer"
	feedbackHandler "loyalty-service/internal/handlers/feedback"
	notifyHandler "loyalty-service/internal/handlers/notification"
	promoHandler "loyalty-service/internal/handlers/promo"
	reportHandler "loyalty-service/internal/handlers/report"
	reservationHandler "loyalty-service/internal/handlers/reservation"
	transactionHandler "loyalty-service/internal/handlers/transaction"
	wsHandler "loyalty-service/internal/handlers/websocket"
	"loyalty-service/internal/metrics"
	"loyalty-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler        *authHandler.AuthHandler
	CustomerHandler    *customerHandler.CustomerHandler
	TransactionHandler *transactionHandler.TransactionHandler
	PromoHandler       *promoHandler.PromoHandler
	ReservationHandler *reservationHandler.ReservationHandler
	FeedbackHandler    *feedbackHandler.FeedbackHandler
	ReportHandler      *reportHandler.ReportHandler
	NotifHandler       *notifyHandler.NotificationHandler
	WSHandler          *wsHandler.WebSocketHandler
	AuthMiddleware     *middleware.AuthMiddleware
	Seeder             middleware.Seeder
	Metrics            *metrics.Metrics
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	// ==================== Metrics & WebSocket ====================
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	r.GET("/ws", h.WSHandler.HandleConnection)

	api := r.Group("/api")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	api.Use(middleware.SeedMiddleware(h.Seeder, logger))
	auth := h.AuthMiddleware.Auth()
	staff := h.AuthMiddleware.StaffOnly()

	// ==================== Auth ====================
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", h.AuthHandler.StaffLogin)
		authRoutes.POST("/logout", auth, h.AuthHandler.Logout)
		authRoutes.GET("/me", auth, h.AuthHandler.Me)
	}

	// ==================== Customers ====================
	customers := api.Group("/customers")
	{
		customers.POST("/login", h.AuthHandler.CustomerLogin)

		customersAuth := customers.Group("")
		customersAuth.Use(auth)
		{
			customersAuth.POST("/register", h.CustomerHandler.Register)
			customersAuth.GET("", h.CustomerHandler.ListCustomers)
			customersAuth.GET("/:id", h.CustomerHandler.GetCustomer)
			customersAuth.GET("/:id/transactions", h.CustomerHandler.GetTransactions)
		}
		customers.GET("/group", guarded(staff, h.CustomerHandler.GetGroups)...)
	}

	// ==================== Transactions & Loyalty ====================
	api.POST("/transactions/sync", guarded(staff, h.TransactionHandler.Sync)...)
	api.POST("/loyalty/calculate", auth, h.TransactionHandler.Calculate)

	// ==================== Promos ====================
	promos := api.Group("/promos")
	{
		promos.GET("", auth, h.PromoHandler.ListPromos)
		promos.GET("/active", auth, h.PromoHandler.ListActive)
		promos.POST("/redeem", auth, h.PromoHandler.Redeem)

		promosStaff := promos.Group("")
		promosStaff.Use(staff...)
		{
			promosStaff.POST("", h.PromoHandler.CreatePromo)
			promosStaff.PUT("/:id", h.PromoHandler.UpdatePromo)
			promosStaff.DELETE("/:id", h.PromoHandler.DeletePromo)
		}
	}

	// ==================== Reservations ====================
	reservations := api.Group("/reservations")
	{
		reservations.POST("", auth, h.ReservationHandler.CreateReservation)
		reservations.GET("/upcoming", auth, h.ReservationHandler.GetUpcoming)
		reservations.PUT("/:id/complete", guarded(staff, h.ReservationHandler.Complete)...)
		reservations.PUT("/:id/cancel", guarded(staff, h.ReservationHandler.Cancel)...)
	}

	// ==================== Feedback ====================
	feedback := api.Group("/feedback")
	feedback.Use(auth)
	{
		feedback.POST("", h.FeedbackHandler.CreateFeedback)
		feedback.GET("/:customer_id", h.FeedbackHandler.GetCustomerFeedback)
	}

	// ==================== Reports & Dashboard ====================
	api.GET("/reports/:type", guarded(h.AuthMiddleware.ManagersOnly(), h.ReportHandler.GetReport)...)
	api.GET("/dashboard/stats", guarded(staff, h.ReportHandler.GetDashboardStats)...)

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	{
		notifications.POST("/whatsapp", guarded(staff, h.NotifHandler.SendWhatsApp)...)
		notifications.GET("/:customer_id", auth, h.NotifHandler.GetCustomerNotifications)
	}

	api.GET("/ws/stats", guarded(staff, h.WSHandler.GetStats)...)
}

// guarded copies mw so route chains never share a backing array.
func guarded(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	return append(append(out, mw...), h)
}
