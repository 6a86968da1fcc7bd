package router

import (
	"github.com/gin-gonic/gin"

	"github.com/antonkudinov/linkmarket-backend/internal/config"
	"github.com/antonkudinov/linkmarket-backend/internal/http/handlers"
	"github.com/antonkudinov/linkmarket-backend/internal/http/middleware"
	"github.com/antonkudinov/linkmarket-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	requestHandler *handlers.RequestHandler,
	paymentHandler *handlers.PaymentHandler,
	disputeHandler *handlers.DisputeHandler,
	notificationHandler *handlers.NotificationHandler,
	conversationHandler *handlers.ConversationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Заявки на размещение.
		protected.POST("/requests", requestHandler.Create)
		protected.GET("/requests", requestHandler.ListMine)
		protected.GET("/requests/:id", middleware.UUIDValidator("id"), requestHandler.Get)
		protected.POST("/requests/:id/accept", middleware.UUIDValidator("id"), requestHandler.Accept)
		protected.POST("/requests/:id/reject", middleware.UUIDValidator("id"), requestHandler.Reject)
		protected.POST("/requests/:id/cancel", middleware.UUIDValidator("id"), requestHandler.Cancel)
		protected.POST("/requests/:id/placement", middleware.UUIDValidator("id"), requestHandler.SubmitPlacement)
		protected.GET("/requests/:id/conversation", middleware.UUIDValidator("id"), conversationHandler.GetByRequest)

		// Платежи и леджер.
		protected.GET("/payments/balance", paymentHandler.GetBalance)
		protected.POST("/payments/deposit", paymentHandler.Deposit)
		protected.POST("/payments/withdraw", paymentHandler.Withdraw)
		protected.GET("/payments/transactions", paymentHandler.ListTransactions)
		protected.GET("/payments/withdrawals", paymentHandler.ListWithdrawals)
		protected.GET("/payments/reconcile", paymentHandler.Reconcile)

		// Споры.
		protected.POST("/requests/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.Open)
		protected.GET("/disputes", disputeHandler.ListMine)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.Get)
		protected.POST("/disputes/:id/messages", middleware.UUIDValidator("id"), disputeHandler.AddMessage)
		protected.GET("/disputes/:id/messages", middleware.UUIDValidator("id"), disputeHandler.ListMessages)

		// Уведомления.
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
	}

	// Арбитраж и редакция.
	admin := api.Group("/")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireAdmin())
	{
		admin.POST("/requests/:id/article", middleware.UUIDValidator("id"), requestHandler.SubmitArticle)
		admin.POST("/payments/transfer", paymentHandler.Transfer)
		admin.POST("/disputes/:id/review", middleware.UUIDValidator("id"), disputeHandler.StartReview)
		admin.POST("/disputes/:id/escalate", middleware.UUIDValidator("id"), disputeHandler.Escalate)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)
		admin.POST("/disputes/:id/close", middleware.UUIDValidator("id"), disputeHandler.Close)
	}

	return r
}
