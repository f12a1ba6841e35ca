package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailbank-ledger/internal/api/handler"
	"github.com/retailbank-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	alertHandler *handler.AlertHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.List)
			accounts.GET("/:number", accountHandler.Get)
			accounts.PATCH("/:number", accountHandler.Update)
			accounts.DELETE("/:number", accountHandler.Delete)
			accounts.GET("/:number/balance", accountHandler.Balance)
			accounts.GET("/:number/transactions", accountHandler.History)
			accounts.GET("/:number/threshold", alertHandler.GetThreshold)
			accounts.PUT("/:number/threshold", alertHandler.SetThreshold)
		}

		// Money movement operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("/deposit", transactionHandler.Deposit)
			transactions.POST("/withdraw", transactionHandler.Withdraw)
			transactions.POST("/transfer", transactionHandler.Transfer)
			transactions.GET("/statistics", transactionHandler.Statistics)
		}

		// Alert operations
		alerts := v1.Group("/alerts")
		{
			alerts.POST("/check", alertHandler.Check)
			alerts.POST("/reset", alertHandler.Reset)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
