package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walletpay/ledger-core/internal/api/handler"
	"github.com/walletpay/ledger-core/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	reversalHandler *handler.ReversalHandler,
	moneyRequestHandler *handler.MoneyRequestHandler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/:id/transactions", accountHandler.GetTransactions)
			accounts.GET("/:id/money-requests", moneyRequestHandler.GetPendingByRecipient)
		}

		owners := v1.Group("/owners")
		{
			owners.GET("/:id/accounts", accountHandler.GetByOwner)
		}

		// Transaction operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("/deposit", transactionHandler.Deposit)
			transactions.POST("/withdraw", transactionHandler.Withdraw)
			transactions.POST("/transfer", transactionHandler.Transfer)
			transactions.GET("/:id", transactionHandler.GetByID)
		}

		// Reversal workflow
		reversals := v1.Group("/reversals")
		{
			reversals.POST("", reversalHandler.Request)
			reversals.GET("/:id", reversalHandler.GetByID)
			reversals.POST("/:id/approve", reversalHandler.Approve)
			reversals.POST("/:id/reject", reversalHandler.Reject)
			reversals.POST("/:id/cancel", reversalHandler.Cancel)
			reversals.POST("/:id/process", reversalHandler.Process)
		}

		// Money request workflow
		moneyRequests := v1.Group("/money-requests")
		{
			moneyRequests.POST("", moneyRequestHandler.Create)
			moneyRequests.GET("/:id", moneyRequestHandler.GetByID)
			moneyRequests.POST("/:id/approve", moneyRequestHandler.Approve)
			moneyRequests.POST("/:id/decline", moneyRequestHandler.Decline)
			moneyRequests.POST("/:id/cancel", moneyRequestHandler.Cancel)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
