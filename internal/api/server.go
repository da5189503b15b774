// Package api wires the HTTP surface over the ledger engine and workflows.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/walletpay/ledger-core/internal/api/handler"
	"github.com/walletpay/ledger-core/internal/config"
	"github.com/walletpay/ledger-core/internal/ledger"
	"github.com/walletpay/ledger-core/internal/workflow"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server over the engine and
// workflow services.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	engine *ledger.Engine,
	reversalService *workflow.ReversalService,
	moneyRequestService *workflow.MoneyRequestService,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	accountHandler := handler.NewAccountHandler(log, engine)
	transactionHandler := handler.NewTransactionHandler(log, engine)
	reversalHandler := handler.NewReversalHandler(log, reversalService)
	moneyRequestHandler := handler.NewMoneyRequestHandler(log, moneyRequestService)

	setupRouter(log, httpRouter, accountHandler, transactionHandler, reversalHandler, moneyRequestHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
