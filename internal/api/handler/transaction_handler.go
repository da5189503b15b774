package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/walletpay/ledger-core/internal/api/middleware"
	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/ledger"
)

// TransactionHandler handles deposit, withdrawal, and transfer intents.
// Engine failures still respond with the persisted FAILED record so callers
// see both the typed error and the audit entry.
type TransactionHandler struct {
	logger *slog.Logger
	engine LedgerService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, engine LedgerService) *TransactionHandler {
	return &TransactionHandler{
		logger: logger,
		engine: engine,
	}
}

// Deposit handles POST /api/v1/transactions/deposit
func (h *TransactionHandler) Deposit(c *gin.Context) {
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	accountID, ok := parseUUIDParam(req.AccountID)
	if !ok {
		RespondBadRequest(c, "account_id must be a valid UUID")
		return
	}
	amount, err := money.NewFromString(req.Amount, req.Currency)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	record, err := h.engine.Deposit(c.Request.Context(), ledger.DepositParams{
		AccountID:      accountID,
		Amount:         amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondFailure(c, record, err)
		return
	}

	RespondCreated(c, toTransactionResponse(record))
}

// Withdraw handles POST /api/v1/transactions/withdraw
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	accountID, ok := parseUUIDParam(req.AccountID)
	if !ok {
		RespondBadRequest(c, "account_id must be a valid UUID")
		return
	}
	amount, err := money.NewFromString(req.Amount, req.Currency)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	record, err := h.engine.Withdraw(c.Request.Context(), ledger.WithdrawParams{
		AccountID:      accountID,
		Amount:         amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondFailure(c, record, err)
		return
	}

	RespondCreated(c, toTransactionResponse(record))
}

// Transfer handles POST /api/v1/transactions/transfer
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	senderID, ok := parseUUIDParam(req.SenderAccountID)
	if !ok {
		RespondBadRequest(c, "sender_account_id must be a valid UUID")
		return
	}
	receiverID, ok := parseUUIDParam(req.ReceiverAccountID)
	if !ok {
		RespondBadRequest(c, "receiver_account_id must be a valid UUID")
		return
	}
	amount, err := money.NewFromString(req.Amount, req.Currency)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	record, err := h.engine.Transfer(c.Request.Context(), ledger.TransferParams{
		SenderAccountID:   senderID,
		ReceiverAccountID: receiverID,
		Amount:            amount,
		Description:       req.Description,
		IdempotencyKey:    req.IdempotencyKey,
		CorrelationID:     middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondFailure(c, record, err)
		return
	}

	RespondCreated(c, toTransactionResponse(record))
}

// GetByID handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "transaction id must be a valid UUID")
		return
	}

	record, err := h.engine.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toTransactionResponse(record))
}

// respondFailure maps a business failure onto its HTTP status. When a FAILED
// record was persisted its ID travels in the response header so the caller
// can fetch the audit entry.
func (h *TransactionHandler) respondFailure(c *gin.Context, record *transaction.Transaction, err error) {
	if record != nil && record.Status == transaction.StatusFailed {
		c.Header("X-Failed-Transaction-ID", record.ID.String())
	}
	respondDomainError(c, err)
}
