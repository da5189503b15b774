package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account provisioning and lookup
type AccountHandler struct {
	logger *slog.Logger
	engine LedgerService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, engine LedgerService) *AccountHandler {
	return &AccountHandler{
		logger: logger,
		engine: engine,
	}
}

// Create handles POST /api/v1/accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	ownerID, ok := parseUUIDParam(req.OwnerID)
	if !ok {
		RespondBadRequest(c, "owner_id must be a valid UUID")
		return
	}

	acc, err := h.engine.CreateAccount(c.Request.Context(), ownerID, req.Currency)
	if err != nil {
		h.logger.Error("Failed to create account", "owner_id", req.OwnerID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, toAccountResponse(acc))
}

// GetByID handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "account id must be a valid UUID")
		return
	}

	acc, err := h.engine.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toAccountResponse(acc))
}

// GetByOwner handles GET /api/v1/owners/:id/accounts
func (h *AccountHandler) GetByOwner(c *gin.Context) {
	ownerID, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "owner id must be a valid UUID")
		return
	}

	accounts, err := h.engine.GetAccountsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, toAccountResponse(acc))
	}
	RespondOK(c, responses)
}

// GetTransactions handles GET /api/v1/accounts/:id/transactions
func (h *AccountHandler) GetTransactions(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "account id must be a valid UUID")
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	offset := (params.Page - 1) * params.PerPage
	records, total, err := h.engine.GetAccountTransactions(c.Request.Context(), id, params.PerPage, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toTransactionResponse(record))
	}
	RespondWithPaginatedData(c, 200, responses, params.Page, params.PerPage, int(total))
}
