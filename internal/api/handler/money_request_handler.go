package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/walletpay/ledger-core/internal/domain/money"
)

// MoneyRequestHandler exposes the money request workflow
type MoneyRequestHandler struct {
	logger  *slog.Logger
	service MoneyRequestWorkflow
}

// NewMoneyRequestHandler creates a new money request handler
func NewMoneyRequestHandler(logger *slog.Logger, service MoneyRequestWorkflow) *MoneyRequestHandler {
	return &MoneyRequestHandler{
		logger:  logger,
		service: service,
	}
}

// Create handles POST /api/v1/money-requests
func (h *MoneyRequestHandler) Create(c *gin.Context) {
	var req CreateMoneyRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	requesterID, ok := parseUUIDParam(req.RequesterAccountID)
	if !ok {
		RespondBadRequest(c, "requester_account_id must be a valid UUID")
		return
	}
	recipientID, ok := parseUUIDParam(req.RecipientAccountID)
	if !ok {
		RespondBadRequest(c, "recipient_account_id must be a valid UUID")
		return
	}
	amount, err := money.NewFromString(req.Amount, req.Currency)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	created, err := h.service.CreateMoneyRequest(c.Request.Context(), requesterID, recipientID, amount, req.Message, req.ExpiresAt)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, toMoneyRequestResponse(created))
}

// GetByID handles GET /api/v1/money-requests/:id
func (h *MoneyRequestHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "money request id must be a valid UUID")
		return
	}

	req, err := h.service.GetMoneyRequest(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toMoneyRequestResponse(req))
}

// GetPendingByRecipient handles GET /api/v1/accounts/:id/money-requests
func (h *MoneyRequestHandler) GetPendingByRecipient(c *gin.Context) {
	recipientID, ok := parseUUIDParam(c.Param("id"))
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
	requests, err := h.service.GetPendingRequests(c.Request.Context(), recipientID, params.PerPage, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	responses := make([]MoneyRequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, toMoneyRequestResponse(req))
	}
	RespondWithData(c, http.StatusOK, responses)
}

// Approve handles POST /api/v1/money-requests/:id/approve
func (h *MoneyRequestHandler) Approve(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "money request id must be a valid UUID")
		return
	}

	settled, err := h.service.ApproveMoneyRequest(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toTransactionResponse(settled))
}

// Decline handles POST /api/v1/money-requests/:id/decline
func (h *MoneyRequestHandler) Decline(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "money request id must be a valid UUID")
		return
	}

	req, err := h.service.DeclineMoneyRequest(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toMoneyRequestResponse(req))
}

// Cancel handles POST /api/v1/money-requests/:id/cancel
func (h *MoneyRequestHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "money request id must be a valid UUID")
		return
	}

	req, err := h.service.CancelMoneyRequest(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toMoneyRequestResponse(req))
}
