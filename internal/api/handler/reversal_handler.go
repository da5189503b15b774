package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
)

// ReversalHandler exposes the reversal approval workflow
type ReversalHandler struct {
	logger  *slog.Logger
	service ReversalWorkflow
}

// NewReversalHandler creates a new reversal handler
func NewReversalHandler(logger *slog.Logger, service ReversalWorkflow) *ReversalHandler {
	return &ReversalHandler{
		logger:  logger,
		service: service,
	}
}

// Request handles POST /api/v1/reversals
func (h *ReversalHandler) Request(c *gin.Context) {
	var req RequestReversalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	transactionID, ok := parseUUIDParam(req.TransactionID)
	if !ok {
		RespondBadRequest(c, "transaction_id must be a valid UUID")
		return
	}
	requestedBy, ok := parseUUIDParam(req.RequestedBy)
	if !ok {
		RespondBadRequest(c, "requested_by must be a valid UUID")
		return
	}
	amount, err := money.NewFromString(req.Amount, req.Currency)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	var rev *reversal.Reversal
	if req.Type == string(reversal.TypeRefund) {
		rev, err = h.service.RequestRefund(c.Request.Context(), transactionID, requestedBy, amount, req.Reason)
	} else {
		rev, err = h.service.RequestReversal(c.Request.Context(), transactionID, requestedBy, amount, req.Reason)
	}
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, toReversalResponse(rev))
}

// GetByID handles GET /api/v1/reversals/:id
func (h *ReversalHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "reversal id must be a valid UUID")
		return
	}

	rev, err := h.service.GetReversal(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toReversalResponse(rev))
}

// Approve handles POST /api/v1/reversals/:id/approve
func (h *ReversalHandler) Approve(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "reversal id must be a valid UUID")
		return
	}

	var req ReviewReversalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	adminID, ok := parseUUIDParam(req.AdminID)
	if !ok {
		RespondBadRequest(c, "admin_id must be a valid UUID")
		return
	}

	rev, err := h.service.ApproveReversal(c.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toReversalResponse(rev))
}

// Reject handles POST /api/v1/reversals/:id/reject
func (h *ReversalHandler) Reject(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "reversal id must be a valid UUID")
		return
	}

	var req ReviewReversalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	adminID, ok := parseUUIDParam(req.AdminID)
	if !ok {
		RespondBadRequest(c, "admin_id must be a valid UUID")
		return
	}

	rev, err := h.service.RejectReversal(c.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toReversalResponse(rev))
}

// Cancel handles POST /api/v1/reversals/:id/cancel
func (h *ReversalHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "reversal id must be a valid UUID")
		return
	}

	rev, err := h.service.CancelReversal(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toReversalResponse(rev))
}

// Process handles POST /api/v1/reversals/:id/process
func (h *ReversalHandler) Process(c *gin.Context) {
	id, ok := parseUUIDParam(c.Param("id"))
	if !ok {
		RespondBadRequest(c, "reversal id must be a valid UUID")
		return
	}

	compensating, err := h.service.ProcessReversal(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	RespondOK(c, toTransactionResponse(compensating))
}
