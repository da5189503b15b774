package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/ledger-core/internal/domain/account"
	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/request"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

// CreateAccountRequest represents a request to provision a wallet account
type CreateAccountRequest struct {
	OwnerID  string `json:"owner_id" binding:"required,uuid"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// MovementRequest represents a deposit or withdrawal intent
type MovementRequest struct {
	AccountID      string `json:"account_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"required"`
	Currency       string `json:"currency" binding:"required,len=3"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TransferRequest represents a transfer intent
type TransferRequest struct {
	SenderAccountID   string `json:"sender_account_id" binding:"required,uuid"`
	ReceiverAccountID string `json:"receiver_account_id" binding:"required,uuid"`
	Amount            string `json:"amount" binding:"required"`
	Currency          string `json:"currency" binding:"required,len=3"`
	Description       string `json:"description,omitempty"`
	IdempotencyKey    string `json:"idempotency_key,omitempty"`
}

// TransactionResponse represents a transaction record in API responses
type TransactionResponse struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Fee               string `json:"fee"`
	NetAmount         string `json:"net_amount"`
	Status            string `json:"status"`
	SenderAccountID   string `json:"sender_account_id,omitempty"`
	ReceiverAccountID string `json:"receiver_account_id,omitempty"`
	Description       string `json:"description,omitempty"`
	FailureReason     string `json:"failure_reason,omitempty"`
	CreatedAt         string `json:"created_at"`
	CompletedAt       string `json:"completed_at,omitempty"`
}

// RequestReversalRequest asks to reverse a completed transaction. Type may
// designate a REFUND; otherwise FULL or PARTIAL is derived from the amount.
type RequestReversalRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	RequestedBy   string `json:"requested_by" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"required,len=3"`
	Type          string `json:"type,omitempty" binding:"omitempty,oneof=REFUND"`
	Reason        string `json:"reason,omitempty"`
}

// ReviewReversalRequest carries the reviewing admin's decision context
type ReviewReversalRequest struct {
	AdminID string `json:"admin_id" binding:"required,uuid"`
	Notes   string `json:"notes,omitempty"`
}

// ReversalResponse represents a reversal in API responses
type ReversalResponse struct {
	ID                    string `json:"id"`
	TransactionID         string `json:"transaction_id"`
	RequestedBy           string `json:"requested_by"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Type                  string `json:"type"`
	Status                string `json:"status"`
	Reason                string `json:"reason,omitempty"`
	ReviewNotes           string `json:"review_notes,omitempty"`
	ReversalTransactionID string `json:"reversal_transaction_id,omitempty"`
	CreatedAt             string `json:"created_at"`
	ProcessedAt           string `json:"processed_at,omitempty"`
}

// CreateMoneyRequestRequest asks another account holder to pay
type CreateMoneyRequestRequest struct {
	RequesterAccountID string     `json:"requester_account_id" binding:"required,uuid"`
	RecipientAccountID string     `json:"recipient_account_id" binding:"required,uuid"`
	Amount             string     `json:"amount" binding:"required"`
	Currency           string     `json:"currency" binding:"required,len=3"`
	Message            string     `json:"message,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

// MoneyRequestResponse represents a money request in API responses
type MoneyRequestResponse struct {
	ID                 string `json:"id"`
	RequesterAccountID string `json:"requester_account_id"`
	RecipientAccountID string `json:"recipient_account_id"`
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	Message            string `json:"message,omitempty"`
	Status             string `json:"status"`
	ExpiresAt          string `json:"expires_at,omitempty"`
	TransactionID      string `json:"transaction_id,omitempty"`
	CreatedAt          string `json:"created_at"`
	ResolvedAt         string `json:"resolved_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func toAccountResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		OwnerID:   acc.OwnerID.String(),
		Balance:   acc.Balance.Amount.StringFixed(money.DecimalPlaces(acc.Currency)),
		Currency:  acc.Currency,
		Status:    string(acc.Status),
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponse(tx *transaction.Transaction) TransactionResponse {
	places := money.DecimalPlaces(tx.Amount.Currency)
	resp := TransactionResponse{
		ID:            tx.ID.String(),
		Type:          string(tx.Type),
		Amount:        tx.Amount.Amount.StringFixed(places),
		Currency:      tx.Amount.Currency,
		Fee:           tx.Fee.Amount.StringFixed(places),
		NetAmount:     tx.NetAmount.Amount.StringFixed(places),
		Status:        string(tx.Status),
		Description:   tx.Description,
		FailureReason: tx.FailureReason,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.SenderAccountID != nil {
		resp.SenderAccountID = tx.SenderAccountID.String()
	}
	if tx.ReceiverAccountID != nil {
		resp.ReceiverAccountID = tx.ReceiverAccountID.String()
	}
	if tx.CompletedAt != nil {
		resp.CompletedAt = tx.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func toReversalResponse(rev *reversal.Reversal) ReversalResponse {
	resp := ReversalResponse{
		ID:            rev.ID.String(),
		TransactionID: rev.TransactionID.String(),
		RequestedBy:   rev.RequestedBy.String(),
		Amount:        rev.Amount.Amount.StringFixed(money.DecimalPlaces(rev.Amount.Currency)),
		Currency:      rev.Amount.Currency,
		Type:          string(rev.Type),
		Status:        string(rev.Status),
		Reason:        rev.Reason,
		ReviewNotes:   rev.ReviewNotes,
		CreatedAt:     rev.CreatedAt.Format(time.RFC3339),
	}
	if rev.ReversalTransactionID != nil {
		resp.ReversalTransactionID = rev.ReversalTransactionID.String()
	}
	if rev.ProcessedAt != nil {
		resp.ProcessedAt = rev.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

func toMoneyRequestResponse(req *request.MoneyRequest) MoneyRequestResponse {
	resp := MoneyRequestResponse{
		ID:                 req.ID.String(),
		RequesterAccountID: req.RequesterAccountID.String(),
		RecipientAccountID: req.RecipientAccountID.String(),
		Amount:             req.Amount.Amount.StringFixed(money.DecimalPlaces(req.Amount.Currency)),
		Currency:           req.Amount.Currency,
		Message:            req.Message,
		Status:             string(req.Status),
		CreatedAt:          req.CreatedAt.Format(time.RFC3339),
	}
	if req.ExpiresAt != nil {
		resp.ExpiresAt = req.ExpiresAt.Format(time.RFC3339)
	}
	if req.TransactionID != nil {
		resp.TransactionID = req.TransactionID.String()
	}
	if req.ResolvedAt != nil {
		resp.ResolvedAt = req.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}

func parseUUIDParam(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	return id, err == nil
}
