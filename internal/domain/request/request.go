package request

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

// Common errors
var (
	ErrRequestExpired    = errors.New("money request has expired")
	ErrInvalidTransition = errors.New("invalid money request status transition")
	ErrSelfRequest       = errors.New("cannot request money from own account")
)

// Status defines the money request lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// MoneyRequest asks the recipient to pay the requester. Approval executes a
// transfer recipient -> requester through the transaction engine; the status
// change and the transfer commit as one unit of work.
type MoneyRequest struct {
	ID                 uuid.UUID   `json:"id"`
	RequesterAccountID uuid.UUID   `json:"requester_account_id"`
	RecipientAccountID uuid.UUID   `json:"recipient_account_id"`
	Amount             money.Money `json:"amount"`
	Message            string      `json:"message,omitempty"`
	Status             Status      `json:"status"`
	ExpiresAt          *time.Time  `json:"expires_at,omitempty"` // nil = never expires
	TransactionID      *uuid.UUID  `json:"transaction_id,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	ResolvedAt         *time.Time  `json:"resolved_at,omitempty"`
}

// New creates a PENDING money request.
func New(requesterAccountID, recipientAccountID uuid.UUID, amount money.Money, message string, expiresAt *time.Time) (*MoneyRequest, error) {
	if requesterAccountID == recipientAccountID {
		return nil, ErrSelfRequest
	}
	if !amount.IsPositive() {
		return nil, transaction.ErrInvalidAmount
	}

	return &MoneyRequest{
		ID:                 uuid.New(),
		RequesterAccountID: requesterAccountID,
		RecipientAccountID: recipientAccountID,
		Amount:             amount,
		Message:            message,
		Status:             StatusPending,
		ExpiresAt:          expiresAt,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// IsExpired reports whether the request's deadline has passed at the given
// instant.
func (m *MoneyRequest) IsExpired(at time.Time) bool {
	return m.ExpiresAt != nil && at.After(*m.ExpiresAt)
}

// Approve transitions PENDING -> APPROVED, linking the transfer that settled
// it. Fails with ErrRequestExpired when the deadline has passed.
func (m *MoneyRequest) Approve(transactionID uuid.UUID, at time.Time) error {
	if m.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, StatusApproved)
	}
	if m.IsExpired(at) {
		return ErrRequestExpired
	}
	resolvedAt := at.UTC()
	m.Status = StatusApproved
	m.TransactionID = &transactionID
	m.ResolvedAt = &resolvedAt
	return nil
}

// Decline transitions PENDING -> DECLINED on behalf of the recipient.
func (m *MoneyRequest) Decline(at time.Time) error {
	if m.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, StatusDeclined)
	}
	resolvedAt := at.UTC()
	m.Status = StatusDeclined
	m.ResolvedAt = &resolvedAt
	return nil
}

// Cancel transitions PENDING -> CANCELLED on behalf of the requester.
func (m *MoneyRequest) Cancel(at time.Time) error {
	if m.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, StatusCancelled)
	}
	resolvedAt := at.UTC()
	m.Status = StatusCancelled
	m.ResolvedAt = &resolvedAt
	return nil
}

// MarkExpired transitions PENDING -> EXPIRED once the deadline has passed.
// Driven by the expiry sweeper.
func (m *MoneyRequest) MarkExpired(at time.Time) error {
	if m.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, StatusExpired)
	}
	if !m.IsExpired(at) {
		return fmt.Errorf("money request %s has not expired yet", m.ID)
	}
	resolvedAt := at.UTC()
	m.Status = StatusExpired
	m.ResolvedAt = &resolvedAt
	return nil
}
