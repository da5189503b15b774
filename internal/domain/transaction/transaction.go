package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/ledger-core/internal/domain/money"
)

// Common errors
var (
	ErrInvalidAmount      = errors.New("transaction amount must be positive")
	ErrInvalidTransition  = errors.New("invalid transaction status transition")
	ErrMissingCounterpart = errors.New("transaction type requires sender and receiver accounts")
)

// Type defines the supported transaction operations.
type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
	TypeTransfer   Type = "TRANSFER"
	TypePayment    Type = "PAYMENT"
	TypeRefund     Type = "REFUND"
	TypeChargeback Type = "CHARGEBACK"
)

// Status defines transaction processing states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// Failure reasons recorded on FAILED transactions.
const (
	FailureInsufficientBalance = "Insufficient balance"
	FailureAccountNotActive    = "Account not active"
	FailureAccountNotFound     = "Account not found"
	FailureCurrencyMismatch    = "Currency mismatch"
	FailureNoEffectiveRate     = "No effective exchange rate"
	FailureInvalidAmount       = "Invalid amount"
	FailureSelfTransfer        = "Self transfer not allowed"
)

// Transaction is the immutable ledger record of a money movement. A record
// in a terminal state is never mutated in place; the single exception is the
// COMPLETED -> REFUNDED edge driven by a linked reversal.
type Transaction struct {
	ID                uuid.UUID   `json:"id"`
	Type              Type        `json:"type"`
	Amount            money.Money `json:"amount"`
	Fee               money.Money `json:"fee"`
	NetAmount         money.Money `json:"net_amount"`
	Status            Status      `json:"status"`
	SenderAccountID   *uuid.UUID  `json:"sender_account_id,omitempty"`
	ReceiverAccountID *uuid.UUID  `json:"receiver_account_id,omitempty"`
	Description       string      `json:"description,omitempty"`
	FailureReason     string      `json:"failure_reason,omitempty"`
	IdempotencyKey    string      `json:"idempotency_key,omitempty"`
	CorrelationID     string      `json:"correlation_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
}

// New creates a PENDING transaction record for an accepted intent.
func New(txType Type, amount money.Money, description string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Transaction{
		ID:          uuid.New(),
		Type:        txType,
		Amount:      amount,
		Fee:         money.Zero(amount.Currency),
		NetAmount:   amount,
		Status:      StatusPending,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Currency returns the currency of the principal amount.
func (t *Transaction) Currency() string {
	return t.Amount.Currency
}

// IsTerminal reports whether the status admits no further transition other
// than the COMPLETED -> REFUNDED edge.
func (t *Transaction) IsTerminal() bool {
	return t.Status != StatusPending
}

// MarkCompleted transitions PENDING -> COMPLETED and stamps completion time.
func (t *Transaction) MarkCompleted(at time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, StatusCompleted)
	}
	t.Status = StatusCompleted
	completedAt := at.UTC()
	t.CompletedAt = &completedAt
	return nil
}

// MarkFailed transitions PENDING -> FAILED with a reason. The record is
// retained so failed attempts remain auditable.
func (t *Transaction) MarkFailed(reason string) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, StatusFailed)
	}
	t.Status = StatusFailed
	t.FailureReason = reason
	return nil
}

// MarkCancelled transitions PENDING -> CANCELLED.
func (t *Transaction) MarkCancelled() error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, StatusCancelled)
	}
	t.Status = StatusCancelled
	return nil
}

// MarkRefunded transitions COMPLETED -> REFUNDED. This is the only edge out
// of a terminal state and is driven exclusively by a processed reversal.
func (t *Transaction) MarkRefunded() error {
	if t.Status != StatusCompleted {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, StatusRefunded)
	}
	t.Status = StatusRefunded
	return nil
}
