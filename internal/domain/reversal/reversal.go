package reversal

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
	ErrInvalidReversalTarget = errors.New("reversal target transaction is not completed")
	ErrDuplicateReversal     = errors.New("an active reversal already exists for this transaction")
	ErrInvalidTransition     = errors.New("invalid reversal status transition")
	ErrAmountExceedsOriginal = errors.New("reversal amount exceeds original transaction amount")
	ErrPartialRefund         = errors.New("a refund must return the full original amount")
	ErrNotApproved           = errors.New("reversal must be approved before processing")
)

// Type defines the kind of compensation a reversal performs.
type Type string

const (
	TypeFull    Type = "FULL"
	TypePartial Type = "PARTIAL"
	TypeRefund  Type = "REFUND"
)

// Status defines the reversal approval lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusProcessed Status = "PROCESSED"
	StatusCancelled Status = "CANCELLED"
)

// Reversal requests compensation of a previously completed transaction.
// Lifecycle: PENDING -> APPROVED|REJECTED, APPROVED -> PROCESSED. Processing
// creates a compensating transaction and links it via ReversalTransactionID.
type Reversal struct {
	ID                    uuid.UUID   `json:"id"`
	TransactionID         uuid.UUID   `json:"transaction_id"`
	RequestedBy           uuid.UUID   `json:"requested_by"`
	Amount                money.Money `json:"amount"`
	Type                  Type        `json:"type"`
	Status                Status      `json:"status"`
	Reason                string      `json:"reason,omitempty"`
	ReviewedBy            *uuid.UUID  `json:"reviewed_by,omitempty"`
	ReviewNotes           string      `json:"review_notes,omitempty"`
	ReversalTransactionID *uuid.UUID  `json:"reversal_transaction_id,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
	ReviewedAt            *time.Time  `json:"reviewed_at,omitempty"`
	ProcessedAt           *time.Time  `json:"processed_at,omitempty"`
}

// New creates a PENDING reversal against a completed transaction. The target
// must be COMPLETED and the amount must not exceed the original principal.
func New(original *transaction.Transaction, requestedBy uuid.UUID, amount money.Money, reason string) (*Reversal, error) {
	if original.Status != transaction.StatusCompleted {
		return nil, ErrInvalidReversalTarget
	}

	cmp, err := amount.Cmp(original.Amount)
	if err != nil {
		return nil, err
	}
	if cmp > 0 {
		return nil, ErrAmountExceedsOriginal
	}
	if !amount.IsPositive() {
		return nil, transaction.ErrInvalidAmount
	}

	revType := TypeFull
	if cmp < 0 {
		revType = TypePartial
	}

	return &Reversal{
		ID:            uuid.New(),
		TransactionID: original.ID,
		RequestedBy:   requestedBy,
		Amount:        amount,
		Type:          revType,
		Status:        StatusPending,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// NewRefund creates a PENDING refund against a completed transaction. A
// refund always returns the full original principal, and its compensating
// transaction is recorded as a REFUND instead of a CHARGEBACK.
func NewRefund(original *transaction.Transaction, requestedBy uuid.UUID, amount money.Money, reason string) (*Reversal, error) {
	if original.Status != transaction.StatusCompleted {
		return nil, ErrInvalidReversalTarget
	}

	cmp, err := amount.Cmp(original.Amount)
	if err != nil {
		return nil, err
	}
	if cmp > 0 {
		return nil, ErrAmountExceedsOriginal
	}
	if cmp < 0 {
		return nil, ErrPartialRefund
	}

	return &Reversal{
		ID:            uuid.New(),
		TransactionID: original.ID,
		RequestedBy:   requestedBy,
		Amount:        amount,
		Type:          TypeRefund,
		Status:        StatusPending,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// IsActive reports whether the reversal still counts against the
// one-active-reversal-per-transaction invariant.
func (r *Reversal) IsActive() bool {
	return r.Status != StatusRejected && r.Status != StatusCancelled
}

// Approve transitions PENDING -> APPROVED, recording the reviewing admin.
func (r *Reversal) Approve(adminID uuid.UUID, notes string) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusApproved)
	}
	now := time.Now().UTC()
	r.Status = StatusApproved
	r.ReviewedBy = &adminID
	r.ReviewNotes = notes
	r.ReviewedAt = &now
	return nil
}

// Reject transitions PENDING -> REJECTED, recording the reviewing admin.
func (r *Reversal) Reject(adminID uuid.UUID, notes string) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusRejected)
	}
	now := time.Now().UTC()
	r.Status = StatusRejected
	r.ReviewedBy = &adminID
	r.ReviewNotes = notes
	r.ReviewedAt = &now
	return nil
}

// Cancel transitions PENDING -> CANCELLED on behalf of the requester.
func (r *Reversal) Cancel() error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusCancelled)
	}
	r.Status = StatusCancelled
	return nil
}

// MarkProcessed transitions APPROVED -> PROCESSED, linking the compensating
// transaction created by the engine.
func (r *Reversal) MarkProcessed(reversalTxID uuid.UUID, at time.Time) error {
	if r.Status != StatusApproved {
		return ErrNotApproved
	}
	processedAt := at.UTC()
	r.Status = StatusProcessed
	r.ReversalTransactionID = &reversalTxID
	r.ProcessedAt = &processedAt
	return nil
}

// CompensatingType maps the reversal to the transaction type of its
// compensating ledger record.
func (r *Reversal) CompensatingType() transaction.Type {
	if r.Type == TypeRefund {
		return transaction.TypeRefund
	}
	return transaction.TypeChargeback
}
