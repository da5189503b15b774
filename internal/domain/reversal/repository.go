package reversal

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages reversal persistence
type Repository interface {
	Create(ctx context.Context, rev *Reversal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reversal, error)
	// GetActiveByTransactionID returns the non-rejected, non-cancelled
	// reversal for a transaction, or nil when none exists.
	GetActiveByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Reversal, error)
	Update(ctx context.Context, rev *Reversal) error
	// LockForUpdate acquires a pessimistic row lock for state transitions.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Reversal, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrReversalNotFound indicates missing reversal
type ErrReversalNotFound struct {
	ReversalID uuid.UUID
}

func (e ErrReversalNotFound) Error() string {
	return "reversal not found: " + e.ReversalID.String()
}

// Is implements the errors.Is interface for ErrReversalNotFound
func (e ErrReversalNotFound) Is(target error) bool {
	t, ok := target.(ErrReversalNotFound)
	if !ok {
		return false
	}
	if t.ReversalID == uuid.Nil {
		return true
	}
	return e.ReversalID == t.ReversalID
}
