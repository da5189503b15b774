package request

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages money request persistence
type Repository interface {
	Create(ctx context.Context, req *MoneyRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*MoneyRequest, error)
	GetPendingByRecipient(ctx context.Context, recipientAccountID uuid.UUID, limit, offset int) ([]*MoneyRequest, error)
	// GetExpiredPending returns PENDING requests whose deadline passed before
	// the given instant; consumed by the expiry sweeper.
	GetExpiredPending(ctx context.Context, before time.Time, limit int) ([]*MoneyRequest, error)
	Update(ctx context.Context, req *MoneyRequest) error
	// LockForUpdate acquires a pessimistic row lock for state transitions.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*MoneyRequest, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRequestNotFound indicates missing money request
type ErrRequestNotFound struct {
	RequestID uuid.UUID
}

func (e ErrRequestNotFound) Error() string {
	return "money request not found: " + e.RequestID.String()
}

// Is implements the errors.Is interface for ErrRequestNotFound
func (e ErrRequestNotFound) Is(target error) bool {
	t, ok := target.(ErrRequestNotFound)
	if !ok {
		return false
	}
	if t.RequestID == uuid.Nil {
		return true
	}
	return e.RequestID == t.RequestID
}
