package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

// ErrEntryNotFound is returned when an archived transaction cannot be found
type ErrEntryNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return fmt.Sprintf("archived transaction not found: %s", e.TransactionID)
}

// Is implements errors.Is interface for better error handling
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}

// ErrDuplicateEntry is returned when a transaction is archived twice
type ErrDuplicateEntry struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return fmt.Sprintf("transaction already archived: %s", e.TransactionID)
}

// Entry is the denormalized read-model document for a settled transaction.
// Amounts are stored as decimal strings so the document round-trips without
// losing precision.
type Entry struct {
	TransactionID     uuid.UUID  `bson:"transaction_id" json:"transaction_id"`
	Type              string     `bson:"type" json:"type"`
	Amount            string     `bson:"amount" json:"amount"`
	Fee               string     `bson:"fee" json:"fee"`
	NetAmount         string     `bson:"net_amount" json:"net_amount"`
	Currency          string     `bson:"currency" json:"currency"`
	Status            string     `bson:"status" json:"status"`
	SenderAccountID   *uuid.UUID `bson:"sender_account_id,omitempty" json:"sender_account_id,omitempty"`
	ReceiverAccountID *uuid.UUID `bson:"receiver_account_id,omitempty" json:"receiver_account_id,omitempty"`
	Description       string     `bson:"description,omitempty" json:"description,omitempty"`
	FailureReason     string     `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CorrelationID     string     `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	CompletedAt       *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	ArchivedAt        time.Time  `bson:"archived_at" json:"archived_at"`
}

// NewEntry builds an archive document from a transaction record.
func NewEntry(tx *transaction.Transaction) *Entry {
	return &Entry{
		TransactionID:     tx.ID,
		Type:              string(tx.Type),
		Amount:            tx.Amount.Amount.String(),
		Fee:               tx.Fee.Amount.String(),
		NetAmount:         tx.NetAmount.Amount.String(),
		Currency:          tx.Amount.Currency,
		Status:            string(tx.Status),
		SenderAccountID:   tx.SenderAccountID,
		ReceiverAccountID: tx.ReceiverAccountID,
		Description:       tx.Description,
		FailureReason:     tx.FailureReason,
		CorrelationID:     tx.CorrelationID,
		CreatedAt:         tx.CreatedAt,
		CompletedAt:       tx.CompletedAt,
		ArchivedAt:        time.Now().UTC(),
	}
}

// Repository defines operations against the transaction archive read model.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Entry, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*Entry, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
}
