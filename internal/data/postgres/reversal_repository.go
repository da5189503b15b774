package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/platform/persistence"
)

// ReversalRepository implements the reversal.Repository interface for PostgreSQL
type ReversalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReversalRepository creates a new PostgreSQL reversal repository.
func NewReversalRepository(logger *slog.Logger, db *persistence.PostgresDB) reversal.Repository {
	return &ReversalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *ReversalRepository) WithTx(tx pgx.Tx) reversal.Repository {
	return &ReversalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const reversalColumns = `
	id, transaction_id, requested_by, amount, currency, type, status, reason,
	reviewed_by, review_notes, reversal_transaction_id, created_at, reviewed_at, processed_at
`

// Create stores a new reversal. The partial unique index on active reversals
// backs the one-active-reversal-per-transaction invariant at the database
// level; a violation surfaces as ErrDuplicateReversal.
func (r *ReversalRepository) Create(ctx context.Context, rev *reversal.Reversal) error {
	query := `
		INSERT INTO reversals (` + reversalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		rev.ID,
		rev.TransactionID,
		rev.RequestedBy,
		rev.Amount.Amount,
		rev.Amount.Currency,
		rev.Type,
		rev.Status,
		rev.Reason,
		rev.ReviewedBy,
		rev.ReviewNotes,
		rev.ReversalTransactionID,
		rev.CreatedAt,
		rev.ReviewedAt,
		rev.ProcessedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return reversal.ErrDuplicateReversal
		}
		r.logger.Error("Failed to create reversal", "id", rev.ID.String(), "error", err)
		return fmt.Errorf("failed to create reversal: %w", err)
	}

	return nil
}

// GetByID retrieves a reversal by its ID
func (r *ReversalRepository) GetByID(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error) {
	query := `SELECT ` + reversalColumns + ` FROM reversals WHERE id = $1`

	rev, err := r.scanReversal(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reversal.ErrReversalNotFound{ReversalID: id}
		}
		r.logger.Error("Failed to get reversal", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get reversal: %w", err)
	}

	return rev, nil
}

// GetActiveByTransactionID returns the active reversal for a transaction, or
// nil when none exists
func (r *ReversalRepository) GetActiveByTransactionID(ctx context.Context, transactionID uuid.UUID) (*reversal.Reversal, error) {
	query := `
		SELECT ` + reversalColumns + `
		FROM reversals
		WHERE transaction_id = $1 AND status NOT IN ('REJECTED', 'CANCELLED')
	`

	rev, err := r.scanReversal(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get active reversal", "transaction_id", transactionID.String(), "error", err)
		return nil, fmt.Errorf("failed to get active reversal: %w", err)
	}

	return rev, nil
}

// Update persists a reversal state transition
func (r *ReversalRepository) Update(ctx context.Context, rev *reversal.Reversal) error {
	query := `
		UPDATE reversals
		SET status = $1, reviewed_by = $2, review_notes = $3,
		    reversal_transaction_id = $4, reviewed_at = $5, processed_at = $6
		WHERE id = $7
	`

	result, err := r.querier.Exec(ctx, query,
		rev.Status,
		rev.ReviewedBy,
		rev.ReviewNotes,
		rev.ReversalTransactionID,
		rev.ReviewedAt,
		rev.ProcessedAt,
		rev.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update reversal", "id", rev.ID.String(), "error", err)
		return fmt.Errorf("failed to update reversal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return reversal.ErrReversalNotFound{ReversalID: rev.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the reversal row
func (r *ReversalRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error) {
	query := `SELECT ` + reversalColumns + ` FROM reversals WHERE id = $1 FOR UPDATE`

	rev, err := r.scanReversal(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reversal.ErrReversalNotFound{ReversalID: id}
		}
		r.logger.Error("Failed to lock reversal for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock reversal for update: %w", err)
	}

	return rev, nil
}

func (r *ReversalRepository) scanReversal(row pgx.Row) (*reversal.Reversal, error) {
	var rev reversal.Reversal
	var amount decimal.Decimal
	var currency string

	err := row.Scan(
		&rev.ID,
		&rev.TransactionID,
		&rev.RequestedBy,
		&amount,
		&currency,
		&rev.Type,
		&rev.Status,
		&rev.Reason,
		&rev.ReviewedBy,
		&rev.ReviewNotes,
		&rev.ReversalTransactionID,
		&rev.CreatedAt,
		&rev.ReviewedAt,
		&rev.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	rev.Amount = money.Money{Amount: amount, Currency: currency}
	return &rev, nil
}
