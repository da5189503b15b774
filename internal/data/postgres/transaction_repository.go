package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/platform/persistence"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transactionColumns = `
	id, type, amount, currency, fee, net_amount, status,
	sender_account_id, receiver_account_id, description, failure_reason,
	idempotency_key, correlation_id, created_at, completed_at
`

// Create stores a new transaction record
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var idempotencyKey *string
	if tx.IdempotencyKey != "" {
		idempotencyKey = &tx.IdempotencyKey
	}

	_, err := r.querier.Exec(ctx, query,
		tx.ID,
		tx.Type,
		tx.Amount.Amount,
		tx.Amount.Currency,
		tx.Fee.Amount,
		tx.NetAmount.Amount,
		tx.Status,
		tx.SenderAccountID,
		tx.ReceiverAccountID,
		tx.Description,
		tx.FailureReason,
		idempotencyKey,
		tx.CorrelationID,
		tx.CreatedAt,
		tx.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "id", tx.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// GetByIdempotencyKey retrieves a transaction using its idempotency key.
// Returns nil when no record exists, enabling idempotent intent submission.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*transaction.Transaction, error) {
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`

	tx, err := r.scanTransaction(r.querier.QueryRow(ctx, query, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by idempotency key", "idempotency_key", idempotencyKey, "error", err)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return tx, nil
}

// GetByAccountID retrieves transactions touching an account, newest first
func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE sender_account_id = $1 OR receiver_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get transactions by account", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get transactions by account: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

// CountByAccountID counts transactions touching an account
func (r *TransactionRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*) FROM transactions
		WHERE sender_account_id = $1 OR receiver_account_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions by account", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions by account: %w", err)
	}

	return count, nil
}

// UpdateStatus updates the status (and failure reason) of a transaction.
// Status transitions are validated in the domain before this is called.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status, reason string) error {
	query := `
		UPDATE transactions
		SET status = $1, failure_reason = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, reason, id)
	if err != nil {
		r.logger.Error("Failed to update transaction status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// scanTransaction maps a row into a transaction, composing the money values
// from numeric columns and the shared currency column.
func (r *TransactionRepository) scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var amount, fee, netAmount decimal.Decimal
	var currency string
	var idempotencyKey *string

	err := row.Scan(
		&tx.ID,
		&tx.Type,
		&amount,
		&currency,
		&fee,
		&netAmount,
		&tx.Status,
		&tx.SenderAccountID,
		&tx.ReceiverAccountID,
		&tx.Description,
		&tx.FailureReason,
		&idempotencyKey,
		&tx.CorrelationID,
		&tx.CreatedAt,
		&tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != nil {
		tx.IdempotencyKey = *idempotencyKey
	}
	tx.Amount = money.Money{Amount: amount, Currency: currency}
	tx.Fee = money.Money{Amount: fee, Currency: currency}
	tx.NetAmount = money.Money{Amount: netAmount, Currency: currency}
	return &tx, nil
}
