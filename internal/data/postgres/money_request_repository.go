package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/request"
	"github.com/walletpay/ledger-core/internal/platform/persistence"
)

// MoneyRequestRepository implements the request.Repository interface for PostgreSQL
type MoneyRequestRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMoneyRequestRepository creates a new PostgreSQL money request repository.
func NewMoneyRequestRepository(logger *slog.Logger, db *persistence.PostgresDB) request.Repository {
	return &MoneyRequestRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *MoneyRequestRepository) WithTx(tx pgx.Tx) request.Repository {
	return &MoneyRequestRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const moneyRequestColumns = `
	id, requester_account_id, recipient_account_id, amount, currency, message,
	status, expires_at, transaction_id, created_at, resolved_at
`

// Create stores a new money request
func (r *MoneyRequestRepository) Create(ctx context.Context, req *request.MoneyRequest) error {
	query := `
		INSERT INTO money_requests (` + moneyRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		req.ID,
		req.RequesterAccountID,
		req.RecipientAccountID,
		req.Amount.Amount,
		req.Amount.Currency,
		req.Message,
		req.Status,
		req.ExpiresAt,
		req.TransactionID,
		req.CreatedAt,
		req.ResolvedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create money request", "id", req.ID.String(), "error", err)
		return fmt.Errorf("failed to create money request: %w", err)
	}

	return nil
}

// GetByID retrieves a money request by its ID
func (r *MoneyRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	query := `SELECT ` + moneyRequestColumns + ` FROM money_requests WHERE id = $1`

	req, err := r.scanRequest(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to get money request", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get money request: %w", err)
	}

	return req, nil
}

// GetPendingByRecipient retrieves pending requests addressed to an account
func (r *MoneyRequestRepository) GetPendingByRecipient(ctx context.Context, recipientAccountID uuid.UUID, limit, offset int) ([]*request.MoneyRequest, error) {
	query := `
		SELECT ` + moneyRequestColumns + `
		FROM money_requests
		WHERE recipient_account_id = $1 AND status = 'PENDING'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, recipientAccountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get pending money requests", "recipient", recipientAccountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get pending money requests: %w", err)
	}
	defer rows.Close()

	return r.scanRequests(rows)
}

// GetExpiredPending retrieves PENDING requests whose deadline passed before
// the given instant; consumed by the expiry sweeper
func (r *MoneyRequestRepository) GetExpiredPending(ctx context.Context, before time.Time, limit int) ([]*request.MoneyRequest, error) {
	query := `
		SELECT ` + moneyRequestColumns + `
		FROM money_requests
		WHERE status = 'PENDING' AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, before, limit)
	if err != nil {
		r.logger.Error("Failed to get expired money requests", "error", err)
		return nil, fmt.Errorf("failed to get expired money requests: %w", err)
	}
	defer rows.Close()

	return r.scanRequests(rows)
}

// Update persists a money request state transition
func (r *MoneyRequestRepository) Update(ctx context.Context, req *request.MoneyRequest) error {
	query := `
		UPDATE money_requests
		SET status = $1, transaction_id = $2, resolved_at = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query,
		req.Status,
		req.TransactionID,
		req.ResolvedAt,
		req.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update money request", "id", req.ID.String(), "error", err)
		return fmt.Errorf("failed to update money request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return request.ErrRequestNotFound{RequestID: req.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the money request row
func (r *MoneyRequestRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	query := `SELECT ` + moneyRequestColumns + ` FROM money_requests WHERE id = $1 FOR UPDATE`

	req, err := r.scanRequest(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to lock money request for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock money request for update: %w", err)
	}

	return req, nil
}

func (r *MoneyRequestRepository) scanRequest(row pgx.Row) (*request.MoneyRequest, error) {
	var req request.MoneyRequest
	var amount decimal.Decimal
	var currency string

	err := row.Scan(
		&req.ID,
		&req.RequesterAccountID,
		&req.RecipientAccountID,
		&amount,
		&currency,
		&req.Message,
		&req.Status,
		&req.ExpiresAt,
		&req.TransactionID,
		&req.CreatedAt,
		&req.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Amount = money.Money{Amount: amount, Currency: currency}
	return &req, nil
}

func (r *MoneyRequestRepository) scanRequests(rows pgx.Rows) ([]*request.MoneyRequest, error) {
	var requests []*request.MoneyRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan money request row: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
