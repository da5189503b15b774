package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/walletpay/ledger-core/internal/domain/exchange"
	"github.com/walletpay/ledger-core/internal/platform/persistence"
)

// ExchangeRateRepository implements the exchange.Repository interface for PostgreSQL
type ExchangeRateRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewExchangeRateRepository creates a new PostgreSQL exchange rate repository.
func NewExchangeRateRepository(logger *slog.Logger, db *persistence.PostgresDB) exchange.Repository {
	return &ExchangeRateRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so rates are resolved
// inside the engine's commit boundary, never from a stale quote.
func (r *ExchangeRateRepository) WithTx(tx pgx.Tx) exchange.Repository {
	return &ExchangeRateRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new exchange rate row
func (r *ExchangeRateRepository) Create(ctx context.Context, rate *exchange.Rate) error {
	query := `
		INSERT INTO exchange_rates (from_currency, to_currency, rate, effective_from, effective_to, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		rate.FromCurrency,
		rate.ToCurrency,
		rate.Rate,
		rate.EffectiveFrom,
		rate.EffectiveTo,
		rate.Active,
		rate.CreatedAt,
	).Scan(&rate.ID)
	if err != nil {
		r.logger.Error("Failed to create exchange rate", "pair", rate.FromCurrency+"/"+rate.ToCurrency, "error", err)
		return fmt.Errorf("failed to create exchange rate: %w", err)
	}

	return nil
}

// GetEffective returns rate rows effective for the pair at the given
// instant, most recently started first. The head of the result is the
// resolver's tie-break winner.
func (r *ExchangeRateRepository) GetEffective(ctx context.Context, from, to string, at time.Time) ([]*exchange.Rate, error) {
	query := `
		SELECT id, from_currency, to_currency, rate, effective_from, effective_to, active, created_at
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2
		  AND active
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY effective_from DESC
	`

	rows, err := r.querier.Query(ctx, query, from, to, at)
	if err != nil {
		r.logger.Error("Failed to get effective exchange rates", "pair", from+"/"+to, "error", err)
		return nil, fmt.Errorf("failed to get effective exchange rates: %w", err)
	}
	defer rows.Close()

	return scanRates(rows)
}

// GetByPair returns all rate rows for a currency pair, newest window first
func (r *ExchangeRateRepository) GetByPair(ctx context.Context, from, to string) ([]*exchange.Rate, error) {
	query := `
		SELECT id, from_currency, to_currency, rate, effective_from, effective_to, active, created_at
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2
		ORDER BY effective_from DESC
	`

	rows, err := r.querier.Query(ctx, query, from, to)
	if err != nil {
		r.logger.Error("Failed to get exchange rates by pair", "pair", from+"/"+to, "error", err)
		return nil, fmt.Errorf("failed to get exchange rates by pair: %w", err)
	}
	defer rows.Close()

	return scanRates(rows)
}

func scanRates(rows pgx.Rows) ([]*exchange.Rate, error) {
	var rates []*exchange.Rate
	for rows.Next() {
		var rate exchange.Rate
		err := rows.Scan(
			&rate.ID,
			&rate.FromCurrency,
			&rate.ToCurrency,
			&rate.Rate,
			&rate.EffectiveFrom,
			&rate.EffectiveTo,
			&rate.Active,
			&rate.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate row: %w", err)
		}
		rates = append(rates, &rate)
	}

	return rates, rows.Err()
}
