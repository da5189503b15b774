// Package exchange resolves effective conversion rates for currency pairs
// at an explicit point in time.
package exchange

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Rate stores the conversion rate between two currencies for an effective
// window. At most one rate should be effective for a pair at any instant;
// the resolver tie-breaks data errors by greatest EffectiveFrom.
type Rate struct {
	ID            int64           `json:"id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"` // nil = open-ended
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EffectiveAt reports whether the rate row is effective at the given instant.
func (r Rate) EffectiveAt(at time.Time) bool {
	if !r.Active {
		return false
	}
	if at.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && at.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// Repository manages exchange rate persistence
type Repository interface {
	Create(ctx context.Context, rate *Rate) error
	// GetEffective returns all rate rows for the pair effective at the given
	// instant, ordered by EffectiveFrom descending.
	GetEffective(ctx context.Context, from, to string, at time.Time) ([]*Rate, error)
	GetByPair(ctx context.Context, from, to string) ([]*Rate, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrNoEffectiveRate indicates no rate row covers the pair at the instant
type ErrNoEffectiveRate struct {
	From string
	To   string
	At   time.Time
}

func (e ErrNoEffectiveRate) Error() string {
	return "no effective exchange rate for " + e.From + "/" + e.To + " at " + e.At.UTC().Format(time.RFC3339)
}

// Is implements the errors.Is interface for ErrNoEffectiveRate
func (e ErrNoEffectiveRate) Is(target error) bool {
	t, ok := target.(ErrNoEffectiveRate)
	if !ok {
		return false
	}
	if t.From == "" && t.To == "" {
		return true
	}
	return e.From == t.From && e.To == t.To
}
