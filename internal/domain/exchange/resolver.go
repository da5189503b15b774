package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletpay/ledger-core/internal/domain/money"
)

// Resolver looks up effective conversion rates and converts amounts. Time is
// always an explicit parameter so resolution stays deterministic and
// testable; the transaction engine passes commit time, never quote time.
type Resolver struct {
	repo Repository
}

// NewResolver creates a rate resolver backed by the given repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveRate returns the rate effective for the pair at the given instant.
// An identical pair resolves to 1 without a lookup. If more than one row is
// effective (a data error), the most recently started rate wins.
func (r *Resolver) ResolveRate(ctx context.Context, from, to string, at time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rates, err := r.repo.GetEffective(ctx, from, to, at)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if len(rates) == 0 {
		return decimal.Decimal{}, ErrNoEffectiveRate{From: from, To: to, At: at}
	}

	// Repository orders by EffectiveFrom descending; the head is the
	// greatest-EffectiveFrom tie-break.
	return rates[0].Rate, nil
}

// Convert resolves the pair at the given instant and converts the amount,
// rounding to the target currency's decimal places.
func (r *Resolver) Convert(ctx context.Context, m money.Money, to string, at time.Time) (money.Money, error) {
	if m.Currency == to {
		return m, nil
	}

	rate, err := r.ResolveRate(ctx, m.Currency, to, at)
	if err != nil {
		return money.Money{}, err
	}

	converted := money.Money{Amount: m.Amount.Mul(rate), Currency: to}
	return converted.Round(), nil
}
