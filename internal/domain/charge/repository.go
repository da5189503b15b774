package charge

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository loads active fee and tax configuration. Rules are read-mostly;
// implementations may cache, but the engine re-reads them inside the commit
// transaction.
type Repository interface {
	GetChargeRules(ctx context.Context) ([]Rule, error)
	GetTaxRules(ctx context.Context) ([]TaxRule, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRuleNotFound indicates a missing rule row
type ErrRuleNotFound struct {
	Code string
}

func (e ErrRuleNotFound) Error() string {
	return "charge rule not found: " + e.Code
}
