// Package charge holds the fee and tax configuration rules and the pure
// calculator evaluating them against a transaction amount.
package charge

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

// Method defines how a rule computes its charge.
type Method string

const (
	MethodFixed               Method = "FIXED"
	MethodPercentage          Method = "PERCENTAGE"
	MethodFixedPlusPercentage Method = "FIXED_PLUS_PERCENTAGE"
	MethodTiered              Method = "TIERED"
)

// Rule is a fee configuration row. Calculation is a pure function of
// (transaction amount, rule). A nil TransactionType makes the rule
// type-agnostic; Min/Max clamp the computed charge when set.
type Rule struct {
	Code            string            `json:"code"`
	Method          Method            `json:"method"`
	Amount          decimal.Decimal   `json:"amount"` // Fixed component
	Rate            decimal.Decimal   `json:"rate"`   // Percentage component, in percent
	MinAmount       *decimal.Decimal  `json:"min_amount,omitempty"`
	MaxAmount       *decimal.Decimal  `json:"max_amount,omitempty"`
	TransactionType *transaction.Type `json:"transaction_type,omitempty"`
	Active          bool              `json:"active"`
}

// AppliesTo reports whether the rule is active and matches the transaction
// type (or is type-agnostic).
func (r Rule) AppliesTo(txType transaction.Type) bool {
	if !r.Active {
		return false
	}
	return r.TransactionType == nil || *r.TransactionType == txType
}

// TaxRule is a fee rule with an additional effective-date window. Both
// bounds are optional; a nil bound leaves that side open.
type TaxRule struct {
	Rule
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
}

// EffectiveAt reports whether the tax rule applies at the given instant.
func (r TaxRule) EffectiveAt(txType transaction.Type, at time.Time) bool {
	if !r.AppliesTo(txType) {
		return false
	}
	if r.EffectiveFrom != nil && at.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && at.After(*r.EffectiveTo) {
		return false
	}
	return true
}
