package charge

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

// methodFn computes the raw (unclamped) charge for one rule variant.
type methodFn func(rule Rule, amount money.Money) money.Money

// dispatch maps each rule method to its calculation. TIERED degrades to
// PERCENTAGE until a tier table is configured; this fallback is deliberate,
// not silent breakage.
var dispatch = map[Method]methodFn{
	MethodFixed: func(rule Rule, amount money.Money) money.Money {
		return money.Money{Amount: rule.Amount, Currency: amount.Currency}.Round()
	},
	MethodPercentage: func(rule Rule, amount money.Money) money.Money {
		return amount.Percent(rule.Rate)
	},
	MethodFixedPlusPercentage: func(rule Rule, amount money.Money) money.Money {
		pct := amount.Percent(rule.Rate)
		sum, _ := pct.Add(money.Money{Amount: rule.Amount, Currency: amount.Currency})
		return sum.Round()
	},
	MethodTiered: func(rule Rule, amount money.Money) money.Money {
		return amount.Percent(rule.Rate)
	},
}

// ComputeCharge evaluates the single best matching rule against the
// transaction amount. When several rules apply, the first by ascending rule
// code wins; rules never stack. A zero charge in the amount's currency is
// returned when no rule matches.
func ComputeCharge(rules []Rule, amount money.Money, txType transaction.Type) (money.Money, error) {
	rule, ok := selectRule(rules, txType)
	if !ok {
		return money.Zero(amount.Currency), nil
	}
	return apply(rule, amount)
}

// ComputeTax evaluates tax rules the same way as charges, restricted to
// rules whose effective-date window contains the explicit instant at.
func ComputeTax(rules []TaxRule, amount money.Money, txType transaction.Type, at time.Time) (money.Money, error) {
	applicable := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.EffectiveAt(txType, at) {
			applicable = append(applicable, r.Rule)
		}
	}

	rule, ok := selectRule(applicable, txType)
	if !ok {
		return money.Zero(amount.Currency), nil
	}
	return apply(rule, amount)
}

// selectRule picks the single winning rule: lowest code among applicable.
func selectRule(rules []Rule, txType transaction.Type) (Rule, bool) {
	applicable := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.AppliesTo(txType) {
			applicable = append(applicable, r)
		}
	}
	if len(applicable) == 0 {
		return Rule{}, false
	}

	sort.Slice(applicable, func(i, j int) bool {
		return applicable[i].Code < applicable[j].Code
	})
	return applicable[0], true
}

// apply runs the rule's method and clamps the result to [min, max].
func apply(rule Rule, amount money.Money) (money.Money, error) {
	fn, ok := dispatch[rule.Method]
	if !ok {
		return money.Money{}, fmt.Errorf("unknown charge method: %s", rule.Method)
	}

	result := fn(rule, amount)
	if rule.MinAmount != nil && result.Amount.LessThan(*rule.MinAmount) {
		result = money.Money{Amount: *rule.MinAmount, Currency: amount.Currency}.Round()
	}
	if rule.MaxAmount != nil && result.Amount.GreaterThan(*rule.MaxAmount) {
		result = money.Money{Amount: *rule.MaxAmount, Currency: amount.Currency}.Round()
	}
	if result.Amount.LessThan(decimal.Zero) {
		result = money.Zero(amount.Currency)
	}
	return result, nil
}
