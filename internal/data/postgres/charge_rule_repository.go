package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/walletpay/ledger-core/internal/domain/charge"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/platform/persistence"
)

// Rule kinds stored in the charge_rules table.
const (
	ruleKindCharge = "CHARGE"
	ruleKindTax    = "TAX"
)

// ChargeRuleRepository implements the charge.Repository interface for
// PostgreSQL. Charges and taxes share one table discriminated by kind; tax
// rows additionally carry an effective-date window.
type ChargeRuleRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewChargeRuleRepository creates a new PostgreSQL charge rule repository.
func NewChargeRuleRepository(logger *slog.Logger, db *persistence.PostgresDB) charge.Repository {
	return &ChargeRuleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so rules are read inside
// the engine's commit boundary.
func (r *ChargeRuleRepository) WithTx(tx pgx.Tx) charge.Repository {
	return &ChargeRuleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetChargeRules returns all active charge rules ordered by code
func (r *ChargeRuleRepository) GetChargeRules(ctx context.Context) ([]charge.Rule, error) {
	query := `
		SELECT code, method, amount, rate, min_amount, max_amount, transaction_type, active
		FROM charge_rules
		WHERE kind = $1 AND active
		ORDER BY code
	`

	rows, err := r.querier.Query(ctx, query, ruleKindCharge)
	if err != nil {
		r.logger.Error("Failed to get charge rules", "error", err)
		return nil, fmt.Errorf("failed to get charge rules: %w", err)
	}
	defer rows.Close()

	var rules []charge.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan charge rule row: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// GetTaxRules returns all active tax rules with their effective windows,
// ordered by code
func (r *ChargeRuleRepository) GetTaxRules(ctx context.Context) ([]charge.TaxRule, error) {
	query := `
		SELECT code, method, amount, rate, min_amount, max_amount, transaction_type, active,
		       effective_from, effective_to
		FROM charge_rules
		WHERE kind = $1 AND active
		ORDER BY code
	`

	rows, err := r.querier.Query(ctx, query, ruleKindTax)
	if err != nil {
		r.logger.Error("Failed to get tax rules", "error", err)
		return nil, fmt.Errorf("failed to get tax rules: %w", err)
	}
	defer rows.Close()

	var rules []charge.TaxRule
	for rows.Next() {
		var rule charge.TaxRule
		var minAmount, maxAmount *decimal.Decimal
		var txType *string
		var effectiveFrom, effectiveTo *time.Time

		err := rows.Scan(
			&rule.Code,
			&rule.Method,
			&rule.Amount,
			&rule.Rate,
			&minAmount,
			&maxAmount,
			&txType,
			&rule.Active,
			&effectiveFrom,
			&effectiveTo,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax rule row: %w", err)
		}

		rule.MinAmount = minAmount
		rule.MaxAmount = maxAmount
		if txType != nil {
			t := transaction.Type(*txType)
			rule.TransactionType = &t
		}
		rule.EffectiveFrom = effectiveFrom
		rule.EffectiveTo = effectiveTo
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

func scanRule(row pgx.Row) (charge.Rule, error) {
	var rule charge.Rule
	var minAmount, maxAmount *decimal.Decimal
	var txType *string

	err := row.Scan(
		&rule.Code,
		&rule.Method,
		&rule.Amount,
		&rule.Rate,
		&minAmount,
		&maxAmount,
		&txType,
		&rule.Active,
	)
	if err != nil {
		return charge.Rule{}, err
	}

	rule.MinAmount = minAmount
	rule.MaxAmount = maxAmount
	if txType != nil {
		t := transaction.Type(*txType)
		rule.TransactionType = &t
	}
	return rule, nil
}
