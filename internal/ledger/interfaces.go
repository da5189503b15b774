package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

// TxRunner runs a function inside a database transaction, rolling back on
// error or panic. Satisfied by persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// FailureRecorder persists FAILED transaction records. It runs outside the
// rolled-back transaction so the audit trail of attempted-but-failed
// operations survives the rollback.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, record *transaction.Transaction, failureReason string) error
}
