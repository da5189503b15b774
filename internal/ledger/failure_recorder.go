package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

type failureRecorder struct {
	transactionRepo transaction.Repository
	logger          *slog.Logger
}

// NewFailureRecorder creates a recorder that writes FAILED transaction
// records against the pool, independent of any in-flight transaction.
func NewFailureRecorder(transactionRepo transaction.Repository, logger *slog.Logger) FailureRecorder {
	return &failureRecorder{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// RecordFailure marks the record FAILED and persists it. An existing record
// with the same ID is updated instead, so retries stay idempotent.
func (r *failureRecorder) RecordFailure(ctx context.Context, record *transaction.Transaction, failureReason string) error {
	logger := r.logger
	if record.CorrelationID != "" {
		logger = r.logger.With("correlation_id", record.CorrelationID)
	}

	logger.Info("Recording failed transaction", "transaction_id", record.ID.String(), "reason", failureReason)

	if record.Status == transaction.StatusPending {
		if err := record.MarkFailed(failureReason); err != nil {
			return err
		}
	}

	existing, err := r.transactionRepo.GetByID(ctx, record.ID)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		logger.Error("Failed to check for existing transaction record", "transaction_id", record.ID.String(), "error", err)
		return err
	}

	if existing != nil {
		if existing.Status != transaction.StatusFailed {
			if updateErr := r.transactionRepo.UpdateStatus(ctx, record.ID, transaction.StatusFailed, failureReason); updateErr != nil {
				logger.Error("Failed to update transaction record to FAILED", "transaction_id", record.ID.String(), "error", updateErr)
				return updateErr
			}
		}
		return nil
	}

	if createErr := r.transactionRepo.Create(ctx, record); createErr != nil {
		logger.Error("Failed to create FAILED transaction record", "transaction_id", record.ID.String(), "error", createErr)
		return createErr
	}
	return nil
}
