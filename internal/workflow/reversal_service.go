// Package workflow implements the approval state machines layered on top of
// the transaction engine: reversals and money requests.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/ledger"
)

// CompensatingEngine applies the balance movement that undoes a reversed
// transaction, inside the workflow's transaction.
type CompensatingEngine interface {
	CompensateTx(ctx context.Context, tx pgx.Tx, rev *reversal.Reversal, original *transaction.Transaction) (*transaction.Transaction, error)
}

// ReversalService drives the reversal approval lifecycle. Processing couples
// the compensating transaction with the reversal's state transition in one
// unit of work.
type ReversalService struct {
	db              ledger.TxRunner
	reversalRepo    reversal.Repository
	transactionRepo transaction.Repository
	engine          CompensatingEngine
	logger          *slog.Logger
	now             func() time.Time
}

// NewReversalService creates a reversal workflow service.
func NewReversalService(
	db ledger.TxRunner,
	reversalRepo reversal.Repository,
	transactionRepo transaction.Repository,
	engine CompensatingEngine,
	logger *slog.Logger,
) *ReversalService {
	return &ReversalService{
		db:              db,
		reversalRepo:    reversalRepo,
		transactionRepo: transactionRepo,
		engine:          engine,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// RequestReversal opens a PENDING reversal against a completed transaction.
// At most one active reversal may exist per transaction; the check here is
// backed by a partial unique index, so a racing duplicate still fails with
// ErrDuplicateReversal at commit.
func (s *ReversalService) RequestReversal(ctx context.Context, transactionID, requestedBy uuid.UUID, amount money.Money, reason string) (*reversal.Reversal, error) {
	return s.open(ctx, transactionID, func(original *transaction.Transaction) (*reversal.Reversal, error) {
		return reversal.New(original, requestedBy, amount, reason)
	})
}

// RequestRefund opens a PENDING refund against a completed transaction. A
// refund must return the full original principal; when processed, its
// compensating transaction is recorded as a REFUND rather than a CHARGEBACK.
func (s *ReversalService) RequestRefund(ctx context.Context, transactionID, requestedBy uuid.UUID, amount money.Money, reason string) (*reversal.Reversal, error) {
	return s.open(ctx, transactionID, func(original *transaction.Transaction) (*reversal.Reversal, error) {
		return reversal.NewRefund(original, requestedBy, amount, reason)
	})
}

func (s *ReversalService) open(ctx context.Context, transactionID uuid.UUID, build func(*transaction.Transaction) (*reversal.Reversal, error)) (*reversal.Reversal, error) {
	original, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	active, err := s.reversalRepo.GetActiveByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, reversal.ErrDuplicateReversal
	}

	rev, err := build(original)
	if err != nil {
		return nil, err
	}

	if err := s.reversalRepo.Create(ctx, rev); err != nil {
		return nil, err
	}

	s.logger.Info("Reversal requested",
		"reversal_id", rev.ID.String(),
		"transaction_id", transactionID.String(),
		"type", string(rev.Type),
	)
	return rev, nil
}

// GetReversal retrieves a reversal by ID.
func (s *ReversalService) GetReversal(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error) {
	return s.reversalRepo.GetByID(ctx, id)
}

// ApproveReversal transitions PENDING -> APPROVED.
func (s *ReversalService) ApproveReversal(ctx context.Context, reversalID, adminID uuid.UUID, notes string) (*reversal.Reversal, error) {
	var rev *reversal.Reversal
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := s.reversalRepo.WithTx(tx)
		locked, err := repoTx.LockForUpdate(ctx, reversalID)
		if err != nil {
			return err
		}
		if err := locked.Approve(adminID, notes); err != nil {
			return err
		}
		rev = locked
		return repoTx.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reversal approved", "reversal_id", reversalID.String(), "admin_id", adminID.String())
	return rev, nil
}

// RejectReversal transitions PENDING -> REJECTED.
func (s *ReversalService) RejectReversal(ctx context.Context, reversalID, adminID uuid.UUID, notes string) (*reversal.Reversal, error) {
	var rev *reversal.Reversal
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := s.reversalRepo.WithTx(tx)
		locked, err := repoTx.LockForUpdate(ctx, reversalID)
		if err != nil {
			return err
		}
		if err := locked.Reject(adminID, notes); err != nil {
			return err
		}
		rev = locked
		return repoTx.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reversal rejected", "reversal_id", reversalID.String(), "admin_id", adminID.String())
	return rev, nil
}

// CancelReversal transitions PENDING -> CANCELLED on behalf of the requester.
func (s *ReversalService) CancelReversal(ctx context.Context, reversalID uuid.UUID) (*reversal.Reversal, error) {
	var rev *reversal.Reversal
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := s.reversalRepo.WithTx(tx)
		locked, err := repoTx.LockForUpdate(ctx, reversalID)
		if err != nil {
			return err
		}
		if err := locked.Cancel(); err != nil {
			return err
		}
		rev = locked
		return repoTx.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// ProcessReversal executes an APPROVED reversal: the compensating transaction
// is applied, the reversal is linked to it and marked PROCESSED, and a
// full-principal reversal or refund flips the original record to REFUNDED.
// All of it commits or rolls back as one.
func (s *ReversalService) ProcessReversal(ctx context.Context, reversalID uuid.UUID) (*transaction.Transaction, error) {
	var compensating *transaction.Transaction
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := s.reversalRepo.WithTx(tx)
		rev, err := repoTx.LockForUpdate(ctx, reversalID)
		if err != nil {
			return err
		}
		if rev.Status != reversal.StatusApproved {
			return reversal.ErrNotApproved
		}

		original, err := s.transactionRepo.WithTx(tx).GetByID(ctx, rev.TransactionID)
		if err != nil {
			return err
		}

		compensating, err = s.engine.CompensateTx(ctx, tx, rev, original)
		if err != nil {
			return err
		}

		if err := rev.MarkProcessed(compensating.ID, s.now()); err != nil {
			return err
		}
		if err := repoTx.Update(ctx, rev); err != nil {
			return err
		}

		if rev.Type != reversal.TypePartial {
			if err := original.MarkRefunded(); err != nil {
				return err
			}
			if err := s.transactionRepo.WithTx(tx).UpdateStatus(ctx, original.ID, transaction.StatusRefunded, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reversal processed",
		"reversal_id", reversalID.String(),
		"compensating_transaction_id", compensating.ID.String(),
	)
	return compensating, nil
}
