package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/walletpay/ledger-core/internal/config"
	"github.com/walletpay/ledger-core/internal/domain/request"
	"github.com/walletpay/ledger-core/internal/ledger"
)

// ExpirySweeper periodically flips PENDING money requests past their deadline
// to EXPIRED. Each request is swept in its own transaction with a row lock,
// so a concurrent approval either wins cleanly or sees EXPIRED.
type ExpirySweeper struct {
	db          ledger.TxRunner
	requestRepo request.Repository
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	now         func() time.Time
}

func NewExpirySweeper(
	cfg *config.SweeperConfig,
	db ledger.TxRunner,
	requestRepo request.Repository,
	logger *slog.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		db:          db,
		requestRepo: requestRepo,
		logger:      logger,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start begins sweeping until context is canceled
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.logger.Info("Starting money request expiry sweeper",
		"interval", s.interval.String(),
		"batch_size", s.batchSize,
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry sweeper stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("Error during expiry sweep", "error", err)
			}
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) error {
	now := s.now()
	expired, err := s.requestRepo.GetExpiredPending(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get expired money requests: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	s.logger.Info("Sweeping expired money requests", "count", len(expired))

	for _, req := range expired {
		err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			repoTx := s.requestRepo.WithTx(tx)
			locked, err := repoTx.LockForUpdate(ctx, req.ID)
			if err != nil {
				return err
			}
			// Re-check under the lock; an approval may have won the race.
			if locked.Status != request.StatusPending || !locked.IsExpired(now) {
				return nil
			}
			if err := locked.MarkExpired(now); err != nil {
				return err
			}
			return repoTx.Update(ctx, locked)
		})
		if err != nil {
			s.logger.Error("Failed to expire money request", "request_id", req.ID.String(), "error", err)
			continue
		}
		s.logger.Info("Money request expired", "request_id", req.ID.String())
	}
	return nil
}
