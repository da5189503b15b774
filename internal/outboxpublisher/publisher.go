// Package outboxpublisher drains the transactional outbox: each pending
// message is published to Kafka and mirrored into the MongoDB archive, then
// marked PROCESSED. Messages that exhaust their retry budget go to the DLQ.
package outboxpublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/walletpay/ledger-core/internal/domain/archive"
	"github.com/walletpay/ledger-core/internal/domain/outbox"
	"github.com/walletpay/ledger-core/internal/platform/messaging/producers"
)

// EventPublisher publishes a single outbox message downstream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl publishes outbox messages to Kafka and the archive
type EventPublisherImpl struct {
	outboxRepo  outbox.Repository
	archiveRepo archive.Repository
	producer    producers.MessagePublisher
	logger      *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	archiveRepo archive.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo:  outboxRepo,
		archiveRepo: archiveRepo,
		producer:    producer,
		logger:      logger,
	}
}

// PublishEvent emits the transaction event, archives the record, and marks
// the outbox message PROCESSED. Each step is idempotent so a partial failure
// is safe to retry.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	record, err := message.GetTransaction()
	if err != nil {
		p.logger.Error("Failed to unmarshal transaction from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if record.CorrelationID != "" {
		logger = p.logger.With("correlation_id", record.CorrelationID)
	}

	logger.Info("Publishing outbox message", "outbox_id", message.ID, "transaction_id", message.TransactionID)

	if err := p.producer.Publish(ctx, message.TransactionID.String(), record); err != nil {
		return fmt.Errorf("failed to publish transaction event %s: %w", message.TransactionID, err)
	}

	if err := p.archiveRepo.Create(ctx, archive.NewEntry(record)); err != nil {
		var dup archive.ErrDuplicateEntry
		if !errors.As(err, &dup) {
			logger.Error("Failed to archive transaction", "transaction_id", message.TransactionID, "error", err)
			return fmt.Errorf("failed to archive transaction %s: %w", message.TransactionID, err)
		}
		logger.Info("Transaction already archived", "transaction_id", message.TransactionID)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	logger.Info("Outbox message successfully published and marked as PROCESSED", "outbox_id", message.ID, "transaction_id", message.TransactionID)
	return nil
}
