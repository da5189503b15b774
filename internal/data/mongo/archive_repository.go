package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/walletpay/ledger-core/internal/domain/archive"
)

const (
	// ArchiveCollectionName is the name of the transaction archive collection
	ArchiveCollectionName = "transaction_archive"
)

// ArchiveRepository implements the archive.Repository interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB transaction archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) archive.Repository {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new archive entry after checking for duplicates.
// Returns ErrDuplicateEntry if the transaction was already archived.
func (r *ArchiveRepository) Create(ctx context.Context, entry *archive.Entry) error {
	collection := r.db.Collection(ArchiveCollectionName)

	existing, err := r.GetByTransactionID(ctx, entry.TransactionID)
	if err != nil && !errors.Is(err, archive.ErrEntryNotFound{}) {
		r.logger.Error("Failed to check for existing archive entry",
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing archive entry: %w", err)
	}

	if existing != nil {
		return archive.ErrDuplicateEntry{TransactionID: entry.TransactionID}
	}

	_, err = collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to create archive entry",
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to create archive entry: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves an archive entry by its transaction ID.
// Returns ErrEntryNotFound if the transaction was never archived.
func (r *ArchiveRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*archive.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"transaction_id": transactionID}
	var entry archive.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, archive.ErrEntryNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get archive entry",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archive entry: %w", err)
	}

	return &entry, nil
}

// GetByAccountID retrieves paginated archive entries where the account is
// either side of the movement. Results are sorted newest first.
func (r *ArchiveRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*archive.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{
		"$or": []bson.M{
			{"sender_account_id": accountID},
			{"receiver_account_id": accountID},
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archive entries",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archive entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*archive.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode archive entries",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archive entries: %w", err)
	}

	return entries, nil
}

// GetByTimeRange retrieves paginated archive entries within the specified
// time window, newest first.
func (r *ArchiveRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*archive.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{
		"created_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archive entries by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get archive entries by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*archive.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode archive entries",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode archive entries: %w", err)
	}

	return entries, nil
}

// CountByAccountID counts archived entries touching an account
func (r *ArchiveRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{
		"$or": []bson.M{
			{"sender_account_id": accountID},
			{"receiver_account_id": accountID},
		},
	}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count archive entries",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count archive entries: %w", err)
	}

	return count, nil
}
