package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain/entities"
)

const historyCollection = "translations"

// HistoryRepository stores served translations in MongoDB
type HistoryRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewHistoryRepository creates a MongoDB translation history repository
func NewHistoryRepository(db *mongo.Database, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		collection: db.Collection(historyCollection),
		logger:     logger,
	}
}

// EnsureIndexes creates the index used for listing and retention
func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}
	return nil
}

// Save implements repositories.TranslationHistoryRepository
func (r *HistoryRepository) Save(ctx context.Context, record *entities.TranslationRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		return errors.New("record ID cannot be empty")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	return nil
}

// ListRecent implements repositories.TranslationHistoryRepository
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]*entities.TranslationRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*entities.TranslationRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode translations: %w", err)
	}
	return records, nil
}

// DeleteOlderThan implements repositories.TranslationHistoryRepository
func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old translations: %w", err)
	}
	if result.DeletedCount > 0 {
		r.logger.Info("Deleted old translations",
			zap.Int64("count", result.DeletedCount),
			zap.Time("cutoff", cutoff))
	}
	return result.DeletedCount, nil
}
