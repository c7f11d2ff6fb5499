package repositories

import (
	"context"
	"time"

	"github.com/rishithkoduri/web-translator/domain/entities"
)

// TranslationHistoryRepository stores translations served by the API
type TranslationHistoryRepository interface {
	Save(ctx context.Context, record *entities.TranslationRecord) error
	ListRecent(ctx context.Context, limit int) ([]*entities.TranslationRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
