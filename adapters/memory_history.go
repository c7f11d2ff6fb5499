package adapters

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rishithkoduri/web-translator/domain/entities"
)

// MemoryHistoryRepository keeps translation history in memory, bounded to
// the most recent capacity records
type MemoryHistoryRepository struct {
	mu       sync.RWMutex
	records  []*entities.TranslationRecord
	capacity int
}

// NewMemoryHistoryRepository creates an in-memory history repository
func NewMemoryHistoryRepository(capacity int) *MemoryHistoryRepository {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryHistoryRepository{capacity: capacity}
}

// Save implements repositories.TranslationHistoryRepository
func (m *MemoryHistoryRepository) Save(ctx context.Context, record *entities.TranslationRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		return errors.New("record ID cannot be empty")
	}

	stored := *record
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, &stored)
	if len(m.records) > m.capacity {
		m.records = m.records[len(m.records)-m.capacity:]
	}
	return nil
}

// ListRecent implements repositories.TranslationHistoryRepository
func (m *MemoryHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*entities.TranslationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := make([]*entities.TranslationRecord, 0, len(m.records))
	for _, r := range m.records {
		copied := *r
		sorted = append(sorted, &copied)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// DeleteOlderThan implements repositories.TranslationHistoryRepository
func (m *MemoryHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var deleted int64
	for _, r := range m.records {
		if r.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}
