package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/entities"
	"github.com/rishithkoduri/web-translator/domain/repositories"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// TranslationService serves translation requests through a backend and keeps
// a history of what it served
type TranslationService struct {
	backend repositories.NamedTranslator
	history repositories.TranslationHistoryRepository
	logger  *zap.Logger
}

// NewTranslationService creates a translation service. history may be nil.
func NewTranslationService(
	backend repositories.NamedTranslator,
	history repositories.TranslationHistoryRepository,
	logger *zap.Logger,
) *TranslationService {
	return &TranslationService{
		backend: backend,
		history: history,
		logger:  logger,
	}
}

// Translate translates text into targetLang, which defaults to Spanish
func (s *TranslationService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyText
	}
	targetLang = strings.ToLower(strings.TrimSpace(targetLang))
	if targetLang == "" {
		targetLang = entities.DefaultLanguage
	}

	start := time.Now()
	translated, err := s.backend.Translate(ctx, text, targetLang)
	if err != nil {
		s.logger.Error("Translation backend failed",
			zap.String("backend", s.backend.Name()),
			zap.String("targetLang", targetLang),
			zap.Error(err))
		return "", fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	s.logger.Info("Translation served",
		zap.String("backend", s.backend.Name()),
		zap.String("targetLang", targetLang),
		zap.Duration("duration", elapsed))

	s.record(ctx, &entities.TranslationRecord{
		ID:             uuid.New().String(),
		SourceText:     text,
		TranslatedText: translated,
		TargetLanguage: targetLang,
		Provider:       s.backend.Name(),
		DurationMs:     elapsed.Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	})

	return translated, nil
}

// RecentTranslations returns the most recent history entries, newest first
func (s *TranslationService) RecentTranslations(ctx context.Context, limit int) ([]*entities.TranslationRecord, error) {
	if s.history == nil {
		return []*entities.TranslationRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.history.ListRecent(ctx, limit)
}

// record stores a history entry; failures are logged and never surface to the caller
func (s *TranslationService) record(ctx context.Context, record *entities.TranslationRecord) {
	if s.history == nil {
		return
	}
	if err := record.Validate(); err != nil {
		s.logger.Warn("Skipping invalid history record", zap.Error(err))
		return
	}
	if err := s.history.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to save translation history",
			zap.String("recordID", record.ID),
			zap.Error(err))
	}
}
