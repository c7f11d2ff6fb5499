package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain/repositories"
)

const (
	defaultRetentionInterval = 30 * time.Minute
	initialRetentionDelay    = 1 * time.Minute
	retentionRunTimeout      = 5 * time.Minute
)

// HistoryRetentionService periodically deletes translation records older than
// the retention period
type HistoryRetentionService struct {
	history   repositories.TranslationHistoryRepository
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHistoryRetentionService creates a retention service. A zero interval
// runs every 30 minutes.
func NewHistoryRetentionService(
	history repositories.TranslationHistoryRepository,
	retention, interval time.Duration,
	logger *zap.Logger,
) *HistoryRetentionService {
	if interval <= 0 {
		interval = defaultRetentionInterval
	}
	return &HistoryRetentionService{
		history:   history,
		retention: retention,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *HistoryRetentionService) Start() {
	if s.retention <= 0 {
		s.logger.Info("History retention disabled")
		return
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	s.logger.Info("History retention service started",
		zap.Duration("retention", s.retention),
		zap.Duration("interval", s.interval))
}

// Stop gracefully stops the cleanup service
func (s *HistoryRetentionService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Info("History retention service stopped")
	})
}

// cleanupLoop runs the cleanup process periodically
func (s *HistoryRetentionService) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	initialDelay := initialRetentionDelay
	if s.interval < initialDelay {
		initialDelay = s.interval
	}
	initialTimer := time.NewTimer(initialDelay)
	defer initialTimer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-initialTimer.C:
			s.RunCleanup(context.Background())
		case <-ticker.C:
			s.RunCleanup(context.Background())
		}
	}
}

// RunCleanup deletes records older than the retention period once
func (s *HistoryRetentionService) RunCleanup(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, retentionRunTimeout)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to delete expired translations", zap.Error(err))
		return 0, err
	}

	s.logger.Info("History cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))
	return deleted, nil
}
