package tts

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
)

// MockSynthesizer produces silent PCM audio proportional to the text length
type MockSynthesizer struct {
	logger     *zap.Logger
	chunkDelay time.Duration
}

// NewMockSynthesizer creates a mock synthesizer
func NewMockSynthesizer(logger *zap.Logger, chunkDelay time.Duration) *MockSynthesizer {
	return &MockSynthesizer{logger: logger, chunkDelay: chunkDelay}
}

// Format implements Synthesizer
func (m *MockSynthesizer) Format() string {
	return defaultOutputFormat
}

// Synthesize implements Synthesizer
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, languageTag string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	m.logger.Info("Mock speech synthesis",
		zap.Int("textLength", len(text)),
		zap.String("language", languageTag))

	chunks := len([]rune(text))/10 + 1
	out := make(chan []byte)
	go func() {
		defer close(out)
		for i := 0; i < chunks; i++ {
			if m.chunkDelay > 0 {
				select {
				case <-time.After(m.chunkDelay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- make([]byte, defaultChunkSize):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
