package stt

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain/repositories"
)

const defaultMockUtteranceBytes = 16000

// MockRecognizerFactory creates recognizers that turn buffered audio into a
// canned transcript, for local development without a speech service
type MockRecognizerFactory struct {
	logger         *zap.Logger
	utteranceBytes int
}

// NewMockRecognizerFactory creates a mock factory; utteranceBytes is the amount
// of audio that completes an utterance (0 uses the default)
func NewMockRecognizerFactory(logger *zap.Logger, utteranceBytes int) *MockRecognizerFactory {
	if utteranceBytes <= 0 {
		utteranceBytes = defaultMockUtteranceBytes
	}
	return &MockRecognizerFactory{logger: logger, utteranceBytes: utteranceBytes}
}

// NewRecognizer implements repositories.SpeechRecognizerFactory
func (f *MockRecognizerFactory) NewRecognizer(config repositories.RecognitionConfig) (repositories.SpeechRecognizer, error) {
	f.logger.Info("Creating mock recognizer",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.SourceLanguage))

	return &MockRecognizer{
		logger:         f.logger,
		utteranceBytes: f.utteranceBytes,
	}, nil
}

// MockRecognizer implements repositories.SpeechRecognizer and repositories.AudioInput
type MockRecognizer struct {
	logger         *zap.Logger
	utteranceBytes int

	mu       sync.Mutex
	handler  repositories.RecognitionHandler
	received int
}

// Start begins a new utterance
func (m *MockRecognizer) Start(handler repositories.RecognitionHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
	m.received = 0
	return nil
}

// Stop discards the current utterance
func (m *MockRecognizer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = nil
}

// WriteAudio accumulates audio until an utterance is complete
func (m *MockRecognizer) WriteAudio(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handler == nil {
		return nil
	}
	m.received += len(data)
	m.logger.Debug("Processing mock audio chunk", zap.Int("size", len(data)), zap.Int("total", m.received))

	if m.received < m.utteranceBytes {
		return nil
	}

	handler := m.handler
	m.handler = nil
	handler.OnResult(mockTranscript(m.received, m.utteranceBytes))
	handler.OnEnd()
	return nil
}

// mockTranscript picks a phrase by how much audio was spoken
func mockTranscript(received, utteranceBytes int) string {
	switch {
	case received >= 4*utteranceBytes:
		return "good morning"
	case received >= 2*utteranceBytes:
		return "thank you"
	default:
		return "hello"
	}
}
