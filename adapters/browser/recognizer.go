// Package browser drives the speech capabilities of the connected browser.
// Commands are sent as events over the client's connection and the browser's
// recognition callbacks come back tagged with the generation they belong to.
package browser

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain/repositories"
)

// Events sent to the browser
const (
	EventRecognitionStart = "recognition_start"
	EventRecognitionStop  = "recognition_stop"
	EventSpeak            = "speak"
	EventSpeakCancel      = "speak_cancel"
)

// Bridge routes recognition commands and callbacks for one browser connection.
// It is the recognizer factory for that connection.
type Bridge struct {
	sink   repositories.AudioSink
	logger *zap.Logger

	mu         sync.Mutex
	generation uint64
	active     *Recognizer
	handler    repositories.RecognitionHandler
}

// NewBridge creates a bridge sending commands through sink
func NewBridge(sink repositories.AudioSink, logger *zap.Logger) *Bridge {
	return &Bridge{sink: sink, logger: logger}
}

// NewRecognizer implements repositories.SpeechRecognizerFactory
func (b *Bridge) NewRecognizer(config repositories.RecognitionConfig) (repositories.SpeechRecognizer, error) {
	return &Recognizer{bridge: b, config: config}, nil
}

// HandleResult delivers a final transcript reported by the browser
func (b *Bridge) HandleResult(generation uint64, transcript string) {
	if handler := b.current(generation, false); handler != nil {
		handler.OnResult(transcript)
	}
}

// HandleError delivers a recognition error reported by the browser
func (b *Bridge) HandleError(generation uint64, reason string) {
	if handler := b.current(generation, false); handler != nil {
		handler.OnError(reason)
	}
}

// HandleEnd delivers the end of a browser recognition session
func (b *Bridge) HandleEnd(generation uint64) {
	if handler := b.current(generation, true); handler != nil {
		handler.OnEnd()
	}
}

// current returns the handler if generation is the active session
func (b *Bridge) current(generation uint64, end bool) repositories.RecognitionHandler {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handler == nil || generation != b.generation {
		b.logger.Debug("Ignoring browser recognition event",
			zap.Uint64("generation", generation),
			zap.Uint64("current", b.generation))
		return nil
	}
	handler := b.handler
	if end {
		b.handler = nil
		b.active = nil
	}
	return handler
}

// Recognizer commands the browser's speech recognition for one language
type Recognizer struct {
	bridge *Bridge
	config repositories.RecognitionConfig
}

// Start asks the browser to begin a recognition session
func (r *Recognizer) Start(handler repositories.RecognitionHandler) error {
	b := r.bridge
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handler != nil {
		b.stopLocked()
	}

	b.generation++
	b.active = r
	b.handler = handler

	payload := map[string]interface{}{"generation": b.generation}
	if r.config.SourceLanguage != "" {
		payload["language"] = r.config.SourceLanguage
	}
	if err := b.sink.SendEvent(EventRecognitionStart, payload); err != nil {
		b.active = nil
		b.handler = nil
		return err
	}
	return nil
}

// Stop asks the browser to abort the session started by this recognizer
func (r *Recognizer) Stop() {
	b := r.bridge
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active != r {
		return
	}
	b.stopLocked()
}

func (b *Bridge) stopLocked() {
	if err := b.sink.SendEvent(EventRecognitionStop, map[string]interface{}{"generation": b.generation}); err != nil {
		b.logger.Debug("Failed to send recognition_stop", zap.Error(err))
	}
	b.active = nil
	b.handler = nil
}
