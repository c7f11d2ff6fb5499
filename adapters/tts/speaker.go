package tts

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/repositories"
)

// Events sent to the audio sink around a streamed utterance
const (
	EventSpeakingStart = "speaking_start"
	EventSpeakingEnd   = "speaking_end"
	EventSpeakCancel   = "speak_cancel"
)

// Synthesizer turns text into a stream of audio chunks
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageTag string) (<-chan []byte, error)
	Format() string
}

// StreamingSpeechOutput plays synthesized speech to one client. At most one
// utterance is active: Speak cancels the current one before starting.
//
// mu guards the utterance bookkeeping and is never held across a sink write,
// so Speak and Cancel do not wait on a slow client. writeMu serializes sink
// writes; speak_cancel is written under it before any later utterance data.
type StreamingSpeechOutput struct {
	synth  Synthesizer
	sink   repositories.AudioSink
	logger *zap.Logger

	writeMu sync.Mutex

	mu            sync.Mutex
	utterance     uint64
	cancel        context.CancelFunc
	cancelPending bool
}

// NewStreamingSpeechOutput creates a speech output writing to sink. Synthesis
// runs in the background, so Speak returns before audio starts.
func NewStreamingSpeechOutput(synth Synthesizer, sink repositories.AudioSink, logger *zap.Logger) *StreamingSpeechOutput {
	return &StreamingSpeechOutput{
		synth:  synth,
		sink:   sink,
		logger: logger,
	}
}

// Speak implements repositories.SpeechOutput
func (s *StreamingSpeechOutput) Speak(text, languageTag string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyText
	}

	s.mu.Lock()
	s.cancelLocked()
	s.utterance++
	id := s.utterance
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, id, text, languageTag)
	return nil
}

// Cancel implements repositories.SpeechOutput
func (s *StreamingSpeechOutput) Cancel() {
	s.mu.Lock()
	cancelled := s.cancelLocked()
	s.mu.Unlock()

	if cancelled {
		go func() {
			s.writeMu.Lock()
			defer s.writeMu.Unlock()
			s.flushCancel()
		}()
	}
}

// cancelLocked stops the active utterance and marks speak_cancel for delivery
func (s *StreamingSpeechOutput) cancelLocked() bool {
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.utterance++
	s.cancelPending = true
	return true
}

// flushCancel writes a pending speak_cancel. Callers hold writeMu.
func (s *StreamingSpeechOutput) flushCancel() {
	s.mu.Lock()
	pending := s.cancelPending
	s.cancelPending = false
	s.mu.Unlock()

	if !pending {
		return
	}
	if err := s.sink.SendEvent(EventSpeakCancel, nil); err != nil {
		s.logger.Debug("Failed to send speak_cancel", zap.Error(err))
	}
}

func (s *StreamingSpeechOutput) run(ctx context.Context, id uint64, text, languageTag string) {
	audio, err := s.synth.Synthesize(ctx, text, languageTag)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Speech synthesis failed", zap.String("language", languageTag), zap.Error(err))
		}
		s.writeMu.Lock()
		s.flushCancel()
		s.writeMu.Unlock()
		s.finish(id)
		return
	}
	s.play(ctx, id, languageTag, audio)
}

func (s *StreamingSpeechOutput) play(ctx context.Context, id uint64, languageTag string, audio <-chan []byte) {
	started := s.send(id, func() error {
		return s.sink.SendEvent(EventSpeakingStart, map[string]interface{}{
			"lang":   languageTag,
			"format": s.synth.Format(),
		})
	})
	if !started {
		return
	}

	total := 0
	for chunk := range audio {
		if !s.send(id, func() error { return s.sink.SendAudio(chunk) }) {
			return
		}
		total += len(chunk)
	}

	if ctx.Err() != nil {
		return
	}
	if s.send(id, func() error {
		return s.sink.SendEvent(EventSpeakingEnd, map[string]interface{}{"bytes": total})
	}) {
		s.finish(id)
		s.logger.Debug("Utterance finished", zap.Int("bytes", total))
	}
}

// send delivers to the sink only while id is the active utterance. A cancel
// that lands during the write is delivered right after it.
func (s *StreamingSpeechOutput) send(id uint64, fn func() error) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.flushCancel()

	s.mu.Lock()
	active := id == s.utterance && s.cancel != nil
	s.mu.Unlock()
	if !active {
		return false
	}

	if err := fn(); err != nil {
		s.logger.Warn("Failed to deliver speech audio", zap.Error(err))
		s.finish(id)
		return false
	}
	return true
}

func (s *StreamingSpeechOutput) finish(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.utterance && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
