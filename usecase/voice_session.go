package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/entities"
	"github.com/rishithkoduri/web-translator/domain/repositories"
)

const (
	defaultTranslateTimeout = 15 * time.Second
	subscriberBuffer        = 16
)

// ErrSessionClosed is returned by commands issued after Run has exited
var ErrSessionClosed = errors.New("voice session closed")

// VoiceSessionConfig configures a single voice session
type VoiceSessionConfig struct {
	ID               string
	TargetLanguage   string
	SourceLanguage   string
	SampleRate       int
	Encoding         string
	TranslateTimeout time.Duration
}

// VoiceSession is the controller of one voice-interaction session. It owns the
// session state and mediates every transition between recognition, translation
// and playback. All transitions run sequentially on the goroutine executing Run.
type VoiceSession struct {
	config      VoiceSessionConfig
	recognizers repositories.SpeechRecognizerFactory
	translator  repositories.Translator
	speech      repositories.SpeechOutput
	logger      *zap.Logger

	queue   *eventQueue
	stopped chan struct{}
	runCtx  context.Context

	// Owned by the Run goroutine.
	recognizer     repositories.SpeechRecognizer
	recognitionGen uint64
	cycleGen       uint64

	mu          sync.RWMutex
	state       entities.SessionState
	subscribers map[int]chan entities.SessionState
	nextSubID   int
}

// NewVoiceSession creates a session controller. A nil recognizer factory means
// the host has no recognition capability: the session starts disabled.
func NewVoiceSession(
	config VoiceSessionConfig,
	recognizers repositories.SpeechRecognizerFactory,
	translator repositories.Translator,
	speech repositories.SpeechOutput,
	logger *zap.Logger,
) *VoiceSession {
	if config.TranslateTimeout <= 0 {
		config.TranslateTimeout = defaultTranslateTimeout
	}
	if !entities.IsSupportedLanguage(config.TargetLanguage) {
		config.TargetLanguage = entities.DefaultLanguage
	}

	s := &VoiceSession{
		config:      config,
		recognizers: recognizers,
		translator:  translator,
		speech:      speech,
		logger:      logger.With(zap.String("sessionID", config.ID)),
		queue:       newEventQueue(),
		stopped:     make(chan struct{}),
		state:       entities.NewSessionState(config.TargetLanguage),
		subscribers: make(map[int]chan entities.SessionState),
	}

	if recognizers == nil {
		s.state.MarkUnsupported()
		s.logger.Warn("Speech recognition unavailable, voice session disabled")
	}

	return s
}

// Run processes session events until ctx is done. It must be called once.
func (s *VoiceSession) Run(ctx context.Context) {
	s.runCtx = ctx
	defer close(s.stopped)
	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.queue.notify:
			for _, fn := range s.queue.drain() {
				fn()
			}
		}
	}
}

// Toggle starts listening when idle and stops listening when active.
// Failures are reflected in the session status and also returned.
func (s *VoiceSession) Toggle(ctx context.Context) error {
	return s.dispatch(ctx, s.handleToggle)
}

// Replay plays the current translation again without a new request
func (s *VoiceSession) Replay(ctx context.Context) error {
	return s.dispatch(ctx, s.handleReplay)
}

// SelectLanguage changes the target language. The current recognizer is torn
// down and a new one is created for the next listening cycle.
func (s *VoiceSession) SelectLanguage(ctx context.Context, code string) error {
	return s.dispatch(ctx, func() error {
		return s.handleSelectLanguage(code)
	})
}

// FeedAudio forwards audio to the active recognizer if it consumes audio
func (s *VoiceSession) FeedAudio(data []byte) {
	s.queue.push(func() {
		if !s.currentState().Listening() {
			return
		}
		input, ok := s.recognizer.(repositories.AudioInput)
		if !ok {
			return
		}
		if err := input.WriteAudio(data); err != nil {
			s.logger.Warn("Failed to forward audio to recognizer", zap.Error(err))
		}
	})
}

// State returns a snapshot of the session state
func (s *VoiceSession) State() entities.SessionState {
	return s.currentState()
}

// Subscribe returns a channel of state snapshots and a function to stop
// receiving them. Slow subscribers lose the oldest snapshots first.
func (s *VoiceSession) Subscribe() (<-chan entities.SessionState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan entities.SessionState, subscriberBuffer)
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// Done is closed once Run has returned
func (s *VoiceSession) Done() <-chan struct{} {
	return s.stopped
}

func (s *VoiceSession) dispatch(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	s.queue.push(func() { done <- fn() })

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrSessionClosed
	}
}

func (s *VoiceSession) handleToggle() error {
	state := s.currentState()

	if state.Unsupported() {
		s.logger.Warn("Toggle ignored on unsupported host")
		return domain.ErrUnsupportedHost
	}

	if state.Listening() {
		s.stopListening()
		return nil
	}

	return s.startListening()
}

func (s *VoiceSession) startListening() error {
	if s.recognizer == nil {
		recognizer, err := s.recognizers.NewRecognizer(s.recognitionConfig())
		if err != nil {
			s.logger.Error("Failed to create recognizer", zap.Error(err))
			s.update(func(st *entities.SessionState) { st.FailRecognition("recognizer-unavailable") })
			return &domain.RecognitionError{Reason: "recognizer-unavailable"}
		}
		s.recognizer = recognizer
	}

	if err := s.tryUpdate(func(st *entities.SessionState) error { return st.BeginListening() }); err != nil {
		return err
	}

	// The new cycle supersedes playback of the previous one
	if s.speech != nil {
		s.speech.Cancel()
	}

	s.cycleGen++
	s.recognitionGen++
	handler := &recognitionEvents{session: s, generation: s.recognitionGen}

	if err := s.recognizer.Start(handler); err != nil {
		s.recognitionGen++
		reason := err.Error()
		var recErr *domain.RecognitionError
		if errors.As(err, &recErr) {
			reason = recErr.Reason
		}
		s.logger.Error("Failed to start recognition", zap.Error(err))
		s.update(func(st *entities.SessionState) { st.FailRecognition(reason) })
		return &domain.RecognitionError{Reason: reason}
	}

	s.logger.Info("Listening started",
		zap.Uint64("cycle", s.cycleGen),
		zap.Uint64("generation", s.recognitionGen),
		zap.String("targetLanguage", s.currentState().TargetLanguage))
	return nil
}

func (s *VoiceSession) stopListening() {
	s.recognitionGen++
	s.recognizer.Stop()
	s.update(func(st *entities.SessionState) { st.CancelListening() })
	s.logger.Info("Listening stopped by user", zap.Uint64("cycle", s.cycleGen))
}

func (s *VoiceSession) handleRecognitionResult(generation uint64, transcript string) {
	if generation != s.recognitionGen || !s.currentState().Listening() {
		s.logger.Debug("Discarding stale recognition result",
			zap.Uint64("generation", generation),
			zap.Uint64("current", s.recognitionGen))
		return
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		s.update(func(st *entities.SessionState) { st.FailRecognition("no-speech") })
		return
	}

	if err := s.tryUpdate(func(st *entities.SessionState) error { return st.AcceptTranscript(transcript) }); err != nil {
		s.logger.Error("Failed to accept transcript", zap.Error(err))
		return
	}

	cycle := s.cycleGen
	language := s.currentState().TargetLanguage

	s.logger.Info("Transcript received",
		zap.Uint64("cycle", cycle),
		zap.String("transcript", transcript),
		zap.String("targetLanguage", language))

	go s.translate(cycle, transcript, language)
}

func (s *VoiceSession) handleRecognitionEnd(generation uint64) {
	if generation != s.recognitionGen || !s.currentState().Listening() {
		return
	}
	s.update(func(st *entities.SessionState) { st.CancelListening() })
	s.logger.Info("Recognition ended without a transcript", zap.Uint64("cycle", s.cycleGen))
}

func (s *VoiceSession) handleRecognitionError(generation uint64, reason string) {
	if generation != s.recognitionGen || !s.currentState().Listening() {
		s.logger.Debug("Discarding stale recognition error",
			zap.Uint64("generation", generation),
			zap.String("reason", reason))
		return
	}
	s.update(func(st *entities.SessionState) { st.FailRecognition(reason) })
	s.logger.Warn("Recognition failed", zap.String("reason", reason))
}

// translate runs outside the loop; its result re-enters through the queue
func (s *VoiceSession) translate(cycle uint64, transcript, language string) {
	ctx, cancel := context.WithTimeout(s.runCtx, s.config.TranslateTimeout)
	defer cancel()

	translated, err := s.translator.Translate(ctx, transcript, language)
	s.queue.push(func() {
		s.handleTranslation(cycle, language, translated, err)
	})
}

func (s *VoiceSession) handleTranslation(cycle uint64, language, translated string, err error) {
	if cycle != s.cycleGen || s.currentState().Phase != entities.PhaseTranslating {
		s.logger.Debug("Discarding stale translation",
			zap.Uint64("cycle", cycle),
			zap.Uint64("current", s.cycleGen))
		return
	}

	if err == nil && strings.TrimSpace(translated) == "" {
		err = domain.ErrTranslationResponseInvalid
	}
	if err != nil {
		s.logger.Error("Translation failed", zap.Uint64("cycle", cycle), zap.Error(err))
		s.update(func(st *entities.SessionState) { st.FailTranslation() })
		return
	}

	if err := s.tryUpdate(func(st *entities.SessionState) error { return st.CompleteTranslation(translated, language) }); err != nil {
		s.logger.Error("Failed to store translation", zap.Error(err))
		return
	}

	s.logger.Info("Translation completed",
		zap.Uint64("cycle", cycle),
		zap.String("language", language))

	s.speak(translated, language)
}

func (s *VoiceSession) handleReplay() error {
	state := s.currentState()
	if !state.CanReplay() {
		return domain.ErrEmptyText
	}
	s.speak(state.TranslatedText, state.TranslationLanguage)
	return nil
}

func (s *VoiceSession) handleSelectLanguage(code string) error {
	lang, ok := entities.LookupLanguage(code)
	if !ok {
		return domain.ErrUnknownLanguage
	}

	state := s.currentState()
	if lang.Code == state.TargetLanguage {
		return nil
	}

	if s.recognizer != nil {
		s.recognitionGen++
		if state.Listening() {
			s.recognizer.Stop()
		}
		s.recognizer = nil
	}

	s.update(func(st *entities.SessionState) {
		st.SetTargetLanguage(lang.Code)
		st.CancelListening()
	})

	s.logger.Info("Target language changed",
		zap.String("from", state.TargetLanguage),
		zap.String("to", lang.Code))
	return nil
}

func (s *VoiceSession) speak(text, language string) {
	if s.speech == nil {
		return
	}
	if err := s.speech.Speak(text, language); err != nil {
		s.logger.Warn("Speech output failed", zap.String("language", language), zap.Error(err))
	}
}

func (s *VoiceSession) recognitionConfig() repositories.RecognitionConfig {
	return repositories.RecognitionConfig{
		SourceLanguage: s.config.SourceLanguage,
		TargetLanguage: s.currentState().TargetLanguage,
		SampleRate:     s.config.SampleRate,
		Encoding:       s.config.Encoding,
	}
}

func (s *VoiceSession) shutdown() {
	if s.recognizer != nil && s.currentState().Listening() {
		s.recognitionGen++
		s.recognizer.Stop()
	}
	if s.speech != nil {
		s.speech.Cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *VoiceSession) currentState() entities.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// update applies a transition to the state and publishes the result
func (s *VoiceSession) update(fn func(*entities.SessionState)) {
	_ = s.tryUpdate(func(st *entities.SessionState) error {
		fn(st)
		return nil
	})
}

// tryUpdate applies a guarded transition; on error the state is left untouched
func (s *VoiceSession) tryUpdate(fn func(*entities.SessionState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	if err := fn(&next); err != nil {
		return err
	}
	s.state = next

	for _, ch := range s.subscribers {
		select {
		case ch <- next:
		default:
			// drop the oldest snapshot to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
	return nil
}

// recognitionEvents tags provider callbacks with the generation of the
// recognition session that produced them.
type recognitionEvents struct {
	session    *VoiceSession
	generation uint64
}

func (e *recognitionEvents) OnResult(transcript string) {
	e.session.queue.push(func() { e.session.handleRecognitionResult(e.generation, transcript) })
}

func (e *recognitionEvents) OnEnd() {
	e.session.queue.push(func() { e.session.handleRecognitionEnd(e.generation) })
}

func (e *recognitionEvents) OnError(reason string) {
	e.session.queue.push(func() { e.session.handleRecognitionError(e.generation, reason) })
}
