package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/entities"
	"github.com/rishithkoduri/web-translator/domain/repositories"
)

// fakeRecognizerFactory records every recognizer it creates
type fakeRecognizerFactory struct {
	mu          sync.Mutex
	recognizers []*fakeRecognizer
	startErr    error
}

func (f *fakeRecognizerFactory) NewRecognizer(config repositories.RecognitionConfig) (repositories.SpeechRecognizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &fakeRecognizer{config: config, startErr: f.startErr}
	f.recognizers = append(f.recognizers, r)
	return r, nil
}

func (f *fakeRecognizerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recognizers)
}

func (f *fakeRecognizerFactory) last() *fakeRecognizer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recognizers[len(f.recognizers)-1]
}

type fakeRecognizer struct {
	mu       sync.Mutex
	config   repositories.RecognitionConfig
	handlers []repositories.RecognitionHandler
	stops    int
	audio    [][]byte
	startErr error
}

func (r *fakeRecognizer) Start(handler repositories.RecognitionHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.handlers = append(r.handlers, handler)
	return nil
}

func (r *fakeRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

func (r *fakeRecognizer) WriteAudio(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio = append(r.audio, data)
	return nil
}

// handler returns the handler of the most recent recognition session
func (r *fakeRecognizer) handler() repositories.RecognitionHandler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers[len(r.handlers)-1]
}

func (r *fakeRecognizer) stopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

type translateCall struct {
	Text  string
	Lang  string
	reply chan translateReply
}

type translateReply struct {
	text string
	err  error
}

// fakeTranslator either answers through respond or blocks until the test resolves the call
type fakeTranslator struct {
	mu      sync.Mutex
	calls   []*translateCall
	respond func(text, lang string) (string, error)
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	call := &translateCall{Text: text, Lang: targetLang, reply: make(chan translateReply, 1)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(text, targetLang)
	}

	select {
	case r := <-call.reply:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTranslator) call(i int) *translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type speakCall struct {
	Text string
	Lang string
}

type fakeSpeech struct {
	mu      sync.Mutex
	calls   []speakCall
	cancels int
}

func (f *fakeSpeech) Speak(text, languageTag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, speakCall{Text: text, Lang: languageTag})
	return nil
}

func (f *fakeSpeech) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeSpeech) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

func (f *fakeSpeech) spoken() []speakCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]speakCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type sessionFixture struct {
	session    *VoiceSession
	factory    *fakeRecognizerFactory
	translator *fakeTranslator
	speech     *fakeSpeech
	logs       *observer.ObservedLogs
}

func newFixture(t *testing.T, factory *fakeRecognizerFactory, translator *fakeTranslator) *sessionFixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(zapcore.NewTee(core, zaptest.NewLogger(t).Core()))

	speech := &fakeSpeech{}
	var recognizers repositories.SpeechRecognizerFactory
	if factory != nil {
		recognizers = factory
	}

	session := NewVoiceSession(VoiceSessionConfig{
		ID:               "test-session",
		TargetLanguage:   "es",
		SourceLanguage:   "en-US",
		TranslateTimeout: 2 * time.Second,
	}, recognizers, translator, speech, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-session.Done()
	})

	return &sessionFixture{
		session:    session,
		factory:    factory,
		translator: translator,
		speech:     speech,
		logs:       logs,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func waitForPhase(t *testing.T, s *VoiceSession, phase entities.Phase) entities.SessionState {
	t.Helper()
	waitFor(t, fmt.Sprintf("phase %s", phase), func() bool {
		return s.State().Phase == phase
	})
	return s.State()
}

func echoTranslator(translations map[string]string) *fakeTranslator {
	return &fakeTranslator{respond: func(text, lang string) (string, error) {
		if out, ok := translations[lang+":"+text]; ok {
			return out, nil
		}
		return "[" + lang + "] " + text, nil
	}}
}

func TestVoiceSession_InitialState(t *testing.T) {
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

	state := f.session.State()
	if state.Phase != entities.PhaseIdle {
		t.Errorf("Expected idle, got %s", state.Phase)
	}
	if state.Status != entities.StatusReady {
		t.Errorf("Expected %q, got %q", entities.StatusReady, state.Status)
	}
	if state.Listening() {
		t.Error("Should not be listening initially")
	}
	if state.TargetLanguage != "es" {
		t.Errorf("Expected default language es, got %s", state.TargetLanguage)
	}
}

func TestVoiceSession_SuccessfulCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(map[string]string{"es:hello": "hola"}))

	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	state := f.session.State()
	if !state.Listening() || state.Status != entities.StatusListening {
		t.Fatalf("Expected listening, got %s / %q", state.Phase, state.Status)
	}

	f.factory.last().handler().OnResult("hello")
	f.factory.last().handler().OnEnd()

	state = waitForPhase(t, f.session, entities.PhaseDone)

	if state.Status != entities.StatusDone {
		t.Errorf("Expected status Done, got %q", state.Status)
	}
	if state.SourceTranscript != "hello" {
		t.Errorf("Expected transcript hello, got %q", state.SourceTranscript)
	}
	if state.TranslatedText != "hola" {
		t.Errorf("Expected translation hola, got %q", state.TranslatedText)
	}
	if state.Listening() {
		t.Error("Should not be listening after completion")
	}

	spoken := f.speech.spoken()
	if len(spoken) != 1 {
		t.Fatalf("Expected exactly one playback, got %d", len(spoken))
	}
	if spoken[0] != (speakCall{Text: "hola", Lang: "es"}) {
		t.Errorf("Unexpected playback %+v", spoken[0])
	}

	if f.translator.callCount() != 1 {
		t.Errorf("Expected one translation request, got %d", f.translator.callCount())
	}
}

func TestVoiceSession_TranslationFailure(t *testing.T) {
	ctx := context.Background()
	translator := &fakeTranslator{respond: func(text, lang string) (string, error) {
		return "", fmt.Errorf("%w: status 500", domain.ErrTranslationRequestFailed)
	}}
	f := newFixture(t, &fakeRecognizerFactory{}, translator)

	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	f.factory.last().handler().OnResult("hello")

	state := waitForPhase(t, f.session, entities.PhaseError)

	if state.Status != entities.StatusTranslationFailed {
		t.Errorf("Expected %q, got %q", entities.StatusTranslationFailed, state.Status)
	}
	if state.ErrorKind != entities.ErrorKindTranslation {
		t.Errorf("Expected translation error kind, got %s", state.ErrorKind)
	}
	if state.TranslatedText != "" {
		t.Errorf("Translation should stay empty, got %q", state.TranslatedText)
	}
	if len(f.speech.spoken()) != 0 {
		t.Error("No playback expected after a failed translation")
	}
}

func TestVoiceSession_EmptyTranslationIsFailure(t *testing.T) {
	ctx := context.Background()
	translator := &fakeTranslator{respond: func(text, lang string) (string, error) {
		return "   ", nil
	}}
	f := newFixture(t, &fakeRecognizerFactory{}, translator)

	_ = f.session.Toggle(ctx)
	f.factory.last().handler().OnResult("hello")

	state := waitForPhase(t, f.session, entities.PhaseError)
	if state.Status != entities.StatusTranslationFailed {
		t.Errorf("Expected %q, got %q", entities.StatusTranslationFailed, state.Status)
	}
}

func TestVoiceSession_UnsupportedHost(t *testing.T) {
	ctx := context.Background()
	translator := echoTranslator(nil)
	f := newFixture(t, nil, translator)

	before := f.session.State()
	if before.Status != entities.StatusUnsupported {
		t.Fatalf("Expected %q on load, got %q", entities.StatusUnsupported, before.Status)
	}

	err := f.session.Toggle(ctx)
	if !errors.Is(err, domain.ErrUnsupportedHost) {
		t.Errorf("Expected ErrUnsupportedHost, got %v", err)
	}

	after := f.session.State()
	if after != before {
		t.Errorf("Toggle changed state on an unsupported host: %+v -> %+v", before, after)
	}
	if translator.callCount() != 0 {
		t.Error("No translation expected on an unsupported host")
	}
}

func TestVoiceSession_StopBeforeTranscript(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	recognizer := f.factory.last()
	staleHandler := recognizer.handler()

	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Second toggle failed: %v", err)
	}

	state := f.session.State()
	if state.Listening() {
		t.Error("Expected listening=false after stop")
	}
	if state.Phase != entities.PhaseIdle || state.Status != entities.StatusReady {
		t.Errorf("Expected idle/Ready, got %s / %q", state.Phase, state.Status)
	}
	if recognizer.stopCount() != 1 {
		t.Errorf("Expected recognizer to be stopped once, got %d", recognizer.stopCount())
	}

	// A late result from the cancelled session must not start a translation
	staleHandler.OnResult("too late")
	waitFor(t, "stale result to be discarded", func() bool {
		return f.logs.FilterMessage("Discarding stale recognition result").Len() > 0
	})

	state = f.session.State()
	if state.Status == entities.StatusTranslating || state.Phase != entities.PhaseIdle {
		t.Errorf("Stale result changed state: %s / %q", state.Phase, state.Status)
	}
	if f.translator.callCount() != 0 {
		t.Errorf("Expected no translation request, got %d", f.translator.callCount())
	}
}

func TestVoiceSession_RecognitionError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

	_ = f.session.Toggle(ctx)
	handler := f.factory.last().handler()
	handler.OnError("no-speech")
	handler.OnEnd()

	state := waitForPhase(t, f.session, entities.PhaseError)
	if state.Status != "Error: no-speech" {
		t.Errorf("Expected provider reason in status, got %q", state.Status)
	}
	if state.Listening() {
		t.Error("Expected listening=false after an error")
	}

	// Recoverable by toggling again
	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle after error failed: %v", err)
	}
	if !f.session.State().Listening() {
		t.Error("Expected a new listening cycle after an error")
	}
}

func TestVoiceSession_EndWithoutResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

	_ = f.session.Toggle(ctx)
	f.factory.last().handler().OnEnd()

	state := waitForPhase(t, f.session, entities.PhaseIdle)
	if state.Status != entities.StatusReady {
		t.Errorf("Expected Ready, got %q", state.Status)
	}
}

func TestVoiceSession_StartFailure(t *testing.T) {
	ctx := context.Background()
	factory := &fakeRecognizerFactory{startErr: &domain.RecognitionError{Reason: "not-allowed"}}
	f := newFixture(t, factory, echoTranslator(nil))

	err := f.session.Toggle(ctx)
	var recErr *domain.RecognitionError
	if !errors.As(err, &recErr) || recErr.Reason != "not-allowed" {
		t.Fatalf("Expected RecognitionError(not-allowed), got %v", err)
	}

	state := f.session.State()
	if state.Status != "Error: not-allowed" || state.Listening() {
		t.Errorf("Unexpected state after start failure: %s / %q", state.Phase, state.Status)
	}
}

func TestVoiceSession_NewCycleClearsPreviousText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(map[string]string{"es:hello": "hola"}))

	_ = f.session.Toggle(ctx)
	f.factory.last().handler().OnResult("hello")
	waitForPhase(t, f.session, entities.PhaseDone)

	updates, unsubscribe := f.session.Subscribe()
	defer unsubscribe()

	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	select {
	case state := <-updates:
		if state.Phase != entities.PhaseListening {
			t.Fatalf("Expected listening snapshot, got %s", state.Phase)
		}
		if state.SourceTranscript != "" || state.TranslatedText != "" {
			t.Errorf("Stale text visible when listening begins: %+v", state)
		}
	case <-time.After(time.Second):
		t.Fatal("No state update received")
	}
}

func TestVoiceSession_NewCycleCancelsPlayback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(map[string]string{"es:hello": "hola"}))

	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if got := f.speech.cancelCount(); got != 1 {
		t.Fatalf("Expected the first cycle to cancel playback once, got %d", got)
	}

	f.factory.last().handler().OnResult("hello")
	waitForPhase(t, f.session, entities.PhaseDone)
	if len(f.speech.spoken()) != 1 {
		t.Fatalf("Expected one playback, got %d", len(f.speech.spoken()))
	}

	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if got := f.speech.cancelCount(); got != 2 {
		t.Errorf("Expected the new cycle to cancel the previous playback, got %d cancels", got)
	}
	if !f.session.State().Listening() {
		t.Errorf("Expected listening, got %s", f.session.State().Phase)
	}

	// Stopping listening does not cancel anything further
	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if got := f.speech.cancelCount(); got != 2 {
		t.Errorf("Expected no cancel on stop, got %d", got)
	}
}

func TestVoiceSession_ReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(map[string]string{"es:hello": "hola"}))

	if err := f.session.Replay(ctx); !errors.Is(err, domain.ErrEmptyText) {
		t.Errorf("Replay without a translation should fail with ErrEmptyText, got %v", err)
	}

	_ = f.session.Toggle(ctx)
	f.factory.last().handler().OnResult("hello")
	before := waitForPhase(t, f.session, entities.PhaseDone)

	if err := f.session.Replay(ctx); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	spoken := f.speech.spoken()
	if len(spoken) != 2 {
		t.Fatalf("Expected 2 playbacks (auto + replay), got %d", len(spoken))
	}
	if spoken[1] != spoken[0] {
		t.Errorf("Replay should use the same text and language: %+v vs %+v", spoken[1], spoken[0])
	}

	after := f.session.State()
	if after.Status != before.Status || after.Phase != before.Phase {
		t.Errorf("Replay mutated state: %+v -> %+v", before, after)
	}
	if f.translator.callCount() != 1 {
		t.Errorf("Replay must not issue a translation request, got %d calls", f.translator.callCount())
	}
}

func TestVoiceSession_TargetLanguageForEveryCatalogEntry(t *testing.T) {
	for _, lang := range entities.Languages() {
		lang := lang
		t.Run(lang.Code, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

			if err := f.session.SelectLanguage(ctx, lang.Code); err != nil {
				t.Fatalf("SelectLanguage failed: %v", err)
			}
			if err := f.session.Toggle(ctx); err != nil {
				t.Fatalf("Toggle failed: %v", err)
			}
			if got := f.factory.last().config.TargetLanguage; got != lang.Code {
				t.Errorf("Recognizer created for %s, want %s", got, lang.Code)
			}

			f.factory.last().handler().OnResult("hello")
			state := waitForPhase(t, f.session, entities.PhaseDone)

			if call := f.translator.call(0); call.Lang != lang.Code {
				t.Errorf("Expected target_lang %s, got %s", lang.Code, call.Lang)
			}
			if state.TranslationLanguage != lang.Code {
				t.Errorf("Expected translation language %s, got %s", lang.Code, state.TranslationLanguage)
			}
		})
	}
}

func TestVoiceSession_SelectUnknownLanguage(t *testing.T) {
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

	err := f.session.SelectLanguage(context.Background(), "xx")
	if !errors.Is(err, domain.ErrUnknownLanguage) {
		t.Errorf("Expected ErrUnknownLanguage, got %v", err)
	}
	if f.session.State().TargetLanguage != "es" {
		t.Error("Unknown language must not change the target language")
	}
}

func TestVoiceSession_LanguageChangeReplacesRecognizer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

	_ = f.session.Toggle(ctx)
	oldRecognizer := f.factory.last()
	oldHandler := oldRecognizer.handler()

	if err := f.session.SelectLanguage(ctx, "fr"); err != nil {
		t.Fatalf("SelectLanguage failed: %v", err)
	}

	state := f.session.State()
	if state.Listening() {
		t.Error("Changing language should end the listening cycle")
	}
	if oldRecognizer.stopCount() != 1 {
		t.Errorf("Expected old recognizer stopped, got %d stops", oldRecognizer.stopCount())
	}

	// A late event from the superseded recognizer is ignored
	oldHandler.OnResult("stale")
	waitFor(t, "stale result to be discarded", func() bool {
		return f.logs.FilterMessage("Discarding stale recognition result").Len() > 0
	})
	if f.translator.callCount() != 0 {
		t.Error("Stale recognizer result must not be translated")
	}

	_ = f.session.Toggle(ctx)
	if f.factory.count() != 2 {
		t.Fatalf("Expected a new recognizer instance, got %d", f.factory.count())
	}
	if got := f.factory.last().config.TargetLanguage; got != "fr" {
		t.Errorf("New recognizer should be associated with fr, got %s", got)
	}
}

func TestVoiceSession_LanguageChangeDoesNotAlterInFlightTranslation(t *testing.T) {
	ctx := context.Background()
	translator := &fakeTranslator{}
	f := newFixture(t, &fakeRecognizerFactory{}, translator)

	_ = f.session.Toggle(ctx)
	f.factory.last().handler().OnResult("hello")
	waitFor(t, "translation request", func() bool { return translator.callCount() == 1 })

	if err := f.session.SelectLanguage(ctx, "fr"); err != nil {
		t.Fatalf("SelectLanguage failed: %v", err)
	}

	translator.call(0).reply <- translateReply{text: "hola"}
	state := waitForPhase(t, f.session, entities.PhaseDone)

	if state.TranslatedText != "hola" || state.TranslationLanguage != "es" {
		t.Errorf("In-flight translation altered: %q (%s)", state.TranslatedText, state.TranslationLanguage)
	}
	if state.TargetLanguage != "fr" {
		t.Errorf("Expected target language fr, got %s", state.TargetLanguage)
	}
	if spoken := f.speech.spoken(); len(spoken) != 1 || spoken[0].Lang != "es" {
		t.Errorf("Expected playback in es, got %+v", spoken)
	}
}

func TestVoiceSession_StaleTranslationIsDiscarded(t *testing.T) {
	ctx := context.Background()
	translator := &fakeTranslator{}
	f := newFixture(t, &fakeRecognizerFactory{}, translator)

	// Cycle 1: transcript obtained, translation left pending
	_ = f.session.Toggle(ctx)
	f.factory.last().handler().OnResult("first")
	waitFor(t, "first request", func() bool { return translator.callCount() == 1 })

	// Cycle 2 begins before cycle 1's response arrives
	if err := f.session.Toggle(ctx); err != nil {
		t.Fatalf("Toggle during translation failed: %v", err)
	}
	f.factory.last().handler().OnResult("second")
	waitFor(t, "second request", func() bool { return translator.callCount() == 2 })

	// Responses resolve out of order: newest first
	translator.call(1).reply <- translateReply{text: "segundo"}
	waitForPhase(t, f.session, entities.PhaseDone)

	translator.call(0).reply <- translateReply{text: "primero"}
	waitFor(t, "stale translation to be discarded", func() bool {
		return f.logs.FilterMessage("Discarding stale translation").Len() > 0
	})

	state := f.session.State()
	if state.TranslatedText != "segundo" || state.SourceTranscript != "second" {
		t.Errorf("Stale response overwrote newer state: %+v", state)
	}
	if state.Status != entities.StatusDone {
		t.Errorf("Expected status Done, got %q", state.Status)
	}

	spoken := f.speech.spoken()
	if len(spoken) != 1 || spoken[0].Text != "segundo" {
		t.Errorf("Only the current translation should be spoken, got %+v", spoken)
	}
}

func TestVoiceSession_StaleFailureIsDiscarded(t *testing.T) {
	ctx := context.Background()
	translator := &fakeTranslator{}
	f := newFixture(t, &fakeRecognizerFactory{}, translator)

	_ = f.session.Toggle(ctx)
	f.factory.last().handler().OnResult("first")
	waitFor(t, "first request", func() bool { return translator.callCount() == 1 })

	_ = f.session.Toggle(ctx)

	translator.call(0).reply <- translateReply{err: domain.ErrTranslationRequestFailed}
	waitFor(t, "stale failure to be discarded", func() bool {
		return f.logs.FilterMessage("Discarding stale translation").Len() > 0
	})

	state := f.session.State()
	if !state.Listening() || state.Status != entities.StatusListening {
		t.Errorf("Stale failure changed the new cycle: %s / %q", state.Phase, state.Status)
	}
}

func TestVoiceSession_FeedAudio(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeRecognizerFactory{}, echoTranslator(nil))

	// Ignored while idle
	f.session.FeedAudio([]byte{1})

	_ = f.session.Toggle(ctx)
	f.session.FeedAudio([]byte{2, 3})

	recognizer := f.factory.last()
	waitFor(t, "audio forwarded", func() bool {
		recognizer.mu.Lock()
		defer recognizer.mu.Unlock()
		return len(recognizer.audio) == 1
	})
}

func TestVoiceSession_CommandsAfterShutdown(t *testing.T) {
	logger := zaptest.NewLogger(t)
	session := NewVoiceSession(VoiceSessionConfig{ID: "closed"}, &fakeRecognizerFactory{}, echoTranslator(nil), &fakeSpeech{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	updates, _ := session.Subscribe()
	go session.Run(ctx)
	cancel()
	<-session.Done()

	if err := session.Toggle(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}

	if _, ok := <-updates; ok {
		t.Error("Subscriber channel should be closed on shutdown")
	}
}
