package entities

import (
	"errors"
	"time"
)

// Phase is the explicit state of a voice session cycle
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseListening   Phase = "listening"
	PhaseTranslating Phase = "translating"
	PhaseDone        Phase = "done"
	PhaseError       Phase = "error"
)

// ErrorKind tells which step ended a cycle in PhaseError
type ErrorKind string

const (
	ErrorKindNone            ErrorKind = ""
	ErrorKindUnsupportedHost ErrorKind = "unsupported_host"
	ErrorKindRecognition     ErrorKind = "recognition"
	ErrorKindTranslation     ErrorKind = "translation"
)

// Status lines shown to the user
const (
	StatusReady             = "Ready"
	StatusListening         = "Listening..."
	StatusTranslating       = "Translating..."
	StatusDone              = "Done"
	StatusTranslationFailed = "Translation failed"
	StatusUnsupported       = "Browser not supported. Use Chrome or Edge."
	statusErrorPrefix       = "Error: "
)

// SessionState is the single mutable record describing the current
// voice-interaction cycle. It is owned by one controller and never persisted.
type SessionState struct {
	Phase               Phase     `json:"phase"`
	ErrorKind           ErrorKind `json:"error_kind,omitempty"`
	Status              string    `json:"status"`
	SourceTranscript    string    `json:"source_transcript"`
	TranslatedText      string    `json:"translated_text"`
	TranslationLanguage string    `json:"translation_language,omitempty"`
	TargetLanguage      string    `json:"target_language"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewSessionState creates the initial state for a session
func NewSessionState(targetLanguage string) SessionState {
	if targetLanguage == "" {
		targetLanguage = DefaultLanguage
	}
	return SessionState{
		Phase:          PhaseIdle,
		Status:         StatusReady,
		TargetLanguage: targetLanguage,
		UpdatedAt:      time.Now(),
	}
}

// Listening reports whether recognition is active
func (s SessionState) Listening() bool {
	return s.Phase == PhaseListening
}

// Unsupported reports whether the host lacks recognition entirely
func (s SessionState) Unsupported() bool {
	return s.Phase == PhaseError && s.ErrorKind == ErrorKindUnsupportedHost
}

// MarkUnsupported disables the session for hosts without recognition
func (s *SessionState) MarkUnsupported() {
	s.Phase = PhaseError
	s.ErrorKind = ErrorKindUnsupportedHost
	s.Status = StatusUnsupported
	s.touch()
}

// BeginListening starts a new cycle, discarding the previous cycle's text
func (s *SessionState) BeginListening() error {
	if s.Unsupported() {
		return errors.New("cannot listen on an unsupported host")
	}
	if s.Phase == PhaseListening {
		return errors.New("already listening")
	}
	s.Phase = PhaseListening
	s.ErrorKind = ErrorKindNone
	s.Status = StatusListening
	s.SourceTranscript = ""
	s.TranslatedText = ""
	s.TranslationLanguage = ""
	s.touch()
	return nil
}

// CancelListening returns to idle without producing a transcript
func (s *SessionState) CancelListening() {
	if s.Phase != PhaseListening {
		return
	}
	s.Phase = PhaseIdle
	s.Status = StatusReady
	s.touch()
}

// AcceptTranscript records the final utterance and moves to translating
func (s *SessionState) AcceptTranscript(transcript string) error {
	if s.Phase != PhaseListening {
		return errors.New("transcript received while not listening")
	}
	s.Phase = PhaseTranslating
	s.SourceTranscript = transcript
	s.Status = StatusTranslating
	s.touch()
	return nil
}

// FailRecognition ends the listening cycle with the provider's reason
func (s *SessionState) FailRecognition(reason string) {
	s.Phase = PhaseError
	s.ErrorKind = ErrorKindRecognition
	s.Status = statusErrorPrefix + reason
	s.touch()
}

// CompleteTranslation stores a successful translation
func (s *SessionState) CompleteTranslation(translated, language string) error {
	if s.Phase != PhaseTranslating {
		return errors.New("translation completed while not translating")
	}
	s.Phase = PhaseDone
	s.TranslatedText = translated
	s.TranslationLanguage = language
	s.Status = StatusDone
	s.touch()
	return nil
}

// FailTranslation ends the cycle after a failed translation request
func (s *SessionState) FailTranslation() {
	s.Phase = PhaseError
	s.ErrorKind = ErrorKindTranslation
	s.Status = StatusTranslationFailed
	s.touch()
}

// SetTargetLanguage changes the target language; the phase is left untouched
func (s *SessionState) SetTargetLanguage(code string) {
	s.TargetLanguage = code
	s.touch()
}

// CanReplay reports whether there is a translation available for playback
func (s SessionState) CanReplay() bool {
	return s.TranslatedText != ""
}

func (s *SessionState) touch() {
	s.UpdatedAt = time.Now()
}

// Validate validates the session state
func (s *SessionState) Validate() error {
	switch s.Phase {
	case PhaseIdle, PhaseListening, PhaseTranslating, PhaseDone, PhaseError:
	default:
		return errors.New("invalid session phase")
	}
	if s.Phase == PhaseError && s.ErrorKind == ErrorKindNone {
		return errors.New("error phase requires an error kind")
	}
	if s.Phase != PhaseError && s.ErrorKind != ErrorKindNone {
		return errors.New("error kind set outside error phase")
	}
	if !IsSupportedLanguage(s.TargetLanguage) {
		return errors.New("target_language is not in the catalog")
	}
	return nil
}
