package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedHost is returned when no speech recognition capability is available
	ErrUnsupportedHost = errors.New("speech recognition is not supported on this host")

	// ErrTranslationRequestFailed covers transport failures and non-OK responses
	ErrTranslationRequestFailed = errors.New("translation request failed")

	// ErrTranslationResponseInvalid is returned when a response lacks translated_text
	ErrTranslationResponseInvalid = errors.New("translation response invalid")

	// ErrUnknownLanguage is returned for codes outside the language catalog
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrEmptyText is returned when there is nothing to translate or speak
	ErrEmptyText = errors.New("text cannot be empty")
)

// RecognitionError carries the reason code reported by a recognition provider,
// e.g. "no-speech", "audio-capture" or "not-allowed".
type RecognitionError struct {
	Reason string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error: %s", e.Reason)
}

// IsTranslationFailure reports whether err is one of the translation failures
// that end a cycle with the "Translation failed" status.
func IsTranslationFailure(err error) bool {
	return errors.Is(err, ErrTranslationRequestFailed) || errors.Is(err, ErrTranslationResponseInvalid)
}
