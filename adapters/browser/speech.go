package browser

import (
	"strings"

	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/repositories"
)

// SpeechOutput speaks through the browser's speech synthesis. The browser
// cancels any utterance in progress on every speak command and picks a voice
// whose language starts with lang.
type SpeechOutput struct {
	sink repositories.AudioSink
}

// NewSpeechOutput creates a browser speech output
func NewSpeechOutput(sink repositories.AudioSink) *SpeechOutput {
	return &SpeechOutput{sink: sink}
}

// Speak implements repositories.SpeechOutput
func (s *SpeechOutput) Speak(text, languageTag string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyText
	}
	return s.sink.SendEvent(EventSpeak, map[string]interface{}{
		"text": text,
		"lang": languageTag,
	})
}

// Cancel implements repositories.SpeechOutput
func (s *SpeechOutput) Cancel() {
	_ = s.sink.SendEvent(EventSpeakCancel, nil)
}
