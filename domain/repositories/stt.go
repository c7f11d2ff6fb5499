package repositories

// RecognitionConfig describes the recognizer a session needs
type RecognitionConfig struct {
	// SourceLanguage is the spoken language, e.g. "en-US"
	SourceLanguage string `json:"source_language"`
	// TargetLanguage is the translation target the recognizer is associated with
	TargetLanguage string `json:"target_language"`
	SampleRate     int    `json:"sample_rate"`
	Encoding       string `json:"encoding"`
}

// RecognitionHandler receives the events of one recognition session
type RecognitionHandler interface {
	// OnResult delivers the single final transcript of the session
	OnResult(transcript string)
	// OnEnd is called when the session terminates for any reason
	OnEnd()
	// OnError reports a provider-defined reason code
	OnError(reason string)
}

// SpeechRecognizer is one recognition provider instance bound to a language
type SpeechRecognizer interface {
	// Start begins a recognition session; events go to handler
	Start(handler RecognitionHandler) error
	// Stop ends the active session without producing a transcript
	Stop()
}

// SpeechRecognizerFactory creates recognizer instances
type SpeechRecognizerFactory interface {
	NewRecognizer(config RecognitionConfig) (SpeechRecognizer, error)
}

// AudioInput is implemented by recognizers that consume audio pushed by the server
type AudioInput interface {
	WriteAudio(data []byte) error
}
