package repositories

// SpeechOutput plays text aloud. At most one utterance is audible at a time:
// Speak cancels whatever is currently playing before starting.
type SpeechOutput interface {
	Speak(text, languageTag string) error
	Cancel()
}

// AudioSink receives synthesized audio and playback markers for one client
type AudioSink interface {
	SendEvent(eventType string, payload map[string]interface{}) error
	SendAudio(data []byte) error
}
