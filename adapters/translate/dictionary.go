package translate

import (
	"context"
	"strings"
	"time"
)

// DictionaryTranslator returns deterministic translations from a fixed table.
// Unknown text is returned prefixed with the target language code.
type DictionaryTranslator struct {
	delay      time.Duration
	dictionary map[string]map[string]string // [targetLang][sourceText]translatedText
}

// DefaultDictionary is a small phrase table for local development
func DefaultDictionary() map[string]map[string]string {
	return map[string]map[string]string{
		"es": {"hello": "hola", "thank you": "gracias", "good morning": "buenos días"},
		"fr": {"hello": "bonjour", "thank you": "merci", "good morning": "bonjour"},
		"de": {"hello": "hallo", "thank you": "danke", "good morning": "guten Morgen"},
		"ja": {"hello": "こんにちは", "thank you": "ありがとう"},
		"hi": {"hello": "नमस्ते", "thank you": "धन्यवाद"},
		"kn": {"hello": "ನಮಸ್ಕಾರ", "thank you": "ಧನ್ಯವಾದಗಳು"},
		"ta": {"hello": "வணக்கம்", "thank you": "நன்றி"},
		"te": {"hello": "నమస్కారం", "thank you": "ధన్యవాదాలు"},
	}
}

// NewDictionaryTranslator creates a dictionary translator; a nil table uses DefaultDictionary
func NewDictionaryTranslator(dictionary map[string]map[string]string, delay time.Duration) *DictionaryTranslator {
	if dictionary == nil {
		dictionary = DefaultDictionary()
	}
	return &DictionaryTranslator{delay: delay, dictionary: dictionary}
}

// Name returns the backend name recorded in translation history
func (d *DictionaryTranslator) Name() string {
	return "dictionary"
}

// Translate looks up text case-insensitively
func (d *DictionaryTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	key := strings.ToLower(strings.TrimSpace(text))
	if table, ok := d.dictionary[targetLang]; ok {
		if translated, ok := table[key]; ok {
			return translated, nil
		}
	}
	return "[" + targetLang + "] " + text, nil
}
