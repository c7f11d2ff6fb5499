package repositories

import "context"

// Translator converts text into the target language. The source language is
// detected by the implementation.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// NamedTranslator is a translation backend that reports its provider name
type NamedTranslator interface {
	Translator
	Name() string
}
