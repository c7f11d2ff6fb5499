package entities

import (
	"errors"
	"time"
)

// TranslationRecord is one translation served by the translation endpoint
type TranslationRecord struct {
	ID             string    `json:"id" bson:"_id"`
	SourceText     string    `json:"source_text" bson:"source_text"`
	TranslatedText string    `json:"translated_text" bson:"translated_text"`
	TargetLanguage string    `json:"target_language" bson:"target_language"`
	Provider       string    `json:"provider" bson:"provider"`
	DurationMs     int64     `json:"duration_ms" bson:"duration_ms"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// Validate validates the record before it is stored
func (r *TranslationRecord) Validate() error {
	if r.SourceText == "" {
		return errors.New("source_text is required")
	}
	if r.TranslatedText == "" {
		return errors.New("translated_text is required")
	}
	if r.TargetLanguage == "" {
		return errors.New("target_language is required")
	}
	return nil
}
