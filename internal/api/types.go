package api

import (
	"time"

	"github.com/rishithkoduri/web-translator/domain/entities"
)

// TranslateRequest is the payload of POST /api/translate
type TranslateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse is the successful response of POST /api/translate
type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// TokenRequest is the optional payload of POST /api/v1/session/token
type TokenRequest struct {
	ClientID string `json:"client_id"`
}

// TokenResponse represents the response payload for session token issuance
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// LanguagesResponse lists the language catalog by category
type LanguagesResponse struct {
	Default string                   `json:"default"`
	Groups  []entities.LanguageGroup `json:"groups"`
}

// TranslationsResponse lists recent translation history
type TranslationsResponse struct {
	Translations []*entities.TranslationRecord `json:"translations"`
	Count        int                           `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
