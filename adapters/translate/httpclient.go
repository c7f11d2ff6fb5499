package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
)

const translatePath = "/api/translate"

// Request is the body of POST /api/translate
type Request struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang,omitempty"`
}

// Response is the body of a successful POST /api/translate
type Response struct {
	TranslatedText string `json:"translated_text"`
}

// HTTPClient calls a Translation Service over HTTP
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a client for the Translation Service at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		endpoint:   strings.TrimRight(baseURL, "/") + translatePath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Translate sends one translation request. Any transport failure or non-200
// status wraps ErrTranslationRequestFailed; a body without translated_text
// wraps ErrTranslationResponseInvalid.
func (c *HTTPClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	body, err := json.Marshal(Request{Text: text, TargetLang: targetLang})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("Translation service returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(msg)))
		return "", fmt.Errorf("%w: status %d", domain.ErrTranslationRequestFailed, resp.StatusCode)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationResponseInvalid, err)
	}
	if strings.TrimSpace(result.TranslatedText) == "" {
		return "", fmt.Errorf("%w: missing translated_text", domain.ErrTranslationResponseInvalid)
	}

	return result.TranslatedText, nil
}
