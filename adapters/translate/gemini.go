package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/rishithkoduri/web-translator/domain"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	geminiAttempts     = 3
)

// GeminiTranslator translates text with Google's Gemini API
type GeminiTranslator struct {
	client      *genai.Client
	logger      *zap.Logger
	model       string
	temperature float32
}

// NewGeminiTranslator creates a Gemini-backed translator
func NewGeminiTranslator(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default model", zap.String("model", model))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTranslator{
		client:      client,
		logger:      logger,
		model:       model,
		temperature: 0.2,
	}, nil
}

// Name returns the backend name recorded in translation history
func (g *GeminiTranslator) Name() string {
	return "gemini"
}

// Translate translates text into targetLang, detecting the source language
func (g *GeminiTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt(text, targetLang), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	}

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < geminiAttempts; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}

		g.logger.Warn("Failed to generate translation, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < geminiAttempts-1 {
			select {
			case <-time.After(time.Duration(attempt+1) * time.Second):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrTranslationRequestFailed, ctx.Err())
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationRequestFailed, err)
	}

	translated := strings.TrimSpace(responseText(response))
	if translated == "" {
		return "", fmt.Errorf("%w: empty Gemini response", domain.ErrTranslationResponseInvalid)
	}

	g.logger.Debug("Gemini translation completed",
		zap.String("targetLang", targetLang),
		zap.Int("length", len(translated)))
	return translated, nil
}

func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
