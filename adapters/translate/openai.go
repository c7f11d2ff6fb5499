package translate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
)

// OpenAITranslator translates text with the OpenAI chat completion API
type OpenAITranslator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAITranslator creates a translator against the public OpenAI API
func NewOpenAITranslator(apiKey, model string, logger *zap.Logger) (*OpenAITranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return NewOpenAITranslatorWithConfig(openai.DefaultConfig(apiKey), model, logger), nil
}

// NewOpenAITranslatorWithConfig creates a translator with a custom client config,
// e.g. a different base URL
func NewOpenAITranslatorWithConfig(config openai.ClientConfig, model string, logger *zap.Logger) *OpenAITranslator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

// Name returns the backend name recorded in translation history
func (o *OpenAITranslator) Name() string {
	return "openai"
}

// Translate translates text into targetLang, detecting the source language
func (o *OpenAITranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text, targetLang)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationRequestFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrTranslationResponseInvalid)
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrTranslationResponseInvalid)
	}

	o.logger.Debug("OpenAI translation completed",
		zap.String("targetLang", targetLang),
		zap.String("model", o.model))
	return translated, nil
}
