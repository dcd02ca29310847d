package llmservice

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

var thinkRe = regexp.MustCompile(models.ThinkTag)

// NewOllamaLLM creates the client for the local text-generation model.
func NewOllamaLLM(llmConfig *config.LLMConfig) (*ollama.LLM, error) {
	log.Debug().Interface("llmConfig", llmConfig).Msg("Creating generation model")
	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init ollama generation model: %w", err)
	}
	return llm, nil
}

// call llm and wait for the complete answer
func GenerateContent(ctx context.Context, llm llms.Model, prompt string) (string, error) {
	res, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt)
	if err != nil {
		return "", err
	}
	return CleanAnswer(res), nil
}

// CleanAnswer drops <think> blocks emitted by reasoning models and trims the text.
func CleanAnswer(answer string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(answer, ""))
}
