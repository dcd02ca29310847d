// Package testutil holds deterministic stand-ins for the Ollama models.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

var Keywords = []string{"fox", "forest", "river", "owl", "sea", "winter", "den", "tree"}

// KeywordEmbedder maps text to keyword counts plus a constant bias dimension,
// so similar wording produces similar vectors and no vector is ever zero.
type KeywordEmbedder struct {
	Err error

	mu    sync.Mutex
	Calls int
}

func (e *KeywordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *KeywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.Calls++
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}
	lower := strings.ToLower(text)
	v := make([]float32, len(Keywords)+1)
	for i, kw := range Keywords {
		v[i] = float32(strings.Count(lower, kw))
	}
	v[len(Keywords)] = 0.1
	return v, nil
}

var ErrModelDown = errors.New("model unavailable")

// FakeLLM answers every prompt with Answer and records what it was sent.
type FakeLLM struct {
	Answer string
	Err    error

	mu      sync.Mutex
	Prompts []string
}

func (m *FakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				prompt.WriteString(tc.Text)
			}
		}
	}

	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt.String())
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.Answer}},
	}, nil
}

func (m *FakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
