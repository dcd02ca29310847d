package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
)

var ErrEmptyQuery = errors.New("query is empty")

// Index runs the indexing phase: parse the document, embed every chunk and
// store the pairs in a fresh in-memory collection.
func Index(ctx context.Context, filePath string, embedder embeddings.Embedder, cfg *config.Config) (*chromemdb.VectorDBManager, error) {
	chunks, err := parser.ParseDocument(filePath, cfg)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	log.Info().Str("file", filePath).Int("chunks", len(chunks)).Msg("Parsed document")

	chunkEmbeddings, err := embedding.GenerateEmbedding(ctx, embedder, filepath.Base(filePath), chunks)
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}

	db, err := chromemdb.NewVectorDBManager(cfg.RAG.CollectionName, embedder.EmbedQuery)
	if err != nil {
		return nil, err
	}
	if err := db.CreateDocs(ctx, chunkEmbeddings); err != nil {
		return nil, fmt.Errorf("store embeddings: %w", err)
	}

	log.Info().Int("documents", db.Count()).Msg("Indexed document")
	return db, nil
}

type Retriever struct {
	db   *chromemdb.VectorDBManager
	topK int
}

func NewRetriever(db *chromemdb.VectorDBManager, topK int) *Retriever {
	return &Retriever{db: db, topK: topK}
}

// Retrieve returns at most topK chunks, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.Chunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	results, err := r.db.SearchWithQueryOptions(ctx, chromem.QueryOptions{
		QueryText: query,
		NResults:  r.topK,
	})
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, len(results))
	for i, res := range results {
		log.Debug().Str("id", res.ID).Float32("similarity", res.Similarity).Msg("Retrieved chunk")
		chunks[i] = chromemdb.ChunkFromResult(res)
	}
	return chunks, nil
}

// FormatDocs joins chunk contents into a single context text.
func FormatDocs(chunks []models.Chunk) string {
	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}
	return strings.Join(contents, models.ContextSeparator)
}

// NewPromptTemplate parses the fixed question-answering template.
func NewPromptTemplate() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(models.PromptTemplate, []string{"context", "question"})
}

// BuildPrompt substitutes context and question into the template.
func BuildPrompt(contextText, question string) (string, error) {
	return NewPromptTemplate().Format(map[string]any{
		"context":  contextText,
		"question": question,
	})
}

type RAG struct {
	retriever *Retriever
	prompt    prompts.PromptTemplate
	llm       llms.Model
}

func NewRAG(db *chromemdb.VectorDBManager, llm llms.Model, cfg *config.Config) *RAG {
	return &RAG{
		retriever: NewRetriever(db, cfg.RAG.TopK),
		prompt:    NewPromptTemplate(),
		llm:       llm,
	}
}

// Query runs retrieve -> format -> prompt -> generate for one question.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	chunks, err := r.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	source := FormatDocs(chunks)

	prompt, err := r.prompt.Format(map[string]any{
		"context":  source,
		"question": query,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	log.Debug().Int("chunks", len(chunks)).Int("prompt_len", len(prompt)).Msg("Rendered prompt")

	answer, err := llmservice.GenerateContent(ctx, r.llm, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return &models.PromptResponse{
		Query:   query,
		Source:  source,
		Content: answer,
	}, nil
}
