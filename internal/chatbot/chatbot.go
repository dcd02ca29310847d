package chatbot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
	"pdf-rag/internal/rag"
)

// Querier answers a single question.
type Querier interface {
	Query(ctx context.Context, query string) (*models.PromptResponse, error)
}

// Clients are the two model endpoints the pipeline talks to.
type Clients struct {
	Embedder embeddings.Embedder
	LLM      llms.Model
}

type Session struct {
	querier Querier
	in      io.Reader
	out     io.Writer
	logger  zerolog.Logger
}

func NewSession(querier Querier, in io.Reader, out io.Writer) *Session {
	id, err := helper.GenerateUUID()
	if err != nil {
		id = "unknown"
	}
	return &Session{
		querier: querier,
		in:      in,
		out:     out,
		logger:  log.With().Str("session", id).Logger(),
	}
}

type line struct {
	text string
	err  error
}

// readLines feeds one line per receive until the input ends or done closes.
func readLines(in io.Reader, done <-chan struct{}) <-chan line {
	lines := make(chan line)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				err = nil
			}
			select {
			case lines <- line{text: strings.TrimRight(text, "\r\n"), err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

// Run asks for questions until the input ends or ctx is cancelled. The first
// failed question ends the session and its error is returned.
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(s.in, done)

	for {
		if _, err := io.WriteString(s.out, models.QuestionPrompt); err != nil {
			return err
		}

		var question string
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Session interrupted")
			return nil
		case l, ok := <-lines:
			if !ok || errors.Is(l.err, io.EOF) {
				s.logger.Info().Msg("End of input")
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("read question: %w", l.err)
			}
			question = strings.TrimSpace(l.text)
		}

		if question == "" {
			continue
		}

		s.logger.Debug().Str("question", question).Msg("Answering")
		response, err := s.querier.Query(ctx, question)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(s.out, "\n%s\n\n", response.Content); err != nil {
			return err
		}
	}
}

// NewOllamaClients builds clients for both models served by the local Ollama process.
func NewOllamaClients(cfg *config.Config) (Clients, error) {
	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return Clients{}, err
	}
	llm, err := llmservice.NewOllamaLLM(&cfg.InferenceLLM)
	if err != nil {
		return Clients{}, err
	}
	return Clients{Embedder: embedder, LLM: llm}, nil
}

// Report prints err the way every fatal error is shown to the user and
// returns the process exit code.
func Report(out io.Writer, err error) int {
	if err == nil {
		return 0
	}
	log.Error().Err(err).Msg("Chatbot stopped")
	fmt.Fprintf(out, "Error processing: %v\n", err)
	return 1
}

// Execute indexes the configured document and runs one interactive session.
// Any error ends the program: it is printed to out and 1 is returned.
func Execute(ctx context.Context, cfg *config.Config, clients Clients, in io.Reader, out io.Writer) int {
	return Report(out, run(ctx, cfg, clients, in, out))
}

func run(ctx context.Context, cfg *config.Config, clients Clients, in io.Reader, out io.Writer) error {
	db, err := rag.Index(ctx, cfg.Document.Path, clients.Embedder, cfg)
	if err != nil {
		return err
	}
	return NewSession(rag.NewRAG(db, clients.LLM, cfg), in, out).Run(ctx)
}
