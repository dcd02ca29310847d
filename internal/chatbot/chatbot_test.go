package chatbot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
	"pdf-rag/internal/testutil"
)

const foxPDF = "../parser/testdata/the_curious_fox.pdf"

func testConfig(path string) *config.Config {
	cfg := config.Default()
	cfg.Document.Path = path
	return cfg
}

type staticQuerier struct {
	answers map[string]string
	asked   []string
}

func (q *staticQuerier) Query(_ context.Context, query string) (*models.PromptResponse, error) {
	q.asked = append(q.asked, query)
	answer, ok := q.answers[query]
	if !ok {
		return nil, errors.New("no answer for " + query)
	}
	return &models.PromptResponse{Query: query, Content: answer}, nil
}

func TestExecuteAnswersUntilEndOfInput(t *testing.T) {
	llm := &testutil.FakeLLM{Answer: "In the forest."}
	clients := Clients{Embedder: &testutil.KeywordEmbedder{}, LLM: llm}
	in := strings.NewReader("Where does the fox live?\n\n  What about the owl?")
	var out bytes.Buffer

	code := Execute(context.Background(), testConfig(foxPDF), clients, in, &out)
	require.Equal(t, 0, code)

	p := models.QuestionPrompt
	a := "\nIn the forest.\n\n"
	assert.Equal(t, p+a+p+p+a+p, out.String())

	require.Len(t, llm.Prompts, 2)
	assert.Contains(t, llm.Prompts[0], "Question: Where does the fox live?")
	assert.Contains(t, llm.Prompts[0], "Fox lives in the forest.")
	assert.Contains(t, llm.Prompts[1], "Question: What about the owl?")
}

func TestExecuteMissingDocumentNeverPrompts(t *testing.T) {
	llm := &testutil.FakeLLM{Answer: "unused"}
	embedder := &testutil.KeywordEmbedder{}
	var out bytes.Buffer

	code := Execute(context.Background(), testConfig("no/such/file.pdf"), Clients{Embedder: embedder, LLM: llm},
		strings.NewReader("Where does the fox live?\n"), &out)

	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out.String(), "Error processing: "), out.String())
	assert.NotContains(t, out.String(), models.QuestionPrompt)
	assert.Zero(t, embedder.Calls)
	assert.Empty(t, llm.Prompts)
}

func TestExecuteGenerationFailureEndsSession(t *testing.T) {
	llm := &testutil.FakeLLM{Err: testutil.ErrModelDown}
	clients := Clients{Embedder: &testutil.KeywordEmbedder{}, LLM: llm}
	in := strings.NewReader("Where does the fox live?\nWhere is the river?\n")
	var out bytes.Buffer

	code := Execute(context.Background(), testConfig(foxPDF), clients, in, &out)

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(out.String(), models.QuestionPrompt))
	assert.True(t, strings.HasSuffix(out.String(), "Error processing: generate: model unavailable\n"), out.String())
	assert.Len(t, llm.Prompts, 1)
}

func TestExecuteEmbeddingServiceDown(t *testing.T) {
	llm := &testutil.FakeLLM{Answer: "unused"}
	clients := Clients{Embedder: &testutil.KeywordEmbedder{Err: testutil.ErrModelDown}, LLM: llm}
	var out bytes.Buffer

	code := Execute(context.Background(), testConfig(foxPDF), clients, strings.NewReader("q\n"), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "model unavailable")
	assert.NotContains(t, out.String(), models.QuestionPrompt)
}

func TestSessionStopsAtFirstError(t *testing.T) {
	q := &staticQuerier{answers: map[string]string{"first": "one"}}
	var out bytes.Buffer

	err := NewSession(q, strings.NewReader("first\nsecond\nthird\n"), &out).Run(context.Background())

	assert.EqualError(t, err, "no answer for second")
	assert.Equal(t, []string{"first", "second"}, q.asked)
	assert.Equal(t, models.QuestionPrompt+"\none\n\n"+models.QuestionPrompt, out.String())
}

func TestSessionEmptyInput(t *testing.T) {
	q := &staticQuerier{}
	var out bytes.Buffer

	err := NewSession(q, strings.NewReader(""), &out).Run(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, q.asked)
	assert.Equal(t, models.QuestionPrompt, out.String())
}

func TestSessionReadError(t *testing.T) {
	q := &staticQuerier{}
	var out bytes.Buffer

	err := NewSession(q, iotest.ErrReader(errors.New("tty gone")), &out).Run(context.Background())

	assert.ErrorContains(t, err, "tty gone")
	assert.Empty(t, q.asked)
}

func TestSessionCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := &staticQuerier{}
	var out bytes.Buffer
	err := NewSession(q, pr, &out).Run(ctx)

	assert.NoError(t, err)
	assert.Empty(t, q.asked)
}

func TestReport(t *testing.T) {
	var out bytes.Buffer

	assert.Equal(t, 0, Report(&out, nil))
	assert.Empty(t, out.String())

	assert.Equal(t, 1, Report(&out, errors.New("init ollama embedding model: bad url")))
	assert.Equal(t, "Error processing: init ollama embedding model: bad url\n", out.String())
}

func TestNewOllamaClients(t *testing.T) {
	clients, err := NewOllamaClients(config.Default())
	require.NoError(t, err)

	assert.NotNil(t, clients.Embedder)
	assert.NotNil(t, clients.LLM)
}
