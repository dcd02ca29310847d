package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/config"
)

const foxPDF = "testdata/the_curious_fox.pdf"

func TestParsePDFOneChunkPerPage(t *testing.T) {
	chunks, err := ParseDocument(foxPDF, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, chunk := range chunks {
		assert.Equal(t, i+1, chunk.PageNumber)
		assert.Equal(t, 1, chunk.ChunkID)
		assert.NotEmpty(t, strings.TrimSpace(chunk.Content))
	}
	assert.Contains(t, chunks[0].Content, "Fox lives in the forest.")
	assert.Contains(t, chunks[1].Content, "river")
	assert.Contains(t, chunks[2].Content, "winter")
}

func TestParsePDFIsDeterministic(t *testing.T) {
	first, err := ParseDocument(foxPDF, nil)
	require.NoError(t, err)
	second, err := ParseDocument(foxPDF, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParsePDFSkipsBlankPages(t *testing.T) {
	chunks, err := ParseDocument("testdata/blank_page.pdf", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 3, chunks[1].PageNumber)
}

func TestParsePDFSplitsLongPages(t *testing.T) {
	cfg := config.Default()
	cfg.RAG.ChunkSize = 40
	cfg.RAG.ChunkOverlap = 0

	chunks, err := ParseDocument(foxPDF, cfg)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 3)

	pages := map[int]int{}
	for _, chunk := range chunks {
		pages[chunk.PageNumber]++
		assert.Equal(t, pages[chunk.PageNumber], chunk.ChunkID)
		assert.LessOrEqual(t, len([]rune(chunk.Content)), 40)
	}
	assert.Len(t, pages, 3)
}

func TestParseDocumentMissingFile(t *testing.T) {
	_, err := ParseDocument("testdata/does_not_exist.pdf", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseDocumentMalformedPDF(t *testing.T) {
	_, err := ParseDocument("testdata/not_a_pdf.pdf", nil)
	assert.Error(t, err)
}

func TestParseDocumentUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.odt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := ParseDocument(path, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fox.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  Fox lives in the forest.\n\n"), 0o644))

	chunks, err := ParseDocument(path, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Fox lives in the forest.", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].PageNumber)
}

func TestParseEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))

	_, err := ParseDocument(path, nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParseMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fox.md")
	md := "# The Curious Fox\n\nFox lives in the **forest**.\n\n- owl\n- river\n"
	require.NoError(t, os.WriteFile(path, []byte(md), 0o644))

	chunks, err := ParseDocument(path, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	content := chunks[0].Content
	assert.Contains(t, content, "The Curious Fox")
	assert.Contains(t, content, "Fox lives in the forest.")
	assert.Contains(t, content, "owl")
	assert.NotContains(t, content, "**")
	assert.NotContains(t, content, "#")
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<w:p><w:r><w:t>Fox lives</w:t></w:r><w:tab/><w:r><w:t xml:space="preserve"> in the forest.</w:t></w:r><w:t/></w:p>`
	assert.Equal(t, "Fox lives in the forest.", extractTextFromXML(xml, "w:t", ""))

	slide := `<a:p><a:r><a:t>Owl</a:t></a:r><a:r><a:t>River</a:t></a:r></a:p>`
	assert.Equal(t, "Owl River ", extractTextFromXML(slide, "a:t", " "))
}
