package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDocument     = errors.New("document has no extractable text")
)

type Parser interface {
	ParseDocument(filePath string) ([]models.Chunk, error)
}

type ParserConfig struct {
	Config   *config.Config
	splitter textsplitter.TextSplitter
}

// NewParser returns a parser that splits segments larger than the configured
// chunk size. A nil config falls back to the defaults.
func NewParser(cfg *config.Config) *ParserConfig {
	if cfg == nil {
		cfg = config.Default()
	}
	return &ParserConfig{
		Config: cfg,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.RAG.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.RAG.ChunkOverlap),
		),
	}
}

// ParseDocument loads filePath and returns its segments in document order.
func ParseDocument(filePath string, cfg *config.Config) ([]models.Chunk, error) {
	return NewParser(cfg).ParseDocument(filePath)
}

func (p *ParserConfig) ParseDocument(filePath string) ([]models.Chunk, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	var (
		chunks []models.Chunk
		err    error
	)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		chunks, err = p.parsePDF(filePath)
	case ".docx":
		chunks, err = p.parseDOCX(filePath)
	case ".pptx":
		chunks, err = p.parsePPTX(filePath)
	case ".xlsx":
		chunks, err = p.parseXLSX(filePath)
	case ".xlsm", ".xltx", ".xltm":
		chunks, err = p.parseExcelize(filePath)
	case ".md", ".markdown":
		chunks, err = p.parseMarkdown(filePath)
	case ".txt":
		chunks, err = p.parseText(filePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", filePath, ErrEmptyDocument)
	}

	log.Debug().Str("file", filePath).Int("chunks", len(chunks)).Msg("Parsed document")
	return chunks, nil
}

func (p *ParserConfig) parsePDF(filePath string) ([]models.Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Get file size for reader initialization
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			log.Warn().Int("page", i).Msg("Skipping page without text")
			continue
		}

		pageChunks, err := p.getChunks(pageText, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		chunks = append(chunks, pageChunks...)
	}
	return chunks, nil
}

func (p *ParserConfig) parseText(filePath string) ([]models.Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.getChunks(string(data), defaultPageNumber)
}

const defaultPageNumber = 1

// get chunks from content and page number; content that fits the chunk size
// stays a single chunk
func (p *ParserConfig) getChunks(content string, pageNumber int) ([]models.Chunk, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	chunkStrings := []string{content}
	if len([]rune(content)) > p.Config.RAG.ChunkSize {
		var err error
		chunkStrings, err = p.splitter.SplitText(content)
		if err != nil {
			return nil, err
		}
	}

	var chunks []models.Chunk
	for _, chunkString := range chunkStrings {
		chunkString = strings.TrimSpace(chunkString)
		if chunkString == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Content:    chunkString,
			PageNumber: pageNumber,
			ChunkID:    len(chunks) + 1,
		})
	}
	return chunks, nil
}
