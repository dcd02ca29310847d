package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultDocumentPath   = "./data/the_curious_fox.pdf"
	defaultOllamaURL      = "http://localhost:11434"
	defaultEmbeddingModel = "znbang/bge:small-en-v1.5-f32"
	defaultInferenceModel = "llama3"
	defaultTopK           = 4
	defaultChunkSize      = 4000 // runes
	defaultChunkOverlap   = 200  // runes
	defaultCollection     = "document"
	defaultLogLevel       = "info"
)

type Config struct {
	Document     DocumentConfig `yaml:"document"`
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm"`
	RAG          RAGConfig      `yaml:"rag"`
	Log          LogConfig      `yaml:"log"`
}

type DocumentConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig points at a model served by a local Ollama process.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type RAGConfig struct {
	TopK           int    `yaml:"top_k"`
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	CollectionName string `yaml:"collection_name"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Document: DocumentConfig{Path: defaultDocumentPath},
		EmbedLLM: LLMConfig{
			BaseURL: defaultOllamaURL,
			Model:   defaultEmbeddingModel,
		},
		InferenceLLM: LLMConfig{
			BaseURL: defaultOllamaURL,
			Model:   defaultInferenceModel,
		},
		RAG: RAGConfig{
			TopK:           defaultTopK,
			ChunkSize:      defaultChunkSize,
			ChunkOverlap:   defaultChunkOverlap,
			CollectionName: defaultCollection,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.EmbedLLM.BaseURL = v
		cfg.InferenceLLM.BaseURL = v
	}
	if v := os.Getenv("PDFRAG_EMBED_MODEL"); v != "" {
		cfg.EmbedLLM.Model = v
	}
	if v := os.Getenv("PDFRAG_INFERENCE_MODEL"); v != "" {
		cfg.InferenceLLM.Model = v
	}
	if v := os.Getenv("PDFRAG_DOCUMENT"); v != "" {
		cfg.Document.Path = v
	}
	if v := os.Getenv("PDFRAG_TOP_K"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PDFRAG_TOP_K: %w", err)
		}
		cfg.RAG.TopK = k
	}
	if v := os.Getenv("PDFRAG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// fill in zero values left by a partial config file
func applyDefaults(cfg *Config) {
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = defaultOllamaURL
	}
	if cfg.InferenceLLM.BaseURL == "" {
		cfg.InferenceLLM.BaseURL = defaultOllamaURL
	}
	if cfg.RAG.CollectionName == "" {
		cfg.RAG.CollectionName = defaultCollection
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

func (c *Config) Validate() error {
	if c.Document.Path == "" {
		return errors.New("document path is required")
	}
	if c.EmbedLLM.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.InferenceLLM.Model == "" {
		return errors.New("inference model is required")
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.RAG.ChunkOverlap)
	}
	return nil
}
