package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/chatbot"
	"pdf-rag/internal/config"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/parser"
)

const defaultConfigFilePath = "./configs/config.yaml"

func main() {
	configFilePath := flag.String("config", defaultConfigFilePath, "Path to the YAML config file")
	filePath := flag.String("file", "", "Path to the document file (overrides config)")
	topK := flag.Int("k", 0, "Number of chunks retrieved per question (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	dryRun := flag.Bool("dry-run", false, "Parse the document, print its chunks and exit without calling any model")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	cfg, err := config.LoadConfig(*configFilePath)
	if err != nil {
		os.Exit(chatbot.Report(os.Stdout, err))
	}
	if *filePath != "" {
		cfg.Document.Path = *filePath
	}
	if *topK > 0 {
		cfg.RAG.TopK = *topK
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	if *dryRun {
		os.Exit(printChunks(cfg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := chatbot.NewOllamaClients(cfg)
	if err != nil {
		stop()
		os.Exit(chatbot.Report(os.Stdout, err))
	}

	code := chatbot.Execute(ctx, cfg, clients, os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

func printChunks(cfg *config.Config) int {
	chunks, err := parser.ParseDocument(cfg.Document.Path, cfg)
	if err != nil {
		return chatbot.Report(os.Stdout, err)
	}
	return chatbot.Report(os.Stdout, helper.PrettyPrint(os.Stdout, chunks))
}
