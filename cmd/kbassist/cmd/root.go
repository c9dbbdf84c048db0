// Package cmd contains the kbassist CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jggl/kb-assist/internal/adapters/openrouter"
	"github.com/jggl/kb-assist/internal/adapters/parser"
	"github.com/jggl/kb-assist/internal/adapters/store"
	"github.com/jggl/kb-assist/internal/adapters/vectordb"
	"github.com/jggl/kb-assist/internal/classifier"
	"github.com/jggl/kb-assist/internal/config"
	"github.com/jggl/kb-assist/internal/domain/usecases"
	"github.com/jggl/kb-assist/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "kbassist",
	Short:         "Knowledge-base assistant bot",
	Long:          "kbassist answers end-user questions from an admin-curated knowledge base over Telegram, refusing to answer outside its evidence and never leaking which documents it used.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// app bundles everything the commands share.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	index    *vectordb.SQLiteIndex
	store    *store.Store
	ingestor *usecases.Ingestor
	answerer *usecases.Answerer
}

// buildApp loads and validates configuration and wires the pipeline.
// Configuration failures abort here; nothing else is allowed to.
func buildApp() (*app, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, err
	}

	log := logging.Setup(cfg.LogLevel)

	index, err := vectordb.NewSQLiteIndex(cfg.VectorDBPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		index.Close()
		return nil, nil, err
	}

	rules, err := classifier.Load(cfg.ClassifierRulesPath)
	if err != nil {
		index.Close()
		db.Close()
		return nil, nil, err
	}

	chunker, err := usecases.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		index.Close()
		db.Close()
		return nil, nil, err
	}

	client := openrouter.New(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.ChatModel, cfg.EmbedModel)
	embedder := openrouter.NewCachedEmbedder(client, openrouter.DefaultCacheSize)

	ingestor := usecases.NewIngestor(parser.NewExtractor(), embedder, index, chunker, log)
	retriever := usecases.NewRetriever(embedder, index, cfg.TopK, cfg.SimilarityThreshold, log)
	answerer := usecases.NewAnswerer(rules, retriever, client, db, cfg.EnforceConfidentiality, log)

	cleanup := func() {
		if err := index.Close(); err != nil {
			log.Error("closing index", "error", err)
		}
		if err := db.Close(); err != nil {
			log.Error("closing store", "error", err)
		}
	}
	return &app{
		cfg:      cfg,
		log:      log,
		index:    index,
		store:    db,
		ingestor: ingestor,
		answerer: answerer,
	}, cleanup, nil
}
