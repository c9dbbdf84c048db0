package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from the docs directory",
	Long:  "Rebuilds the entire vector index from every supported document under DOCS_DIR. The swap is atomic: a concurrently running bot keeps answering from the old index until the new one is committed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReindex()
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex() error {
	app, cleanup, err := buildApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := app.ingestor.ReindexAll(ctx, app.cfg.DocsDir)
	if err != nil {
		return err
	}

	fmt.Printf("Reindex complete: %d files, %d chunks, %d failed\n",
		stats.TotalFiles, stats.TotalChunks, stats.FailedFiles)
	return nil
}
