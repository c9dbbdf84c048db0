package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jggl/kb-assist/internal/adapters/filewatcher"
	"github.com/jggl/kb-assist/internal/domain/ports"
	"github.com/jggl/kb-assist/internal/telegram"
	"github.com/jggl/kb-assist/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, docs watcher and ops server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	app, cleanup, err := buildApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := telegram.New(app.cfg, app.store, app.store, app.answerer, app.ingestor, app.log)
	if err != nil {
		return err
	}

	watcher, err := filewatcher.New(nil, app.log)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, app.cfg.DocsDir)
	if err != nil {
		return err
	}

	ops := web.New(app.index, app.cfg.OpsAddr, app.log)

	app.log.Info("starting",
		"chat_model", app.cfg.ChatModel,
		"embed_model", app.cfg.EmbedModel,
		"docs_dir", app.cfg.DocsDir,
		"top_k", app.cfg.TopK,
		"threshold", app.cfg.SimilarityThreshold)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	g.Go(func() error { return ops.Start(ctx) })
	g.Go(func() error {
		watchDocs(ctx, app, events)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchDocs ingests files dropped into the docs directory while the
// bot is running. Deletions are ignored; removing a document from the
// index requires a full reindex.
func watchDocs(ctx context.Context, app *app, events <-chan ports.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Operation == ports.FileDeleted {
				continue
			}
			if _, err := app.ingestor.IngestFile(ctx, event.Path); err != nil {
				app.log.Error("watched file ingest failed", "path", event.Path, "error", err)
			}
		}
	}
}
