package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mellowtone/tunescout/internal/profile"
	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/server/chat"
	"github.com/mellowtone/tunescout/server/constraint"
	"github.com/mellowtone/tunescout/server/download"
	"github.com/mellowtone/tunescout/server/intent"
	"github.com/mellowtone/tunescout/server/playlist"
	"github.com/mellowtone/tunescout/server/retrieval"
	"github.com/mellowtone/tunescout/server/router/apiv1"
	"github.com/mellowtone/tunescout/server/session"
	"github.com/mellowtone/tunescout/server/song"
	"github.com/mellowtone/tunescout/store"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "tunescout",
	Short: "Conversational music recommendation engine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := loadProfile()
		if err := p.Validate(); err != nil {
			return err
		}
		return serve(cmd.Context(), p)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `server mode, "dev" or "prod"`)
	flags.String("addr", "", "binding address")
	flags.Int("port", 8230, "binding port")
	flags.String("dataset", "data/songs.json", "path to the song corpus")
	flags.String("download-dir", "downloads", "directory for downloaded audio")
	flags.String("index-driver", "memory", `vector index backend, "memory" or "postgres"`)
	flags.String("dsn", "", "postgres connection string for the pgvector index")

	for _, name := range []string{"mode", "addr", "port", "dataset", "download-dir", "index-driver", "dsn"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("tunescout")
	viper.AutomaticEnv()
}

func loadProfile() *profile.Profile {
	p := profile.Default()
	p.Mode = viper.GetString("mode")
	p.Addr = viper.GetString("addr")
	p.Port = viper.GetInt("port")
	p.DatasetPath = viper.GetString("dataset")
	p.DownloadDir = viper.GetString("download-dir")
	p.IndexDriver = viper.GetString("index-driver")
	p.DSN = viper.GetString("dsn")
	p.Version = version
	p.FromEnv()
	return p
}

func serve(ctx context.Context, p *profile.Profile) error {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := ai.NewConfigFromProfile(p)
	llm, err := ai.NewLLMService(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("create LLM service: %w", err)
	}
	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return fmt.Errorf("create embedding service: %w", err)
	}

	index, cleanupIndex, err := buildIndex(ctx, p, embedder, logger)
	if err != nil {
		return err
	}
	defer cleanupIndex()

	engine := retrieval.NewEngine(index, retrieval.Options{
		UseMMR: true,
		Logger: logger,
	})
	ops := playlist.NewEngine(playlist.RecommenderFunc(
		func(ctx context.Context, query string, topK int) ([]song.Record, error) {
			return engine.Recommend(ctx, query, topK, nil)
		}), logger)

	sessions := session.NewStore()
	if p.SessionRetentionHours > 0 {
		job := session.NewCleanupJob(sessions, session.CleanupConfig{
			Retention: time.Duration(p.SessionRetentionHours) * time.Hour,
		}, logger)
		job.Start(ctx)
		defer job.Stop()
	}

	svc := chat.NewService(chat.Options{
		Classifier: intent.NewClassifier(llm, logger),
		Extractor:  constraint.NewExtractor(llm, logger),
		Retriever:  engine,
		Ops:        ops,
		Sessions:   sessions,
		Downloader: download.NewYTDLPDownloader(p.DownloadDir, logger),
		LLM:        llm,
		Logger:     logger,
	})

	e := echo.New()
	e.HideBanner = true
	apiv1.NewHandler(svc, logger).Register(e)

	addr := fmt.Sprintf("%s:%d", p.Addr, p.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("tunescout listening", "addr", addr, "mode", p.Mode, "version", p.Version)
		errCh <- e.Start(addr)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-sigCtx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// buildIndex seeds the configured vector index backend with the corpus.
func buildIndex(ctx context.Context, p *profile.Profile, embedder ai.EmbeddingService, logger *slog.Logger) (retrieval.Index, func(), error) {
	docs, err := store.LoadDataset(p.DatasetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("song corpus loaded", "songs", len(docs), "path", p.DatasetPath)

	switch p.IndexDriver {
	case "postgres":
		idx, err := store.NewPGIndex(p.DSN, embedder)
		if err != nil {
			return nil, nil, err
		}
		if err := idx.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		if err := idx.Seed(ctx, docs); err != nil {
			return nil, nil, err
		}
		return idx, func() { _ = idx.Close() }, nil

	default:
		idx, err := store.NewMemoryIndex(ctx, embedder, docs)
		if err != nil {
			return nil, nil, err
		}
		return idx, func() {}, nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
