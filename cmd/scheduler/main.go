package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/feed-brain/internal/ai"
	"github.com/feed-brain/internal/classify"
	"github.com/feed-brain/internal/config"
	"github.com/feed-brain/internal/extract"
	"github.com/feed-brain/internal/feed"
	"github.com/feed-brain/internal/ingest"
	"github.com/feed-brain/internal/pipeline"
	"github.com/feed-brain/internal/storage"
	"github.com/feed-brain/internal/storage/sqlite"
	"github.com/feed-brain/pkg/logger"
	"github.com/feed-brain/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "feed-brain-scheduler",
		Short: "Background scheduler for feed-brain",
		Long: `Runs ingestion and classification cycles on a cron schedule.
Run this daemon as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting feed-brain scheduler")

	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	runner := buildRunner()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	_, err = c.AddFunc(cfg.Scheduler.CycleCron, func() {
		if _, err := runner.Cycle(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled cycle failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cycle cron expression: %w", err)
	}

	c.Start()
	log.Info().Str("cron", cfg.Scheduler.CycleCron).Msg("Scheduler running")

	<-ctx.Done()
	log.Info().Msg("Shutting down scheduler")

	// Let an in-flight cycle finish before exiting.
	<-c.Stop().Done()
	return nil
}

func buildRunner() *pipeline.Runner {
	limiter := ratelimit.NewDefaultLimiter()

	reader := feed.NewReader(feed.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
	}, log)

	extractor := extract.NewExtractor(extract.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
	}, log)

	coordinator := ingest.NewCoordinator(reader, extractor, repo, limiter, ingest.Options{
		MaxArticlesPerFeed: cfg.Fetch.MaxArticlesPerFeed,
		FeedConcurrency:    cfg.Fetch.FeedConcurrency,
		ExtractConcurrency: cfg.Fetch.ExtractConcurrency,
	}, log)

	var classifier *classify.Classifier
	if cfg.Anthropic.APIKey != "" {
		aiClient := ai.NewClient(cfg.Anthropic, limiter, log)
		classifier = classify.New(aiClient, repo, classify.Options{
			ContentPrefixChars: cfg.Classifier.ContentPrefixChars,
			CallTimeout:        cfg.Classifier.CallTimeout,
		}, log)
	}

	return pipeline.New(coordinator, classifier, log)
}
