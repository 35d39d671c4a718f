package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/feed-brain/internal/ai"
	"github.com/feed-brain/internal/classify"
	"github.com/feed-brain/internal/clipping"
	"github.com/feed-brain/internal/config"
	"github.com/feed-brain/internal/extract"
	"github.com/feed-brain/internal/feed"
	"github.com/feed-brain/internal/ingest"
	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/internal/opml"
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
		Use:   "feed-brain",
		Short: "AI-powered feed aggregator",
		Long: `Ingests RSS/Atom feeds, extracts readable article content, and
classifies each article against a personal interest taxonomy using Claude.`,
		PersistentPreRunE: initializeApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(cycleCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(feedsCmd())
	rootCmd.AddCommand(articlesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
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

	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// buildRunner wires the pipeline components from config. The classifier
// is omitted when no API key is configured; ingestion must not depend
// on the completion service credential.
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

// ============ PIPELINE COMMANDS ============

func cycleCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one full cycle: ingest all feeds, then classify",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := buildRunner().Cycle(ctx)
			if result != nil {
				fmt.Printf("New articles: %d (source failures: %d)\n", result.NewArticles, result.SourceFailures)
				fmt.Printf("Classified: %d of %d pending\n", result.Classified, result.Selected)
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the cycle after this duration")
	return cmd
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run ingestion only: fetch feeds and store new articles",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			result, err := coordinator.Run(context.Background())
			if result != nil {
				fmt.Printf("New articles: %d (source failures: %d)\n", result.NewArticles, result.SourceFailures)
			}
			return err
		},
	}
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Classify pending articles that have extracted content",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Anthropic.APIKey == "" {
				return fmt.Errorf("anthropic.api_key is required for classification")
			}

			limiter := ratelimit.NewDefaultLimiter()
			aiClient := ai.NewClient(cfg.Anthropic, limiter, log)
			classifier := classify.New(aiClient, repo, classify.Options{
				ContentPrefixChars: cfg.Classifier.ContentPrefixChars,
				CallTimeout:        cfg.Classifier.CallTimeout,
			}, log)

			result, err := classifier.Run(context.Background())
			if result != nil {
				fmt.Printf("Classified: %d of %d pending\n", result.Classified, result.Selected)
			}
			return err
		},
	}
}

// ============ FEEDS COMMANDS ============

func feedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage feed sources",
	}

	cmd.AddCommand(feedsAddCmd())
	cmd.AddCommand(feedsListCmd())
	cmd.AddCommand(feedsImportCmd())
	cmd.AddCommand(feedsDeactivateCmd())
	cmd.AddCommand(feedsDeleteCmd())
	return cmd
}

func feedsAddCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a feed source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if name == "" {
				name = url
			}

			source := &models.FeedSource{Name: name, URL: url, FeedType: "rss", Active: true}
			if err := repo.CreateFeedSource(context.Background(), source); err != nil {
				return fmt.Errorf("failed to add feed: %w", err)
			}

			fmt.Printf("Added feed %d: %s\n", source.ID, source.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the URL)")
	return cmd
}

func feedsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List feed sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := repo.ListFeedSources(context.Background())
			if err != nil {
				return err
			}

			for _, s := range sources {
				status := "active"
				if !s.Active {
					status = "inactive"
				}
				fmt.Printf("%4d  %-8s  %-40s  %s\n", s.ID, status, s.Name, s.URL)
			}
			fmt.Printf("%d feeds\n", len(sources))
			return nil
		},
	}
}

func feedsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.opml>",
		Short: "Import feed sources from an OPML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read OPML file: %w", err)
			}

			feeds, err := opml.Parse(content)
			if err != nil {
				return err
			}

			ctx := context.Background()
			added, skipped := 0, 0
			for _, f := range feeds {
				source := &models.FeedSource{Name: f.Name, URL: f.URL, FeedType: "rss", Active: true}
				if err := repo.CreateFeedSource(ctx, source); err != nil {
					skipped++
					log.Warn().Err(err).Str("url", f.URL).Msg("Skipping feed")
					continue
				}
				added++
			}

			fmt.Printf("Imported %d feeds (%d skipped)\n", added, skipped)
			return nil
		},
	}
}

func feedsDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a feed source without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid feed id: %w", err)
			}
			if err := repo.DeactivateFeedSource(context.Background(), uint(id)); err != nil {
				return err
			}
			fmt.Printf("Deactivated feed %d\n", id)
			return nil
		},
	}
}

func feedsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a feed source; its articles are kept without a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid feed id: %w", err)
			}
			if err := repo.DeleteFeedSource(context.Background(), uint(id)); err != nil {
				return err
			}
			fmt.Printf("Deleted feed %d\n", id)
			return nil
		},
	}
}

// ============ ARTICLES COMMANDS ============

func articlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Browse and review stored articles",
	}

	cmd.AddCommand(articlesListCmd())
	cmd.AddCommand(articlesFeedbackCmd())
	return cmd
}

func articlesListCmd() *cobra.Command {
	var tierFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.DefaultArticleFilter()
			filter.Limit = limit
			if tierFlag != "" {
				tier, err := models.ParseTier(tierFlag)
				if err != nil {
					return err
				}
				filter.Tier = &tier
			}

			articles, err := repo.ListArticles(context.Background(), filter)
			if err != nil {
				return err
			}

			for _, a := range articles {
				tier := "-"
				if a.Tier != nil {
					tier = string(*a.Tier)
				}
				fmt.Printf("%4d  %-6s  %-60s  %s\n", a.ID, tier, truncate(a.Title, 60), a.URL)
			}
			fmt.Printf("%d articles\n", len(articles))
			return nil
		},
	}

	cmd.Flags().StringVar(&tierFlag, "tier", "", "filter by tier (high/medium/low)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func articlesFeedbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <id> <approved|skipped>",
		Short: "Record feedback on an article; approval writes a clipping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid article id: %w", err)
			}
			feedback, err := models.ParseFeedback(args[1])
			if err != nil {
				return err
			}

			ctx := context.Background()
			article, err := repo.GetArticleByID(ctx, uint(id))
			if err != nil {
				return err
			}

			clippingCreated := article.ClippingCreated
			if feedback == models.FeedbackApproved && !clippingCreated {
				writer := clipping.NewWriter(cfg.Clippings.Dir, log)
				created, err := writer.Create(article)
				if err != nil {
					log.Error().Err(err).Msg("Failed to create clipping")
				} else {
					clippingCreated = created
				}
			}

			if err := repo.UpdateFeedback(ctx, article.ID, feedback, clippingCreated, time.Now().UTC()); err != nil {
				return err
			}

			fmt.Printf("Recorded %s for article %d\n", feedback, article.ID)
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
