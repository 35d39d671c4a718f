package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feed-brain/internal/feed"
	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/internal/storage"
	"github.com/feed-brain/pkg/logger"
	"github.com/feed-brain/pkg/ratelimit"
)

// FeedReader produces normalized entries for a feed URL.
type FeedReader interface {
	Read(ctx context.Context, feedURL string) ([]feed.Entry, error)
}

// ContentExtractor produces cleaned article content for a page URL.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Coordinator runs ingestion cycles: it walks the active feed sources,
// deduplicates entries against stored article URLs, extracts content for
// new entries, and persists them. One source's failure never aborts the
// cycle.
type Coordinator struct {
	reader    FeedReader
	extractor ContentExtractor
	repo      storage.Repository
	limiter   *ratelimit.MultiLimiter
	opts      Options
	log       *logger.Logger
}

// Options bounds per-cycle work.
type Options struct {
	MaxArticlesPerFeed int
	FeedConcurrency    int
	ExtractConcurrency int
}

// NewCoordinator wires an ingestion coordinator.
func NewCoordinator(
	reader FeedReader,
	extractor ContentExtractor,
	repo storage.Repository,
	limiter *ratelimit.MultiLimiter,
	opts Options,
	log *logger.Logger,
) *Coordinator {
	if opts.MaxArticlesPerFeed <= 0 {
		opts.MaxArticlesPerFeed = 50
	}
	if opts.FeedConcurrency <= 0 {
		opts.FeedConcurrency = 4
	}
	if opts.ExtractConcurrency <= 0 {
		opts.ExtractConcurrency = 6
	}
	return &Coordinator{
		reader:    reader,
		extractor: extractor,
		repo:      repo,
		limiter:   limiter,
		opts:      opts,
		log:       log.WithComponent("ingest"),
	}
}

// Result summarizes one ingestion cycle.
type Result struct {
	Sources        int
	NewArticles    int
	SourceFailures int
	Duration       time.Duration
}

// Run executes one ingestion cycle and returns the count of newly
// stored articles. Sources are processed by a bounded worker pool;
// cancellation of ctx aborts remaining work without leaving a partially
// written article.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	sources, err := c.repo.ListActiveFeedSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active feed sources: %w", err)
	}

	result := &Result{Sources: len(sources)}
	if len(sources) == 0 {
		c.log.Warn().Msg("No active feed sources")
		result.Duration = time.Since(start)
		return result, nil
	}

	// All articles of one cycle share the same fetch timestamp.
	fetchedAt := start.UTC()

	var newArticles, sourceFailures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.FeedConcurrency)

	for _, source := range sources {
		source := source
		g.Go(func() error {
			count, err := c.ingestSource(gctx, source, fetchedAt)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				// Isolated: log, count, move on to other sources.
				sourceFailures.Add(1)
				c.log.Error().
					Err(err).
					Str("feed", source.Name).
					Str("url", source.URL).
					Msg("Feed ingestion failed, skipping source")
				return nil
			}
			newArticles.Add(int64(count))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		result.NewArticles = int(newArticles.Load())
		result.SourceFailures = int(sourceFailures.Load())
		result.Duration = time.Since(start)
		return result, err
	}

	result.NewArticles = int(newArticles.Load())
	result.SourceFailures = int(sourceFailures.Load())
	result.Duration = time.Since(start)

	c.log.Info().
		Int("new_articles", result.NewArticles).
		Int("sources", result.Sources).
		Int("source_failures", result.SourceFailures).
		Dur("duration", result.Duration).
		Msg("Ingestion cycle complete")

	return result, nil
}

// ingestSource fetches one feed and stores its new entries, returning
// how many articles were created.
func (c *Coordinator) ingestSource(ctx context.Context, source *models.FeedSource, fetchedAt time.Time) (int, error) {
	log := c.log.WithFeed(source.Name, source.URL)

	if err := c.limiter.Wait(ctx, ratelimit.LimiterFeeds); err != nil {
		return 0, err
	}

	entries, err := c.reader.Read(ctx, source.URL)
	if err != nil {
		return 0, err
	}

	// Bound work per cycle, preserving feed document order.
	if len(entries) > c.opts.MaxArticlesPerFeed {
		entries = entries[:c.opts.MaxArticlesPerFeed]
	}

	// Dedup against stored URLs, in document order. URL equality is the
	// sole mechanism; no fuzzy matching.
	fresh := make([]feed.Entry, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		_, err := c.repo.FindArticleByURL(ctx, entry.Link)
		if err == nil {
			continue // already stored
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("dedup lookup failed for %s: %w", entry.Link, err)
		}
		fresh = append(fresh, entry)
	}

	if len(fresh) == 0 {
		log.Debug().Int("entries", len(entries)).Msg("No new entries")
		return 0, nil
	}

	// Extraction dominates cycle latency: one HTTP round trip plus a DOM
	// parse per new article. Run it through its own bounded pool.
	contents := c.extractAll(ctx, fresh)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	stored := 0
	for i, entry := range fresh {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		article := buildArticle(entry, source.ID, contents[i], fetchedAt)
		if err := c.repo.CreateArticle(ctx, article); err != nil {
			if errors.Is(err, storage.ErrDuplicateURL) {
				// Lost a race with another feed carrying the same URL in
				// this cycle. The unique constraint already did its job.
				log.Debug().Str("url", entry.Link).Msg("Duplicate URL, skipping")
				continue
			}
			return stored, fmt.Errorf("failed to store article %s: %w", entry.Link, err)
		}

		stored++
		log.Info().
			Str("title", article.Title).
			Str("url", article.URL).
			Bool("has_content", article.HasContent()).
			Msg("Article stored")
	}

	return stored, nil
}

// extractAll runs content extraction for each entry concurrently and
// returns results positionally. A failed extraction yields nil content;
// the article is stored anyway so classification can still see its
// metadata.
func (c *Coordinator) extractAll(ctx context.Context, entries []feed.Entry) []*string {
	contents := make([]*string, len(entries))

	g := new(errgroup.Group)
	g.SetLimit(c.opts.ExtractConcurrency)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := c.limiter.Wait(ctx, ratelimit.LimiterPages); err != nil {
				return nil
			}
			content, err := c.extractor.Extract(ctx, entry.Link)
			if err != nil {
				c.log.Warn().
					Err(err).
					Str("url", entry.Link).
					Msg("Content extraction failed, storing without content")
				return nil
			}
			contents[i] = &content
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return contents
}

func buildArticle(entry feed.Entry, sourceID uint, content *string, fetchedAt time.Time) *models.Article {
	title := entry.Title
	if title == "" {
		title = "Untitled"
	}

	sid := sourceID
	return &models.Article{
		URL:           entry.Link,
		Title:         title,
		Author:        entry.Author,
		SourceID:      &sid,
		Content:       content,
		PublishedDate: entry.PublishedAt,
		FetchedAt:     fetchedAt,
	}
}
