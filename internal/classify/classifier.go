package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/feed-brain/internal/ai"
	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/internal/storage"
	"github.com/feed-brain/pkg/logger"
)

// Classifier labels content-bearing articles against the interest
// taxonomy. Articles without extracted content are never selected:
// there is nothing to classify.
type Classifier struct {
	completer     ai.Completer
	repo          storage.Repository
	contentPrefix int
	callTimeout   time.Duration
	log           *logger.Logger
}

// Options tunes per-call behavior.
type Options struct {
	// ContentPrefixChars bounds how much article content is sent per
	// call, capping token cost and latency.
	ContentPrefixChars int
	// CallTimeout bounds a single completion call.
	CallTimeout time.Duration
}

// New creates a classifier over the given completion service and store.
func New(completer ai.Completer, repo storage.Repository, opts Options, log *logger.Logger) *Classifier {
	if opts.ContentPrefixChars <= 0 {
		opts.ContentPrefixChars = 3000
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 60 * time.Second
	}
	return &Classifier{
		completer:     completer,
		repo:          repo,
		contentPrefix: opts.ContentPrefixChars,
		callTimeout:   opts.CallTimeout,
		log:           log.WithComponent("classify"),
	}
}

// Result reports a classification batch. Classified <= Selected; the
// delta is the per-cycle failure count, left pending for the next run.
type Result struct {
	Selected   int
	Classified int
}

// Run classifies all pending articles in sequence. A transport or parse
// failure on one article never aborts the batch; the article stays
// unclassified and a future cycle retries it.
func (c *Classifier) Run(ctx context.Context) (*Result, error) {
	articles, err := c.repo.ListUnclassifiedWithContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unclassified articles: %w", err)
	}

	result := &Result{Selected: len(articles)}
	if len(articles) == 0 {
		c.log.Debug().Msg("No articles pending classification")
		return result, nil
	}

	c.log.Info().Int("pending", len(articles)).Msg("Classifying articles")

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		classification, err := c.classifyOne(ctx, article)
		if err != nil {
			c.log.Warn().
				Err(err).
				Uint("article_id", article.ID).
				Str("title", article.Title).
				Msg("Classification failed, leaving article pending")
			continue
		}

		if err := c.repo.UpdateClassification(ctx, article.ID, classification, time.Now().UTC()); err != nil {
			c.log.Error().
				Err(err).
				Uint("article_id", article.ID).
				Msg("Failed to store classification")
			continue
		}

		result.Classified++
		c.log.Info().
			Uint("article_id", article.ID).
			Str("title", article.Title).
			Str("tier", string(classification.Tier)).
			Str("category", string(classification.Category)).
			Msg("Article classified")
	}

	c.log.Info().
		Int("classified", result.Classified).
		Int("selected", result.Selected).
		Msg("Classification complete")

	return result, nil
}

func (c *Classifier) classifyOne(ctx context.Context, article *models.Article) (models.Classification, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	response, err := c.completer.Complete(callCtx, ai.ClassifierSystemPrompt, c.userMessage(article))
	if err != nil {
		return models.Classification{}, fmt.Errorf("completion failed: %w", err)
	}

	return ParseResponse(response)
}

func (c *Classifier) userMessage(article *models.Article) string {
	author := "Unknown"
	if article.Author != nil && *article.Author != "" {
		author = *article.Author
	}

	content := ""
	if article.Content != nil {
		content = *article.Content
	}
	if len(content) > c.contentPrefix {
		content = content[:c.contentPrefix]
	}

	return fmt.Sprintf("Title: %s\nAuthor: %s\n\nContent:\n%s", article.Title, author, content)
}
