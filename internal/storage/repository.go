package storage

import (
	"context"
	"errors"
	"time"

	"github.com/feed-brain/internal/models"
)

// ErrDuplicateURL is returned when an insert violates the unique-URL
// constraint for articles or feed sources. Callers treat it as a benign
// skip, not a failure.
var ErrDuplicateURL = errors.New("duplicate url")

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for data persistence
type Repository interface {
	// Feed source operations
	CreateFeedSource(ctx context.Context, source *models.FeedSource) error
	GetFeedSourceByID(ctx context.Context, id uint) (*models.FeedSource, error)
	ListActiveFeedSources(ctx context.Context) ([]*models.FeedSource, error)
	ListFeedSources(ctx context.Context) ([]*models.FeedSource, error)
	DeactivateFeedSource(ctx context.Context, id uint) error
	// DeleteFeedSource removes a source and nullifies article back-references.
	DeleteFeedSource(ctx context.Context, id uint) error

	// Article operations
	CreateArticle(ctx context.Context, article *models.Article) error
	GetArticleByID(ctx context.Context, id uint) (*models.Article, error)
	FindArticleByURL(ctx context.Context, url string) (*models.Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]*models.Article, error)
	ListUnclassifiedWithContent(ctx context.Context) ([]*models.Article, error)

	// UpdateClassification writes all classification fields plus the
	// classified_at timestamp in a single statement.
	UpdateClassification(ctx context.Context, articleID uint, c models.Classification, at time.Time) error

	// UpdateFeedback records the reviewer verdict and clipping flag.
	UpdateFeedback(ctx context.Context, articleID uint, feedback models.Feedback, clippingCreated bool, at time.Time) error

	// Maintenance
	Migrate() error
	Close() error
}

// ArticleFilter defines filtering options for article listings
type ArticleFilter struct {
	Tier      *models.Tier
	Category  *models.Category
	SourceID  *uint
	Limit     int
	Offset    int
	OrderBy   string // "fetched_at", "published_date", "confidence"
	OrderDesc bool
}

// DefaultArticleFilter returns a filter with sensible defaults
func DefaultArticleFilter() ArticleFilter {
	return ArticleFilter{
		Limit:     50,
		OrderBy:   "fetched_at",
		OrderDesc: true,
	}
}
