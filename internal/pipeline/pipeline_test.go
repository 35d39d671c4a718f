package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feed-brain/internal/classify"
	"github.com/feed-brain/internal/feed"
	"github.com/feed-brain/internal/ingest"
	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/internal/storage"
	"github.com/feed-brain/pkg/logger"
	"github.com/feed-brain/pkg/ratelimit"
)

type fakeReader struct {
	entries []feed.Entry
}

func (r *fakeReader) Read(ctx context.Context, feedURL string) ([]feed.Entry, error) {
	return r.entries, nil
}

type fakeExtractor struct{}

func (e *fakeExtractor) Extract(ctx context.Context, url string) (string, error) {
	return "<p>extracted</p>", nil
}

type fakeCompleter struct{}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return `{"tier":"high","category":"ai_agents","summary":"s","reason":"r","confidence":0.9}`, nil
}

type fakeRepo struct {
	storage.Repository
	mu       sync.Mutex
	sources  []*models.FeedSource
	articles map[string]*models.Article
	nextID   uint
}

func newFakeRepo(sources ...*models.FeedSource) *fakeRepo {
	return &fakeRepo{sources: sources, articles: make(map[string]*models.Article)}
}

func (r *fakeRepo) ListActiveFeedSources(ctx context.Context) ([]*models.FeedSource, error) {
	return r.sources, nil
}

func (r *fakeRepo) FindArticleByURL(ctx context.Context, url string) (*models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.articles[url]; ok {
		return a, nil
	}
	return nil, storage.ErrNotFound
}

func (r *fakeRepo) CreateArticle(ctx context.Context, article *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[article.URL]; ok {
		return storage.ErrDuplicateURL
	}
	r.nextID++
	article.ID = r.nextID
	r.articles[article.URL] = article
	return nil
}

func (r *fakeRepo) ListUnclassifiedWithContent(ctx context.Context) ([]*models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*models.Article
	for _, a := range r.articles {
		if a.ClassifiedAt == nil && a.HasContent() {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

func (r *fakeRepo) UpdateClassification(ctx context.Context, id uint, c models.Classification, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.ID == id {
			a.Tier = &c.Tier
			a.ClassifiedAt = &at
			return nil
		}
	}
	return storage.ErrNotFound
}

func newTestCoordinator(repo storage.Repository, reader ingest.FeedReader) *ingest.Coordinator {
	limiter := ratelimit.NewMultiLimiter()
	limiter.AddLimiter(ratelimit.LimiterFeeds, 1000, 1000)
	limiter.AddLimiter(ratelimit.LimiterPages, 1000, 1000)
	return ingest.NewCoordinator(reader, &fakeExtractor{}, repo, limiter, ingest.Options{}, logger.Nop())
}

func TestCycleRunsBothPhases(t *testing.T) {
	repo := newFakeRepo(&models.FeedSource{ID: 1, Name: "A", URL: "https://a.test/feed", Active: true})
	reader := &fakeReader{entries: []feed.Entry{{Link: "https://a.test/1", Title: "One"}}}

	classifier := classify.New(&fakeCompleter{}, repo, classify.Options{}, logger.Nop())
	runner := New(newTestCoordinator(repo, reader), classifier, logger.Nop())

	result, err := runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.NewArticles)
	require.Equal(t, 1, result.Selected)
	require.Equal(t, 1, result.Classified)

	a := repo.articles["https://a.test/1"]
	require.NotNil(t, a.ClassifiedAt)
}

func TestCycleWithoutClassifierStillIngests(t *testing.T) {
	repo := newFakeRepo(&models.FeedSource{ID: 1, Name: "A", URL: "https://a.test/feed", Active: true})
	reader := &fakeReader{entries: []feed.Entry{{Link: "https://a.test/1", Title: "One"}}}

	runner := New(newTestCoordinator(repo, reader), nil, logger.Nop())

	result, err := runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.NewArticles)
	require.Equal(t, 0, result.Selected)
	require.Equal(t, 0, result.Classified)
	// Ingested articles stay pending until a classifier is configured.
	require.Nil(t, repo.articles["https://a.test/1"].ClassifiedAt)
}
