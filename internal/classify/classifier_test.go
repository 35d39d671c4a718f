package classify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/internal/storage"
	"github.com/feed-brain/pkg/logger"
)

type fakeCompleter struct {
	responses map[string]string // keyed by substring of the user message
	err       error
	calls     []string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls = append(f.calls, user)
	if f.err != nil {
		return "", f.err
	}
	for key, resp := range f.responses {
		if key == "" || strings.Contains(user, key) {
			return resp, nil
		}
	}
	return "", errors.New("no canned response")
}

// fakeRepo stubs the repository operations the classifier touches.
// Calling any other Repository method panics via the embedded nil
// interface, which is exactly what a test wants.
type fakeRepo struct {
	storage.Repository
	mu         sync.Mutex
	pending    []*models.Article
	classified map[uint]models.Classification
}

func newFakeRepo(pending ...*models.Article) *fakeRepo {
	return &fakeRepo{pending: pending, classified: make(map[uint]models.Classification)}
}

func (r *fakeRepo) ListUnclassifiedWithContent(ctx context.Context) ([]*models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, nil
}

func (r *fakeRepo) UpdateClassification(ctx context.Context, id uint, c models.Classification, at time.Time) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classified[id] = c
	return nil
}

func strptr(s string) *string { return &s }

func article(id uint, title, content string) *models.Article {
	return &models.Article{ID: id, URL: "https://example.com/" + title, Title: title, Content: strptr(content)}
}

const validJSON = `{"tier":"high","category":"ai_agents","summary":"s","reason":"r","confidence":0.8}`

func TestRunClassifiesPending(t *testing.T) {
	repo := newFakeRepo(
		article(1, "one", "content one"),
		article(2, "two", "content two"),
	)
	completer := &fakeCompleter{responses: map[string]string{"": validJSON}}
	c := New(completer, repo, Options{}, logger.Nop())

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Selected)
	require.Equal(t, 2, result.Classified)

	got := repo.classified[1]
	require.Equal(t, models.TierHigh, got.Tier)
	require.Equal(t, models.CategoryAIAgents, got.Category)
}

func TestRunMalformedResponseSkipsArticle(t *testing.T) {
	repo := newFakeRepo(article(1, "one", "content"))
	completer := &fakeCompleter{responses: map[string]string{"": "not json"}}
	c := New(completer, repo, Options{}, logger.Nop())

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Selected)
	require.Equal(t, 0, result.Classified)
	require.Empty(t, repo.classified)
}

func TestRunTransportFailureContinuesBatch(t *testing.T) {
	repo := newFakeRepo(
		article(1, "bad", "content"),
		article(2, "good", "content"),
	)
	completer := &fakeCompleter{responses: map[string]string{
		"Title: bad":  "not json",
		"Title: good": validJSON,
	}}
	c := New(completer, repo, Options{}, logger.Nop())

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Classified)
	require.Contains(t, repo.classified, uint(2))
	require.NotContains(t, repo.classified, uint(1))
}

func TestRunAPIErrorLeavesAllPending(t *testing.T) {
	repo := newFakeRepo(article(1, "one", "content"))
	completer := &fakeCompleter{err: errors.New("connection refused")}
	c := New(completer, repo, Options{}, logger.Nop())

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.Classified)
}

func TestUserMessageBoundsContent(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'x'
	}
	repo := newFakeRepo(article(1, "one", string(long)))
	completer := &fakeCompleter{responses: map[string]string{"": validJSON}}
	c := New(completer, repo, Options{ContentPrefixChars: 3000}, logger.Nop())

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, completer.calls, 1)
	// Title + author preamble plus at most 3000 content chars.
	require.Less(t, len(completer.calls[0]), 3100)
}

func TestRunEmptySelection(t *testing.T) {
	repo := newFakeRepo()
	completer := &fakeCompleter{}
	c := New(completer, repo, Options{}, logger.Nop())

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.Selected)
	require.Empty(t, completer.calls)
}
