package clipping

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/pkg/logger"
)

func strptr(s string) *string { return &s }

func classifiedArticle() *models.Article {
	published := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	return &models.Article{
		ID:            1,
		URL:           "https://example.com/post",
		Title:         "A Great Post",
		Author:        strptr("Alice"),
		Content:       strptr("<p>The body.</p>"),
		PublishedDate: &published,
		Summary:       strptr("Short summary."),
		MoneyQuote:    strptr("The key insight."),
		Actionables:   models.StringSlice{"Try the thing", "Measure it"},
	}
}

func TestCreateWritesClipping(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.Nop())

	created, err := w.Create(classifiedArticle())
	require.NoError(t, err)
	require.True(t, created)

	raw, err := os.ReadFile(filepath.Join(dir, "A Great Post.md"))
	require.NoError(t, err)
	content := string(raw)

	require.Contains(t, content, `title: "A Great Post"`)
	require.Contains(t, content, `source: "https://example.com/post"`)
	require.Contains(t, content, `- "Alice"`)
	require.Contains(t, content, "published: 2026-02-02")
	require.Contains(t, content, "## AI Summary")
	require.Contains(t, content, "## Money Quote")
	require.Contains(t, content, "- Try the thing")
	require.Contains(t, content, "<p>The body.</p>")
}

func TestCreateSkipsExistingFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.Nop())

	path := filepath.Join(dir, "A Great Post.md")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0644))

	created, err := w.Create(classifiedArticle())
	require.NoError(t, err)
	require.True(t, created)

	// The existing file is never overwritten.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "original", string(raw))
}

func TestCreateMissingDirectory(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "does-not-exist"), logger.Nop())

	created, err := w.Create(classifiedArticle())
	require.Error(t, err)
	require.False(t, created)
}

func TestCreateOmitsEmptyAnalysisSection(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.Nop())

	article := &models.Article{
		URL:     "https://example.com/plain",
		Title:   "Plain Post",
		Content: strptr("just text"),
	}
	created, err := w.Create(article)
	require.NoError(t, err)
	require.True(t, created)

	raw, err := os.ReadFile(filepath.Join(dir, "Plain Post.md"))
	require.NoError(t, err)
	content := string(raw)
	require.NotContains(t, content, "## AI Summary")
	require.Contains(t, content, "just text")
	// Absent authors render as Unknown rather than an empty list item.
	require.Contains(t, content, `- "Unknown"`)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`What: "A/B" testing?`, "What AB testing"},
		{"   spaced   ", "spaced"},
		{"", "untitled"},
		{`\\//`, "untitled"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, sanitizeFilename(tt.in))
	}
}
