// Package clipping writes approved articles as markdown files with YAML
// frontmatter, matching the layout of an Obsidian clippings folder.
package clipping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/pkg/logger"
)

// Writer creates clipping files in a target directory.
type Writer struct {
	dir string
	log *logger.Logger
}

// NewWriter creates a clipping writer for dir.
func NewWriter(dir string, log *logger.Logger) *Writer {
	return &Writer{
		dir: dir,
		log: log.WithComponent("clipping"),
	}
}

// Create writes a markdown clipping for the article. Returns true when
// a file exists afterwards (newly written or already present).
func (w *Writer) Create(article *models.Article) (bool, error) {
	if _, err := os.Stat(w.dir); err != nil {
		return false, fmt.Errorf("clippings directory not available: %w", err)
	}

	filename := sanitizeFilename(article.Title) + ".md"
	path := filepath.Join(w.dir, filename)

	if _, err := os.Stat(path); err == nil {
		w.log.Warn().Str("path", path).Msg("Clipping already exists")
		return true, nil
	}

	if err := os.WriteFile(path, []byte(render(article)), 0644); err != nil {
		return false, fmt.Errorf("failed to write clipping: %w", err)
	}

	w.log.Info().Str("path", path).Msg("Clipping created")
	return true, nil
}

func render(article *models.Article) string {
	published := ""
	if article.PublishedDate != nil {
		published = article.PublishedDate.Format("2006-01-02")
	}

	author := "Unknown"
	if article.Author != nil && *article.Author != "" {
		author = *article.Author
	}

	summary := ""
	if article.Summary != nil {
		summary = *article.Summary
	}

	content := ""
	if article.Content != nil {
		content = *article.Content
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", yamlString(article.Title))
	fmt.Fprintf(&b, "source: %s\n", yamlString(article.URL))
	fmt.Fprintf(&b, "author:\n  - %s\n", yamlString(author))
	fmt.Fprintf(&b, "published: %s\n", published)
	fmt.Fprintf(&b, "created: %s\n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "description: %s\n", yamlString(summary))
	b.WriteString("tags:\n  - \"clippings\"\n  - \"feed-brain\"\n")
	b.WriteString("---\n\n")
	b.WriteString(aiSection(article))
	b.WriteString(content)
	b.WriteString("\n")

	return b.String()
}

// aiSection builds the markdown analysis block from classification
// fields, or an empty string when none are populated.
func aiSection(article *models.Article) string {
	var parts []string

	if article.Summary != nil && *article.Summary != "" {
		parts = append(parts, "## AI Summary\n\n"+*article.Summary)
	}
	if article.MoneyQuote != nil && *article.MoneyQuote != "" {
		parts = append(parts, fmt.Sprintf("## Money Quote\n\n> %q", *article.MoneyQuote))
	}
	if len(article.Actionables) > 0 {
		items := make([]string, 0, len(article.Actionables))
		for _, item := range article.Actionables {
			items = append(items, "- "+item)
		}
		parts = append(parts, "## Actionable Takeaways\n\n"+strings.Join(items, "\n"))
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n\n---\n\n"
}

// yamlString quotes a value safely for YAML frontmatter. JSON string
// encoding is a valid YAML scalar.
func yamlString(value string) string {
	encoded, _ := json.Marshal(value)
	return string(encoded)
}

func sanitizeFilename(title string) string {
	result := title
	for _, ch := range `<>:"/\|?*` {
		result = strings.ReplaceAll(result, string(ch), "")
	}
	result = strings.TrimSpace(result)
	if len(result) > 200 {
		result = result[:200]
	}
	if result == "" {
		result = "untitled"
	}
	return result
}
