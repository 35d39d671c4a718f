package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feed-brain/pkg/logger"
)

// Entry is one normalized feed item, in document order.
type Entry struct {
	Link        string
	Title       string
	Author      *string
	PublishedAt *time.Time
}

// Reader fetches and parses RSS/Atom feeds. The format is auto-detected
// by the parser; callers never declare it up front.
type Reader struct {
	parser *gofeed.Parser
	log    *logger.Logger
}

// Options configures feed fetching.
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// NewReader creates a feed reader with the given fetch options.
func NewReader(opts Options, log *logger.Logger) *Reader {
	parser := gofeed.NewParser()
	parser.UserAgent = opts.UserAgent
	parser.Client = &http.Client{Timeout: opts.Timeout}

	return &Reader{
		parser: parser,
		log:    log.WithComponent("feed"),
	}
}

// Read fetches the feed document and returns its entries in document
// order. Malformed XML yields zero entries and an error; the caller is
// expected to skip the source and continue.
func (r *Reader) Read(ctx context.Context, feedURL string) ([]Entry, error) {
	r.log.Debug().Str("url", feedURL).Msg("Fetching feed")

	parsed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		// Entries without a link are unusable for dedup or storage.
		if item.Link == "" {
			continue
		}

		entry := Entry{
			Link:  item.Link,
			Title: item.Title,
		}
		if name := itemAuthor(item); name != "" {
			entry.Author = &name
		}
		// A malformed date field degrades to a missing published date:
		// gofeed leaves PublishedParsed nil when it cannot parse.
		if item.PublishedParsed != nil {
			t := item.PublishedParsed.UTC()
			entry.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := item.UpdatedParsed.UTC()
			entry.PublishedAt = &t
		}

		entries = append(entries, entry)
	}

	r.log.Debug().
		Int("entries", len(entries)).
		Str("url", feedURL).
		Msg("Parsed feed")

	return entries, nil
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}
