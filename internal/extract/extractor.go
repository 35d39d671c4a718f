package extract

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/feed-brain/pkg/logger"
)

// minContentLength guards against paywalled or JS-only pages that yield
// near-empty output after extraction.
const minContentLength = 50

// Extractor downloads article pages and reduces them to clean, bounded
// content. Failures never escape as panics; callers get an error and no
// content.
type Extractor struct {
	client    *http.Client
	userAgent string
	log       *logger.Logger
}

// Options configures page fetching.
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// NewExtractor creates a content extractor.
func NewExtractor(opts Options, log *logger.Logger) *Extractor {
	return &Extractor{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		log:       log.WithComponent("extract"),
	}
}

// Extract fetches the page at url and returns the sanitized main
// content. The error is non-nil whenever no usable content could be
// produced: transport failures, non-2xx responses, unparseable HTML, or
// extracted text below the minimum viable length.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	stripBoilerplate(doc)

	candidate := mainContent(doc)
	if candidate == nil {
		return "", fmt.Errorf("no content candidate in %s", url)
	}

	cleaned := sanitizeSelection(candidate)

	text := strings.TrimSpace(candidate.Text())
	if len(text) < minContentLength {
		e.log.Warn().
			Str("url", url).
			Int("length", len(text)).
			Msg("Extracted content too short")
		return "", fmt.Errorf("extracted content too short (%d chars) for %s", len(text), url)
	}

	e.log.Debug().
		Str("url", url).
		Int("length", len(cleaned)).
		Msg("Content extracted")

	return cleaned, nil
}

func (e *Extractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}

// Elements that never carry article text, removed wholesale before
// candidate selection.
var strippedTags = []string{
	"script", "style", "noscript", "iframe", "form", "svg",
	"nav", "aside", "header", "footer", "button", "select",
}

// id/class fragments that mark boilerplate containers.
var boilerplatePattern = regexp.MustCompile(
	`(?i)\b(comment|sidebar|share|social|related|promo|newsletter|cookie|banner|advert|ad-|-ad\b|paywall|subscribe)`)

func stripBoilerplate(doc *goquery.Document) {
	for _, tag := range strippedTags {
		doc.Find(tag).Remove()
	}

	doc.Find("div, section, ul, span").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		class, _ := s.Attr("class")
		if boilerplatePattern.MatchString(id + " " + class) {
			s.Remove()
		}
	})
}

// Containers that typically hold the article body, in preference order.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".post-content",
	".entry-content",
	".article-body",
	"#content",
}

// mainContent picks the most plausible article container: known content
// selectors first, then the block with the highest paragraph text mass.
func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}

	var best *goquery.Selection
	bestScore := 0
	doc.Find("div, section").Each(func(_ int, s *goquery.Selection) {
		score := 0
		s.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
			score += len(strings.TrimSpace(p.Text()))
		})
		if score > bestScore {
			bestScore = score
			best = s
		}
	})
	if best != nil {
		return best
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return nil
}
