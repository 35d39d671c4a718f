package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feed-brain/pkg/logger"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test Feed</title>
  <link>https://example.com</link>
  <item>
    <title>First Post</title>
    <link>https://example.com/first</link>
    <author>alice@example.com (Alice)</author>
    <pubDate>Mon, 02 Feb 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>No Link Post</title>
    <pubDate>Mon, 02 Feb 2026 11:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Bad Date Post</title>
    <link>https://example.com/bad-date</link>
    <pubDate>not a date at all</pubDate>
  </item>
</channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/atom-entry"/>
    <author><name>Bob</name></author>
    <updated>2026-02-02T12:00:00Z</updated>
  </entry>
</feed>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "feed-brain-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestReader() *Reader {
	return NewReader(Options{UserAgent: "feed-brain-test", Timeout: 5 * time.Second}, logger.Nop())
}

func TestReadRSS(t *testing.T) {
	srv := serveFeed(t, rssDoc)

	entries, err := newTestReader().Read(context.Background(), srv.URL)
	require.NoError(t, err)

	// The link-less entry is dropped; document order is preserved.
	require.Len(t, entries, 2)
	require.Equal(t, "https://example.com/first", entries[0].Link)
	require.Equal(t, "First Post", entries[0].Title)
	require.NotNil(t, entries[0].PublishedAt)
	require.Equal(t, time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC), *entries[0].PublishedAt)

	// Malformed dates degrade to a missing published date, not a dropped entry.
	require.Equal(t, "https://example.com/bad-date", entries[1].Link)
	require.Nil(t, entries[1].PublishedAt)
}

func TestReadAtom(t *testing.T) {
	srv := serveFeed(t, atomDoc)

	entries, err := newTestReader().Read(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	require.Equal(t, "https://example.com/atom-entry", entries[0].Link)
	require.NotNil(t, entries[0].Author)
	require.Equal(t, "Bob", *entries[0].Author)
	require.NotNil(t, entries[0].PublishedAt)
}

func TestReadMalformedXML(t *testing.T) {
	srv := serveFeed(t, "this is not xml {")

	entries, err := newTestReader().Read(context.Background(), srv.URL)
	require.Error(t, err)
	require.Empty(t, entries)
}

func TestReadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestReader().Read(context.Background(), srv.URL)
	require.Error(t, err)
}
