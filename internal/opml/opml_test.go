package opml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlatOutlines(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Subscriptions</title></head>
  <body>
    <outline type="rss" text="Simon Willison" title="Simon Willison's Weblog" xmlUrl="https://simonwillison.net/atom/everything/"/>
    <outline type="rss" text="Hacker News" xmlUrl="https://news.ycombinator.com/rss"/>
  </body>
</opml>`

	feeds, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, feeds, 2)

	// title wins over text; text fills in when title is absent.
	require.Equal(t, Feed{Name: "Simon Willison's Weblog", URL: "https://simonwillison.net/atom/everything/"}, feeds[0])
	require.Equal(t, Feed{Name: "Hacker News", URL: "https://news.ycombinator.com/rss"}, feeds[1])
}

func TestParseNestedGroups(t *testing.T) {
	doc := `<?xml version="1.0"?>
<opml version="2.0">
  <body>
    <outline text="Tech">
      <outline text="Go Blog" xmlUrl="https://go.dev/blog/feed.atom"/>
      <outline text="Deep">
        <outline xmlUrl="https://nested.example.com/rss"/>
      </outline>
    </outline>
  </body>
</opml>`

	feeds, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	require.Equal(t, "Go Blog", feeds[0].Name)
	// A feed with neither title nor text is named by its URL.
	require.Equal(t, "https://nested.example.com/rss", feeds[1].Name)
	require.Equal(t, "https://nested.example.com/rss", feeds[1].URL)
}

func TestParseSkipsGroupingNodes(t *testing.T) {
	doc := `<?xml version="1.0"?>
<opml version="2.0">
  <body>
    <outline text="Empty Folder"/>
  </body>
</opml>`

	feeds, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Empty(t, feeds)
}

func TestParseMalformedXML(t *testing.T) {
	_, err := Parse([]byte("<opml><body><outline"))
	require.Error(t, err)
}
