// Package opml parses OPML subscription lists for bulk feed import.
package opml

import (
	"encoding/xml"
	"fmt"
)

// Feed is one importable subscription extracted from an OPML outline.
type Feed struct {
	Name string
	URL  string
}

type document struct {
	Body body `xml:"body"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	Outlines []outline `xml:"outline"`
}

// Parse extracts feed entries from OPML content. Outlines without an
// xmlUrl attribute are grouping nodes and are descended into, not
// imported. The feed name falls back from title to text to the URL.
func Parse(content []byte) ([]Feed, error) {
	var doc document
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	var feeds []Feed
	var walk func([]outline)
	walk = func(outlines []outline) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				name := o.Title
				if name == "" {
					name = o.Text
				}
				if name == "" {
					name = o.XMLURL
				}
				feeds = append(feeds, Feed{Name: name, URL: o.XMLURL})
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)

	return feeds, nil
}
