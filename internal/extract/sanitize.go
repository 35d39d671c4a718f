package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// allowedTags maps each permitted structural/text tag to its permitted
// attributes. Everything else is unwrapped: the tag is discarded and its
// children promoted, so text continuity is preserved.
var allowedTags = map[string]map[string]bool{
	"p":          nil,
	"h1":         nil,
	"h2":         nil,
	"h3":         nil,
	"h4":         nil,
	"h5":         nil,
	"h6":         nil,
	"ul":         nil,
	"ol":         nil,
	"li":         nil,
	"blockquote": nil,
	"pre":        nil,
	"code":       nil,
	"em":         nil,
	"strong":     nil,
	"b":          nil,
	"i":          nil,
	"br":         nil,
	"hr":         nil,
	"table":      nil,
	"thead":      nil,
	"tbody":      nil,
	"tr":         nil,
	"figure":     nil,
	"figcaption": nil,
	"a":          {"href": true, "title": true},
	"img":        {"src": true, "alt": true, "title": true},
	"th":         {"colspan": true, "rowspan": true},
	"td":         {"colspan": true, "rowspan": true},
}

// Tags with no closing counterpart.
var voidTags = map[string]bool{
	"br":  true,
	"hr":  true,
	"img": true,
}

// sanitizeSelection rebuilds the selection's markup keeping only
// allow-listed tags and attributes.
func sanitizeSelection(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		// Sanitize the contents of the candidate container, not the
		// container tag itself.
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			sanitizeNode(&b, child)
		}
	}
	return strings.TrimSpace(b.String())
}

func sanitizeNode(b *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(node.Data))
		return
	case html.ElementNode:
		// handled below
	default:
		// comments, doctypes
		return
	}

	allowedAttrs, allowed := allowedTags[node.Data]
	if !allowed {
		// Unwrap: drop the tag, keep its children.
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			sanitizeNode(b, child)
		}
		return
	}

	b.WriteByte('<')
	b.WriteString(node.Data)
	for _, attr := range node.Attr {
		if allowedAttrs[attr.Key] {
			b.WriteByte(' ')
			b.WriteString(attr.Key)
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(attr.Val))
			b.WriteByte('"')
		}
	}

	if voidTags[node.Data] {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		sanitizeNode(b, child)
	}

	b.WriteString("</")
	b.WriteString(node.Data)
	b.WriteByte('>')
}
