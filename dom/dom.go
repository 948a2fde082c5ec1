// CLAUDE:SUMMARY Read-only DOM tree-query capability over goquery/cascadia for synthetic or captured pages.
// Package dom is the read-only tree-query capability the extraction engine
// runs against. It wraps a parsed HTML document (golang.org/x/net/html via
// goquery) and exposes ordered selector queries plus per-node derived views:
// tag, class list, attributes, visible text, and the ancestor chain.
//
// The engine never mutates the tree. A Document is a point-in-time parse of
// the page; callers re-parse on every cycle.
package dom

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Querier is the minimal capability needed to resolve a platform by DOM shape.
type Querier interface {
	Exists(selector string) bool
}

// Document is a parsed page.
type Document struct {
	doc *goquery.Document
}

// Parse reads HTML from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes parses raw HTML bytes.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// Query returns all elements matching selector in document order.
// An invalid selector matches nothing.
func (d *Document) Query(selector string) []*Node {
	if d == nil || strings.TrimSpace(selector) == "" {
		return nil
	}
	return wrap(d.doc.Find(selector))
}

// Exists reports whether at least one element matches selector.
func (d *Document) Exists(selector string) bool {
	if d == nil || strings.TrimSpace(selector) == "" {
		return false
	}
	return d.doc.Find(selector).Length() > 0
}

// Title returns the trimmed <title> text.
func (d *Document) Title() string {
	if d == nil {
		return ""
	}
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

func wrap(sel *goquery.Selection) []*Node {
	if sel.Length() == 0 {
		return nil
	}
	nodes := make([]*Node, 0, sel.Length())
	seen := make(map[*html.Node]bool, sel.Length())
	for _, n := range sel.Nodes {
		if seen[n] {
			continue
		}
		seen[n] = true
		nodes = append(nodes, &Node{n: n})
	}
	return nodes
}
