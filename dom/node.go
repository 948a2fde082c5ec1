package dom

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is an opaque, read-only handle to an element of a Document.
type Node struct {
	n *html.Node
}

// Raw exposes the underlying html.Node for tree walks.
func (n *Node) Raw() *html.Node { return n.n }

// Is reports whether both handles point at the same element.
func (n *Node) Is(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.n == o.n
}

// Tag returns the lower-case element name.
func (n *Node) Tag() string { return n.n.Data }

// Attr returns the value of attribute key and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or "" when absent.
func (n *Node) AttrOr(key string) string {
	v, _ := n.Attr(key)
	return v
}

// Attrs returns a copy of the attribute map.
func (n *Node) Attrs() map[string]string {
	m := make(map[string]string, len(n.n.Attr))
	for _, a := range n.n.Attr {
		m[a.Key] = a.Val
	}
	return m
}

// ClassName returns the raw class attribute.
func (n *Node) ClassName() string { return n.AttrOr("class") }

// Classes returns the class list.
func (n *Node) Classes() []string { return strings.Fields(n.ClassName()) }

// HasClass reports whether the class list contains class exactly.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// Parent returns the parent element, or nil at the root.
func (n *Node) Parent() *Node {
	for p := n.n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return &Node{n: p}
		}
	}
	return nil
}

// Ancestors returns up to max element ancestors, nearest first.
func (n *Node) Ancestors(max int) []*Node {
	var out []*Node
	for p := n.Parent(); p != nil && len(out) < max; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// Query returns descendants matching selector in document order.
func (n *Node) Query(selector string) []*Node {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	return wrap(n.selection().Find(selector))
}

// Has reports whether any descendant matches selector.
func (n *Node) Has(selector string) bool {
	if strings.TrimSpace(selector) == "" {
		return false
	}
	return n.selection().Find(selector).Length() > 0
}

// Matches reports whether the node itself matches selector.
func (n *Node) Matches(selector string) bool {
	if strings.TrimSpace(selector) == "" {
		return false
	}
	return n.selection().Is(selector)
}

// Closest returns the node itself or its nearest ancestor matching selector.
func (n *Node) Closest(selector string) *Node {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	c := n.selection().Closest(selector)
	if c.Length() == 0 {
		return nil
	}
	return &Node{n: c.Nodes[0]}
}

// Text returns the visible text of the subtree: trimmed text nodes joined by
// single spaces, with script, style and noscript content skipped.
func (n *Node) Text() string {
	return CollectText(n.n, nil)
}

// HTML returns the outer markup of the node.
func (n *Node) HTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n.n); err != nil {
		return ""
	}
	return buf.String()
}

func (n *Node) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(n.n).Selection
}

// CollectText walks the subtree rooted at root and joins trimmed text nodes
// with single spaces. When skip is non-nil, element subtrees for which it
// returns true are excluded.
func CollectText(root *html.Node, skip func(*html.Node) bool) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
			if skip != nil && skip(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(root)
	return sb.String()
}
