package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markedText collects the visible text of root like dom.CollectText, but
// wraps <pre> blocks in ``` fences and inline <code> in backticks. Fences are
// glued to the code so the word count is unchanged when code is counted,
// while estimate.StripCode can drop the regions when it is not.
func markedText(root *html.Node, skip func(*html.Node) bool) string {
	var w textWriter
	w.walk(root, skip, false)
	return w.String()
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) add(s string) {
	if s == "" {
		return
	}
	if w.Len() > 0 {
		w.WriteByte(' ')
	}
	w.WriteString(s)
}

func (w *textWriter) walk(n *html.Node, skip func(*html.Node) bool, inCode bool) {
	switch n.Type {
	case html.TextNode:
		w.add(strings.TrimSpace(n.Data))
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
		if skip != nil && skip(n) {
			return
		}
		if !inCode && (n.DataAtom == atom.Pre || n.DataAtom == atom.Code) {
			var inner textWriter
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				inner.walk(c, skip, true)
			}
			code := strings.TrimSpace(inner.String())
			if code == "" {
				return
			}
			fence := "`"
			if n.DataAtom == atom.Pre {
				fence = "```"
			}
			w.add(fence + code + fence)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, skip, inCode)
	}
}
