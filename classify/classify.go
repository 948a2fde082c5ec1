// CLAUDE:SUMMARY Per-platform ordered heuristic batteries assigning user/assistant roles to candidate turn nodes, with alternation and default-role fallbacks.
// Package classify assigns an author role to candidate turn nodes.
//
// Each platform has an ordered battery of pure heuristics. The first one that
// answers wins and later ones are not consulted. Batteries end with a
// positional alternation fallback where the platform supports it.
package classify

import (
	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/platform"
)

// Unknown is the role of a node no heuristic could place.
const Unknown = "unknown"

// Strategy inspects a node and returns a role label when it is confident.
type Strategy func(n *dom.Node, c *Context) (role string, ok bool)

// Heuristic is a named strategy.
type Heuristic struct {
	Name  string
	Apply Strategy
}

// Decision is the classifier output: the role and the heuristic that set it.
type Decision struct {
	Role string `json:"role"`
	By   string `json:"by"`
}

var batteries = map[platform.Tag][]Heuristic{
	platform.ChatGPT: chatgptBattery,
	platform.Claude:  claudeBattery,
	platform.Gemini:  geminiBattery,
	platform.Grok:    grokBattery,
}

// Battery returns the ordered heuristics for tag. Platforms without a
// dedicated battery get the generic one.
func Battery(tag platform.Tag) []Heuristic {
	if b, ok := batteries[tag]; ok {
		return b
	}
	return genericBattery
}

// Classify runs the platform battery on n.
func Classify(n *dom.Node, c *Context) Decision {
	if n == nil || c == nil || c.Config == nil {
		return Decision{Role: Unknown}
	}
	for _, h := range Battery(c.Config.Tag) {
		if role, ok := h.Apply(n, c); ok && role != "" {
			return Decision{Role: role, By: h.Name}
		}
	}
	return Decision{Role: Unknown}
}

// Role classifies n and, when the battery gives no answer but content is
// substantial, falls back to the platform's default-role inferrer. The
// result is Unknown only for nodes that must be discarded.
func Role(n *dom.Node, c *Context, content string) Decision {
	d := Classify(n, c)
	if d.Role != Unknown {
		return d
	}
	if c == nil || c.Config == nil || runes(content) <= c.Thresholds.MinLen {
		return d
	}
	return Decision{Role: Infer(n, c), By: "inferred"}
}

var chatgptBattery = []Heuristic{
	{"author_attribute", authorAttribute},
	{"nested_author", nestedAuthor},
	{"alternation", strictAlternation},
}

const authorAttr = "data-message-author-role"

// authorAttribute trusts an explicit authorship attribute.
func authorAttribute(n *dom.Node, _ *Context) (string, bool) {
	v := n.AttrOr(authorAttr)
	return v, v != ""
}

// nestedAuthor reads the attribute from the first descendant carrying it,
// for turn wrappers matched by a fallback selector.
func nestedAuthor(n *dom.Node, _ *Context) (string, bool) {
	for _, d := range n.Query("[" + authorAttr + "]") {
		if v := d.AttrOr(authorAttr); v != "" {
			return v, true
		}
	}
	return "", false
}

var genericBattery = []Heuristic{
	{"author_attribute", authorAttribute},
	{"testid", genericTestID},
	{"alternation", strictAlternation},
}

func genericTestID(n *dom.Node, c *Context) (string, bool) {
	id := lowerAttr(n, "data-testid")
	switch {
	case containsAny(id, "user", "human"):
		return c.User(), true
	case containsAny(id, "assistant", "model", "bot"):
		return c.Assistant(), true
	}
	return "", false
}
