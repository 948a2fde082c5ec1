package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/tokenwatch/dom"
)

var claudeBattery = []Heuristic{
	{"streaming", streamingMarker},
	{"conversation_turn", conversationTurn},
	{"testid", claudeTestID},
	{"class", claudeClass},
	{"article", articleWithID},
	{"layout", layoutPosition},
	{"ancestors", claudeAncestors},
	{"content", contentPattern},
	{"alternation", lenientAlternation},
}

// streamingMarker: only assistant turns carry data-is-streaming.
func streamingMarker(n *dom.Node, c *Context) (string, bool) {
	switch n.AttrOr("data-is-streaming") {
	case "true", "false":
		return c.Assistant(), true
	}
	return "", false
}

var requestOpener = regexp.MustCompile(`^(如何|什麼|為什麼|請|可以|能否|幫我|我想|我需要)`)

// conversationTurn: generic turn wrappers are assistant unless the text opens
// like a request.
func conversationTurn(n *dom.Node, c *Context) (string, bool) {
	if n.AttrOr("data-testid") != "conversation-turn" {
		return "", false
	}
	if requestOpener.MatchString(n.Text()) {
		return c.User(), true
	}
	return c.Assistant(), true
}

func claudeTestID(n *dom.Node, c *Context) (string, bool) {
	id := lowerAttr(n, "data-testid")
	switch {
	case containsAny(id, "user", "human"):
		return c.User(), true
	case containsAny(id, "assistant", "claude", "model"):
		return c.Assistant(), true
	}
	return "", false
}

// claudeClass checks the per-author font classes on the node and its
// nearest ancestor carrying one.
func claudeClass(n *dom.Node, c *Context) (string, bool) {
	class := n.ClassName()
	if containsAny(class, "font-user", "user-message") || n.Closest(`[class*="font-user"]`) != nil {
		return c.User(), true
	}
	if strings.Contains(class, "font-claude") || n.Closest(`[class*="font-claude"]`) != nil {
		return c.Assistant(), true
	}
	return "", false
}

// articleWithID: individually boxed articles with an identifier are
// assistant turns by convention.
func articleWithID(n *dom.Node, c *Context) (string, bool) {
	if n.AttrOr("role") == "article" && n.AttrOr("data-testid") != "" {
		return c.Assistant(), true
	}
	return "", false
}

// layoutPosition: right-aligned bubbles are the human's own messages.
func layoutPosition(n *dom.Node, c *Context) (string, bool) {
	if containsAny(n.ClassName(), "justify-end", "ml-auto") ||
		n.Closest(`[class*="justify-end"]`) != nil ||
		n.Closest(`[class*="ml-auto"]`) != nil {
		return c.User(), true
	}
	return "", false
}

func claudeAncestors(n *dom.Node, c *Context) (string, bool) {
	for _, a := range n.Ancestors(3) {
		class := a.ClassName()
		id := lowerAttr(a, "data-testid")
		if strings.Contains(class, "font-user") || containsAny(id, "user", "human") {
			return c.User(), true
		}
		if strings.Contains(class, "font-claude") || containsAny(id, "assistant", "claude") {
			return c.Assistant(), true
		}
	}
	return "", false
}

// contentPattern: short requests are human, long or explanatory text is
// assistant.
func contentPattern(n *dom.Node, c *Context) (string, bool) {
	t := c.Thresholds
	text := n.Text()
	if runes(text) <= t.MinLen {
		return "", false
	}
	length := utf8.RuneCountInString(text)
	if containsAny(text, t.UserMarkers...) && length < t.UserMaxLen {
		return c.User(), true
	}
	if containsAny(text, t.AssistantMarkers...) || length > t.AssistantMinLen {
		return c.Assistant(), true
	}
	return "", false
}

// lenientAlternation never fails: substantial candidates alternate starting
// with the human, others fall back to their raw candidate index.
func lenientAlternation(n *dom.Node, c *Context) (string, bool) {
	if i := c.SubstantialIndex(n); i >= 0 {
		return c.parity(i), true
	}
	return c.parity(c.CandidateIndex(n)), true
}
