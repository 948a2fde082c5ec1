package classify

import (
	"strings"

	"github.com/hazyhaar/tokenwatch/dom"
)

var grokBattery = []Heuristic{
	{"not_prose", notProse},
	{"tweet", grokTweet},
	{"user_testid", grokUser},
	{"grok_testid", grokAssistant},
	{"alternation", strictAlternation},
}

// notProse: grok.com renders answers in not-prose rich text blocks.
func notProse(n *dom.Node, c *Context) (string, bool) {
	if isNotProse(n) {
		return c.Assistant(), true
	}
	return "", false
}

func isNotProse(n *dom.Node) bool {
	return strings.Contains(n.ClassName(), "not-prose") || n.Closest(".not-prose") != nil
}

// grokTweet: on X a timeline cell is the assistant when it carries a Grok
// marker, otherwise the user.
func grokTweet(n *dom.Node, c *Context) (string, bool) {
	id := lowerAttr(n, "data-testid")
	if !containsAny(id, "tweet", "cellinnerdiv") {
		return "", false
	}
	if n.Has(`[data-testid*="grok" i]`) ||
		strings.Contains(n.Text(), "@grok") ||
		n.Closest(`[aria-label*="Grok"]`) != nil {
		return c.Assistant(), true
	}
	return c.User(), true
}

func grokUser(n *dom.Node, c *Context) (string, bool) {
	if strings.Contains(lowerAttr(n, "data-testid"), "user") || n.Closest(`[data-testid*="user" i]`) != nil {
		return c.User(), true
	}
	return "", false
}

func grokAssistant(n *dom.Node, c *Context) (string, bool) {
	if strings.Contains(lowerAttr(n, "data-testid"), "grok") || n.Closest(`[data-testid*="grok" i]`) != nil {
		return c.Assistant(), true
	}
	return "", false
}

// strictAlternation answers only for substantial candidates.
func strictAlternation(n *dom.Node, c *Context) (string, bool) {
	i := c.SubstantialIndex(n)
	if i < 0 {
		return "", false
	}
	return c.parity(i), true
}
