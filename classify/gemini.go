package classify

import (
	"strings"

	"github.com/hazyhaar/tokenwatch/dom"
)

var geminiBattery = []Heuristic{
	{"user_marker", geminiUser},
	{"model_marker", geminiModel},
	{"response_container", responseContainer},
	{"query_container", queryContainer},
}

func geminiUser(n *dom.Node, c *Context) (string, bool) {
	if n.HasClass("user-message") || strings.Contains(lowerAttr(n, "data-testid"), "user") {
		return c.User(), true
	}
	return "", false
}

func geminiModel(n *dom.Node, c *Context) (string, bool) {
	if n.HasClass("model-message") || strings.Contains(lowerAttr(n, "data-testid"), "model") {
		return c.Assistant(), true
	}
	return "", false
}

// responseContainer: model output is wrapped in a response container.
func responseContainer(n *dom.Node, c *Context) (string, bool) {
	if strings.Contains(n.ClassName(), "response-container") {
		return c.Assistant(), true
	}
	return "", false
}

func queryContainer(n *dom.Node, c *Context) (string, bool) {
	if containsAny(n.ClassName(), "query-input", "prompt", "user-query") {
		return c.User(), true
	}
	return "", false
}
