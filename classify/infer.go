package classify

import (
	"strings"

	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/platform"
)

// Inferrer guesses a role for substantial content the battery could not
// place. Counting does not depend on which party spoke, so the guess leans
// to the assistant.
type Inferrer func(n *dom.Node, c *Context) (string, bool)

var inferrers = map[platform.Tag]Inferrer{
	platform.Gemini: func(n *dom.Node, c *Context) (string, bool) {
		if strings.Contains(n.ClassName(), "response-container") || n.Has(`.model-response-text, .formatted-text`) {
			return c.Assistant(), true
		}
		return "", false
	},
	platform.Grok: func(n *dom.Node, c *Context) (string, bool) {
		if isNotProse(n) {
			return c.Assistant(), true
		}
		return "", false
	},
}

// Infer returns the platform's default role for n.
func Infer(n *dom.Node, c *Context) string {
	if f, ok := inferrers[c.Config.Tag]; ok {
		if role, ok := f(n, c); ok {
			return role
		}
	}
	return c.Assistant()
}
