package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/extract"
	"github.com/hazyhaar/tokenwatch/platform"
)

// SubstantialLen is the content length above which a candidate takes part
// in positional alternation.
const SubstantialLen = 20

// ContentThresholds tune the content-pattern heuristic. The values are
// calibrated by inspection and meant to be adjusted.
type ContentThresholds struct {
	MinLen           int      `yaml:"min_len" json:"min_len"`
	UserMaxLen       int      `yaml:"user_max_len" json:"user_max_len"`
	AssistantMinLen  int      `yaml:"assistant_min_len" json:"assistant_min_len"`
	UserMarkers      []string `yaml:"user_markers" json:"user_markers"`
	AssistantMarkers []string `yaml:"assistant_markers" json:"assistant_markers"`
}

// DefaultThresholds returns the stock content-pattern calibration.
func DefaultThresholds() ContentThresholds {
	return ContentThresholds{
		MinLen:          10,
		UserMaxLen:      500,
		AssistantMinLen: 800,
		UserMarkers:     []string{"?", "？", "如何", "什麼", "為什麼", "幫我", "請", "可以", "能否", "我想", "我需要"},
		AssistantMarkers: []string{
			"I can", "I'll", "Let me", "Based on", "Here's", "I understand", "I'd be happy",
			"我可以", "讓我", "根據", "基於",
		},
	}
}

// Context is the per-pass state shared by heuristics: the platform config and
// the candidate set the node came from.
type Context struct {
	Config     *platform.Config
	Candidates []*dom.Node
	Thresholds ContentThresholds

	// Content extracts the text used for substantiality. Defaults to the
	// extraction cascade.
	Content func(n *dom.Node) string

	substantial []*dom.Node
	indexed     bool
}

// NewContext builds a classification context for one cascade pass.
func NewContext(cfg *platform.Config, candidates []*dom.Node) *Context {
	return &Context{
		Config:     cfg,
		Candidates: candidates,
		Thresholds: DefaultThresholds(),
	}
}

// User returns the platform's human role label.
func (c *Context) User() string { return c.Config.UserRole }

// Assistant returns the platform's assistant role label, or "assistant".
func (c *Context) Assistant() string {
	if c.Config.AssistantRole == "" {
		return "assistant"
	}
	return c.Config.AssistantRole
}

// Substantial returns the candidates whose content exceeds SubstantialLen,
// computed once per context.
func (c *Context) Substantial() []*dom.Node {
	if c.indexed {
		return c.substantial
	}
	c.indexed = true
	content := c.Content
	if content == nil {
		content = func(n *dom.Node) string { return extract.Content(n, c.Config) }
	}
	for _, n := range c.Candidates {
		if runes(content(n)) > SubstantialLen {
			c.substantial = append(c.substantial, n)
		}
	}
	return c.substantial
}

// SubstantialIndex returns the position of n among substantial candidates,
// or -1.
func (c *Context) SubstantialIndex(n *dom.Node) int {
	return indexOf(c.Substantial(), n)
}

// CandidateIndex returns the position of n in the candidate set, or -1.
func (c *Context) CandidateIndex(n *dom.Node) int {
	return indexOf(c.Candidates, n)
}

// parity maps an even index to the user role and anything else, including
// -1, to the assistant role.
func (c *Context) parity(i int) string {
	if i >= 0 && i%2 == 0 {
		return c.User()
	}
	return c.Assistant()
}

func indexOf(nodes []*dom.Node, n *dom.Node) int {
	for i, m := range nodes {
		if m.Is(n) {
			return i
		}
	}
	return -1
}

func runes(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

func lowerAttr(n *dom.Node, key string) string {
	return strings.ToLower(n.AttrOr(key))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
