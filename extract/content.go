package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/platform"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Cascade thresholds, in runes. A strategy runs only when the text gathered
// so far is shorter than its threshold.
const (
	genericBelow  = 10 // own text -> generic containers
	walkBelow     = 20 // generic containers -> text walk (aggressive)
	blockBelow    = 10 // text walk -> block scan (aggressive)
	blockMinLen   = 20 // block scan picks the first block longer than this
	MinContentLen = 10 // accepted turns are strictly longer than this
)

// genericContainers are the text-bearing tags tried by the third strategy.
const genericContainers = `p, div, span, [dir="auto"], pre, code`

// uiChrome are label fragments that disqualify a block in the block scan.
var uiChrome = []string{"Copy", "Regenerate"}

// Strategy identifies which cascade step produced the text.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyContentSelector
	StrategyOwnText
	StrategyGeneric
	StrategyTextWalk
	StrategyBlockScan
)

func (s Strategy) String() string {
	switch s {
	case StrategyContentSelector:
		return "content_selector"
	case StrategyOwnText:
		return "own_text"
	case StrategyGeneric:
		return "generic"
	case StrategyTextWalk:
		return "text_walk"
	case StrategyBlockScan:
		return "block_scan"
	}
	return "none"
}

// Extraction is the text recovered from one node.
type Extraction struct {
	Text     string
	Strategy Strategy
}

// Accepted reports whether the text is long enough to be a turn.
func (e Extraction) Accepted() bool {
	return Accept(e.Text)
}

// Accept reports whether text is long enough to be a turn.
func Accept(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > MinContentLen
}

// Content returns the cleaned text of n. It may be empty.
func Content(n *dom.Node, cfg *platform.Config) string {
	return Extract(n, cfg).Text
}

// Extract runs the content cascade on n. Each strategy is more permissive
// than the last and only runs while the text found so far is too short.
func Extract(n *dom.Node, cfg *platform.Config) Extraction {
	if n == nil {
		return Extraction{}
	}
	var e Extraction
	set := func(text string, s Strategy) {
		e.Text = strings.TrimSpace(text)
		e.Strategy = s
	}

	if cfg != nil {
		if text := joinOutermost(n.Query(cfg.Selectors.Content)); text != "" {
			set(text, StrategyContentSelector)
		}
	}
	if e.Text == "" {
		set(markedText(n.Raw(), nil), StrategyOwnText)
	}
	if runes(e.Text) < genericBelow {
		if text := joinOutermost(n.Query(genericContainers)); text != "" {
			set(text, StrategyGeneric)
		}
	}
	aggressive := cfg != nil && cfg.Aggressive
	if aggressive && runes(e.Text) < walkBelow {
		if text := markedText(n.Raw(), isButton); text != "" {
			set(text, StrategyTextWalk)
		}
	}
	if aggressive && runes(e.Text) < blockBelow {
		if text := firstBlock(n); text != "" {
			set(text, StrategyBlockScan)
		}
	}
	if e.Text == "" {
		e.Strategy = StrategyNone
	}
	e.Text = CleanText(e.Text)
	return e
}

// joinOutermost joins the text of matches, skipping empty ones and matches
// nested inside another match so no text is counted twice.
func joinOutermost(nodes []*dom.Node) string {
	if len(nodes) == 0 {
		return ""
	}
	matched := make(map[*html.Node]bool, len(nodes))
	for _, m := range nodes {
		matched[m.Raw()] = true
	}
	var parts []string
	for _, m := range nodes {
		if nestedIn(m.Raw(), matched) {
			continue
		}
		if text := markedText(m.Raw(), nil); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func nestedIn(n *html.Node, set map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if set[p] {
			return true
		}
	}
	return false
}

// isButton reports whether an element is interactive chrome whose label must
// not leak into turn text.
func isButton(n *html.Node) bool {
	if n.DataAtom == atom.Button {
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "role":
			if a.Val == "button" {
				return true
			}
		case "class":
			for _, c := range strings.Fields(a.Val) {
				if c == "button" {
					return true
				}
			}
		}
	}
	return false
}

func firstBlock(n *dom.Node) string {
	for _, div := range n.Query("div") {
		text := markedText(div.Raw(), nil)
		if runes(text) <= blockMinLen || containsAny(text, uiChrome) {
			continue
		}
		return text
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func runes(s string) int { return utf8.RuneCountInString(s) }
