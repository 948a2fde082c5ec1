package extract

import (
	"testing"

	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/platform"
)

func parse(t *testing.T, s string) *dom.Document {
	t.Helper()
	d, err := dom.ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func config(t *testing.T, tag platform.Tag) *platform.Config {
	t.Helper()
	c, ok := platform.Default().Lookup(tag)
	if !ok {
		t.Fatalf("no config for %s", tag)
	}
	return c
}

func first(t *testing.T, d *dom.Document, sel string) *dom.Node {
	t.Helper()
	nodes := d.Query(sel)
	if len(nodes) == 0 {
		t.Fatalf("no node for %s", sel)
	}
	return nodes[0]
}

const fallbackPage = `<html><body>
<div class="group/conversation-turn">first turn</div>
<div class="group/conversation-turn">second turn</div>
<div data-testid="conversation-a">a</div>
<div data-testid="conversation-b">b</div>
<div data-testid="conversation-c">c</div>
</body></html>`

func TestCandidates_FirstMatchingFallbackOnly(t *testing.T) {
	got := Candidates(parse(t, fallbackPage), config(t, platform.ChatGPT))
	if len(got.Nodes) != 2 {
		t.Fatalf("nodes: got %d, want 2", len(got.Nodes))
	}
	if got.Tier != 1 || got.TierName() != "fallback[0]" {
		t.Errorf("tier: got %d (%s), want 1 (fallback[0])", got.Tier, got.TierName())
	}
	for _, n := range got.Nodes {
		if !n.HasClass("group/conversation-turn") {
			t.Errorf("node from a later tier: %s", n.HTML())
		}
	}
}

func TestCandidates_Primary(t *testing.T) {
	d := parse(t, `<div data-message-author-role="user">q</div><div data-message-author-role="assistant">a</div>`)
	got := Candidates(d, config(t, platform.ChatGPT))
	if got.Tier != 0 || len(got.Nodes) != 2 {
		t.Errorf("got tier %d with %d nodes, want primary with 2", got.Tier, len(got.Nodes))
	}
}

func TestCandidates_NoMatch(t *testing.T) {
	got := Candidates(parse(t, `<p>nothing</p>`), config(t, platform.ChatGPT))
	if got.Tier != NoTier || got.Nodes != nil || got.TierName() != "none" {
		t.Errorf("got %+v, want empty", got)
	}
	if got := Candidates(nil, nil); got.Tier != NoTier {
		t.Errorf("nil inputs: got tier %d", got.Tier)
	}
}

func TestCandidatesFrom_SkipsEarlierTiers(t *testing.T) {
	got := CandidatesFrom(parse(t, fallbackPage), config(t, platform.ChatGPT), 2)
	if got.Tier != 2 || len(got.Nodes) != 3 {
		t.Errorf("got tier %d with %d nodes, want 2 with 3", got.Tier, len(got.Nodes))
	}
}

func TestExtract_ContentSelectorDedupesNested(t *testing.T) {
	d := parse(t, `<div id="t"><div class="markdown"><p class="prose">Nested text here</p> tail</div><span>ignored chrome</span></div>`)
	e := Extract(first(t, d, "#t"), config(t, platform.ChatGPT))
	if e.Text != "Nested text here tail" {
		t.Errorf("Text: got %q", e.Text)
	}
	if e.Strategy != StrategyContentSelector {
		t.Errorf("Strategy: got %s, want content_selector", e.Strategy)
	}
}

func TestExtract_OwnText(t *testing.T) {
	d := parse(t, `<div id="t">A plain turn without markdown wrappers</div>`)
	e := Extract(first(t, d, "#t"), config(t, platform.ChatGPT))
	if e.Text != "A plain turn without markdown wrappers" || e.Strategy != StrategyOwnText {
		t.Errorf("got %q via %s", e.Text, e.Strategy)
	}
}

func TestExtract_Generic(t *testing.T) {
	d := parse(t, `<div id="t"><span>short</span></div>`)
	e := Extract(first(t, d, "#t"), config(t, platform.ChatGPT))
	if e.Text != "short" || e.Strategy != StrategyGeneric {
		t.Errorf("got %q via %s", e.Text, e.Strategy)
	}
	if e.Accepted() {
		t.Error("5 chars must not be accepted")
	}
}

func TestExtract_TextWalkSkipsButtons(t *testing.T) {
	d := parse(t, `<section id="t"><b>Hi there</b><button>Copy</button><i role="button">Edit</i></section>`)
	e := Extract(first(t, d, "#t"), config(t, platform.Claude))
	if e.Text != "Hi there" {
		t.Errorf("Text: got %q, want %q", e.Text, "Hi there")
	}
	if e.Strategy != StrategyTextWalk {
		t.Errorf("Strategy: got %s, want text_walk", e.Strategy)
	}

	// Non-aggressive platforms keep the chrome text.
	e = Extract(first(t, d, "#t"), config(t, platform.ChatGPT))
	if e.Strategy == StrategyTextWalk {
		t.Error("text walk must only run for aggressive platforms")
	}
}

func TestFirstBlock(t *testing.T) {
	d := parse(t, `<div id="t"><div>Copy this code snippet please now</div><div>tiny</div><div>A substantial paragraph of answer text</div></div>`)
	if got := firstBlock(first(t, d, "#t")); got != "A substantial paragraph of answer text" {
		t.Errorf("firstBlock: got %q", got)
	}
}

func TestExtract_Nil(t *testing.T) {
	if e := Extract(nil, nil); e.Text != "" || e.Strategy != StrategyNone {
		t.Errorf("got %+v", e)
	}
}

func TestAccept(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"123456789", false},
		{"1234567890", false},
		{"12345678901", true},
		{"   123456789   ", false},
		{"日本語のテキストです。長い", true},
	}
	for _, tt := range tests {
		if got := Accept(tt.text); got != tt.want {
			t.Errorf("Accept(%q): got %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestPrefilter_Claude(t *testing.T) {
	d := parse(t, `
<div id="hover" class="group-hover:visible">Some long enough hover text</div>
<div id="short">tiny</div>
<div id="label">Copy code to clipboard now</div>
<div id="blank">
</div>
<div id="ok" class="font-claude-message">A real answer with enough text</div>`)
	tests := []struct {
		id     string
		reject bool
	}{
		{"hover", true},
		{"short", true},
		{"label", true},
		{"blank", true},
		{"ok", false},
	}
	for _, tt := range tests {
		_, got := Prefilter(platform.Claude, first(t, d, "#"+tt.id))
		if got != tt.reject {
			t.Errorf("%s: got reject=%v, want %v", tt.id, got, tt.reject)
		}
	}
	if _, got := Prefilter(platform.ChatGPT, first(t, d, "#short")); got {
		t.Error("chatgpt has no pre-filter")
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  zero\u200bwidth \n\n  and\tspaces\ufeff ")
	if got != "zerowidth and spaces" {
		t.Errorf("CleanText: got %q", got)
	}
}

func TestContent_MarksCode(t *testing.T) {
	d := parse(t, `<div id="t"><div class="markdown">
<p>Call <code>f(x)</code> like this:</p>
<pre><code>def f(x):
    if x:
        return 1
</code></pre>
<pre> </pre>
</div></div>`)
	got := Content(first(t, d, "#t"), config(t, platform.ChatGPT))
	want := "Call `f(x)` like this: ```def f(x): if x: return 1```"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
