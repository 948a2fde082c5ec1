package transcript

import (
	"strings"
	"testing"

	"github.com/hazyhaar/tokenwatch/conversation"
)

func TestTurn_SanitisesMarkup(t *testing.T) {
	r := New()
	got := r.Turn(conversation.Turn{
		Content: "fallback",
		Markup:  `<div><p>Use <strong>slices.Reverse</strong>.</p><script>alert(1)</script><button>Copy</button></div>`,
	})
	if !strings.Contains(got, "**slices.Reverse**") {
		t.Errorf("bold lost: %q", got)
	}
	for _, bad := range []string{"alert", "Copy", "<script"} {
		if strings.Contains(got, bad) {
			t.Errorf("output contains %q: %q", bad, got)
		}
	}
}

func TestTurn_FallsBackToContent(t *testing.T) {
	r := New()
	if got := r.Turn(conversation.Turn{Content: "plain text"}); got != "plain text" {
		t.Errorf("no markup: got %q", got)
	}
	if got := r.Turn(conversation.Turn{Content: "plain text", Markup: "<button>Copy</button>"}); got != "plain text" {
		t.Errorf("empty conversion: got %q", got)
	}
}

func TestRender(t *testing.T) {
	turns := []conversation.Turn{
		{Role: "user", Content: "How do I reverse a slice?", Index: 0},
		{Role: "assistant", Content: "Use slices.Reverse.", Index: 1},
	}
	got := New().Render(Header{Platform: "ChatGPT", URL: "https://chatgpt.com/c/1", Tokens: 42, MaxTokens: 8000}, turns)
	for _, want := range []string{
		"- Platform: ChatGPT",
		"- Estimated tokens: 42 / 8000",
		"- Turns: 2",
		"## 1. user\n\nHow do I reverse a slice?",
		"## 2. assistant\n\nUse slices.Reverse.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}
