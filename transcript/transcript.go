// CLAUDE:SUMMARY Renders an extracted turn list as a sanitised Markdown transcript for the report collaborator.
// Package transcript renders the turn list of a conversation as Markdown.
// Turn markup is sanitised with bluemonday before conversion so scripts,
// styles and toolbar buttons never reach the output.
package transcript

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/tokenwatch/conversation"
)

// Header is the metadata printed above the turns.
type Header struct {
	Platform  string
	URL       string
	Tokens    int
	MaxTokens int
}

// Renderer converts turns to Markdown. It is safe for concurrent use.
type Renderer struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// New returns a Renderer with the UGC sanitising policy.
func New() *Renderer {
	p := bluemonday.UGCPolicy()
	p.SkipElementsContent("button", "svg", "nav")
	return &Renderer{
		policy: p,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Turn converts one turn to Markdown, falling back to its plain content when
// the markup is missing or converts to nothing.
func (r *Renderer) Turn(t conversation.Turn) string {
	if t.Markup == "" {
		return t.Content
	}
	md, err := r.conv.ConvertString(r.policy.Sanitize(t.Markup))
	if err != nil || strings.TrimSpace(md) == "" {
		return t.Content
	}
	return strings.TrimSpace(md)
}

// Render writes the full transcript.
func (r *Renderer) Render(h Header, turns []conversation.Turn) string {
	var sb strings.Builder
	sb.WriteString("# Conversation transcript\n\n")
	if h.Platform != "" {
		fmt.Fprintf(&sb, "- Platform: %s\n", h.Platform)
	}
	if h.URL != "" {
		fmt.Fprintf(&sb, "- URL: %s\n", h.URL)
	}
	if h.MaxTokens > 0 {
		fmt.Fprintf(&sb, "- Estimated tokens: %d / %d\n", h.Tokens, h.MaxTokens)
	} else {
		fmt.Fprintf(&sb, "- Estimated tokens: %d\n", h.Tokens)
	}
	fmt.Fprintf(&sb, "- Turns: %d\n", len(turns))

	for _, t := range turns {
		fmt.Fprintf(&sb, "\n## %d. %s\n\n", t.Index+1, t.Role)
		sb.WriteString(r.Turn(t))
		sb.WriteByte('\n')
	}
	return sb.String()
}
