package estimate

import (
	"regexp"
	"strings"
)

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```.*?```"),
	regexp.MustCompile("`[^`\n]*`"),
	regexp.MustCompile(`(?is)<pre.*?</pre>`),
	regexp.MustCompile(`(?is)<code.*?</code>`),
	regexp.MustCompile(`(?m)^[ \t]{4,}.*$`),
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// StripCode removes fenced blocks, inline code spans, pre/code markup and
// indented code lines, then collapses blank lines.
func StripCode(text string) string {
	for _, re := range codePatterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n"))
}
