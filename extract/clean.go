package extract

import (
	"regexp"
	"strings"
)

var multiSpaceRe = regexp.MustCompile(`\s+`)

// CleanText normalises extracted turn text: it removes zero-width
// characters, collapses whitespace runs to one space and trims.
func CleanText(text string) string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad':
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(text, " "))
}
