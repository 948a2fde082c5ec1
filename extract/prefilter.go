package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/platform"
)

// Filter rejects a candidate before extraction. It returns a reason when the
// node must be dropped.
type Filter func(n *dom.Node) (reason string, reject bool)

var chromeClasses = []string{"group-hover", "transition", "button", "cursor-"}

var chromeText = regexp.MustCompile(`^(Copy|Regenerate|Share|Edit|Delete|\s*$)`)

// chromeFilter drops hover, transition and button styled nodes along with
// nodes whose text is a toolbar label.
func chromeFilter(n *dom.Node) (string, bool) {
	class := n.ClassName()
	for _, c := range chromeClasses {
		if strings.Contains(class, c) {
			return "chrome class " + c, true
		}
	}
	text := n.Text()
	if utf8.RuneCountInString(text) < MinContentLen {
		return "short text", true
	}
	if chromeText.MatchString(text) {
		return "chrome label", true
	}
	return "", false
}

var filters = map[platform.Tag]Filter{
	platform.Claude: chromeFilter,
}

// Prefilter applies the platform's pre-filter, if any.
func Prefilter(tag platform.Tag, n *dom.Node) (string, bool) {
	f, ok := filters[tag]
	if !ok || n == nil {
		return "", false
	}
	return f(n)
}
