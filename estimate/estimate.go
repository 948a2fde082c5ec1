// CLAUDE:SUMMARY Calibrated word/char token estimator for free text and classified conversation turns.
// Package estimate converts text and turn lists into an approximate token
// count. The constants are calibration parameters, not derived from any real
// tokenizer: the result is meant to warn early, not to match a vendor bill.
package estimate

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Message is the minimal view of a turn the estimator needs.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Estimator holds the calibration parameters.
type Estimator struct {
	// Rate is the number of tokens per whitespace-separated word.
	Rate float64
	// CharRate is the number of tokens per character, used when the text
	// has no words.
	CharRate float64
	// Buffer is the overhead multiplier applied before rounding up.
	Buffer float64
	// TurnOverhead is added per turn for role and formatting tokens.
	TurnOverhead int
	// ConversationOverhead is added once per conversation.
	ConversationOverhead int
}

// Default returns the stock calibration: 1.3 tokens/word, 0.25 tokens/char,
// a 1.15 buffer, 4 tokens per turn and 3 per conversation.
func Default() Estimator {
	return Estimator{
		Rate:                 1.3,
		CharRate:             0.25,
		Buffer:               1.15,
		TurnOverhead:         4,
		ConversationOverhead: 3,
	}
}

// Text estimates a single blob. Code regions are stripped first unless
// includeCode is set. Empty input yields 0, anything else at least 1.
func (e Estimator) Text(text string, includeCode bool) int {
	if text == "" {
		return 0
	}
	processed := text
	if !includeCode {
		processed = StripCode(text)
	}

	var base float64
	if words := len(strings.Fields(processed)); words > 0 {
		base = float64(words) * e.Rate
	} else {
		base = float64(utf8.RuneCountInString(processed)) * e.CharRate
	}
	return max(int(math.Ceil(base*e.Buffer)), 1)
}

// Conversation sums per-turn estimates plus per-turn and per-conversation
// overhead. Turns without a role or content are skipped. A nil or empty
// list yields 0.
func (e Estimator) Conversation(turns []Message, includeCode bool) int {
	if len(turns) == 0 {
		return 0
	}
	total := 0
	for _, t := range turns {
		if t.Role == "" || t.Content == "" {
			continue
		}
		total += e.Text(t.Content, includeCode) + e.TurnOverhead
	}
	return total + e.ConversationOverhead
}

var std = Default()

// Text estimates text with the default calibration.
func Text(text string, includeCode bool) int { return std.Text(text, includeCode) }

// Conversation estimates turns with the default calibration.
func Conversation(turns []Message, includeCode bool) int {
	return std.Conversation(turns, includeCode)
}
