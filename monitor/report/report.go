// Package report defines the values the monitor publishes to UI sinks.
// These are the public contract: any consumer (HUD, notifier, dashboard)
// imports this package to decode what the monitor emits.
package report

// Level is the budget state of the conversation.
type Level string

const (
	LevelIdle     Level = "idle"     // disabled or unsupported page
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"  // past the warning threshold or low on remaining tokens
	LevelCritical Level = "critical" // at or past 95% of the ceiling
)

// CriticalPercent is the usage at which the level turns critical.
const CriticalPercent = 95.0

// Status is the result of one monitor cycle.
type Status struct {
	CycleID    string  `json:"cycle_id"`
	URL        string  `json:"url"`
	Platform   string  `json:"platform"`
	Name       string  `json:"name"`
	Supported  bool    `json:"supported"`
	Enabled    bool    `json:"enabled"`
	Tokens     int     `json:"tokens"`
	MaxTokens  int     `json:"max_tokens"`
	Remaining  int     `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Level      Level   `json:"level"`
	Turns      int     `json:"turns"`
	Tier       string  `json:"tier,omitempty"`
	Timestamp  int64   `json:"timestamp"` // epoch milliseconds
}

// Warning is emitted when a cycle enters the warning or critical level,
// rate limited per level.
type Warning struct {
	Level      Level   `json:"level"`
	URL        string  `json:"url"`
	Platform   string  `json:"platform"`
	Tokens     int     `json:"tokens"`
	MaxTokens  int     `json:"max_tokens"`
	Remaining  int     `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Timestamp  int64   `json:"timestamp"`
}

// WarningFor derives the warning event of a status.
func WarningFor(s Status) Warning {
	return Warning{
		Level:      s.Level,
		URL:        s.URL,
		Platform:   s.Platform,
		Tokens:     s.Tokens,
		MaxTokens:  s.MaxTokens,
		Remaining:  s.Remaining,
		Percentage: s.Percentage,
		Timestamp:  s.Timestamp,
	}
}

// LevelFor computes the level of a usage figure. warnPercent and
// minRemaining come from the user settings.
func LevelFor(percentage float64, remaining, warnPercent, minRemaining int) Level {
	switch {
	case percentage >= CriticalPercent:
		return LevelCritical
	case percentage >= float64(warnPercent) || remaining <= minRemaining:
		return LevelWarning
	}
	return LevelNormal
}
