// CLAUDE:SUMMARY Persisted monitor options (enabled, includeCode, thresholds, interval) with validation and SQLite storage.
// Package settings holds the persisted configuration object read by the
// monitor: enable flag, code handling, warning thresholds, the fallback
// token ceiling and the rescan interval.
package settings

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is returned when settings fail validation.
var ErrInvalid = errors.New("settings: invalid")

// Settings are the user options. MaxTokens applies only when the platform
// does not declare its own ceiling.
type Settings struct {
	Enabled            bool `json:"enabled"`
	IncludeCode        bool `json:"includeCode"`
	WarningThreshold   int  `json:"warningThreshold"` // percent
	MinRemainingTokens int  `json:"minRemainingTokens"`
	MaxTokens          int  `json:"maxTokens"`
	UpdateIntervalMS   int  `json:"updateInterval"`
}

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{
		Enabled:            true,
		IncludeCode:        true,
		WarningThreshold:   80,
		MinRemainingTokens: 1000,
		MaxTokens:          8000,
		UpdateIntervalMS:   2000,
	}
}

// UpdateInterval returns the rescan period.
func (s Settings) UpdateInterval() time.Duration {
	return time.Duration(s.UpdateIntervalMS) * time.Millisecond
}

// Validate checks the option ranges.
func (s Settings) Validate() error {
	switch {
	case s.MaxTokens <= 0:
		return fmt.Errorf("%w: maxTokens must be positive", ErrInvalid)
	case s.MinRemainingTokens < 0 || s.MinRemainingTokens >= s.MaxTokens:
		return fmt.Errorf("%w: minRemainingTokens must be in [0, maxTokens)", ErrInvalid)
	case s.WarningThreshold <= 0 || s.WarningThreshold >= 100:
		return fmt.Errorf("%w: warningThreshold must be in (0, 100)", ErrInvalid)
	case s.UpdateIntervalMS < 100:
		return fmt.Errorf("%w: updateInterval must be at least 100ms", ErrInvalid)
	}
	return nil
}
