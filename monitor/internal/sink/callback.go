package sink

import (
	"context"

	"github.com/hazyhaar/tokenwatch/monitor/report"
)

// StatusFunc is called for each status.
type StatusFunc func(ctx context.Context, s report.Status) error

// WarningFunc is called for each warning.
type WarningFunc func(ctx context.Context, w report.Warning) error

// Callback delivers reports via Go function calls, for consumers living in
// the same binary.
type Callback struct {
	onStatus  StatusFunc
	onWarning WarningFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onStatus StatusFunc, onWarning WarningFunc) *Callback {
	return &Callback{onStatus: onStatus, onWarning: onWarning}
}

func (c *Callback) SendStatus(ctx context.Context, s report.Status) error {
	if c.onStatus != nil {
		return c.onStatus(ctx, s)
	}
	return nil
}

func (c *Callback) SendWarning(ctx context.Context, w report.Warning) error {
	if c.onWarning != nil {
		return c.onWarning(ctx, w)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
