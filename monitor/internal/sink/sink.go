// Package sink defines output backends for monitor reports.
package sink

import (
	"context"

	"github.com/hazyhaar/tokenwatch/monitor/report"
)

// Sink delivers statuses and warnings to a backend (stdout, webhook,
// in-process callback).
type Sink interface {
	SendStatus(ctx context.Context, s report.Status) error
	SendWarning(ctx context.Context, w report.Warning) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
