package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/tokenwatch/monitor/report"
)

// Router fans out reports to all configured sinks. One sink error does not
// block the others; errors are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) SendStatus(ctx context.Context, s report.Status) error {
	return r.each(func(sk Sink) error { return sk.SendStatus(ctx, s) }, "status")
}

func (r *Router) SendWarning(ctx context.Context, w report.Warning) error {
	return r.each(func(sk Sink) error { return sk.SendWarning(ctx, w) }, "warning")
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) each(send func(Sink) error, what string) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := send(s); err != nil {
			r.logger.Warn("sink: send failed", "type", what, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
