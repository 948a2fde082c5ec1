package monitor

import (
	"io"
	"log/slog"

	"github.com/hazyhaar/tokenwatch/monitor/internal/sink"
)

// Sink is the output interface for monitor reports.
type Sink = sink.Sink

// StatusFunc and WarningFunc are in-process report handlers.
type (
	StatusFunc  = sink.StatusFunc
	WarningFunc = sink.WarningFunc
)

// NewStdoutSink writes reports as JSON lines to w (os.Stdout when nil).
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink POSTs reports to url with retry and backoff.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	var opts []sink.WebhookOption
	if logger != nil {
		opts = append(opts, sink.WithWebhookLogger(logger))
	}
	return sink.NewWebhook(url, opts...)
}

// NewCallbackSink delivers reports as function calls. Either handler may
// be nil.
func NewCallbackSink(onStatus StatusFunc, onWarning WarningFunc) Sink {
	return sink.NewCallback(onStatus, onWarning)
}
