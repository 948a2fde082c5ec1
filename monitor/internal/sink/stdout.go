package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/tokenwatch/monitor/report"
)

// Stdout writes JSON lines to an io.Writer (default os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) SendStatus(_ context.Context, st report.Status) error {
	return s.write(envelope{Type: "status", Data: st})
}

func (s *Stdout) SendWarning(_ context.Context, w report.Warning) error {
	return s.write(envelope{Type: "warning", Data: w})
}

func (s *Stdout) write(e envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(e)
}

func (s *Stdout) Close() error { return nil }
