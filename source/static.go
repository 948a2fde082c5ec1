package source

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Static serves fixed markup, or re-reads a file on every capture.
type Static struct {
	url  string
	html []byte
	path string
}

// NewStatic returns a source that always captures html at url.
func NewStatic(url string, html []byte) *Static {
	return &Static{url: url, html: html}
}

// NewFile returns a source that reads path on every capture, so edits to
// the file show up on the next cycle.
func NewFile(url, path string) *Static {
	return &Static{url: url, path: path}
}

func (s *Static) Capture(_ context.Context) (*Capture, error) {
	html := s.html
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("source: read %s: %w", s.path, err)
		}
		html = data
	}
	return &Capture{URL: s.url, HTML: html, At: time.Now()}, nil
}

func (s *Static) Close() error { return nil }
