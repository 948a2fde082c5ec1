// CLAUDE:SUMMARY Page acquisition: static HTML, plain HTTP GET, or a live stealth Chrome tab with a navigation feed.
// Package source acquires the page the engine reads: its location and a
// point-in-time copy of its markup. Sources never interpret the page.
package source

import (
	"context"
	"time"

	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/platform"
)

// Capture is one read of the page.
type Capture struct {
	URL  string
	HTML []byte
	At   time.Time
}

// Document parses the captured markup.
func (c *Capture) Document() (*dom.Document, error) {
	return dom.ParseBytes(c.HTML)
}

// Location returns the parsed page address.
func (c *Capture) Location() platform.Location {
	return platform.ParseLocation(c.URL)
}

// Source produces captures on demand.
type Source interface {
	Capture(ctx context.Context) (*Capture, error)
	Close() error
}

// Navigator is implemented by sources that can report route changes as they
// happen. Sources without it are checked for URL changes between captures.
type Navigator interface {
	Navigations() <-chan string
}
