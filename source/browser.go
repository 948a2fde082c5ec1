package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserConfig configures a live Chrome source.
type BrowserConfig struct {
	URL string

	// RemoteURL is the DevTools WebSocket URL of an existing Chrome.
	// Empty launches a local one.
	RemoteURL string

	// Headful shows the window, for pages that require an interactive
	// login before the conversation is visible.
	Headful bool

	// NavTimeout bounds the initial navigation. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser reads a live page in a stealth Chrome tab. Every capture
// serialises the current DOM, so host-side mutations between captures are
// always reflected.
type Browser struct {
	cfg     BrowserConfig
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	nav     chan string
	stop    context.CancelFunc

	closeOnce sync.Once
}

// NewBrowser launches (or connects to) Chrome, opens cfg.URL and starts
// listening for route changes.
func NewBrowser(ctx context.Context, cfg BrowserConfig) (*Browser, error) {
	cfg.defaults()
	b := &Browser{cfg: cfg, nav: make(chan string, 8)}

	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(!cfg.Headful).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("source: launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		cfg.Logger.Info("source: launched local chrome", "url", wsURL, "headful", cfg.Headful)
	}

	b.browser = rod.New().ControlURL(wsURL)
	if err := b.browser.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("source: connect chrome: %w", err)
	}

	page, err := stealth.Page(b.browser)
	if err != nil {
		b.cleanup()
		return nil, fmt.Errorf("source: open tab: %w", err)
	}
	b.page = page

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(cfg.URL); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("source: navigate %s: %w", cfg.URL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		cfg.Logger.Warn("source: wait load", "url", cfg.URL, "error", err)
	}

	evCtx, stop := context.WithCancel(context.Background())
	b.stop = stop
	go b.watchNavigation(evCtx)
	return b, nil
}

// watchNavigation forwards main-frame navigations and same-document route
// changes (history.pushState, popstate) to the feed.
func (b *Browser) watchNavigation(ctx context.Context) {
	page := b.page.Context(ctx)
	wait := page.EachEvent(
		func(e *proto.PageFrameNavigated) {
			if e.Frame != nil && e.Frame.ParentID == "" {
				b.emit(e.Frame.URL)
			}
		},
		func(e *proto.PageNavigatedWithinDocument) {
			if e.FrameID == b.page.FrameID {
				b.emit(e.URL)
			}
		},
	)
	wait()
}

func (b *Browser) emit(url string) {
	select {
	case b.nav <- url:
	default:
		b.cfg.Logger.Debug("source: navigation feed full, dropping", "url", url)
	}
}

// Navigations reports URLs the tab navigated to.
func (b *Browser) Navigations() <-chan string { return b.nav }

// Capture serialises the current document and location.
func (b *Browser) Capture(ctx context.Context) (*Capture, error) {
	res, err := b.page.Context(ctx).Eval(`() => ({url: location.href, html: document.documentElement.outerHTML})`)
	if err != nil {
		return nil, fmt.Errorf("source: read DOM: %w", err)
	}
	return &Capture{
		URL:  res.Value.Get("url").Str(),
		HTML: []byte(res.Value.Get("html").Str()),
		At:   time.Now(),
	}, nil
}

// Close stops the event loop and shuts the tab and Chrome down.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if b.stop != nil {
			b.stop()
		}
		b.cleanup()
	})
	return nil
}

func (b *Browser) cleanup() {
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
	}
}
