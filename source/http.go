package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxBody caps a fetched page at 10 MiB.
const maxBody = 10 << 20

// HTTP captures a page with a plain GET. No JavaScript runs, so it only
// sees server-rendered conversations (shared links, exports).
type HTTP struct {
	url    string
	client *http.Client
	ua     string
	logger *slog.Logger
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*HTTP)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) { h.ua = ua }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) { h.logger = l }
}

// NewHTTP creates an HTTP source for url.
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		ua:     "Mozilla/5.0 (compatible; TokenWatch/1.0)",
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *HTTP) Capture(ctx context.Context) (*Capture, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("source: new request: %w", err)
	}
	req.Header.Set("User-Agent", h.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("source: get %s: status %d", h.url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("source: read body: %w", err)
	}

	final := h.url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	h.logger.Debug("source: fetched", "url", final, "status", resp.StatusCode, "size", len(body))
	return &Capture{URL: final, HTML: body, At: time.Now()}, nil
}

func (h *HTTP) Close() error { return nil }
