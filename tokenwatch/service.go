// CLAUDE:SUMMARY Service orchestrator: platform registry, settings store, engine, optional page monitor, and the transport-neutral operations behind HTTP and MCP.
// Package tokenwatch is the token budget service for AI chat pages.
//
// It wires the extraction engine to its collaborators:
//
//	source → monitor (resolve → scan → estimate) → sinks
//	settings store ──hot reload──┘
//
// and exposes one-shot estimation, platform listing, settings and the live
// status over HTTP and MCP.
//
// Usage:
//
//	svc, err := tokenwatch.New(cfg, logger)
//	defer svc.Close()
//	svc.RegisterMCP(mcpServer)
//	http.ListenAndServe(cfg.Listen, svc.Router())
//	svc.Start(ctx)
package tokenwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hazyhaar/tokenwatch/conversation"
	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/monitor"
	"github.com/hazyhaar/tokenwatch/monitor/report"
	"github.com/hazyhaar/tokenwatch/platform"
	"github.com/hazyhaar/tokenwatch/settings"
	"github.com/hazyhaar/tokenwatch/source"
	"github.com/hazyhaar/tokenwatch/transcript"
)

var (
	// ErrBadRequest marks caller errors.
	ErrBadRequest = errors.New("tokenwatch: bad request")
	// ErrNoMonitor is returned by Status when no page is monitored.
	ErrNoMonitor = errors.New("tokenwatch: no page monitored")
)

// Service is the tokenwatch orchestrator.
type Service struct {
	config   *Config
	registry *platform.Registry
	engine   *monitor.Engine
	store    *settings.Store
	render   *transcript.Renderer
	logger   *slog.Logger

	mon *monitor.Monitor
}

// New opens the settings database and loads the platform registry.
func New(cfg *Config, logger *slog.Logger) (*Service, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	reg := platform.Default()
	if cfg.PlatformsFile != "" {
		overrides, err := platform.LoadOverrides(cfg.PlatformsFile)
		if err != nil {
			return nil, fmt.Errorf("tokenwatch: platforms file: %w", err)
		}
		if err := reg.Apply(overrides); err != nil {
			return nil, fmt.Errorf("tokenwatch: platforms file: %w", err)
		}
	}

	store, err := settings.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}

	engine := monitor.NewEngine(reg, logger)
	engine.Thresholds = cfg.Classify

	return &Service{
		config:   cfg,
		registry: reg,
		engine:   engine,
		store:    store,
		render:   transcript.New(),
		logger:   logger,
	}, nil
}

// Start opens the configured page and runs the monitor and the settings
// hot reload until ctx is cancelled. Without a page URL it does nothing.
func (s *Service) Start(ctx context.Context) error {
	if s.config.Page.URL == "" {
		return nil
	}
	src, err := s.openSource(ctx)
	if err != nil {
		return err
	}
	sinks, err := s.openSinks()
	if err != nil {
		src.Close()
		return err
	}
	current, err := s.store.Load(ctx)
	if err != nil {
		src.Close()
		return err
	}

	s.mon = monitor.New(src, s.engine, monitor.Config{
		Settings:         current,
		SettleDelay:      s.config.Monitor.SettleDelay,
		WarnCooldown:     s.config.Monitor.WarnCooldown,
		CriticalCooldown: s.config.Monitor.CriticalCooldown,
	}, s.logger, sinks...)

	w := settings.NewWatcher(s.store, settings.WatchOptions{Interval: s.config.Monitor.ReloadInterval})
	go w.Run(ctx, func(next settings.Settings) { s.mon.UpdateSettings(next) })
	go func() {
		if err := s.mon.Run(ctx); err != nil {
			s.logger.Error("tokenwatch: monitor", "error", err)
		}
	}()
	s.logger.Info("tokenwatch: started", "url", s.config.Page.URL, "source", s.config.Page.Source)
	return nil
}

func (s *Service) openSource(ctx context.Context) (source.Source, error) {
	p := s.config.Page
	switch p.Source {
	case "browser":
		return source.NewBrowser(ctx, source.BrowserConfig{
			URL:        p.URL,
			RemoteURL:  s.config.Browser.Remote,
			Headful:    s.config.Browser.Headful,
			NavTimeout: s.config.Browser.NavTimeout,
			Logger:     s.logger,
		})
	case "http":
		return source.NewHTTP(p.URL, source.WithLogger(s.logger)), nil
	case "file":
		if p.File == "" {
			return nil, fmt.Errorf("tokenwatch: page source file needs page.file")
		}
		return source.NewFile(p.URL, p.File), nil
	}
	return nil, fmt.Errorf("tokenwatch: unknown page source %q", p.Source)
}

func (s *Service) openSinks() ([]monitor.Sink, error) {
	var out []monitor.Sink
	for _, sc := range s.config.Sinks {
		switch sc.Type {
		case "stdout":
			out = append(out, monitor.NewStdoutSink(nil))
		case "stderr":
			out = append(out, monitor.NewStdoutSink(os.Stderr))
		case "webhook":
			if sc.URL == "" {
				return nil, fmt.Errorf("tokenwatch: webhook sink needs a url")
			}
			out = append(out, monitor.NewWebhookSink(sc.URL, s.logger))
		default:
			return nil, fmt.Errorf("tokenwatch: unknown sink type %q", sc.Type)
		}
	}
	return out, nil
}

// Close stops using the page and closes the settings database.
func (s *Service) Close() error {
	if s.mon != nil {
		if err := s.mon.Close(); err != nil {
			s.logger.Warn("tokenwatch: close monitor", "error", err)
		}
	}
	return s.store.Close()
}

// Registry returns the platform registry in use.
func (s *Service) Registry() *platform.Registry { return s.registry }

// --- operations ---

// PageRequest is a one-shot estimation of a page snapshot. IncludeCode
// defaults to the stored setting.
type PageRequest struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	IncludeCode *bool  `json:"include_code,omitempty"`
}

// PageEstimate is the result of EstimatePage.
type PageEstimate struct {
	Platform  platform.Tag        `json:"platform"`
	Name      string              `json:"name"`
	Supported bool                `json:"supported"`
	Enabled   bool                `json:"enabled"`
	Tier      string              `json:"tier,omitempty"`
	Tokens    int                 `json:"tokens"`
	MaxTokens int                 `json:"max_tokens"`
	Turns     []conversation.Turn `json:"turns"`
	Dropped   []conversation.Drop `json:"dropped,omitempty"`
}

// EstimatePage extracts the conversation of an HTML snapshot and estimates
// its size.
func (s *Service) EstimatePage(ctx context.Context, req PageRequest) (*PageEstimate, error) {
	est, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	det := est.Detection
	turns := est.Scan.Turns
	if turns == nil {
		turns = []conversation.Turn{}
	}
	return &PageEstimate{
		Platform:  det.Platform,
		Name:      det.Name(),
		Supported: det.IsSupported,
		Enabled:   det.IsEnabled,
		Tier:      est.Scan.TierName(),
		Tokens:    est.Tokens,
		MaxTokens: det.TokenLimit(),
		Turns:     turns,
		Dropped:   est.Scan.Dropped,
	}, nil
}

// Transcript renders the conversation of an HTML snapshot as Markdown.
func (s *Service) Transcript(ctx context.Context, req PageRequest) (string, error) {
	est, err := s.evaluate(ctx, req)
	if err != nil {
		return "", err
	}
	return s.render.Render(transcript.Header{
		Platform:  est.Detection.Name(),
		URL:       req.URL,
		Tokens:    est.Tokens,
		MaxTokens: est.Detection.TokenLimit(),
	}, est.Scan.Turns), nil
}

func (s *Service) evaluate(ctx context.Context, req PageRequest) (monitor.Estimation, error) {
	if strings.TrimSpace(req.HTML) == "" {
		return monitor.Estimation{}, fmt.Errorf("%w: html is required", ErrBadRequest)
	}
	includeCode, err := s.includeCode(ctx, req.IncludeCode)
	if err != nil {
		return monitor.Estimation{}, err
	}
	doc, err := dom.ParseString(req.HTML)
	if err != nil {
		return monitor.Estimation{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.engine.Evaluate(platform.ParseLocation(req.URL), doc, includeCode), nil
}

// TextRequest estimates a free text blob.
type TextRequest struct {
	Text        string `json:"text"`
	IncludeCode *bool  `json:"include_code,omitempty"`
}

// TextEstimate is the result of EstimateText.
type TextEstimate struct {
	Tokens int `json:"tokens"`
	Chars  int `json:"chars"`
}

// EstimateText estimates a single text.
func (s *Service) EstimateText(ctx context.Context, req TextRequest) (*TextEstimate, error) {
	includeCode, err := s.includeCode(ctx, req.IncludeCode)
	if err != nil {
		return nil, err
	}
	return &TextEstimate{
		Tokens: s.engine.Estimator.Text(req.Text, includeCode),
		Chars:  len([]rune(req.Text)),
	}, nil
}

func (s *Service) includeCode(ctx context.Context, override *bool) (bool, error) {
	if override != nil {
		return *override, nil
	}
	cur, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	return cur.IncludeCode, nil
}

// PlatformInfo describes one registered platform.
type PlatformInfo struct {
	Tag        platform.Tag `json:"tag"`
	Name       string       `json:"name"`
	Domains    []string     `json:"domains"`
	Enabled    bool         `json:"enabled"`
	TokenLimit int          `json:"token_limit"`
}

// PlatformList is the registry in priority order plus the page match
// patterns a browser integration should be granted.
type PlatformList struct {
	Platforms     []PlatformInfo `json:"platforms"`
	MatchPatterns []string       `json:"match_patterns"`
}

// Platforms lists the registry.
func (s *Service) Platforms() PlatformList {
	var out PlatformList
	for _, c := range s.registry.All() {
		out.Platforms = append(out.Platforms, PlatformInfo{
			Tag:        c.Tag,
			Name:       c.Name,
			Domains:    c.Domains,
			Enabled:    c.Enabled,
			TokenLimit: c.TokenLimit,
		})
	}
	out.MatchPatterns = s.registry.SupportedDomains()
	return out
}

// Debug explains how a page resolves: per-platform domain and URL pattern
// matches and, when HTML is given, which selectors are present.
func (s *Service) Debug(_ context.Context, req PageRequest) (platform.DebugInfo, error) {
	loc := platform.ParseLocation(req.URL)
	if strings.TrimSpace(req.HTML) == "" {
		if loc.Hostname == "" {
			return platform.DebugInfo{}, fmt.Errorf("%w: url or html is required", ErrBadRequest)
		}
		return s.registry.Debug(loc, nil), nil
	}
	doc, err := dom.ParseString(req.HTML)
	if err != nil {
		return platform.DebugInfo{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.registry.Debug(loc, doc), nil
}

// Status returns the last status published by the monitor.
func (s *Service) Status() (report.Status, error) {
	if s.mon == nil {
		return report.Status{}, ErrNoMonitor
	}
	st, ok := s.mon.Last()
	if !ok {
		return report.Status{}, fmt.Errorf("%w: no cycle completed yet", ErrNoMonitor)
	}
	return st, nil
}

// Settings returns the stored settings.
func (s *Service) Settings(ctx context.Context) (settings.Settings, error) {
	return s.store.Load(ctx)
}

// UpdateSettings validates and stores new settings, and hands them to the
// running monitor without waiting for the hot reload.
func (s *Service) UpdateSettings(ctx context.Context, in settings.Settings) error {
	if err := s.store.Save(ctx, in); err != nil {
		if errors.Is(err, settings.ErrInvalid) {
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return err
	}
	if s.mon != nil {
		return s.mon.UpdateSettings(in)
	}
	return nil
}

// ResetSettings restores the factory settings and returns them.
func (s *Service) ResetSettings(ctx context.Context) (settings.Settings, error) {
	if err := s.store.Reset(ctx); err != nil {
		return settings.Settings{}, err
	}
	cur, err := s.store.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	if s.mon != nil {
		if err := s.mon.UpdateSettings(cur); err != nil {
			return settings.Settings{}, err
		}
	}
	return cur, nil
}
