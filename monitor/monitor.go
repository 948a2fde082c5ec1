// CLAUDE:SUMMARY Timer- and navigation-driven monitor loop: capture, resolve, scan, estimate, publish status and rate-limited warnings.
// Package monitor runs the estimation cycle against a live page and
// publishes the result to sinks.
//
// A cycle captures the page, resolves the platform, scans the turns and
// estimates the tokens, from scratch every time. Cycles run on a single
// goroutine: the periodic ticker, navigation events and settings changes
// are all handled by one select loop, so two cycles never overlap. A
// navigation publishes a zeroed status, stops the ticker and rescans once
// the page had time to settle, then restarts the ticker.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/tokenwatch/monitor/internal/sink"
	"github.com/hazyhaar/tokenwatch/monitor/report"
	"github.com/hazyhaar/tokenwatch/platform"
	"github.com/hazyhaar/tokenwatch/settings"
	"github.com/hazyhaar/tokenwatch/source"
)

// Config tunes the loop.
type Config struct {
	Settings settings.Settings

	// SettleDelay is the wait between a navigation and the rescan.
	// Default: 1s.
	SettleDelay time.Duration
	// WarnCooldown rate limits warning-level events. Default: 5m.
	WarnCooldown time.Duration
	// CriticalCooldown rate limits critical-level events. Default: 10m.
	CriticalCooldown time.Duration
}

func (c *Config) defaults() {
	if c.Settings == (settings.Settings{}) {
		c.Settings = settings.Defaults()
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = time.Second
	}
	if c.WarnCooldown <= 0 {
		c.WarnCooldown = 5 * time.Minute
	}
	if c.CriticalCooldown <= 0 {
		c.CriticalCooldown = 10 * time.Minute
	}
}

// Monitor watches one page.
type Monitor struct {
	src    source.Source
	engine *Engine
	cfg    Config
	sink   sink.Sink
	logger *slog.Logger

	settings atomic.Pointer[settings.Settings]
	updates  chan settings.Settings
	last     atomic.Pointer[report.Status]

	// Owned by the loop goroutine.
	lastURL  string
	lastWarn map[report.Level]time.Time

	now   func() time.Time
	newID func() string
}

// New creates a Monitor reading src. Reports go to every sink.
func New(src source.Source, engine *Engine, cfg Config, logger *slog.Logger, sinks ...Sink) *Monitor {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = NewEngine(nil, logger)
	}
	m := &Monitor{
		src:      src,
		engine:   engine,
		cfg:      cfg,
		sink:     sink.NewRouter(logger, sinks...),
		logger:   logger,
		updates:  make(chan settings.Settings, 1),
		lastWarn: make(map[report.Level]time.Time),
		now:      time.Now,
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	s := cfg.Settings
	if err := s.Validate(); err != nil {
		logger.Warn("monitor: invalid settings, using defaults", "error", err)
		s = settings.Defaults()
	}
	m.settings.Store(&s)
	return m
}

// Settings returns the settings the next cycle will use.
func (m *Monitor) Settings() settings.Settings { return *m.settings.Load() }

// UpdateSettings swaps the settings. The loop picks the new interval up
// immediately; the other options apply from the next cycle. Invalid
// settings are rejected and the current ones kept.
func (m *Monitor) UpdateSettings(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		m.logger.Warn("monitor: settings rejected", "error", err)
		return fmt.Errorf("monitor: update settings: %w", err)
	}
	m.settings.Store(&s)
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- s:
	default:
	}
	return nil
}

// Last returns the most recently published status.
func (m *Monitor) Last() (report.Status, bool) {
	if st := m.last.Load(); st != nil {
		return *st, true
	}
	return report.Status{}, false
}

// Engine returns the pass the monitor runs each cycle.
func (m *Monitor) Engine() *Engine { return m.engine }

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.Settings().UpdateInterval())
	defer ticker.Stop()

	var navC <-chan string
	if n, ok := m.src.(source.Navigator); ok {
		navC = n.Navigations()
	}

	var settle *time.Timer
	var settleC <-chan time.Time
	rearm := func() {
		ticker.Stop()
		if settle != nil {
			settle.Stop()
		}
		settle = time.NewTimer(m.cfg.SettleDelay)
		settleC = settle.C
	}

	m.logger.Info("monitor: started", "interval", m.Settings().UpdateInterval())
	if m.cycle(ctx) {
		rearm()
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			m.logger.Info("monitor: stopped")
			return nil

		case <-ticker.C:
			if m.cycle(ctx) {
				rearm()
			}

		case url := <-navC:
			if m.navigate(ctx, url) {
				rearm()
			}

		case <-settleC:
			settleC = nil
			if m.cycle(ctx) {
				rearm()
				continue
			}
			ticker.Reset(m.Settings().UpdateInterval())

		case <-m.updates:
			s := m.Settings()
			m.logger.Info("monitor: settings updated", "interval", s.UpdateInterval(), "enabled", s.Enabled)
			if settleC == nil {
				ticker.Reset(s.UpdateInterval())
			}
		}
	}
}

// Close closes the sinks and the source.
func (m *Monitor) Close() error {
	serr := m.sink.Close()
	if err := m.src.Close(); err != nil {
		return err
	}
	return serr
}

// cycle runs one pass. It reports true when the page URL changed since the
// previous cycle, in which case nothing was scanned and the caller must
// schedule a rescan.
func (m *Monitor) cycle(ctx context.Context) bool {
	c, err := m.src.Capture(ctx)
	if err != nil {
		m.logger.Warn("monitor: capture failed", "error", err)
		return false
	}
	if m.lastURL != "" && c.URL != m.lastURL {
		return m.navigate(ctx, c.URL)
	}
	m.lastURL = c.URL

	st, err := m.Evaluate(c)
	if err != nil {
		m.logger.Warn("monitor: evaluate failed", "url", c.URL, "error", err)
		return false
	}
	m.publish(ctx, st)
	return false
}

// navigate handles a route change: the previous count no longer applies, so
// a zeroed status for the new URL is published right away.
func (m *Monitor) navigate(ctx context.Context, url string) bool {
	if url == m.lastURL {
		return false
	}
	m.logger.Info("monitor: navigation", "from", m.lastURL, "to", url)
	m.lastURL = url
	s := m.Settings()
	det := m.engine.Registry.Resolve(platform.ParseLocation(url), nil)
	m.publish(ctx, m.status(url, Estimation{Detection: det}, s))
	return true
}

// Evaluate computes the status of a capture with the current settings.
func (m *Monitor) Evaluate(c *source.Capture) (report.Status, error) {
	s := m.Settings()
	if !s.Enabled {
		return m.status(c.URL, Estimation{}, s), nil
	}
	doc, err := c.Document()
	if err != nil {
		return report.Status{}, fmt.Errorf("monitor: parse page: %w", err)
	}
	est := m.engine.Evaluate(c.Location(), doc, s.IncludeCode)
	return m.status(c.URL, est, s), nil
}

func (m *Monitor) status(url string, est Estimation, s settings.Settings) report.Status {
	det := est.Detection
	maxTokens := s.MaxTokens
	if det.Config != nil {
		maxTokens = det.Config.TokenLimit
	}
	st := report.Status{
		CycleID:   m.newID(),
		URL:       url,
		Platform:  string(det.Platform),
		Name:      det.Name(),
		Supported: det.IsSupported,
		Enabled:   s.Enabled,
		Tokens:    est.Tokens,
		MaxTokens: maxTokens,
		Remaining: maxTokens - est.Tokens,
		Turns:     len(est.Scan.Turns),
		Tier:      est.Scan.TierName(),
		Timestamp: m.now().UnixMilli(),
	}
	if st.Platform == "" {
		st.Platform = "unknown"
	}
	if maxTokens > 0 {
		st.Percentage = float64(est.Tokens) / float64(maxTokens) * 100
	}
	if !s.Enabled || !det.IsSupported {
		st.Level = report.LevelIdle
		return st
	}
	st.Level = report.LevelFor(st.Percentage, st.Remaining, s.WarningThreshold, s.MinRemainingTokens)
	return st
}

func (m *Monitor) publish(ctx context.Context, st report.Status) {
	m.last.Store(&st)
	if err := m.sink.SendStatus(ctx, st); err != nil {
		m.logger.Warn("monitor: publish status", "error", err)
	}

	var cooldown time.Duration
	switch st.Level {
	case report.LevelWarning:
		cooldown = m.cfg.WarnCooldown
	case report.LevelCritical:
		cooldown = m.cfg.CriticalCooldown
	default:
		return
	}
	now := m.now()
	if last, ok := m.lastWarn[st.Level]; ok && now.Sub(last) < cooldown {
		return
	}
	m.lastWarn[st.Level] = now
	if err := m.sink.SendWarning(ctx, report.WarningFor(st)); err != nil {
		m.logger.Warn("monitor: publish warning", "error", err)
	}
}
