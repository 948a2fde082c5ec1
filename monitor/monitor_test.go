package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/tokenwatch/monitor/report"
	"github.com/hazyhaar/tokenwatch/platform"
	"github.com/hazyhaar/tokenwatch/settings"
	"github.com/hazyhaar/tokenwatch/source"
)

// Two turns: 12+4 and 9+4 tokens, plus 3 for the conversation.
const chatPage = `<html><body><main>
<div data-message-author-role="user"><div class="whitespace-pre-wrap">How do I reverse a slice in Go?</div></div>
<div data-message-author-role="assistant"><div class="markdown"><p>Use slices.Reverse from the standard library.</p></div></div>
</main></body></html>`

const chatTokens = 32

type fakeSource struct {
	mu   sync.Mutex
	url  string
	html string
	nav  chan string
}

func (f *fakeSource) Capture(context.Context) (*source.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &source.Capture{URL: f.url, HTML: []byte(f.html), At: time.Now()}, nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) set(url, html string) {
	f.mu.Lock()
	f.url, f.html = url, html
	f.mu.Unlock()
}

type navSource struct{ *fakeSource }

func (n navSource) Navigations() <-chan string { return n.nav }

func registry(t *testing.T, limit int) *platform.Registry {
	t.Helper()
	r := platform.Default()
	if err := r.Apply([]platform.Override{{Tag: platform.ChatGPT, TokenLimit: limit}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	return r
}

func quiet() settings.Settings {
	s := settings.Defaults()
	s.MinRemainingTokens = 10
	s.UpdateIntervalMS = 60000
	return s
}

func TestEvaluate_Levels(t *testing.T) {
	tests := []struct {
		limit int
		want  report.Level
	}{
		{1000, report.LevelNormal},
		{40, report.LevelWarning},  // 80%
		{33, report.LevelCritical}, // 97%
	}
	for _, tt := range tests {
		src := &fakeSource{url: "https://chatgpt.com/c/1", html: chatPage}
		m := New(src, NewEngine(registry(t, tt.limit), nil), Config{Settings: quiet()}, nil)
		c, _ := src.Capture(context.Background())
		st, err := m.Evaluate(c)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if st.Tokens != chatTokens {
			t.Errorf("limit %d: tokens got %d, want %d", tt.limit, st.Tokens, chatTokens)
		}
		if st.Level != tt.want {
			t.Errorf("limit %d: level got %s, want %s", tt.limit, st.Level, tt.want)
		}
		if st.MaxTokens != tt.limit || st.Remaining != tt.limit-chatTokens {
			t.Errorf("limit %d: got max %d remaining %d", tt.limit, st.MaxTokens, st.Remaining)
		}
		if st.Platform != "chatgpt" || st.Turns != 2 || st.Tier != "primary" || st.CycleID == "" {
			t.Errorf("status: got %+v", st)
		}
	}
}

func TestEvaluate_LowRemainingWarns(t *testing.T) {
	src := &fakeSource{url: "https://chatgpt.com/c/1", html: chatPage}
	m := New(src, NewEngine(nil, nil), Config{}, nil)
	c, _ := src.Capture(context.Background())
	st, _ := m.Evaluate(c)
	if st.Level != report.LevelNormal {
		t.Fatalf("default: got %s, want normal", st.Level)
	}
	s := settings.Defaults()
	s.MinRemainingTokens = 7990
	m.UpdateSettings(s)
	st, _ = m.Evaluate(c)
	if st.Level != report.LevelWarning {
		t.Errorf("low remaining: got %s, want warning", st.Level)
	}
}

func TestEvaluate_Disabled(t *testing.T) {
	s := quiet()
	s.Enabled = false
	src := &fakeSource{url: "https://chatgpt.com/c/1", html: chatPage}
	m := New(src, nil, Config{Settings: s}, nil)
	c, _ := src.Capture(context.Background())
	st, _ := m.Evaluate(c)
	if st.Tokens != 0 || st.Level != report.LevelIdle || st.Enabled {
		t.Errorf("got %+v, want idle with zero tokens", st)
	}
}

func TestEvaluate_Unsupported(t *testing.T) {
	src := &fakeSource{url: "https://example.com/", html: "<p>nothing to see here at all</p>"}
	m := New(src, nil, Config{Settings: quiet()}, nil)
	c, _ := src.Capture(context.Background())
	st, _ := m.Evaluate(c)
	if st.Platform != "unknown" || st.Supported || st.Level != report.LevelIdle {
		t.Errorf("got %+v, want unknown idle", st)
	}
	if st.MaxTokens != quiet().MaxTokens || st.Tokens != 0 {
		t.Errorf("max tokens: got %d, want settings value %d", st.MaxTokens, quiet().MaxTokens)
	}
}

func TestPublish_WarningCooldown(t *testing.T) {
	var warnings []report.Warning
	sk := NewCallbackSink(nil, func(_ context.Context, w report.Warning) error {
		warnings = append(warnings, w)
		return nil
	})
	src := &fakeSource{}
	m := New(src, nil, Config{Settings: quiet()}, nil, sk)
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	crit := report.Status{Level: report.LevelCritical}
	m.publish(context.Background(), crit)
	now = now.Add(time.Minute)
	m.publish(context.Background(), crit)
	if len(warnings) != 1 {
		t.Fatalf("within cooldown: got %d warnings, want 1", len(warnings))
	}

	// Levels have separate cooldowns.
	m.publish(context.Background(), report.Status{Level: report.LevelWarning})
	if len(warnings) != 2 {
		t.Fatalf("warning level: got %d warnings, want 2", len(warnings))
	}

	now = now.Add(10 * time.Minute)
	m.publish(context.Background(), crit)
	if len(warnings) != 3 {
		t.Errorf("after cooldown: got %d warnings, want 3", len(warnings))
	}
	m.publish(context.Background(), report.Status{Level: report.LevelNormal})
	if len(warnings) != 3 {
		t.Errorf("normal: got %d warnings, want 3", len(warnings))
	}
	if st, ok := m.Last(); !ok || st.Level != report.LevelNormal {
		t.Errorf("last: got %+v %v", st, ok)
	}
}

func TestCycle_URLChangeBetweenCaptures(t *testing.T) {
	src := &fakeSource{url: "https://chatgpt.com/c/1", html: chatPage}
	m := New(src, nil, Config{Settings: quiet()}, nil)
	ctx := context.Background()

	if m.cycle(ctx) {
		t.Fatal("first cycle reported a navigation")
	}
	if st, _ := m.Last(); st.Tokens != chatTokens {
		t.Fatalf("first cycle: tokens got %d, want %d", st.Tokens, chatTokens)
	}

	src.set("https://chatgpt.com/c/2", chatPage)
	if !m.cycle(ctx) {
		t.Fatal("URL change not reported")
	}
	st, _ := m.Last()
	if st.URL != "https://chatgpt.com/c/2" || st.Tokens != 0 || st.Platform != "chatgpt" {
		t.Errorf("after navigation: got %+v, want zeroed status for the new URL", st)
	}
	if m.cycle(ctx) {
		t.Error("rescan reported a navigation")
	}
	if st, _ := m.Last(); st.Tokens != chatTokens {
		t.Errorf("rescan: tokens got %d, want %d", st.Tokens, chatTokens)
	}
}

func TestRun_NavigationRescansAfterSettle(t *testing.T) {
	fs := &fakeSource{url: "https://chatgpt.com/c/1", html: chatPage, nav: make(chan string, 1)}
	statuses := make(chan report.Status, 16)
	sk := NewCallbackSink(func(_ context.Context, s report.Status) error {
		statuses <- s
		return nil
	}, nil)
	m := New(navSource{fs}, nil, Config{Settings: quiet(), SettleDelay: 20 * time.Millisecond}, nil, sk)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	next := func() report.Status {
		t.Helper()
		select {
		case s := <-statuses:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a status")
		}
		return report.Status{}
	}

	if s := next(); s.Tokens != chatTokens {
		t.Fatalf("initial: tokens got %d, want %d", s.Tokens, chatTokens)
	}

	fs.set("https://chatgpt.com/c/2", chatPage)
	fs.nav <- "https://chatgpt.com/c/2"

	if s := next(); s.Tokens != 0 || s.URL != "https://chatgpt.com/c/2" {
		t.Errorf("navigation: got %+v, want zeroed status", s)
	}
	if s := next(); s.Tokens != chatTokens || s.URL != "https://chatgpt.com/c/2" {
		t.Errorf("rescan: got %+v", s)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run: %v", err)
	}
}

func TestUpdateSettings_Latest(t *testing.T) {
	m := New(&fakeSource{}, nil, Config{}, nil)
	a, b := settings.Defaults(), settings.Defaults()
	a.MaxTokens, b.MaxTokens = 2000, 3000
	if err := m.UpdateSettings(a); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateSettings(b); err != nil {
		t.Fatal(err)
	}
	if got := m.Settings().MaxTokens; got != 3000 {
		t.Errorf("got %d, want 3000", got)
	}
	if got := (<-m.updates).MaxTokens; got != 3000 {
		t.Errorf("queued: got %d, want 3000", got)
	}
}

func TestUpdateSettings_RejectsInvalid(t *testing.T) {
	m := New(&fakeSource{}, nil, Config{Settings: quiet()}, nil)
	bad := quiet()
	bad.UpdateIntervalMS = 0
	if err := m.UpdateSettings(bad); !errors.Is(err, settings.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
	if got := m.Settings(); got != quiet() {
		t.Errorf("settings changed: got %+v", got)
	}
	select {
	case s := <-m.updates:
		t.Errorf("rejected settings queued: %+v", s)
	default:
	}
}

func TestNew_InvalidSettingsFallBackToDefaults(t *testing.T) {
	bad := quiet()
	bad.UpdateIntervalMS = -5
	m := New(&fakeSource{url: "https://chatgpt.com/c/1", html: chatPage}, nil, Config{Settings: bad}, nil)
	if got := m.Settings(); got != settings.Defaults() {
		t.Fatalf("got %+v, want defaults", got)
	}

	// The loop must start with a usable ticker.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Errorf("run: %v", err)
	}
}
