package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazyhaar/tokenwatch/monitor/report"
)

func TestStdout(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	if err := s.SendStatus(context.Background(), report.Status{Tokens: 12}); err != nil {
		t.Fatal(err)
	}
	if err := s.SendWarning(context.Background(), report.Warning{Level: report.LevelWarning}); err != nil {
		t.Fatal(err)
	}
	dec := json.NewDecoder(&buf)
	for _, want := range []string{"status", "warning"} {
		var e struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := dec.Decode(&e); err != nil {
			t.Fatal(err)
		}
		if e.Type != want {
			t.Errorf("type: got %q, want %q", e.Type, want)
		}
	}
}

func TestWebhook_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		b, _ := io.ReadAll(r.Body)
		bodies <- b
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithWebhookBackoff(time.Millisecond))
	if err := wh.SendStatus(context.Background(), report.Status{Tokens: 5}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls: got %d, want 2", calls.Load())
	}
	if got := <-bodies; !bytes.Contains(got, []byte(`"tokens":5`)) {
		t.Errorf("body: %s", got)
	}
}

func TestWebhook_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithWebhookRetries(1), WithWebhookBackoff(time.Millisecond))
	if err := wh.SendWarning(context.Background(), report.Warning{}); err == nil {
		t.Fatal("want error after retries")
	}
}

func TestRouter_FanOutFirstError(t *testing.T) {
	errA := errors.New("a failed")
	var delivered int
	failing := NewCallback(func(context.Context, report.Status) error { return errA }, nil)
	ok := NewCallback(func(context.Context, report.Status) error { delivered++; return nil }, nil)

	r := NewRouter(nil, failing, ok)
	if err := r.SendStatus(context.Background(), report.Status{}); !errors.Is(err, errA) {
		t.Errorf("got %v, want %v", err, errA)
	}
	if delivered != 1 {
		t.Errorf("second sink: got %d deliveries, want 1", delivered)
	}
	if err := r.SendWarning(context.Background(), report.Warning{}); err != nil {
		t.Errorf("nil warning handlers: got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
