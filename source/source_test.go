package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const page = `<html><body><div data-message-author-role="user">hello there friend</div></body></html>`

func TestStatic(t *testing.T) {
	s := NewStatic("https://chatgpt.com/c/1", []byte(page))
	c, err := s.Capture(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if loc := c.Location(); loc.Hostname != "chatgpt.com" || loc.Path != "/c/1" {
		t.Errorf("location: got %+v", loc)
	}
	d, err := c.Document()
	if err != nil {
		t.Fatal(err)
	}
	if !d.Exists("[data-message-author-role]") {
		t.Error("parsed document lost the turn")
	}
}

func TestFile_RereadsEachCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<p>one</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFile("https://gemini.google.com/app", path)
	c, err := s.Capture(context.Background())
	if err != nil || !strings.Contains(string(c.HTML), "one") {
		t.Fatalf("first capture: %v %q", err, c.HTML)
	}
	if err := os.WriteFile(path, []byte("<p>two</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = s.Capture(context.Background())
	if err != nil || !strings.Contains(string(c.HTML), "two") {
		t.Fatalf("second capture: %v %q", err, c.HTML)
	}

	if _, err := NewFile("x", filepath.Join(t.TempDir(), "missing")).Capture(context.Background()); err == nil {
		t.Error("missing file: want error")
	}
}

func TestHTTP(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c, err := NewHTTP(srv.URL+"/share/abc", WithUserAgent("test-agent")).Capture(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(c.HTML) != page {
		t.Errorf("body: got %q", c.HTML)
	}
	if c.URL != srv.URL+"/share/abc" {
		t.Errorf("url: got %q", c.URL)
	}
	if ua != "test-agent" {
		t.Errorf("user agent: got %q", ua)
	}
}

func TestHTTP_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewHTTP(srv.URL).Capture(context.Background()); err == nil {
		t.Fatal("404: want error")
	}
}
