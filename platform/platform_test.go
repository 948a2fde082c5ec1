package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/tokenwatch/dom"
)

func TestDefault_Order(t *testing.T) {
	want := []Tag{ChatGPT, Claude, Gemini, Grok}
	got := Default().Tags()
	if len(got) != len(want) {
		t.Fatalf("Tags: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tags[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestResolve_EveryDomain(t *testing.T) {
	r := Default()
	for _, c := range r.All() {
		path := "/c/123"
		if len(c.URLPatterns) > 0 {
			path = "/i/grok"
		}
		for _, d := range c.Domains {
			loc := ParseLocation("https://" + d + path)
			det := r.Resolve(loc, nil)
			if det.Platform != c.Tag {
				t.Errorf("%s: got platform %s, want %s", d, det.Platform, c.Tag)
				continue
			}
			if det.IsSupported != c.Enabled {
				t.Errorf("%s: got supported %v, want %v", d, det.IsSupported, c.Enabled)
			}
		}
	}
}

func TestResolve_URLPatternRequired(t *testing.T) {
	r := Default()
	det := r.Resolve(ParseLocation("https://x.com/home"), nil)
	if det.Platform != Unknown {
		t.Errorf("x.com/home: got %s, want unknown", det.Platform)
	}
	if det.IsSupported {
		t.Error("unknown platform must not be supported")
	}
	if det.Name() != "Unknown Platform" || det.TokenLimit() != 8000 {
		t.Errorf("fallbacks: got %q/%d", det.Name(), det.TokenLimit())
	}

	det = r.Resolve(ParseLocation("https://grok.com/"), nil)
	if det.Platform != Grok {
		t.Errorf("grok.com: got %s, want grok (hostname pattern)", det.Platform)
	}
}

func TestResolve_ReverseContainment(t *testing.T) {
	det := Default().Resolve(ParseLocation("https://openai.com/"), nil)
	if det.Platform != ChatGPT {
		t.Errorf("openai.com: got %s, want chatgpt", det.Platform)
	}
}

func TestResolve_EmptyHostname(t *testing.T) {
	det := Default().Resolve(Location{}, nil)
	if det.Platform != Unknown {
		t.Errorf("empty location: got %s, want unknown", det.Platform)
	}
}

func TestResolve_DisabledPlatform(t *testing.T) {
	det := Default().Resolve(ParseLocation("https://claude.ai/chat/1"), nil)
	if det.Platform != Claude {
		t.Fatalf("got %s, want claude", det.Platform)
	}
	if det.IsSupported || det.IsEnabled {
		t.Error("claude is disabled by default")
	}
	if det.TokenLimit() != 200000 {
		t.Errorf("TokenLimit: got %d, want 200000", det.TokenLimit())
	}
}

func TestResolve_DOMShape(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Tag
	}{
		{"chatgpt primary", `<div data-message-author-role="user">hi</div>`, ChatGPT},
		{"gemini primary", `<div class="response-container">hello</div>`, Gemini},
		{"chatgpt fallback", `<div class="group/conversation-turn">x</div>`, ChatGPT},
		{"nothing", `<p>plain page</p>`, Unknown},
	}
	r := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := dom.ParseString(tt.html)
			if err != nil {
				t.Fatal(err)
			}
			det := r.Resolve(ParseLocation("https://example.org/"), doc)
			if det.Platform != tt.want {
				t.Errorf("got %s, want %s", det.Platform, tt.want)
			}
		})
	}
}

func TestRegister_Invalid(t *testing.T) {
	r := NewRegistry()
	cases := []Config{
		{Tag: "x", UserRole: "u", AssistantRole: "a", TokenLimit: 1},
		{Tag: "x", Selectors: Selectors{Primary: "p"}, AssistantRole: "a", TokenLimit: 1},
		{Tag: "x", Selectors: Selectors{Primary: "p"}, UserRole: "u", AssistantRole: "a"},
		{Selectors: Selectors{Primary: "p"}, UserRole: "u", AssistantRole: "a", TokenLimit: 1},
	}
	for i, c := range cases {
		if err := r.Register(c); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: got %v, want ErrInvalidConfig", i, err)
		}
	}
	if len(r.All()) != 0 {
		t.Errorf("invalid configs registered: %d", len(r.All()))
	}
}

func TestRegister_ReplaceKeepsPriority(t *testing.T) {
	r := Default()
	c, _ := r.Lookup(ChatGPT)
	cp := *c
	cp.TokenLimit = 128000
	if err := r.Register(cp); err != nil {
		t.Fatal(err)
	}
	if r.Tags()[0] != ChatGPT {
		t.Errorf("priority changed: %v", r.Tags())
	}
	got, _ := r.Lookup(ChatGPT)
	if got.TokenLimit != 128000 {
		t.Errorf("TokenLimit: got %d, want 128000", got.TokenLimit)
	}
}

func TestSupportedDomains(t *testing.T) {
	got := Default().SupportedDomains()
	if len(got) != 8 {
		t.Fatalf("got %d patterns, want 8: %v", len(got), got)
	}
	if got[0] != "https://chat.openai.com/*" {
		t.Errorf("first: got %q", got[0])
	}
}

const overridesYAML = `
platforms:
  - tag: claude
    enabled: true
    token_limit: 100000
  - tag: mistral
    name: Le Chat
    domains: [chat.mistral.ai]
    enabled: true
    selectors:
      primary: '[data-role]'
      content: '.prose'
    user_role: user
    assistant_role: assistant
    token_limit: 32000
`

func TestApply_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platforms.yaml")
	if err := os.WriteFile(path, []byte(overridesYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	ov, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	r := Default()
	if err := r.Apply(ov); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	det := r.Resolve(ParseLocation("https://claude.ai/"), nil)
	if !det.IsSupported || det.TokenLimit() != 100000 {
		t.Errorf("claude override: supported=%v limit=%d", det.IsSupported, det.TokenLimit())
	}
	c, _ := r.Lookup(Claude)
	if c.Selectors.Primary == "" || !c.Aggressive {
		t.Error("claude override dropped unset fields")
	}

	det = r.Resolve(ParseLocation("https://chat.mistral.ai/chat"), nil)
	if det.Platform != "mistral" || det.Name() != "Le Chat" {
		t.Errorf("new platform: got %s %q", det.Platform, det.Name())
	}
	if tags := r.Tags(); tags[len(tags)-1] != "mistral" {
		t.Errorf("new platform should be lowest priority: %v", tags)
	}
}

func TestApply_InvalidLeavesRegistry(t *testing.T) {
	r := Default()
	ov, err := ParseOverrides([]byte("platforms:\n  - tag: broken\n    token_limit: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(ov); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
	if len(r.Tags()) != 4 {
		t.Errorf("registry modified: %v", r.Tags())
	}
}

func TestDebug(t *testing.T) {
	doc, err := dom.ParseString(`<div data-message-author-role="user"><div class="markdown">hi</div></div>`)
	if err != nil {
		t.Fatal(err)
	}
	info := Default().Debug(ParseLocation("https://chatgpt.com/c/1"), doc)
	if !info.DomainMatch[ChatGPT] || info.DomainMatch[Gemini] {
		t.Errorf("DomainMatch: %v", info.DomainMatch)
	}
	p := info.Selectors[ChatGPT]
	if !p.Primary || !p.Content || len(p.Fallback) != 2 {
		t.Errorf("selectors: %+v", p)
	}
	if info.Detection.Platform != ChatGPT {
		t.Errorf("Detection: got %s", info.Detection.Platform)
	}
}

func TestParseLocation_BareHost(t *testing.T) {
	tests := []struct {
		raw, host, path string
	}{
		{"chatgpt.com/c/abc", "chatgpt.com", "/c/abc"},
		{"  Claude.AI/chat/1 ", "claude.ai", "/chat/1"},
		{"https://grok.com/", "grok.com", "/"},
		{"/c/abc", "", "/c/abc"},
		{"", "", ""},
	}
	for _, tt := range tests {
		loc := ParseLocation(tt.raw)
		if loc.Hostname != tt.host || loc.Path != tt.path {
			t.Errorf("%q: got host %q path %q, want %q %q", tt.raw, loc.Hostname, loc.Path, tt.host, tt.path)
		}
		if loc.URL != tt.raw {
			t.Errorf("%q: URL rewritten to %q", tt.raw, loc.URL)
		}
	}

	det := Default().Resolve(ParseLocation("chatgpt.com/c/abc"), nil)
	if det.Platform != ChatGPT || !det.IsSupported {
		t.Errorf("bare host: got %+v, want chatgpt", det)
	}
}
