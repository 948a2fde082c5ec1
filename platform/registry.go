// CLAUDE:SUMMARY Declarative per-platform configuration (domains, URL patterns, selectors, role labels, limits) held in priority order.
// Package platform holds the per-platform configuration registry and the
// resolver that decides which platform's conversation a page is showing.
//
// The registry is an explicit priority list: resolution walks configs in the
// order they were registered, so ties between overlapping domains are decided
// by declaration order rather than map iteration.
package platform

import (
	"errors"
	"fmt"
	"slices"
)

// Tag identifies a platform.
type Tag string

const (
	ChatGPT Tag = "chatgpt"
	Claude  Tag = "claude"
	Gemini  Tag = "gemini"
	Grok    Tag = "grok"
	Unknown Tag = "unknown"
)

// ErrInvalidConfig is returned when a config violates the registry invariants.
var ErrInvalidConfig = errors.New("platform: invalid config")

// Selectors are opaque query expressions handed to the tree-query capability.
type Selectors struct {
	Primary  string   `yaml:"primary" json:"primary"`
	Fallback []string `yaml:"fallback" json:"fallback,omitempty"`
	Content  string   `yaml:"content" json:"content"`
}

// Config describes one supported platform.
type Config struct {
	Tag           Tag       `yaml:"tag" json:"tag"`
	Name          string    `yaml:"name" json:"name"`
	Domains       []string  `yaml:"domains" json:"domains"`
	URLPatterns   []string  `yaml:"url_patterns" json:"url_patterns,omitempty"`
	Enabled       bool      `yaml:"enabled" json:"enabled"`
	Selectors     Selectors `yaml:"selectors" json:"selectors"`
	UserRole      string    `yaml:"user_role" json:"user_role"`
	AssistantRole string    `yaml:"assistant_role" json:"assistant_role"`
	TokenLimit    int       `yaml:"token_limit" json:"token_limit"`

	// Aggressive enables the text-walk and block-scan extraction tiers.
	Aggressive bool `yaml:"aggressive" json:"aggressive"`
}

// Validate checks the registry invariants.
func (c *Config) Validate() error {
	switch {
	case c.Tag == "" || c.Tag == Unknown:
		return fmt.Errorf("%w: missing tag", ErrInvalidConfig)
	case c.Selectors.Primary == "":
		return fmt.Errorf("%w: %s: empty primary selector", ErrInvalidConfig, c.Tag)
	case c.UserRole == "" || c.AssistantRole == "":
		return fmt.Errorf("%w: %s: empty role label", ErrInvalidConfig, c.Tag)
	case c.TokenLimit <= 0:
		return fmt.Errorf("%w: %s: token limit must be positive", ErrInvalidConfig, c.Tag)
	}
	return nil
}

func (c *Config) clone() *Config {
	cp := *c
	cp.Domains = slices.Clone(c.Domains)
	cp.URLPatterns = slices.Clone(c.URLPatterns)
	cp.Selectors.Fallback = slices.Clone(c.Selectors.Fallback)
	return &cp
}

// Registry holds platform configs in priority order. It is built once at
// startup and treated as immutable afterwards.
type Registry struct {
	configs []*Config
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends cfg at the lowest priority. Registering an existing tag
// replaces it in place, keeping its priority.
func (r *Registry) Register(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c := cfg.clone()
	for i, existing := range r.configs {
		if existing.Tag == c.Tag {
			r.configs[i] = c
			return nil
		}
	}
	r.configs = append(r.configs, c)
	return nil
}

// Lookup returns the config for tag.
func (r *Registry) Lookup(tag Tag) (*Config, bool) {
	for _, c := range r.configs {
		if c.Tag == tag {
			return c, true
		}
	}
	return nil, false
}

// All returns the configs in priority order.
func (r *Registry) All() []*Config {
	return slices.Clone(r.configs)
}

// Tags returns the registered tags in priority order.
func (r *Registry) Tags() []Tag {
	tags := make([]Tag, len(r.configs))
	for i, c := range r.configs {
		tags[i] = c.Tag
	}
	return tags
}

// SupportedDomains returns deduplicated match patterns for every domain.
func (r *Registry) SupportedDomains() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range r.configs {
		for _, d := range c.Domains {
			p := "https://" + d + "/*"
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Default returns the built-in registry: ChatGPT, Claude, Gemini, Grok, in
// that priority order.
func Default() *Registry {
	r := NewRegistry()
	for _, c := range defaults() {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

func defaults() []Config {
	return []Config{
		{
			Tag:     ChatGPT,
			Name:    "ChatGPT",
			Domains: []string{"chat.openai.com", "chatgpt.com"},
			Enabled: true,
			Selectors: Selectors{
				Primary:  `[data-message-author-role]`,
				Fallback: []string{`.group\/conversation-turn`, `[data-testid*="conversation"]`},
				Content:  `.markdown, .whitespace-pre-wrap, .prose`,
			},
			UserRole:      "user",
			AssistantRole: "assistant",
			TokenLimit:    8000,
		},
		{
			Tag:     Claude,
			Name:    "Claude",
			Domains: []string{"claude.ai"},
			// Disabled: the markup changes too often to count reliably.
			Enabled: false,
			Selectors: Selectors{
				Primary: `div[data-is-streaming="true"], div[data-is-streaming="false"], div[data-testid="conversation-turn"], div[class*="font-user-message"], div[class*="font-claude-message"], [role="article"][data-testid]`,
				Fallback: []string{
					`div[class*="font-user"], div[class*="font-claude"], div[data-testid*="user"], div[data-testid*="assistant"], div[data-testid*="human"], .prose`,
					`div[class*="group"] > div[class*="relative"]`,
					`div[class*="flex"] > div[class*="max-w"]`,
				},
				Content: `.prose, .whitespace-pre-wrap, div[class*="font-"], p, span, pre, code, div[class*="text-"], div[dir="auto"], div[class*="whitespace-"]`,
			},
			UserRole:      "human",
			AssistantRole: "assistant",
			TokenLimit:    200000,
			Aggressive:    true,
		},
		{
			Tag:     Gemini,
			Name:    "Gemini",
			Domains: []string{"gemini.google.com", "bard.google.com"},
			Enabled: true,
			Selectors: Selectors{
				Primary:  `[data-testid*="message"], .conversation-turn, .response-container, .query-input`,
				Fallback: []string{`[class*="message-container"]`, `[role="presentation"]`, `[class*="conversation"]`, `[class*="response"]`},
				Content:  `.markdown, .message-content, .formatted-text, .model-response-text, [data-testid*="text"]`,
			},
			UserRole:      "user",
			AssistantRole: "model",
			TokenLimit:    30000,
		},
		{
			Tag:         Grok,
			Name:        "Grok",
			Domains:     []string{"grok.com", "x.com", "twitter.com"},
			URLPatterns: []string{"/i/grok", "grok.com"},
			Enabled:     true,
			Selectors: Selectors{
				Primary:  `.not-prose, [data-testid*="cellInnerDiv"], [data-testid*="conversation"], [data-testid*="grok"], .r-1habvwh, .r-16y2uox`,
				Fallback: []string{`[role="article"]`, `[data-testid="tweet"]`, `.css-1dbjc4n > div`, `[class*="r-"]`, `div[dir="auto"]`},
				Content:  `.not-prose, [data-testid="tweetText"], .css-901oao, [dir="auto"], .r-37j5jr, .r-16dba41, .r-bnwqim, .r-1q142lx`,
			},
			UserRole:      "user",
			AssistantRole: "assistant",
			TokenLimit:    25000,
		},
	}
}
