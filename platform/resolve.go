package platform

import (
	"net/url"
	"strings"

	"github.com/hazyhaar/tokenwatch/dom"
)

const (
	unknownName  = "Unknown Platform"
	unknownLimit = 8000
)

// Location is the page address as seen by the host.
type Location struct {
	Hostname string `json:"hostname"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

// ParseLocation splits a raw URL into a Location. A bare host such as
// "chatgpt.com/c/1" is read as https. Unparseable input keeps the raw string
// as URL with empty hostname and path.
func ParseLocation(raw string) Location {
	loc := Location{URL: raw}
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err == nil && u.Host == "" && u.Scheme == "" && trimmed != "" && !strings.HasPrefix(trimmed, "/") {
		u, err = url.Parse("https://" + trimmed)
	}
	if err != nil {
		return loc
	}
	loc.Hostname = strings.ToLower(u.Hostname())
	loc.Path = u.Path
	return loc
}

// Detection is the outcome of resolving a page. Misses are values, never errors.
type Detection struct {
	Platform    Tag     `json:"platform"`
	Config      *Config `json:"-"`
	IsSupported bool    `json:"is_supported"`
	IsEnabled   bool    `json:"is_enabled"`
}

// Name returns the display name, or "Unknown Platform".
func (d Detection) Name() string {
	if d.Config == nil {
		return unknownName
	}
	return d.Config.Name
}

// TokenLimit returns the platform ceiling, or 8000 when unresolved.
func (d Detection) TokenLimit() int {
	if d.Config == nil {
		return unknownLimit
	}
	return d.Config.TokenLimit
}

func detected(c *Config) Detection {
	return Detection{
		Platform:    c.Tag,
		Config:      c,
		IsSupported: c.Tag != Unknown && c.Enabled,
		IsEnabled:   c.Enabled,
	}
}

// Resolve determines the active platform: location first, DOM shape second.
// tree may be nil, in which case only the location is considered.
func (r *Registry) Resolve(loc Location, tree dom.Querier) Detection {
	if c := r.byLocation(loc); c != nil {
		return detected(c)
	}
	if tree != nil {
		if c := r.byShape(tree); c != nil {
			return detected(c)
		}
	}
	return Detection{Platform: Unknown}
}

func (r *Registry) byLocation(loc Location) *Config {
	for _, c := range r.configs {
		if !c.matchesDomain(loc.Hostname) {
			continue
		}
		if len(c.URLPatterns) > 0 && !c.matchesPattern(loc) {
			continue
		}
		return c
	}
	return nil
}

func (r *Registry) byShape(tree dom.Querier) *Config {
	for _, c := range r.configs {
		if tree.Exists(c.Selectors.Primary) {
			return c
		}
		for _, fb := range c.Selectors.Fallback {
			if tree.Exists(fb) {
				return c
			}
		}
	}
	return nil
}

func (c *Config) matchesDomain(host string) bool {
	if host == "" {
		return false
	}
	for _, d := range c.Domains {
		if d == "" {
			continue
		}
		if strings.Contains(host, d) || strings.Contains(d, host) {
			return true
		}
	}
	return false
}

func (c *Config) matchesPattern(loc Location) bool {
	for _, p := range c.URLPatterns {
		if p == "" {
			continue
		}
		if strings.Contains(loc.Path, p) || strings.Contains(loc.URL, p) || strings.Contains(loc.Hostname, p) {
			return true
		}
	}
	return false
}
