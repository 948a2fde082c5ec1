package platform

import "github.com/hazyhaar/tokenwatch/dom"

// SelectorPresence reports which selectors of a config match the tree.
type SelectorPresence struct {
	Primary  bool   `json:"primary"`
	Fallback []bool `json:"fallback"`
	Content  bool   `json:"content"`
}

// DebugInfo explains a resolution: which platforms the location matched and
// which selectors are present in the tree.
type DebugInfo struct {
	Location     Location                 `json:"location"`
	Detection    Detection                `json:"detection"`
	DomainMatch  map[Tag]bool             `json:"domain_match"`
	PatternMatch map[Tag]bool             `json:"pattern_match"`
	Selectors    map[Tag]SelectorPresence `json:"selectors,omitempty"`
}

// Debug returns the resolution plus per-platform match details.
func (r *Registry) Debug(loc Location, tree dom.Querier) DebugInfo {
	info := DebugInfo{
		Location:     loc,
		Detection:    r.Resolve(loc, tree),
		DomainMatch:  make(map[Tag]bool, len(r.configs)),
		PatternMatch: make(map[Tag]bool, len(r.configs)),
	}
	if tree != nil {
		info.Selectors = make(map[Tag]SelectorPresence, len(r.configs))
	}
	for _, c := range r.configs {
		info.DomainMatch[c.Tag] = c.matchesDomain(loc.Hostname)
		info.PatternMatch[c.Tag] = len(c.URLPatterns) == 0 || c.matchesPattern(loc)
		if tree == nil {
			continue
		}
		p := SelectorPresence{
			Primary:  tree.Exists(c.Selectors.Primary),
			Fallback: make([]bool, len(c.Selectors.Fallback)),
			Content:  tree.Exists(c.Selectors.Content),
		}
		for i, fb := range c.Selectors.Fallback {
			p.Fallback[i] = tree.Exists(fb)
		}
		info.Selectors[c.Tag] = p
	}
	return info
}
