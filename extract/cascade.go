// CLAUDE:SUMMARY Selector cascade (primary then fallbacks, first non-empty tier wins) and multi-strategy turn content extraction.
// Package extract locates candidate turn nodes and recovers their text.
//
// Candidate collection is a tiered cascade: the primary selector first, then
// each fallback in declared order. The first tier that matches anything wins
// and tiers are never merged, so node shapes from different fallbacks never
// mix in one pass.
package extract

import (
	"fmt"

	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/platform"
)

// Tree is the query capability the cascade needs.
type Tree interface {
	Query(selector string) []*dom.Node
}

// NoTier marks a cascade where no selector matched.
const NoTier = -1

// Tiered is the outcome of a cascade: the nodes and the tier that produced
// them. Tier 0 is the primary selector, tier i > 0 is fallback[i-1].
type Tiered struct {
	Nodes    []*dom.Node
	Tier     int
	Selector string
}

// TierName returns "primary", "fallback[i]" or "none".
func (t Tiered) TierName() string {
	return TierName(t.Tier)
}

// TierName formats a tier index.
func TierName(tier int) string {
	switch {
	case tier == 0:
		return "primary"
	case tier > 0:
		return fmt.Sprintf("fallback[%d]", tier-1)
	}
	return "none"
}

// Tiers returns the cascade order for cfg: primary, then fallbacks.
func Tiers(cfg *platform.Config) []string {
	if cfg == nil {
		return nil
	}
	out := make([]string, 0, 1+len(cfg.Selectors.Fallback))
	out = append(out, cfg.Selectors.Primary)
	return append(out, cfg.Selectors.Fallback...)
}

// Candidates runs the cascade from the primary selector.
func Candidates(tree Tree, cfg *platform.Config) Tiered {
	return CandidatesFrom(tree, cfg, 0)
}

// CandidatesFrom runs the cascade starting at tier start.
func CandidatesFrom(tree Tree, cfg *platform.Config, start int) Tiered {
	if tree == nil || cfg == nil || start < 0 {
		return Tiered{Tier: NoTier}
	}
	tiers := Tiers(cfg)
	for i := start; i < len(tiers); i++ {
		if nodes := tree.Query(tiers[i]); len(nodes) > 0 {
			return Tiered{Nodes: nodes, Tier: i, Selector: tiers[i]}
		}
	}
	return Tiered{Tier: NoTier}
}
