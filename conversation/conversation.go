// CLAUDE:SUMMARY Turn assembly pipeline: cascade, pre-filter, extract, classify, in document order, never merging selector tiers.
// Package conversation assembles the ordered turn list of the page being
// viewed. Every call re-derives candidates and turns from the tree it is
// given; nothing is cached across calls.
package conversation

import (
	"log/slog"

	"github.com/hazyhaar/tokenwatch/classify"
	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/estimate"
	"github.com/hazyhaar/tokenwatch/extract"
	"github.com/hazyhaar/tokenwatch/platform"
)

// Turn is one classified, extracted unit of conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Index   int    `json:"index"`
	By      string `json:"classified_by,omitempty"`

	// Markup is the outer HTML of the source node, kept for transcript
	// export.
	Markup string `json:"-"`
}

// Drop records a candidate that did not become a turn.
type Drop struct {
	Tier   int    `json:"tier"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result is the outcome of one scan.
type Result struct {
	Turns      []Turn `json:"turns"`
	Tier       int    `json:"tier"`
	Selector   string `json:"selector,omitempty"`
	Candidates int    `json:"candidates"`
	Dropped    []Drop `json:"dropped,omitempty"`
}

// TierName returns "primary", "fallback[i]" or "none".
func (r Result) TierName() string { return extract.TierName(r.Tier) }

// Messages converts the turns for the estimator.
func (r Result) Messages() []estimate.Message {
	out := make([]estimate.Message, len(r.Turns))
	for i, t := range r.Turns {
		out[i] = estimate.Message{Role: t.Role, Content: t.Content}
	}
	return out
}

// Options tune a scan.
type Options struct {
	// Thresholds override the content-pattern calibration when set.
	Thresholds *classify.ContentThresholds
	Logger     *slog.Logger
}

// Scan extracts the turns of the page. The first cascade tier that matches
// is used; when every node of that tier is discarded, later tiers are tried
// in order. Tiers are never merged. Unsupported detections yield an empty
// result.
func Scan(tree extract.Tree, det platform.Detection, opts Options) Result {
	res := Result{Tier: extract.NoTier}
	if tree == nil || !det.IsSupported || det.Config == nil {
		return res
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	cfg := det.Config

	for start := 0; ; {
		tiered := extract.CandidatesFrom(tree, cfg, start)
		if tiered.Tier == extract.NoTier {
			break
		}
		turns, drops := build(tiered, cfg, opts)
		res.Candidates += len(tiered.Nodes)
		res.Dropped = append(res.Dropped, drops...)
		log.Debug("conversation: tier scanned",
			"platform", cfg.Tag, "tier", tiered.TierName(),
			"candidates", len(tiered.Nodes), "turns", len(turns))
		if len(turns) > 0 {
			res.Turns = turns
			res.Tier = tiered.Tier
			res.Selector = tiered.Selector
			return res
		}
		start = tiered.Tier + 1
	}
	return res
}

func build(tiered extract.Tiered, cfg *platform.Config, opts Options) ([]Turn, []Drop) {
	extracted := make(map[*dom.Node]extract.Extraction, len(tiered.Nodes))
	content := func(n *dom.Node) string {
		e, ok := extracted[n]
		if !ok {
			e = extract.Extract(n, cfg)
			extracted[n] = e
		}
		return e.Text
	}

	ctx := classify.NewContext(cfg, tiered.Nodes)
	ctx.Content = content
	if opts.Thresholds != nil {
		ctx.Thresholds = *opts.Thresholds
	}

	var turns []Turn
	var drops []Drop
	for i, n := range tiered.Nodes {
		if reason, reject := extract.Prefilter(cfg.Tag, n); reject {
			drops = append(drops, Drop{Tier: tiered.Tier, Index: i, Reason: reason})
			continue
		}
		text := content(n)
		d := classify.Role(n, ctx, text)
		switch {
		case !extract.Accept(text):
			drops = append(drops, Drop{Tier: tiered.Tier, Index: i, Reason: "insufficient content"})
			continue
		case d.Role == classify.Unknown:
			drops = append(drops, Drop{Tier: tiered.Tier, Index: i, Reason: "unknown role"})
			continue
		}
		turns = append(turns, Turn{
			Role:    d.Role,
			Content: text,
			Index:   len(turns),
			By:      d.By,
			Markup:  n.HTML(),
		})
	}
	return turns, drops
}
