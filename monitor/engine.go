package monitor

import (
	"log/slog"

	"github.com/hazyhaar/tokenwatch/classify"
	"github.com/hazyhaar/tokenwatch/conversation"
	"github.com/hazyhaar/tokenwatch/dom"
	"github.com/hazyhaar/tokenwatch/estimate"
	"github.com/hazyhaar/tokenwatch/platform"
)

// Engine is one full extraction and estimation pass: resolve the platform,
// scan the turns, estimate the tokens. It holds no per-page state.
type Engine struct {
	Registry   *platform.Registry
	Estimator  estimate.Estimator
	Thresholds *classify.ContentThresholds
	Logger     *slog.Logger
}

// NewEngine returns an engine with the default calibration. A nil registry
// uses platform.Default().
func NewEngine(reg *platform.Registry, logger *slog.Logger) *Engine {
	if reg == nil {
		reg = platform.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Registry: reg, Estimator: estimate.Default(), Logger: logger}
}

// Estimation is the outcome of a pass.
type Estimation struct {
	Detection platform.Detection  `json:"detection"`
	Scan      conversation.Result `json:"scan"`
	Tokens    int                 `json:"tokens"`
}

// Evaluate runs a pass over doc at loc. An unsupported page yields zero
// tokens.
func (e *Engine) Evaluate(loc platform.Location, doc *dom.Document, includeCode bool) Estimation {
	det := e.Registry.Resolve(loc, doc)
	res := conversation.Scan(doc, det, conversation.Options{Thresholds: e.Thresholds, Logger: e.Logger})
	tokens := 0
	if len(res.Turns) > 0 {
		tokens = e.Estimator.Conversation(res.Messages(), includeCode)
	}
	e.Logger.Debug("monitor: evaluated",
		"platform", det.Platform, "supported", det.IsSupported,
		"tier", res.TierName(), "turns", len(res.Turns), "tokens", tokens)
	return Estimation{Detection: det, Scan: res, Tokens: tokens}
}
