// Package score combines normalized ROI, velocity, and stability into one
// opportunity score whose emphasis depends on the requesting view, with an
// optional strategy-profile boost layered on top.
package score

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ViewID names a scoring context. Each view carries its own weight emphasis;
// an unknown view deterministically falls back to the dashboard set.
type ViewID string

const (
	ViewDashboard    ViewID = "dashboard"
	ViewMesNiches    ViewID = "mes_niches"
	ViewAutoSource   ViewID = "auto_sourcing"
	ViewTextbookHunt ViewID = "textbook_hunt"
)

// Weights is one view's emphasis over the three components. Weights need not
// sum to 1; the final score is clipped, not renormalized.
type Weights struct {
	ROI       float64 `yaml:"roi" json:"roi"`
	Velocity  float64 `yaml:"velocity" json:"velocity"`
	Stability float64 `yaml:"stability" json:"stability"`
}

// StrategyName names a threshold-and-boost bundle layered on view weights.
type StrategyName string

const (
	StrategyTextbook StrategyName = "textbook"
	StrategyVelocity StrategyName = "velocity"
	StrategyBalanced StrategyName = "balanced"
)

// Thresholds gate strategy auto-selection. MinPrice is a currency amount;
// MaxBSR is a rank ceiling.
type Thresholds struct {
	MinROI      float64         `json:"min_roi"`
	MinVelocity float64         `json:"min_velocity"`
	MinPrice    decimal.Decimal `json:"min_price"`
	MaxBSR      int             `json:"max_bsr"`
}

// Boosts are per-metric multipliers. A zero value means "not configured" and
// applies as 1.0.
type Boosts struct {
	ROI       float64 `yaml:"roi" json:"roi"`
	Velocity  float64 `yaml:"velocity" json:"velocity"`
	Stability float64 `yaml:"stability" json:"stability"`
}

func boostOrOne(b float64) float64 {
	if b == 0 {
		return 1.0
	}
	return b
}

// StrategyProfile bundles a strategy's thresholds and boosts.
type StrategyProfile struct {
	Thresholds Thresholds `json:"thresholds"`
	Boosts     Boosts     `json:"boosts"`
}

// Metrics is the unclipped per-ASIN input to scoring. ROIPct may be negative
// or far above 100; clipping applies only to the weighted terms.
type Metrics struct {
	ROIPct    float64          `json:"roi_pct"`
	Velocity  float64          `json:"velocity"`
	Stability float64          `json:"stability"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	BSR       *int             `json:"bsr,omitempty"`
}

// Components records each term's contribution (normalized * weight * boost).
type Components struct {
	ROI       float64 `json:"roi_contribution"`
	Velocity  float64 `json:"velocity_contribution"`
	Stability float64 `json:"stability_contribution"`
}

// ScoreResult is the transient scoring output for one ASIN.
type ScoreResult struct {
	ASIN           string       `json:"asin"`
	Rank           int          `json:"rank"`
	Score          float64      `json:"score"`
	Components     Components   `json:"components"`
	WeightsApplied Weights      `json:"weights_applied"`
	View           ViewID       `json:"view"`
	RawMetrics     Metrics      `json:"raw_metrics"`
	Strategy       StrategyName `json:"strategy_profile"`
	Error          string       `json:"error,omitempty"`
}

// strategyRule is one row of the ordered auto-selection table.
type strategyRule struct {
	name    StrategyName
	matches func(Metrics) bool
}

// Scorer holds the immutable view-weight matrix and strategy table. Safe for
// concurrent use; hot reload swaps the whole Scorer, never mutates one.
type Scorer struct {
	views      map[ViewID]Weights
	strategies map[StrategyName]StrategyProfile
	rules      []strategyRule
}

// NewScorer builds a scorer. The views map must contain the dashboard entry;
// the config loader guarantees that before construction.
func NewScorer(views map[ViewID]Weights, strategies map[StrategyName]StrategyProfile) *Scorer {
	s := &Scorer{views: views, strategies: strategies}
	s.rules = s.buildRules()
	return s
}

// buildRules lays out the auto-selection decision table, evaluated top to
// bottom, stopping at the first match. Thresholds come from configuration;
// the comparison shape per row is fixed. Rows with required price or rank
// cannot match when the snapshot lacks those fields.
func (s *Scorer) buildRules() []strategyRule {
	tb := s.strategies[StrategyTextbook].Thresholds
	vl := s.strategies[StrategyVelocity].Thresholds
	bl := s.strategies[StrategyBalanced].Thresholds

	return []strategyRule{
		{StrategyTextbook, func(m Metrics) bool {
			return m.ROIPct >= tb.MinROI &&
				m.Velocity >= tb.MinVelocity &&
				priceAtLeast(m.Price, tb.MinPrice) &&
				bsrWithin(m.BSR, tb.MaxBSR, true)
		}},
		{StrategyVelocity, func(m Metrics) bool {
			return m.ROIPct >= vl.MinROI &&
				m.Velocity >= vl.MinVelocity &&
				priceAtLeast(m.Price, vl.MinPrice) &&
				bsrWithin(m.BSR, vl.MaxBSR, false)
		}},
		{StrategyBalanced, func(m Metrics) bool {
			return m.ROIPct >= bl.MinROI && m.Velocity >= bl.MinVelocity
		}},
	}
}

func priceAtLeast(price *decimal.Decimal, min decimal.Decimal) bool {
	if min.IsZero() {
		return true
	}
	return price != nil && price.GreaterThanOrEqual(min)
}

func bsrWithin(bsr *int, max int, inclusive bool) bool {
	if max <= 0 {
		return true
	}
	if bsr == nil {
		return false
	}
	if inclusive {
		return *bsr <= max
	}
	return *bsr < max
}

// AutoSelectStrategy walks the decision table and returns the first matching
// profile. The final fallback is balanced; strategy is never unresolved.
func (s *Scorer) AutoSelectStrategy(m Metrics) StrategyName {
	for _, rule := range s.rules {
		if rule.matches(m) {
			return rule.name
		}
	}
	return StrategyBalanced
}

// ViewWeights resolves a view's weight set with the dashboard fallback.
func (s *Scorer) ViewWeights(view ViewID) Weights {
	if w, ok := s.views[view]; ok {
		return w
	}
	return s.views[ViewDashboard]
}

// ComputeViewScore scores one ASIN's metrics under a view. An empty strategy
// triggers auto-selection. The result is deterministic for identical inputs.
func (s *Scorer) ComputeViewScore(asin string, m Metrics, view ViewID, strategy StrategyName) ScoreResult {
	weights := s.ViewWeights(view)
	if strategy == "" {
		strategy = s.AutoSelectStrategy(m)
	}
	boosts := s.strategies[strategy].Boosts

	components := Components{
		ROI:       clip(m.ROIPct) * weights.ROI * boostOrOne(boosts.ROI),
		Velocity:  clip(m.Velocity) * weights.Velocity * boostOrOne(boosts.Velocity),
		Stability: clip(m.Stability) * weights.Stability * boostOrOne(boosts.Stability),
	}

	return ScoreResult{
		ASIN:           asin,
		Score:          clip(components.ROI + components.Velocity + components.Stability),
		Components:     components,
		WeightsApplied: weights,
		View:           view,
		RawMetrics:     m,
		Strategy:       strategy,
	}
}

// ErrorResult builds the failed-item placeholder: score zero, reason recorded,
// siblings unaffected.
func ErrorResult(asin string, view ViewID, reason string) ScoreResult {
	return ScoreResult{ASIN: asin, View: view, Error: reason}
}

// RankResults sorts descending by score, breaking ties by raw ROI then ASIN
// lexical order so batch output is fully deterministic, and assigns ranks.
func RankResults(results []ScoreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].RawMetrics.ROIPct != results[j].RawMetrics.ROIPct {
			return results[i].RawMetrics.ROIPct > results[j].RawMetrics.ROIPct
		}
		return results[i].ASIN < results[j].ASIN
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
