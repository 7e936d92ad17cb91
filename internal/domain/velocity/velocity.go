// Package velocity derives normalized rotation-speed and price-stability
// scores from trailing-window history. Both scores live on [0,100].
package velocity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipscan/flipscan/internal/domain/extract"
)

// NeutralStability is returned when the price history is too thin to measure
// volatility. It is a documented default, flagged low-confidence, never a
// value computed from insufficient data.
const NeutralStability = 50.0

// Config holds the estimator knobs. FastCutoffs maps a category to the number
// of rank drops inside the window that earns a full velocity score; books and
// electronics do not rotate at comparable speeds, so the cutoffs differ.
type Config struct {
	WindowDays    int
	FastCutoffs   map[string]int
	DefaultCutoff int
	StabilityK    float64
}

// Estimator is safe for concurrent use; its configuration is immutable.
type Estimator struct {
	cfg Config
}

func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// VelocityScore counts rank improvements (drops, since lower rank is better)
// over the trailing window and scales the count against the category's fast
// cutoff. The window anchors on the newest observation in the history, not on
// wall-clock time, so the score is a pure function of its input.
func (e *Estimator) VelocityScore(history []extract.RankPoint, category string) float64 {
	if len(history) < 2 {
		return 0
	}

	anchor := newestStamp(history)
	var windowStart time.Time
	if !anchor.IsZero() && e.cfg.WindowDays > 0 {
		windowStart = anchor.AddDate(0, 0, -e.cfg.WindowDays)
	}

	drops := 0
	for i := 1; i < len(history); i++ {
		if !inWindow(history[i].At, windowStart) {
			continue
		}
		if history[i].Rank < history[i-1].Rank {
			drops++
		}
	}

	cutoff := e.cfg.DefaultCutoff
	if c, ok := e.cfg.FastCutoffs[category]; ok && c > 0 {
		cutoff = c
	}
	if cutoff <= 0 {
		cutoff = 1
	}

	return clip(float64(drops) / float64(cutoff) * 100)
}

// StabilityResult carries the stability score plus a low-confidence flag set
// when the history was too thin to measure anything.
type StabilityResult struct {
	Score         float64
	LowConfidence bool
}

// StabilityScore is 100 minus k times the coefficient of variation of the
// price history (CV in percent), clipped to [0,100]. Fewer than two points
// yields the neutral default with the low-confidence flag set.
func (e *Estimator) StabilityScore(prices []decimal.Decimal) StabilityResult {
	if len(prices) < 2 {
		return StabilityResult{Score: NeutralStability, LowConfidence: true}
	}

	values := make([]float64, len(prices))
	var sum float64
	for i, p := range prices {
		values[i] = p.InexactFloat64()
		sum += values[i]
	}
	mean := sum / float64(len(values))
	if mean <= 0 {
		return StabilityResult{Score: NeutralStability, LowConfidence: true}
	}

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sq / float64(len(values)))
	cvPct := stddev / mean * 100

	return StabilityResult{Score: clip(100 - e.cfg.StabilityK*cvPct)}
}

func newestStamp(history []extract.RankPoint) time.Time {
	var newest time.Time
	for _, p := range history {
		if p.At.After(newest) {
			newest = p.At
		}
	}
	return newest
}

// inWindow accepts unstamped observations: a zero time cannot be excluded
// without inventing a timestamp for it.
func inWindow(at, start time.Time) bool {
	if at.IsZero() || start.IsZero() {
		return true
	}
	return !at.Before(start)
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
