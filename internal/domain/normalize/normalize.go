// Package normalize turns extracted raw scalars into the typed snapshot the
// scoring pipeline consumes: decimal currency prices, positive integer ranks,
// a source-tiered confidence level, and a resolved fee category.
package normalize

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/flipscan/flipscan/internal/domain/extract"
)

// DefaultCategory is the fee category used when the hint is missing or not in
// the schedule. Unknown categories degrade, they never fail an item.
const DefaultCategory = "default"

// ProductSnapshot is the normalized per-ASIN view built fresh per analysis
// request. Nil pointer fields mean "no data", not zero values.
type ProductSnapshot struct {
	ASIN          string           `json:"asin"`
	Title         string           `json:"title"`
	Category      string           `json:"category"`
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	CurrentBSR    *int             `json:"current_bsr,omitempty"`
	BSRConfidence float64          `json:"bsr_confidence"`
	LastUpdated   *time.Time       `json:"last_updated,omitempty"`

	// PriceSource and RankSource record which raw representation supplied
	// each value, for explainability in downstream output.
	PriceSource extract.Source `json:"price_source"`
	RankSource  extract.Source `json:"rank_source"`
}

// Config controls normalization behavior. KnownCategories comes from the fee
// schedule; ClockSkewTolerance bounds how far in the future an upstream
// timestamp may sit before recency is treated as unknown.
type Config struct {
	KnownCategories    map[string]bool
	ClockSkewTolerance time.Duration
}

// Normalizer is safe for concurrent use; its configuration is immutable.
type Normalizer struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Normalizer {
	return &Normalizer{cfg: cfg, now: time.Now}
}

// NewWithClock injects the clock, for deterministic skew tests.
func NewWithClock(cfg Config, now func() time.Time) *Normalizer {
	return &Normalizer{cfg: cfg, now: now}
}

// confidence tiers by source: live snapshot is trusted fully, the rolling
// history less, trailing averages least. No source means no confidence.
func sourceConfidence(s extract.Source) float64 {
	switch s {
	case extract.SourceCurrent:
		return 1.0
	case extract.SourceHistory:
		return 0.6
	case extract.SourceAvg30, extract.SourceAvg90:
		return 0.3
	default:
		return 0.0
	}
}

// Normalize builds a snapshot from a raw record. It never fails: missing data
// shows up as nil fields with zero confidence, never as an error.
func (n *Normalizer) Normalize(raw *extract.RawProduct, categoryHint string) ProductSnapshot {
	snap := ProductSnapshot{
		Category:    n.ResolveCategory(categoryHint),
		PriceSource: extract.SourceNone,
		RankSource:  extract.SourceNone,
	}
	if raw == nil {
		return snap
	}

	snap.ASIN = raw.ASIN
	snap.Title = raw.Title
	if categoryHint == "" {
		snap.Category = n.ResolveCategory(raw.Category)
	}

	if price, source := extract.LatestPrice(raw, extract.MetricPrice); source != extract.SourceNone {
		snap.CurrentPrice = &price
		snap.PriceSource = source
	}

	if rank, source := extract.LatestRank(raw, extract.MetricRank); source != extract.SourceNone && rank > 0 {
		snap.CurrentBSR = &rank
		snap.RankSource = source
	}
	snap.BSRConfidence = sourceConfidence(snap.RankSource)

	snap.LastUpdated = n.resolveRecency(raw.LastUpdateMinutes)
	return snap
}

// ResolveCategory lowercases the hint and maps anything outside the known set
// to the default schedule.
func (n *Normalizer) ResolveCategory(hint string) string {
	c := strings.ToLower(strings.TrimSpace(hint))
	if c == "" || !n.cfg.KnownCategories[c] {
		return DefaultCategory
	}
	return c
}

// resolveRecency converts the provider's minute stamp to UTC. A stamp beyond
// the clock-skew tolerance into the future means the provider's clock and
// ours disagree; recency becomes unknown rather than an error.
func (n *Normalizer) resolveRecency(minutes int64) *time.Time {
	at := extract.MinutesToTime(minutes)
	if at.IsZero() {
		return nil
	}
	if at.After(n.now().Add(n.cfg.ClockSkewTolerance)) {
		log.Warn().
			Time("upstream_ts", at).
			Dur("tolerance", n.cfg.ClockSkewTolerance).
			Msg("upstream timestamp beyond clock-skew tolerance, recency unknown")
		return nil
	}
	utc := at.UTC()
	return &utc
}
