// Package extract pulls clean scalar values out of the raw, sentinel-coded
// series the catalog provider returns. The sentinel never leaks past this
// package: callers see typed values or an explicit "no source" answer.
package extract

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel marks "no data" inside an otherwise numeric series. It is an
// in-band marker, not a value: a rank or a price of -1 does not exist.
const Sentinel int64 = -1

// Metric names a per-product series in the raw record.
type Metric string

const (
	MetricPrice Metric = "price"
	MetricRank  Metric = "sales_rank"
)

// Source identifies which raw representation supplied an extracted value.
// The normalizer maps sources to confidence tiers, so tags are stable API.
type Source string

const (
	SourceCurrent Source = "current"
	SourceHistory Source = "history"
	SourceAvg30   Source = "avg30"
	SourceAvg90   Source = "avg90"
	SourceNone    Source = "no_source"
)

// RawSeries is one metric's rolling history: provider-epoch minute stamps
// paired with raw integer values. Prices are cents, ranks are plain ranks.
// The two slices come from separate provider arrays and may disagree in
// length; consumers must bounds-check rather than assume alignment.
type RawSeries struct {
	Minutes []int64 `json:"minutes"`
	Values  []int64 `json:"values"`
}

// RawProduct is the per-ASIN record handed over by the fetch layer. Only
// documented keys are populated; any slot may be missing or partial.
type RawProduct struct {
	ASIN     string `json:"asin"`
	Title    string `json:"title"`
	Category string `json:"category"`

	// Current is the live snapshot slot: the provider's freshest value per
	// metric, still sentinel-coded.
	Current map[Metric]int64 `json:"current"`

	// History holds the rolling per-metric series.
	History map[Metric]*RawSeries `json:"history"`

	// Avg30 and Avg90 are the provider's trailing-average slots, used only
	// when neither the snapshot nor the history yields a value.
	Avg30 map[Metric]int64 `json:"avg30"`
	Avg90 map[Metric]int64 `json:"avg90"`

	// LastUpdateMinutes is the record's freshness stamp in provider-epoch
	// minutes. Zero means the provider did not say.
	LastUpdateMinutes int64 `json:"last_update_minutes"`
}

// RankPoint is one decoded rank observation.
type RankPoint struct {
	At   time.Time
	Rank int
}

// PricePoint is one decoded price observation in currency units.
type PricePoint struct {
	At    time.Time
	Price decimal.Decimal
}
