package extract

import (
	"time"

	"github.com/shopspring/decimal"
)

// providerEpoch anchors the catalog provider's minute-granularity stamps.
var providerEpoch = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)

var centsPerUnit = decimal.NewFromInt(100)

// MinutesToTime converts a provider-epoch minute stamp to UTC. Non-positive
// stamps decode to the zero time, which callers treat as "unknown".
func MinutesToTime(minutes int64) time.Time {
	if minutes <= 0 {
		return time.Time{}
	}
	return providerEpoch.Add(time.Duration(minutes) * time.Minute)
}

// CentsToDecimal converts a raw integer cent amount to currency units.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsPerUnit)
}

// LatestPrice returns the freshest decodable price for the metric in currency
// units, plus the source slot that supplied it. Missing, empty, or
// all-sentinel input yields (zero, SourceNone) and never an error.
func LatestPrice(p *RawProduct, metric Metric) (decimal.Decimal, Source) {
	raw, source, ok := latestRaw(p, metric)
	if !ok {
		return decimal.Decimal{}, SourceNone
	}
	return CentsToDecimal(raw), source
}

// LatestRank returns the freshest decodable rank for the metric. Ranks are
// returned unmodified: a rank is a position, never a currency amount.
func LatestRank(p *RawProduct, metric Metric) (int, Source) {
	raw, source, ok := latestRaw(p, metric)
	if !ok {
		return 0, SourceNone
	}
	return int(raw), source
}

// latestRaw walks the known representations in priority order: the live
// snapshot slot first, then the rolling history newest to oldest, then the
// 30- and 90-day average slots.
func latestRaw(p *RawProduct, metric Metric) (int64, Source, bool) {
	if p == nil {
		return 0, SourceNone, false
	}
	if v, ok := slotValue(p.Current, metric); ok {
		return v, SourceCurrent, true
	}
	if v, ok := lastValid(p.History[metric]); ok {
		return v, SourceHistory, true
	}
	if v, ok := slotValue(p.Avg30, metric); ok {
		return v, SourceAvg30, true
	}
	if v, ok := slotValue(p.Avg90, metric); ok {
		return v, SourceAvg90, true
	}
	return 0, SourceNone, false
}

func slotValue(slot map[Metric]int64, metric Metric) (int64, bool) {
	if slot == nil {
		return 0, false
	}
	v, ok := slot[metric]
	if !ok || !valid(v) {
		return 0, false
	}
	return v, true
}

// lastValid scans a series from the most recent entry backward and returns
// the first non-sentinel value.
func lastValid(s *RawSeries) (int64, bool) {
	if s == nil {
		return 0, false
	}
	for i := len(s.Values) - 1; i >= 0; i-- {
		if valid(s.Values[i]) {
			return s.Values[i], true
		}
	}
	return 0, false
}

// valid rejects the sentinel and anything below it. Price and rank can never
// legitimately be negative, so the whole negative range is treated as absent.
func valid(v int64) bool {
	return v >= 0 && v != Sentinel
}

// RankHistory decodes the rank series into timestamped observations, skipping
// sentinel entries. Entries without a matching minute stamp get the zero
// time; slices of mismatched length are tolerated, never indexed past.
func RankHistory(p *RawProduct) []RankPoint {
	if p == nil {
		return nil
	}
	s := p.History[MetricRank]
	if s == nil {
		return nil
	}
	points := make([]RankPoint, 0, len(s.Values))
	for i, v := range s.Values {
		if !valid(v) {
			continue
		}
		var at time.Time
		if i < len(s.Minutes) {
			at = MinutesToTime(s.Minutes[i])
		}
		points = append(points, RankPoint{At: at, Rank: int(v)})
	}
	return points
}

// PriceHistory decodes the price series into currency-unit observations,
// skipping sentinel entries.
func PriceHistory(p *RawProduct) []PricePoint {
	if p == nil {
		return nil
	}
	s := p.History[MetricPrice]
	if s == nil {
		return nil
	}
	points := make([]PricePoint, 0, len(s.Values))
	for i, v := range s.Values {
		if !valid(v) {
			continue
		}
		var at time.Time
		if i < len(s.Minutes) {
			at = MinutesToTime(s.Minutes[i])
		}
		points = append(points, PricePoint{At: at, Price: CentsToDecimal(v)})
	}
	return points
}
