package extract

import (
	"testing"
	"time"
)

func TestLatestPrice_CurrentSlotWins(t *testing.T) {
	p := &RawProduct{
		ASIN:    "B000TEST01",
		Current: map[Metric]int64{MetricPrice: 1698},
		History: map[Metric]*RawSeries{
			MetricPrice: {Minutes: []int64{100, 200}, Values: []int64{2099, 1899}},
		},
		Avg30: map[Metric]int64{MetricPrice: 1750},
	}

	price, source := LatestPrice(p, MetricPrice)
	if source != SourceCurrent {
		t.Fatalf("expected source %q, got %q", SourceCurrent, source)
	}
	if price.String() != "16.98" {
		t.Errorf("expected 16.98, got %s", price)
	}
}

func TestLatestPrice_FallsBackThroughRepresentations(t *testing.T) {
	tests := []struct {
		name    string
		product *RawProduct
		want    string
		source  Source
	}{
		{
			name: "sentinel current falls back to history",
			product: &RawProduct{
				Current: map[Metric]int64{MetricPrice: Sentinel},
				History: map[Metric]*RawSeries{
					MetricPrice: {Minutes: []int64{100, 200}, Values: []int64{2099, 1899}},
				},
			},
			want:   "18.99",
			source: SourceHistory,
		},
		{
			name: "sentinel tail skipped inside history",
			product: &RawProduct{
				History: map[Metric]*RawSeries{
					MetricPrice: {Minutes: []int64{100, 200, 300}, Values: []int64{2099, Sentinel, Sentinel}},
				},
			},
			want:   "20.99",
			source: SourceHistory,
		},
		{
			name: "empty history falls back to avg30",
			product: &RawProduct{
				History: map[Metric]*RawSeries{MetricPrice: {}},
				Avg30:   map[Metric]int64{MetricPrice: 1750},
			},
			want:   "17.5",
			source: SourceAvg30,
		},
		{
			name: "avg90 is the last resort",
			product: &RawProduct{
				Avg30: map[Metric]int64{MetricPrice: Sentinel},
				Avg90: map[Metric]int64{MetricPrice: 1200},
			},
			want:   "12",
			source: SourceAvg90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, source := LatestPrice(tt.product, MetricPrice)
			if source != tt.source {
				t.Fatalf("expected source %q, got %q", tt.source, source)
			}
			if price.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, price)
			}
		})
	}
}

func TestLatestPrice_NoSource(t *testing.T) {
	tests := []struct {
		name    string
		product *RawProduct
	}{
		{name: "nil product", product: nil},
		{name: "empty product", product: &RawProduct{}},
		{
			name: "all sentinel everywhere",
			product: &RawProduct{
				Current: map[Metric]int64{MetricPrice: Sentinel},
				History: map[Metric]*RawSeries{
					MetricPrice: {Minutes: []int64{1, 2, 3}, Values: []int64{Sentinel, Sentinel, Sentinel}},
				},
				Avg30: map[Metric]int64{MetricPrice: Sentinel},
				Avg90: map[Metric]int64{MetricPrice: Sentinel},
			},
		},
		{
			name: "long all-sentinel series",
			product: &RawProduct{
				History: map[Metric]*RawSeries{
					MetricPrice: {Values: sentinelRun(500)},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, source := LatestPrice(tt.product, MetricPrice)
			if source != SourceNone {
				t.Fatalf("expected %q, got %q", SourceNone, source)
			}
			if !price.IsZero() {
				t.Errorf("expected zero price, got %s", price)
			}
		})
	}
}

func TestLatestRank_Unmodified(t *testing.T) {
	p := &RawProduct{Current: map[Metric]int64{MetricRank: 47}}

	rank, source := LatestRank(p, MetricRank)
	if source != SourceCurrent {
		t.Fatalf("expected source %q, got %q", SourceCurrent, source)
	}
	if rank != 47 {
		t.Errorf("expected rank 47, got %d", rank)
	}
}

func TestLatestRank_NegativeValuesTreatedAsAbsent(t *testing.T) {
	p := &RawProduct{
		Current: map[Metric]int64{MetricRank: -7},
		History: map[Metric]*RawSeries{
			MetricRank: {Minutes: []int64{10}, Values: []int64{125000}},
		},
	}

	rank, source := LatestRank(p, MetricRank)
	if source != SourceHistory {
		t.Fatalf("expected source %q, got %q", SourceHistory, source)
	}
	if rank != 125000 {
		t.Errorf("expected rank 125000, got %d", rank)
	}
}

func TestRankHistory_MismatchedLengths(t *testing.T) {
	// Values longer than minutes: the extra entries keep their value but get
	// the zero time instead of panicking on a missing stamp.
	p := &RawProduct{
		History: map[Metric]*RawSeries{
			MetricRank: {
				Minutes: []int64{60},
				Values:  []int64{90000, Sentinel, 85000},
			},
		},
	}

	points := RankHistory(p)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Rank != 90000 || points[0].At.IsZero() {
		t.Errorf("first point wrong: %+v", points[0])
	}
	if points[1].Rank != 85000 || !points[1].At.IsZero() {
		t.Errorf("second point should carry zero time: %+v", points[1])
	}
}

func TestPriceHistory_SkipsSentinels(t *testing.T) {
	p := &RawProduct{
		History: map[Metric]*RawSeries{
			MetricPrice: {
				Minutes: []int64{60, 120, 180},
				Values:  []int64{1099, Sentinel, 1299},
			},
		},
	}

	points := PriceHistory(p)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Price.String() != "10.99" || points[1].Price.String() != "12.99" {
		t.Errorf("unexpected prices: %s, %s", points[0].Price, points[1].Price)
	}
}

func TestMinutesToTime(t *testing.T) {
	if !MinutesToTime(0).IsZero() {
		t.Error("zero minutes should decode to zero time")
	}
	if !MinutesToTime(-5).IsZero() {
		t.Error("negative minutes should decode to zero time")
	}

	got := MinutesToTime(1)
	want := time.Date(2011, time.January, 1, 0, 1, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func sentinelRun(n int) []int64 {
	vs := make([]int64, n)
	for i := range vs {
		vs[i] = Sentinel
	}
	return vs
}
