package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipscan/flipscan/internal/config"
	"github.com/flipscan/flipscan/internal/domain/extract"
	"github.com/flipscan/flipscan/internal/providers/catalog"
	"github.com/flipscan/flipscan/internal/score"
)

// fakeFetcher serves canned records or errors per ASIN.
type fakeFetcher struct {
	mu      sync.Mutex
	records map[string]*extract.RawProduct
	errs    map[string]error
	delay   time.Duration
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, asin string) (*extract.RawProduct, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, &catalog.TimeoutError{}
		}
	}
	if err, ok := f.errs[asin]; ok {
		return nil, err
	}
	if raw, ok := f.records[asin]; ok {
		return raw, nil
	}
	return nil, &catalog.ServiceError{Status: 404, Message: "not found"}
}

func minutesAgo(d time.Duration) int64 {
	epoch := time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int64(time.Now().Add(-d).Sub(epoch) / time.Minute)
}

func healthyRecord(asin string, priceCents, rank int64) *extract.RawProduct {
	return &extract.RawProduct{
		ASIN:     asin,
		Title:    "Record " + asin,
		Category: "books",
		Current: map[extract.Metric]int64{
			extract.MetricPrice: priceCents,
			extract.MetricRank:  rank,
		},
		History: map[extract.Metric]*extract.RawSeries{
			extract.MetricPrice: {
				Minutes: []int64{minutesAgo(72 * time.Hour), minutesAgo(48 * time.Hour), minutesAgo(24 * time.Hour)},
				Values:  []int64{priceCents + 100, priceCents - 50, priceCents},
			},
			extract.MetricRank: {
				Minutes: []int64{minutesAgo(72 * time.Hour), minutesAgo(48 * time.Hour), minutesAgo(24 * time.Hour)},
				Values:  []int64{rank * 3, rank * 2, rank},
			},
		},
		LastUpdateMinutes: minutesAgo(time.Hour),
	}
}

func request(asin string) Request {
	return Request{
		ASIN:         asin,
		BuyCost:      decimal.RequireFromString("6.63"),
		WeightLb:     decimal.RequireFromString("1.0"),
		CategoryHint: "books",
	}
}

func TestScanBatch_IsolatesItemFailures(t *testing.T) {
	// Five candidates, one upstream timeout: the other four still score and
	// the average covers only the successes.
	asins := []string{"B00AAAAAA1", "B00AAAAAA2", "B00AAAAAA3", "B00AAAAAA4", "B00AAAAAA5"}
	f := &fakeFetcher{
		records: map[string]*extract.RawProduct{},
		errs:    map[string]error{"B00AAAAAA3": &catalog.TimeoutError{}},
	}
	for _, asin := range asins {
		if asin != "B00AAAAAA3" {
			f.records[asin] = healthyRecord(asin, 1698, 90000)
		}
	}

	p := New(f, config.Default())
	requests := make([]Request, len(asins))
	for i, asin := range asins {
		requests[i] = request(asin)
	}

	summary := p.ScanBatch(context.Background(), requests, score.ViewDashboard, "")

	require.Len(t, summary.Results, 5)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.NotEmpty(t, summary.RunID)

	var failed *score.ScoreResult
	var total float64
	for i := range summary.Results {
		r := &summary.Results[i]
		if r.Error != "" {
			failed = r
			continue
		}
		total += r.Score
	}
	require.NotNil(t, failed)
	assert.Equal(t, "B00AAAAAA3", failed.ASIN)
	assert.Equal(t, "timeout", failed.Error)
	assert.Zero(t, failed.Score)
	assert.InDelta(t, total/4, summary.AvgScore, 1e-9, "avg over successes only")
}

func TestScanBatch_DeadlineMarksPendingAsTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Batch.MaxConcurrency = 1
	cfg.Batch.Deadline = 50 * time.Millisecond

	f := &fakeFetcher{
		records: map[string]*extract.RawProduct{
			"B00SLOW001": healthyRecord("B00SLOW001", 1698, 90000),
			"B00SLOW002": healthyRecord("B00SLOW002", 1698, 90000),
			"B00SLOW003": healthyRecord("B00SLOW003", 1698, 90000),
		},
		delay: 200 * time.Millisecond,
	}

	p := New(f, cfg)
	summary := p.ScanBatch(context.Background(), []Request{
		request("B00SLOW001"), request("B00SLOW002"), request("B00SLOW003"),
	}, score.ViewDashboard, "")

	require.Len(t, summary.Results, 3)
	assert.Equal(t, 3, summary.Failed)
	for _, r := range summary.Results {
		assert.Equal(t, "timeout", r.Error)
		assert.Zero(t, r.Score)
	}
}

func TestScanBatch_ErrorClassification(t *testing.T) {
	f := &fakeFetcher{
		records: map[string]*extract.RawProduct{"B00GOOD001": healthyRecord("B00GOOD001", 1698, 90000)},
		errs: map[string]error{
			"B00RATE001": &catalog.RateLimitError{RetryAfter: time.Second},
			"B00DOWN001": &catalog.ServiceError{Status: 503, Message: "unavailable"},
		},
	}

	p := New(f, config.Default())
	summary := p.ScanBatch(context.Background(), []Request{
		request("B00GOOD001"), request("B00RATE001"), request("B00DOWN001"),
	}, score.ViewDashboard, "")

	byASIN := map[string]score.ScoreResult{}
	for _, r := range summary.Results {
		byASIN[r.ASIN] = r
	}
	assert.Empty(t, byASIN["B00GOOD001"].Error)
	assert.Equal(t, "rate_limited", byASIN["B00RATE001"].Error)
	assert.Equal(t, "upstream_error", byASIN["B00DOWN001"].Error)
}

func TestScanBatch_RanksDeterministically(t *testing.T) {
	f := &fakeFetcher{
		records: map[string]*extract.RawProduct{
			"B00CHEAP01": healthyRecord("B00CHEAP01", 500, 900000),
			"B00RICH001": healthyRecord("B00RICH001", 4500, 50000),
		},
	}

	p := New(f, config.Default())
	reqs := []Request{request("B00CHEAP01"), request("B00RICH001")}

	first := p.ScanBatch(context.Background(), reqs, score.ViewMesNiches, "")
	second := p.ScanBatch(context.Background(), reqs, score.ViewMesNiches, "")

	require.Len(t, first.Results, 2)
	assert.Equal(t, "B00RICH001", first.Results[0].ASIN, "higher-ROI item ranks first under the ROI view")
	for i := range first.Results {
		assert.Equal(t, first.Results[i].ASIN, second.Results[i].ASIN)
		assert.Equal(t, first.Results[i].Score, second.Results[i].Score, "scoring must be deterministic")
		assert.Equal(t, i+1, first.Results[i].Rank)
	}
}

func TestScoreOne_MissingPriceStillScores(t *testing.T) {
	raw := &extract.RawProduct{
		ASIN:     "B00NODATA1",
		Category: "books",
		Current:  map[extract.Metric]int64{extract.MetricRank: 120000},
	}
	f := &fakeFetcher{records: map[string]*extract.RawProduct{"B00NODATA1": raw}}

	p := New(f, config.Default())
	r := p.ScoreOne(context.Background(), request("B00NODATA1"), score.ViewDashboard, "")

	assert.Empty(t, r.Error, "missing price degrades, it does not fail the item")
	assert.Zero(t, r.RawMetrics.ROIPct)
	assert.Nil(t, r.RawMetrics.Price)
	require.NotNil(t, r.RawMetrics.BSR)
	assert.Equal(t, 120000, *r.RawMetrics.BSR)
}

func TestScanBatch_EmptyBatch(t *testing.T) {
	p := New(&fakeFetcher{}, config.Default())
	summary := p.ScanBatch(context.Background(), nil, score.ViewDashboard, "")

	assert.Empty(t, summary.Results)
	assert.Zero(t, summary.Succeeded)
	assert.Zero(t, summary.AvgScore)
}
