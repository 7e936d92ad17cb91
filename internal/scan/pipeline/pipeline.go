// Package pipeline orchestrates batch scoring: bounded-concurrency fetches,
// per-item normalization and scoring, per-item error isolation, and batch
// aggregate statistics. Scoring itself is pure; the pipeline owns everything
// that can block.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/flipscan/flipscan/internal/config"
	"github.com/flipscan/flipscan/internal/domain/extract"
	"github.com/flipscan/flipscan/internal/domain/fees"
	"github.com/flipscan/flipscan/internal/domain/normalize"
	"github.com/flipscan/flipscan/internal/domain/velocity"
	"github.com/flipscan/flipscan/internal/metrics"
	"github.com/flipscan/flipscan/internal/providers/catalog"
	"github.com/flipscan/flipscan/internal/score"
)

// Request describes one candidate to evaluate.
type Request struct {
	ASIN         string
	BuyCost      decimal.Decimal
	WeightLb     decimal.Decimal
	CategoryHint string
}

// Summary is one batch run's output: ranked results plus aggregates computed
// only over successful items.
type Summary struct {
	RunID     string              `json:"run_id"`
	View      score.ViewID        `json:"view"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	AvgScore  float64             `json:"avg_score"`
	Results   []score.ScoreResult `json:"results"`
}

// Pipeline wires the fetch collaborator to the scoring engine. All fields are
// immutable after construction; a config hot-reload builds a new Pipeline.
type Pipeline struct {
	fetcher     catalog.Fetcher
	normalizer  *normalize.Normalizer
	schedule    *fees.Schedule
	estimator   *velocity.Estimator
	scorer      *score.Scorer
	concurrency int
	deadline    time.Duration
}

func New(fetcher catalog.Fetcher, cfg *config.Config) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		normalizer:  normalize.New(cfg.NormalizeConfig()),
		schedule:    cfg.Schedule,
		estimator:   velocity.New(cfg.Velocity),
		scorer:      score.NewScorer(cfg.Views, cfg.Strategies),
		concurrency: cfg.Batch.MaxConcurrency,
		deadline:    cfg.Batch.Deadline,
	}
}

// ScanBatch scores every request under the view. Per-item failures never
// abort siblings; items still pending when the batch deadline passes are
// marked "timeout" and whatever finished is returned.
func (p *Pipeline) ScanBatch(ctx context.Context, requests []Request, view score.ViewID, strategy score.StrategyName) *Summary {
	started := time.Now()
	summary := &Summary{
		RunID:     uuid.NewString(),
		View:      view,
		StartedAt: started,
	}
	if len(requests) == 0 {
		return summary
	}

	if p.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}

	results := make([]score.ScoreResult, len(requests))
	jobs := make(chan int)

	workers := p.concurrency
	if workers > len(requests) {
		workers = len(requests)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = score.ErrorResult(requests[idx].ASIN, view, metrics.OutcomeTimeout)
					continue
				}
				results[idx] = p.ScoreOne(ctx, requests[idx], view, strategy)
			}
		}()
	}
	for idx := range requests {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	score.RankResults(results)
	summary.Results = results
	summary.Duration = time.Since(started)

	var total float64
	for _, r := range results {
		if r.Error != "" {
			summary.Failed++
			metrics.ScanItems.WithLabelValues(r.Error).Inc()
			continue
		}
		summary.Succeeded++
		total += r.Score
		metrics.ScanItems.WithLabelValues(metrics.OutcomeOK).Inc()
		metrics.ScoreDistribution.Observe(r.Score)
	}
	if summary.Succeeded > 0 {
		summary.AvgScore = total / float64(summary.Succeeded)
	}
	metrics.ScanRuns.Inc()

	log.Info().
		Str("run_id", summary.RunID).
		Str("view", string(view)).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("batch scan complete")
	return summary
}

// ScoreOne evaluates a single candidate. Fetch failures map onto the item's
// Error field; everything past the fetch is pure computation.
func (p *Pipeline) ScoreOne(ctx context.Context, req Request, view score.ViewID, strategy score.StrategyName) score.ScoreResult {
	fetchStart := time.Now()
	raw, err := p.fetcher.Fetch(ctx, req.ASIN)
	metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		reason := classify(err)
		log.Warn().Err(err).Str("asin", req.ASIN).Str("reason", reason).Msg("fetch failed")
		return score.ErrorResult(req.ASIN, view, reason)
	}

	snap := p.normalizer.Normalize(raw, req.CategoryHint)

	var roiPct float64
	if snap.CurrentPrice != nil {
		roi := p.schedule.ComputeROI(*snap.CurrentPrice, req.BuyCost, snap.Category, req.WeightLb)
		roiPct = roi.ROIPercentage.InexactFloat64()
	}

	vel := p.estimator.VelocityScore(extract.RankHistory(raw), snap.Category)
	stability := p.estimator.StabilityScore(priceValues(extract.PriceHistory(raw)))

	m := score.Metrics{
		ROIPct:    roiPct,
		Velocity:  vel,
		Stability: stability.Score,
		Price:     snap.CurrentPrice,
		BSR:       snap.CurrentBSR,
	}
	return p.scorer.ComputeViewScore(req.ASIN, m, view, strategy)
}

func priceValues(points []extract.PricePoint) []decimal.Decimal {
	if len(points) == 0 {
		return nil
	}
	prices := make([]decimal.Decimal, len(points))
	for i, pt := range points {
		prices[i] = pt.Price
	}
	return prices
}

// classify maps a fetch failure onto the item error vocabulary shared with
// the metrics outcome labels.
func classify(err error) string {
	switch {
	case errors.Is(err, catalog.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	case errors.Is(err, catalog.ErrRateLimited):
		return metrics.OutcomeRateLimited
	default:
		return metrics.OutcomeUpstream
	}
}
