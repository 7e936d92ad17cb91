package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipscan/flipscan/internal/score"
)

const validScoring = `
version: 1
engine:
  clock_skew_tolerance: 5m
batch:
  max_concurrency: 4
  deadline: 10s
views:
  dashboard: {roi: 0.40, velocity: 0.35, stability: 0.25}
  mes_niches: {roi: 0.60, velocity: 0.20, stability: 0.20}
strategies:
  textbook:
    thresholds: {min_roi: 80, min_velocity: 30, min_price: "40.00", max_bsr: 250000}
    boosts: {roi: 1.2}
  velocity:
    thresholds: {min_roi: 30, min_velocity: 70, min_price: "25.00", max_bsr: 250000}
    boosts: {velocity: 1.15}
  balanced:
    thresholds: {min_roi: 25, min_velocity: 50}
velocity:
  window_days: 30
  stability_k: 2.0
  default_cutoff: 6
  fast_cutoffs: {books: 4}
`

const validFees = `
version: 1
safety_buffer: "0.50"
categories:
  books: {referral_pct: "0.15", closing_fee: "1.80", fba_base_fee: "2.50", fba_per_lb: "0.40"}
  default: {referral_pct: "0.15", closing_fee: "0.00", fba_base_fee: "3.00", fba_per_lb: "0.50"}
`

func writeConfigDir(t *testing.T, scoring, fees string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ScoringFile), []byte(scoring), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FeesFile), []byte(fees), 0o644))
	return dir
}

func TestLoad_Valid(t *testing.T) {
	dir := writeConfigDir(t, validScoring, validFees)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, score.Weights{ROI: 0.60, Velocity: 0.20, Stability: 0.20}, cfg.Views[score.ViewMesNiches])
	assert.Equal(t, 250000, cfg.Strategies[score.StrategyTextbook].Thresholds.MaxBSR)
	assert.Equal(t, "40", cfg.Strategies[score.StrategyTextbook].Thresholds.MinPrice.String())
	assert.Equal(t, 10*time.Second, cfg.Batch.Deadline)
	assert.Equal(t, 5*time.Minute, cfg.Engine.ClockSkewTolerance)
	assert.True(t, cfg.Schedule.Categories()["books"])
}

func TestLoad_ErrorsNameTheOffendingKey(t *testing.T) {
	tests := []struct {
		name    string
		scoring string
		fees    string
		wantKey string
	}{
		{
			name: "missing dashboard view",
			scoring: `
version: 1
engine: {clock_skew_tolerance: 5m}
batch: {max_concurrency: 4, deadline: 10s}
views:
  mes_niches: {roi: 0.60, velocity: 0.20, stability: 0.20}
strategies:
  textbook: {thresholds: {min_roi: 80, min_velocity: 30}}
  velocity: {thresholds: {min_roi: 30, min_velocity: 70}}
  balanced: {thresholds: {min_roi: 25, min_velocity: 50}}
velocity: {window_days: 30, stability_k: 2.0, default_cutoff: 6}
`,
			fees:    validFees,
			wantKey: "views.dashboard",
		},
		{
			name: "negative weight",
			scoring: `
version: 1
engine: {clock_skew_tolerance: 5m}
batch: {max_concurrency: 4, deadline: 10s}
views:
  dashboard: {roi: -0.40, velocity: 0.35, stability: 0.25}
strategies:
  textbook: {thresholds: {min_roi: 80, min_velocity: 30}}
  velocity: {thresholds: {min_roi: 30, min_velocity: 70}}
  balanced: {thresholds: {min_roi: 25, min_velocity: 50}}
velocity: {window_days: 30, stability_k: 2.0, default_cutoff: 6}
`,
			fees:    validFees,
			wantKey: "views.dashboard",
		},
		{
			name: "missing required strategy",
			scoring: `
version: 1
engine: {clock_skew_tolerance: 5m}
batch: {max_concurrency: 4, deadline: 10s}
views:
  dashboard: {roi: 0.40, velocity: 0.35, stability: 0.25}
strategies:
  textbook: {thresholds: {min_roi: 80, min_velocity: 30}}
  velocity: {thresholds: {min_roi: 30, min_velocity: 70}}
velocity: {window_days: 30, stability_k: 2.0, default_cutoff: 6}
`,
			fees:    validFees,
			wantKey: "strategies.balanced",
		},
		{
			name:    "bad min price",
			scoring: replaceOnce(t, validScoring, `min_price: "40.00"`, `min_price: "forty"`),
			fees:    validFees,
			wantKey: "strategies.textbook.thresholds.min_price",
		},
		{
			name:    "bad deadline",
			scoring: replaceOnce(t, validScoring, "deadline: 10s", "deadline: soon"),
			fees:    validFees,
			wantKey: "batch.deadline",
		},
		{
			name:    "missing default category",
			scoring: validScoring,
			fees: `
version: 1
categories:
  books: {referral_pct: "0.15", closing_fee: "1.80", fba_base_fee: "2.50", fba_per_lb: "0.40"}
`,
			wantKey: "categories.default",
		},
		{
			name:    "referral pct not a fraction",
			scoring: validScoring,
			fees:    replaceOnce(t, validFees, `referral_pct: "0.15", closing_fee: "1.80"`, `referral_pct: "15", closing_fee: "1.80"`),
			wantKey: "categories.books.referral_pct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfigDir(t, tt.scoring, tt.fees)

			_, err := Load(dir)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantKey, verr.Key, "error: %v", err)
		})
	}
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
}

func TestDefault_MatchesShippedInvariants(t *testing.T) {
	cfg := Default()

	require.Contains(t, cfg.Views, score.ViewDashboard)
	for _, name := range []score.StrategyName{score.StrategyTextbook, score.StrategyVelocity, score.StrategyBalanced} {
		require.Contains(t, cfg.Strategies, name)
	}
	require.True(t, cfg.Schedule.Categories()["default"])
	require.Positive(t, cfg.Batch.MaxConcurrency)
}

func TestStore_ReloadSwapsAtomically(t *testing.T) {
	dir := writeConfigDir(t, validScoring, validFees)

	store := NewStore(Default())
	first := store.Current()

	require.NoError(t, store.Reload(dir))
	assert.NotSame(t, first, store.Current(), "reload must swap the pointer")

	// A failed reload keeps the previous configuration live.
	live := store.Current()
	require.Error(t, store.Reload(t.TempDir()))
	assert.Same(t, live, store.Current())
}

func replaceOnce(t *testing.T, doc, old, new string) string {
	t.Helper()
	out := strings.Replace(doc, old, new, 1)
	require.NotEqual(t, doc, out, "replacement %q had no effect", old)
	return out
}
