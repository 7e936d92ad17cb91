package config

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipscan/flipscan/internal/domain/fees"
	"github.com/flipscan/flipscan/internal/domain/velocity"
	"github.com/flipscan/flipscan/internal/score"
)

// Default returns the built-in configuration, matching config/scoring.yaml
// and config/fees.yaml as shipped. Used when no config directory is given and
// by tests that need a known-good baseline.
func Default() *Config {
	d := decimal.RequireFromString

	schedule := fees.NewSchedule(map[string]fees.CategoryFees{
		"books": {
			ReferralPct: d("0.15"),
			ClosingFee:  d("1.80"),
			FBABaseFee:  d("2.50"),
			FBAPerLb:    d("0.40"),
		},
		"electronics": {
			ReferralPct: d("0.08"),
			ClosingFee:  d("0"),
			FBABaseFee:  d("3.20"),
			FBAPerLb:    d("0.55"),
		},
		"default": {
			ReferralPct: d("0.15"),
			ClosingFee:  d("0"),
			FBABaseFee:  d("3.00"),
			FBAPerLb:    d("0.50"),
		},
	}, d("0"), d("0"), d("0.50"))

	return &Config{
		Version: 1,
		Views: map[score.ViewID]score.Weights{
			score.ViewDashboard:    {ROI: 0.40, Velocity: 0.35, Stability: 0.25},
			score.ViewMesNiches:    {ROI: 0.60, Velocity: 0.20, Stability: 0.20},
			score.ViewAutoSource:   {ROI: 0.20, Velocity: 0.60, Stability: 0.20},
			score.ViewTextbookHunt: {ROI: 0.50, Velocity: 0.30, Stability: 0.20},
		},
		Strategies: map[score.StrategyName]score.StrategyProfile{
			score.StrategyTextbook: {
				Thresholds: score.Thresholds{MinROI: 80, MinVelocity: 30, MinPrice: d("40"), MaxBSR: 250000},
				Boosts:     score.Boosts{ROI: 1.2},
			},
			score.StrategyVelocity: {
				Thresholds: score.Thresholds{MinROI: 30, MinVelocity: 70, MinPrice: d("25"), MaxBSR: 250000},
				Boosts:     score.Boosts{Velocity: 1.15},
			},
			score.StrategyBalanced: {
				Thresholds: score.Thresholds{MinROI: 25, MinVelocity: 50},
			},
		},
		Velocity: velocity.Config{
			WindowDays:    30,
			StabilityK:    2.0,
			DefaultCutoff: 6,
			FastCutoffs:   map[string]int{"books": 4, "electronics": 10},
		},
		Schedule: schedule,
		Batch:    BatchConfig{MaxConcurrency: 8, Deadline: 30 * time.Second},
		Engine:   EngineConfig{ClockSkewTolerance: 5 * time.Minute},
	}
}
