package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/flipscan/flipscan/internal/domain/velocity"
	"github.com/flipscan/flipscan/internal/score"
)

// scoringDoc mirrors scoring.yaml. Money-typed fields travel as strings and
// are parsed into decimals during validation so a bad amount names its key.
type scoringDoc struct {
	Version int `yaml:"version"`
	Engine  struct {
		ClockSkewTolerance string `yaml:"clock_skew_tolerance"`
	} `yaml:"engine"`
	Batch struct {
		MaxConcurrency int    `yaml:"max_concurrency"`
		Deadline       string `yaml:"deadline"`
	} `yaml:"batch"`
	Views      map[string]score.Weights `yaml:"views"`
	Strategies map[string]strategyDoc   `yaml:"strategies"`
	Velocity   struct {
		WindowDays    int            `yaml:"window_days"`
		StabilityK    float64        `yaml:"stability_k"`
		DefaultCutoff int            `yaml:"default_cutoff"`
		FastCutoffs   map[string]int `yaml:"fast_cutoffs"`
	} `yaml:"velocity"`
}

type strategyDoc struct {
	Thresholds struct {
		MinROI      float64 `yaml:"min_roi"`
		MinVelocity float64 `yaml:"min_velocity"`
		MinPrice    string  `yaml:"min_price"`
		MaxBSR      int     `yaml:"max_bsr"`
	} `yaml:"thresholds"`
	Boosts score.Boosts `yaml:"boosts"`
}

// scoringConfig is the validated, typed form of the document.
type scoringConfig struct {
	version    int
	views      map[score.ViewID]score.Weights
	strategies map[score.StrategyName]score.StrategyProfile
	velocity   velocity.Config
	batch      BatchConfig
	engine     EngineConfig
}

func loadScoring(path string) (*scoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring config %s: %w", path, err)
	}

	var doc scoringDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scoring config %s: %w", path, err)
	}

	return buildScoring(&doc)
}

var requiredStrategies = []score.StrategyName{
	score.StrategyTextbook,
	score.StrategyVelocity,
	score.StrategyBalanced,
}

func buildScoring(doc *scoringDoc) (*scoringConfig, error) {
	if doc.Version < 1 {
		return nil, &ValidationError{Key: "version", Reason: "must be >= 1"}
	}

	if len(doc.Views) == 0 {
		return nil, &ValidationError{Key: "views", Reason: "at least one view is required"}
	}
	if _, ok := doc.Views[string(score.ViewDashboard)]; !ok {
		return nil, &ValidationError{Key: "views.dashboard", Reason: "required fallback view is missing"}
	}
	views := make(map[score.ViewID]score.Weights, len(doc.Views))
	for name, w := range doc.Views {
		if w.ROI < 0 || w.Velocity < 0 || w.Stability < 0 {
			return nil, &ValidationError{Key: "views." + name, Reason: "weights must be non-negative"}
		}
		if w.ROI == 0 && w.Velocity == 0 && w.Stability == 0 {
			return nil, &ValidationError{Key: "views." + name, Reason: "all weights are zero"}
		}
		views[score.ViewID(name)] = w
	}

	strategies := make(map[score.StrategyName]score.StrategyProfile, len(doc.Strategies))
	for _, required := range requiredStrategies {
		if _, ok := doc.Strategies[string(required)]; !ok {
			return nil, &ValidationError{Key: "strategies." + string(required), Reason: "required strategy is missing"}
		}
	}
	for name, s := range doc.Strategies {
		minPrice := decimal.Zero
		if s.Thresholds.MinPrice != "" {
			p, err := decimal.NewFromString(s.Thresholds.MinPrice)
			if err != nil {
				return nil, &ValidationError{Key: "strategies." + name + ".thresholds.min_price", Reason: "not a decimal amount"}
			}
			minPrice = p
		}
		if s.Boosts.ROI < 0 || s.Boosts.Velocity < 0 || s.Boosts.Stability < 0 {
			return nil, &ValidationError{Key: "strategies." + name + ".boosts", Reason: "boosts must be non-negative"}
		}
		strategies[score.StrategyName(name)] = score.StrategyProfile{
			Thresholds: score.Thresholds{
				MinROI:      s.Thresholds.MinROI,
				MinVelocity: s.Thresholds.MinVelocity,
				MinPrice:    minPrice,
				MaxBSR:      s.Thresholds.MaxBSR,
			},
			Boosts: s.Boosts,
		}
	}

	if doc.Velocity.WindowDays <= 0 {
		return nil, &ValidationError{Key: "velocity.window_days", Reason: "must be positive"}
	}
	if doc.Velocity.DefaultCutoff <= 0 {
		return nil, &ValidationError{Key: "velocity.default_cutoff", Reason: "must be positive"}
	}
	if doc.Velocity.StabilityK <= 0 {
		return nil, &ValidationError{Key: "velocity.stability_k", Reason: "must be positive"}
	}
	for cat, cutoff := range doc.Velocity.FastCutoffs {
		if cutoff <= 0 {
			return nil, &ValidationError{Key: "velocity.fast_cutoffs." + cat, Reason: "must be positive"}
		}
	}

	if doc.Batch.MaxConcurrency <= 0 {
		return nil, &ValidationError{Key: "batch.max_concurrency", Reason: "must be positive"}
	}
	deadline, err := time.ParseDuration(doc.Batch.Deadline)
	if err != nil || deadline <= 0 {
		return nil, &ValidationError{Key: "batch.deadline", Reason: "must be a positive duration"}
	}

	skew, err := time.ParseDuration(doc.Engine.ClockSkewTolerance)
	if err != nil || skew < 0 {
		return nil, &ValidationError{Key: "engine.clock_skew_tolerance", Reason: "must be a non-negative duration"}
	}

	return &scoringConfig{
		version:    doc.Version,
		views:      views,
		strategies: strategies,
		velocity: velocity.Config{
			WindowDays:    doc.Velocity.WindowDays,
			StabilityK:    doc.Velocity.StabilityK,
			DefaultCutoff: doc.Velocity.DefaultCutoff,
			FastCutoffs:   doc.Velocity.FastCutoffs,
		},
		batch:  BatchConfig{MaxConcurrency: doc.Batch.MaxConcurrency, Deadline: deadline},
		engine: EngineConfig{ClockSkewTolerance: skew},
	}, nil
}
