// Package config loads and validates the versioned scoring and fee
// configuration. Validation failures are fatal at startup and always name the
// offending key; after load the configuration is immutable, and hot reload
// swaps the whole value through Store.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/flipscan/flipscan/internal/domain/fees"
	"github.com/flipscan/flipscan/internal/domain/normalize"
	"github.com/flipscan/flipscan/internal/domain/velocity"
	"github.com/flipscan/flipscan/internal/score"
)

const (
	ScoringFile = "scoring.yaml"
	FeesFile    = "fees.yaml"
)

// ValidationError names the offending configuration key. It is fatal at
// startup; no request is served over invalid configuration.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s: %s", e.Key, e.Reason)
}

// Config is the immutable process-wide configuration assembled from the
// scoring and fees documents.
type Config struct {
	Version    int
	Views      map[score.ViewID]score.Weights
	Strategies map[score.StrategyName]score.StrategyProfile
	Velocity   velocity.Config
	Schedule   *fees.Schedule
	Batch      BatchConfig
	Engine     EngineConfig
}

// BatchConfig bounds batch scans.
type BatchConfig struct {
	MaxConcurrency int
	Deadline       time.Duration
}

// EngineConfig carries cross-cutting engine constants.
type EngineConfig struct {
	// ClockSkewTolerance bounds how far into the future an upstream
	// timestamp may sit before recency is treated as unknown. An explicit
	// constant; the upstream contract never pinned it down.
	ClockSkewTolerance time.Duration
}

// NormalizeConfig derives the normalizer configuration: the known category
// set comes from the fee schedule so the two can never drift apart.
func (c *Config) NormalizeConfig() normalize.Config {
	return normalize.Config{
		KnownCategories:    c.Schedule.Categories(),
		ClockSkewTolerance: c.Engine.ClockSkewTolerance,
	}
}

// Load reads and validates both documents from dir.
func Load(dir string) (*Config, error) {
	scoring, err := loadScoring(filepath.Join(dir, ScoringFile))
	if err != nil {
		return nil, err
	}
	schedule, err := loadFees(filepath.Join(dir, FeesFile))
	if err != nil {
		return nil, err
	}

	return &Config{
		Version:    scoring.version,
		Views:      scoring.views,
		Strategies: scoring.strategies,
		Velocity:   scoring.velocity,
		Schedule:   schedule,
		Batch:      scoring.batch,
		Engine:     scoring.engine,
	}, nil
}
