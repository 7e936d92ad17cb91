package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/flipscan/flipscan/internal/domain/fees"
	"github.com/flipscan/flipscan/internal/domain/normalize"
)

// feesDoc mirrors fees.yaml. Every amount travels as a string so parse
// failures can name their key instead of silently truncating.
type feesDoc struct {
	Version      int                    `yaml:"version"`
	InboundFee   string                 `yaml:"inbound_fee"`
	PrepFee      string                 `yaml:"prep_fee"`
	SafetyBuffer string                 `yaml:"safety_buffer"`
	Categories   map[string]categoryDoc `yaml:"categories"`
}

type categoryDoc struct {
	ReferralPct string `yaml:"referral_pct"`
	ClosingFee  string `yaml:"closing_fee"`
	FBABaseFee  string `yaml:"fba_base_fee"`
	FBAPerLb    string `yaml:"fba_per_lb"`
}

func loadFees(path string) (*fees.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fees config %s: %w", path, err)
	}

	var doc feesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fees config %s: %w", path, err)
	}

	return buildFees(&doc)
}

func buildFees(doc *feesDoc) (*fees.Schedule, error) {
	if doc.Version < 1 {
		return nil, &ValidationError{Key: "version", Reason: "must be >= 1"}
	}
	if len(doc.Categories) == 0 {
		return nil, &ValidationError{Key: "categories", Reason: "at least one category is required"}
	}
	if _, ok := doc.Categories[normalize.DefaultCategory]; !ok {
		return nil, &ValidationError{Key: "categories.default", Reason: "required fallback category is missing"}
	}

	inbound, err := nonNegativeAmount(doc.InboundFee, "inbound_fee")
	if err != nil {
		return nil, err
	}
	prep, err := nonNegativeAmount(doc.PrepFee, "prep_fee")
	if err != nil {
		return nil, err
	}
	buffer, err := nonNegativeAmount(doc.SafetyBuffer, "safety_buffer")
	if err != nil {
		return nil, err
	}

	categories := make(map[string]fees.CategoryFees, len(doc.Categories))
	for name, c := range doc.Categories {
		prefix := "categories." + name + "."
		referral, err := nonNegativeAmount(c.ReferralPct, prefix+"referral_pct")
		if err != nil {
			return nil, err
		}
		if referral.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, &ValidationError{Key: prefix + "referral_pct", Reason: "must be a fraction below 1"}
		}
		closing, err := nonNegativeAmount(c.ClosingFee, prefix+"closing_fee")
		if err != nil {
			return nil, err
		}
		base, err := nonNegativeAmount(c.FBABaseFee, prefix+"fba_base_fee")
		if err != nil {
			return nil, err
		}
		perLb, err := nonNegativeAmount(c.FBAPerLb, prefix+"fba_per_lb")
		if err != nil {
			return nil, err
		}
		categories[name] = fees.CategoryFees{
			ReferralPct: referral,
			ClosingFee:  closing,
			FBABaseFee:  base,
			FBAPerLb:    perLb,
		}
	}

	return fees.NewSchedule(categories, inbound, prep, buffer), nil
}

func nonNegativeAmount(raw, key string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Key: key, Reason: "not a decimal amount"}
	}
	if v.IsNegative() {
		return decimal.Zero, &ValidationError{Key: key, Reason: "must be non-negative"}
	}
	return v, nil
}
