// Package fees computes category-specific marketplace fees and decimal-exact
// ROI. All arithmetic stays in decimal; rounding to cents happens only at the
// output boundary.
package fees

import (
	"github.com/shopspring/decimal"
)

// CategoryFees is one category's fee line in the schedule.
type CategoryFees struct {
	ReferralPct decimal.Decimal
	ClosingFee  decimal.Decimal
	FBABaseFee  decimal.Decimal
	FBAPerLb    decimal.Decimal
}

// Schedule is the immutable per-category fee table plus the flat constants
// applied to every item. Loaded once from configuration; a missing category
// resolves to the "default" line.
type Schedule struct {
	categories   map[string]CategoryFees
	defaultFees  CategoryFees
	inboundFee   decimal.Decimal
	prepFee      decimal.Decimal
	safetyBuffer decimal.Decimal
}

// NewSchedule builds a schedule. The categories map must contain a "default"
// entry; the config loader enforces that before this is reached.
func NewSchedule(categories map[string]CategoryFees, inbound, prep, safetyBuffer decimal.Decimal) *Schedule {
	return &Schedule{
		categories:   categories,
		defaultFees:  categories["default"],
		inboundFee:   inbound,
		prepFee:      prep,
		safetyBuffer: safetyBuffer,
	}
}

// Lookup returns the fee line for a category, falling back to default.
func (s *Schedule) Lookup(category string) CategoryFees {
	if f, ok := s.categories[category]; ok {
		return f
	}
	return s.defaultFees
}

// Categories returns the set of configured category names, used by the
// normalizer to resolve hints.
func (s *Schedule) Categories() map[string]bool {
	known := make(map[string]bool, len(s.categories))
	for c := range s.categories {
		known[c] = true
	}
	return known
}

// FeeBreakdown itemizes the fees on one sale.
type FeeBreakdown struct {
	Referral decimal.Decimal `json:"referral"`
	FBA      decimal.Decimal `json:"fba"`
	Closing  decimal.Decimal `json:"closing"`
	Inbound  decimal.Decimal `json:"inbound"`
	Prep     decimal.Decimal `json:"prep"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeFees itemizes marketplace fees for selling at sellPrice in the given
// category at the given shipping weight in pounds.
func (s *Schedule) ComputeFees(sellPrice decimal.Decimal, category string, weightLb decimal.Decimal) FeeBreakdown {
	f := s.Lookup(category)
	b := FeeBreakdown{
		Referral: sellPrice.Mul(f.ReferralPct),
		FBA:      f.FBABaseFee.Add(weightLb.Mul(f.FBAPerLb)),
		Closing:  f.ClosingFee,
		Inbound:  s.inboundFee,
		Prep:     s.prepFee,
	}
	b.Total = b.Referral.Add(b.FBA).Add(b.Closing).Add(b.Inbound).Add(b.Prep)
	return b
}

// Tier buckets an ROI result by sign.
type Tier string

const (
	TierProfit    Tier = "profit"
	TierBreakeven Tier = "breakeven"
	TierLoss      Tier = "loss"
)

// ROIResult is the fee-aware profit estimate for one buy/sell pair.
type ROIResult struct {
	SellPrice     decimal.Decimal `json:"sell_price"`
	BuyCost       decimal.Decimal `json:"buy_cost"`
	TotalFees     decimal.Decimal `json:"total_fees"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	ROIPercentage decimal.Decimal `json:"roi_percentage"`
	Tier          Tier            `json:"tier"`
	Fees          FeeBreakdown    `json:"fees"`
}

var hundred = decimal.NewFromInt(100)

// ComputeROI computes net profit and ROI for buying at buyCost and selling at
// sellPrice. A zero or negative buy cost yields ROI 0, never a division by
// zero.
func (s *Schedule) ComputeROI(sellPrice, buyCost decimal.Decimal, category string, weightLb decimal.Decimal) ROIResult {
	breakdown := s.ComputeFees(sellPrice, category, weightLb)
	net := sellPrice.Sub(breakdown.Total).Sub(buyCost).Sub(s.safetyBuffer)

	roi := decimal.Zero
	if buyCost.IsPositive() {
		roi = net.Div(buyCost).Mul(hundred)
	}

	return ROIResult{
		SellPrice:     sellPrice,
		BuyCost:       buyCost,
		TotalFees:     breakdown.Total,
		NetProfit:     net,
		ROIPercentage: roi,
		Tier:          tierFor(roi),
		Fees:          breakdown,
	}
}

func tierFor(roi decimal.Decimal) Tier {
	switch {
	case roi.IsPositive():
		return TierProfit
	case roi.IsZero():
		return TierBreakeven
	default:
		return TierLoss
	}
}

// Rounded returns a copy with every monetary field rounded to cents and the
// percentage to two places. Called only at the output boundary.
func (r ROIResult) Rounded() ROIResult {
	out := r
	out.SellPrice = r.SellPrice.Round(2)
	out.BuyCost = r.BuyCost.Round(2)
	out.TotalFees = r.TotalFees.Round(2)
	out.NetProfit = r.NetProfit.Round(2)
	out.ROIPercentage = r.ROIPercentage.Round(2)
	out.Fees = FeeBreakdown{
		Referral: r.Fees.Referral.Round(2),
		FBA:      r.Fees.FBA.Round(2),
		Closing:  r.Fees.Closing.Round(2),
		Inbound:  r.Fees.Inbound.Round(2),
		Prep:     r.Fees.Prep.Round(2),
		Total:    r.Fees.Total.Round(2),
	}
	return out
}
