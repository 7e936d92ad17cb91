package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/flipscan/flipscan/internal/scan/pipeline"
	"github.com/flipscan/flipscan/internal/score"
)

func newScoreCmd() *cobra.Command {
	var (
		fetch    fetchFlags
		buyCost  string
		weightLb string
		category string
		view     string
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "score <asin>",
		Short: "Score a single ASIN and print the full result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, err := decimal.NewFromString(buyCost)
			if err != nil {
				return fmt.Errorf("invalid --buy-cost %q: %w", buyCost, err)
			}
			weight, err := decimal.NewFromString(weightLb)
			if err != nil {
				return fmt.Errorf("invalid --weight %q: %w", weightLb, err)
			}

			store, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := store.Current()

			p := pipeline.New(buildFetcher(&fetch, cfg), cfg)
			result := p.ScoreOne(cmd.Context(), pipeline.Request{
				ASIN:         args[0],
				BuyCost:      cost,
				WeightLb:     weight,
				CategoryHint: category,
			}, score.ViewID(view), score.StrategyName(strategy))

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	addFetchFlags(cmd.Flags(), &fetch)
	cmd.Flags().StringVar(&buyCost, "buy-cost", "0", "Acquisition cost per unit")
	cmd.Flags().StringVar(&weightLb, "weight", "1.0", "Shipping weight in pounds")
	cmd.Flags().StringVar(&category, "category", "", "Category hint")
	cmd.Flags().StringVar(&view, "view", string(score.ViewDashboard), "Scoring view")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Strategy profile (auto-selected when empty)")
	return cmd
}
