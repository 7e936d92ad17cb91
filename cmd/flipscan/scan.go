package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/flipscan/flipscan/internal/persistence"
	"github.com/flipscan/flipscan/internal/scan/pipeline"
	"github.com/flipscan/flipscan/internal/score"
)

func newScanCmd() *cobra.Command {
	var (
		fetch      fetchFlags
		asins      []string
		buyCost    string
		weightLb   string
		category   string
		view       string
		strategy   string
		output     string
		archiveDSN string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Score a batch of ASINs and rank them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(asins) == 0 {
				return fmt.Errorf("at least one --asin is required")
			}
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

			requests := make([]pipeline.Request, len(asins))
			for i, asin := range asins {
				requests[i] = pipeline.Request{
					ASIN:         strings.TrimSpace(asin),
					BuyCost:      cost,
					WeightLb:     weight,
					CategoryHint: category,
				}
			}

			p := pipeline.New(buildFetcher(&fetch, cfg), cfg)
			summary := p.ScanBatch(cmd.Context(), requests, score.ViewID(view), score.StrategyName(strategy))

			if archiveDSN != "" {
				if err := archiveRun(cmd.Context(), archiveDSN, summary); err != nil {
					log.Error().Err(err).Msg("failed to archive scan run")
				}
			}
			return writeSummary(summary, output)
		},
	}

	addFetchFlags(cmd.Flags(), &fetch)
	cmd.Flags().StringSliceVar(&asins, "asin", nil, "ASIN to evaluate (repeatable or comma-separated)")
	cmd.Flags().StringVar(&buyCost, "buy-cost", "0", "Acquisition cost per unit")
	cmd.Flags().StringVar(&weightLb, "weight", "1.0", "Shipping weight in pounds")
	cmd.Flags().StringVar(&category, "category", "", "Category hint (falls back to the provider's category)")
	cmd.Flags().StringVar(&view, "view", string(score.ViewDashboard), "Scoring view (unknown views fall back to dashboard)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Strategy profile (auto-selected when empty)")
	cmd.Flags().StringVar(&output, "output", "table", "Output format (table|json)")
	cmd.Flags().StringVar(&archiveDSN, "archive-dsn", "", "Postgres DSN for the scan archive (disabled when empty)")
	return cmd
}

func archiveRun(ctx context.Context, dsn string, summary *pipeline.Summary) error {
	archive, err := persistence.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer archive.Close()
	if err := archive.Migrate(ctx); err != nil {
		return err
	}
	return archive.SaveRun(ctx, summary)
}

func writeSummary(summary *pipeline.Summary, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tASIN\tSCORE\tROI%\tVELOCITY\tSTABILITY\tSTRATEGY\tERROR")
	for _, r := range summary.Results {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%s\t%s\n",
			r.Rank, r.ASIN, r.Score,
			r.RawMetrics.ROIPct, r.RawMetrics.Velocity, r.RawMetrics.Stability,
			r.Strategy, r.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nrun %s: %d ok, %d failed, avg score %.1f in %s\n",
		summary.RunID, summary.Succeeded, summary.Failed, summary.AvgScore, summary.Duration.Round(time.Millisecond))
	return nil
}
