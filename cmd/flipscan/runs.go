package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/flipscan/flipscan/internal/persistence"
)

func newRunsCmd() *cobra.Command {
	var (
		archiveDSN string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent archived scan runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			archive, err := persistence.Open(cmd.Context(), archiveDSN)
			if err != nil {
				return err
			}
			defer archive.Close()

			rows, err := archive.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tVIEW\tSTARTED\tOK\tFAILED\tAVG")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\n",
					r.ID, r.View, r.StartedAt.Format(time.RFC3339), r.Succeeded, r.Failed, r.AvgScore)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&archiveDSN, "archive-dsn", "", "Postgres DSN for the scan archive")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	_ = cmd.MarkFlagRequired("archive-dsn")
	return cmd
}
