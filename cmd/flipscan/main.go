package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/flipscan/flipscan/internal/config"
)

const (
	appName = "flipscan"
	version = "v1.2.0"
)

var (
	flagConfigDir string
	flagLogLevel  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Resale opportunity scanner",
		Version: version,
		Long: `Flipscan evaluates book and product resale opportunities: it pulls raw
price and sales-rank history from the catalog provider, computes fee-aware
ROI, velocity, and price stability, and ranks candidates with a per-view
opportunity score.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(flagLogLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "Config directory (scoring.yaml, fees.yaml); built-in defaults when empty")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	// Humans get the console writer; pipes and collectors get JSON.
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// loadConfig resolves the live configuration. A config directory with invalid
// or missing keys is fatal before any request is served.
func loadConfig() (*config.Store, error) {
	if flagConfigDir == "" {
		return config.NewStore(config.Default()), nil
	}
	cfg, err := config.Load(flagConfigDir)
	if err != nil {
		return nil, err
	}
	return config.NewStore(cfg), nil
}
