package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpserver "github.com/flipscan/flipscan/internal/interfaces/http"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metrics and health endpoints",
		Long:  "Runs the operational HTTP listener. SIGHUP hot-reloads the configuration; the swap is atomic and in-flight work keeps its snapshot.",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := loadConfig()
			if err != nil {
				return err
			}

			cfg := httpserver.DefaultServerConfig()
			cfg.Host = host
			cfg.Port = port
			srv := httpserver.NewServer(cfg, store)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			for {
				select {
				case err := <-errCh:
					return err
				case sig := <-sigs:
					if sig == syscall.SIGHUP {
						if flagConfigDir == "" {
							log.Warn().Msg("no config directory, nothing to reload")
							continue
						}
						if err := store.Reload(flagConfigDir); err != nil {
							log.Error().Err(err).Msg("config reload failed, keeping previous configuration")
						}
						continue
					}
					log.Info().Str("signal", sig.String()).Msg("shutting down")
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(ctx)
				}
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	return cmd
}
