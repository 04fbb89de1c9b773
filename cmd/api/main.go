package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/lumi/backend/internal/config"
	"github.com/zhouzirui/lumi/backend/internal/logging"
)

func main() {
	var (
		addr     string
		logLevel string
	)

	root := &cobra.Command{
		Use:          "lumi-api",
		Short:        "Lumi chat backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Load .env file
			envErr := godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			logging.Setup(cfg.Log)
			if envErr != nil {
				log.Debug().Err(envErr).Msg("no .env file, using system environment only")
			}

			return run(ctx, cfg)
		},
	}

	root.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("lumi-api exited")
		os.Exit(1)
	}
}
