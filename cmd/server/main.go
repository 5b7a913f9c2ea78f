package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/borrelio/internal/app"
	"github.com/vovakirdan/borrelio/internal/config"
	"github.com/vovakirdan/borrelio/internal/log"
)

func main() {
	var (
		configPath string
		flags      config.Config
	)

	root := &cobra.Command{
		Use:           "borrelio-server",
		Short:         "Signaling and presence server for proximity rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap := log.New("info")

			cfg, path, err := config.Load(bootstrap, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(flags)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Int("max_room_size", cfg.MaxRoomSize).Msg("configuration loaded")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().Msg("starting borrelio server")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited with error: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	root.Flags().StringVar(&flags.Addr, "addr", "", "HTTP listen address")
	root.Flags().StringVar(&flags.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.Flags().IntVar(&flags.MaxRoomSize, "max-room-size", 0, "maximum participants per room")
	root.Flags().DurationVar(&flags.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
