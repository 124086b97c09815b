package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/lanchat-server/internal/app"
	"github.com/vovakirdan/lanchat-server/internal/config"
	applog "github.com/vovakirdan/lanchat-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "lanchat-server",
		Short:         "Real-time chat relay for the local network",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, configPath)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./config.yaml)")
	root.Flags().String("addr", "", "HTTP listen address")
	root.Flags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("archive", "", "SQLite transcript archive path; empty disables archiving")

	root.AddCommand(newTranscriptCmd(&configPath))
	return root
}

func loadConfig(cmd *cobra.Command, configPath string) (config.Config, error) {
	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, path, err := config.Load(&bootLogger, configPath, cmd.Flags())
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	bootLogger.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func serve(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
	}

	logger := applog.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	addr, err := application.Listen()
	if err != nil {
		return err
	}
	printBanner(cmd.OutOrStdout(), addr)

	logger.Info().Str("addr", addr.String()).Str("run_id", application.RunID()).Msg("starting lanchat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
