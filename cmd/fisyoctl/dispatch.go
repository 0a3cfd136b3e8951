package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/studiofisyo/ledger/internal/app"
	"github.com/studiofisyo/ledger/pkg/observability"
	"github.com/studiofisyo/ledger/pkg/secrets"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one reminder batch and print the summary",
	Long:  `Runs the same batch as GET /api/send-reminders, for schedulers that prefer a process over an HTTP call.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.VAPID.SecretID != "" {
			loader, err := secrets.NewLoader(ctx)
			if err != nil {
				return err
			}
			if err := cfg.LoadSecrets(ctx, loader); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := observability.NewLoggerTo(cmd.ErrOrStderr(), "fisyoctl", logLevel())
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Dispatcher.Run(ctx)
		if err != nil {
			return fmt.Errorf("dispatch failed: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

var verbose bool

func logLevel() slog.Level {
	if verbose {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

func init() {
	dispatchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every delivery")
	rootCmd.AddCommand(dispatchCmd)
}
