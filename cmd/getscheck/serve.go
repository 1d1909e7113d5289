// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/getsproj/getscheck/internal/config"
	"github.com/getsproj/getscheck/internal/server"
	"github.com/getsproj/getscheck/internal/store"
)

const purgeInterval = time.Hour

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the readiness analyzer HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

			st, err := store.Open(cfg.DatabasePath, time.Duration(cfg.RetentionDays)*24*time.Hour)
			if err != nil {
				return err
			}
			defer st.Close()

			go purgeLoop(cmd.Context(), st, logger)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           server.New(st, logger, cfg).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server listening", "addr", cfg.Addr, "db", cfg.DatabasePath)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "getscheck.yaml", "path to the YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	return cmd
}

// purgeLoop enforces the retention window, once at startup and then hourly.
func purgeLoop(ctx context.Context, st *store.Store, logger *slog.Logger) {
	if err := st.Purge(ctx); err != nil {
		logger.Warn("retention purge", "error", err)
	}

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.Purge(ctx); err != nil {
				logger.Warn("retention purge", "error", err)
			}
		}
	}
}
