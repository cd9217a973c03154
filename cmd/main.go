package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gateway-dashboard/internal/cache"
	"gateway-dashboard/internal/config"
	"gateway-dashboard/internal/dashboard"
	"gateway-dashboard/internal/logger"
	"gateway-dashboard/internal/render"
	"gateway-dashboard/internal/server"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gateway-dashboard",
		Short:        "Smart gateway analytics dashboard over offline model outputs",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSummaryCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer log.Sync()

			var reportCache dashboard.ReportCache
			if cfg.RedisAddr != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.CacheTTL)
				cancel()
				if err != nil {
					return fmt.Errorf("failed to connect to Redis: %w", err)
				}
				defer redisClient.Close()
				reportCache = redisClient
				log.Info("report cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
			}

			renderer, err := render.New()
			if err != nil {
				return err
			}

			service := dashboard.NewService(cfg.Sources, cfg.HistogramBins, reportCache, log)
			log.Info("dashboard configured",
				"variant", cfg.Variant,
				"features", cfg.Sources.Features,
				"cnn", cfg.Sources.CNN,
				"regression", cfg.Sources.Regression,
				"decisions", cfg.Sources.Decisions,
				"default_threshold", cfg.DefaultThreshold)

			srv := server.New(service, renderer, cfg.DefaultThreshold, log)
			return srv.Run(":" + cfg.Port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		threshold float64
		row       int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			req := dashboard.Request{Threshold: cfg.DefaultThreshold}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = threshold
			}
			if cmd.Flags().Changed("row") {
				req.Row = &row
			}

			service := dashboard.NewService(cfg.Sources, cfg.HistogramBins, nil, logger.Nop())
			report, err := service.Report(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "collision risk threshold in [0.10, 0.60]")
	cmd.Flags().IntVar(&row, "row", 0, "time step to explain")
	return cmd
}
