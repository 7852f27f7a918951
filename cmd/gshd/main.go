package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gshsdk/pkg/gshsdk"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gshd",
	Short: "Remote graphical session server",
	Long:  "gshd serves remote graphical sessions over TLS or QUIC, running a pluggable gshsdk.Service per client.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the server until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := gshsdk.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer logger.Sync()

		srv := gshsdk.NewServer(cfg, func() gshsdk.Service {
			return newGradientService()
		}, logger)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if cfg.Metrics.Addr != "" {
			go func() {
				if err := srv.ServeMetrics(ctx); err != nil {
					logger.Warn("metrics server stopped", zap.Error(err))
				}
			}()
		}

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "gshd.yaml", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
