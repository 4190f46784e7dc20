package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faultmesh/alarm-correlator/internal/config"
	"github.com/faultmesh/alarm-correlator/internal/service/server"
	"github.com/faultmesh/alarm-correlator/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the correlator.
	rootCmd = &cobra.Command{
		Use:   "alarm-correlator [listen-address]",
		Short: "Run the alarm correlation server.",
		Long: `Starts the alarm correlator: it ingests canonical alarm records over HTTP,
buffers them per tenant behind a sliding window, reduces each flushed batch to
causally-grouped clusters and creates one incident per cluster.

The server listens on the address from the configuration file by default.
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).
Incidents are persisted to Postgres when database_url is configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-correlator CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
