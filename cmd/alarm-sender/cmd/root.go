package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faultmesh/alarm-correlator/internal/config"
	"github.com/faultmesh/alarm-correlator/internal/service/sender"
	"github.com/faultmesh/alarm-correlator/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// inputPath to the alarm JSON file; "-" reads stdin.
	inputPath string

	// rootCmd represents the base command for sending alarms.
	rootCmd = &cobra.Command{
		Use:   "alarm-sender [server-url]",
		Short: "Send canonical alarm records to a running correlator.",
		Long: `Reads canonical alarm JSON (a single record or an array) from a file or stdin
and posts it to the correlator's ingestion endpoint in one batch.

The target defaults to the server address from the configuration file; a full
server URL can be provided as argument to override it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverURL string
			if len(args) > 0 {
				serverURL = args[0]
			}

			options := &sender.Options{
				ConfigPath: configPath,
				InputPath:  inputPath,
				ServerURL:  serverURL,
			}

			return sender.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-sender CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "path to alarm JSON file (\"-\" for stdin)")
}
