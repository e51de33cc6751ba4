// Package main provides the storefront assistant CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"storefront-assistant/internal/app"
	"storefront-assistant/internal/config"
	"storefront-assistant/internal/obs"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool

	// Configuration and logger
	cfg    *config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "assistant-cli",
	Short: "Talk to the storefront assistant from a terminal",
	Long: `assistant-cli runs the storefront assistant in-process.

Use it to try queries against a catalog file and to check how the catalog
gate treats a product export before it goes live. Kafka telemetry is never
published from the CLI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = obs.NewLogger(obs.LogConfig{
			Level:       level,
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: "assistant-cli",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp wires the assistant for a single command run.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logger, app.Options{DisableKafka: true})
}
