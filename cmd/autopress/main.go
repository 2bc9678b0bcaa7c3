package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"autopress/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	headed     bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "autopress",
	Short: "autopress - dual-driver CMS publishing automation",
	Long: `autopress publishes prepared articles through a CMS back office's web UI:
login, content, images (including featured-image cropping), taxonomy/SEO,
and publish or schedule.

It drives the UI with a deterministic selector-based driver and falls back
to an instruction-driven vision driver when the page has drifted past the
selector artifact, continuing the same authenticated session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&headed, "headed", false, "Run the browser with a visible window")

	publishCmd.Flags().BoolVar(&publishNoFallback, "no-fallback", false, "Disable the vision fallback driver")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "n", 2, "Maximum tasks in flight")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(trailCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
