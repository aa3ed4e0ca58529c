// Package cli implements the feedlens command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/riverfold/feedlens/internal/logger"
)

var version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "feedlens",
	Short: "Semantic search over your FreshRSS articles",
	Long: `Feedlens indexes your FreshRSS articles into a local vector store
and lets you search them by meaning rather than keywords.

Run 'feedlens sync' to keep the index fresh and 'feedlens search' to
query it.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default ~/.feedlens/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
