package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riverfold/feedlens/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the ingestion daemon",
	Long: `Continuously syncs new FreshRSS articles into the vector index.

Each cycle reads entries above the stored watermark, chunks and embeds
them, writes them to the index, then sleeps for the configured
interval. Stop with Ctrl-C; the current cycle's progress is preserved.`,
	Args: cobra.NoArgs,
	RunE: runSyncDaemon,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSyncDaemon(cmd *cobra.Command, _ []string) error {
	if err := initSyncService(); err != nil {
		return err
	}

	if appConfig != nil {
		logger.Info("content source: %s", appConfig.Source.FreshRSSPath)
		logger.Info("vector store: %s", appConfig.Store.Path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := syncService.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("sync stopped")
		return nil
	}
	return err
}
