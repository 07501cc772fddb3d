package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/store"
)

var cleanupMaxAgeDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove cache entries older than a cutoff",
	Long: `Remove cached summaries whose creation time is older than the given age.
This is housekeeping only: cache validity always comes from fingerprint
comparison, never from age.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().IntVar(&cleanupMaxAgeDays, "max-age-days", 30, "remove entries older than this many days")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := store.NewSummaryStore(cfg.CacheDBPath(GetRootDir()))
	if err != nil {
		return fmt.Errorf("failed to open summary cache: %w", err)
	}
	defer st.Close()

	removed, err := st.CleanupOlderThan(time.Duration(cleanupMaxAgeDays) * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Printf("Removed %d entries older than %d days\n", removed, cleanupMaxAgeDays)
	return nil
}
