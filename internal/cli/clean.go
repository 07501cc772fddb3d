package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/store"
)

var cleanMappings bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clear cached summaries",
	Long: `Remove all cached summary entries. The document line-mapping index is
kept unless --mappings is given; the two are independently clearable.

Examples:
  doctree clean             # clear summaries only
  doctree clean --mappings  # clear summaries and line mappings`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanMappings, "mappings", false, "also clear the document line-mapping index")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := store.NewSummaryStore(cfg.CacheDBPath(GetRootDir()))
	if err != nil {
		return fmt.Errorf("failed to open summary cache: %w", err)
	}
	defer st.Close()

	if err := st.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Cleared summary cache")

	if cleanMappings {
		if err := st.ClearMappings(); err != nil {
			return fmt.Errorf("failed to clear mappings: %w", err)
		}
		fmt.Println("Cleared document line mappings")
	}
	return nil
}
