package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration, cache and document status",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()
	cfg := GetConfig()

	fmt.Printf("doctree information for %s\n\n", dir)

	fmt.Println("Configuration:")
	fmt.Printf("  Endpoint:  %s\n", cfg.Generator.BaseURL)
	fmt.Printf("  Model:     %s\n", cfg.Generator.Model)
	fmt.Printf("  Cache dir: %s\n", cfg.Cache.DirName)
	fmt.Printf("  Document:  %s\n", cfg.Document.Name)

	st, err := store.NewSummaryStore(cfg.CacheDBPath(dir))
	if err != nil {
		return fmt.Errorf("failed to open summary cache: %w", err)
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	fmt.Println("\nCache:")
	fmt.Printf("  Entries: %d\n", stats.Entries)
	fmt.Printf("  Size:    %d bytes\n", stats.TotalBytes)
	fmt.Printf("  Schema:  valid=%v\n", st.SchemaValid())

	mappings, err := st.GetMappings()
	if err == nil {
		fmt.Printf("  Line mappings: %d\n", len(mappings.Mappings))
	}

	fmt.Println("\nDocument:")
	if _, err := os.Stat(cfg.DocumentPath(dir)); err == nil {
		fmt.Printf("  %s exists\n", cfg.Document.Name)
	} else {
		fmt.Printf("  %s does not exist (run will suggest seeding it)\n", cfg.Document.Name)
	}

	return nil
}
