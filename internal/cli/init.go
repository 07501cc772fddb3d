package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the cache directory and default configuration",
	Long: `Initialize doctree in the project directory: create the cache directory,
add it to .gitignore, and write a default config file there.

Examples:
  doctree init
  doctree init -d /path/to/project`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()
	cfg := GetConfig()

	if err := cfg.EnsureCacheDir(dir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := cfg.UpdateGitignore(dir); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}

	cfgPath := filepath.Join(cfg.CacheDir(dir), "config.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote default config to %s\n", cfgPath)
	}

	fmt.Printf("Cache directory ready: %s\n", cfg.CacheDir(dir))
	fmt.Printf("Added %s/ to .gitignore\n", cfg.Cache.DirName)
	fmt.Println("\nRun 'doctree run' to generate documentation.")
	return nil
}
