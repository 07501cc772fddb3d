package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kstonekuan/docs-tree-ai/config"
	"github.com/kstonekuan/docs-tree-ai/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "doctree",
	Short: "Incremental hierarchical summarization of a source tree",
	Long: `doctree builds a project-level summary of a source tree by summarizing
files and composing directory summaries bottom-up. Content fingerprints keep
a durable cache valid across runs, so only changed paths are regenerated,
and the project document is checked line-by-line for staleness against the
current codebase.

Example usage:
  doctree init              # create the cache and default config
  doctree run               # summarize the tree and validate the document
  doctree run --dry-run     # print the project summary only`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		logger.SetVerbose(verbose)

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

// Execute runs the root command.
func Execute() {
	// Load .env if present; the API key env var may live there.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./doctree.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}

// GetRootDir returns the project directory.
func GetRootDir() string {
	return rootDir
}
