package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/llm"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the summary generator endpoint is reachable",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKey:      cfg.APIKey(),
		Model:       cfg.Generator.Model,
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: cfg.Generator.Temperature,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Checking %s (model %s)...\n", cfg.Generator.BaseURL, cfg.Generator.Model)
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("generator check failed: %w", err)
	}

	fmt.Println("Generator is reachable.")
	return nil
}
