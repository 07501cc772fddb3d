package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/fs"
	"github.com/kstonekuan/docs-tree-ai/internal/adapter/llm"
	"github.com/kstonekuan/docs-tree-ai/internal/adapter/store"
	"github.com/kstonekuan/docs-tree-ai/internal/domain"
	"github.com/kstonekuan/docs-tree-ai/internal/port"
	"github.com/kstonekuan/docs-tree-ai/internal/usecase"
)

var (
	runForce  bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Summarize the tree and validate the project document",
	Long: `Walk the source tree bottom-up, summarizing files and directories with
maximum cache reuse, then check the project document line-by-line against
the refreshed cache.

Examples:
  doctree run                # full run: summarize and validate
  doctree run --force        # ignore cached summaries, regenerate everything
  doctree run --dry-run      # print the project summary, skip validation`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runForce, "force", false, "ignore cached content and regenerate all summaries")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the project summary without validating the document")
}

func runRun(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()
	cfg := GetConfig()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsureCacheDir(dir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	st, err := store.NewSummaryStore(cfg.CacheDBPath(dir))
	if err != nil {
		return fmt.Errorf("failed to open summary cache: %w", err)
	}
	defer st.Close()

	gen, err := newGenerator()
	if err != nil {
		return err
	}

	scanner := fs.NewScanner(cfg.Scan.Includes, cfg.Scan.Excludes)
	fmt.Printf("Scanning %s...\n", dir)
	tree, err := scanner.Scan(dir)
	if err != nil {
		return fmt.Errorf("failed to scan directory: %w", err)
	}

	summarizer := usecase.NewSummarizer(st, gen, runForce)

	bar := progressbar.NewOptions(tree.Count(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Summarizing[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
	summarizer.SetProgress(func(done, total int, relPath string) {
		bar.Set(done)
	})

	report, err := summarizer.Run(cmd.Context(), tree)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	fmt.Printf("\nSummarization complete:\n")
	fmt.Printf("  Generated:  %d\n", report.Generated)
	fmt.Printf("  Cache hits: %d\n", report.CacheHits)
	fmt.Printf("  Skipped:    %d\n", report.Skipped)
	if report.Fallbacks > 0 {
		fmt.Printf("  Fallbacks:  %d (generation unavailable, concatenated)\n", report.Fallbacks)
	}
	fmt.Printf("  Cache:      %d entries, %d bytes\n", report.Stats.Entries, report.Stats.TotalBytes)

	if len(report.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if runDryRun {
		fmt.Printf("\nProject summary:\n\n%s\n", report.RootSummary)
		fmt.Println("\nDry run complete, document not validated")
		return nil
	}

	fmt.Printf("\nValidating %s against the current codebase...\n", cfg.Document.Name)
	validator := usecase.NewValidator(st, gen, usecase.Thresholds{
		StemMinLen:        cfg.Document.StemMinLen,
		KeywordMinLen:     cfg.Document.KeywordMinLen,
		KeywordTake:       cfg.Document.KeywordTake,
		KeywordMinMatches: cfg.Document.KeywordMinMatches,
	})

	corrections, err := validator.Validate(cmd.Context(), dir, cfg.DocumentPath(dir), report.RootSummary)
	if err != nil {
		return fmt.Errorf("document validation failed: %w", err)
	}

	printCorrections(cfg.Document.Name, corrections)
	return nil
}

// newGenerator builds the retry-wrapped generation client from config.
func newGenerator() (port.Generator, error) {
	cfg := GetConfig()

	client, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKey:      cfg.APIKey(),
		Model:       cfg.Generator.Model,
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: cfg.Generator.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return llm.WithRetry(client, llm.RetryPolicy{
		MaxRetries: cfg.Generator.MaxRetries,
		Delay:      time.Duration(cfg.Generator.RetryDelaySeconds) * time.Second,
	}), nil
}

func printCorrections(docName string, corrections []domain.Correction) {
	var (
		okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
		headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Bold(true)
		lineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C")).Bold(true)
		currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
		suggestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
		detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)
	)

	if len(corrections) == 0 {
		fmt.Println(okStyle.Render(fmt.Sprintf("%s is up to date with the current codebase", docName)))
		return
	}

	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s validation results", docName)))

	for _, c := range corrections {
		fmt.Println()
		if c.LineNumber == 0 {
			fmt.Println(lineStyle.Render(c.Reason))
			fmt.Println(suggestStyle.Render("Suggested document:"))
			fmt.Println(c.Suggested)
			continue
		}
		fmt.Println(lineStyle.Render(fmt.Sprintf("Line %d: %s", c.LineNumber, c.Reason)))
		fmt.Printf("  Current:   %s\n", currentStyle.Render(c.Current))
		fmt.Printf("  Suggested: %s\n", suggestStyle.Render(c.Suggested))
		if len(c.Affected) > 0 {
			fmt.Println(detailStyle.Render("  Affected files:"))
			for _, key := range c.Affected {
				fmt.Println(detailStyle.Render("    - " + key))
			}
		}
	}

	fmt.Println()
	fmt.Printf("%d lines need updating\n", len(corrections))
}
