package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/retrofitdev/retrofit/internal/runner"
	"github.com/retrofitdev/retrofit/internal/source"
)

var (
	scanInclude []string
	scanExclude []string
	scanFormat  string
	scanReadsPS float64
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Detect legacy patterns and score technical debt",
	Long: `Scan a directory tree against the rule catalog and report detected
legacy patterns, the aggregate debt score, and the framework priority
ranking.

Examples:
  # Scan the current directory
  retrofit scan --rules rules.yaml

  # Scan only TypeScript sources
  retrofit scan src --rules rules.yaml --include '**/*.ts' --include '**/*.tsx'

  # Machine-readable output
  retrofit scan --rules rules.yaml --format json`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		cat, err := loadCatalog()
		if err != nil {
			fatal(err)
		}
		run, err := runner.New(runner.Config{
			Catalog:        cat,
			Workers:        workers,
			ReadsPerSecond: scanReadsPS,
		})
		if err != nil {
			fatal(err)
		}

		provider := source.Walker{Root: root, Include: scanInclude, Exclude: excludeOrDefault(scanExclude)}
		report, err := run.Scan(context.Background(), provider)
		if err != nil {
			fatal(err)
		}

		if scanFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report.Summary); err != nil {
				fatal(err)
			}
		} else {
			printScanSummary(report)
		}

		if report.Summary.TotalMatches > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	scanCmd.Flags().StringArrayVar(&scanInclude, "include", nil, "Glob of files to scan (repeatable)")
	scanCmd.Flags().StringArrayVar(&scanExclude, "exclude", nil, "Glob of files to skip (repeatable)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "text", "Output format: text or json")
	scanCmd.Flags().Float64Var(&scanReadsPS, "reads-per-second", 0, "Throttle file reads (0 = unlimited)")
	rootCmd.AddCommand(scanCmd)
}

func excludeOrDefault(exclude []string) []string {
	if len(exclude) == 0 {
		return nil // Walker falls back to its defaults
	}
	return exclude
}

func printScanSummary(report runner.ScanReport) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	s := report.Summary
	fmt.Printf("\n%s Scanned %d files in %v\n", cyan("▶"), s.FilesScanned, s.Elapsed.Round(time.Millisecond))

	if s.TotalMatches == 0 {
		fmt.Printf("%s No legacy patterns found\n", green("✓"))
	} else {
		fmt.Printf("%s %d match(es) in %d file(s)\n", yellow("!"), s.TotalMatches, s.FilesWithDebt)
		fmt.Printf("  Debt score: %.1f/100  Risk: %s\n", s.Score.DebtScore, s.Score.RiskLevel)
		if len(s.Score.PriorityRanking) > 0 {
			fmt.Printf("  Priority order: ")
			for i, tag := range s.Score.PriorityRanking {
				if i > 0 {
					fmt.Print(", ")
				}
				fmt.Print(tag)
			}
			fmt.Println()
		}
		if verbose {
			for _, f := range report.Files {
				if !f.HasMatches() {
					continue
				}
				fmt.Printf("  %s\n", f.FileID)
				for _, m := range f.Matches {
					fmt.Printf("    %d:%d %s [%s, %.2f] %s\n",
						m.Line, m.Column, m.RuleID, m.Severity, m.Confidence, m.Snippet)
				}
			}
		}
	}

	// Isolated rule failures are warnings, not fatal errors; say so
	// explicitly so they are never mistaken for a failed scan.
	if s.SkippedRules > 0 {
		fmt.Printf("%s %d rule evaluation(s) skipped due to isolated matcher failures (scan completed)\n",
			yellow("ⓘ"), s.SkippedRules)
	}
}
