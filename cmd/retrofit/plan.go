package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/retrofitdev/retrofit/internal/runner"
	"github.com/retrofitdev/retrofit/internal/source"
)

var (
	planInclude   []string
	planExclude   []string
	planBatchSize int
	planFormat    string
)

var planCmd = &cobra.Command{
	Use:   "plan [path]",
	Short: "Group matched files into transformation batches",
	Long: `Scan for legacy patterns and partition the affected files into
bounded, priority-tagged batches for an external executor. Planning is
deterministic grouping only; nothing is scheduled or transformed.`,
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
		run, err := runner.New(runner.Config{Catalog: cat, Workers: workers})
		if err != nil {
			fatal(err)
		}

		provider := source.Walker{Root: root, Include: planInclude, Exclude: excludeOrDefault(planExclude)}
		report, err := run.Scan(context.Background(), provider)
		if err != nil {
			fatal(err)
		}

		batches, err := runner.PlanBatches(report.Files, planBatchSize)
		if err != nil {
			fatal(err)
		}

		if planFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(batches); err != nil {
				fatal(err)
			}
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		if len(batches) == 0 {
			fmt.Printf("%s Nothing to plan: no files matched\n", green("✓"))
			return
		}
		fmt.Printf("\n%s %d batch(es) of up to %d file(s)\n", cyan("▶"), len(batches), planBatchSize)
		for i, b := range batches {
			fmt.Printf("  %d. [%s] %d file(s), est %v\n", i+1, b.PriorityTier, len(b.Requests), b.EstimatedDuration)
			if verbose {
				fmt.Printf("     %s\n", strings.Join(b.FileIDs(), ", "))
			}
		}
	},
}

func init() {
	planCmd.Flags().StringArrayVar(&planInclude, "include", nil, "Glob of files to consider (repeatable)")
	planCmd.Flags().StringArrayVar(&planExclude, "exclude", nil, "Glob of files to skip (repeatable)")
	planCmd.Flags().IntVar(&planBatchSize, "batch-size", 10, "Maximum files per batch")
	planCmd.Flags().StringVar(&planFormat, "format", "text", "Output format: text or json")
	rootCmd.AddCommand(planCmd)
}

// ruleCount pairs a rule id with an occurrence count for stable display.
type ruleCount struct {
	name  string
	count int
}

func sortedCounts(m map[string]int) []ruleCount {
	out := make([]ruleCount, 0, len(m))
	for name, count := range m {
		out = append(out, ruleCount{name: name, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}
