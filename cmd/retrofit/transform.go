package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/retrofitdev/retrofit/internal/runner"
	"github.com/retrofitdev/retrofit/internal/source"
	"github.com/retrofitdev/retrofit/internal/types"
)

var (
	transformInclude []string
	transformExclude []string
	transformOut     string
	transformDryRun  bool
)

var transformCmd = &cobra.Command{
	Use:   "transform [path]",
	Short: "Apply catalog rewrites to matched files",
	Long: `Transform files whose content matches catalog rules, writing the
modernized content into an output directory. The engine never edits input
files in place; write-back is this command's job.

Examples:
  # Preview what would change
  retrofit transform src --rules rules.yaml --dry-run

  # Write modernized files under ./modernized
  retrofit transform src --rules rules.yaml --out modernized`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		if !transformDryRun && transformOut == "" {
			fatal(fmt.Errorf("pass --out DIR, or --dry-run to preview"))
		}

		cat, err := loadCatalog()
		if err != nil {
			fatal(err)
		}
		run, err := runner.New(runner.Config{Catalog: cat, Workers: workers})
		if err != nil {
			fatal(err)
		}

		var sink runner.Sink = runner.Discard{}
		if !transformDryRun {
			sink = dirSink{root: transformOut}
		}

		provider := source.Walker{Root: root, Include: transformInclude, Exclude: excludeOrDefault(transformExclude)}
		summary, err := run.Transform(context.Background(), provider, sink)
		if err != nil {
			fatal(err)
		}

		printTransformSummary(summary)
	},
}

func init() {
	transformCmd.Flags().StringArrayVar(&transformInclude, "include", nil, "Glob of files to transform (repeatable)")
	transformCmd.Flags().StringArrayVar(&transformExclude, "exclude", nil, "Glob of files to skip (repeatable)")
	transformCmd.Flags().StringVar(&transformOut, "out", "", "Directory to write modernized files into")
	transformCmd.Flags().BoolVar(&transformDryRun, "dry-run", false, "Compute changes without writing output")
	rootCmd.AddCommand(transformCmd)
}

// dirSink writes changed files under root, preserving relative paths.
// Unchanged and skipped files are not written.
type dirSink struct {
	root string
}

func (d dirSink) Write(res types.TransformationResult) error {
	if len(res.Changes) == 0 {
		return nil
	}
	dest := filepath.Join(d.root, filepath.FromSlash(res.FileID))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(res.TransformedContent), 0o644)
}

func printTransformSummary(s runner.TransformSummary) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	mode := "Transformed"
	if transformDryRun {
		mode = "Would transform"
	}
	fmt.Printf("\n%s %s %d of %d file(s): %d change(s) in %v\n",
		cyan("▶"), mode, s.FilesChanged, s.FilesScanned, s.TotalChanges, s.Elapsed.Round(time.Millisecond))

	if verbose && len(s.ChangesByRule) > 0 {
		for _, rc := range sortedCounts(s.ChangesByRule) {
			fmt.Printf("  %-32s %d\n", rc.name, rc.count)
		}
	}
	if s.Warnings > 0 {
		fmt.Printf("%s %d rewrite(s) skipped due to isolated rule failures (files still completed)\n",
			yellow("ⓘ"), s.Warnings)
	}
	if s.TotalChanges == 0 {
		fmt.Printf("%s Nothing to modernize\n", green("✓"))
	}
}
