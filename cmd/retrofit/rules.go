package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/retrofitdev/retrofit/internal/catalog"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule catalog",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the rule catalog without scanning",
	Long: `Load and validate the rule catalog. Any invalid rule rejects the
entire catalog; every violation is listed. A catalog that validates here is
guaranteed to load atomically at scan time.`,
	Run: func(cmd *cobra.Command, args []string) {
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		cat, err := loadCatalog()
		if err != nil {
			var catErr *catalog.CatalogError
			if errors.As(err, &catErr) {
				fmt.Fprintf(os.Stderr, "%s Catalog rejected, %d violation(s):\n", red("✗"), len(catErr.Violations))
				for _, v := range catErr.Violations {
					fmt.Fprintf(os.Stderr, "  - %s\n", v)
				}
				os.Exit(1)
			}
			fatal(err)
		}
		fmt.Printf("%s Catalog v%s: %d rule(s) valid\n", green("✓"), cat.Version(), cat.Len())
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog rules in evaluation order",
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loadCatalog()
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%-28s %-16s %-9s %4s  %s\n", "ID", "FRAMEWORK", "SEVERITY", "PRI", "REWRITE")
		for _, r := range cat.Rules() {
			rewrite := "-"
			if r.HasRewrite() {
				rewrite = "yes"
			}
			fmt.Printf("%-28s %-16s %-9s %4d  %s\n", r.ID, r.FrameworkTag, r.Severity, r.Priority, rewrite)
		}
	},
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rootCmd.AddCommand(rulesCmd)
}
