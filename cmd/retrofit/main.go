package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/retrofitdev/retrofit/internal/catalog"
)

var (
	rulesPath string
	verbose   bool
	workers   int
)

// catalogHandle is the process-wide catalog. Commands load into it once;
// a failed load leaves whatever was active untouched.
var catalogHandle = catalog.NewHandle(nil)

var rootCmd = &cobra.Command{
	Use:   "retrofit",
	Short: "Detect and rewrite legacy API usage",
	Long: `retrofit scans source files against a versioned catalog of migration
rules, scores the resulting technical debt, and applies catalog-declared
rewrites to produce modernized content with an auditable change log.

The engine is deterministic: identical content and catalog always produce
identical matches, scores, and rewrites.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "",
		"Path to the rule catalog file (default $RETROFIT_RULES)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Concurrent file workers (default: number of CPUs)")

	cobra.OnInitialize(setupLogging)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadCatalog loads the rules file into the process-wide handle and returns
// the active catalog.
func loadCatalog() (*catalog.Catalog, error) {
	path := rulesPath
	if path == "" {
		path = os.Getenv("RETROFIT_RULES")
	}
	if path == "" {
		return nil, fmt.Errorf("no rule catalog: pass --rules or set RETROFIT_RULES")
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	catalogHandle.Replace(cat)
	return cat, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
