// Package runner drives detection and transformation over a corpus.
//
// The core engine is pure and single-file; parallelism lives here. Per-file
// work is embarrassingly parallel, so the runner fans files out over a
// bounded worker pool and reduces the per-file results afterward. The
// catalog snapshot taken at construction is used for the whole run; a
// concurrent reload never changes the ruleset mid-run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/retrofitdev/retrofit/internal/batch"
	"github.com/retrofitdev/retrofit/internal/catalog"
	"github.com/retrofitdev/retrofit/internal/detect"
	"github.com/retrofitdev/retrofit/internal/score"
	"github.com/retrofitdev/retrofit/internal/source"
	"github.com/retrofitdev/retrofit/internal/transform"
	"github.com/retrofitdev/retrofit/internal/types"
)

// Runner fans per-file engine calls over a worker pool.
type Runner struct {
	cat     *catalog.Catalog
	workers int
	limiter *rate.Limiter // optional read throttle for shared volumes
	log     *slog.Logger
}

// Config configures a Runner.
type Config struct {
	Catalog *catalog.Catalog
	// Workers bounds concurrent per-file work; defaults to GOMAXPROCS.
	Workers int
	// ReadsPerSecond throttles file ingestion when positive. Useful when the
	// corpus lives on a shared or network volume.
	ReadsPerSecond float64
	Log            *slog.Logger
}

// New creates a Runner. The catalog is required.
func New(cfg Config) (*Runner, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var limiter *rate.Limiter
	if cfg.ReadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ReadsPerSecond), 1)
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cat: cfg.Catalog, workers: workers, limiter: limiter, log: log}, nil
}

// ScanSummary is the reduction of a corpus scan.
type ScanSummary struct {
	FilesScanned  int            `json:"filesScanned"`
	FilesWithDebt int            `json:"filesWithDebt"`
	TotalMatches  int            `json:"totalMatches"`
	SkippedRules  int            `json:"skippedRules"`
	MatchesByRule map[string]int `json:"matchesByRule"`
	Score         score.Result   `json:"score"`
	Elapsed       time.Duration  `json:"elapsed"`
}

// ScanReport carries per-file detections plus the reduced summary.
// Files are ordered by fileId regardless of worker completion order.
type ScanReport struct {
	Files   []types.DetectedPatterns
	Summary ScanSummary
}

// Scan detects patterns across every file the provider supplies.
func (r *Runner) Scan(ctx context.Context, provider source.Provider) (ScanReport, error) {
	start := time.Now()

	pairs, err := r.collect(ctx, provider)
	if err != nil {
		return ScanReport{}, err
	}

	results := make([]types.DetectedPatterns, len(pairs))
	if err := r.fanOut(ctx, len(pairs), func(i int) error {
		results[i] = detect.Patterns(r.cat, pairs[i].FileID, pairs[i].Content)
		return nil
	}); err != nil {
		return ScanReport{}, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].FileID < results[j].FileID })

	summary := ScanSummary{
		FilesScanned:  len(results),
		MatchesByRule: make(map[string]int),
	}
	for _, res := range results {
		if res.HasMatches() {
			summary.FilesWithDebt++
		}
		summary.TotalMatches += len(res.Matches)
		summary.SkippedRules += len(res.SkippedRules)
		for _, m := range res.Matches {
			summary.MatchesByRule[m.RuleID]++
		}
		for _, s := range res.SkippedRules {
			r.log.Warn("rule isolated during detection",
				"file", res.FileID, "rule", s.RuleID, "reason", s.Reason)
		}
	}
	summary.Score = score.Score(results...)
	summary.Elapsed = time.Since(start)

	return ScanReport{Files: results, Summary: summary}, nil
}

// Sink consumes transformation results. It is the seam to the write-back
// collaborator; the engine itself never writes files.
type Sink interface {
	Write(res types.TransformationResult) error
}

// Discard is a Sink that drops results; it backs dry runs.
type Discard struct{}

// Write implements Sink.
func (Discard) Write(types.TransformationResult) error { return nil }

// TransformSummary is the reduction of a corpus transformation.
type TransformSummary struct {
	FilesScanned  int            `json:"filesScanned"`
	FilesChanged  int            `json:"filesChanged"`
	FilesSkipped  int            `json:"filesSkipped"`
	TotalChanges  int            `json:"totalChanges"`
	Warnings      int            `json:"warnings"`
	ChangesByRule map[string]int `json:"changesByRule"`
	Elapsed       time.Duration  `json:"elapsed"`
}

// Transform applies the catalog's rewrites across every file the provider
// supplies, handing each result to sink in fileId order.
func (r *Runner) Transform(ctx context.Context, provider source.Provider, sink Sink) (TransformSummary, error) {
	start := time.Now()

	pairs, err := r.collect(ctx, provider)
	if err != nil {
		return TransformSummary{}, err
	}

	results := make([]types.TransformationResult, len(pairs))
	if err := r.fanOut(ctx, len(pairs), func(i int) error {
		res, err := transform.Apply(r.cat, pairs[i].FileID, pairs[i].Content)
		if err != nil {
			return fmt.Errorf("transform %s: %w", pairs[i].FileID, err)
		}
		results[i] = res
		return nil
	}); err != nil {
		return TransformSummary{}, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].FileID < results[j].FileID })

	summary := TransformSummary{
		FilesScanned:  len(results),
		ChangesByRule: make(map[string]int),
	}
	for _, res := range results {
		switch res.Status {
		case types.StatusSkipped:
			summary.FilesSkipped++
		default:
			if len(res.Changes) > 0 {
				summary.FilesChanged++
			}
		}
		summary.TotalChanges += len(res.Changes)
		summary.Warnings += len(res.Warnings)
		for _, c := range res.Changes {
			summary.ChangesByRule[c.RuleID]++
		}
		for _, w := range res.Warnings {
			r.log.Warn("rewrite absorbed",
				"file", res.FileID, "rule", w.RuleID, "reason", w.Reason)
		}
		if err := sink.Write(res); err != nil {
			return summary, fmt.Errorf("write result for %s: %w", res.FileID, err)
		}
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

// Requests converts per-file detections into transformation requests for the
// batch planner, preserving file order.
func Requests(files []types.DetectedPatterns) []types.TransformationRequest {
	requests := make([]types.TransformationRequest, 0, len(files))
	for _, f := range files {
		if !f.HasMatches() {
			continue
		}
		refs := make([]types.RuleRef, 0, len(f.Matches))
		for _, m := range f.Matches {
			refs = append(refs, types.RuleRef{RuleID: m.RuleID, Severity: m.Severity})
		}
		requests = append(requests, types.TransformationRequest{FileID: f.FileID, Rules: refs})
	}
	return requests
}

// PlanBatches groups detections into executor batches.
func PlanBatches(files []types.DetectedPatterns, batchSize int) ([]types.TransformationBatch, error) {
	return batch.Plan(Requests(files), batchSize)
}

// collect drains the provider, applying the read throttle when configured.
func (r *Runner) collect(ctx context.Context, provider source.Provider) ([]source.Pair, error) {
	var pairs []source.Pair
	err := provider.Each(ctx, func(p source.Pair) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		pairs = append(pairs, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect input: %w", err)
	}
	r.log.Debug("collected input", "files", len(pairs))
	return pairs, nil
}

// fanOut runs fn(i) for each index with bounded concurrency. A run that is
// cut short always reports an error: either the first worker failure, or the
// context error that stopped dispatch.
func (r *Runner) fanOut(ctx context.Context, n int, fn func(i int) error) error {
	sem := semaphore.NewWeighted(int64(r.workers))
	g, ctx := errgroup.WithContext(ctx)
	var dispatchErr error
	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			dispatchErr = err
			break
		}
		i := i
		g.Go(func() error {
			defer sem.Release(1)
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return dispatchErr
}
