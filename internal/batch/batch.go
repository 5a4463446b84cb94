// Package batch partitions transformation requests into bounded batches for
// an external executor. Planning is purely deterministic grouping: request
// order is preserved within and across batches, and no scheduling or
// concurrency decision is made here.
package batch

import (
	"time"

	"github.com/google/uuid"

	"github.com/retrofitdev/retrofit/internal/types"
)

// Priority tier thresholds over the fraction of a batch's rule references
// that are HIGH or CRITICAL severity.
const (
	tierHighAbove   = 0.50
	tierMediumAbove = 0.20
)

// perFileEstimate is the flat per-file duration used for the batch
// estimate. It is a planning constant, not a measurement.
const perFileEstimate = 150 * time.Millisecond

// Plan partitions requests into fixed-size, order-preserving batches; the
// last batch may be smaller. batchSize must be positive.
func Plan(requests []types.TransformationRequest, batchSize int) ([]types.TransformationBatch, error) {
	if batchSize <= 0 {
		return nil, types.NewValidationError("batchSize", "must be positive")
	}

	batches := make([]types.TransformationBatch, 0, (len(requests)+batchSize-1)/batchSize)
	for start := 0; start < len(requests); start += batchSize {
		end := start + batchSize
		if end > len(requests) {
			end = len(requests)
		}
		chunk := requests[start:end]
		batches = append(batches, types.TransformationBatch{
			ID:                uuid.NewString(),
			Requests:          chunk,
			EstimatedDuration: time.Duration(len(chunk)) * perFileEstimate,
			PriorityTier:      tierFor(chunk),
		})
	}
	return batches, nil
}

// tierFor derives the batch tier from the fraction of rule references that
// are HIGH/CRITICAL: >50% high, >20% medium, else low. A batch with no rule
// references is low.
func tierFor(requests []types.TransformationRequest) types.PriorityTier {
	var total, urgent int
	for _, r := range requests {
		for _, ref := range r.Rules {
			total++
			if ref.Severity == types.SeverityHigh || ref.Severity == types.SeverityCritical {
				urgent++
			}
		}
	}
	if total == 0 {
		return types.TierLow
	}
	frac := float64(urgent) / float64(total)
	switch {
	case frac > tierHighAbove:
		return types.TierHigh
	case frac > tierMediumAbove:
		return types.TierMedium
	default:
		return types.TierLow
	}
}
