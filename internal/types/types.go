// Package types defines the core data model shared by the catalog, detector,
// scorer, transformation engine, and batch planner.
//
// Everything here is plain data. Values are created per call and owned by the
// caller; nothing in this package reads files, holds state, or mutates shared
// structures. Enums are closed string types so illegal states are not
// representable in results.
package types

import "time"

// Severity classifies how urgent a legacy pattern is to modernize.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Severities lists all valid severity values, lowest first.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s is one of the fixed severity values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Weight returns a numeric weight for sorting and aggregation.
// Higher is more severe.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RiskLevel is the derived risk classification for a score or a change.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Weight returns a numeric weight for ordering risk levels.
func (r RiskLevel) Weight() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// PatternMatch is one occurrence of a catalog rule in a file.
// Matches are append-only evidence: once produced they are never mutated.
type PatternMatch struct {
	RuleID       string   `json:"ruleId"`
	FrameworkTag string   `json:"frameworkTag"`
	FileID       string   `json:"fileId"`
	Line         int      `json:"line"`   // 1-based
	Column       int      `json:"column"` // 1-based, in bytes
	Offset       int      `json:"offset"` // byte offset of the match start
	Length       int      `json:"length"` // byte length of the matched span
	Snippet      string   `json:"snippet"`
	Confidence   float64  `json:"confidence"` // always in [0,1]
	Severity     Severity `json:"severity"`
	Priority     int      `json:"priority"` // rule priority rank (1 = highest), carried for conflict resolution
}

// End returns the byte offset one past the matched span.
func (m PatternMatch) End() int { return m.Offset + m.Length }

// Overlaps reports whether two match spans share any bytes.
func (m PatternMatch) Overlaps(o PatternMatch) bool {
	return m.Offset < o.End() && o.Offset < m.End()
}

// FrameworkGroup aggregates a file's matches for one framework category.
type FrameworkGroup struct {
	FrameworkTag string         `json:"frameworkTag"`
	Matches      []PatternMatch `json:"matches"`
	// ModernizationPotential estimates how much of this category's debt is
	// present in the file, normalized to [0,1].
	ModernizationPotential float64 `json:"modernizationPotential"`
}

// SkippedRule records a rule whose matcher failed during detection.
// Per-rule failures are isolated: the rule contributes no matches and the
// scan continues, but the skip is surfaced so callers can report it.
type SkippedRule struct {
	RuleID string `json:"ruleId"`
	Reason string `json:"reason"`
}

// DetectedPatterns is the per-file result of matching content against the
// catalog.
type DetectedPatterns struct {
	FileID string `json:"fileId"`
	// Matches in canonical order: rule priority rank ascending (1 is the
	// highest priority), then match offset ascending, then rule ID
	// ascending. The ordering is part of the contract, not an accident of
	// iteration.
	Matches []PatternMatch `json:"matches"`
	// Groups keyed by framework tag, tags in lexical order.
	Groups []FrameworkGroup `json:"groups"`
	// SkippedRules lists rules isolated due to matcher failure.
	SkippedRules []SkippedRule `json:"skippedRules,omitempty"`
}

// HasMatches reports whether any rule matched.
func (d DetectedPatterns) HasMatches() bool { return len(d.Matches) > 0 }

// Group returns the group for a framework tag, if present.
func (d DetectedPatterns) Group(tag string) (FrameworkGroup, bool) {
	for _, g := range d.Groups {
		if g.FrameworkTag == tag {
			return g, true
		}
	}
	return FrameworkGroup{}, false
}

// ChangeRecord is one applied rewrite.
type ChangeRecord struct {
	RuleID       string    `json:"ruleId"`
	FrameworkTag string    `json:"frameworkTag"`
	FileID       string    `json:"fileId"`
	Line         int       `json:"line"`
	Column       int       `json:"column"`
	Offset       int       `json:"offset"`
	Before       string    `json:"before"`
	After        string    `json:"after"`
	RiskLevel    RiskLevel `json:"riskLevel"`
}

// TransformationStatus is the lifecycle state of a transformation.
//
// The only transitions are PENDING -> SKIPPED (zero matches),
// PENDING -> COMPLETED (all rewrites applied cleanly), and
// PENDING -> COMPLETED_WITH_WARNINGS (some per-rule failures absorbed).
// FAILED is reserved for contract violations on the call itself; a
// misbehaving rule never fails a file. All states but PENDING are terminal.
type TransformationStatus string

const (
	StatusPending               TransformationStatus = "PENDING"
	StatusSkipped               TransformationStatus = "SKIPPED"
	StatusCompleted             TransformationStatus = "COMPLETED"
	StatusCompletedWithWarnings TransformationStatus = "COMPLETED_WITH_WARNINGS"
	StatusFailed                TransformationStatus = "FAILED"
)

// Terminal reports whether the status is a terminal state.
func (s TransformationStatus) Terminal() bool { return s != StatusPending }

// RewriteWarning records a per-rule rewrite failure that was absorbed.
type RewriteWarning struct {
	RuleID string `json:"ruleId"`
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

// TransformationResult is the outcome of transforming one file's content.
type TransformationResult struct {
	FileID             string               `json:"fileId"`
	Success            bool                 `json:"success"`
	OriginalContent    string               `json:"originalContent"`
	TransformedContent string               `json:"transformedContent"`
	Changes            []ChangeRecord       `json:"changes"`
	Warnings           []RewriteWarning     `json:"warnings,omitempty"`
	Status             TransformationStatus `json:"status"`
	Timestamp          time.Time            `json:"timestamp"`
}

// RuleRef references a catalog rule from a transformation request,
// carrying the severity the planner needs for priority tiering.
type RuleRef struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
}

// TransformationRequest asks for one file to be transformed.
type TransformationRequest struct {
	FileID string    `json:"fileId"`
	Rules  []RuleRef `json:"rules"`
}

// PriorityTier classifies a batch for the external scheduler.
type PriorityTier string

const (
	TierLow    PriorityTier = "low"
	TierMedium PriorityTier = "medium"
	TierHigh   PriorityTier = "high"
)

// TransformationBatch is a bounded, ordered group of requests handed to an
// external executor. The planner makes no scheduling decision itself.
type TransformationBatch struct {
	ID                string                  `json:"id"`
	Requests          []TransformationRequest `json:"requests"`
	EstimatedDuration time.Duration           `json:"estimatedDuration"`
	PriorityTier      PriorityTier            `json:"priorityTier"`
}

// FileIDs returns the ordered file list for the batch.
func (b TransformationBatch) FileIDs() []string {
	ids := make([]string, len(b.Requests))
	for i, r := range b.Requests {
		ids[i] = r.FileID
	}
	return ids
}

// Clamp01 clamps v to [0,1]. Confidence and modernization potential values
// pass through this at every producer.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
