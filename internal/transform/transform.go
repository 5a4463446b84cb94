// Package transform applies catalog rewrite rules to matched content.
//
// Rewrites are textual: each rule's rewrite template is expanded against the
// matched span only, in catalog priority order. Structural (AST-aware)
// rewriting is an extension point, not something this package attempts.
//
// Conflict policy: when two rules' match spans overlap, the higher-priority
// rule's rewrite wins and the lower-priority match is dropped for that span
// entirely. Resolution walks matches in the detector's canonical order, so
// the outcome is deterministic and never depends on map iteration.
package transform

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/retrofitdev/retrofit/internal/catalog"
	"github.com/retrofitdev/retrofit/internal/detect"
	"github.com/retrofitdev/retrofit/internal/score"
	"github.com/retrofitdev/retrofit/internal/types"
)

// Apply detects patterns in content and applies their rewrites. The returned
// error is non-nil only for contract violations on the call itself (empty
// fileID, content that is not valid UTF-8); per-rule rewrite failures are
// absorbed into warnings and never fail the file.
func Apply(cat *catalog.Catalog, fileID, content string) (types.TransformationResult, error) {
	if err := checkArgs(fileID, content); err != nil {
		return failedResult(fileID, content), err
	}
	return apply(cat, detect.Patterns(cat, fileID, content), content), nil
}

// ApplyDetected applies rewrites using a previously produced detection
// result, avoiding a second scan. The detection must have been produced from
// the same content.
func ApplyDetected(cat *catalog.Catalog, detected types.DetectedPatterns, content string) (types.TransformationResult, error) {
	if err := checkArgs(detected.FileID, content); err != nil {
		return failedResult(detected.FileID, content), err
	}
	return apply(cat, detected, content), nil
}

func checkArgs(fileID, content string) error {
	if fileID == "" {
		return types.NewValidationError("fileId", "must not be empty")
	}
	if !utf8.ValidString(content) {
		return types.NewValidationError("content", "must be valid UTF-8")
	}
	return nil
}

func failedResult(fileID, content string) types.TransformationResult {
	return types.TransformationResult{
		FileID:             fileID,
		Success:            false,
		OriginalContent:    content,
		TransformedContent: content,
		Changes:            []types.ChangeRecord{},
		Status:             types.StatusFailed,
		Timestamp:          time.Now().UTC(),
	}
}

func apply(cat *catalog.Catalog, detected types.DetectedPatterns, content string) types.TransformationResult {
	result := types.TransformationResult{
		FileID:             detected.FileID,
		Success:            true,
		OriginalContent:    content,
		TransformedContent: content,
		Changes:            []types.ChangeRecord{},
		Timestamp:          time.Now().UTC(),
	}

	if !detected.HasMatches() {
		result.Status = types.StatusSkipped
		return result
	}

	accepted := resolveConflicts(detected.Matches)

	var out strings.Builder
	out.Grow(len(content))
	cursor := 0
	for _, m := range accepted {
		if m.Offset < cursor || m.End() > len(content) {
			// Detection came from different content; treat as an absorbed
			// failure rather than corrupting the output.
			result.Warnings = append(result.Warnings, types.RewriteWarning{
				RuleID: m.RuleID,
				Offset: m.Offset,
				Reason: "match span out of range for content",
			})
			continue
		}
		rule, ok := cat.Rule(m.RuleID)
		if !ok || !rule.HasRewrite() {
			// Detection-only rule: evidence without a rewrite.
			continue
		}
		spanText := content[m.Offset:m.End()]
		rendered, err := safeRewrite(rule, spanText)
		if err != nil {
			result.Warnings = append(result.Warnings, types.RewriteWarning{
				RuleID: m.RuleID,
				Offset: m.Offset,
				Reason: err.Error(),
			})
			continue
		}
		out.WriteString(content[cursor:m.Offset])
		out.WriteString(rendered)
		cursor = m.End()
		result.Changes = append(result.Changes, types.ChangeRecord{
			RuleID:       m.RuleID,
			FrameworkTag: m.FrameworkTag,
			FileID:       detected.FileID,
			Line:         m.Line,
			Column:       m.Column,
			Offset:       m.Offset,
			Before:       spanText,
			After:        rendered,
			RiskLevel:    score.RiskFromSeverity(m.Severity),
		})
	}
	out.WriteString(content[cursor:])
	result.TransformedContent = out.String()

	switch {
	case len(result.Warnings) > 0:
		result.Status = types.StatusCompletedWithWarnings
	default:
		result.Status = types.StatusCompleted
	}
	return result
}

// resolveConflicts walks matches in canonical order (highest priority rank
// first, then offset, then rule ID) and drops any match whose span
// overlaps an already accepted one. Because higher-priority matches are
// accepted first, the higher-priority rule always wins an overlap. The
// survivors are returned in offset order, ready to apply left to right.
func resolveConflicts(matches []types.PatternMatch) []types.PatternMatch {
	accepted := make([]types.PatternMatch, 0, len(matches))
	for _, m := range matches {
		conflict := false
		for _, a := range accepted {
			if m.Overlaps(a) {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, m)
		}
	}
	// Canonical order is priority-major; application needs offset order.
	for i := 1; i < len(accepted); i++ {
		for j := i; j > 0 && accepted[j].Offset < accepted[j-1].Offset; j-- {
			accepted[j], accepted[j-1] = accepted[j-1], accepted[j]
		}
	}
	return accepted
}

// safeRewrite expands the rule's rewrite template against the matched span
// with panic isolation, then checks the post-condition that the output no
// longer matches the signature. Either failure is absorbed by the caller as
// a warning; a misbehaving rule never fails the file.
func safeRewrite(rule catalog.CompiledRule, spanText string) (rendered string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rendered = ""
			err = fmt.Errorf("rewrite panic: %v", r)
		}
	}()
	rendered = rule.Signature.ReplaceAllString(spanText, rule.RewriteTemplate)
	if rule.Signature.MatchString(rendered) {
		return "", fmt.Errorf("rewrite output still matches signature of rule %s", rule.ID)
	}
	return rendered, nil
}
