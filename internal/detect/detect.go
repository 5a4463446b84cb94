// Package detect matches file content against the rule catalog.
//
// Detection is pure: identical (content, catalog) input produces a
// byte-identical, order-stable result. The canonical match order is highest
// rule priority first (priority is a rank; 1 is highest), then match offset
// ascending, then rule ID ascending; that ordering is a documented part of
// the contract and is covered by tests, it is not an accident of map
// iteration.
package detect

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/retrofitdev/retrofit/internal/catalog"
	"github.com/retrofitdev/retrofit/internal/score"
	"github.com/retrofitdev/retrofit/internal/types"
)

// maxSnippetLen bounds the context snippet recorded on each match.
const maxSnippetLen = 120

// Patterns matches content against every rule in the catalog and returns the
// per-file aggregate. It never fails on arbitrary input: unmatched rules
// contribute nothing, and a rule whose matcher panics is isolated, recorded
// under SkippedRules, and the scan continues with the remaining rules.
func Patterns(cat *catalog.Catalog, fileID, content string) types.DetectedPatterns {
	result := types.DetectedPatterns{
		FileID:  fileID,
		Matches: []types.PatternMatch{},
		Groups:  []types.FrameworkGroup{},
	}
	if cat == nil || content == "" {
		return result
	}

	lines := lineIndex(content)

	for _, rule := range cat.Rules() {
		spans, err := safeFindAll(rule, content)
		if err != nil {
			result.SkippedRules = append(result.SkippedRules, types.SkippedRule{
				RuleID: rule.ID,
				Reason: err.Error(),
			})
			continue
		}
		confidence := types.Clamp01(rule.ConfidenceWeight + contextAdjustment(fileID, rule.FileTypes))
		for _, span := range spans {
			line, col := lines.locate(span[0])
			result.Matches = append(result.Matches, types.PatternMatch{
				RuleID:       rule.ID,
				FrameworkTag: rule.FrameworkTag,
				FileID:       fileID,
				Line:         line,
				Column:       col,
				Offset:       span[0],
				Length:       span[1] - span[0],
				Snippet:      lines.snippet(content, span[0]),
				Confidence:   confidence,
				Severity:     rule.Severity,
				Priority:     rule.Priority,
			})
		}
	}

	// Canonical order: rule priority first (rank 1 is highest), then match
	// offset, then rule ID.
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return a.RuleID < b.RuleID
	})

	result.Groups = groupByFramework(result.Matches)
	return result
}

// safeFindAll runs one rule's matcher with panic isolation. A failing rule
// must never abort the scan for the others.
func safeFindAll(rule catalog.CompiledRule, content string) (spans [][]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans = nil
			err = fmt.Errorf("matcher panic: %v", r)
		}
	}()
	return rule.Signature.FindAllStringIndex(content, -1), nil
}

// groupByFramework buckets matches by framework tag, tags in lexical order,
// and computes each group's modernization potential.
func groupByFramework(matches []types.PatternMatch) []types.FrameworkGroup {
	byTag := make(map[string][]types.PatternMatch)
	for _, m := range matches {
		byTag[m.FrameworkTag] = append(byTag[m.FrameworkTag], m)
	}
	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	groups := make([]types.FrameworkGroup, 0, len(tags))
	for _, tag := range tags {
		groups = append(groups, types.FrameworkGroup{
			FrameworkTag:           tag,
			Matches:                byTag[tag],
			ModernizationPotential: score.ModernizationPotential(byTag[tag]),
		})
	}
	return groups
}

// lineOffsets records the byte offset of each line start.
type lineOffsets []int

func lineIndex(content string) lineOffsets {
	offsets := lineOffsets{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// locate converts a byte offset to a 1-based line and column.
func (l lineOffsets) locate(offset int) (line, col int) {
	i := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	return i + 1, offset - l[i] + 1
}

// snippet returns the trimmed line containing the offset, truncated to at
// most maxSnippetLen bytes. The cut backs up to a rune boundary so the
// snippet stays valid UTF-8.
func (l lineOffsets) snippet(content string, offset int) string {
	i := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	start := l[i]
	end := len(content)
	if i+1 < len(l) {
		end = l[i+1] - 1
	}
	s := strings.TrimSpace(content[start:end])
	if len(s) > maxSnippetLen {
		cut := maxSnippetLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
