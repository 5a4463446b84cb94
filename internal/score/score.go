// Package score computes technical-debt and risk metrics from detected
// patterns.
//
// This package is the single source of truth for every scoring constant:
// severity points, risk thresholds, framework category weights, and the
// modernization-potential saturation. No other package declares a competing
// table; callers that need a risk level for a severity go through
// RiskFromSeverity.
//
// Every function here is pure. Identical input yields identical output: no
// I/O, no randomness, no clock reads.
package score

import (
	"sort"

	"github.com/retrofitdev/retrofit/internal/types"
)

// Severity points used for aggregate risk. Confidence-weighted points from
// all matches are summed and compared against the risk thresholds below.
const (
	pointsLow      = 1.0
	pointsMedium   = 2.0
	pointsHigh     = 3.0
	pointsCritical = 4.0
)

// Canonical risk thresholds over the aggregate severity score. The source
// material carried inconsistent cut points; this table is the one the whole
// engine uses.
const (
	riskCriticalAt = 8.0
	riskHighAt     = 5.0
	riskMediumAt   = 2.0
)

// debtScale converts the weighted-potential sum into the 0-100 debt score.
// With unit category weights, four fully-debted categories saturate at 100.
const debtScale = 25.0

// potentialSaturation is the confidence-weighted severity mass at which a
// framework group's modernization potential reaches 1.0.
const potentialSaturation = 5.0

// frameworkWeights are the per-category debt weights. Categories not listed
// use defaultFrameworkWeight.
var frameworkWeights = map[string]float64{
	"react-legacy":   1.2,
	"angularjs":      1.2,
	"jquery":         1.0,
	"node-callbacks": 0.9,
	"python2":        1.1,
}

const defaultFrameworkWeight = 1.0

// Result is the output of Score.
type Result struct {
	// DebtScore is the aggregate technical-debt score in [0,100].
	DebtScore float64 `json:"debtScore"`
	// RiskLevel is derived from the canonical threshold table.
	RiskLevel types.RiskLevel `json:"riskLevel"`
	// PriorityRanking lists framework tags by descending contribution,
	// ties broken by lexical tag order.
	PriorityRanking []string `json:"priorityRanking"`
	// SeverityScore is the confidence-weighted severity point sum the risk
	// level was derived from.
	SeverityScore float64 `json:"severityScore"`
}

// SeverityPoints returns the point value for a severity.
func SeverityPoints(s types.Severity) float64 {
	switch s {
	case types.SeverityCritical:
		return pointsCritical
	case types.SeverityHigh:
		return pointsHigh
	case types.SeverityMedium:
		return pointsMedium
	case types.SeverityLow:
		return pointsLow
	default:
		return 0
	}
}

// RiskFromSeverity maps a single rule severity to the risk level recorded on
// its change records.
func RiskFromSeverity(s types.Severity) types.RiskLevel {
	switch s {
	case types.SeverityCritical:
		return types.RiskCritical
	case types.SeverityHigh:
		return types.RiskHigh
	case types.SeverityMedium:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// RiskLevelFor classifies an aggregate severity score against the canonical
// threshold table.
func RiskLevelFor(severityScore float64) types.RiskLevel {
	switch {
	case severityScore >= riskCriticalAt:
		return types.RiskCritical
	case severityScore >= riskHighAt:
		return types.RiskHigh
	case severityScore >= riskMediumAt:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// FrameworkWeight returns the debt weight for a framework tag.
func FrameworkWeight(tag string) float64 {
	if w, ok := frameworkWeights[tag]; ok {
		return w
	}
	return defaultFrameworkWeight
}

// ModernizationPotential computes the normalized [0,1] potential for one
// framework group from its matches. The value grows monotonically with every
// added match and saturates at potentialSaturation points.
func ModernizationPotential(matches []types.PatternMatch) float64 {
	var mass float64
	for _, m := range matches {
		mass += types.Clamp01(m.Confidence) * SeverityPoints(m.Severity) / pointsCritical
	}
	return types.Clamp01(mass / potentialSaturation)
}

// Score aggregates one or more per-file detection results into a debt score,
// risk level, and framework priority ranking.
//
// When multiple files are scored together their framework groups are merged
// by tag; merged potential is the clamped sum, so adding evidence never
// lowers a score.
func Score(sets ...types.DetectedPatterns) Result {
	potentials := make(map[string]float64)
	var severityScore float64

	for _, set := range sets {
		for _, g := range set.Groups {
			potentials[g.FrameworkTag] = types.Clamp01(
				potentials[g.FrameworkTag] + types.Clamp01(g.ModernizationPotential))
		}
		for _, m := range set.Matches {
			severityScore += SeverityPoints(m.Severity) * types.Clamp01(m.Confidence)
		}
	}

	type contribution struct {
		tag   string
		value float64
	}
	contributions := make([]contribution, 0, len(potentials))
	var debt float64
	for tag, potential := range potentials {
		c := FrameworkWeight(tag) * potential
		debt += c
		contributions = append(contributions, contribution{tag: tag, value: c})
	}

	sort.Slice(contributions, func(i, j int) bool {
		if contributions[i].value != contributions[j].value {
			return contributions[i].value > contributions[j].value
		}
		return contributions[i].tag < contributions[j].tag
	})
	ranking := make([]string, len(contributions))
	for i, c := range contributions {
		ranking[i] = c.tag
	}

	debtScore := debt * debtScale
	if debtScore > 100 {
		debtScore = 100
	}

	return Result{
		DebtScore:       debtScore,
		RiskLevel:       RiskLevelFor(severityScore),
		PriorityRanking: ranking,
		SeverityScore:   severityScore,
	}
}
