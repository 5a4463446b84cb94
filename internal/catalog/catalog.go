// Package catalog holds the versioned table of pattern rules the detector
// and transformation engine run against.
//
// A Catalog is immutable once built. Loading validates every rule and
// rejects the entire load on the first-class principle that a half-valid
// ruleset is worse than the previous good one: on failure the previously
// active catalog (behind a Handle) is left untouched.
//
// Signatures compile under Go's regexp package, which is RE2. RE2 has no
// backtracking, so every signature is evaluable in time linear in the input,
// which is the bounded-time guarantee the detector's contract depends on.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/retrofitdev/retrofit/internal/types"
)

// Rule is one catalog entry as authored in a rules file.
type Rule struct {
	ID               string         `yaml:"id" json:"id"`
	FrameworkTag     string         `yaml:"frameworkTag" json:"frameworkTag"`
	Description      string         `yaml:"description,omitempty" json:"description,omitempty"`
	Signature        string         `yaml:"signature" json:"signature"`
	Severity         types.Severity `yaml:"severity" json:"severity"`
	ConfidenceWeight float64        `yaml:"confidenceWeight" json:"confidenceWeight"`
	// Priority is a rank used for evaluation order and conflict
	// resolution: 1 is the highest priority.
	Priority         int    `yaml:"priority" json:"priority"`
	RewriteTemplate  string `yaml:"rewriteTemplate,omitempty" json:"rewriteTemplate,omitempty"`
	RollbackTemplate string `yaml:"rollbackTemplate,omitempty" json:"rollbackTemplate,omitempty"`
	// FileTypes are file extensions (without the dot) where this pattern is
	// expected; the detector's contextual confidence adjustment keys off it.
	FileTypes []string `yaml:"fileTypes,omitempty" json:"fileTypes,omitempty"`
}

// CompiledRule is a validated rule with its compiled signature.
type CompiledRule struct {
	Rule
	Signature *regexp.Regexp
	// Pattern keeps the original signature source text.
	Pattern string
}

// HasRewrite reports whether the rule declares a rewrite.
func (r CompiledRule) HasRewrite() bool { return r.RewriteTemplate != "" }

// Catalog is the immutable, versioned rule table.
type Catalog struct {
	version string
	rules   []CompiledRule // priority rank ascending, then id ascending
	byID    map[string]int
}

// Version returns the catalog's semantic version.
func (c *Catalog) Version() string { return c.version }

// Len returns the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Rules returns the rules in canonical order: priority rank ascending (1 is
// highest), then rule ID ascending. The returned slice is shared; callers
// must not modify it.
func (c *Catalog) Rules() []CompiledRule { return c.rules }

// Rule looks up a rule by ID.
func (c *Catalog) Rule(id string) (CompiledRule, bool) {
	i, ok := c.byID[id]
	if !ok {
		return CompiledRule{}, false
	}
	return c.rules[i], true
}

// Load validates rules and builds an immutable Catalog. Any invalid rule
// rejects the whole load with a *CatalogError listing every violation found.
func Load(version string, rules []Rule) (*Catalog, error) {
	var violations []RuleViolation
	seen := make(map[string]int, len(rules))
	compiled := make([]CompiledRule, 0, len(rules))

	for i, r := range rules {
		fail := func(field, reason string) {
			violations = append(violations, RuleViolation{
				RuleID: r.ID, Index: i, Field: field, Reason: reason,
			})
		}

		if r.ID == "" {
			fail("id", "must not be empty")
		} else if prev, dup := seen[r.ID]; dup {
			fail("id", fmt.Sprintf("duplicates rule at index %d", prev))
		} else {
			seen[r.ID] = i
		}
		if r.FrameworkTag == "" {
			fail("frameworkTag", "must not be empty")
		}
		if !r.Severity.Valid() {
			fail("severity", fmt.Sprintf("%q is not one of LOW/MEDIUM/HIGH/CRITICAL", r.Severity))
		}
		if r.ConfidenceWeight < 0 || r.ConfidenceWeight > 1 {
			fail("confidenceWeight", fmt.Sprintf("%v is outside [0,1]", r.ConfidenceWeight))
		}

		if r.Signature == "" {
			fail("signature", "must not be empty")
			continue
		}
		re, err := regexp.Compile(r.Signature)
		if err != nil {
			fail("signature", fmt.Sprintf("does not compile: %v", err))
			continue
		}

		r.RewriteTemplate = normalizeTemplate(r.RewriteTemplate)
		r.RollbackTemplate = normalizeTemplate(r.RollbackTemplate)
		if r.RewriteTemplate != "" && rewriteSelfMatches(re, r.RewriteTemplate) {
			fail("rewriteTemplate", "output re-matches the rule's own signature")
		}

		compiled = append(compiled, CompiledRule{
			Rule:      r,
			Signature: re,
			Pattern:   r.Signature,
		})
	}

	if len(violations) > 0 {
		return nil, &CatalogError{Violations: violations}
	}

	// Canonical evaluation order: highest priority first. Priority is a
	// rank, 1 is the highest, so ranks sort ascending.
	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].Priority != compiled[j].Priority {
			return compiled[i].Priority < compiled[j].Priority
		}
		return compiled[i].ID < compiled[j].ID
	})
	byID := make(map[string]int, len(compiled))
	for i, r := range compiled {
		byID[r.ID] = i
	}

	return &Catalog{version: version, rules: compiled, byID: byID}, nil
}

// captureRef matches template capture references ($1, ${name}) per the
// regexp.Expand syntax. "$$" escapes a literal dollar.
var captureRef = regexp.MustCompile(`\$(\$|\{\w+\}|\w+)`)

// normalizeTemplate rewrites unbraced numeric capture references that run
// into trailing word characters, e.g. "$1Ref" becomes "${1}Ref". The Expand
// syntax reads "$1Ref" as one capture named "1Ref", which never exists, so
// the reference would silently expand to nothing. Rule authors always mean
// the numeric group.
func normalizeTemplate(template string) string {
	if template == "" {
		return template
	}
	return captureRef.ReplaceAllStringFunc(template, func(ref string) string {
		if ref == "$$" || strings.HasPrefix(ref, "${") {
			return ref
		}
		word := ref[1:]
		i := 0
		for i < len(word) && word[i] >= '0' && word[i] <= '9' {
			i++
		}
		if i == 0 || i == len(word) {
			return ref
		}
		return "${" + word[:i] + "}" + word[i:]
	})
}

// rewriteSelfMatches reports whether a rewrite template's output would still
// match the rule's signature. Each capture reference is replaced with the
// word placeholder "x", standing in for whatever non-empty text the capture
// consumed; it catches templates that reproduce the legacy construct around
// their captures, the failure mode that makes a rewrite loop forever.
func rewriteSelfMatches(re *regexp.Regexp, template string) bool {
	rendered := captureRef.ReplaceAllStringFunc(template, func(ref string) string {
		if ref == "$$" {
			return "$"
		}
		return "x"
	})
	return re.MatchString(rendered)
}
