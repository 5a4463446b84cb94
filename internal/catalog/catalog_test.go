package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrofitdev/retrofit/internal/types"
)

func validRule(id string) Rule {
	return Rule{
		ID:               id,
		FrameworkTag:     "react-legacy",
		Signature:        `ref="(\w+)"`,
		Severity:         types.SeverityHigh,
		ConfidenceWeight: 0.95,
		Priority:         1,
		RewriteTemplate:  "ref={this.$1Ref}",
	}
}

func TestLoadValidCatalog(t *testing.T) {
	cat, err := Load("1.0.0", []Rule{validRule("string-ref")})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", cat.Version())
	assert.Equal(t, 1, cat.Len())

	rule, ok := cat.Rule("string-ref")
	require.True(t, ok)
	assert.True(t, rule.HasRewrite())
	assert.Equal(t, `ref="(\w+)"`, rule.Pattern)
}

func TestLoadRejectsMissingID(t *testing.T) {
	r := validRule("")
	_, err := Load("1.0.0", []Rule{r})
	require.Error(t, err)

	var catErr *CatalogError
	require.ErrorAs(t, err, &catErr)
	require.Len(t, catErr.Violations, 1)
	assert.Equal(t, "id", catErr.Violations[0].Field)
}

func TestLoadRejectsWholeCatalogOnOneBadRule(t *testing.T) {
	bad := validRule("broken")
	bad.Signature = `ref="([unclosed`
	_, err := Load("1.0.0", []Rule{validRule("good"), bad})
	require.Error(t, err)

	var catErr *CatalogError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, "broken", catErr.Violations[0].RuleID)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	_, err := Load("1.0.0", []Rule{validRule("dup"), validRule("dup")})
	var catErr *CatalogError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, "id", catErr.Violations[0].Field)
}

func TestLoadValidatesFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rule)
		field  string
	}{
		{"empty framework tag", func(r *Rule) { r.FrameworkTag = "" }, "frameworkTag"},
		{"bad severity", func(r *Rule) { r.Severity = "URGENT" }, "severity"},
		{"confidence above one", func(r *Rule) { r.ConfidenceWeight = 1.5 }, "confidenceWeight"},
		{"confidence below zero", func(r *Rule) { r.ConfidenceWeight = -0.1 }, "confidenceWeight"},
		{"empty signature", func(r *Rule) { r.Signature = "" }, "signature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule("rule")
			tt.mutate(&r)
			_, err := Load("1.0.0", []Rule{r})
			var catErr *CatalogError
			require.ErrorAs(t, err, &catErr)
			assert.Equal(t, tt.field, catErr.Violations[0].Field)
		})
	}
}

func TestLoadRejectsSelfMatchingRewrite(t *testing.T) {
	// Each rewrite reproduces the legacy construct around its capture, so
	// its output would match the signature again and rewriting would never
	// converge.
	tests := []struct {
		name     string
		template string
	}{
		{"capture only", `ref="$1"`},
		{"capture with prefix", `ref="my$1"`},
		{"braced capture", `ref="${1}"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule("self-match")
			r.RewriteTemplate = tt.template
			_, err := Load("1.0.0", []Rule{r})

			var catErr *CatalogError
			require.ErrorAs(t, err, &catErr)
			assert.Equal(t, "rewriteTemplate", catErr.Violations[0].Field)
		})
	}
}

func TestLoadNormalizesNumericCaptureRefs(t *testing.T) {
	// "$1Ref" parses as one capture named "1Ref" under the Expand syntax,
	// so it would expand to nothing; the loader braces the numeric group.
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"digit run into word chars", `ref={this.$1Ref}`, `ref={this.${1}Ref}`},
		{"bare digit untouched", `out($1)`, `out($1)`},
		{"already braced untouched", `ref={this.${1}Ref}`, `ref={this.${1}Ref}`},
		{"named capture untouched", `out(${name})`, `out(${name})`},
		{"escaped dollar untouched", `cost: $$1Ref`, `cost: $$1Ref`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule("norm")
			r.RewriteTemplate = tt.template
			cat, err := Load("1.0.0", []Rule{r})
			require.NoError(t, err)

			rule, ok := cat.Rule("norm")
			require.True(t, ok)
			assert.Equal(t, tt.want, rule.RewriteTemplate)
		})
	}
}

func TestRulesOrderedByPriorityRank(t *testing.T) {
	second := validRule("b-second")
	second.Priority = 2
	first := validRule("a-first")
	first.Priority = 1
	alsoSecond := validRule("a-second")
	alsoSecond.Priority = 2

	cat, err := Load("1.0.0", []Rule{second, first, alsoSecond})
	require.NoError(t, err)

	ids := make([]string, 0, cat.Len())
	for _, r := range cat.Rules() {
		ids = append(ids, r.ID)
	}
	// Rank 1 first; equal ranks fall back to ID order.
	assert.Equal(t, []string{"a-first", "a-second", "b-second"}, ids)
}

func TestHandleSwapIsAtomicAndKeepsOldOnFailure(t *testing.T) {
	first, err := Load("1.0.0", []Rule{validRule("string-ref")})
	require.NoError(t, err)

	h := NewHandle(first)
	require.Same(t, first, h.Current())

	// A failed load produces no catalog, so there is nothing to install and
	// the active catalog stays.
	_, err = Load("1.0.0", []Rule{validRule("")})
	require.Error(t, err)
	require.Same(t, first, h.Current())

	second, err := Load("1.1.0", []Rule{validRule("string-ref"), func() Rule {
		r := validRule("jq-ajax")
		r.Priority = 2
		return r
	}()})
	require.NoError(t, err)

	old := h.Replace(second)
	assert.Same(t, first, old)
	assert.Same(t, second, h.Current())
}

func TestRewriteSelfMatchHelper(t *testing.T) {
	r := validRule("ok")
	cat, err := Load("1.0.0", []Rule{r})
	require.NoError(t, err)

	rule, _ := cat.Rule("ok")
	// The shipped template rewrites away from the legacy form.
	out := rule.Signature.ReplaceAllString(`ref="myDiv"`, rule.RewriteTemplate)
	assert.Equal(t, "ref={this.myDivRef}", out)
	assert.False(t, rule.Signature.MatchString(out))
}
