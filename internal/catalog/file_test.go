package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrofitdev/retrofit/internal/types"
)

func writeRules(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlRules = `version: "1.2.0"
rules:
  - id: string-ref
    frameworkTag: react-legacy
    signature: 'ref="(\w+)"'
    severity: HIGH
    confidenceWeight: 0.95
    priority: 1
    rewriteTemplate: 'ref={this.$1Ref}'
    fileTypes: [jsx, tsx]
  - id: jq-ajax
    frameworkTag: jquery
    signature: '\$\.ajax\('
    severity: MEDIUM
    confidenceWeight: 0.8
    priority: 2
    rewriteTemplate: 'fetch('
`

func TestLoadFileYAML(t *testing.T) {
	path := writeRules(t, "rules.yaml", yamlRules)
	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", cat.Version())
	assert.Equal(t, 2, cat.Len())

	rule, ok := cat.Rule("string-ref")
	require.True(t, ok)
	assert.Equal(t, types.SeverityHigh, rule.Severity)
	assert.Equal(t, []string{"jsx", "tsx"}, rule.FileTypes)
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeRules(t, "rules.jsonc", `{
  // Migration rules for the storefront rewrite.
  "version": "1.0.0",
  "rules": [
    {
      "id": "var-decl",
      "frameworkTag": "es5",
      "signature": "\\bvar\\s+",
      "severity": "LOW",
      "confidenceWeight": 0.6,
      "priority": 5,
      "rewriteTemplate": "let "
    }
  ]
}`)
	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
	_, ok := cat.Rule("var-decl")
	assert.True(t, ok)
}

func TestLoadFileSchemaViolation(t *testing.T) {
	// severity outside the enum is caught by the schema before compilation.
	path := writeRules(t, "rules.yaml", `version: "1.0.0"
rules:
  - id: bad
    frameworkTag: x
    signature: 'a'
    severity: SEVERE
    confidenceWeight: 0.5
    priority: 1
`)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoadFileBadVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"not semver", "latest"},
		{"below minimum", "0.9.0"},
		{"wrong major", "2.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRules(t, "rules.yaml", `version: "`+tt.version+`"
rules:
  - id: r
    frameworkTag: x
    signature: 'a'
    severity: LOW
    confidenceWeight: 0.5
    priority: 1
`)
			_, err := LoadFile(path)
			require.Error(t, err)
		})
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	path := writeRules(t, "rules.toml", "version = '1.0.0'")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
