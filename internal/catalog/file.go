package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/muhammadmuzzammil1998/jsonc"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a rule catalog.
type File struct {
	Version string `yaml:"version" json:"version"`
	Rules   []Rule `yaml:"rules" json:"rules"`
}

// MinVersion is the oldest catalog schema version this build accepts.
const MinVersion = "v1.0.0"

//go:embed schema/rules.schema.json
var schemaFS embed.FS

const schemaURL = "mem://schemas/rules.schema.json"

var (
	compileOnce sync.Once
	schema      *jsonschema.Schema
	compileErr  error
)

func rulesSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("schema/rules.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("read rules schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("decode rules schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register rules schema: %w", err)
			return
		}
		s, err := c.Compile(schemaURL)
		if err != nil {
			compileErr = fmt.Errorf("compile rules schema: %w", err)
			return
		}
		schema = s
	})
	return schema, compileErr
}

// LoadFile reads, schema-validates, and compiles a catalog from a YAML
// (.yaml/.yml) or JSON/JSONC (.json/.jsonc) rules file. On any failure no
// catalog is returned; a previously active catalog stays in effect.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	// Normalize every format to JSON bytes so schema validation and struct
	// decoding see the same document shape.
	var raw []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("normalize %s: %w", path, err)
		}
	case ".json", ".jsonc":
		raw = jsonc.ToJSON(data)
	default:
		return nil, fmt.Errorf("unsupported rules file extension %q", ext)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s, err := rulesSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(instance); err != nil {
		return nil, fmt.Errorf("%s invalid: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := checkVersion(f.Version); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Load(f.Version, f.Rules)
}

// checkVersion enforces a valid semver at or above MinVersion and within the
// supported major version.
func checkVersion(version string) error {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("catalog version %q is not a semantic version", version)
	}
	if semver.Compare(v, MinVersion) < 0 {
		return fmt.Errorf("catalog version %s is older than minimum supported %s", v, MinVersion)
	}
	if semver.Major(v) != semver.Major(MinVersion) {
		return fmt.Errorf("catalog version %s has unsupported major version (want %s)", v, semver.Major(MinVersion))
	}
	return nil
}
