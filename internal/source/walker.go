package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory patterns skipped by every walker unless
// overridden. They mirror what migration tooling always skips.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/vendor/**",
}

// defaultMaxFileSize caps how large a file the walker will read.
const defaultMaxFileSize = 4 << 20 // 4 MiB

// Walker supplies pairs from a directory tree. Paths are matched against
// doublestar patterns relative to Root, with forward slashes on every
// platform. FileIDs are the slash-separated relative paths, so output order
// and identity are stable across runs and machines.
type Walker struct {
	Root        string
	Include     []string // e.g. "**/*.ts"; empty means every file
	Exclude     []string // defaults to DefaultExcludes when nil
	MaxFileSize int64    // defaults to 4 MiB when zero
}

// Each implements Provider. Files are visited in sorted path order.
// Unreadable and binary (non-UTF-8) files are skipped, not fatal.
func (w Walker) Each(ctx context.Context, fn func(Pair) error) error {
	root, err := filepath.Abs(w.Root)
	if err != nil {
		return fmt.Errorf("resolve root %q: %w", w.Root, err)
	}
	excludes := w.Exclude
	if excludes == nil {
		excludes = DefaultExcludes
	}
	maxSize := w.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matchesAny(excludes, rel) || matchesAny(excludes, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAny(excludes, rel) {
			return nil
		}
		if len(w.Include) > 0 && !matchesAny(w.Include, rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(paths)

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		content := string(data)
		if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
			continue
		}
		if err := fn(Pair{FileID: rel, Content: content}); err != nil {
			return err
		}
	}
	return nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
