package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func collect(t *testing.T, w Walker) []Pair {
	t.Helper()
	var pairs []Pair
	require.NoError(t, w.Each(context.Background(), func(p Pair) error {
		pairs = append(pairs, p)
		return nil
	}))
	return pairs
}

func TestWalkerVisitsSortedPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/b.ts": "b",
		"src/a.ts": "a",
		"main.ts":  "m",
	})

	pairs := collect(t, Walker{Root: root})
	ids := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = p.FileID
	}
	assert.Equal(t, []string{"main.ts", "src/a.ts", "src/b.ts"}, ids)
	assert.Equal(t, "m", pairs[0].Content)
}

func TestWalkerIncludeGlobs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":    "a",
		"src/b.js":    "b",
		"src/deep/c.ts": "c",
	})

	pairs := collect(t, Walker{Root: root, Include: []string{"**/*.ts"}})
	require.Len(t, pairs, 2)
	assert.Equal(t, "src/a.ts", pairs[0].FileID)
	assert.Equal(t, "src/deep/c.ts", pairs[1].FileID)
}

func TestWalkerDefaultExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":                "a",
		"node_modules/lib/x.ts":   "x",
		".git/objects/aa":         "g",
		"dist/bundle.js":          "d",
	})

	pairs := collect(t, Walker{Root: root})
	require.Len(t, pairs, 1)
	assert.Equal(t, "src/a.ts", pairs[0].FileID)
}

func TestWalkerCustomExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":       "a",
		"legacy/b.ts":    "b",
	})

	pairs := collect(t, Walker{Root: root, Exclude: []string{"legacy/**"}})
	require.Len(t, pairs, 1)
	assert.Equal(t, "src/a.ts", pairs[0].FileID)
}

func TestWalkerSkipsBinaryFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"src/a.ts": "a"})
	bin := filepath.Join(root, "blob.bin")
	require.NoError(t, os.WriteFile(bin, []byte{0x00, 0xff, 0xfe}, 0o644))

	pairs := collect(t, Walker{Root: root})
	require.Len(t, pairs, 1)
	assert.Equal(t, "src/a.ts", pairs[0].FileID)
}

func TestWalkerSkipsOversizedFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.ts": "ok",
		"big.ts":   "0123456789",
	})

	pairs := collect(t, Walker{Root: root, MaxFileSize: 5})
	require.Len(t, pairs, 1)
	assert.Equal(t, "small.ts", pairs[0].FileID)
}

func TestWalkerHonorsCancellation(t *testing.T) {
	root := writeTree(t, map[string]string{"a.ts": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Walker{Root: root}.Each(ctx, func(Pair) error { return nil })
	assert.Error(t, err)
}

func TestSliceProvider(t *testing.T) {
	s := Slice{{FileID: "a", Content: "1"}, {FileID: "b", Content: "2"}}
	var ids []string
	require.NoError(t, s.Each(context.Background(), func(p Pair) error {
		ids = append(ids, p.FileID)
		return nil
	}))
	assert.Equal(t, []string{"a", "b"}, ids)
}
