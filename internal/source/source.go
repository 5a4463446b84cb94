// Package source supplies (fileId, content) pairs to the engine.
//
// The core packages never touch a filesystem API; they consume Pair values
// from a Provider. Walker is the filesystem-backed provider used by the CLI,
// Slice serves tests and in-memory input.
package source

import "context"

// Pair is one unit of input: an opaque file identifier and its content.
type Pair struct {
	FileID  string
	Content string
}

// Provider yields input pairs in a stable order. Each stops early when fn
// returns an error or the context is cancelled.
type Provider interface {
	Each(ctx context.Context, fn func(Pair) error) error
}

// Slice is an in-memory Provider.
type Slice []Pair

// Each implements Provider.
func (s Slice) Each(ctx context.Context, fn func(Pair) error) error {
	for _, p := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}
