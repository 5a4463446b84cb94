package catalog

import "sync/atomic"

// Handle is a read-only view of the process-wide catalog. Reload builds a
// complete new Catalog and swaps the pointer atomically, so an in-flight
// scan never observes a partially updated ruleset: it keeps the catalog it
// started with.
type Handle struct {
	p atomic.Pointer[Catalog]
}

// NewHandle creates a handle holding the given catalog. A nil catalog is
// allowed; Current returns nil until the first Replace.
func NewHandle(c *Catalog) *Handle {
	h := &Handle{}
	if c != nil {
		h.p.Store(c)
	}
	return h
}

// Current returns the active catalog.
func (h *Handle) Current() *Catalog {
	return h.p.Load()
}

// Replace atomically installs a new catalog and returns the previous one.
func (h *Handle) Replace(c *Catalog) *Catalog {
	return h.p.Swap(c)
}
