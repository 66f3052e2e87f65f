// Package catalog holds the immutable, deploy-time badge registry. The
// catalog is built once at startup, shared read-only by every evaluation in
// the process, and exposes no mutation operations. Insertion order is stable
// and doubles as the presentation order of evaluation results.
package catalog

import (
	"errors"
	"fmt"

	"github.com/menucraft/go-badge-backend/internal/domain"
)

// ErrNotFound indicates an unknown badge id. Unknown ids are a programming
// error (the catalog is fixed at deploy time), not an expected runtime case.
var ErrNotFound = errors.New("badge not found")

// Catalog is an ordered, immutable set of badge definitions.
//
// The zero Catalog is empty and usable; construct real catalogs with New.
// All methods are safe for unbounded concurrent use because the underlying
// data never changes after construction.
type Catalog struct {
	badges []domain.Badge
	byID   map[string]int
}

// New builds a catalog from badge definitions, preserving argument order.
// It rejects duplicate ids, blank ids, and non-positive point values so a
// malformed deploy fails at startup rather than during evaluation.
func New(badges ...domain.Badge) (*Catalog, error) {
	c := &Catalog{
		badges: make([]domain.Badge, 0, len(badges)),
		byID:   make(map[string]int, len(badges)),
	}
	for _, b := range badges {
		if b.ID == "" {
			return nil, fmt.Errorf("badge %q: empty id", b.Name)
		}
		if b.Points <= 0 {
			return nil, fmt.Errorf("badge %q: points must be positive", b.ID)
		}
		if _, dup := c.byID[b.ID]; dup {
			return nil, fmt.Errorf("badge %q: duplicate id", b.ID)
		}
		c.byID[b.ID] = len(c.badges)
		c.badges = append(c.badges, b)
	}
	return c, nil
}

// MustNew is New for deploy-time catalogs where a malformed definition is a
// startup bug.
func MustNew(badges ...domain.Badge) *Catalog {
	c, err := New(badges...)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns the badges in insertion order. The returned slice is a copy;
// callers may not mutate catalog state through it.
func (c *Catalog) List() []domain.Badge {
	out := make([]domain.Badge, len(c.badges))
	copy(out, c.badges)
	return out
}

// Get returns the badge with the given id or ErrNotFound.
func (c *Catalog) Get(id string) (domain.Badge, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Badge{}, ErrNotFound
	}
	return c.badges[i], nil
}

// Len returns the number of badges in the catalog.
func (c *Catalog) Len() int { return len(c.badges) }
