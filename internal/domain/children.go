package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Children is a keyed multi-valued attachment collection. Every entry lives
// under a type tag; insertion order is preserved within a tag and tag
// namespaces are fully independent of each other.
type Children[T any] struct {
	byTag map[string][]T
}

// Add appends value under the given type tag. Duplicates are allowed;
// multiplicity is meaningful to callers.
func (c *Children[T]) Add(tag string, value T) {
	if c.byTag == nil {
		c.byTag = make(map[string][]T)
	}
	c.byTag[tag] = append(c.byTag[tag], value)
}

// Get returns the ordered entries under tag. The returned slice is the
// collection's own backing storage; callers must not mutate it.
func (c *Children[T]) Get(tag string) []T {
	if c.byTag == nil {
		return nil
	}
	return c.byTag[tag]
}

// Remove deletes the first entry under tag for which match returns true.
// It returns ErrNotFound when the tag is absent or nothing matches; other
// tags are never touched.
func (c *Children[T]) Remove(tag string, match func(T) bool) error {
	entries, ok := c.byTag[tag]
	if !ok {
		return fmt.Errorf("%w: no entries under tag %q", ErrNotFound, tag)
	}
	for i, e := range entries {
		if match(e) {
			c.byTag[tag] = append(entries[:i:i], entries[i+1:]...)
			if len(c.byTag[tag]) == 0 {
				delete(c.byTag, tag)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: no matching entry under tag %q", ErrNotFound, tag)
}

// Tags returns the tag set in sorted order.
func (c *Children[T]) Tags() []string {
	tags := make([]string, 0, len(c.byTag))
	for tag := range c.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len returns the total number of entries across all tags.
func (c *Children[T]) Len() int {
	n := 0
	for _, entries := range c.byTag {
		n += len(entries)
	}
	return n
}

// Each visits every (tag, value) pair, tags in sorted order and values in
// insertion order.
func (c *Children[T]) Each(fn func(tag string, value T)) {
	for _, tag := range c.Tags() {
		for _, v := range c.byTag[tag] {
			fn(tag, v)
		}
	}
}

// EqualFunc reports whether two collections hold the same tags with the
// same ordered members, using eq to compare individual entries.
func (c *Children[T]) EqualFunc(other *Children[T], eq func(a, b T) bool) bool {
	if len(c.byTag) != len(other.byTag) {
		return false
	}
	for tag, entries := range c.byTag {
		theirs, ok := other.byTag[tag]
		if !ok || len(theirs) != len(entries) {
			return false
		}
		for i := range entries {
			if !eq(entries[i], theirs[i]) {
				return false
			}
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Child entry types
// ---------------------------------------------------------------------------

// Charge is a fee or commission attached to a transaction.
type Charge struct {
	Amount       decimal.Decimal
	Currency     string
	Active       bool
	NetAffecting bool
}

// Code is a tagged classification value (e.g. a strategy or desk code).
type Code struct {
	Value  string
	Active bool
}

// Comment is free-form annotation text.
type Comment struct {
	Text   string
	Active bool
}

// Party associates an external party identifier under a role tag.
type Party struct {
	PartyID string
	Active  bool
}

// Reference carries an external system's identifier for the transaction.
type Reference struct {
	Value  string
	Active bool
}
