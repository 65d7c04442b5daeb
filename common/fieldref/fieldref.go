// Package fieldref implements dotted field paths used as update targets,
// e.g. "a.b.2.c", including the positional "$" segment.
package fieldref

import (
	"fmt"
	"strings"
)

// PositionalPart is the path segment standing in for "the array index that
// matched the surrounding query". It may occur at most once per path and is
// rebound to a concrete index once per prepare cycle.
const PositionalPart = "$"

// FieldRef is a parsed dotted field name. The zero value is an empty path;
// call Parse to populate it.
type FieldRef struct {
	parts []string
}

// Parse splits a dotted field name into its parts. Parsing an empty string
// yields a FieldRef with zero parts.
func (f *FieldRef) Parse(dotted string) {
	if dotted == "" {
		f.parts = nil
		return
	}
	f.parts = strings.Split(dotted, ".")
}

// NumParts returns the number of path segments.
func (f *FieldRef) NumParts() int {
	return len(f.parts)
}

// Part returns the i'th path segment.
func (f *FieldRef) Part(i int) string {
	return f.parts[i]
}

// SetPart replaces the i'th path segment. Used to bind the positional "$"
// part to the concrete matched index.
func (f *FieldRef) SetPart(i int, part string) {
	f.parts[i] = part
}

// DottedField reassembles the path, reflecting any rebound parts.
func (f *FieldRef) DottedField() string {
	return strings.Join(f.parts, ".")
}

// IsUpdatable checks that a field ref can serve as an update target: it must
// be non-empty and contain no empty segments.
func IsUpdatable(ref *FieldRef) error {
	if ref.NumParts() == 0 {
		return fmt.Errorf("cannot update an empty field name")
	}
	for i := 0; i < ref.NumParts(); i++ {
		if ref.Part(i) == "" {
			return fmt.Errorf("cannot update field with empty segment in '%v'", ref.DottedField())
		}
	}
	return nil
}

// IsPositional reports whether the ref contains positional "$" segments,
// returning the index of the first one and the total count.
func IsPositional(ref *FieldRef) (pos int, count int, found bool) {
	for i := 0; i < ref.NumParts(); i++ {
		if ref.Part(i) == PositionalPart {
			if count == 0 {
				pos = i
			}
			count++
		}
	}
	return pos, count, count > 0
}
