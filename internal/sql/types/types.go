package types

import "strings"

// Tag identifies the logical type of an expression in the target runtime's
// lattice. Most column values only acquire a concrete type at runtime, so
// Unknown is pervasive and deliberately compatible in both directions.
type Tag int

const (
	Unknown Tag = iota
	Numeric
	Boolean
	String
	// Unit is an internal placeholder used when a structurally
	// guaranteed-nonempty list is unexpectedly empty. No expectation
	// admits it and it never appears in well-formed trees.
	Unit
)

// String renders the tag the way diagnostics spell types.
func (t Tag) String() string {
	switch t {
	case Numeric:
		return "NUMERIC"
	case Boolean:
		return "BOOLEAN"
	case String:
		return "STRING"
	case Unit:
		return "UNIT"
	default:
		return "UNKNOWN"
	}
}

// Set is an expected-type set used when checking an operand.
type Set []Tag

// Named expectations used throughout the checker.
var (
	Bool    = Set{Boolean}
	Num     = Set{Numeric}
	NumBool = Set{Numeric, Boolean}
)

// Exact builds a singleton expectation for the given tag.
func Exact(tag Tag) Set {
	return Set{tag}
}

// Matches reports whether actual satisfies the expectation: either actual is
// a member, or actual is Unknown, or the expectation itself admits Unknown.
func (s Set) Matches(actual Tag) bool {
	if actual == Unknown {
		return true
	}
	for _, tag := range s {
		if tag == actual || tag == Unknown {
			return true
		}
	}
	return false
}

// String renders the expectation for diagnostics.
func (s Set) String() string {
	if len(s) == 0 {
		return "NONE"
	}
	parts := make([]string, len(s))
	for i, tag := range s {
		parts[i] = tag.String()
	}
	return strings.Join(parts, " or ")
}
