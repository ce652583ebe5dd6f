package analyzer

import (
	"fmt"

	"github.com/example/quartz-lang/compiler/internal/sql/parser"
	"github.com/example/quartz-lang/compiler/internal/sql/types"
)

// Kind identifies a class of semantic diagnostic.
type Kind int

const (
	KindTypeMismatch Kind = iota
	KindBadCall
	KindIllegalExpr
	KindAmbiguousColumn
	KindUnresolvedCorrelation
	KindDuplicateTable
)

// Error is one semantic diagnostic. Violations are values, not faults:
// checks accumulate them and never abort the traversal.
type Error struct {
	Kind Kind
	Pos  parser.Pos

	// KindTypeMismatch
	Expected types.Set
	Found    types.Tag

	// KindBadCall
	Func string

	// KindIllegalExpr
	Fragment string

	// KindAmbiguousColumn, KindUnresolvedCorrelation
	Table  string
	Column string

	// KindDuplicateTable: the first two colliding bindings.
	First     string
	FirstPos  parser.Pos
	Second    string
	SecondPos parser.Pos
}

// Error renders the diagnostic as a human-readable message.
func (e Error) Error() string {
	switch e.Kind {
	case KindTypeMismatch:
		return fmt.Sprintf("analyzer: expected %s but found %s", e.Expected, e.Found)
	case KindBadCall:
		return fmt.Sprintf("analyzer: no signature of function %s accepts this call", e.Func)
	case KindIllegalExpr:
		return fmt.Sprintf("analyzer: expression %s is not allowed here", e.Fragment)
	case KindAmbiguousColumn:
		return fmt.Sprintf("analyzer: ambiguous column access %s.%s", e.Table, e.Column)
	case KindUnresolvedCorrelation:
		return fmt.Sprintf("analyzer: unknown correlation name in %s.%s", e.Table, e.Column)
	case KindDuplicateTable:
		return fmt.Sprintf("analyzer: duplicate table name %s and %s", e.First, e.Second)
	default:
		return "analyzer: unknown diagnostic"
	}
}

func typeMismatch(expected types.Set, found types.Tag, pos parser.Pos) Error {
	return Error{Kind: KindTypeMismatch, Expected: expected, Found: found, Pos: pos}
}

func badCall(name string, pos parser.Pos) Error {
	return Error{Kind: KindBadCall, Func: name, Pos: pos}
}

func illegalExpr(fragment string, pos parser.Pos) Error {
	return Error{Kind: KindIllegalExpr, Fragment: fragment, Pos: pos}
}

func ambiguousColumn(table, column string, pos parser.Pos) Error {
	return Error{Kind: KindAmbiguousColumn, Table: table, Column: column, Pos: pos}
}

func unresolvedCorrelation(table, column string, pos parser.Pos) Error {
	return Error{Kind: KindUnresolvedCorrelation, Table: table, Column: column, Pos: pos}
}

func duplicateTable(first, second parser.TableRef) Error {
	return Error{
		Kind:      KindDuplicateTable,
		Pos:       first.P,
		First:     describeBinding(first),
		FirstPos:  first.P,
		Second:    describeBinding(second),
		SecondPos: second.P,
	}
}

func describeBinding(ref parser.TableRef) string {
	if ref.Alias != "" {
		return ref.Name + " as " + ref.Alias
	}
	return ref.Name
}
