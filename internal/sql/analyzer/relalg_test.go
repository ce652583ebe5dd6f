package analyzer_test

import (
	"testing"

	"github.com/example/quartz-lang/compiler/internal/sql/analyzer"
	"github.com/example/quartz-lang/compiler/internal/sql/funcs"
	"github.com/example/quartz-lang/compiler/internal/sql/parser"
)

func checkSelect(t *testing.T, input string) []analyzer.Error {
	t.Helper()
	stmt, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	query, ok := stmt.(*parser.QueryStmt)
	if !ok {
		t.Fatalf("expected query statement, got %T", stmt)
	}
	return analyzer.CheckRelAlg(funcs.Builtins(), query.Main)
}

func TestFilterRequiresBoolean(t *testing.T) {
	errs := checkSelect(t, "SELECT a FROM t WHERE a + 1")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindTypeMismatch {
		t.Fatalf("expected one mismatch for numeric filter, got %v", errs)
	}
	if errs := checkSelect(t, "SELECT a FROM t WHERE flag"); len(errs) != 0 {
		t.Fatalf("expected unknown filter to pass, got %v", errs)
	}
}

func TestJoinConditionRequiresBoolean(t *testing.T) {
	errs := checkSelect(t, "SELECT a FROM t JOIN u ON 1")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindTypeMismatch {
		t.Fatalf("expected one mismatch for numeric join condition, got %v", errs)
	}
	if errs := checkSelect(t, "SELECT a FROM t JOIN u ON t.id = u.id"); len(errs) != 0 {
		t.Fatalf("expected equi-join to pass, got %v", errs)
	}
}

func TestSortKeyShape(t *testing.T) {
	errs := checkSelect(t, "SELECT a FROM t ORDER BY col1 + col2")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindIllegalExpr {
		t.Fatalf("expected one illegal sort key, got %v", errs)
	}
	if errs[0].Fragment != "col1 + col2" {
		t.Fatalf("expected the formatted key in the message, got %q", errs[0].Fragment)
	}
	if errs := checkSelect(t, "SELECT a FROM t ORDER BY t.col1, col2"); len(errs) != 0 {
		t.Fatalf("expected plain column keys to pass, got %v", errs)
	}
}

func TestHavingIsValidatedTwice(t *testing.T) {
	errs := checkSelect(t, "SELECT a FROM t GROUP BY g HAVING NOT 1")
	if len(errs) != 2 {
		t.Fatalf("expected the having error reported twice, got %v", errs)
	}
	errs = checkSelect(t, "SELECT a FROM t GROUP BY g HAVING 5")
	if len(errs) != 1 {
		t.Fatalf("expected a single boolean-constraint error, got %v", errs)
	}
	if errs := checkSelect(t, "SELECT a FROM t GROUP BY g HAVING flag"); len(errs) != 0 {
		t.Fatalf("expected unknown having to pass, got %v", errs)
	}
}

func TestParentErrorsPrecedeChildErrors(t *testing.T) {
	errs := checkSelect(t, "SELECT 1 AND 2 FROM t WHERE 'x'")
	if len(errs) != 3 {
		t.Fatalf("expected three mismatches, got %v", errs)
	}
	// Two projection errors first, filter error last.
	if errs[2].Pos.Line != 1 {
		t.Fatalf("unexpected position %v", errs[2].Pos)
	}
	if errs[0].Pos.Column >= errs[2].Pos.Column {
		t.Fatalf("expected projection errors before filter errors, got %v", errs)
	}
}

func TestDuplicateAliasIsReportedOnce(t *testing.T) {
	errs := checkSelect(t, "SELECT a FROM t AS x, t AS x")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindDuplicateTable {
		t.Fatalf("expected exactly one duplicate-table error, got %v", errs)
	}
	if errs[0].First != "t as x" || errs[0].Second != "t as x" {
		t.Fatalf("expected both offending bindings named, got %v", errs[0])
	}
}

func TestDistinctAliasesDisambiguate(t *testing.T) {
	if errs := checkSelect(t, "SELECT a.c, b.c FROM t AS a, t AS b"); len(errs) != 0 {
		t.Fatalf("expected distinct aliases to pass, got %v", errs)
	}
}

func TestDuplicateRawTable(t *testing.T) {
	errs := checkSelect(t, "SELECT a FROM t, t")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindDuplicateTable {
		t.Fatalf("expected one duplicate-table error, got %v", errs)
	}
	if errs[0].First != "t" || errs[0].Second != "t" {
		t.Fatalf("expected raw names in the message, got %v", errs[0])
	}
}

func TestAmbiguousColumnAccess(t *testing.T) {
	errs := checkSelect(t, "SELECT t.c FROM t, u AS t")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindAmbiguousColumn {
		t.Fatalf("expected one ambiguous access, got %v", errs)
	}
	if errs[0].Table != "t" || errs[0].Column != "c" {
		t.Fatalf("expected t.c flagged, got %v", errs[0])
	}
}

func TestUnresolvedCorrelation(t *testing.T) {
	errs := checkSelect(t, "SELECT x.c FROM t")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindUnresolvedCorrelation {
		t.Fatalf("expected one unresolved access, got %v", errs)
	}
	// An aliased table is only addressable through its alias.
	errs = checkSelect(t, "SELECT t.c FROM t AS a")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindUnresolvedCorrelation {
		t.Fatalf("expected the raw name to be shadowed by the alias, got %v", errs)
	}
	if errs := checkSelect(t, "SELECT a.c FROM t AS a"); len(errs) != 0 {
		t.Fatalf("expected alias access to resolve, got %v", errs)
	}
}

func TestRepeatedAccessReportedOnce(t *testing.T) {
	errs := checkSelect(t, "SELECT x.c, x.c FROM t WHERE x.c = 1")
	if len(errs) != 1 {
		t.Fatalf("expected one error per distinct access, got %v", errs)
	}
}

func TestScopeErrorsFollowNodeErrors(t *testing.T) {
	errs := checkSelect(t, "SELECT x.c FROM t WHERE 1")
	if len(errs) != 2 {
		t.Fatalf("expected a mismatch and an unresolved access, got %v", errs)
	}
	if errs[0].Kind != analyzer.KindTypeMismatch || errs[1].Kind != analyzer.KindUnresolvedCorrelation {
		t.Fatalf("expected scope errors last, got %v", errs)
	}
}
