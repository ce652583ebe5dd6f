package analyzer_test

import (
	"reflect"
	"testing"

	"github.com/example/quartz-lang/compiler/internal/sql/analyzer"
	"github.com/example/quartz-lang/compiler/internal/sql/parser"
)

func analyze(t *testing.T, input string) []analyzer.Error {
	t.Helper()
	program, err := parser.ParseProgram(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return analyzer.AnalyzeProgram(program)
}

func TestFunctionsAreRegisteredBeforeChecking(t *testing.T) {
	// The call precedes the declaration; arity is still enforced.
	errs := analyze(t, `
		SELECT helper(1, 2, 3) FROM t;
		FUNCTION helper(a, b) BEGIN a + b END`)
	if len(errs) != 1 || errs[0].Kind != analyzer.KindBadCall || errs[0].Func != "helper" {
		t.Fatalf("expected one bad-call for the forward reference, got %v", errs)
	}
	errs = analyze(t, `
		SELECT helper(1, 2) FROM t;
		FUNCTION helper(a, b) BEGIN a + b END`)
	if len(errs) != 0 {
		t.Fatalf("expected matching arity to pass, got %v", errs)
	}
}

func TestFunctionBodyChecks(t *testing.T) {
	errs := analyze(t, "FUNCTION f(a) BEGIN b := NOT 1; a + t.c END")
	if len(errs) != 2 {
		t.Fatalf("expected a mismatch and an illegal access, got %v", errs)
	}
	if errs[0].Kind != analyzer.KindTypeMismatch || errs[1].Kind != analyzer.KindIllegalExpr {
		t.Fatalf("unexpected kinds %v", errs)
	}
	if errs[1].Fragment != "t.c" {
		t.Fatalf("expected the qualified access flagged, got %q", errs[1].Fragment)
	}
}

func TestInsertValuesProhibitConstructs(t *testing.T) {
	errs := analyze(t, "INSERT INTO t VALUES (1 + 2, *, ROWID)")
	if len(errs) != 2 {
		t.Fatalf("expected two illegal values, got %v", errs)
	}
	for i, want := range []string{"*", "ROWID"} {
		if errs[i].Kind != analyzer.KindIllegalExpr || errs[i].Fragment != want {
			t.Fatalf("error %d: expected fragment %q, got %v", i, want, errs[i])
		}
	}
	if errs := analyze(t, "INSERT INTO t VALUES (1, 'a', x)"); len(errs) != 0 {
		t.Fatalf("expected plain values to pass, got %v", errs)
	}
}

func TestInsertQueryDelegates(t *testing.T) {
	errs := analyze(t, "INSERT INTO t SELECT a FROM u WHERE 1")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindTypeMismatch {
		t.Fatalf("expected the nested query's filter flagged, got %v", errs)
	}
	// The wildcard and qualified accesses stay legal inside a query source.
	if errs := analyze(t, "INSERT INTO t SELECT * FROM u WHERE u.ok"); len(errs) != 0 {
		t.Fatalf("expected query-sourced insert to pass, got %v", errs)
	}
}

func TestUpdateChecks(t *testing.T) {
	if errs := analyze(t, "UPDATE t AS z SET a = z.b + 1 WHERE z.c = 1"); len(errs) != 0 {
		t.Fatalf("expected aliased update to pass, got %v", errs)
	}
	errs := analyze(t, "UPDATE t SET a = 1 WHERE 5")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindTypeMismatch {
		t.Fatalf("expected numeric where flagged, got %v", errs)
	}
	errs = analyze(t, "UPDATE t SET a = u.b")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindUnresolvedCorrelation {
		t.Fatalf("expected foreign access flagged, got %v", errs)
	}
	errs = analyze(t, "UPDATE t SET a = 1 ORDER BY a + 1")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindIllegalExpr {
		t.Fatalf("expected illegal sort key, got %v", errs)
	}
}

func TestDeleteChecks(t *testing.T) {
	if errs := analyze(t, "DELETE FROM t"); len(errs) != 0 {
		t.Fatalf("expected unconditional delete to pass, got %v", errs)
	}
	errs := analyze(t, "DELETE FROM t WHERE 'x'")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindTypeMismatch {
		t.Fatalf("expected string where flagged, got %v", errs)
	}
	src := "DELETE FROM t WHERE t.old = 1 GROUP BY t.kind HAVING TRUE"
	if errs := analyze(t, src); len(errs) != 0 {
		t.Fatalf("expected grouped delete to pass, got %v", errs)
	}
}

func TestCreateDelegatesToQuery(t *testing.T) {
	errs := analyze(t, "CREATE TABLE s AS SELECT a FROM t WHERE 1")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindTypeMismatch {
		t.Fatalf("expected the source query checked, got %v", errs)
	}
}

func TestVerbatimIsOpaque(t *testing.T) {
	if errs := analyze(t, "VERBATIM 'PRAGMA anything'"); len(errs) != 0 {
		t.Fatalf("expected verbatim text to pass unchecked, got %v", errs)
	}
}

func TestLocalQueriesCheckedBeforeMain(t *testing.T) {
	errs := analyze(t, "WITH m AS (SELECT a FROM t WHERE 1) SELECT b FROM u WHERE 'x'")
	if len(errs) != 2 {
		t.Fatalf("expected both filters flagged, got %v", errs)
	}
	if errs[0].Pos.Column >= errs[1].Pos.Column {
		t.Fatalf("expected the local's error first, got %v", errs)
	}
}

func TestLocalScopesDoNotLeak(t *testing.T) {
	errs := analyze(t, "WITH m AS (SELECT a FROM t) SELECT t.c FROM u")
	if len(errs) != 1 || errs[0].Kind != analyzer.KindUnresolvedCorrelation {
		t.Fatalf("expected the main query scoped independently, got %v", errs)
	}
}

func TestStatementErrorsKeepProgramOrder(t *testing.T) {
	errs := analyze(t, `
		SELECT a FROM t WHERE 1;
		DELETE FROM u WHERE 'x'`)
	if len(errs) != 2 {
		t.Fatalf("expected one error per statement, got %v", errs)
	}
	if errs[0].Pos.Line >= errs[1].Pos.Line {
		t.Fatalf("expected statement order preserved, got %v", errs)
	}
}

func TestAnalysisIsDeterministic(t *testing.T) {
	src := `
		SELECT x.c, 1 AND 2 FROM t AS a, t AS a ORDER BY c1 + c2;
		UPDATE t SET a = u.b WHERE 5;
		FUNCTION f(a) BEGIN * END`
	first := analyze(t, src)
	second := analyze(t, src)
	if len(first) == 0 {
		t.Fatalf("expected diagnostics")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical runs, got %v vs %v", first, second)
	}
}
