package parser_test

import (
	"testing"

	"github.com/example/quartz-lang/compiler/internal/sql/parser"
)

func mustParse(t *testing.T, input string) parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return stmt
}

func TestParseSelectTreeShape(t *testing.T) {
	stmt := mustParse(t, "SELECT a, b FROM t AS x JOIN u ON x.id = u.id WHERE a > 1 GROUP BY b HAVING b = 2 ORDER BY a")
	query, ok := stmt.(*parser.QueryStmt)
	if !ok {
		t.Fatalf("expected QueryStmt, got %T", stmt)
	}
	project, ok := query.Main.(*parser.Project)
	if !ok {
		t.Fatalf("expected Project root, got %T", query.Main)
	}
	if len(project.Items) != 2 {
		t.Fatalf("expected 2 select items, got %d", len(project.Items))
	}
	sort, ok := project.Child.(*parser.Sort)
	if !ok {
		t.Fatalf("expected Sort under Project, got %T", project.Child)
	}
	group, ok := sort.Child.(*parser.GroupBy)
	if !ok {
		t.Fatalf("expected GroupBy under Sort, got %T", sort.Child)
	}
	if len(group.Having) != 1 {
		t.Fatalf("expected one HAVING expression, got %d", len(group.Having))
	}
	filter, ok := group.Child.(*parser.Filter)
	if !ok {
		t.Fatalf("expected Filter under GroupBy, got %T", group.Child)
	}
	join, ok := filter.Child.(*parser.Join)
	if !ok {
		t.Fatalf("expected Join under Filter, got %T", filter.Child)
	}
	scan, ok := join.Left.(*parser.Scan)
	if !ok {
		t.Fatalf("expected Scan on join left, got %T", join.Left)
	}
	if scan.Table.Name != "t" || scan.Table.Alias != "x" {
		t.Fatalf("unexpected left table %+v", scan.Table)
	}
	if len(join.Conds) != 1 {
		t.Fatalf("expected one join condition, got %d", len(join.Conds))
	}
}

func TestParseWithLocals(t *testing.T) {
	stmt := mustParse(t, "WITH recent AS (SELECT a FROM t), top AS (SELECT b FROM u) SELECT c FROM recent")
	query := stmt.(*parser.QueryStmt)
	if len(query.Locals) != 2 {
		t.Fatalf("expected 2 local queries, got %d", len(query.Locals))
	}
	if query.Locals[0].Name != "recent" || query.Locals[1].Name != "top" {
		t.Fatalf("unexpected local names %q, %q", query.Locals[0].Name, query.Locals[1].Name)
	}
}

func TestParseUpdate(t *testing.T) {
	stmt := mustParse(t, "UPDATE people SET age = age + 1, name = 'x' WHERE age > 10 ORDER BY name")
	update := stmt.(*parser.UpdateStmt)
	if update.Table.Name != "people" {
		t.Fatalf("unexpected table %+v", update.Table)
	}
	if len(update.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(update.Assignments))
	}
	if update.Where == nil || len(update.OrderBy) != 1 {
		t.Fatalf("expected WHERE and one ORDER BY key")
	}
}

func TestParseDeleteAll(t *testing.T) {
	stmt := mustParse(t, "DELETE FROM people")
	deleteStmt := stmt.(*parser.DeleteStmt)
	if !deleteStmt.All || deleteStmt.Where != nil {
		t.Fatalf("expected full-table delete, got %+v", deleteStmt)
	}
	stmt = mustParse(t, "DELETE FROM people WHERE age > 90")
	deleteStmt = stmt.(*parser.DeleteStmt)
	if deleteStmt.All || deleteStmt.Where == nil {
		t.Fatalf("expected predicate delete, got %+v", deleteStmt)
	}
}

func TestParseInsertForms(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO people VALUES (1, 'ada', TRUE)")
	insert := stmt.(*parser.InsertStmt)
	if len(insert.Values) != 3 || insert.Query != nil {
		t.Fatalf("expected literal insert, got %+v", insert)
	}
	stmt = mustParse(t, "INSERT INTO people SELECT a FROM t")
	insert = stmt.(*parser.InsertStmt)
	if insert.Values != nil || insert.Query == nil {
		t.Fatalf("expected query insert, got %+v", insert)
	}
}

func TestParseFunction(t *testing.T) {
	stmt := mustParse(t, "FUNCTION scale(v, factor) BEGIN doubled := v * 2; doubled * factor END")
	fn := stmt.(*parser.FunctionStmt)
	if fn.Name != "scale" || len(fn.Params) != 2 {
		t.Fatalf("unexpected declaration %+v", fn)
	}
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(fn.Body))
	}
	if fn.Body[0].Name != "doubled" {
		t.Fatalf("expected first statement to assign doubled, got %q", fn.Body[0].Name)
	}
	if fn.Body[1].Name != "" {
		t.Fatalf("expected second statement to be a plain expression")
	}
}

func TestParseVerbatim(t *testing.T) {
	stmt := mustParse(t, "VERBATIM 'raw target code'")
	verbatim := stmt.(*parser.VerbatimStmt)
	if verbatim.Text != "raw target code" {
		t.Fatalf("unexpected text %q", verbatim.Text)
	}
}

func TestParseCreate(t *testing.T) {
	stmt := mustParse(t, "CREATE TABLE summary AS SELECT a FROM t")
	create := stmt.(*parser.CreateStmt)
	if create.Name != "summary" || create.Query == nil {
		t.Fatalf("unexpected create %+v", create)
	}
}

func TestParseProgramSequence(t *testing.T) {
	program, err := parser.ParseProgram("SELECT a FROM t; FUNCTION f(x) BEGIN x END; VERBATIM 'end'")
	if err != nil {
		t.Fatalf("parse program: %v", err)
	}
	if len(program.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(program.Statements))
	}
}

func TestExpressionPrecedence(t *testing.T) {
	expr, err := parser.ParseExpression("a + b * c ^ 2 = d AND NOT e")
	if err != nil {
		t.Fatalf("parse expression: %v", err)
	}
	if got := parser.FormatExpression(expr); got != "a + b * c ^ 2 = d AND NOT e" {
		t.Fatalf("unexpected rendering %q", got)
	}
	binary, ok := expr.(*parser.BinaryExpr)
	if !ok || binary.Op != parser.BinaryAnd {
		t.Fatalf("expected AND at the root, got %T", expr)
	}
}

func TestPowerIsRightAssociative(t *testing.T) {
	expr, err := parser.ParseExpression("2 ^ 3 ^ 4")
	if err != nil {
		t.Fatalf("parse expression: %v", err)
	}
	outer := expr.(*parser.BinaryExpr)
	if _, ok := outer.Right.(*parser.BinaryExpr); !ok {
		t.Fatalf("expected right-nested power, got left-nested")
	}
}

func TestParseCaseExpression(t *testing.T) {
	expr, err := parser.ParseExpression("CASE kind WHEN 1 THEN 'a' WHEN 2 THEN 'b' ELSE 'c' END")
	if err != nil {
		t.Fatalf("parse case: %v", err)
	}
	caseExpr := expr.(*parser.CaseExpr)
	if caseExpr.Operand == nil || len(caseExpr.Whens) != 2 || caseExpr.Else == nil {
		t.Fatalf("unexpected case shape %+v", caseExpr)
	}
}

func TestParseIndexCall(t *testing.T) {
	expr, err := parser.ParseExpression("prices[i + 1]")
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	call := expr.(*parser.CallExpr)
	if !call.Index || call.FuncName() != "prices" || len(call.Args) != 1 {
		t.Fatalf("unexpected call %+v", call)
	}
}

func TestParseDateLiterals(t *testing.T) {
	if _, err := parser.ParseExpression("DATE '2024-02-30'"); err == nil {
		t.Fatalf("expected error for impossible date")
	}
	expr, err := parser.ParseExpression("TIMESTAMP '2024-01-02 03:04:05'")
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	if _, ok := expr.(*parser.TimestampLit); !ok {
		t.Fatalf("expected timestamp literal, got %T", expr)
	}
}

func TestFormatIllegalFragment(t *testing.T) {
	expr, err := parser.ParseExpression("t.col1 + col2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := parser.FormatExpression(expr); got != "t.col1 + col2" {
		t.Fatalf("unexpected rendering %q", got)
	}
}
