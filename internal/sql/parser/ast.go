package parser

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pos locates a node within the original source text.
type Pos struct {
	Line   int
	Column int
}

// Program is a parsed sequence of top-level statements.
type Program struct {
	Statements []Statement
}

// Statement represents a parsed top-level Quartz construct.
type Statement interface {
	stmt()
}

// TableRef names a table in a FROM clause or DML target, optionally aliased.
type TableRef struct {
	Name  string
	Alias string
	P     Pos
}

// LocalQuery is a named sub-query introduced by WITH.
type LocalQuery struct {
	Name  string
	Query RelAlg
	P     Pos
}

// QueryStmt models a query: optional named local sub-queries followed by the
// main relational tree.
type QueryStmt struct {
	Locals []LocalQuery
	Main   RelAlg
	P      Pos
}

func (*QueryStmt) stmt() {}

// Assignment captures one column assignment in a SET clause.
type Assignment struct {
	Column string
	Expr   Expression
	P      Pos
}

// UpdateStmt represents UPDATE with its optional clauses.
type UpdateStmt struct {
	Table       TableRef
	Assignments []Assignment
	Where       Expression
	GroupBy     []Expression
	Having      Expression
	OrderBy     []Expression
	P           Pos
}

func (*UpdateStmt) stmt() {}

// DeleteStmt represents DELETE. All marks the non-predicate full-table form;
// Where is nil in that case.
type DeleteStmt struct {
	Table   TableRef
	Where   Expression
	All     bool
	GroupBy []Expression
	Having  Expression
	OrderBy []Expression
	P       Pos
}

func (*DeleteStmt) stmt() {}

// CreateStmt represents CREATE TABLE name AS <query>.
type CreateStmt struct {
	Name  string
	Query *QueryStmt
	P     Pos
}

func (*CreateStmt) stmt() {}

// InsertStmt represents INSERT INTO. Exactly one of Values or Query is set.
type InsertStmt struct {
	Table   TableRef
	Values  []Expression
	Query   *QueryStmt
	OrderBy []Expression
	P       Pos
}

func (*InsertStmt) stmt() {}

// FuncBodyStmt is a single statement in a FUNCTION body: a plain expression,
// or a named assignment when Name is non-empty.
type FuncBodyStmt struct {
	Name string
	Expr Expression
}

// FunctionStmt declares a user-defined function.
type FunctionStmt struct {
	Name   string
	Params []string
	Body   []FuncBodyStmt
	P      Pos
}

func (*FunctionStmt) stmt() {}

// VerbatimStmt carries an opaque block of target code, passed through
// unchanged and never inspected.
type VerbatimStmt struct {
	Text string
	P    Pos
}

func (*VerbatimStmt) stmt() {}

// RelAlg is a node of the relational operator tree built from a query.
type RelAlg interface {
	relalg()
}

// Scan is the table-scan leaf.
type Scan struct {
	Table TableRef
}

func (*Scan) relalg() {}

// Filter restricts its child by one or more predicates.
type Filter struct {
	Preds []Expression
	Child RelAlg
}

func (*Filter) relalg() {}

// GroupBy groups its child by key expressions with optional HAVING predicates.
type GroupBy struct {
	Keys   []Expression
	Having []Expression
	Child  RelAlg
}

func (*GroupBy) relalg() {}

// Join combines two subtrees under zero or more condition expressions.
type Join struct {
	Left  RelAlg
	Right RelAlg
	Conds []Expression
}

func (*Join) relalg() {}

// Sort orders its child by the given key expressions.
type Sort struct {
	Keys  []Expression
	Child RelAlg
}

func (*Sort) relalg() {}

// Project is the projection root carrying the select items.
type Project struct {
	Items []Expression
	Child RelAlg
}

func (*Project) relalg() {}

// Expression represents a scalar Quartz expression.
type Expression interface {
	expr()
	Pos() Pos
}

// BinaryOp enumerates binary operators.
type BinaryOp string

const (
	BinaryAnd          BinaryOp = "AND"
	BinaryOr           BinaryOp = "OR"
	BinaryEqual        BinaryOp = "="
	BinaryNotEqual     BinaryOp = "<>"
	BinaryLess         BinaryOp = "<"
	BinaryLessEqual    BinaryOp = "<="
	BinaryGreater      BinaryOp = ">"
	BinaryGreaterEqual BinaryOp = ">="
	BinaryAdd          BinaryOp = "+"
	BinarySubtract     BinaryOp = "-"
	BinaryMultiply     BinaryOp = "*"
	BinaryDivide       BinaryOp = "/"
	BinaryPower        BinaryOp = "^"
)

// BinaryExpr combines two operands with a binary operator.
type BinaryExpr struct {
	Left  Expression
	Right Expression
	Op    BinaryOp
	P     Pos
}

func (*BinaryExpr) expr() {}

// Pos implements Expression.
func (e *BinaryExpr) Pos() Pos { return e.P }

// UnaryOp enumerates unary operators.
type UnaryOp string

const (
	UnaryNot    UnaryOp = "NOT"
	UnaryNegate UnaryOp = "-"
)

// UnaryExpr applies a unary operator to its operand.
type UnaryExpr struct {
	Op   UnaryOp
	Expr Expression
	P    Pos
}

func (*UnaryExpr) expr() {}

// Pos implements Expression.
func (e *UnaryExpr) Pos() Pos { return e.P }

// CallExpr models both function application f(a, b) and index application
// a[i]; Index distinguishes the bracket form.
type CallExpr struct {
	Fn    Expression
	Args  []Expression
	Index bool
	P     Pos
}

func (*CallExpr) expr() {}

// Pos implements Expression.
func (e *CallExpr) Pos() Pos { return e.P }

// FuncName returns the called function's name when the callee is a plain
// identifier, or "" otherwise.
func (e *CallExpr) FuncName() string {
	if ident, ok := e.Fn.(*Identifier); ok {
		return ident.Name
	}
	return ""
}

// WhenClause is one (condition, result) branch of a CASE expression.
type WhenClause struct {
	Cond   Expression
	Result Expression
}

// CaseExpr models CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpr struct {
	Operand Expression
	Whens   []WhenClause
	Else    Expression
	P       Pos
}

func (*CaseExpr) expr() {}

// Pos implements Expression.
func (e *CaseExpr) Pos() Pos { return e.P }

// NumberLit is an integer or decimal literal.
type NumberLit struct {
	Value decimal.Decimal
	Raw   string
	P     Pos
}

func (*NumberLit) expr() {}

// Pos implements Expression.
func (e *NumberLit) Pos() Pos { return e.P }

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
	P     Pos
}

func (*StringLit) expr() {}

// Pos implements Expression.
func (e *StringLit) Pos() Pos { return e.P }

// BoolLit is TRUE or FALSE.
type BoolLit struct {
	Value bool
	P     Pos
}

func (*BoolLit) expr() {}

// Pos implements Expression.
func (e *BoolLit) Pos() Pos { return e.P }

// DateLit is a DATE '...' literal.
type DateLit struct {
	Value time.Time
	Raw   string
	P     Pos
}

func (*DateLit) expr() {}

// Pos implements Expression.
func (e *DateLit) Pos() Pos { return e.P }

// TimestampLit is a TIMESTAMP '...' literal.
type TimestampLit struct {
	Value time.Time
	Raw   string
	P     Pos
}

func (*TimestampLit) expr() {}

// Pos implements Expression.
func (e *TimestampLit) Pos() Pos { return e.P }

// Identifier is a bare name.
type Identifier struct {
	Name string
	P    Pos
}

func (*Identifier) expr() {}

// Pos implements Expression.
func (e *Identifier) Pos() Pos { return e.P }

// Wildcard is the * select item.
type Wildcard struct {
	P Pos
}

func (*Wildcard) expr() {}

// Pos implements Expression.
func (e *Wildcard) Pos() Pos { return e.P }

// ColumnAccess is a qualified column reference table.column.
type ColumnAccess struct {
	Table  string
	Column string
	P      Pos
}

func (*ColumnAccess) expr() {}

// Pos implements Expression.
func (e *ColumnAccess) Pos() Pos { return e.P }

// RowIDExpr is the ROWID pseudo-variable naming the current row number.
type RowIDExpr struct {
	P Pos
}

func (*RowIDExpr) expr() {}

// Pos implements Expression.
func (e *RowIDExpr) Pos() Pos { return e.P }

// EachExpr wraps an expression for elementwise application over a column.
type EachExpr struct {
	Expr Expression
	P    Pos
}

func (*EachExpr) expr() {}

// Pos implements Expression.
func (e *EachExpr) Pos() Pos { return e.P }
