package analyzer

import (
	"github.com/example/quartz-lang/compiler/internal/sql/funcs"
	"github.com/example/quartz-lang/compiler/internal/sql/parser"
	"github.com/example/quartz-lang/compiler/internal/sql/types"
)

// checker threads the read-only function environment through one pass.
type checker struct {
	env *funcs.Env
}

// CheckExpr infers the expression's type tag and collects every violation in
// traversal order. An ill-typed operand is absorbed as Unknown so one root
// cause never cascades into dependent diagnostics.
func CheckExpr(env *funcs.Env, e parser.Expression) (types.Tag, []Error) {
	c := &checker{env: env}
	return c.checkExpr(e)
}

func (c *checker) checkExpr(e parser.Expression) (types.Tag, []Error) {
	switch node := e.(type) {
	case *parser.BinaryExpr:
		return c.checkBinary(node)
	case *parser.UnaryExpr:
		switch node.Op {
		case parser.UnaryNot:
			return types.Boolean, c.checkOperand(node.Expr, types.Bool)
		default:
			return types.Numeric, c.checkOperand(node.Expr, types.Num)
		}
	case *parser.CallExpr:
		return c.checkCall(node)
	case *parser.CaseExpr:
		return c.checkCase(node)
	case *parser.EachExpr:
		return c.checkExpr(node.Expr)
	case *parser.NumberLit, *parser.DateLit, *parser.TimestampLit, *parser.RowIDExpr:
		return types.Numeric, nil
	case *parser.StringLit:
		return types.String, nil
	case *parser.BoolLit:
		return types.Boolean, nil
	default:
		// Identifiers, wildcards and column accesses carry no static type;
		// their legality is a scoping concern, not a typing one.
		return types.Unknown, nil
	}
}

// checkOperand checks e and requires its inferred tag to satisfy want.
func (c *checker) checkOperand(e parser.Expression, want types.Set) []Error {
	tag, errs := c.checkExpr(e)
	if !want.Matches(tag) {
		errs = append(errs, typeMismatch(want, tag, e.Pos()))
	}
	return errs
}

func (c *checker) checkBinary(node *parser.BinaryExpr) (types.Tag, []Error) {
	switch node.Op {
	case parser.BinaryAnd, parser.BinaryOr:
		errs := c.checkOperand(node.Left, types.Bool)
		errs = append(errs, c.checkOperand(node.Right, types.Bool)...)
		return types.Boolean, errs
	case parser.BinaryLess, parser.BinaryLessEqual, parser.BinaryGreater, parser.BinaryGreaterEqual:
		errs := c.checkOperand(node.Left, types.Num)
		errs = append(errs, c.checkOperand(node.Right, types.Num)...)
		return types.Boolean, errs
	case parser.BinaryEqual, parser.BinaryNotEqual:
		// The left operand fixes the expectation for the right one.
		left, errs := c.checkExpr(node.Left)
		errs = append(errs, c.checkOperand(node.Right, types.Exact(left))...)
		return types.Boolean, errs
	default:
		// Arithmetic admits booleans for the boolean-as-0/1 idiom.
		errs := c.checkOperand(node.Left, types.NumBool)
		errs = append(errs, c.checkOperand(node.Right, types.NumBool)...)
		return types.Numeric, errs
	}
}

func (c *checker) checkCall(node *parser.CallExpr) (types.Tag, []Error) {
	name := node.FuncName()
	var sig funcs.Signature
	ok := false
	if name != "" && !node.Index {
		sig, ok = c.env.Lookup(name)
	}
	if !ok {
		// Unresolvable name or non-name callee, e.g. indexing into an
		// opaque value. Absence of signature information is not an error;
		// index arguments are never validated.
		_, errs := c.checkExpr(node.Fn)
		return types.Unknown, errs
	}
	tags := make([]types.Tag, len(node.Args))
	var errs []Error
	for i, arg := range node.Args {
		tag, es := c.checkExpr(arg)
		tags[i] = tag
		errs = append(errs, es...)
	}
	result, ok := sig.Result(tags)
	if !ok {
		errs = append(errs, badCall(name, node.P))
		return types.Unknown, errs
	}
	return result, errs
}

func (c *checker) checkCase(node *parser.CaseExpr) (types.Tag, []Error) {
	var errs []Error
	condWant := types.Bool
	if node.Operand != nil {
		operand, es := c.checkExpr(node.Operand)
		errs = append(errs, es...)
		condWant = types.Exact(operand)
	}
	if len(node.Whens) == 0 {
		// The parser guarantees at least one branch; guard anyway.
		errs = append(errs, typeMismatch(types.Set{}, types.Unit, node.P))
		return types.Unknown, errs
	}
	first := node.Whens[0]
	errs = append(errs, c.checkOperand(first.Cond, condWant)...)
	result, es := c.checkExpr(first.Result)
	errs = append(errs, es...)
	want := types.Exact(result)
	for _, when := range node.Whens[1:] {
		errs = append(errs, c.checkOperand(when.Cond, condWant)...)
		errs = append(errs, c.checkOperand(when.Result, want)...)
	}
	if node.Else != nil {
		errs = append(errs, c.checkOperand(node.Else, want)...)
	}
	return result, errs
}

// CheckProhibited reports query-only constructs. Wildcards, qualified column
// accesses and the row identifier only mean something inside a query's
// table-scoped evaluation context; everywhere else each occurrence is
// illegal. Children are scanned even under an illegal node.
func CheckProhibited(e parser.Expression) []Error {
	var errs []Error
	switch e.(type) {
	case *parser.Wildcard, *parser.ColumnAccess, *parser.RowIDExpr:
		errs = append(errs, illegalExpr(parser.FormatExpression(e), e.Pos()))
	}
	for _, child := range childExprs(e) {
		errs = append(errs, CheckProhibited(child)...)
	}
	return errs
}

// childExprs enumerates the direct sub-expressions of e in source order.
func childExprs(e parser.Expression) []parser.Expression {
	switch node := e.(type) {
	case *parser.BinaryExpr:
		return []parser.Expression{node.Left, node.Right}
	case *parser.UnaryExpr:
		return []parser.Expression{node.Expr}
	case *parser.CallExpr:
		children := []parser.Expression{node.Fn}
		return append(children, node.Args...)
	case *parser.CaseExpr:
		var children []parser.Expression
		if node.Operand != nil {
			children = append(children, node.Operand)
		}
		for _, when := range node.Whens {
			children = append(children, when.Cond, when.Result)
		}
		if node.Else != nil {
			children = append(children, node.Else)
		}
		return children
	case *parser.EachExpr:
		return []parser.Expression{node.Expr}
	default:
		return nil
	}
}
