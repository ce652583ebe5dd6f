package analyzer

import (
	"github.com/example/quartz-lang/compiler/internal/sql/funcs"
	"github.com/example/quartz-lang/compiler/internal/sql/parser"
	"github.com/example/quartz-lang/compiler/internal/sql/types"
)

// BuildEnv copies base and registers one arity-only signature per FUNCTION
// declaration in the program, so forward and mutual references between
// user-defined functions resolve during call checking.
func BuildEnv(program *parser.Program, base *funcs.Env) *funcs.Env {
	env := base.Clone()
	for _, stmt := range program.Statements {
		if fn, ok := stmt.(*parser.FunctionStmt); ok {
			env.Register(fn.Name, funcs.UserDefined{Arity: len(fn.Params)})
		}
	}
	return env
}

// AnalyzeProgram checks a parsed program against the builtin function
// registry and returns every diagnostic in program order. An empty result
// means the program passed analysis.
func AnalyzeProgram(program *parser.Program) []Error {
	return Check(program, funcs.Builtins())
}

// Check analyzes the program against the provided base environment.
func Check(program *parser.Program, base *funcs.Env) []Error {
	env := BuildEnv(program, base)
	var errs []Error
	for _, stmt := range program.Statements {
		errs = append(errs, checkStatement(env, stmt)...)
	}
	return errs
}

func checkStatement(env *funcs.Env, stmt parser.Statement) []Error {
	switch s := stmt.(type) {
	case *parser.QueryStmt:
		return checkQuery(env, s)
	case *parser.UpdateStmt:
		return checkUpdate(env, s)
	case *parser.DeleteStmt:
		return checkDelete(env, s)
	case *parser.CreateStmt:
		return checkQuery(env, s.Query)
	case *parser.InsertStmt:
		return checkInsert(env, s)
	case *parser.FunctionStmt:
		return checkFunction(env, s)
	default:
		// Verbatim blocks are opaque.
		return nil
	}
}

func checkQuery(env *funcs.Env, s *parser.QueryStmt) []Error {
	var errs []Error
	for _, local := range s.Locals {
		errs = append(errs, CheckRelAlg(env, local.Query)...)
	}
	return append(errs, CheckRelAlg(env, s.Main)...)
}

func checkUpdate(env *funcs.Env, s *parser.UpdateStmt) []Error {
	c := &checker{env: env}
	var errs []Error
	for _, assign := range s.Assignments {
		_, es := c.checkExpr(assign.Expr)
		errs = append(errs, es...)
	}
	for _, key := range s.OrderBy {
		errs = append(errs, checkSortKey(key)...)
	}
	if s.Where != nil {
		errs = append(errs, c.checkOperand(s.Where, types.Bool)...)
	}
	for _, key := range s.GroupBy {
		_, es := c.checkExpr(key)
		errs = append(errs, es...)
	}
	if s.Having != nil {
		errs = append(errs, c.checkOperand(s.Having, types.Bool)...)
	}
	return append(errs, checkSingleTableScope(s.Table, updateExprs(s))...)
}

func checkDelete(env *funcs.Env, s *parser.DeleteStmt) []Error {
	c := &checker{env: env}
	var errs []Error
	for _, key := range s.OrderBy {
		errs = append(errs, checkSortKey(key)...)
	}
	if s.Where != nil {
		errs = append(errs, c.checkOperand(s.Where, types.Bool)...)
	}
	for _, key := range s.GroupBy {
		_, es := c.checkExpr(key)
		errs = append(errs, es...)
	}
	if s.Having != nil {
		errs = append(errs, c.checkOperand(s.Having, types.Bool)...)
	}
	return append(errs, checkSingleTableScope(s.Table, deleteExprs(s))...)
}

func checkInsert(env *funcs.Env, s *parser.InsertStmt) []Error {
	c := &checker{env: env}
	var errs []Error
	if s.Query != nil {
		errs = append(errs, checkQuery(env, s.Query)...)
		for _, key := range s.OrderBy {
			errs = append(errs, checkSortKey(key)...)
		}
		return errs
	}
	for _, value := range s.Values {
		_, es := c.checkExpr(value)
		errs = append(errs, es...)
	}
	for _, key := range s.OrderBy {
		errs = append(errs, checkSortKey(key)...)
	}
	// A literal insert has no table context, so query-only forms are out.
	for _, value := range s.Values {
		errs = append(errs, CheckProhibited(value)...)
	}
	return errs
}

func checkFunction(env *funcs.Env, s *parser.FunctionStmt) []Error {
	c := &checker{env: env}
	var errs []Error
	for _, body := range s.Body {
		_, es := c.checkExpr(body.Expr)
		errs = append(errs, es...)
		errs = append(errs, CheckProhibited(body.Expr)...)
	}
	return errs
}

// checkSingleTableScope resolves qualified accesses against the one target
// table of an UPDATE or DELETE. With a single binding there is never
// ambiguity; only an unresolved correlation name is possible.
func checkSingleTableScope(table parser.TableRef, exprs []parser.Expression) []Error {
	name := table.Name
	if table.Alias != "" {
		name = table.Alias
	}
	seen := make(map[string]struct{})
	var errs []Error
	var visit func(e parser.Expression)
	visit = func(e parser.Expression) {
		if access, ok := e.(*parser.ColumnAccess); ok {
			key := access.Table + "." + access.Column
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				if access.Table != name {
					errs = append(errs, unresolvedCorrelation(access.Table, access.Column, access.P))
				}
			}
		}
		for _, child := range childExprs(e) {
			visit(child)
		}
	}
	for _, e := range exprs {
		visit(e)
	}
	return errs
}

func updateExprs(s *parser.UpdateStmt) []parser.Expression {
	var exprs []parser.Expression
	for _, assign := range s.Assignments {
		exprs = append(exprs, assign.Expr)
	}
	if s.Where != nil {
		exprs = append(exprs, s.Where)
	}
	exprs = append(exprs, s.GroupBy...)
	if s.Having != nil {
		exprs = append(exprs, s.Having)
	}
	return append(exprs, s.OrderBy...)
}

func deleteExprs(s *parser.DeleteStmt) []parser.Expression {
	var exprs []parser.Expression
	if s.Where != nil {
		exprs = append(exprs, s.Where)
	}
	exprs = append(exprs, s.GroupBy...)
	if s.Having != nil {
		exprs = append(exprs, s.Having)
	}
	return append(exprs, s.OrderBy...)
}
