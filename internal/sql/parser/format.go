package parser

import "strings"

// FormatExpression renders an AST expression into a deterministic source
// string used for diagnostics.
func FormatExpression(expr Expression) string {
	return formatExpressionWithPrecedence(expr, lowestPrecedence)
}

func formatExpressionWithPrecedence(expr Expression, parent int) string {
	switch e := expr.(type) {
	case *Identifier:
		return e.Name
	case *Wildcard:
		return "*"
	case *ColumnAccess:
		return e.Table + "." + e.Column
	case *RowIDExpr:
		return "ROWID"
	case *NumberLit:
		return e.Raw
	case *StringLit:
		escaped := strings.ReplaceAll(e.Value, "'", "''")
		return "'" + escaped + "'"
	case *BoolLit:
		if e.Value {
			return "TRUE"
		}
		return "FALSE"
	case *DateLit:
		return "DATE '" + e.Raw + "'"
	case *TimestampLit:
		return "TIMESTAMP '" + e.Raw + "'"
	case *UnaryExpr:
		prec := unaryPrecedence
		text := string(e.Op)
		if e.Op == UnaryNot {
			prec = notPrecedence
			text = "NOT "
		}
		text += formatExpressionWithPrecedence(e.Expr, prec)
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	case *BinaryExpr:
		prec := precedenceForBinary(e.Op)
		left := formatExpressionWithPrecedence(e.Left, prec)
		right := formatExpressionWithPrecedence(e.Right, prec+1)
		text := left + " " + string(e.Op) + " " + right
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	case *CallExpr:
		callee := formatExpressionWithPrecedence(e.Fn, callPrecedence)
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			parts[i] = FormatExpression(arg)
		}
		if e.Index {
			return callee + "[" + strings.Join(parts, ", ") + "]"
		}
		return callee + "(" + strings.Join(parts, ", ") + ")"
	case *CaseExpr:
		var b strings.Builder
		b.WriteString("CASE")
		if e.Operand != nil {
			b.WriteString(" " + FormatExpression(e.Operand))
		}
		for _, when := range e.Whens {
			b.WriteString(" WHEN " + FormatExpression(when.Cond))
			b.WriteString(" THEN " + FormatExpression(when.Result))
		}
		if e.Else != nil {
			b.WriteString(" ELSE " + FormatExpression(e.Else))
		}
		b.WriteString(" END")
		return b.String()
	case *EachExpr:
		return "EACH(" + FormatExpression(e.Expr) + ")"
	default:
		return "<expr>"
	}
}

func precedenceForBinary(op BinaryOp) int {
	switch op {
	case BinaryOr:
		return orPrecedence
	case BinaryAnd:
		return andPrecedence
	case BinaryEqual, BinaryNotEqual, BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		return comparisonPrecedence
	case BinaryAdd, BinarySubtract:
		return additivePrecedence
	case BinaryMultiply, BinaryDivide:
		return multiplicativePrecedence
	case BinaryPower:
		return powerPrecedence
	default:
		return additivePrecedence
	}
}
