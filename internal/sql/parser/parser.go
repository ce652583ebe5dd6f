package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/quartz-lang/compiler/internal/sql/lexer"
)

// ParseProgram parses a full Quartz source into its statement sequence.
// Statements may be separated by semicolons.
func ParseProgram(input string) (*Program, error) {
	p := newParser(input)
	program := &Program{}
	for p.curToken.Type == lexer.Semicolon {
		p.nextToken()
	}
	for p.curToken.Type != lexer.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
		for p.curToken.Type == lexer.Semicolon {
			p.nextToken()
		}
	}
	return program, nil
}

// Parse parses a single Quartz statement.
func Parse(input string) (Statement, error) {
	p := newParser(input)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == lexer.Semicolon {
		p.nextToken()
	}
	if p.curToken.Type != lexer.EOF {
		return nil, fmt.Errorf("parser: unexpected token %s", p.curToken.Literal)
	}
	return stmt, nil
}

// ParseExpression parses a single scalar expression.
func ParseExpression(input string) (Expression, error) {
	p := newParser(input)
	expr, err := p.parseExpression(lowestPrecedence)
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != lexer.EOF {
		return nil, fmt.Errorf("parser: unexpected token %s", p.curToken.Literal)
	}
	return expr, nil
}

// Parser implements a tiny hand-rolled recursive descent parser.
type Parser struct {
	lex       *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
}

func newParser(input string) *Parser {
	p := &Parser{lex: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.Next()
}

func (p *Parser) pos() Pos {
	return Pos{Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) curKeyword() string {
	if p.curToken.Type != lexer.Ident {
		return ""
	}
	return strings.ToUpper(p.curToken.Literal)
}

func (p *Parser) expectKeyword(keyword string) error {
	if p.curKeyword() != keyword {
		return fmt.Errorf("parser: expected %s but found %s", keyword, p.curToken.Literal)
	}
	return nil
}

func (p *Parser) consumeKeyword(keyword string) error {
	if err := p.expectKeyword(keyword); err != nil {
		return err
	}
	p.nextToken()
	return nil
}

func (p *Parser) parseIdent() (string, Pos, error) {
	if p.curToken.Type != lexer.Ident {
		return "", Pos{}, fmt.Errorf("parser: expected identifier but found %s", p.curToken.Literal)
	}
	name := p.curToken.Literal
	pos := p.pos()
	p.nextToken()
	return name, pos, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.curKeyword() {
	case "WITH", "SELECT":
		return p.parseQuery()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "CREATE":
		return p.parseCreate()
	case "INSERT":
		return p.parseInsert()
	case "FUNCTION":
		return p.parseFunction()
	case "VERBATIM":
		return p.parseVerbatim()
	default:
		return nil, fmt.Errorf("parser: unexpected token %s", p.curToken.Literal)
	}
}

func (p *Parser) parseQuery() (*QueryStmt, error) {
	stmt := &QueryStmt{P: p.pos()}
	if p.curKeyword() == "WITH" {
		p.nextToken()
		for {
			name, pos, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			if err := p.consumeKeyword("AS"); err != nil {
				return nil, err
			}
			if p.curToken.Type != lexer.LParen {
				return nil, fmt.Errorf("parser: expected ( after %s AS", name)
			}
			p.nextToken()
			tree, err := p.parseSelectTree()
			if err != nil {
				return nil, err
			}
			if p.curToken.Type != lexer.RParen {
				return nil, fmt.Errorf("parser: expected ) to close sub-query %s", name)
			}
			p.nextToken()
			stmt.Locals = append(stmt.Locals, LocalQuery{Name: name, Query: tree, P: pos})
			if p.curToken.Type == lexer.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	main, err := p.parseSelectTree()
	if err != nil {
		return nil, err
	}
	stmt.Main = main
	return stmt, nil
}

// parseSelectTree parses a SELECT body and assembles the relational operator
// tree Project -> Sort? -> GroupBy? -> Filter? -> Join*/Scan.
func (p *Parser) parseSelectTree() (RelAlg, error) {
	if err := p.consumeKeyword("SELECT"); err != nil {
		return nil, err
	}
	items, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}

	if err := p.consumeKeyword("FROM"); err != nil {
		return nil, err
	}
	tree, err := p.parseFrom()
	if err != nil {
		return nil, err
	}

	if p.curKeyword() == "WHERE" {
		p.nextToken()
		preds, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		tree = &Filter{Preds: preds, Child: tree}
	}

	if p.curKeyword() == "GROUP" {
		p.nextToken()
		if err := p.consumeKeyword("BY"); err != nil {
			return nil, err
		}
		keys, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		group := &GroupBy{Keys: keys, Child: tree}
		if p.curKeyword() == "HAVING" {
			p.nextToken()
			having, err := p.parseExpression(lowestPrecedence)
			if err != nil {
				return nil, err
			}
			group.Having = []Expression{having}
		}
		tree = group
	}

	if p.curKeyword() == "ORDER" {
		keys, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		tree = &Sort{Keys: keys, Child: tree}
	}

	return &Project{Items: items, Child: tree}, nil
}

func (p *Parser) parseFrom() (RelAlg, error) {
	ref, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	var tree RelAlg = &Scan{Table: ref}
	for {
		switch {
		case p.curToken.Type == lexer.Comma:
			p.nextToken()
			right, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			tree = &Join{Left: tree, Right: &Scan{Table: right}}
		case p.curKeyword() == "JOIN":
			p.nextToken()
			right, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			if err := p.consumeKeyword("ON"); err != nil {
				return nil, err
			}
			cond, err := p.parseExpression(lowestPrecedence)
			if err != nil {
				return nil, err
			}
			tree = &Join{Left: tree, Right: &Scan{Table: right}, Conds: []Expression{cond}}
		default:
			return tree, nil
		}
	}
}

func (p *Parser) parseTableRef() (TableRef, error) {
	name, pos, err := p.parseIdent()
	if err != nil {
		return TableRef{}, err
	}
	ref := TableRef{Name: name, P: pos}
	if p.curKeyword() == "AS" {
		p.nextToken()
		alias, _, err := p.parseIdent()
		if err != nil {
			return TableRef{}, err
		}
		ref.Alias = alias
	}
	return ref, nil
}

func (p *Parser) parseOrderBy() ([]Expression, error) {
	if err := p.consumeKeyword("ORDER"); err != nil {
		return nil, err
	}
	if err := p.consumeKeyword("BY"); err != nil {
		return nil, err
	}
	return p.parseExpressionList()
}

func (p *Parser) parseUpdate() (Statement, error) {
	stmt := &UpdateStmt{P: p.pos()}
	p.nextToken()
	table, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if err := p.consumeKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		column, pos, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if p.curToken.Type != lexer.Equal {
			return nil, fmt.Errorf("parser: expected = after column %s", column)
		}
		p.nextToken()
		value, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: column, Expr: value, P: pos})
		if p.curToken.Type == lexer.Comma {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.parseDMLTail(&stmt.Where, &stmt.GroupBy, &stmt.Having, &stmt.OrderBy); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	stmt := &DeleteStmt{P: p.pos()}
	p.nextToken()
	if err := p.consumeKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if p.curKeyword() == "ALL" {
		p.nextToken()
		stmt.All = true
	}
	if err := p.parseDMLTail(&stmt.Where, &stmt.GroupBy, &stmt.Having, &stmt.OrderBy); err != nil {
		return nil, err
	}
	if stmt.All && stmt.Where != nil {
		return nil, fmt.Errorf("parser: DELETE ALL cannot carry a WHERE clause")
	}
	if stmt.Where == nil {
		stmt.All = true
	}
	return stmt, nil
}

func (p *Parser) parseDMLTail(where *Expression, groupBy *[]Expression, having *Expression, orderBy *[]Expression) error {
	if p.curKeyword() == "WHERE" {
		p.nextToken()
		pred, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return err
		}
		*where = pred
	}
	if p.curKeyword() == "GROUP" {
		p.nextToken()
		if err := p.consumeKeyword("BY"); err != nil {
			return err
		}
		keys, err := p.parseExpressionList()
		if err != nil {
			return err
		}
		*groupBy = keys
		if p.curKeyword() == "HAVING" {
			p.nextToken()
			pred, err := p.parseExpression(lowestPrecedence)
			if err != nil {
				return err
			}
			*having = pred
		}
	}
	if p.curKeyword() == "ORDER" {
		keys, err := p.parseOrderBy()
		if err != nil {
			return err
		}
		*orderBy = keys
	}
	return nil
}

func (p *Parser) parseCreate() (Statement, error) {
	stmt := &CreateStmt{P: p.pos()}
	p.nextToken()
	if err := p.consumeKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	if err := p.consumeKeyword("AS"); err != nil {
		return nil, err
	}
	query, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	stmt.Query = query
	return stmt, nil
}

func (p *Parser) parseInsert() (Statement, error) {
	stmt := &InsertStmt{P: p.pos()}
	p.nextToken()
	if err := p.consumeKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	switch p.curKeyword() {
	case "VALUES":
		p.nextToken()
		if p.curToken.Type != lexer.LParen {
			return nil, fmt.Errorf("parser: expected ( after VALUES")
		}
		p.nextToken()
		values, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		if p.curToken.Type != lexer.RParen {
			return nil, fmt.Errorf("parser: expected ) to close VALUES list")
		}
		p.nextToken()
		stmt.Values = values
	case "WITH", "SELECT":
		query, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		stmt.Query = query
	default:
		return nil, fmt.Errorf("parser: expected VALUES or SELECT but found %s", p.curToken.Literal)
	}
	if p.curKeyword() == "ORDER" {
		keys, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = keys
	}
	return stmt, nil
}

func (p *Parser) parseFunction() (Statement, error) {
	stmt := &FunctionStmt{P: p.pos()}
	p.nextToken()
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	if p.curToken.Type != lexer.LParen {
		return nil, fmt.Errorf("parser: expected ( after FUNCTION %s", name)
	}
	p.nextToken()
	if p.curToken.Type != lexer.RParen {
		for {
			param, _, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			stmt.Params = append(stmt.Params, param)
			if p.curToken.Type == lexer.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	if p.curToken.Type != lexer.RParen {
		return nil, fmt.Errorf("parser: expected ) to close parameter list")
	}
	p.nextToken()
	if err := p.consumeKeyword("BEGIN"); err != nil {
		return nil, err
	}
	for p.curKeyword() != "END" {
		if p.curToken.Type == lexer.EOF {
			return nil, fmt.Errorf("parser: FUNCTION %s is missing END", name)
		}
		var body FuncBodyStmt
		if p.curToken.Type == lexer.Ident && p.peekToken.Type == lexer.Assign {
			assignName, _, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			body.Name = assignName
			p.nextToken()
		}
		value, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		body.Expr = value
		stmt.Body = append(stmt.Body, body)
		for p.curToken.Type == lexer.Semicolon {
			p.nextToken()
		}
	}
	p.nextToken()
	return stmt, nil
}

func (p *Parser) parseVerbatim() (Statement, error) {
	stmt := &VerbatimStmt{P: p.pos()}
	p.nextToken()
	if p.curToken.Type != lexer.String {
		return nil, fmt.Errorf("parser: expected string after VERBATIM")
	}
	stmt.Text = p.curToken.Literal
	p.nextToken()
	return stmt, nil
}

func (p *Parser) parseExpressionList() ([]Expression, error) {
	var list []Expression
	for {
		expr, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
		if p.curToken.Type == lexer.Comma {
			p.nextToken()
			continue
		}
		return list, nil
	}
}

const (
	lowestPrecedence = iota
	orPrecedence
	andPrecedence
	notPrecedence
	comparisonPrecedence
	additivePrecedence
	multiplicativePrecedence
	powerPrecedence
	unaryPrecedence
	callPrecedence
)

func (p *Parser) curBinary() (int, BinaryOp, bool) {
	switch p.curToken.Type {
	case lexer.Equal:
		return comparisonPrecedence, BinaryEqual, true
	case lexer.NotEqual:
		return comparisonPrecedence, BinaryNotEqual, true
	case lexer.Less:
		return comparisonPrecedence, BinaryLess, true
	case lexer.LessEqual:
		return comparisonPrecedence, BinaryLessEqual, true
	case lexer.Greater:
		return comparisonPrecedence, BinaryGreater, true
	case lexer.GreaterEqual:
		return comparisonPrecedence, BinaryGreaterEqual, true
	case lexer.Plus:
		return additivePrecedence, BinaryAdd, true
	case lexer.Minus:
		return additivePrecedence, BinarySubtract, true
	case lexer.Star:
		return multiplicativePrecedence, BinaryMultiply, true
	case lexer.Slash:
		return multiplicativePrecedence, BinaryDivide, true
	case lexer.Caret:
		return powerPrecedence, BinaryPower, true
	}
	switch p.curKeyword() {
	case "AND":
		return andPrecedence, BinaryAnd, true
	case "OR":
		return orPrecedence, BinaryOr, true
	}
	return 0, "", false
}

func (p *Parser) parseExpression(precedence int) (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		curPrec, op, ok := p.curBinary()
		if !ok || precedence >= curPrec {
			return left, nil
		}
		pos := p.pos()
		p.nextToken()
		// ^ is right-associative.
		next := curPrec
		if op == BinaryPower {
			next = curPrec - 1
		}
		right, err := p.parseExpression(next)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Right: right, Op: op, P: pos}
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	switch {
	case p.curKeyword() == "NOT":
		pos := p.pos()
		p.nextToken()
		operand, err := p.parseExpression(notPrecedence)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: UnaryNot, Expr: operand, P: pos}, nil
	case p.curToken.Type == lexer.Minus:
		pos := p.pos()
		p.nextToken()
		operand, err := p.parseExpression(unaryPrecedence)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: UnaryNegate, Expr: operand, P: pos}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.curToken.Type {
		case lexer.LParen:
			pos := p.pos()
			p.nextToken()
			args, err := p.parseCallArgs(lexer.RParen, ")")
			if err != nil {
				return nil, err
			}
			expr = &CallExpr{Fn: expr, Args: args, P: pos}
		case lexer.LBracket:
			pos := p.pos()
			p.nextToken()
			args, err := p.parseCallArgs(lexer.RBracket, "]")
			if err != nil {
				return nil, err
			}
			expr = &CallExpr{Fn: expr, Args: args, Index: true, P: pos}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseCallArgs(closing lexer.TokenType, closeLit string) ([]Expression, error) {
	if p.curToken.Type == closing {
		p.nextToken()
		return nil, nil
	}
	args, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != closing {
		return nil, fmt.Errorf("parser: expected %s to close argument list", closeLit)
	}
	p.nextToken()
	return args, nil
}

func (p *Parser) parsePrimary() (Expression, error) {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.Number:
		raw := p.curToken.Literal
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parser: invalid numeric literal %q", raw)
		}
		p.nextToken()
		return &NumberLit{Value: value, Raw: raw, P: pos}, nil
	case lexer.String:
		value := p.curToken.Literal
		p.nextToken()
		return &StringLit{Value: value, P: pos}, nil
	case lexer.Star:
		p.nextToken()
		return &Wildcard{P: pos}, nil
	case lexer.LParen:
		p.nextToken()
		expr, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		if p.curToken.Type != lexer.RParen {
			return nil, fmt.Errorf("parser: expected ) to close expression")
		}
		p.nextToken()
		return expr, nil
	case lexer.Ident:
		switch p.curKeyword() {
		case "TRUE":
			p.nextToken()
			return &BoolLit{Value: true, P: pos}, nil
		case "FALSE":
			p.nextToken()
			return &BoolLit{Value: false, P: pos}, nil
		case "ROWID":
			p.nextToken()
			return &RowIDExpr{P: pos}, nil
		case "DATE":
			return p.parseDateLiteral(pos)
		case "TIMESTAMP":
			return p.parseTimestampLiteral(pos)
		case "EACH":
			p.nextToken()
			if p.curToken.Type != lexer.LParen {
				return nil, fmt.Errorf("parser: expected ( after EACH")
			}
			p.nextToken()
			inner, err := p.parseExpression(lowestPrecedence)
			if err != nil {
				return nil, err
			}
			if p.curToken.Type != lexer.RParen {
				return nil, fmt.Errorf("parser: expected ) to close EACH")
			}
			p.nextToken()
			return &EachExpr{Expr: inner, P: pos}, nil
		case "CASE":
			return p.parseCase(pos)
		}
		name := p.curToken.Literal
		p.nextToken()
		if p.curToken.Type == lexer.Dot {
			p.nextToken()
			column, _, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			return &ColumnAccess{Table: name, Column: column, P: pos}, nil
		}
		return &Identifier{Name: name, P: pos}, nil
	default:
		return nil, fmt.Errorf("parser: unexpected token %s in expression", p.curToken.Literal)
	}
}

func (p *Parser) parseDateLiteral(pos Pos) (Expression, error) {
	p.nextToken()
	if p.curToken.Type != lexer.String {
		return nil, fmt.Errorf("parser: expected string after DATE")
	}
	raw := p.curToken.Literal
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid DATE literal %q", raw)
	}
	p.nextToken()
	return &DateLit{Value: parsed, Raw: raw, P: pos}, nil
}

func (p *Parser) parseTimestampLiteral(pos Pos) (Expression, error) {
	p.nextToken()
	if p.curToken.Type != lexer.String {
		return nil, fmt.Errorf("parser: expected string after TIMESTAMP")
	}
	raw := p.curToken.Literal
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			p.nextToken()
			return &TimestampLit{Value: parsed, Raw: raw, P: pos}, nil
		}
	}
	return nil, fmt.Errorf("parser: invalid TIMESTAMP literal %q", raw)
}

func (p *Parser) parseCase(pos Pos) (Expression, error) {
	p.nextToken()
	caseExpr := &CaseExpr{P: pos}
	if p.curKeyword() != "WHEN" {
		operand, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		caseExpr.Operand = operand
	}
	for p.curKeyword() == "WHEN" {
		p.nextToken()
		cond, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		if err := p.consumeKeyword("THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		caseExpr.Whens = append(caseExpr.Whens, WhenClause{Cond: cond, Result: result})
	}
	if len(caseExpr.Whens) == 0 {
		return nil, fmt.Errorf("parser: CASE requires at least one WHEN branch")
	}
	if p.curKeyword() == "ELSE" {
		p.nextToken()
		elseExpr, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		caseExpr.Else = elseExpr
	}
	if err := p.consumeKeyword("END"); err != nil {
		return nil, err
	}
	return caseExpr, nil
}
