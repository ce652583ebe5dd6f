package lexer

import (
	"strings"
	"unicode"
)

// TokenType identifies lexical tokens produced by the Quartz lexer.
type TokenType int

const (
	EOF TokenType = iota
	Illegal
	Ident
	Number
	String
	Comma
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Semicolon
	Star
	Plus
	Minus
	Slash
	Caret
	Dot
	Assign
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

// Token represents a lexical item together with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

var keywords = map[string]struct{}{
	"WITH":      {},
	"SELECT":    {},
	"FROM":      {},
	"WHERE":     {},
	"GROUP":     {},
	"BY":        {},
	"HAVING":    {},
	"ORDER":     {},
	"JOIN":      {},
	"ON":        {},
	"AS":        {},
	"AND":       {},
	"OR":        {},
	"NOT":       {},
	"CASE":      {},
	"WHEN":      {},
	"THEN":      {},
	"ELSE":      {},
	"END":       {},
	"TRUE":      {},
	"FALSE":     {},
	"DATE":      {},
	"TIMESTAMP": {},
	"ROWID":     {},
	"EACH":      {},
	"UPDATE":    {},
	"SET":       {},
	"DELETE":    {},
	"ALL":       {},
	"CREATE":    {},
	"TABLE":     {},
	"INSERT":    {},
	"INTO":      {},
	"VALUES":    {},
	"FUNCTION":  {},
	"BEGIN":     {},
	"VERBATIM":  {},
}

// Lexer performs tokenisation over the input source string.
type Lexer struct {
	input []rune
	pos   int
	line  int
	col   int
}

// New initialises a lexer for the provided Quartz source.
func New(input string) *Lexer {
	return &Lexer{input: []rune(input), line: 1, col: 1}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) token(typ TokenType, lit string, line, col int) Token {
	return Token{Type: typ, Literal: lit, Line: line, Column: col}
}

// Next returns the next token from the stream.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	line, col := l.line, l.col
	if l.pos >= len(l.input) {
		return l.token(EOF, "", line, col)
	}

	ch := l.input[l.pos]
	switch ch {
	case ',':
		l.advance()
		return l.token(Comma, ",", line, col)
	case '(':
		l.advance()
		return l.token(LParen, "(", line, col)
	case ')':
		l.advance()
		return l.token(RParen, ")", line, col)
	case '[':
		l.advance()
		return l.token(LBracket, "[", line, col)
	case ']':
		l.advance()
		return l.token(RBracket, "]", line, col)
	case '{':
		l.advance()
		return l.token(LBrace, "{", line, col)
	case '}':
		l.advance()
		return l.token(RBrace, "}", line, col)
	case ';':
		l.advance()
		return l.token(Semicolon, ";", line, col)
	case '*':
		l.advance()
		return l.token(Star, "*", line, col)
	case '+':
		l.advance()
		return l.token(Plus, "+", line, col)
	case '-':
		l.advance()
		return l.token(Minus, "-", line, col)
	case '/':
		l.advance()
		return l.token(Slash, "/", line, col)
	case '^':
		l.advance()
		return l.token(Caret, "^", line, col)
	case '.':
		l.advance()
		return l.token(Dot, ".", line, col)
	case '=':
		l.advance()
		return l.token(Equal, "=", line, col)
	case ':':
		l.advance()
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.advance()
			return l.token(Assign, ":=", line, col)
		}
		return l.token(Illegal, ":", line, col)
	case '<':
		l.advance()
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '=':
				l.advance()
				return l.token(LessEqual, "<=", line, col)
			case '>':
				l.advance()
				return l.token(NotEqual, "<>", line, col)
			}
		}
		return l.token(Less, "<", line, col)
	case '>':
		l.advance()
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.advance()
			return l.token(GreaterEqual, ">=", line, col)
		}
		return l.token(Greater, ">", line, col)
	case '\'', '"':
		return l.scanString(ch, line, col)
	}

	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanIdentifier(line, col)
	}
	if unicode.IsDigit(ch) {
		return l.scanNumber(line, col)
	}

	l.advance()
	return l.token(Illegal, string(ch), line, col)
}

func (l *Lexer) scanIdentifier(line, col int) Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			l.advance()
			continue
		}
		break
	}
	lit := string(l.input[start:l.pos])
	upper := strings.ToUpper(lit)
	if _, ok := keywords[upper]; ok {
		return l.token(Ident, upper, line, col)
	}
	return l.token(Ident, lit, line, col)
}

func (l *Lexer) scanNumber(line, col int) Token {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsDigit(ch) {
			l.advance()
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			l.advance()
			continue
		}
		break
	}
	return l.token(Number, string(l.input[start:l.pos]), line, col)
}

func (l *Lexer) scanString(quote rune, line, col int) Token {
	l.advance()
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == quote {
			// A doubled quote is an escaped quote, not a terminator.
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == quote {
				sb.WriteRune(quote)
				l.advance()
				l.advance()
				continue
			}
			l.advance()
			return l.token(String, sb.String(), line, col)
		}
		sb.WriteRune(ch)
		l.advance()
	}
	return l.token(Illegal, "unterminated string literal", line, col)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		if unicode.IsSpace(l.input[l.pos]) {
			l.advance()
			continue
		}
		break
	}
}
