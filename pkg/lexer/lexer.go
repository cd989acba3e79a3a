package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/kartiknair/fun/pkg/ast"
	"github.com/kartiknair/fun/pkg/diag"
	"github.com/kartiknair/fun/pkg/token"
)

var (
	ErrUnknownCharacter   = errors.New("unknown character")
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrMalformedNumber    = errors.New("malformed numeric literal")
)

type Lexer struct {
	start     int
	current   int
	line      int
	lineBegin int
	startPos  token.Pos
	source    []rune
	tokens    []token.Token

	Module *ast.Module
}

func (l *Lexer) lexError(err error) error {
	return &diag.Error{
		Severity: diag.Fatal,
		Stage:    diag.LexStage,
		Pos:      l.startPos,
		Context:  l.Module.SourceContext(l.startPos),
		Err:      err,
	}
}

func (l *Lexer) pos() token.Pos {
	return token.Pos{Line: l.line, Column: l.start - l.lineBegin + 1}
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() rune {
	l.current++
	return l.source[l.current-1]
}

func (l *Lexer) match(c rune) bool {
	if l.isAtEnd() || l.source[l.current] != c {
		return false
	}
	l.current++
	return true
}

// peek returns 0 at the end of input, which no rule accepts.
func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) addToken(typ token.TokenType) *token.Token {
	l.tokens = append(l.tokens, token.Token{
		Lexeme: string(l.source[l.start:l.current]),
		Type:   typ,
		Pos:    l.startPos,
	})
	return &l.tokens[len(l.tokens)-1]
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func (l *Lexer) lexString() error {
	for l.peek() != '"' && !l.isAtEnd() {
		if l.peek() == '\n' {
			l.line++
			l.lineBegin = l.current + 1
		}
		l.advance()
	}

	if l.isAtEnd() {
		return l.lexError(ErrUnterminatedString)
	}

	l.advance() // the closing quote

	t := l.addToken(token.STRING)
	t.Text = string(l.source[l.start+1 : l.current-1])
	return nil
}

// lexNumber consumes a run of digits and dots. One dot makes the literal a
// float; a second one is malformed.
func (l *Lexer) lexNumber() error {
	isFloat := false

	for isDigit(l.peek()) || l.peek() == '.' {
		if l.peek() == '.' {
			if isFloat {
				return l.lexError(fmt.Errorf(
					"%w: %q has more than one decimal point",
					ErrMalformedNumber, string(l.source[l.start:l.current+1]),
				))
			}
			isFloat = true
		}
		l.advance()
	}

	text := string(l.source[l.start:l.current])

	if isFloat {
		value, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return l.lexError(fmt.Errorf("%w: %q does not fit a 32-bit float", ErrMalformedNumber, text))
		}
		l.addToken(token.FLOAT).Float = float32(value)
		return nil
	}

	value, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return l.lexError(fmt.Errorf("%w: %q does not fit a 32-bit integer", ErrMalformedNumber, text))
	}
	l.addToken(token.INT).Int = int32(value)
	return nil
}

func (l *Lexer) lexIdent() {
	for isIdentPart(l.peek()) {
		l.advance()
	}

	text := string(l.source[l.start:l.current])

	if typ, ok := token.LookupKeyword(text); ok {
		l.addToken(typ)
		return
	}

	l.addToken(token.IDENTIFIER).Text = text
}

func (l *Lexer) ScanToken() error {
	c := l.advance()

	switch c {
	case '(':
		l.addToken(token.LEFT_PAREN)
	case ')':
		l.addToken(token.RIGHT_PAREN)
	case '{':
		l.addToken(token.LEFT_BRACE)
	case '}':
		l.addToken(token.RIGHT_BRACE)
	case ',':
		l.addToken(token.COMMA)
	case ':':
		l.addToken(token.COLON)
	case ';':
		l.addToken(token.SEMICOLON)
	case '+':
		l.addToken(token.PLUS)
	case '-':
		l.addToken(token.MINUS)
	case '*':
		l.addToken(token.STAR)
	case '/':
		l.addToken(token.SLASH)
	case '%':
		l.addToken(token.PERCENT)
	case '=':
		// `==` is equality and `=!` is inequality, checked in that order.
		if l.match('=') {
			l.addToken(token.EQUAL_EQUAL)
		} else if l.match('!') {
			l.addToken(token.BANG_EQUAL)
		} else {
			l.addToken(token.EQUAL)
		}
	case '\n':
		l.line++
		l.lineBegin = l.current
	case '"':
		return l.lexString()
	default:
		if unicode.IsSpace(c) {
			// ignore whitespace.
		} else if isDigit(c) {
			return l.lexNumber()
		} else if isIdentStart(c) {
			l.lexIdent()
		} else {
			return l.lexError(fmt.Errorf("%w: %q", ErrUnknownCharacter, c))
		}
	}

	return nil
}

// Lex tokenizes the whole module source. The token slice always ends with an
// EOF token when no error is returned. Every error is fatal.
func Lex(m *ast.Module) error {
	l := Lexer{Module: m, source: []rune(m.Source), line: 1}

	for !l.isAtEnd() {
		// we are at the beginning of the next lexeme.
		l.start = l.current
		l.startPos = l.pos()
		if err := l.ScanToken(); err != nil {
			return err
		}
	}

	l.start = l.current
	l.startPos = l.pos()
	l.addToken(token.EOF)
	m.Tokens = l.tokens
	return nil
}
