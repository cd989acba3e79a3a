package lexer

import (
	"errors"
	"testing"

	"github.com/kartiknair/fun/pkg/ast"
	"github.com/kartiknair/fun/pkg/diag"
	"github.com/kartiknair/fun/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lex(t *testing.T, source string) []token.Token {
	m := &ast.Module{Path: "test.fun", Source: source}
	require.NoError(t, Lex(m))
	return m.Tokens
}

func types(tokens []token.Token) []token.TokenType {
	res := make([]token.TokenType, len(tokens))
	for i, t := range tokens {
		res[i] = t.Type
	}
	return res
}

// check source produces expected token types
func testLexGood(t *testing.T, source string, expected ...token.TokenType) {
	tokens := lex(t, source)
	assert.Equal(t, append(expected, token.EOF), types(tokens), "source: %q", source)
}

// check source fails with expected error
func testLexBad(t *testing.T, source string, expected error, pos token.Pos) {
	m := &ast.Module{Path: "test.fun", Source: source}
	err := Lex(m)
	if assert.Error(t, err, "source: %q", source) {
		assert.True(t, errors.Is(err, expected), "unexpected error: %s", err)
		assert.True(t, diag.IsFatal(err))

		var d *diag.Error
		if assert.True(t, errors.As(err, &d)) {
			assert.Equal(t, diag.LexStage, d.Stage)
			assert.Equal(t, pos, d.Pos)
		}
	}
}

// test token kinds
func TestLexGood(t *testing.T) {
	testLexGood(t, "")
	testLexGood(t, "  \t\r\n ")
	testLexGood(t, "let x = 5;",
		token.LET, token.IDENTIFIER, token.EQUAL, token.INT, token.SEMICOLON)
	testLexGood(t, "let y: float = 2.5;",
		token.LET, token.IDENTIFIER, token.COLON, token.FLOAT_TYPE, token.EQUAL, token.FLOAT, token.SEMICOLON)
	testLexGood(t, "( ) { } ; : , + - * / %",
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.SEMICOLON, token.COLON, token.COMMA,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT)
	testLexGood(t, "a == b =! c = d",
		token.IDENTIFIER, token.EQUAL_EQUAL, token.IDENTIFIER, token.BANG_EQUAL,
		token.IDENTIFIER, token.EQUAL, token.IDENTIFIER)
	testLexGood(t, "if elif else while for fun main print",
		token.IF, token.ELIF, token.ELSE, token.WHILE, token.FOR, token.FUN, token.MAIN, token.PRINT)
	testLexGood(t, "_tmp1 größe", token.IDENTIFIER, token.IDENTIFIER)
	testLexGood(t, `"a" "b c"`, token.STRING, token.STRING)
}

// test literal payloads
func TestLexPayload(t *testing.T) {
	tokens := lex(t, `let x = 5; let pi = 3.25; let s = "hi {}"; let _v2 = x;`)
	if assert.Len(t, tokens, 21) {
		assert.Equal(t, "x", tokens[1].Text)
		assert.EqualValues(t, 5, tokens[3].Int)
		assert.Equal(t, "5", tokens[3].Lexeme)
		assert.EqualValues(t, 3.25, tokens[8].Float)
		assert.Equal(t, "hi {}", tokens[13].Text)
		assert.Equal(t, `"hi {}"`, tokens[13].Lexeme)
		assert.Equal(t, "_v2", tokens[16].Text)
	}

	// largest values that fit 32 bits
	tokens = lex(t, "2147483647 0.5")
	assert.EqualValues(t, 2147483647, tokens[0].Int)
	assert.EqualValues(t, 0.5, tokens[1].Float)
}

// test token positions
func TestLexPositions(t *testing.T) {
	tokens := lex(t, "let x = 5;\n\tprint(\"a\nb\", x);\nfoo")
	if assert.Len(t, tokens, 14) {
		assert.Equal(t, token.Pos{Line: 1, Column: 1}, tokens[0].Pos)
		assert.Equal(t, token.Pos{Line: 1, Column: 5}, tokens[1].Pos)
		assert.Equal(t, token.Pos{Line: 1, Column: 10}, tokens[4].Pos)
		assert.Equal(t, token.Pos{Line: 2, Column: 2}, tokens[5].Pos)  // print
		assert.Equal(t, token.Pos{Line: 2, Column: 8}, tokens[7].Pos)  // multi-line string starts
		assert.Equal(t, token.Pos{Line: 3, Column: 3}, tokens[8].Pos)  // comma after it
		assert.Equal(t, token.Pos{Line: 4, Column: 1}, tokens[12].Pos) // foo
		assert.Equal(t, token.Pos{Line: 4, Column: 4}, tokens[13].Pos) // EOF
	}
}

// test malformed input
func TestLexBad(t *testing.T) {
	testLexBad(t, "let x = 1.2.3;", ErrMalformedNumber, token.Pos{Line: 1, Column: 9})
	testLexBad(t, "let x = 99999999999;", ErrMalformedNumber, token.Pos{Line: 1, Column: 9})
	testLexBad(t, "let x = 1;\nlet y = x != 2;", ErrUnknownCharacter, token.Pos{Line: 2, Column: 11})
	testLexBad(t, "let s = \"abc", ErrUnterminatedString, token.Pos{Line: 1, Column: 9})
	testLexBad(t, "x # y", ErrUnknownCharacter, token.Pos{Line: 1, Column: 3})
}

// test error report layout
func TestLexReport(t *testing.T) {
	m := &ast.Module{Path: "test.fun", Source: "let a = 1;\nlet b = 1.2.3;"}
	err := Lex(m)
	if assert.Error(t, err) {
		assert.Equal(t, `
   1 | let a = 1;
   2 | let b = 1.2.3;
     |         ^
lex-error: 2:9: malformed numeric literal: "1.2." has more than one decimal point`, diag.Report(err))
	}
}
