package ast

import (
	"errors"
	"testing"

	"github.com/kartiknair/fun/pkg/token"
	"github.com/stretchr/testify/assert"
)

func intLit(v int32) *NumberLiteral {
	return &NumberLiteral{Token: token.Token{Type: token.INT, Int: v}}
}

func floatLit(v float32) *NumberLiteral {
	return &NumberLiteral{Token: token.Token{Type: token.FLOAT, Float: v}}
}

func strLit(v string) *StringLiteral {
	return &StringLiteral{Token: token.Token{Type: token.STRING, Text: v}}
}

func ident(name string) token.Token {
	return token.Token{Type: token.IDENTIFIER, Lexeme: name, Text: name}
}

func op(typ token.TokenType) token.Token {
	return token.Token{Type: typ}
}

func access(name string, typ ScalarType) *VarAccess {
	return &VarAccess{Identifier: ident(name), Typ: typ, Boxed: true}
}

// check binary operation type
func testBinaryGood(t *testing.T, left Node, operator token.TokenType, right Node, expected ScalarType) {
	b, err := NewBinaryOp(left, op(operator), right)
	if assert.NoError(t, err) {
		assert.Equal(t, expected, TypeOf(b))
		assert.Equal(t, expected.Format(), FormatOf(b))
	}
}

// check binary operation is rejected
func testBinaryBad(t *testing.T, left Node, operator token.TokenType, right Node, expected error) {
	_, err := NewBinaryOp(left, op(operator), right)
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, expected), "unexpected error: %s", err)
	}
}

// test scalar types
func TestScalarType(t *testing.T) {
	assert.Equal(t, "%d", Int.Format())
	assert.Equal(t, "%f", Float.Format())
	assert.Equal(t, "%s", String.Format())
	assert.Equal(t, "", None.Format())

	assert.True(t, Int.IsNumeric())
	assert.True(t, Float.IsNumeric())
	assert.False(t, String.IsNumeric())
	assert.False(t, None.IsNumeric())

	assert.Equal(t, "float", Float.String())
	assert.Equal(t, "none", None.String())
}

// test evaluators over node kinds
func TestEvaluators(t *testing.T) {
	assert.Equal(t, Int, TypeOf(intLit(1)))
	assert.Equal(t, Float, TypeOf(floatLit(1.5)))
	assert.Equal(t, String, TypeOf(strLit("s")))
	assert.Equal(t, Float, TypeOf(&UnaryOp{Operator: op(token.MINUS), Operand: floatLit(2)}))
	assert.Equal(t, String, TypeOf(access("s", String)))
	assert.Equal(t, None, TypeOf(&Print{Template: strLit("")}))
	assert.Equal(t, None, TypeOf(&While{Condition: intLit(1)}))

	assert.Equal(t, "%s", FormatOf(strLit("s")))
	assert.Equal(t, "", FormatOf(&MainFunc{}))

	assert.True(t, IsNumeric(access("n", Int)))
	assert.False(t, IsNumeric(access("s", String)))

	assert.True(t, IsPureValue(intLit(1)))
	assert.True(t, IsPureValue(access("x", Int)))
	assert.False(t, IsPureValue(&VarDecl{Identifier: ident("x"), Value: intLit(1)}))
	assert.False(t, IsPureValue(&If{Condition: intLit(1)}))
	assert.False(t, IsPureValue(&ForLoop{}))

	assert.Panics(t, func() { TypeOf(nil) })
}

// test binary operation typing
func TestNewBinaryOp(t *testing.T) {
	testBinaryGood(t, intLit(3), token.PLUS, intLit(4), Int)
	testBinaryGood(t, intLit(1), token.PLUS, floatLit(2.5), Float)
	testBinaryGood(t, access("x", Float), token.STAR, intLit(2), Float)
	testBinaryGood(t, intLit(7), token.PERCENT, intLit(2), Int)
	testBinaryGood(t, floatLit(1), token.EQUAL_EQUAL, floatLit(1), Int)
	testBinaryGood(t, access("s", String), token.EQUAL_EQUAL, strLit("a"), Int)
	testBinaryGood(t, strLit("a"), token.BANG_EQUAL, strLit("b"), Int)

	testBinaryBad(t, intLit(1), token.PLUS, strLit("a"), ErrOperandMismatch)
	testBinaryBad(t, strLit("a"), token.EQUAL_EQUAL, floatLit(1), ErrOperandMismatch)
	testBinaryBad(t, strLit("a"), token.PLUS, strLit("b"), ErrInvalidOperator)
	testBinaryBad(t, floatLit(1), token.PERCENT, intLit(2), ErrInvalidOperator)
	testBinaryBad(t, &Print{Template: strLit("")}, token.PLUS, intLit(1), ErrOperandMismatch)

	assert.Panics(t, func() { NewBinaryOp(intLit(1), op(token.EQUAL), intLit(2)) })
}

// test unary operation typing
func TestNewUnaryOp(t *testing.T) {
	u, err := NewUnaryOp(op(token.MINUS), intLit(5))
	if assert.NoError(t, err) {
		assert.Equal(t, Int, TypeOf(u))
	}

	_, err = NewUnaryOp(op(token.MINUS), strLit("a"))
	assert.True(t, errors.Is(err, ErrInvalidOperator))

	assert.Panics(t, func() { NewUnaryOp(op(token.PLUS), intLit(5)) })
}

// test declarations and assignments
func TestNewVar(t *testing.T) {
	d, err := NewVarDecl(ident("x"), None, intLit(5))
	if assert.NoError(t, err) {
		assert.Equal(t, "x", d.Name())
		assert.Equal(t, Int, TypeOf(d))
	}

	_, err = NewVarDecl(ident("x"), Float, floatLit(5))
	assert.NoError(t, err)

	_, err = NewVarDecl(ident("x"), Int, strLit("a"))
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, ErrTypeMismatch))
		assert.Contains(t, err.Error(), "variable 'x' is declared as int but its value is string")
	}

	a, err := NewVarAssign(ident("y"), Float, true, floatLit(1))
	if assert.NoError(t, err) {
		assert.Equal(t, "y", a.Name())
		assert.True(t, a.Boxed)
	}

	_, err = NewVarAssign(ident("y"), Float, true, intLit(1))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

// test print construction
func TestNewPrint(t *testing.T) {
	p, err := NewPrint(op(token.PRINT), []Node{strLit("{} is {}%\\n"), strLit("rate"), floatLit(2.5)})
	if assert.NoError(t, err) {
		assert.Len(t, p.Arguments, 2)
		assert.Equal(t, "%s is %f%%\\n", p.Format())
	}

	p, err = NewPrint(op(token.PRINT), []Node{strLit("plain")})
	if assert.NoError(t, err) {
		assert.Empty(t, p.Arguments)
		assert.Equal(t, "plain", p.Format())
	}

	_, err = NewPrint(op(token.PRINT), nil)
	assert.True(t, errors.Is(err, ErrPrintTemplate))

	_, err = NewPrint(op(token.PRINT), []Node{intLit(1)})
	assert.True(t, errors.Is(err, ErrPrintTemplate))

	_, err = NewPrint(op(token.PRINT), []Node{strLit("{} {}"), intLit(1)})
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, ErrPlaceholders))
		assert.Contains(t, err.Error(), "template has 2 placeholders but 1 arguments were given")
	}

	_, err = NewPrint(op(token.PRINT), []Node{strLit("none"), intLit(1)})
	assert.True(t, errors.Is(err, ErrPlaceholders))

	assert.Equal(t, 3, CountPlaceholders("{}{}{}"))
	assert.Equal(t, 0, CountPlaceholders("{ }"))
}

// test for loop bounds
func TestNewForLoop(t *testing.T) {
	f, err := NewForLoop(op(token.FOR), intLit(0), intLit(5), nil, ident("i"), Block{})
	if assert.NoError(t, err) {
		assert.Equal(t, "i", f.Name())
		assert.Nil(t, f.Step)
	}

	_, err = NewForLoop(op(token.FOR), intLit(0), floatLit(5), nil, ident("i"), Block{})
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, ErrTypeMismatch))
		assert.Contains(t, err.Error(), "end must be int")
	}

	_, err = NewForLoop(op(token.FOR), intLit(0), intLit(5), strLit("1"), ident("i"), Block{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "step must be int")
	}
}

// test source excerpts
func TestSourceContext(t *testing.T) {
	m := &Module{Source: "let a = 1;\n\tlet b = c;\nprint(\"\");\n"}

	assert.Equal(t, `
   1 | let a = 1;
   2 | 	let b = c;
     | 	        ^
   3 | print("");`, m.SourceContext(token.Pos{Line: 2, Column: 10}))

	assert.Equal(t, `
   1 | let a = 1;
     | ^
   2 | 	let b = c;`, m.TokenSourceContext(&token.Token{Pos: token.Pos{Line: 1, Column: 1}}))

	assert.Equal(t, "", m.SourceContext(token.Pos{Line: 9, Column: 1}))
}
