package ast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kartiknair/fun/pkg/token"
)

type ScalarType int

const (
	None ScalarType = iota
	Int
	Float
	String
)

func (t ScalarType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return "none"
}

func (t ScalarType) IsNumeric() bool {
	return t == Int || t == Float
}

// Format is the printf conversion used when a value of this type fills a
// print placeholder.
func (t ScalarType) Format() string {
	switch t {
	case Int:
		return "%d"
	case Float:
		return "%f"
	case String:
		return "%s"
	}
	return ""
}

var (
	ErrOperandMismatch = errors.New("operand mismatch")
	ErrInvalidOperator = errors.New("invalid operator")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrPrintTemplate   = errors.New("invalid print template")
	ErrPlaceholders    = errors.New("placeholder count mismatch")
)

// Node is closed: the unexported marker keeps every node kind inside this
// package, so a type switch over the kinds below is exhaustive.
type Node interface {
	isNode()
}

type Block struct {
	Statements []Node
}

type NumberLiteral struct {
	Token token.Token
}

type StringLiteral struct {
	Token token.Token
}

type BinaryOp struct {
	Left     Node
	Operator token.Token
	Right    Node

	Typ ScalarType
}

type UnaryOp struct {
	Operator token.Token
	Operand  Node
}

type VarDecl struct {
	Identifier token.Token
	// Annotation is None when the declared type was inferred.
	Annotation ScalarType
	Value      Node
}

type VarAssign struct {
	Identifier token.Token
	Value      Node
	Boxed      bool
}

type VarAccess struct {
	Identifier token.Token
	Typ        ScalarType
	Boxed      bool
}

type Print struct {
	Template  *StringLiteral
	Arguments []Node

	PrintToken token.Token
}

type MainFunc struct {
	Body Block

	FunToken token.Token
}

type ForLoop struct {
	Start    Node
	End      Node
	Step     Node // nil without an explicit `= step`
	Variable token.Token
	Body     Block

	ForToken token.Token
}

type ElseIf struct {
	Condition Node
	Body      Block
}

type If struct {
	Condition Node
	Body      Block
	ElseIfs   []ElseIf
	Else      *Block

	IfToken token.Token
}

type While struct {
	Condition Node
	Body      Block

	WhileToken token.Token
}

func (*NumberLiteral) isNode() {}
func (*StringLiteral) isNode() {}
func (*BinaryOp) isNode()      {}
func (*UnaryOp) isNode()       {}
func (*VarDecl) isNode()       {}
func (*VarAssign) isNode()     {}
func (*VarAccess) isNode()     {}
func (*Print) isNode()         {}
func (*MainFunc) isNode()      {}
func (*ForLoop) isNode()       {}
func (*If) isNode()            {}
func (*While) isNode()         {}

func (s *StringLiteral) Value() string {
	return s.Token.MustText()
}

func (v *VarDecl) Name() string {
	return v.Identifier.MustText()
}

func (v *VarAssign) Name() string {
	return v.Identifier.MustText()
}

func (v *VarAccess) Name() string {
	return v.Identifier.MustText()
}

func (f *ForLoop) Name() string {
	return f.Variable.MustText()
}

// TypeOf reports the scalar type a node evaluates to, None for statements.
func TypeOf(n Node) ScalarType {
	switch n := n.(type) {
	case *NumberLiteral:
		if n.Token.Type == token.FLOAT {
			return Float
		}
		return Int
	case *StringLiteral:
		return String
	case *BinaryOp:
		return n.Typ
	case *UnaryOp:
		return TypeOf(n.Operand)
	case *VarDecl:
		return TypeOf(n.Value)
	case *VarAssign:
		return TypeOf(n.Value)
	case *VarAccess:
		return n.Typ
	case *Print, *MainFunc, *ForLoop, *If, *While:
		return None
	}

	panic(fmt.Sprintf("Node has invalid static type: %T.", n))
}

func FormatOf(n Node) string {
	return TypeOf(n).Format()
}

func IsNumeric(n Node) bool {
	return TypeOf(n).IsNumeric()
}

// IsPureValue reports whether n only produces a value. Such nodes may not
// stand alone as statements.
func IsPureValue(n Node) bool {
	switch n.(type) {
	case *NumberLiteral, *StringLiteral, *BinaryOp, *UnaryOp, *VarAccess:
		return true
	case *VarDecl, *VarAssign, *Print, *MainFunc, *ForLoop, *If, *While:
		return false
	}

	panic(fmt.Sprintf("Node has invalid static type: %T.", n))
}

func NewBinaryOp(left Node, op token.Token, right Node) (*BinaryOp, error) {
	if !op.Type.IsBinaryOperator() {
		panic("Invalid token passed to `NewBinaryOp`.")
	}

	lt, rt := TypeOf(left), TypeOf(right)

	if lt == None || rt == None {
		return nil, fmt.Errorf("%w: operator `%s` needs two values", ErrOperandMismatch, op.Type.Operator())
	}

	if IsNumeric(left) != IsNumeric(right) {
		return nil, fmt.Errorf(
			"%w: left is %s and right is %s",
			ErrOperandMismatch, lt, rt,
		)
	}

	if lt == String && !op.Type.IsEquality() {
		return nil, fmt.Errorf(
			"%w: operator `%s` cannot be used on strings, only `==` and `=!` can",
			ErrInvalidOperator, op.Type.Operator(),
		)
	}

	if op.Type == token.PERCENT && (lt != Int || rt != Int) {
		return nil, fmt.Errorf(
			"%w: operator `%%` needs int operands, got %s and %s",
			ErrInvalidOperator, lt, rt,
		)
	}

	typ := Int
	if !op.Type.IsEquality() && (lt == Float || rt == Float) {
		typ = Float
	}

	return &BinaryOp{Left: left, Operator: op, Right: right, Typ: typ}, nil
}

func NewUnaryOp(op token.Token, operand Node) (*UnaryOp, error) {
	if op.Type != token.MINUS {
		panic("Invalid token passed to `NewUnaryOp`.")
	}

	if !IsNumeric(operand) {
		return nil, fmt.Errorf(
			"%w: unary `-` cannot be used on %s",
			ErrInvalidOperator, TypeOf(operand),
		)
	}

	return &UnaryOp{Operator: op, Operand: operand}, nil
}

func NewVarDecl(ident token.Token, annotation ScalarType, value Node) (*VarDecl, error) {
	valueType := TypeOf(value)

	if annotation != None && annotation != valueType {
		return nil, fmt.Errorf(
			"%w: variable '%s' is declared as %s but its value is %s",
			ErrTypeMismatch, ident.MustText(), annotation, valueType,
		)
	}

	return &VarDecl{Identifier: ident, Annotation: annotation, Value: value}, nil
}

func NewVarAssign(ident token.Token, declared ScalarType, boxed bool, value Node) (*VarAssign, error) {
	if valueType := TypeOf(value); valueType != declared {
		return nil, fmt.Errorf(
			"%w: variable '%s' expects %s but got %s",
			ErrTypeMismatch, ident.MustText(), declared, valueType,
		)
	}

	return &VarAssign{Identifier: ident, Value: value, Boxed: boxed}, nil
}

// NewPrint takes every argument of a print call, the template first.
func NewPrint(printToken token.Token, args []Node) (*Print, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: print needs a template string", ErrPrintTemplate)
	}

	template, ok := args[0].(*StringLiteral)
	if !ok {
		return nil, fmt.Errorf("%w: first argument to print must be a string literal", ErrPrintTemplate)
	}

	placeholders := CountPlaceholders(template.Value())
	if placeholders != len(args)-1 {
		return nil, fmt.Errorf(
			"%w: template has %d placeholders but %d arguments were given",
			ErrPlaceholders, placeholders, len(args)-1,
		)
	}

	return &Print{Template: template, Arguments: args[1:], PrintToken: printToken}, nil
}

func CountPlaceholders(template string) int {
	return strings.Count(template, "{}")
}

func NewForLoop(forToken token.Token, start, end, step Node, variable token.Token, body Block) (*ForLoop, error) {
	bounds := []struct {
		name string
		node Node
	}{
		{"start", start},
		{"end", end},
		{"step", step},
	}

	for _, b := range bounds {
		if b.node == nil {
			continue
		}
		if t := TypeOf(b.node); t != Int {
			return nil, fmt.Errorf("%w: for loop %s must be int, got %s", ErrTypeMismatch, b.name, t)
		}
	}

	return &ForLoop{
		Start:    start,
		End:      end,
		Step:     step,
		Variable: variable,
		Body:     body,
		ForToken: forToken,
	}, nil
}

// Format is the printf format string for the statement: each `{}` of the
// template becomes the format of its argument and literal `%` is escaped.
func (p *Print) Format() string {
	template := p.Template.Value()

	var format strings.Builder
	argIndex := 0
	for i := 0; i < len(template); i++ {
		if template[i] == '{' && i+1 < len(template) && template[i+1] == '}' {
			format.WriteString(FormatOf(p.Arguments[argIndex]))
			argIndex++
			i++
		} else if template[i] == '%' {
			format.WriteString("%%")
		} else {
			format.WriteByte(template[i])
		}
	}

	return format.String()
}
