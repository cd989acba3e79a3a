package cgen

import (
	"fmt"
	"strings"

	"github.com/kartiknair/fun/pkg/ast"
	"github.com/kartiknair/fun/pkg/token"
)

// Prelude brings in stdio for printf, the Boehm collector, and string.h for
// the string copies.
const Prelude = `#include <stdio.h>
#include <gc.h>
#include <string.h>

`

func genType(t ast.ScalarType) string {
	switch t {
	case ast.Int:
		return "int"
	case ast.Float:
		return "float"
	case ast.String:
		return "char*"
	}

	panic("Type has no C representation.")
}

func genStatement(stmt ast.Node) string {
	switch stmt := stmt.(type) {
	case *ast.VarDecl:
		return genVarDecl(stmt)
	case *ast.VarAssign:
		return genVarAssign(stmt)
	case *ast.Print:
		return genPrint(stmt)
	case *ast.MainFunc:
		return genMainFunc(stmt)
	case *ast.ForLoop:
		return genForLoop(stmt)
	case *ast.If:
		return genIf(stmt)
	case *ast.While:
		return genWhile(stmt)
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BinaryOp, *ast.UnaryOp, *ast.VarAccess:
		return genExpression(stmt) + ";\n"
	}

	panic("Statement node has invalid static type.")
}

func genBlock(block ast.Block) string {
	var b strings.Builder
	for _, stmt := range block.Statements {
		b.WriteString(genStatement(stmt))
	}
	return b.String()
}

// genStringCopy allocates collector storage sized for value and copies the
// string into it.
func genStringCopy(target string, value string) string {
	return fmt.Sprintf(
		"%s = (char*) GC_MALLOC(strlen(%s) + 1);\nstrcpy(%s, %s);\n",
		target, value, target, value,
	)
}

func genVarDecl(decl *ast.VarDecl) string {
	name := decl.Name()
	value := genExpression(decl.Value)
	typ := ast.TypeOf(decl.Value)

	if typ == ast.String {
		return "char* " + genStringCopy(name, value)
	}

	return fmt.Sprintf(
		"%s* %s = (%s*) GC_MALLOC(sizeof(%s));\n*%s = %s;\n",
		genType(typ), name, genType(typ), genType(typ), name, value,
	)
}

func genVarAssign(assign *ast.VarAssign) string {
	name := assign.Name()
	value := genExpression(assign.Value)

	if ast.TypeOf(assign.Value) == ast.String {
		return genStringCopy(name, value)
	}

	if !assign.Boxed {
		return fmt.Sprintf("%s = %s;\n", name, value)
	}

	return fmt.Sprintf("*%s = %s;\n", name, value)
}

func genPrint(p *ast.Print) string {
	if len(p.Arguments) == 0 {
		return fmt.Sprintf("printf(\"%s\");\n", p.Format())
	}

	args := make([]string, len(p.Arguments))
	for i, arg := range p.Arguments {
		args[i] = genExpression(arg)
	}

	return fmt.Sprintf("printf(\"%s\", %s);\n", p.Format(), strings.Join(args, ", "))
}

func genMainFunc(m *ast.MainFunc) string {
	return fmt.Sprintf("int main() {\nGC_INIT();\n%sreturn 0;\n}\n", genBlock(m.Body))
}

func genForLoop(f *ast.ForLoop) string {
	name := f.Name()

	increment := name + "++"
	if f.Step != nil {
		increment = fmt.Sprintf("%s += %s", name, genExpression(f.Step))
	}

	return fmt.Sprintf(
		"for (int %s = %s; %s < %s; %s) {\n%s}\n",
		name, genExpression(f.Start),
		name, genExpression(f.End),
		increment,
		genBlock(f.Body),
	)
}

func genIf(s *ast.If) string {
	var b strings.Builder

	fmt.Fprintf(&b, "if (%s) {\n%s}", genExpression(s.Condition), genBlock(s.Body))

	for _, elif := range s.ElseIfs {
		fmt.Fprintf(&b, " else if (%s) {\n%s}", genExpression(elif.Condition), genBlock(elif.Body))
	}

	if s.Else != nil {
		fmt.Fprintf(&b, " else {\n%s}", genBlock(*s.Else))
	}

	b.WriteString("\n")
	return b.String()
}

func genWhile(s *ast.While) string {
	return fmt.Sprintf("while (%s) {\n%s}\n", genExpression(s.Condition), genBlock(s.Body))
}

func genExpression(expr ast.Node) string {
	switch expr := expr.(type) {
	case *ast.NumberLiteral:
		return expr.Token.Lexeme
	case *ast.StringLiteral:
		return fmt.Sprintf("\"%s\"", expr.Value())
	case *ast.BinaryOp:
		return genBinaryOp(expr)
	case *ast.UnaryOp:
		operand := genExpression(expr.Operand)
		if _, ok := expr.Operand.(*ast.NumberLiteral); !ok {
			if _, ok := expr.Operand.(*ast.VarAccess); !ok {
				operand = "(" + operand + ")"
			}
		}
		return expr.Operator.Type.Operator() + operand
	case *ast.VarAccess:
		return genVarAccess(expr)
	}

	panic("Expression node has invalid static type.")
}

func genVarAccess(v *ast.VarAccess) string {
	if v.Boxed && v.Typ != ast.String {
		return fmt.Sprintf("(*%s)", v.Name())
	}
	return v.Name()
}

// precedence follows C, which is what the output is read by: the source
// language gives `==` the same precedence as `+` while C binds it looser.
func precedence(op token.TokenType) int {
	switch op {
	case token.STAR, token.SLASH, token.PERCENT:
		return 3
	case token.PLUS, token.MINUS:
		return 2
	}
	return 1
}

// genOperand renders a child of a binary operation, adding parentheses only
// where C would otherwise regroup it.
func genOperand(child ast.Node, parent token.TokenType, isRight bool) string {
	text := genExpression(child)

	switch child := child.(type) {
	case *ast.BinaryOp:
		childPrec, parentPrec := precedence(child.Operator.Type), precedence(parent)
		if childPrec < parentPrec || (isRight && childPrec == parentPrec) {
			return "(" + text + ")"
		}
	case *ast.UnaryOp:
		if isRight {
			return "(" + text + ")"
		}
	}

	return text
}

func genBinaryOp(b *ast.BinaryOp) string {
	op := b.Operator.Type
	left := genOperand(b.Left, op, false)
	right := genOperand(b.Right, op, true)

	if ast.TypeOf(b.Left) == ast.String {
		return fmt.Sprintf("strcmp(%s, %s) %s 0", left, right, op.Operator())
	}

	return left + op.Operator() + right
}

// Gen renders the module as a complete C translation unit.
func Gen(m *ast.Module) string {
	var b strings.Builder
	b.WriteString(Prelude)
	for _, statement := range m.Statements {
		b.WriteString(genStatement(statement))
	}
	return b.String()
}
