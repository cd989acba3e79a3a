package parser

import (
	"errors"
	"fmt"

	"github.com/kartiknair/fun/pkg/ast"
	"github.com/kartiknair/fun/pkg/diag"
	"github.com/kartiknair/fun/pkg/symtab"
	"github.com/kartiknair/fun/pkg/token"
)

var (
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrUndefinedVariable    = errors.New("undefined variable")
	ErrStandaloneExpression = errors.New("standalone expression")
)

type Parser struct {
	current int

	Module  *ast.Module
	Symbols *symtab.SymbolTable
}

func (p *Parser) parseError(t token.Token, err error) error {
	return &diag.Error{
		Severity: diag.Recoverable,
		Stage:    diag.ParseStage,
		Pos:      t.Pos,
		Context:  p.Module.TokenSourceContext(&t),
		Err:      err,
	}
}

func (p *Parser) peek(distance int) token.Token {
	i := p.current + distance
	if i >= len(p.Module.Tokens) {
		return p.Module.Tokens[len(p.Module.Tokens)-1]
	}
	return p.Module.Tokens[i]
}

// advance never moves past the EOF token.
func (p *Parser) advance() token.Token {
	t := p.peek(0)
	if t.Type != token.EOF {
		p.current++
	}
	return t
}

func (p *Parser) expect(typ token.TokenType, message string) (token.Token, error) {
	if t := p.peek(0); t.Type != typ {
		return t, p.parseError(t, fmt.Errorf(
			"%w: %s, found %s", ErrUnexpectedToken, message, t.Type,
		))
	}
	return p.advance(), nil
}

// parseBlock parses statements until `}` or the end of input. When it meets
// `fun main()` it returns that one function and nothing else: statements
// already collected at this level are discarded and whatever follows the
// function at this level is never looked at.
func (p *Parser) parseBlock() ([]ast.Node, error) {
	statements := []ast.Node{}

	for p.peek(0).Type != token.EOF && p.peek(0).Type != token.RIGHT_BRACE {
		if p.peek(0).Type == token.FUN {
			mainFunc, err := p.parseMainFunc()
			if err != nil {
				return nil, err
			}
			p.Module.Discarded += len(statements)
			return []ast.Node{mainFunc}, nil
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return statements, nil
}

// parseBody parses `{ statements }`.
func (p *Parser) parseBody(what string) (ast.Block, error) {
	if _, err := p.expect(token.LEFT_BRACE, fmt.Sprintf("expect `{` to open %s", what)); err != nil {
		return ast.Block{}, err
	}

	statements, err := p.parseBlock()
	if err != nil {
		return ast.Block{}, err
	}

	if _, err := p.expect(token.RIGHT_BRACE, fmt.Sprintf("expect `}` to close %s", what)); err != nil {
		return ast.Block{}, err
	}

	return ast.Block{Statements: statements}, nil
}

func (p *Parser) parseMainFunc() (*ast.MainFunc, error) {
	funToken := p.advance()

	if _, err := p.expect(token.MAIN, "expect `main` after `fun`"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LEFT_PAREN, "expect `(` after `main`"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RIGHT_PAREN, "expect `)` after `main(`"); err != nil {
		return nil, err
	}

	body, err := p.parseBody("the main function")
	if err != nil {
		return nil, err
	}

	return &ast.MainFunc{Body: body, FunToken: funToken}, nil
}

func (p *Parser) parseStatement() (ast.Node, error) {
	t := p.peek(0)

	switch t.Type {
	case token.PRINT:
		return p.parsePrint()
	case token.LET:
		return p.parseLet()
	case token.FOR:
		return p.parseFor()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.IDENTIFIER:
		return p.parseAssign()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if ast.IsPureValue(expr) {
		return nil, p.parseError(t, fmt.Errorf(
			"%w: a value cannot be used as a statement", ErrStandaloneExpression,
		))
	}

	return expr, nil
}

func (p *Parser) parsePrint() (ast.Node, error) {
	printToken := p.advance()

	if _, err := p.expect(token.LEFT_PAREN, "expect `(` after `print`"); err != nil {
		return nil, err
	}

	args := []ast.Node{}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	args = append(args, first)

	for p.peek(0).Type == token.COMMA {
		p.advance()
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if _, err := p.expect(token.RIGHT_PAREN, "expect `)` after print arguments"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "expect `;` after print statement"); err != nil {
		return nil, err
	}

	printNode, err := ast.NewPrint(printToken, args)
	if err != nil {
		return nil, p.parseError(printToken, err)
	}
	return printNode, nil
}

var annotations = map[token.TokenType]ast.ScalarType{
	token.INT_TYPE:    ast.Int,
	token.FLOAT_TYPE:  ast.Float,
	token.STRING_TYPE: ast.String,
}

func (p *Parser) parseLet() (ast.Node, error) {
	p.advance()

	name, err := p.expect(token.IDENTIFIER, "expect identifier after `let`")
	if err != nil {
		return nil, err
	}

	annotation := ast.None
	if p.peek(0).Type == token.COLON {
		p.advance()
		typeToken := p.peek(0)
		typ, ok := annotations[typeToken.Type]
		if !ok {
			return nil, p.parseError(typeToken, fmt.Errorf(
				"%w: expect `int`, `float` or `string` after `:`, found %s",
				ErrUnexpectedToken, typeToken.Type,
			))
		}
		p.advance()
		annotation = typ
	}

	if _, err := p.expect(token.EQUAL, "expect `=` in variable declaration"); err != nil {
		return nil, err
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON, "expect `;` after variable declaration"); err != nil {
		return nil, err
	}

	decl, err := ast.NewVarDecl(name, annotation, value)
	if err != nil {
		return nil, p.parseError(name, err)
	}

	p.Symbols.Declare(name.MustText(), symtab.VarInfo{Type: ast.TypeOf(value), Boxed: true})
	return decl, nil
}

func (p *Parser) parseAssign() (ast.Node, error) {
	name := p.advance()

	info, ok := p.Symbols.Lookup(name.MustText())
	if !ok {
		return nil, p.parseError(name, fmt.Errorf(
			"%w: variable '%s' used before declaration", ErrUndefinedVariable, name.MustText(),
		))
	}

	if _, err := p.expect(token.EQUAL, "expect `=` after variable name in assignment"); err != nil {
		return nil, err
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON, "expect `;` after assignment"); err != nil {
		return nil, err
	}

	assign, err := ast.NewVarAssign(name, info.Type, info.Boxed, value)
	if err != nil {
		return nil, p.parseError(name, err)
	}
	return assign, nil
}

func (p *Parser) parseFor() (ast.Node, error) {
	forToken := p.advance()

	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.COLON, "expect `:` between for loop bounds"); err != nil {
		return nil, err
	}

	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var step ast.Node
	if p.peek(0).Type == token.EQUAL {
		p.advance()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	variable, err := p.expect(token.IDENTIFIER, "expect loop variable name")
	if err != nil {
		return nil, err
	}

	p.Symbols.PushScope()
	p.Symbols.DeclareLocal(variable.MustText(), symtab.VarInfo{Type: ast.Int, Boxed: false})
	body, err := p.parseBody("the for loop body")
	p.Symbols.PopScope()
	if err != nil {
		return nil, err
	}

	loop, err := ast.NewForLoop(forToken, start, end, step, variable, body)
	if err != nil {
		return nil, p.parseError(forToken, err)
	}
	return loop, nil
}

func (p *Parser) parseIf() (ast.Node, error) {
	ifToken := p.advance()

	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBody("the if body")
	if err != nil {
		return nil, err
	}

	ifNode := &ast.If{Condition: condition, Body: body, IfToken: ifToken}

	for p.peek(0).Type == token.ELIF {
		p.advance()
		elifCondition, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elifBody, err := p.parseBody("the elif body")
		if err != nil {
			return nil, err
		}
		ifNode.ElseIfs = append(ifNode.ElseIfs, ast.ElseIf{Condition: elifCondition, Body: elifBody})
	}

	if p.peek(0).Type == token.ELSE {
		p.advance()
		elseBody, err := p.parseBody("the else body")
		if err != nil {
			return nil, err
		}
		ifNode.Else = &elseBody
	}

	return ifNode, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	whileToken := p.advance()

	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBody("the while body")
	if err != nil {
		return nil, err
	}

	return &ast.While{Condition: condition, Body: body, WhileToken: whileToken}, nil
}

func (p *Parser) parseExpression() (ast.Node, error) {
	return p.parseBinary(p.parseTerm, token.PLUS, token.MINUS, token.EQUAL_EQUAL, token.BANG_EQUAL)
}

func (p *Parser) parseTerm() (ast.Node, error) {
	return p.parseBinary(p.parseFactor, token.STAR, token.SLASH, token.PERCENT)
}

// parseBinary folds operands produced by next into a left-associative chain
// over the given operators.
func (p *Parser) parseBinary(next func() (ast.Node, error), ops ...token.TokenType) (ast.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for isOneOf(p.peek(0).Type, ops) {
		op := p.advance()

		right, err := next()
		if err != nil {
			return nil, err
		}

		binary, err := ast.NewBinaryOp(left, op, right)
		if err != nil {
			return nil, p.parseError(op, err)
		}
		left = binary
	}

	return left, nil
}

func isOneOf(typ token.TokenType, types []token.TokenType) bool {
	for _, t := range types {
		if typ == t {
			return true
		}
	}
	return false
}

func (p *Parser) parseFactor() (ast.Node, error) {
	var minus *token.Token
	negate := false

	for p.peek(0).Type == token.PLUS || p.peek(0).Type == token.MINUS {
		t := p.advance()
		if t.Type == token.MINUS {
			if minus == nil {
				minus = &t
			}
			negate = !negate
		}
	}

	operand, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if !negate {
		return operand, nil
	}

	unary, err := ast.NewUnaryOp(*minus, operand)
	if err != nil {
		return nil, p.parseError(*minus, err)
	}
	return unary, nil
}

func (p *Parser) parseOperand() (ast.Node, error) {
	t := p.peek(0)

	switch t.Type {
	case token.LEFT_PAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RIGHT_PAREN, "expect closing parenthesis"); err != nil {
			return nil, err
		}
		return expr, nil
	case token.INT, token.FLOAT:
		p.advance()
		return &ast.NumberLiteral{Token: t}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Token: t}, nil
	case token.IDENTIFIER:
		p.advance()
		info, ok := p.Symbols.Lookup(t.MustText())
		if !ok {
			return nil, p.parseError(t, fmt.Errorf(
				"%w: %s", ErrUndefinedVariable, t.MustText(),
			))
		}
		return &ast.VarAccess{Identifier: t, Typ: info.Type, Boxed: info.Boxed}, nil
	}

	return nil, p.parseError(t, fmt.Errorf(
		"%w: expected expression, found %s", ErrUnexpectedToken, t.Type,
	))
}

// Parse builds the module's statements from its tokens. The first error
// stops parsing; the module's statements are only set on success.
func Parse(m *ast.Module) error {
	return ParseWith(m, symtab.New())
}

// ParseWith parses using a caller-provided symbol table, which is left
// holding every file-scope declaration once parsing finishes.
func ParseWith(m *ast.Module, symbols *symtab.SymbolTable) error {
	if len(m.Tokens) == 0 || m.Tokens[len(m.Tokens)-1].Type != token.EOF {
		panic("Parse called on a module that has not been lexed.")
	}

	p := Parser{Module: m, Symbols: symbols}
	m.Discarded = 0
	m.Unparsed = 0

	statements, err := p.parseBlock()
	if err != nil {
		return err
	}

	if len(statements) == 1 {
		if _, ok := statements[0].(*ast.MainFunc); ok {
			m.Unparsed = len(m.Tokens) - 1 - p.current
			m.Statements = statements
			return nil
		}
	}

	if t := p.peek(0); t.Type != token.EOF {
		return p.parseError(t, fmt.Errorf("%w: %s has no matching `{`", ErrUnexpectedToken, t.Type))
	}

	m.Statements = statements
	return nil
}
