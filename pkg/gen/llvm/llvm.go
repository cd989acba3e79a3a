package llvmgen

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kartiknair/fun/pkg/ast"
	"github.com/kartiknair/fun/pkg/diag"
	"github.com/kartiknair/fun/pkg/token"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

var (
	ErrNoMainFunction       = errors.New("program has no main function")
	ErrStatementOutsideMain = errors.New("statement outside of main")
	ErrNestedMainFunction   = errors.New("main function declared inside main")
	ErrUndefinedVariable    = errors.New("undefined variable")
)

// slot is the stack storage of a variable. Boxed slots hold a pointer to
// collector memory, strings hold the buffer pointer, and loop variables hold
// the value itself.
type slot struct {
	typ   ast.ScalarType
	boxed bool
	addr  *ir.InstAlloca
}

type llvmStr struct {
	raw string
	def *ir.Global
}

func (l *llvmStr) gep() value.Value {
	return constant.NewGetElementPtr(
		types.NewArray(uint64(len(l.raw)+1), types.I8),
		l.def,
		constant.NewInt(types.I32, 0),
		constant.NewInt(types.I32, 0),
	)
}

type generator struct {
	source *ast.Module
	module *ir.Module
	entry  *ir.Block
	block  *ir.Block

	// scopes mirror the parser: bottom is the function scope, the rest are
	// opened by loop headers.
	scopes  []map[string]*slot
	strings map[string]*llvmStr

	gcInit  *ir.Func
	gcAlloc *ir.Func
	strlen  *ir.Func
	strcpy  *ir.Func
	strcmp  *ir.Func
	printf  *ir.Func

	// first error met while lowering an expression.
	err error
}

func newGenerator(source *ast.Module) *generator {
	g := &generator{
		source:  source,
		module:  ir.NewModule(),
		scopes:  []map[string]*slot{make(map[string]*slot)},
		strings: make(map[string]*llvmStr),
	}
	g.module.SourceFilename = source.Path

	g.gcInit = g.module.NewFunc("GC_init", types.Void)
	g.gcAlloc = g.module.NewFunc("GC_malloc", types.I8Ptr, ir.NewParam("", types.I64))
	g.strlen = g.module.NewFunc("strlen", types.I64, ir.NewParam("", types.I8Ptr))
	g.strcpy = g.module.NewFunc("strcpy", types.I8Ptr, ir.NewParam("", types.I8Ptr), ir.NewParam("", types.I8Ptr))
	g.strcmp = g.module.NewFunc("strcmp", types.I32, ir.NewParam("", types.I8Ptr), ir.NewParam("", types.I8Ptr))
	g.printf = g.module.NewFunc("printf", types.I32, ir.NewParam("", types.I8Ptr))
	g.printf.Sig.Variadic = true

	return g
}

func genType(t ast.ScalarType) types.Type {
	switch t {
	case ast.Int:
		return types.I32
	case ast.Float:
		return types.Float
	case ast.String:
		return types.I8Ptr
	}

	panic("Type has no LLVM representation.")
}

// unescape turns the escape sequences of a literal into the bytes they stand
// for. Text that is not a valid Go string body, such as one spanning lines,
// is used as written.
func unescape(raw string) string {
	if s, err := strconv.Unquote(`"` + raw + `"`); err == nil {
		return s
	}
	return raw
}

func (g *generator) stringConstant(raw string) *llvmStr {
	if l, ok := g.strings[raw]; ok {
		return l
	}

	l := &llvmStr{raw: raw}
	l.def = g.module.NewGlobalDef("", constant.NewCharArrayFromString(raw+"\x00"))
	l.def.Linkage = enum.LinkagePrivate
	l.def.Immutable = true
	g.strings[raw] = l
	return l
}

func (g *generator) lookup(name string) (*slot, bool) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if s, ok := g.scopes[i][name]; ok {
			return s, true
		}
	}
	return nil, false
}

// undefined reports a name that has no storage in main. The parser accepts
// these when the declaration was dropped along with the code before main.
func (g *generator) undefined(ident token.Token) error {
	return genError(g.source, ident.Pos, fmt.Errorf("%w: %s", ErrUndefinedVariable, ident.Lexeme))
}

// declare binds name in the function scope, reusing the earlier slot when
// the type is unchanged.
func (g *generator) declare(name string, typ ast.ScalarType) *slot {
	for _, scope := range g.scopes[1:] {
		delete(scope, name)
	}

	if s, ok := g.scopes[0][name]; ok && s.typ == typ {
		return s
	}

	storage := genType(typ)
	if typ != ast.String {
		storage = types.NewPointer(storage)
	}

	s := &slot{typ: typ, boxed: true, addr: g.entry.NewAlloca(storage)}
	g.scopes[0][name] = s
	return s
}

// copyString returns a collector-allocated copy of the string v.
func (g *generator) copyString(v value.Value) value.Value {
	length := g.block.NewCall(g.strlen, v)
	size := g.block.NewAdd(length, constant.NewInt(types.I64, 1))
	buffer := g.block.NewCall(g.gcAlloc, size)
	g.block.NewCall(g.strcpy, buffer, v)
	return buffer
}

func (g *generator) store(s *slot, v value.Value) {
	switch {
	case s.typ == ast.String:
		g.block.NewStore(g.copyString(v), s.addr)
	case !s.boxed:
		g.block.NewStore(v, s.addr)
	default:
		box := g.block.NewLoad(types.NewPointer(genType(s.typ)), s.addr)
		g.block.NewStore(v, box)
	}
}

func (g *generator) genVarDecl(decl *ast.VarDecl) {
	typ := ast.TypeOf(decl.Value)
	v := g.genExpression(decl.Value)

	s := g.declare(decl.Name(), typ)

	if typ == ast.String {
		g.store(s, v)
		return
	}

	// four bytes fit both int and float.
	raw := g.block.NewCall(g.gcAlloc, constant.NewInt(types.I64, 4))
	box := g.block.NewBitCast(raw, types.NewPointer(genType(typ)))
	g.block.NewStore(v, box)
	g.block.NewStore(box, s.addr)
}

func (g *generator) genPrint(p *ast.Print) {
	format := g.stringConstant(unescape(p.Format()))

	args := []value.Value{format.gep()}
	for _, arg := range p.Arguments {
		v := g.genExpression(arg)
		if ast.TypeOf(arg) == ast.Float {
			// variadic floats are passed as double.
			v = g.block.NewFPExt(v, types.Double)
		}
		args = append(args, v)
	}

	g.block.NewCall(g.printf, args...)
}

func (g *generator) genForLoop(f *ast.ForLoop) error {
	counter := g.entry.NewAlloca(types.I32)
	g.block.NewStore(g.genExpression(f.Start), counter)

	g.scopes = append(g.scopes, map[string]*slot{
		f.Name(): {typ: ast.Int, boxed: false, addr: counter},
	})
	defer func() { g.scopes = g.scopes[:len(g.scopes)-1] }()

	condBlock := g.block.Parent.NewBlock("")
	bodyBlock := g.block.Parent.NewBlock("")
	stepBlock := g.block.Parent.NewBlock("")
	afterBlock := g.block.Parent.NewBlock("")

	g.block.NewBr(condBlock)

	g.block = condBlock
	current := g.block.NewLoad(types.I32, counter)
	end := g.genExpression(f.End)
	g.block.NewCondBr(g.block.NewICmp(enum.IPredSLT, current, end), bodyBlock, afterBlock)

	g.block = bodyBlock
	if err := g.genBlock(f.Body); err != nil {
		return err
	}
	if g.block.Term == nil {
		g.block.NewBr(stepBlock)
	}

	g.block = stepBlock
	var step value.Value = constant.NewInt(types.I32, 1)
	if f.Step != nil {
		step = g.genExpression(f.Step)
	}
	// the loop variable may have been shadowed by a `let` in the body.
	current = g.block.NewLoad(types.I32, counter)
	g.block.NewStore(g.block.NewAdd(current, step), counter)
	g.block.NewBr(condBlock)

	g.block = afterBlock
	return nil
}

func (g *generator) genIf(s *ast.If) error {
	branches := append([]ast.ElseIf{{Condition: s.Condition, Body: s.Body}}, s.ElseIfs...)
	afterBlock := g.block.Parent.NewBlock("")

	for _, branch := range branches {
		iftrueBlock := g.block.Parent.NewBlock("")
		iffalseBlock := g.block.Parent.NewBlock("")
		g.block.NewCondBr(g.genCondition(branch.Condition), iftrueBlock, iffalseBlock)

		g.block = iftrueBlock
		if err := g.genBlock(branch.Body); err != nil {
			return err
		}
		if g.block.Term == nil {
			g.block.NewBr(afterBlock)
		}

		g.block = iffalseBlock
	}

	if s.Else != nil {
		if err := g.genBlock(*s.Else); err != nil {
			return err
		}
	}
	if g.block.Term == nil {
		g.block.NewBr(afterBlock)
	}

	g.block = afterBlock
	return nil
}

func (g *generator) genWhile(s *ast.While) error {
	condBlock := g.block.Parent.NewBlock("")
	loopBlock := g.block.Parent.NewBlock("")
	afterBlock := g.block.Parent.NewBlock("")

	g.block.NewBr(condBlock)

	g.block = condBlock
	g.block.NewCondBr(g.genCondition(s.Condition), loopBlock, afterBlock)

	g.block = loopBlock
	if err := g.genBlock(s.Body); err != nil {
		return err
	}
	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.block = afterBlock
	return nil
}

func (g *generator) genStatement(stmt ast.Node) error {
	switch stmt := stmt.(type) {
	case *ast.VarDecl:
		g.genVarDecl(stmt)
	case *ast.VarAssign:
		s, ok := g.lookup(stmt.Name())
		if !ok {
			return g.undefined(stmt.Identifier)
		}
		g.store(s, g.genExpression(stmt.Value))
	case *ast.Print:
		g.genPrint(stmt)
	case *ast.MainFunc:
		return genError(g.source, stmt.FunToken.Pos, ErrNestedMainFunction)
	case *ast.ForLoop:
		return g.genForLoop(stmt)
	case *ast.If:
		return g.genIf(stmt)
	case *ast.While:
		return g.genWhile(stmt)
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BinaryOp, *ast.UnaryOp, *ast.VarAccess:
		g.genExpression(stmt)
	default:
		panic("Statement node has invalid static type.")
	}

	return nil
}

func (g *generator) genBlock(block ast.Block) error {
	for _, stmt := range block.Statements {
		if err := g.genStatement(stmt); err != nil {
			return err
		}
		if g.err != nil {
			return g.err
		}
	}
	return nil
}

func (g *generator) toFloat(v value.Value, t ast.ScalarType) value.Value {
	if t == ast.Int {
		return g.block.NewSIToFP(v, types.Float)
	}
	return v
}

// genCondition reduces a value to i1 the way C tests it: non-zero numbers
// and non-null strings are true.
func (g *generator) genCondition(expr ast.Node) value.Value {
	v := g.genExpression(expr)

	switch ast.TypeOf(expr) {
	case ast.Int:
		return g.block.NewICmp(enum.IPredNE, v, constant.NewInt(types.I32, 0))
	case ast.Float:
		return g.block.NewFCmp(enum.FPredUNE, v, constant.NewFloat(types.Float, 0))
	case ast.String:
		return g.block.NewICmp(enum.IPredNE, v, constant.NewNull(types.I8Ptr))
	}

	panic("Condition has no value.")
}

func (g *generator) genEquality(b *ast.BinaryOp) value.Value {
	lt, rt := ast.TypeOf(b.Left), ast.TypeOf(b.Right)
	left, right := g.genExpression(b.Left), g.genExpression(b.Right)
	equal := b.Operator.Type == token.EQUAL_EQUAL

	var result value.Value
	switch {
	case lt == ast.String:
		cmp := g.block.NewCall(g.strcmp, left, right)
		pred := enum.IPredNE
		if equal {
			pred = enum.IPredEQ
		}
		result = g.block.NewICmp(pred, cmp, constant.NewInt(types.I32, 0))
	case lt == ast.Float || rt == ast.Float:
		pred := enum.FPredUNE
		if equal {
			pred = enum.FPredOEQ
		}
		result = g.block.NewFCmp(pred, g.toFloat(left, lt), g.toFloat(right, rt))
	default:
		pred := enum.IPredNE
		if equal {
			pred = enum.IPredEQ
		}
		result = g.block.NewICmp(pred, left, right)
	}

	return g.block.NewZExt(result, types.I32)
}

func (g *generator) genBinaryOp(b *ast.BinaryOp) value.Value {
	if b.Operator.Type.IsEquality() {
		return g.genEquality(b)
	}

	left, right := g.genExpression(b.Left), g.genExpression(b.Right)

	if b.Typ == ast.Float {
		left = g.toFloat(left, ast.TypeOf(b.Left))
		right = g.toFloat(right, ast.TypeOf(b.Right))

		switch b.Operator.Type {
		case token.PLUS:
			return g.block.NewFAdd(left, right)
		case token.MINUS:
			return g.block.NewFSub(left, right)
		case token.STAR:
			return g.block.NewFMul(left, right)
		case token.SLASH:
			return g.block.NewFDiv(left, right)
		}
	} else {
		switch b.Operator.Type {
		case token.PLUS:
			return g.block.NewAdd(left, right)
		case token.MINUS:
			return g.block.NewSub(left, right)
		case token.STAR:
			return g.block.NewMul(left, right)
		case token.SLASH:
			return g.block.NewSDiv(left, right)
		case token.PERCENT:
			return g.block.NewSRem(left, right)
		}
	}

	panic(fmt.Sprintf("Operator %s has no %s form.", b.Operator.Type, b.Typ))
}

func (g *generator) genVarAccess(v *ast.VarAccess) value.Value {
	s, ok := g.lookup(v.Name())
	if !ok {
		if g.err == nil {
			g.err = g.undefined(v.Identifier)
		}
		return constant.NewUndef(genType(v.Typ))
	}

	if s.typ == ast.String || !s.boxed {
		return g.block.NewLoad(genType(s.typ), s.addr)
	}

	box := g.block.NewLoad(types.NewPointer(genType(s.typ)), s.addr)
	return g.block.NewLoad(genType(s.typ), box)
}

func (g *generator) genExpression(expr ast.Node) value.Value {
	switch expr := expr.(type) {
	case *ast.NumberLiteral:
		if expr.Token.Type == token.FLOAT {
			return constant.NewFloat(types.Float, float64(expr.Token.Float))
		}
		return constant.NewInt(types.I32, int64(expr.Token.Int))
	case *ast.StringLiteral:
		return g.stringConstant(unescape(expr.Value())).gep()
	case *ast.BinaryOp:
		return g.genBinaryOp(expr)
	case *ast.UnaryOp:
		operand := g.genExpression(expr.Operand)
		if ast.TypeOf(expr.Operand) == ast.Float {
			return g.block.NewFNeg(operand)
		}
		return g.block.NewSub(constant.NewInt(types.I32, 0), operand)
	case *ast.VarAccess:
		return g.genVarAccess(expr)
	}

	panic("Expression node has invalid static type.")
}

func genError(m *ast.Module, pos token.Pos, err error) error {
	return &diag.Error{
		Severity: diag.Recoverable,
		Stage:    diag.GenStage,
		Pos:      pos,
		Context:  m.SourceContext(pos),
		Err:      err,
	}
}

func statementPos(stmt ast.Node) token.Pos {
	switch stmt := stmt.(type) {
	case *ast.VarDecl:
		return stmt.Identifier.Pos
	case *ast.VarAssign:
		return stmt.Identifier.Pos
	case *ast.Print:
		return stmt.PrintToken.Pos
	case *ast.ForLoop:
		return stmt.ForToken.Pos
	case *ast.If:
		return stmt.IfToken.Pos
	case *ast.While:
		return stmt.WhileToken.Pos
	}
	return token.Pos{Line: 1, Column: 1}
}

// Gen lowers a module to textual LLVM IR. Only a program made of a single
// `fun main` can be lowered: IR has no place for statements outside of a
// function.
func Gen(m *ast.Module) (string, error) {
	if len(m.Statements) == 0 {
		return "", genError(m, token.Pos{Line: 1, Column: 1}, ErrNoMainFunction)
	}

	mainFunc, ok := m.Statements[0].(*ast.MainFunc)
	if !ok || len(m.Statements) > 1 {
		return "", genError(m, statementPos(m.Statements[0]), ErrStatementOutsideMain)
	}

	g := newGenerator(m)

	fun := g.module.NewFunc("main", types.I32)
	g.entry = fun.NewBlock("")
	g.block = g.entry
	g.block.NewCall(g.gcInit)

	if err := g.genBlock(mainFunc.Body); err != nil {
		return "", err
	}

	g.block.NewRet(constant.NewInt(types.I32, 0))

	return g.module.String(), nil
}
