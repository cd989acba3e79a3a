package gen

import (
	"errors"
	"testing"

	"github.com/kartiknair/fun/pkg/ast"
	cgen "github.com/kartiknair/fun/pkg/gen/c"
	"github.com/kartiknair/fun/pkg/lexer"
	"github.com/kartiknair/fun/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// test target names
func TestParseTarget(t *testing.T) {
	check := func(name string, expected Target) {
		target, err := ParseTarget(name)
		if assert.NoError(t, err, "name: %q", name) {
			assert.Equal(t, expected, target)
		}
	}

	check("", C)
	check("c", C)
	check("C", C)
	check("llvm", LLVM)
	check("ir", LLVM)

	_, err := ParseTarget("wasm")
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, ErrUnknownTarget))
	}

	assert.Equal(t, "c", C.String())
	assert.Equal(t, "llvm", LLVM.String())
	assert.Equal(t, ".ll", LLVM.Extension())
	assert.Equal(t, ".c", C.Extension())
	assert.Equal(t, "ir", LLVM.Language())
	assert.Equal(t, "c", C.Language())
}

// test dispatch to the back ends
func TestGen(t *testing.T) {
	m := &ast.Module{Path: "test.fun", Source: `fun main() { print("hi"); }`}
	require.NoError(t, lexer.Lex(m))
	require.NoError(t, parser.Parse(m))

	out, err := Gen(m, C)
	if assert.NoError(t, err) {
		assert.Equal(t, cgen.Gen(m), out)
	}

	out, err = Gen(m, LLVM)
	if assert.NoError(t, err) {
		assert.Contains(t, out, "define i32 @main()")
	}

	_, err = Gen(m, Target(7))
	assert.True(t, errors.Is(err, ErrUnknownTarget))
}
