package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kartiknair/fun/pkg/ast"
	cgen "github.com/kartiknair/fun/pkg/gen/c"
	llvmgen "github.com/kartiknair/fun/pkg/gen/llvm"
)

type Target int

const (
	C Target = iota
	LLVM
)

var ErrUnknownTarget = errors.New("unknown target")

func (t Target) String() string {
	switch t {
	case C:
		return "c"
	case LLVM:
		return "llvm"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// Extension is the file extension of an intermediate file for the target.
func (t Target) Extension() string {
	if t == LLVM {
		return ".ll"
	}
	return ".c"
}

// Language is what the C compiler driver is told to read from stdin.
func (t Target) Language() string {
	if t == LLVM {
		return "ir"
	}
	return "c"
}

func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(name) {
	case "c", "":
		return C, nil
	case "llvm", "ll", "ir":
		return LLVM, nil
	}
	return C, fmt.Errorf("%w: %q, expected \"c\" or \"llvm\"", ErrUnknownTarget, name)
}

func Gen(m *ast.Module, target Target) (string, error) {
	switch target {
	case C:
		return cgen.Gen(m), nil
	case LLVM:
		return llvmgen.Gen(m)
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTarget, target)
}
