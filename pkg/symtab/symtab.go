package symtab

import (
	"github.com/kartiknair/fun/pkg/ast"
)

type VarInfo struct {
	Type ast.ScalarType
	// Boxed variables live in collector-allocated storage and are read
	// through a pointer. Loop induction variables are not boxed.
	Boxed bool
}

// SymbolTable is a stack of scopes whose bottom is the file scope.
//
// Scoping is lopsided: `let` always binds in the file scope, so
// declarations made inside any block stay visible for the rest of the file.
// Only loop headers push a scope, holding nothing but the induction
// variable, and popping it is the only way a name ever goes away.
type SymbolTable struct {
	scopes []map[string]VarInfo
}

func New() *SymbolTable {
	return &SymbolTable{
		scopes: []map[string]VarInfo{make(map[string]VarInfo)},
	}
}

// Declare binds name in the file scope, replacing any earlier binding. The
// name is also dropped from open loop scopes so that later lookups inside
// the loop see this declaration, not the induction variable it overwrote.
func (s *SymbolTable) Declare(name string, info VarInfo) {
	s.scopes[0][name] = info
	for _, scope := range s.scopes[1:] {
		delete(scope, name)
	}
}

// DeclareLocal binds name in the innermost scope.
func (s *SymbolTable) DeclareLocal(name string, info VarInfo) {
	if len(s.scopes) == 1 {
		panic("DeclareLocal called without an open scope.")
	}
	s.scopes[len(s.scopes)-1][name] = info
}

func (s *SymbolTable) Lookup(name string) (VarInfo, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if info, ok := s.scopes[i][name]; ok {
			return info, true
		}
	}
	return VarInfo{}, false
}

func (s *SymbolTable) PushScope() {
	s.scopes = append(s.scopes, make(map[string]VarInfo))
}

func (s *SymbolTable) PopScope() {
	if len(s.scopes) == 1 {
		panic("PopScope called on the file scope.")
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Depth is the number of open scopes above the file scope.
func (s *SymbolTable) Depth() int {
	return len(s.scopes) - 1
}
