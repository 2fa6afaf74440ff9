// Package symbols implements the scope-stack symbol table used by the
// weave analyzer: a stack of scope maps resolved innermost-first.
package symbols

import "weave/internal/weave"

// Symbol records a declared name's weave, declaration depth, storage slot,
// and mutability. Symbols never mutate after creation except through the
// analyzer's separate parent-chain map (the Analyzer's parents field).
type Symbol struct {
	Name     string
	Weave    weave.Weave
	Depth    int
	SlotIdx  int
	Mutable  bool
}

// Table is a stack of scopes, each mapping a name to its Symbol. Lookup
// walks the stack from the innermost (last-pushed) scope outward.
type Table struct {
	scopes []map[string]Symbol
}

// New returns a Table with a single (global, depth 0) scope already open.
func New() *Table {
	return &Table{scopes: []map[string]Symbol{{}}}
}

// NewScope pushes a fresh, empty scope.
func (t *Table) NewScope() {
	t.scopes = append(t.scopes, map[string]Symbol{})
}

// EndScope pops the innermost scope.
func (t *Table) EndScope() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Define inserts a symbol into the current (innermost) scope and returns it.
func (t *Table) Define(name string, w weave.Weave, mutable bool, slotIdx int) Symbol {
	depth := len(t.scopes) - 1
	sym := Symbol{
		Name:    name,
		Weave:   w,
		Depth:   depth,
		SlotIdx: slotIdx,
		Mutable: mutable,
	}
	t.scopes[depth][name] = sym
	return sym
}

// Resolve looks a name up starting from the innermost scope, returning the
// first match and true, or the zero Symbol and false.
func (t *Table) Resolve(name string) (Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// ResolveInScope reports whether name is declared in the current (innermost)
// scope only, used to reject redeclaration while still allowing shadowing.
func (t *Table) ResolveInScope(name string) (Symbol, bool) {
	sym, ok := t.scopes[len(t.scopes)-1][name]
	return sym, ok
}

// CurrentScopeSize returns the number of symbols declared in the innermost
// scope. The analyzer does not use it for slot indices; it assigns those
// from its own flat per-function counter.
func (t *Table) CurrentScopeSize() int {
	return len(t.scopes[len(t.scopes)-1])
}

// Depth returns the current nesting depth (0 = global).
func (t *Table) Depth() int {
	return len(t.scopes) - 1
}
