package codegen

import "weave/internal/symbols"

// registerOf returns the register that holds sym's value in the current
// function, and whether sym is a global (in which case no fixed register
// applies and reads/writes go through GetGlobal/SetGlobal instead).
//
// Outside a spell, a local's register is simply its slot index: blocks
// never overlap in lifetime with their siblings, so register reuse across
// sibling scopes is safe without a live-range analysis. Inside a spell,
// the first upvalueCount registers are reserved for captured variables
// (in first-capture order, per the analyzer's UpvalueMetas) and every
// local's register is offset past that window.
func (g *Generator) registerOf(sym symbols.Symbol) (reg int, isGlobal bool) {
	if sym.Depth == 0 {
		return 0, true
	}
	st := g.cur()
	if st.inSpell {
		if idx, ok := st.upvalueReg[upKey{Depth: sym.Depth, Slot: sym.SlotIdx}]; ok {
			return idx, false
		}
		return st.upvalueCount + sym.SlotIdx, false
	}
	return sym.SlotIdx, false
}

// claimLocal reserves and locks the register backing a freshly declared
// local or reagent so later temporary allocation never collides with it.
func (g *Generator) claimLocal(sym symbols.Symbol) int {
	reg, _ := g.registerOf(sym)
	st := g.cur()
	st.alloc.Reserve(reg + 1)
	st.alloc.Lock(reg)
	return reg
}
