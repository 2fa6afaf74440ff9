// Package codegen lowers a typed wovenast tree into a value.Spell: an
// assembled bytecode.Instruction stream plus a deduplicated constant pool.
// Grounded heavily on the teacher's internal/compregister/compiler.go —
// the RegisterAllocator, the scope/loop-stack shape, and the
// emit-then-patch-jump idiom are all carried over — extended with real
// closure/upvalue emission, which the teacher's compileFunctionStmt never
// needed because sentra has no first-class nested functions.
package codegen

import (
	"fmt"

	"weave/internal/bytecode"
	"weave/internal/diagnostics"
	"weave/internal/value"
	"weave/internal/wovenast"
)

// upKey identifies a captured variable by its position in the enclosing
// frame at the point of capture, matching wovenast.UpValueMeta.
type upKey struct {
	Depth int
	Slot  int
}

// loopFrame tracks the pending jumps for one active loop so that sever
// (break) and flow (continue) can be patched once the loop's full extent
// is known.
type loopFrame struct {
	loopStartIdx int   // instruction index of the first condition instruction
	severJumps   []int // Jump instructions to patch to just past the Loop instruction
	flowJumps    []int // Jump instructions to patch to the Loop instruction itself
}

// regAlloc is a small bump allocator with a free list, mirroring the
// teacher's RegisterAllocator. Locked registers (named locals and the
// reserved upvalue window) are never handed back out by Alloc.
type regAlloc struct {
	next   int
	free   []int
	locked map[int]bool
}

func newRegAlloc() *regAlloc {
	return &regAlloc{locked: map[int]bool{}}
}

func (r *regAlloc) Alloc() int {
	for n := len(r.free); n > 0; n = len(r.free) {
		reg := r.free[n-1]
		r.free = r.free[:n-1]
		if !r.locked[reg] {
			return reg
		}
	}
	reg := r.next
	r.next++
	return reg
}

// AllocBlock reserves n consecutive fresh registers, bypassing the free
// list (which cannot be relied on to hand back a contiguous run) — used to
// pack call arguments into the contiguous block a Cast instruction expects.
func (r *regAlloc) AllocBlock(n int) int {
	start := r.next
	r.next += n
	return start
}

func (r *regAlloc) Free(reg int) {
	if r.locked[reg] {
		return
	}
	r.free = append(r.free, reg)
}

func (r *regAlloc) Lock(reg int) {
	r.locked[reg] = true
}

// Reserve bumps the next-free watermark so that subsequent Allocs never
// collide with a register claimed directly by slot index.
func (r *regAlloc) Reserve(minNext int) {
	if minNext > r.next {
		r.next = minNext
	}
}

// funcState is the compilation state for one spell body (or the root
// script, treated as an arity-0, upvalue-free spell of its own).
type funcState struct {
	code      []bytecode.Instruction
	positions []int // byte offset of each instruction, parallel to code
	bytePos   int
	constants []value.Value

	alloc *regAlloc
	loops []*loopFrame

	inSpell      bool
	upvalueCount int
	upvalueReg   map[upKey]int
}

func newFuncState() *funcState {
	return &funcState{alloc: newRegAlloc(), upvalueReg: map[upKey]int{}}
}

// Generator walks a typed tree and produces a root value.Spell. Nested
// spells compile into their own funcState and are embedded as Spell
// constants in their defining function's pool, per the spec's closure
// materialization model.
type Generator struct {
	states []*funcState
	errs   []*diagnostics.Diagnostic
	reg    int // result register stashed by the last Visit* expression call
}

// New returns a fresh Generator.
func New() *Generator {
	return &Generator{}
}

// Generate compiles a full program into the root spell. The root behaves
// like any other spell with Name "<script>", Arity 0, and no upvalues.
func Generate(stmts []wovenast.Stmt) (*value.Spell, []*diagnostics.Diagnostic) {
	g := New()
	g.states = append(g.states, newFuncState())
	for _, s := range stmts {
		if err := g.stmt(s); err != nil {
			g.errs = append(g.errs, asDiagnostic(err))
		}
	}
	if len(g.errs) > 0 {
		return nil, g.errs
	}
	st := g.cur()
	g.emit(bytecode.Instruction{Op: bytecode.OpHalt})
	return &value.Spell{
		Name:         "<script>",
		Arity:        0,
		UpvalueCount: 0,
		Constants:    st.constants,
		Bytecode:     bytecode.Assemble(st.code),
	}, nil
}

func asDiagnostic(err error) *diagnostics.Diagnostic {
	if d, ok := err.(*diagnostics.Diagnostic); ok {
		return d
	}
	return diagnostics.New(diagnostics.CodeGenPhase, err.Error(), 0, 0, "")
}

func (g *Generator) fail(format string, args ...interface{}) error {
	return diagnostics.New(diagnostics.CodeGenPhase, fmt.Sprintf(format, args...), 0, 0, "")
}

func (g *Generator) cur() *funcState { return g.states[len(g.states)-1] }

// emit appends an instruction, recording its byte position, and returns its
// index within the current function's instruction slice.
func (g *Generator) emit(ins bytecode.Instruction) int {
	st := g.cur()
	idx := len(st.code)
	st.positions = append(st.positions, st.bytePos)
	st.code = append(st.code, ins)
	st.bytePos += ins.Op.Len()
	return idx
}

// patchJump patches a forward Jump/JumpIfFalse at idx to land at the
// current end of the instruction stream.
func (g *Generator) patchJump(idx int) error {
	return g.patchJumpToPos(idx, g.cur().bytePos)
}

// patchJumpTo patches a forward jump at idx to land exactly at the start
// of the instruction at targetIdx.
func (g *Generator) patchJumpTo(idx, targetIdx int) error {
	return g.patchJumpToPos(idx, g.cur().positions[targetIdx])
}

func (g *Generator) patchJumpToPos(idx, targetPos int) error {
	st := g.cur()
	from := st.positions[idx] + st.code[idx].Op.Len()
	dist := targetPos - from
	if dist < 0 || dist > 65535 {
		return g.fail("jump distance %d out of range", dist)
	}
	st.code[idx].Idx = uint16(dist)
	return nil
}

// emitLoop emits a backward Loop instruction jumping to loopStartIdx.
func (g *Generator) emitLoop(loopStartIdx int) error {
	st := g.cur()
	idx := g.emit(bytecode.Instruction{Op: bytecode.OpLoop})
	from := st.positions[idx] + st.code[idx].Op.Len()
	dist := from - st.positions[loopStartIdx]
	if dist < 0 || dist > 65535 {
		return g.fail("loop distance %d out of range", dist)
	}
	st.code[idx].Idx = uint16(dist)
	return nil
}

// addConstant interns v into the current function's constant pool,
// deduplicating equal numbers/strings/bools; spells and closures are
// never deduplicated since each materialization is distinct.
func (g *Generator) addConstant(v value.Value) uint16 {
	st := g.cur()
	if v.Kind() != value.KindSpell && v.Kind() != value.KindClosure {
		for i, c := range st.constants {
			if c.Kind() == v.Kind() && c.Equal(v) {
				return uint16(i)
			}
		}
	}
	st.constants = append(st.constants, v)
	return uint16(len(st.constants) - 1)
}
