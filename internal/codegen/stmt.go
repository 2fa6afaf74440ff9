package codegen

import (
	"weave/internal/bytecode"
	"weave/internal/symbols"
	"weave/internal/value"
	"weave/internal/wovenast"
)

// stmt lowers one typed statement. Errors are accumulated by the caller;
// a failing statement still leaves the generator in a usable state for
// whatever statements follow, matching the analyzer's recover-and-continue
// behavior.
func (g *Generator) stmt(s wovenast.Stmt) error {
	return s.Accept(g)
}

func (g *Generator) VisitBlock(s *wovenast.Block) error {
	for _, inner := range s.Statements {
		if err := g.stmt(inner); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) VisitExprStmt(s *wovenast.ExprStmt) error {
	reg, err := g.compileExpr(s.Expr)
	if err != nil {
		return err
	}
	g.freeTemp(reg)
	return nil
}

func (g *Generator) VisitChant(s *wovenast.Chant) error {
	reg, err := g.compileExpr(s.Expr)
	if err != nil {
		return err
	}
	g.emit(bytecode.Instruction{Op: bytecode.OpPrint, A: byte(reg)})
	g.freeTemp(reg)
	return nil
}

func (g *Generator) VisitVarDeclaration(s *wovenast.VarDeclaration) error {
	src, err := g.compileExpr(s.Initializer)
	if err != nil {
		return err
	}
	if s.Symbol.Depth == 0 {
		nameIdx := g.addConstant(value.BoxString(s.Symbol.Name))
		g.emit(bytecode.Instruction{Op: bytecode.OpSetGlobal, A: byte(src), Idx: nameIdx})
		g.freeTemp(src)
		return nil
	}
	target := g.claimLocal(s.Symbol)
	if src != target {
		g.emit(bytecode.Instruction{Op: bytecode.OpMove, A: byte(target), Idx: uint16(src)})
	}
	g.freeTemp(src)
	return nil
}

func (g *Generator) VisitFate(s *wovenast.Fate) error {
	cond, err := g.compileExpr(s.Condition)
	if err != nil {
		return err
	}
	jumpIfFalse := g.emit(bytecode.Instruction{Op: bytecode.OpJumpIfFalse, A: byte(cond)})
	g.freeTemp(cond)

	if err := g.stmt(s.Then); err != nil {
		return err
	}

	if s.Else == nil {
		return g.patchJump(jumpIfFalse)
	}
	jumpOverElse := g.emit(bytecode.Instruction{Op: bytecode.OpJump})
	if err := g.patchJump(jumpIfFalse); err != nil {
		return err
	}
	if err := g.stmt(s.Else); err != nil {
		return err
	}
	return g.patchJump(jumpOverElse)
}

func (g *Generator) VisitWhile(s *wovenast.While) error {
	st := g.cur()
	loopStartIdx := len(st.code)

	cond, err := g.compileExpr(s.Condition)
	if err != nil {
		return err
	}
	exitJump := g.emit(bytecode.Instruction{Op: bytecode.OpJumpIfFalse, A: byte(cond)})
	g.freeTemp(cond)

	frame := &loopFrame{loopStartIdx: loopStartIdx}
	st.loops = append(st.loops, frame)

	bodyErr := g.stmt(s.Body)

	loopInstrIdx := len(st.code)
	var loopErr error
	if bodyErr == nil {
		loopErr = g.emitLoop(loopStartIdx)
	}

	st.loops = st.loops[:len(st.loops)-1]
	if bodyErr != nil {
		return bodyErr
	}
	if loopErr != nil {
		return loopErr
	}

	if err := g.patchJump(exitJump); err != nil {
		return err
	}
	for _, idx := range frame.severJumps {
		if err := g.patchJump(idx); err != nil {
			return err
		}
	}
	for _, idx := range frame.flowJumps {
		if err := g.patchJumpTo(idx, loopInstrIdx); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) VisitSever(s *wovenast.Sever) error {
	st := g.cur()
	if len(st.loops) == 0 {
		return g.fail("'sever' used outside a loop")
	}
	frame := st.loops[len(st.loops)-1]
	idx := g.emit(bytecode.Instruction{Op: bytecode.OpJump})
	frame.severJumps = append(frame.severJumps, idx)
	return nil
}

func (g *Generator) VisitFlow(s *wovenast.Flow) error {
	st := g.cur()
	if len(st.loops) == 0 {
		return g.fail("'flow' used outside a loop")
	}
	frame := st.loops[len(st.loops)-1]
	idx := g.emit(bytecode.Instruction{Op: bytecode.OpJump})
	frame.flowJumps = append(frame.flowJumps, idx)
	return nil
}

func (g *Generator) VisitRelease(s *wovenast.Release) error {
	if s.Expr == nil {
		st := g.cur()
		tmp := st.alloc.Alloc()
		g.emit(bytecode.Instruction{Op: bytecode.OpEmptiness, A: byte(tmp)})
		g.emit(bytecode.Instruction{Op: bytecode.OpRelease, A: byte(tmp)})
		g.freeTemp(tmp)
		return nil
	}
	reg, err := g.compileExpr(s.Expr)
	if err != nil {
		return err
	}
	g.emit(bytecode.Instruction{Op: bytecode.OpRelease, A: byte(reg)})
	g.freeTemp(reg)
	return nil
}

// endsInRelease reports whether s is guaranteed to execute a Release as its
// last action, so VisitSpell knows whether to synthesize an implicit
// `release;` for a spell whose declared weave is Empty.
func endsInRelease(s wovenast.Stmt) bool {
	switch n := s.(type) {
	case *wovenast.Release:
		return true
	case *wovenast.Block:
		if len(n.Statements) == 0 {
			return false
		}
		return endsInRelease(n.Statements[len(n.Statements)-1])
	default:
		return false
	}
}

func (g *Generator) VisitSpell(s *wovenast.Spell) error {
	newSt := newFuncState()
	newSt.inSpell = true
	newSt.upvalueCount = len(s.Info.UpvalueMetas)
	for idx, meta := range s.Info.UpvalueMetas {
		newSt.upvalueReg[upKey{Depth: meta.Depth, Slot: meta.Index}] = idx
	}
	for i := 0; i < newSt.upvalueCount; i++ {
		newSt.alloc.Reserve(i + 1)
		newSt.alloc.Lock(i)
	}

	// Resolve each capture to a concrete register in the *enclosing*
	// frame, while g.cur() still refers to that frame: the defining
	// function's own registerOf rule (global / plain local / its own
	// upvalue window) applies unchanged, since the analyzer's (depth,
	// slot) pair identifies the variable independent of whose frame is
	// asking.
	upvalueMetas := make([]value.UpValueMeta, len(s.Info.UpvalueMetas))
	for i, m := range s.Info.UpvalueMetas {
		reg, isGlobal := g.registerOf(symbols.Symbol{Depth: m.Depth, SlotIdx: m.Index})
		if isGlobal {
			return g.fail("captured variable '%s' resolved to a global, which should never happen", s.Info.Name)
		}
		upvalueMetas[i] = value.UpValueMeta{SourceReg: reg}
	}

	g.states = append(g.states, newSt)
	for _, reagent := range s.Info.Reagents {
		g.claimLocal(reagent)
	}

	bodyErr := g.stmt(s.Body)
	if bodyErr == nil && !endsInRelease(s.Body) {
		bodyErr = g.stmt(&wovenast.Release{})
	}

	g.states = g.states[:len(g.states)-1]
	if bodyErr != nil {
		return bodyErr
	}
	spell := &value.Spell{
		Name:         s.Info.Name,
		Arity:        len(s.Info.Reagents),
		UpvalueCount: newSt.upvalueCount,
		UpvalueMetas: upvalueMetas,
		Constants:    newSt.constants,
		Bytecode:     bytecode.Assemble(newSt.code),
	}

	constIdx := g.addConstant(value.BoxSpell(spell))
	st := g.cur()
	dest := st.alloc.Alloc()
	g.emit(bytecode.Instruction{Op: bytecode.OpConstant, A: byte(dest), Idx: constIdx})

	if s.Symbol.Depth == 0 {
		nameIdx := g.addConstant(value.BoxString(s.Symbol.Name))
		g.emit(bytecode.Instruction{Op: bytecode.OpSetGlobal, A: byte(dest), Idx: nameIdx})
		g.freeTemp(dest)
		return nil
	}
	target := g.claimLocal(s.Symbol)
	if dest != target {
		g.emit(bytecode.Instruction{Op: bytecode.OpMove, A: byte(target), Idx: uint16(dest)})
		g.freeTemp(dest)
	}
	return nil
}
