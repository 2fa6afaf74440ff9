package codegen

import (
	"weave/internal/bytecode"
	"weave/internal/value"
	"weave/internal/weave"
	"weave/internal/wovenast"
)

// compileExpr lowers e and returns the register holding its value. Local
// variable reads return the variable's existing, locked register with no
// instruction emitted, a grouping returns its inner expression's register,
// and an assignment to a local returns the local's register; global reads
// and the remaining expression forms load into a freshly allocated
// temporary.
func (g *Generator) compileExpr(e wovenast.Expr) (int, error) {
	if err := e.Accept(g); err != nil {
		return 0, err
	}
	return g.reg, nil
}

// freeTemp releases reg back to the allocator if it isn't a locked, named
// register (Free is a no-op for locked registers).
func (g *Generator) freeTemp(reg int) {
	g.cur().alloc.Free(reg)
}

func (g *Generator) VisitLiteral(e *wovenast.Literal) error {
	st := g.cur()
	var v value.Value
	switch e.Kind {
	case wovenast.LiteralNumber:
		v = value.BoxNumber(e.Number)
	case wovenast.LiteralString:
		v = value.BoxString(e.Str)
	case wovenast.LiteralBool:
		v = value.BoxBool(e.Bool)
	}
	idx := g.addConstant(v)
	dest := st.alloc.Alloc()
	g.emit(bytecode.Instruction{Op: bytecode.OpConstant, A: byte(dest), Idx: idx})
	g.reg = dest
	return nil
}

func (g *Generator) VisitVariable(e *wovenast.Variable) error {
	reg, isGlobal := g.registerOf(e.Symbol)
	if !isGlobal {
		g.reg = reg
		return nil
	}
	st := g.cur()
	nameIdx := g.addConstant(value.BoxString(e.Name))
	dest := st.alloc.Alloc()
	g.emit(bytecode.Instruction{Op: bytecode.OpGetGlobal, A: byte(dest), Idx: nameIdx})
	g.reg = dest
	return nil
}

func (g *Generator) VisitGrouping(e *wovenast.Grouping) error {
	reg, err := g.compileExpr(e.Inner)
	if err != nil {
		return err
	}
	g.reg = reg
	return nil
}

func (g *Generator) VisitUnary(e *wovenast.Unary) error {
	operand, err := g.compileExpr(e.Operand)
	if err != nil {
		return err
	}
	st := g.cur()
	dest := st.alloc.Alloc()
	op := bytecode.OpNegate
	if e.Op == "!" {
		op = bytecode.OpNot
	}
	g.emit(bytecode.Instruction{Op: op, A: byte(dest), B: byte(operand)})
	g.freeTemp(operand)
	g.reg = dest
	return nil
}

func (g *Generator) VisitBinary(e *wovenast.Binary) error {
	left, err := g.compileExpr(e.Left)
	if err != nil {
		return err
	}
	right, err := g.compileExpr(e.Right)
	if err != nil {
		return err
	}
	st := g.cur()
	dest := st.alloc.Alloc()

	switch e.Op {
	case "+":
		if weave.Equal(e.ResultWeave(), weave.Text) {
			g.emit(bytecode.Instruction{Op: bytecode.OpConcat, A: byte(dest), B: byte(left), C: byte(right)})
		} else {
			g.emit(bytecode.Instruction{Op: bytecode.OpAdd, A: byte(dest), B: byte(left), C: byte(right)})
		}
	case "-":
		g.emit(bytecode.Instruction{Op: bytecode.OpSub, A: byte(dest), B: byte(left), C: byte(right)})
	case "*":
		g.emit(bytecode.Instruction{Op: bytecode.OpMul, A: byte(dest), B: byte(left), C: byte(right)})
	case "/":
		g.emit(bytecode.Instruction{Op: bytecode.OpDiv, A: byte(dest), B: byte(left), C: byte(right)})
	case "%":
		g.emit(bytecode.Instruction{Op: bytecode.OpMod, A: byte(dest), B: byte(left), C: byte(right)})
	case "==":
		g.emit(bytecode.Instruction{Op: bytecode.OpEqual, A: byte(dest), B: byte(left), C: byte(right)})
	case "!=":
		g.emit(bytecode.Instruction{Op: bytecode.OpEqual, A: byte(dest), B: byte(left), C: byte(right)})
		g.emit(bytecode.Instruction{Op: bytecode.OpNot, A: byte(dest), B: byte(dest)})
	case ">":
		g.emit(bytecode.Instruction{Op: bytecode.OpGreater, A: byte(dest), B: byte(left), C: byte(right)})
	case "<":
		g.emit(bytecode.Instruction{Op: bytecode.OpLess, A: byte(dest), B: byte(left), C: byte(right)})
	case ">=":
		g.emit(bytecode.Instruction{Op: bytecode.OpLess, A: byte(dest), B: byte(left), C: byte(right)})
		g.emit(bytecode.Instruction{Op: bytecode.OpNot, A: byte(dest), B: byte(dest)})
	case "<=":
		g.emit(bytecode.Instruction{Op: bytecode.OpGreater, A: byte(dest), B: byte(left), C: byte(right)})
		g.emit(bytecode.Instruction{Op: bytecode.OpNot, A: byte(dest), B: byte(dest)})
	default:
		return g.fail("unknown binary operator '%s'", e.Op)
	}
	g.freeTemp(left)
	g.freeTemp(right)
	g.reg = dest
	return nil
}

func (g *Generator) VisitAssignment(e *wovenast.Assignment) error {
	src, err := g.compileExpr(e.Value)
	if err != nil {
		return err
	}
	reg, isGlobal := g.registerOf(e.Symbol)
	if isGlobal {
		nameIdx := g.addConstant(value.BoxString(e.Name))
		g.emit(bytecode.Instruction{Op: bytecode.OpSetGlobal, A: byte(src), Idx: nameIdx})
		g.reg = src
		return nil
	}
	if src != reg {
		g.emit(bytecode.Instruction{Op: bytecode.OpMove, A: byte(reg), Idx: uint16(src)})
		g.freeTemp(src)
	}
	g.reg = reg
	return nil
}

func (g *Generator) VisitCast(e *wovenast.Cast) error {
	callee, err := g.compileExpr(e.Callee)
	if err != nil {
		return err
	}
	st := g.cur()

	argRegs := make([]int, len(e.Reagents))
	for i, r := range e.Reagents {
		reg, err := g.compileExpr(r)
		if err != nil {
			return err
		}
		argRegs[i] = reg
	}

	firstArg := 0
	if len(argRegs) > 0 {
		contiguous := true
		for i := 1; i < len(argRegs); i++ {
			if argRegs[i] != argRegs[0]+i {
				contiguous = false
				break
			}
		}
		if contiguous {
			firstArg = argRegs[0]
		} else {
			block := make([]int, len(argRegs))
			start := st.alloc.AllocBlock(len(argRegs))
			for i := range block {
				block[i] = start + i
			}
			for i, src := range argRegs {
				g.emit(bytecode.Instruction{Op: bytecode.OpMove, A: byte(block[i]), Idx: uint16(src)})
			}
			for _, src := range argRegs {
				g.freeTemp(src)
			}
			argRegs = block
			firstArg = block[0]
		}
	}

	dest := st.alloc.Alloc()
	g.emit(bytecode.Instruction{Op: bytecode.OpCast, A: byte(dest), B: byte(callee), C: byte(firstArg)})

	g.freeTemp(callee)
	for _, reg := range argRegs {
		g.freeTemp(reg)
	}
	g.reg = dest
	return nil
}
