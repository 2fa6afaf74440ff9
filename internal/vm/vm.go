// Package vm implements the virtual machine: a register-windowed
// interpreter over the bytecode stream the code generator assembles.
// Grounded on the teacher's internal/vmregister/vm.go for the overall
// shape — a flat register file sliced per call frame, a frame stack
// carrying return-address bookkeeping, a direct-threaded switch dispatch
// loop — stripped of everything this language has no use for (the JIT
// tiers, arrays/maps, modules, try/catch) and built instead around this
// language's single-cell upvalue model, which the teacher's NaN-boxed,
// open/closed-upvalue-promotion VM does not have an analog for.
package vm

import (
	"fmt"
	"io"

	"weave/internal/bytecode"
	"weave/internal/diagnostics"
	"weave/internal/value"
)

// registerWindow is the number of registers reserved per call frame —
// the instruction set's register operands are single bytes, so no frame
// can address more than this many registers of its own.
const registerWindow = 256

// frame is one call's register window plus enough to resume its caller
// on release.
type frame struct {
	closure   *value.Closure
	ip        int
	regBase   int
	returnReg byte
	hasCaller bool
}

// VM executes a single assembled program to completion.
type VM struct {
	registers []value.Value
	frames    []*frame
	globals   map[string]value.Value
	out       io.Writer
}

// New returns a VM that prints chanted values to out.
func New(out io.Writer) *VM {
	return &VM{globals: map[string]value.Value{}, out: out}
}

// Globals exposes the global table to callers outside the package.
func (vm *VM) Globals() map[string]value.Value { return vm.globals }

// Run executes script (the root program, compiled as an arity-0,
// upvalue-free spell) to completion.
func (vm *VM) Run(script *value.Spell) error {
	vm.pushFrame(value.NewClosure(script, nil), 0, false)
	return vm.exec()
}

func (vm *VM) pushFrame(c *value.Closure, returnReg byte, hasCaller bool) *frame {
	base := len(vm.registers)
	vm.registers = append(vm.registers, make([]value.Value, registerWindow)...)
	f := &frame{closure: c, regBase: base, returnReg: returnReg, hasCaller: hasCaller}
	vm.frames = append(vm.frames, f)
	return f
}

func (vm *VM) popFrame() {
	f := vm.frames[len(vm.frames)-1]
	vm.registers = vm.registers[:f.regBase]
	vm.frames = vm.frames[:len(vm.frames)-1]
}

func (vm *VM) cur() *frame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) reg(f *frame, idx byte) value.Value { return vm.registers[f.regBase+int(idx)] }

func (vm *VM) setReg(f *frame, idx byte, v value.Value) { vm.registers[f.regBase+int(idx)] = v }

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	return diagnostics.New(diagnostics.RuntimePhase, fmt.Sprintf(format, args...), 0, 0, "")
}

// exec runs frames until the outermost frame halts.
func (vm *VM) exec() error {
	for {
		f := vm.cur()
		code := f.closure.Spell.Bytecode
		if f.ip >= len(code) {
			return vm.runtimeError("execution ran off the end of '%s' without a Halt or Release", f.closure.Spell.Name)
		}
		ins, n := bytecode.Decode(code, f.ip)
		f.ip += n

		switch ins.Op {
		case bytecode.OpHalt:
			return nil

		case bytecode.OpConstant:
			v := f.closure.Spell.Constants[ins.Idx]
			if v.Kind() == value.KindSpell {
				v = vm.materializeClosure(f, v.AsSpell())
			}
			vm.setReg(f, ins.A, v)

		case bytecode.OpTrue:
			vm.setReg(f, ins.A, value.BoxBool(true))
		case bytecode.OpFalse:
			vm.setReg(f, ins.A, value.BoxBool(false))
		case bytecode.OpEmptiness:
			vm.setReg(f, ins.A, value.Emptiness)

		case bytecode.OpMove:
			vm.setReg(f, ins.A, vm.registers[f.regBase+int(ins.Idx)])

		case bytecode.OpGetGlobal:
			name := f.closure.Spell.Constants[ins.Idx].AsString()
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("undefined global '%s'", name)
			}
			vm.setReg(f, ins.A, v)
		case bytecode.OpSetGlobal:
			name := f.closure.Spell.Constants[ins.Idx].AsString()
			vm.globals[name] = vm.reg(f, ins.A)

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			a, b, err := vm.numPair(f, ins.B, ins.C)
			if err != nil {
				return err
			}
			result, err := arith(ins.Op, a, b)
			if err != nil {
				return err
			}
			vm.setReg(f, ins.A, value.BoxNumber(result))

		case bytecode.OpConcat:
			l, r := vm.reg(f, ins.B), vm.reg(f, ins.C)
			if !l.IsString() || !r.IsString() {
				return vm.runtimeError("concat requires two strings, got %s and %s", l, r)
			}
			vm.setReg(f, ins.A, value.BoxString(l.AsString()+r.AsString()))

		case bytecode.OpEqual:
			vm.setReg(f, ins.A, value.BoxBool(vm.reg(f, ins.B).Equal(vm.reg(f, ins.C))))
		case bytecode.OpGreater, bytecode.OpLess:
			a, b, err := vm.numPair(f, ins.B, ins.C)
			if err != nil {
				return err
			}
			r := a < b
			if ins.Op == bytecode.OpGreater {
				r = a > b
			}
			vm.setReg(f, ins.A, value.BoxBool(r))

		case bytecode.OpNegate:
			v := vm.reg(f, ins.B)
			if !v.IsNumber() {
				return vm.runtimeError("cannot negate %s", v)
			}
			vm.setReg(f, ins.A, value.BoxNumber(-v.AsNumber()))
		case bytecode.OpNot:
			vm.setReg(f, ins.A, value.BoxBool(!vm.reg(f, ins.B).IsTruthy()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.out, vm.reg(f, ins.A).String())

		case bytecode.OpPopStack:
			// No explicit value stack backs this register VM; every
			// register slot is addressed directly, so there is nothing
			// to pop. Kept as a decodable no-op for instruction-set parity.

		case bytecode.OpJump:
			f.ip += int(ins.Idx)
		case bytecode.OpLoop:
			f.ip -= int(ins.Idx)
		case bytecode.OpJumpIfFalse:
			if !vm.reg(f, ins.A).IsTruthy() {
				f.ip += int(ins.Idx)
			}

		case bytecode.OpCast:
			if err := vm.doCast(f, ins); err != nil {
				return err
			}

		case bytecode.OpRelease:
			if vm.doRelease(f, ins) {
				return nil
			}

		default:
			return vm.runtimeError("unimplemented opcode %s", ins.Op)
		}
	}
}

func (vm *VM) numPair(f *frame, bIdx, cIdx byte) (float64, float64, error) {
	b, c := vm.reg(f, bIdx), vm.reg(f, cIdx)
	if !b.IsNumber() || !c.IsNumber() {
		return 0, 0, vm.runtimeError("expected two numbers, got %s and %s", b, c)
	}
	return b.AsNumber(), c.AsNumber(), nil
}

func arith(op bytecode.OpCode, a, b float64) (float64, error) {
	switch op {
	case bytecode.OpAdd:
		return a + b, nil
	case bytecode.OpSub:
		return a - b, nil
	case bytecode.OpMul:
		return a * b, nil
	case bytecode.OpDiv:
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	case bytecode.OpMod:
		if b == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		return float64(int64(a) % int64(b)), nil
	default:
		return 0, fmt.Errorf("not an arithmetic opcode: %s", op)
	}
}

// materializeClosure builds a closure over spell, eagerly copying each
// captured upvalue's current value out of the defining frame's registers
// into its own cell. Capture happens exactly once, right here, at the
// instant the Constant instruction runs — never re-read later.
func (vm *VM) materializeClosure(definingFrame *frame, spell *value.Spell) value.Value {
	if spell.UpvalueCount == 0 {
		return value.BoxClosure(value.NewClosure(spell, nil))
	}
	cells := make([]*value.UpValue, spell.UpvalueCount)
	for i, meta := range spell.UpvalueMetas {
		cells[i] = &value.UpValue{Closed: vm.reg(definingFrame, byte(meta.SourceReg))}
	}
	return value.BoxClosure(value.NewClosure(spell, cells))
}

// doCast invokes a cast: A = dest, B = callee register, C = first reagent
// register (reagents occupy a contiguous run starting there).
func (vm *VM) doCast(f *frame, ins bytecode.Instruction) error {
	calleeVal := vm.reg(f, ins.B)
	if !calleeVal.IsClosure() {
		return vm.runtimeError("cannot cast %s; it is not a spell", calleeVal)
	}
	closure := calleeVal.AsClosure()
	spell := closure.Spell

	args := make([]value.Value, spell.Arity)
	for i := 0; i < spell.Arity; i++ {
		args[i] = vm.reg(f, ins.C+byte(i))
	}

	newFrame := vm.pushFrame(closure, ins.A, true)
	for i, cell := range closure.Upvalues {
		vm.setReg(newFrame, byte(i), cell.Closed)
	}
	for i, arg := range args {
		vm.setReg(newFrame, byte(spell.UpvalueCount+i), arg)
	}
	return nil
}

// doRelease returns from the current frame, writing back upvalue cells
// and, for a caller-bearing frame, the return value. It reports whether
// the whole program has finished (the outermost frame just released,
// which only happens if a root-level release ever executed — in
// practice the root ends in Halt, not Release, but this keeps the VM
// correct if that ever changes).
func (vm *VM) doRelease(f *frame, ins bytecode.Instruction) (done bool) {
	retVal := vm.reg(f, ins.A)
	for i, cell := range f.closure.Upvalues {
		cell.Closed = vm.reg(f, byte(i))
	}
	hasCaller, returnReg := f.hasCaller, f.returnReg
	vm.popFrame()
	if !hasCaller {
		return true
	}
	vm.setReg(vm.cur(), returnReg, retVal)
	return false
}
