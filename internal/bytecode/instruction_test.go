package bytecode

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ins  Instruction
	}{
		{"add", Instruction{Op: OpAdd, A: 2, B: 0, C: 1}},
		{"negate", Instruction{Op: OpNegate, A: 1, B: 0}},
		{"constant", Instruction{Op: OpConstant, A: 3, Idx: 300}},
		{"jump_if_false", Instruction{Op: OpJumpIfFalse, A: 0, Idx: 12}},
		{"print", Instruction{Op: OpPrint, A: 5}},
		{"pop_stack", Instruction{Op: OpPopStack, Idx: 7}},
		{"jump", Instruction{Op: OpJump, Idx: 42}},
		{"loop", Instruction{Op: OpLoop, Idx: 1000}},
		{"halt", Instruction{Op: OpHalt}},
		{"cast", Instruction{Op: OpCast, A: 0, B: 1, C: 2}},
		{"release", Instruction{Op: OpRelease, A: 9}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := test.ins.Encode(nil)
			if len(buf) != test.ins.Op.Len() {
				t.Fatalf("encoded length %d, want %d", len(buf), test.ins.Op.Len())
			}
			decoded, n := Decode(buf, 0)
			if n != len(buf) {
				t.Fatalf("decode consumed %d bytes, want %d", n, len(buf))
			}
			if decoded != test.ins {
				t.Fatalf("decoded %+v, want %+v", decoded, test.ins)
			}
		})
	}
}

func TestAssembleDisassembleAll(t *testing.T) {
	want := []Instruction{
		{Op: OpConstant, A: 0, Idx: 5},
		{Op: OpConstant, A: 1, Idx: 6},
		{Op: OpAdd, A: 2, B: 0, C: 1},
		{Op: OpPrint, A: 2},
		{Op: OpHalt},
	}

	code := Assemble(want)
	got := DisassembleAll(code)

	if len(got) != len(want) {
		t.Fatalf("got %d instructions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOpCodeStringAndLen(t *testing.T) {
	tests := []struct {
		op      OpCode
		name    string
		wantLen int
	}{
		{OpAdd, "ADD", 4},
		{OpNegate, "NEGATE", 3},
		{OpConstant, "CONSTANT", 4},
		{OpPrint, "PRINT", 2},
		{OpPopStack, "POP_STACK", 3},
		{OpJump, "JUMP", 3},
		{OpHalt, "HALT", 1},
	}
	for _, test := range tests {
		if got := test.op.String(); got != test.name {
			t.Errorf("OpCode(%d).String() = %q, want %q", test.op, got, test.name)
		}
		if got := test.op.Len(); got != test.wantLen {
			t.Errorf("OpCode(%d).Len() = %d, want %d", test.op, got, test.wantLen)
		}
	}
}
