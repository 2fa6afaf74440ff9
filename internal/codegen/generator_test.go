package codegen

import (
	"testing"

	"weave/internal/analyzer"
	"weave/internal/bytecode"
	"weave/internal/lexer"
	"weave/internal/parser"
	"weave/internal/value"
)

func compileToSpell(t *testing.T, source string) *value.Spell {
	t.Helper()
	tokens := lexer.NewScanner(source).ScanTokens()
	p := parser.New(tokens, source)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	woven, diags := analyzer.New(source).Analyze(stmts)
	if len(diags) > 0 {
		t.Fatalf("weave errors: %v", diags)
	}
	script, diags := Generate(woven)
	if len(diags) > 0 {
		t.Fatalf("codegen errors: %v", diags)
	}
	return script
}

func TestGenerateEndsInHalt(t *testing.T) {
	spell := compileToSpell(t, "chant 1 + 2;")
	instrs := bytecode.DisassembleAll(spell.Bytecode)
	if len(instrs) == 0 {
		t.Fatal("expected at least one instruction")
	}
	last := instrs[len(instrs)-1]
	if last.Op != bytecode.OpHalt {
		t.Errorf("last instruction = %s, want HALT", last.Op)
	}
}

func TestGenerateDeduplicatesConstants(t *testing.T) {
	spell := compileToSpell(t, `chant "same"; chant "same";`)
	count := 0
	for _, c := range spell.Constants {
		if c.IsString() && c.AsString() == "same" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("constant pool has %d copies of %q, want 1", count, "same")
	}
}

func TestGenerateWhileWithSeverEmitsLoop(t *testing.T) {
	spell := compileToSpell(t, "mark i = 0; while i < 5 { fate i == 2 { sever; } i = i + 1; }")
	instrs := bytecode.DisassembleAll(spell.Bytecode)
	sawLoop := false
	for _, ins := range instrs {
		if ins.Op == bytecode.OpLoop {
			sawLoop = true
		}
	}
	if !sawLoop {
		t.Error("expected a LOOP instruction to close the while body")
	}
}
