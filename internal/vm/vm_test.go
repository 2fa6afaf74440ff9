package vm

import (
	"bytes"
	"strings"
	"testing"

	"weave/internal/analyzer"
	"weave/internal/codegen"
	"weave/internal/lexer"
	"weave/internal/parser"
)

// compileAndRun drives a full source string through every pipeline stage
// and returns everything it printed via chant. Test helper mirroring the
// teacher's parseString-style pipeline helpers.
func compileAndRun(t *testing.T, source string) string {
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

	script, diags := codegen.Generate(woven)
	if len(diags) > 0 {
		t.Fatalf("codegen errors: %v", diags)
	}

	var out bytes.Buffer
	m := New(&out)
	if err := m.Run(script); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return out.String()
}

// assertCompileError drives source through lex/parse/weave only, and
// requires at least one diagnostic whose message contains substr.
func assertCompileError(t *testing.T, source, substr string) {
	t.Helper()

	tokens := lexer.NewScanner(source).ScanTokens()
	p := parser.New(tokens, source)
	stmts := p.Parse()

	var messages []string
	for _, d := range p.Errors {
		messages = append(messages, d.Error())
	}

	if len(p.Errors) == 0 {
		_, diags := analyzer.New(source).Analyze(stmts)
		for _, d := range diags {
			messages = append(messages, d.Error())
		}
	}

	for _, m := range messages {
		if strings.Contains(m, substr) {
			return
		}
	}
	t.Fatalf("expected a compile error containing %q, got: %v", substr, messages)
}

func TestArithmeticAndPrint(t *testing.T) {
	got := compileAndRun(t, "chant 1 + 2 * 3;")
	if got != "7\n" {
		t.Errorf("got %q, want %q", got, "7\n")
	}
}

func TestGlobalsAndRebind(t *testing.T) {
	got := compileAndRun(t, "mark a = 1; a = a + 1; chant a;")
	if got != "2\n" {
		t.Errorf("got %q, want %q", got, "2\n")
	}
}

func TestBindIsImmutable(t *testing.T) {
	assertCompileError(t, "bind x = 1; x = 2;", "cannot be reassigned")
}

func TestWhileLoop(t *testing.T) {
	got := compileAndRun(t, "mark i = 0; while i < 3 { chant i; i = i + 1; }")
	if got != "0\n1\n2\n" {
		t.Errorf("got %q, want %q", got, "0\n1\n2\n")
	}
}

func TestClosureCapture(t *testing.T) {
	src := `
spell make() :: SpellWeave<NumWeave> {
    mark n = 10;
    spell inner() :: NumWeave {
        release n;
    }
    release inner;
}
chant cast cast make;
`
	got := compileAndRun(t, src)
	if got != "10\n" {
		t.Errorf("got %q, want %q", got, "10\n")
	}
}

func TestArityMismatchAtCompileTime(t *testing.T) {
	src := `
spell f(a: NumWeave) :: NumWeave {
    release a;
}
chant cast f;
`
	assertCompileError(t, src, "reagent")
}

func TestSeverBreaksLoop(t *testing.T) {
	got := compileAndRun(t, "mark i = 0; while i < 10 { fate i == 3 { sever; } chant i; i = i + 1; }")
	if got != "0\n1\n2\n" {
		t.Errorf("got %q, want %q", got, "0\n1\n2\n")
	}
}

func TestFlowContinuesLoop(t *testing.T) {
	got := compileAndRun(t, "mark i = 0; while i < 4 { i = i + 1; fate i == 2 { flow; } chant i; }")
	if got != "1\n3\n4\n" {
		t.Errorf("got %q, want %q", got, "1\n3\n4\n")
	}
}

func TestStringConcat(t *testing.T) {
	got := compileAndRun(t, `chant "hello" + " " + "world";`)
	if got != "hello world\n" {
		t.Errorf("got %q, want %q", got, "hello world\n")
	}
}

func TestFateDivert(t *testing.T) {
	got := compileAndRun(t, "mark x = 5; fate x > 10 { chant 1; } divert { chant 2; }")
	if got != "2\n" {
		t.Errorf("got %q, want %q", got, "2\n")
	}
}
