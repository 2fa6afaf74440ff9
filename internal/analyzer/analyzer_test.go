package analyzer

import (
	"strings"
	"testing"

	"weave/internal/lexer"
	"weave/internal/parser"
)

func analyze(t *testing.T, source string) (int, []string) {
	t.Helper()
	tokens := lexer.NewScanner(source).ScanTokens()
	p := parser.New(tokens, source)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors)
	}
	woven, diags := New(source).Analyze(stmts)
	var messages []string
	for _, d := range diags {
		messages = append(messages, d.Error())
	}
	return len(woven), messages
}

func assertWeaveError(t *testing.T, source, substr string) {
	t.Helper()
	_, messages := analyze(t, source)
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return
		}
	}
	t.Fatalf("expected a weave error containing %q, got: %v", substr, messages)
}

func assertNoWeaveErrors(t *testing.T, source string) {
	t.Helper()
	_, messages := analyze(t, source)
	if len(messages) > 0 {
		t.Fatalf("unexpected weave errors: %v", messages)
	}
}

func TestUnknownIdentifierFails(t *testing.T) {
	assertWeaveError(t, "chant nope;", "is not defined")
}

func TestRedeclarationInSameScopeFails(t *testing.T) {
	assertWeaveError(t, "bind x = 1; bind x = 2;", "already exists in the current scope")
}

func TestShadowingFromEnclosingScopeIsAllowed(t *testing.T) {
	assertNoWeaveErrors(t, "bind x = 1; { bind x = 2; chant x; }")
}

func TestSeverOutsideLoopFails(t *testing.T) {
	assertWeaveError(t, "sever;", "'sever' cannot be used outside a loop")
}

func TestFlowOutsideLoopFails(t *testing.T) {
	assertWeaveError(t, "flow;", "'flow' cannot be used outside a loop")
}

func TestReleaseOutsideSpellFails(t *testing.T) {
	assertWeaveError(t, "release;", "'release' cannot be used outside a spell")
}

func TestMixedAdditiveAndConcatFails(t *testing.T) {
	assertWeaveError(t, `chant 1 + "two";`, "must both be Additive or both be Concatinable")
}

func TestComparisonProducesTruthWeave(t *testing.T) {
	assertNoWeaveErrors(t, "mark ok = 1 < 2; fate ok { chant 1; }")
}

func TestBareReleaseRequiresEmptyWeave(t *testing.T) {
	assertWeaveError(t,
		"spell f() :: NumWeave { release; }",
		"declared return to be EmptyWeave")
}

func TestEmptyWeaveSpellMayOmitRelease(t *testing.T) {
	assertNoWeaveErrors(t, "spell f() { mark x = 1; }")
}
