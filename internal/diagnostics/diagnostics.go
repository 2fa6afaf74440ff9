// Package diagnostics implements the phase-tagged diagnostic type shared by
// every pipeline stage (lexer, parser, analyzer, code generator, VM).
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/mattn/go-isatty"
)

// Phase names a pipeline stage that can fail.
type Phase string

const (
	LexPhase     Phase = "LexError"
	ParsePhase   Phase = "ParseError"
	WeavePhase   Phase = "WeaveError"
	CodeGenPhase Phase = "CodeGenError"
	RuntimePhase Phase = "RuntimeError"
)

// Diagnostic is a single reported failure, carrying enough source context to
// render a caret under the offending lexeme.
type Diagnostic struct {
	Phase   Phase
	Message string
	Line    int
	Column  int
	Lexeme  string
	Source  string // the full offending source line, if known
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", d.Phase, d.Message)
	if d.Line > 0 {
		fmt.Fprintf(&sb, "  at line %d, column %d (near '%s')\n", d.Line, d.Column, d.Lexeme)
		if d.Source != "" {
			fmt.Fprintf(&sb, "\n  %d | %s\n", d.Line, d.Source)
			fmt.Fprintf(&sb, "  %s%s^\n", strings.Repeat(" ", len(fmt.Sprintf("%d | ", d.Line))), strings.Repeat(" ", d.Column))
		}
	}
	return sb.String()
}

// New builds a Diagnostic for the given phase and token location.
func New(phase Phase, message string, line, column int, lexeme string) *Diagnostic {
	return &Diagnostic{Phase: phase, Message: message, Line: line, Column: column, Lexeme: lexeme}
}

// WithSource attaches the offending source line for caret rendering.
func (d *Diagnostic) WithSource(source string) *Diagnostic {
	d.Source = source
	return d
}

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// colorFor returns the severity color for a phase (RuntimeError gets red,
// compile-time phases get yellow). Whether to color at all is decided by
// Print.
func colorFor(p Phase) string {
	if p == RuntimePhase {
		return colorRed
	}
	return colorYellow
}

// Print passes each rendered diagnostic to write, colorizing by severity.
// colorOverride forces coloring on or off when non-nil (set from a
// project's weave.yaml); when nil, coloring follows whether out is attached
// to a terminal (the CLI harness passes os.Stdout).
func Print(diags []*Diagnostic, out interface{ Fd() uintptr }, write func(string), colorOverride *bool) {
	colorize := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	if colorOverride != nil {
		colorize = *colorOverride
	}
	for _, d := range diags {
		msg := d.Error()
		if colorize {
			msg = colorFor(d.Phase) + msg + colorReset
		}
		write(msg)
	}
}
