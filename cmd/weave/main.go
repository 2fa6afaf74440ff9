// cmd/weave is the compile-and-run harness: it drives source through the
// lexer, parser, analyzer, code generator, and VM in sequence, optionally
// dumping intermediate representations along the way. Narrowed from the
// teacher's multi-subcommand cmd/sentra/main.go (run/repl/test/check/lint/
// fmt/debug/init/build/watch/...) down to the single pipeline this language
// needs, while keeping its ldflags-stamped build info and usage/version
// layout.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"weave/internal/analyzer"
	"weave/internal/astprint"
	"weave/internal/bytecode"
	"weave/internal/codegen"
	"weave/internal/diagnostics"
	"weave/internal/lexer"
	"weave/internal/parser"
	"weave/internal/vm"
	"weave/internal/weaveconfig"
)

const VERSION = "0.1.0"

// Build variables - can be set during build with ldflags
var (
	BuildDate = time.Now().Format("2006-01-02")
	GitCommit = "unknown"
)

const defaultSourcePath = "testdata/hello.weave"

type flags struct {
	printTokens bool
	printAST    bool
	printWoven  bool
	printInst   bool
	printBC     bool
	sourcePath  string
	color       *bool // nil means decide by isatty; set from weave.yaml's color setting
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	f, ok := parseArgs(args)
	if !ok {
		return 0
	}

	cfg, err := weaveconfig.Load(f.sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stdout, "weave.yaml: %v\n", err)
		return 1
	}
	applyConfig(&f, cfg)

	runID := uuid.New().String()

	source, err := os.ReadFile(f.sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stdout, "cannot read %s: %v\n", f.sourcePath, err)
		return 1
	}

	tokens := lexer.NewScanner(string(source)).ScanTokens()
	if f.printTokens {
		fmt.Fprintf(os.Stdout, "-- tokens (run %s) --\n", runID)
		for _, t := range tokens {
			fmt.Fprintln(os.Stdout, t.String())
		}
	}

	p := parser.New(tokens, string(source))
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		diagnostics.Print(p.Errors, os.Stdout, func(s string) { fmt.Fprint(os.Stdout, s) }, f.color)
		return 1
	}
	if f.printAST {
		fmt.Fprintf(os.Stdout, "-- ast (run %s) --\n", runID)
		fmt.Fprint(os.Stdout, astprint.Untyped(stmts))
	}

	woven, diags := analyzer.New(string(source)).Analyze(stmts)
	if len(diags) > 0 {
		diagnostics.Print(diags, os.Stdout, func(s string) { fmt.Fprint(os.Stdout, s) }, f.color)
		return 1
	}
	if f.printWoven {
		fmt.Fprintf(os.Stdout, "-- woven ast (run %s) --\n", runID)
		fmt.Fprint(os.Stdout, astprint.Woven(woven))
	}

	script, diags := codegen.Generate(woven)
	if len(diags) > 0 {
		diagnostics.Print(diags, os.Stdout, func(s string) { fmt.Fprint(os.Stdout, s) }, f.color)
		return 1
	}

	if f.printInst {
		fmt.Fprintf(os.Stdout, "-- instructions (run %s) --\n", runID)
		for _, ins := range bytecode.DisassembleAll(script.Bytecode) {
			fmt.Fprintln(os.Stdout, ins.String())
		}
	}
	if f.printBC {
		fmt.Fprintf(os.Stdout, "-- bytecode: %s --\n", humanize.Bytes(uint64(len(script.Bytecode))))
		fmt.Fprintln(os.Stdout, hexDump(script.Bytecode))
	}

	m := vm.New(os.Stdout)
	if err := m.Run(script); err != nil {
		fmt.Fprintln(os.Stdout, "VM broke down:")
		fmt.Fprintln(os.Stdout, err)
		return 1
	}
	return 0
}

func applyConfig(f *flags, cfg weaveconfig.Config) {
	if f.sourcePath == "" {
		if cfg.DefaultSource != "" {
			f.sourcePath = cfg.DefaultSource
		} else {
			f.sourcePath = defaultSourcePath
		}
	}
	if !f.printTokens && cfg.TraceTokens {
		f.printTokens = true
	}
	if !f.printAST && cfg.TraceAST {
		f.printAST = true
	}
	if !f.printWoven && cfg.TraceWovenAST {
		f.printWoven = true
	}
	if !f.printInst && cfg.TraceInstructions {
		f.printInst = true
	}
	if !f.printBC && cfg.TraceBytecode {
		f.printBC = true
	}
	if f.color == nil {
		f.color = cfg.Color
	}
}

// parseArgs returns ok=false when usage/version was printed and the process
// should simply exit 0 without running anything.
func parseArgs(args []string) (flags, bool) {
	var f flags
	for _, a := range args {
		switch a {
		case "--help", "-h":
			showUsage()
			return f, false
		case "--version", "-v":
			showVersion()
			return f, false
		case "--ptkn":
			f.printTokens = true
		case "--past":
			f.printAST = true
		case "--pwast":
			f.printWoven = true
		case "--pinst":
			f.printInst = true
		case "--pbc":
			f.printBC = true
		default:
			if strings.HasPrefix(a, "-") {
				fmt.Fprintf(os.Stdout, "unknown flag: %s\n", a)
				continue
			}
			f.sourcePath = a
		}
	}
	return f, true
}

func showUsage() {
	fmt.Println("Usage: weave [flags] [source_path]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --ptkn      print the token stream")
	fmt.Println("  --past      print the untyped AST")
	fmt.Println("  --pwast     print the typed (woven) AST")
	fmt.Println("  --pinst     print decoded instructions")
	fmt.Println("  --pbc       print the assembled bytecode as hex")
	fmt.Println("  --help, -h  show this message")
	fmt.Println("  --version, -v  show version information")
	fmt.Println()
	fmt.Printf("If source_path is omitted, %s is used.\n", defaultSourcePath)
	fmt.Println("A weave.yaml beside the source (or in the current directory) supplies defaults; flags always win.")
}

func showVersion() {
	fmt.Printf("weave %s\n", VERSION)
	fmt.Printf("Build Date: %s\n", BuildDate)
	if gitCmd, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		GitCommit = strings.TrimSpace(string(gitCmd))
	}
	if GitCommit != "unknown" {
		fmt.Printf("Git Commit: %s\n", GitCommit)
	}
}

func hexDump(b []byte) string {
	var sb strings.Builder
	for i, by := range b {
		if i > 0 && i%16 == 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%02x ", by)
	}
	return sb.String()
}
