// Package analyzer implements the weave analyzer: it walks the untyped
// tree produced by the parser, resolves every name, types every operator,
// and emits a typed wovenast tree. Grounded in the rewrite order set by
// original_source/src/frontend/weave_analyser.rs, generalized where that
// prototype is incomplete (it neither tracks upvalues nor return-weave
// composition for nested spells) and enriched with the free-variable
// walk pattern from the teacher pack's resolver (mna-nenuphar's
// resolver.use(), which turns an outer local into a captured cell on
// first reference from an inner function).
package analyzer

import (
	"fmt"
	"strings"

	"weave/internal/ast"
	"weave/internal/diagnostics"
	"weave/internal/lexer"
	"weave/internal/symbols"
	"weave/internal/weave"
	"weave/internal/wovenast"
)

// symKey identifies a symbol independent of the Table's storage, so it can
// key the parent-chain and upvalue-dedup maps.
type symKey struct {
	Name    string
	Depth   int
	SlotIdx int
}

func keyOf(s symbols.Symbol) symKey { return symKey{s.Name, s.Depth, s.SlotIdx} }

type spellCtx struct {
	key         symKey
	baseDepth   int
	info        *wovenast.SpellInfo
	upIndex     map[symKey]int
	returnWeave weave.Weave
	sawRelease  bool
}

// Analyzer runs the single-pass weave analysis described above.
type Analyzer struct {
	table       *symbols.Table
	loopDepth   int
	nextSlot    int // flat, monotonic register slot counter for the current function (root script or innermost spell)
	spellStack  []*spellCtx
	parents     map[symKey]symKey
	releaseOf   map[symKey]symKey // spell key -> symbol released as its value, when statically known
	spellInfos  map[symKey]*wovenast.SpellInfo
	errs        []*diagnostics.Diagnostic
	sourceLines []string
}

// New builds an Analyzer over the given source (used only to attach
// source-line context to diagnostics).
func New(source string) *Analyzer {
	return &Analyzer{
		table:      symbols.New(),
		parents:    map[symKey]symKey{},
		releaseOf:  map[symKey]symKey{},
		spellInfos: map[symKey]*wovenast.SpellInfo{},
		sourceLines: strings.Split(source, "\n"),
	}
}

// Analyze runs the pass over a top-level statement list, returning the
// typed tree and any diagnostics. Per the failure model, the returned
// tree is nil if any diagnostic was recorded.
func (a *Analyzer) Analyze(stmts []ast.Stmt) ([]wovenast.Stmt, []*diagnostics.Diagnostic) {
	var out []wovenast.Stmt
	for _, s := range stmts {
		w, err := a.stmt(s)
		if err != nil {
			continue
		}
		out = append(out, w)
	}
	if len(a.errs) > 0 {
		return nil, a.errs
	}
	return out, nil
}

func (a *Analyzer) fail(tok lexer.Token, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	var src string
	if tok.Line-1 >= 0 && tok.Line-1 < len(a.sourceLines) {
		src = a.sourceLines[tok.Line-1]
	}
	d := diagnostics.New(diagnostics.WeavePhase, msg, tok.Line, tok.Column, tok.Lexeme).WithSource(src)
	a.errs = append(a.errs, d)
	return d
}

// claimSlot hands out the next register slot in the current function
// (root script or innermost spell) and advances the counter. The counter
// is flat across nested blocks so that every local declared anywhere in a
// spell's body — or the root script's — gets a unique slot regardless of
// how deeply its declaring block is nested.
func (a *Analyzer) claimSlot() int {
	slot := a.nextSlot
	a.nextSlot++
	return slot
}

func (a *Analyzer) weaveFromName(name string) (weave.Weave, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return weave.Empty, nil
	}
	if i := strings.IndexByte(name, '<'); i >= 0 && strings.HasSuffix(name, ">") {
		base, err := a.weaveFromName(name[:i])
		if err != nil {
			return weave.Weave{}, err
		}
		inner, err := a.weaveFromName(name[i+1 : len(name)-1])
		if err != nil {
			return weave.Weave{}, err
		}
		composed, err := weave.Compose(base, inner)
		if err != nil {
			return weave.Weave{}, err
		}
		return composed, nil
	}
	if w, ok := weave.ByName()[name]; ok {
		return w, nil
	}
	return weave.Weave{}, fmt.Errorf("unknown weave '%s'", name)
}

// greatestAncestor chases an expression back to the symbol that ultimately
// produced it, following the parent chain and, through a chain of casts,
// the statically-known release target of each called spell.
func (a *Analyzer) greatestAncestor(e wovenast.Expr) (symKey, bool) {
	switch v := e.(type) {
	case *wovenast.Variable:
		return a.walkParents(keyOf(v.Symbol)), true
	case *wovenast.Grouping:
		return a.greatestAncestor(v.Inner)
	case *wovenast.Cast:
		calleeKey, ok := a.greatestAncestor(v.Callee)
		if !ok {
			return symKey{}, false
		}
		target, ok := a.releaseOf[calleeKey]
		if !ok {
			return symKey{}, false
		}
		return a.walkParents(target), true
	default:
		return symKey{}, false
	}
}

func (a *Analyzer) walkParents(k symKey) symKey {
	for {
		p, ok := a.parents[k]
		if !ok {
			return k
		}
		k = p
	}
}

func (a *Analyzer) recordParent(target symKey, value wovenast.Expr) {
	switch v := value.(type) {
	case *wovenast.Variable:
		a.parents[target] = keyOf(v.Symbol)
	case *wovenast.Cast:
		if ancestor, ok := a.greatestAncestor(v.Callee); ok {
			if rel, ok := a.releaseOf[ancestor]; ok {
				a.parents[target] = a.walkParents(rel)
			}
		}
	}
}

// strandFromOp returns the strand required by a binary/unary operator
// lexeme, mirroring weave_analyser.rs's strand_from_op.
func strandFromOp(op string) (weave.Strand, bool) {
	switch op {
	case "+":
		return weave.Additive, true // '+' also accepts Concatinable; see analyzeBinary
	case "-":
		return weave.Subtractive, true
	case "*":
		return weave.Multiplicative, true
	case "/", "%":
		return weave.Divisive, true
	case "!":
		return weave.Conditional, true
	case ">", "<", ">=", "<=":
		return weave.Ordinal, true
	case "==", "!=":
		return weave.Equatable, true
	default:
		return weave.NoStrand, false
	}
}

func isComparison(op string) bool {
	switch op {
	case ">", "<", ">=", "<=", "==", "!=":
		return true
	}
	return false
}
