package analyzer

import (
	"weave/internal/ast"
	"weave/internal/lexer"
	"weave/internal/symbols"
	"weave/internal/weave"
	"weave/internal/wovenast"
)

func (a *Analyzer) expr(e ast.Expr) (wovenast.Expr, error) {
	switch n := e.(type) {
	case *ast.Binary:
		return a.binary(n)
	case *ast.Unary:
		return a.unary(n)
	case *ast.Literal:
		return a.literal(n)
	case *ast.Variable:
		return a.variable(n)
	case *ast.Grouping:
		inner, err := a.expr(n.Expression)
		if err != nil {
			return nil, err
		}
		return &wovenast.Grouping{Base: wovenast.NewBase(inner.ResultWeave()), Inner: inner}, nil
	case *ast.Assignment:
		return a.assignment(n)
	case *ast.Cast:
		return a.cast(n)
	default:
		return nil, a.fail(lexer.Token{}, "unknown expression node")
	}
}

func (a *Analyzer) binary(n *ast.Binary) (wovenast.Expr, error) {
	left, err := a.expr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := a.expr(n.Right)
	if err != nil {
		return nil, err
	}
	op := n.Operator.Lexeme

	if op == "+" {
		leftTape := left.ResultWeave().Tapestry
		rightTape := right.ResultWeave().Tapestry
		switch {
		case leftTape.HasStrand(weave.Additive) && rightTape.HasStrand(weave.Additive):
			return &wovenast.Binary{Base: wovenast.NewBase(weave.Num), Left: left, Right: right, Op: op, Token: n.Operator}, nil
		case leftTape.HasStrand(weave.Concatinable) && rightTape.HasStrand(weave.Concatinable):
			return &wovenast.Binary{Base: wovenast.NewBase(weave.Text), Left: left, Right: right, Op: op, Token: n.Operator}, nil
		default:
			return nil, a.fail(n.Operator, "the operands of '+' must both be Additive or both be Concatinable")
		}
	}

	strand, ok := strandFromOp(op)
	if !ok {
		return nil, a.fail(n.Operator, "unknown operation '%s'", op)
	}
	if !left.ResultWeave().Tapestry.HasStrand(strand) || !right.ResultWeave().Tapestry.HasStrand(strand) {
		return nil, a.fail(n.Operator, "an operand of '%s' does not contain the required strand", op)
	}

	resultWeave := left.ResultWeave()
	if isComparison(op) {
		resultWeave = weave.Truth
	}
	return &wovenast.Binary{Base: wovenast.NewBase(resultWeave), Left: left, Right: right, Op: op, Token: n.Operator}, nil
}

func (a *Analyzer) unary(n *ast.Unary) (wovenast.Expr, error) {
	operand, err := a.expr(n.Operand)
	if err != nil {
		return nil, err
	}
	op := n.Operator.Lexeme
	strand, ok := strandFromOp(op)
	if !ok || (op != "-" && op != "!") {
		return nil, a.fail(n.Operator, "unknown unary operation '%s'", op)
	}
	if !operand.ResultWeave().Tapestry.HasStrand(strand) {
		return nil, a.fail(n.Operator, "the operand does not contain the strand required by '%s'", op)
	}
	resultWeave := operand.ResultWeave()
	if op == "!" {
		resultWeave = weave.Truth
	}
	return &wovenast.Unary{Base: wovenast.NewBase(resultWeave), Operand: operand, Op: op, Token: n.Operator}, nil
}

func (a *Analyzer) literal(n *ast.Literal) (wovenast.Expr, error) {
	var w weave.Weave
	var kind wovenast.LiteralKind
	switch n.Value.Kind {
	case ast.LiteralNumber:
		w, kind = weave.Num, wovenast.LiteralNumber
	case ast.LiteralString:
		w, kind = weave.Text, wovenast.LiteralString
	case ast.LiteralBool:
		w, kind = weave.Truth, wovenast.LiteralBool
	default:
		return nil, a.fail(n.Token, "couldn't find a weave for this literal")
	}
	return &wovenast.Literal{
		Base:   wovenast.NewBase(w),
		Kind:   kind,
		Number: n.Value.Number,
		Str:    n.Value.Str,
		Bool:   n.Value.Bool,
	}, nil
}

func (a *Analyzer) variable(n *ast.Variable) (wovenast.Expr, error) {
	sym, ok := a.table.Resolve(n.Name.Lexeme)
	if !ok {
		return nil, a.fail(n.Name, "variable resolution failed: '%s' is not defined", n.Name.Lexeme)
	}
	a.maybeCapture(sym)
	return &wovenast.Variable{Base: wovenast.NewBase(sym.Weave), Name: n.Name.Lexeme, Symbol: sym, Token: n.Name}, nil
}

// maybeCapture records an upvalue when a variable from an enclosing,
// non-global scope is referenced from inside the innermost active spell.
func (a *Analyzer) maybeCapture(sym symbols.Symbol) {
	if len(a.spellStack) == 0 || sym.Depth == 0 {
		return
	}
	ctx := a.spellStack[len(a.spellStack)-1]
	if sym.Depth > ctx.baseDepth {
		return // declared inside this spell's own body; not an upvalue
	}
	k := keyOf(sym)
	if _, seen := ctx.upIndex[k]; seen {
		return
	}
	ctx.upIndex[k] = len(ctx.info.UpvalueMetas)
	ctx.info.UpvalueMetas = append(ctx.info.UpvalueMetas, wovenast.UpValueMeta{Index: sym.SlotIdx, Depth: sym.Depth})
}

func (a *Analyzer) assignment(n *ast.Assignment) (wovenast.Expr, error) {
	sym, ok := a.table.Resolve(n.Name.Lexeme)
	if !ok {
		return nil, a.fail(n.Name, "the mark was nowhere to be found from this scope! variable resolution failed")
	}
	if !sym.Mutable {
		return nil, a.fail(n.Name, "tried to reassign a value to a 'bind'; binds cannot be reassigned")
	}
	value, err := a.expr(n.Value)
	if err != nil {
		return nil, err
	}
	if !weave.Equal(sym.Weave, value.ResultWeave()) {
		return nil, a.fail(n.Name, "the assignee and the assigned value are of different weaves; assignment failed")
	}
	a.recordParent(keyOf(sym), value)
	return &wovenast.Assignment{Base: wovenast.NewBase(sym.Weave), Name: n.Name.Lexeme, Symbol: sym, Value: value, Token: n.Name}, nil
}

func (a *Analyzer) cast(n *ast.Cast) (wovenast.Expr, error) {
	callee, err := a.expr(n.Callee)
	if err != nil {
		return nil, err
	}
	if !callee.ResultWeave().BaseTapestry.HasStrand(weave.Callable) {
		return nil, a.fail(n.Paren, "this value cannot be invoked as a spell")
	}
	var reagents []wovenast.Expr
	for _, arg := range n.Reagents {
		w, err := a.expr(arg)
		if err != nil {
			return nil, err
		}
		reagents = append(reagents, w)
	}

	if ancestor, ok := a.greatestAncestor(callee); ok {
		if info, ok := a.spellInfos[ancestor]; ok {
			if len(reagents) != len(info.Reagents) {
				return nil, a.fail(n.Paren, "spell '%s' expects %d reagent(s), got %d", info.Name, len(info.Reagents), len(reagents))
			}
			for i, r := range reagents {
				if !weave.Equal(r.ResultWeave(), info.Reagents[i].Weave) {
					return nil, a.fail(n.Paren, "reagent %d to spell '%s' has the wrong weave", i+1, info.Name)
				}
			}
			return &wovenast.Cast{Base: wovenast.NewBase(info.ReturnWeave), Callee: callee, Reagents: reagents, Gamble: false, Token: n.Paren}, nil
		}
	}
	return &wovenast.Cast{Base: wovenast.NewBase(weave.Unknown), Callee: callee, Reagents: reagents, Gamble: true, Token: n.Paren}, nil
}
