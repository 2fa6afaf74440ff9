package analyzer

import (
	"weave/internal/ast"
	"weave/internal/lexer"
	"weave/internal/weave"
	"weave/internal/wovenast"
)

func (a *Analyzer) stmt(s ast.Stmt) (wovenast.Stmt, error) {
	switch n := s.(type) {
	case *ast.Block:
		return a.block(n)
	case *ast.Chant:
		return a.chant(n)
	case *ast.ExprStmt:
		return a.exprStmt(n)
	case *ast.Fate:
		return a.fate(n)
	case *ast.VarDeclaration:
		return a.varDeclaration(n)
	case *ast.While:
		return a.while(n)
	case *ast.Sever:
		return a.sever(n)
	case *ast.Flow:
		return a.flow(n)
	case *ast.Release:
		return a.release(n)
	case *ast.Spell:
		return a.spell(n)
	default:
		return nil, a.fail(lexer.Token{}, "unknown statement node")
	}
}

func (a *Analyzer) block(n *ast.Block) (wovenast.Stmt, error) {
	a.table.NewScope()
	defer a.table.EndScope()
	out := &wovenast.Block{}
	for _, s := range n.Statements {
		w, err := a.stmt(s)
		if err != nil {
			continue
		}
		out.Statements = append(out.Statements, w)
	}
	return out, nil
}

func (a *Analyzer) chant(n *ast.Chant) (wovenast.Stmt, error) {
	w, err := a.expr(n.Expression)
	if err != nil {
		return nil, err
	}
	return &wovenast.Chant{Expr: w}, nil
}

func (a *Analyzer) exprStmt(n *ast.ExprStmt) (wovenast.Stmt, error) {
	w, err := a.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return &wovenast.ExprStmt{Expr: w}, nil
}

func (a *Analyzer) fate(n *ast.Fate) (wovenast.Stmt, error) {
	cond, err := a.expr(n.Condition)
	if err != nil {
		return nil, err
	}
	if !cond.ResultWeave().Tapestry.HasStrand(weave.Conditional) {
		return nil, a.fail(lexer.Token{}, "the condition provided to determine the fate does not contain the 'Conditional' strand")
	}
	then, err := a.stmt(n.Then)
	if err != nil {
		return nil, err
	}
	var elseStmt wovenast.Stmt
	if n.Else != nil {
		elseStmt, err = a.stmt(n.Else)
		if err != nil {
			return nil, err
		}
	}
	return &wovenast.Fate{Condition: cond, Then: then, Else: elseStmt}, nil
}

func (a *Analyzer) varDeclaration(n *ast.VarDeclaration) (wovenast.Stmt, error) {
	if _, ok := a.table.ResolveInScope(n.Name.Lexeme); ok {
		return nil, a.fail(n.Name, "the variable '%s' already exists in the current scope!", n.Name.Lexeme)
	}
	if n.Initializer == nil {
		return nil, a.fail(n.Name, "couldn't infer a weave for '%s': give it an initializer", n.Name.Lexeme)
	}
	init, err := a.expr(n.Initializer)
	if err != nil {
		return nil, err
	}
	slot := a.claimSlot()
	sym := a.table.Define(n.Name.Lexeme, init.ResultWeave(), n.Mutable, slot)
	a.recordParent(keyOf(sym), init)
	return &wovenast.VarDeclaration{Symbol: sym, Initializer: init, Token: n.Name}, nil
}

func (a *Analyzer) while(n *ast.While) (wovenast.Stmt, error) {
	cond, err := a.expr(n.Condition)
	if err != nil {
		return nil, err
	}
	if !cond.ResultWeave().Tapestry.HasStrand(weave.Conditional) {
		return nil, a.fail(lexer.Token{}, "the condition provided to determine the fate of the loop does not contain the 'Conditional' strand")
	}
	a.loopDepth++
	body, err := a.stmt(n.Body)
	a.loopDepth--
	if err != nil {
		return nil, err
	}
	return &wovenast.While{Condition: cond, Body: body}, nil
}

func (a *Analyzer) sever(n *ast.Sever) (wovenast.Stmt, error) {
	if a.loopDepth == 0 {
		return nil, a.fail(n.Token, "'sever' cannot be used outside a loop circle!")
	}
	return &wovenast.Sever{Token: n.Token}, nil
}

func (a *Analyzer) flow(n *ast.Flow) (wovenast.Stmt, error) {
	if a.loopDepth == 0 {
		return nil, a.fail(n.Token, "'flow' cannot be used outside a loop circle!")
	}
	return &wovenast.Flow{Token: n.Token}, nil
}

func (a *Analyzer) release(n *ast.Release) (wovenast.Stmt, error) {
	if len(a.spellStack) == 0 {
		return nil, a.fail(n.Token, "'release' cannot be used outside a spell")
	}
	ctx := a.spellStack[len(a.spellStack)-1]
	ctx.sawRelease = true
	if n.Expr == nil {
		if !weave.Equal(ctx.returnWeave, weave.Empty) {
			return nil, a.fail(n.Token, "a bare 'release' requires the spell's declared return to be EmptyWeave")
		}
		return &wovenast.Release{Token: n.Token}, nil
	}
	w, err := a.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	if !weave.Equal(w.ResultWeave(), ctx.returnWeave) {
		return nil, a.fail(n.Token, "released expression's weave does not match the spell's declared return weave")
	}
	if v, ok := w.(*wovenast.Variable); ok {
		a.releaseOf[ctx.key] = keyOf(v.Symbol)
	}
	return &wovenast.Release{Expr: w, Token: n.Token}, nil
}

func (a *Analyzer) spell(n *ast.Spell) (wovenast.Stmt, error) {
	returnWeave, err := a.weaveFromName(n.ReturnWeave)
	if err != nil {
		return nil, a.fail(n.Name, "%s", err.Error())
	}
	selfWeave, err := weave.Compose(weave.Spell, returnWeave)
	if err != nil {
		return nil, a.fail(n.Name, "%s", err.Error())
	}

	baseDepth := a.table.Depth()
	slot := a.claimSlot()
	sym := a.table.Define(n.Name.Lexeme, selfWeave, false, slot)
	key := keyOf(sym)

	a.table.NewScope()

	info := &wovenast.SpellInfo{Name: n.Name.Lexeme, ReturnWeave: returnWeave}
	outerSlot := a.nextSlot
	a.nextSlot = 0
	for _, r := range n.Reagents {
		rw, err := a.weaveFromName(r.WeaveName)
		if err != nil {
			a.table.EndScope()
			a.nextSlot = outerSlot
			return nil, a.fail(r.Name, "%s", err.Error())
		}
		pslot := a.claimSlot()
		psym := a.table.Define(r.Name.Lexeme, rw, true, pslot)
		info.Reagents = append(info.Reagents, psym)
	}
	a.spellInfos[key] = info

	outerLoopDepth := a.loopDepth
	a.loopDepth = 0
	ctx := &spellCtx{key: key, baseDepth: baseDepth, info: info, upIndex: map[symKey]int{}, returnWeave: returnWeave}
	a.spellStack = append(a.spellStack, ctx)

	body, err := a.stmt(n.Body)

	a.spellStack = a.spellStack[:len(a.spellStack)-1]
	a.loopDepth = outerLoopDepth
	a.nextSlot = outerSlot
	a.table.EndScope()

	if err != nil {
		return nil, err
	}
	if !ctx.sawRelease && !weave.Equal(returnWeave, weave.Empty) {
		return nil, a.fail(n.Name, "spell '%s' never releases a value of its declared weave", n.Name.Lexeme)
	}

	return &wovenast.Spell{Info: *info, Symbol: sym, Body: body, Token: n.Name}, nil
}

