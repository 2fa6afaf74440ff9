// Package astprint renders the untyped and typed trees as indented debug
// text for the CLI harness's --past/--pwast dumps. Grounded on the
// teacher's disassembly-style debug printing (short, line-per-node,
// no attempt at re-parseable output) rather than any full pretty-printer —
// the teacher repo has no standalone AST printer to mirror directly.
package astprint

import (
	"fmt"
	"strings"

	"weave/internal/ast"
	"weave/internal/wovenast"
)

// Untyped renders the parser's AST.
func Untyped(stmts []ast.Stmt) string {
	var sb strings.Builder
	for _, s := range stmts {
		untypedStmt(&sb, s, 0)
	}
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func untypedStmt(sb *strings.Builder, s ast.Stmt, depth int) {
	indent(sb, depth)
	switch n := s.(type) {
	case *ast.VarDeclaration:
		kind := "bind"
		if n.Mutable {
			kind = "mark"
		}
		fmt.Fprintf(sb, "%s %s =\n", kind, n.Name.Lexeme)
		untypedExpr(sb, n.Initializer, depth+1)
	case *ast.ExprStmt:
		sb.WriteString("exprstmt\n")
		untypedExpr(sb, n.Expr, depth+1)
	case *ast.Chant:
		sb.WriteString("chant\n")
		untypedExpr(sb, n.Expression, depth+1)
	case *ast.Block:
		sb.WriteString("block\n")
		for _, inner := range n.Statements {
			untypedStmt(sb, inner, depth+1)
		}
	case *ast.Fate:
		sb.WriteString("fate\n")
		untypedExpr(sb, n.Condition, depth+1)
		untypedStmt(sb, n.Then, depth+1)
		if n.Else != nil {
			indent(sb, depth)
			sb.WriteString("divert\n")
			untypedStmt(sb, n.Else, depth+1)
		}
	case *ast.While:
		sb.WriteString("while\n")
		untypedExpr(sb, n.Condition, depth+1)
		untypedStmt(sb, n.Body, depth+1)
	case *ast.Sever:
		sb.WriteString("sever\n")
	case *ast.Flow:
		sb.WriteString("flow\n")
	case *ast.Release:
		sb.WriteString("release\n")
		if n.Expr != nil {
			untypedExpr(sb, n.Expr, depth+1)
		}
	case *ast.Spell:
		fmt.Fprintf(sb, "spell %s(", n.Name.Lexeme)
		for i, r := range n.Reagents {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s: %s", r.Name.Lexeme, r.WeaveName)
		}
		fmt.Fprintf(sb, ") :: %s\n", n.ReturnWeave)
		untypedStmt(sb, n.Body, depth+1)
	default:
		fmt.Fprintf(sb, "<unknown stmt %T>\n", s)
	}
}

func untypedExpr(sb *strings.Builder, e ast.Expr, depth int) {
	indent(sb, depth)
	switch n := e.(type) {
	case *ast.Binary:
		fmt.Fprintf(sb, "binary %s\n", n.Operator.Lexeme)
		untypedExpr(sb, n.Left, depth+1)
		untypedExpr(sb, n.Right, depth+1)
	case *ast.Unary:
		fmt.Fprintf(sb, "unary %s\n", n.Operator.Lexeme)
		untypedExpr(sb, n.Operand, depth+1)
	case *ast.Literal:
		fmt.Fprintf(sb, "literal %v\n", literalText(n.Value))
	case *ast.Variable:
		fmt.Fprintf(sb, "variable %s\n", n.Name.Lexeme)
	case *ast.Grouping:
		sb.WriteString("grouping\n")
		untypedExpr(sb, n.Expression, depth+1)
	case *ast.Assignment:
		fmt.Fprintf(sb, "assignment %s\n", n.Name.Lexeme)
		untypedExpr(sb, n.Value, depth+1)
	case *ast.Cast:
		sb.WriteString("cast\n")
		untypedExpr(sb, n.Callee, depth+1)
		for _, arg := range n.Reagents {
			untypedExpr(sb, arg, depth+1)
		}
	default:
		fmt.Fprintf(sb, "<unknown expr %T>\n", e)
	}
}

func literalText(v ast.LiteralValue) interface{} {
	switch v.Kind {
	case ast.LiteralNumber:
		return v.Number
	case ast.LiteralString:
		return fmt.Sprintf("%q", v.Str)
	case ast.LiteralBool:
		return v.Bool
	default:
		return nil
	}
}

// Woven renders the analyzer's typed tree, additionally showing each
// expression's resolved weave and each variable's resolved slot.
func Woven(stmts []wovenast.Stmt) string {
	var sb strings.Builder
	for _, s := range stmts {
		wovenStmt(&sb, s, 0)
	}
	return sb.String()
}

func wovenStmt(sb *strings.Builder, s wovenast.Stmt, depth int) {
	indent(sb, depth)
	switch n := s.(type) {
	case *wovenast.VarDeclaration:
		kind := "bind"
		if n.Symbol.Mutable {
			kind = "mark"
		}
		fmt.Fprintf(sb, "%s %s : %s (depth %d, slot %d) =\n", kind, n.Symbol.Name, n.Symbol.Weave.Name, n.Symbol.Depth, n.Symbol.SlotIdx)
		wovenExpr(sb, n.Initializer, depth+1)
	case *wovenast.ExprStmt:
		sb.WriteString("exprstmt\n")
		wovenExpr(sb, n.Expr, depth+1)
	case *wovenast.Chant:
		sb.WriteString("chant\n")
		wovenExpr(sb, n.Expr, depth+1)
	case *wovenast.Block:
		sb.WriteString("block\n")
		for _, inner := range n.Statements {
			wovenStmt(sb, inner, depth+1)
		}
	case *wovenast.Fate:
		sb.WriteString("fate\n")
		wovenExpr(sb, n.Condition, depth+1)
		wovenStmt(sb, n.Then, depth+1)
		if n.Else != nil {
			indent(sb, depth)
			sb.WriteString("divert\n")
			wovenStmt(sb, n.Else, depth+1)
		}
	case *wovenast.While:
		sb.WriteString("while\n")
		wovenExpr(sb, n.Condition, depth+1)
		wovenStmt(sb, n.Body, depth+1)
	case *wovenast.Sever:
		sb.WriteString("sever\n")
	case *wovenast.Flow:
		sb.WriteString("flow\n")
	case *wovenast.Release:
		sb.WriteString("release\n")
		if n.Expr != nil {
			wovenExpr(sb, n.Expr, depth+1)
		}
	case *wovenast.Spell:
		fmt.Fprintf(sb, "spell %s :: %s, %d upvalue(s)\n", n.Info.Name, n.Info.ReturnWeave.Name, len(n.Info.UpvalueMetas))
		wovenStmt(sb, n.Body, depth+1)
	default:
		fmt.Fprintf(sb, "<unknown stmt %T>\n", s)
	}
}

func wovenExpr(sb *strings.Builder, e wovenast.Expr, depth int) {
	indent(sb, depth)
	switch n := e.(type) {
	case *wovenast.Binary:
		fmt.Fprintf(sb, "binary %s : %s\n", n.Op, n.ResultWeave().Name)
		wovenExpr(sb, n.Left, depth+1)
		wovenExpr(sb, n.Right, depth+1)
	case *wovenast.Unary:
		fmt.Fprintf(sb, "unary %s : %s\n", n.Op, n.ResultWeave().Name)
		wovenExpr(sb, n.Operand, depth+1)
	case *wovenast.Literal:
		fmt.Fprintf(sb, "literal : %s\n", n.ResultWeave().Name)
	case *wovenast.Variable:
		fmt.Fprintf(sb, "variable %s : %s (depth %d, slot %d)\n", n.Name, n.ResultWeave().Name, n.Symbol.Depth, n.Symbol.SlotIdx)
	case *wovenast.Grouping:
		sb.WriteString("grouping\n")
		wovenExpr(sb, n.Inner, depth+1)
	case *wovenast.Assignment:
		fmt.Fprintf(sb, "assignment %s : %s\n", n.Name, n.ResultWeave().Name)
		wovenExpr(sb, n.Value, depth+1)
	case *wovenast.Cast:
		gamble := ""
		if n.Gamble {
			gamble = " (gamble)"
		}
		fmt.Fprintf(sb, "cast : %s%s\n", n.ResultWeave().Name, gamble)
		wovenExpr(sb, n.Callee, depth+1)
		for _, arg := range n.Reagents {
			wovenExpr(sb, arg, depth+1)
		}
	default:
		fmt.Fprintf(sb, "<unknown expr %T>\n", e)
	}
}
