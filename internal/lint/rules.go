package lint

import (
	"fmt"
	"sort"

	"datacode/internal/ast"
	"datacode/internal/diag"
	"datacode/internal/token"
)

type runner struct {
	diags    []diag.Diagnostic
	opts     Options
	builtins map[string]bool
}

func (r *runner) report(tok token.Token, sev diag.Severity, code, msg string) {
	r.diags = append(r.diags, diag.At(sev, code, tok.Line, tok.Col, tokLength(tok), msg))
}

func tokLength(tok token.Token) int {
	if tok.Literal == "" {
		return 1
	}
	return len([]rune(tok.Literal))
}

func firstToken(n ast.Node) token.Token {
	if p, ok := n.(interface{ Pos() token.Token }); ok {
		return p.Pos()
	}
	return token.Token{Line: 1, Col: 1}
}

// walkStatements checks one statement list. loops counts the enclosing
// loops within the current function.
func (r *runner) walkStatements(stmts []ast.Statement, loops int) {
	terminated := false
	for _, st := range stmts {
		if terminated {
			r.report(firstToken(st), diag.SeverityWarning, CodeUnreachable, "unreachable code")
			terminated = false
		}
		r.walkStmt(st, loops)
		if isTerminator(st) {
			terminated = true
		}
	}
}

func (r *runner) walkBlock(b *ast.BlockStatement, loops int) {
	if b != nil {
		r.walkStatements(b.Statements, loops)
	}
}

func isTerminator(st ast.Statement) bool {
	switch st.(type) {
	case *ast.ReturnStatement, *ast.ThrowStatement, *ast.BreakStatement, *ast.ContinueStatement:
		return true
	}
	return false
}

func (r *runner) walkStmt(st ast.Statement, loops int) {
	switch n := st.(type) {
	case *ast.BreakStatement:
		if loops == 0 {
			r.report(n.Token, diag.SeverityError, CodeLoopControl, "break outside of a loop")
		}
	case *ast.ContinueStatement:
		if loops == 0 {
			r.report(n.Token, diag.SeverityError, CodeLoopControl, "continue outside of a loop")
		}
	case *ast.IfStatement:
		r.walkBlock(n.Consequence, loops)
		r.walkBlock(n.Alternative, loops)
	case *ast.WhileStatement:
		r.walkBlock(n.Body, loops+1)
	case *ast.ForStatement:
		r.walkBlock(n.Body, loops+1)
	case *ast.TryStatement:
		r.walkBlock(n.TryBlock, loops)
		r.walkBlock(n.CatchBlock, loops)
		r.walkBlock(n.FinallyBlock, loops)
	case *ast.FunctionStatement:
		r.walkFunction(n)
	}
}

func (r *runner) walkFunction(fn *ast.FunctionStatement) {
	if fn.Name != nil && r.opts.CheckBuiltinShadowing && r.builtins[fn.Name.Value] {
		r.report(fn.Name.Token, diag.SeverityInfo, CodeShadowsBuiltin,
			fmt.Sprintf("function '%s' shadows the builtin of the same name", fn.Name.Value))
	}
	r.walkBlock(fn.Body, 0)
	if fn.Body == nil {
		return
	}

	used := uses(fn.Body)
	params := map[string]bool{}
	for _, p := range fn.Parameters {
		params[p.Value] = true
		if !used[p.Value] && p.Value != "_" {
			r.report(p.Token, diag.SeverityWarning, CodeUnusedParam, fmt.Sprintf("unused parameter: %s", p.Value))
		}
	}

	locals := map[string]token.Token{}
	collectLocals(fn.Body, locals)
	names := make([]string, 0, len(locals))
	for name := range locals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !used[name] && !params[name] && name != "_" {
			r.report(locals[name], diag.SeverityWarning, CodeUnusedVariable, fmt.Sprintf("unused variable: %s", name))
		}
	}
}

// uses collects the names read anywhere in b. Assignment targets, loop
// variables and catch names are declarations, not reads. Nested function
// bodies have their own scope and are skipped.
func uses(b *ast.BlockStatement) map[string]bool {
	out := map[string]bool{}
	var visit func(ast.Node) bool
	visit = func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Identifier:
			out[v.Value] = true
		case *ast.AssignStatement:
			if v.Value != nil {
				ast.Inspect(v.Value, visit)
			}
			return false
		case *ast.ForStatement:
			if v.Iterable != nil {
				ast.Inspect(v.Iterable, visit)
			}
			if v.Body != nil {
				ast.Inspect(v.Body, visit)
			}
			return false
		case *ast.TryStatement:
			for _, blk := range []*ast.BlockStatement{v.TryBlock, v.CatchBlock, v.FinallyBlock} {
				if blk != nil {
					ast.Inspect(blk, visit)
				}
			}
			return false
		case *ast.FunctionStatement:
			return false
		}
		return true
	}
	ast.Inspect(b, visit)
	return out
}

// collectLocals records the first local assignment of each name in b.
func collectLocals(b *ast.BlockStatement, out map[string]token.Token) {
	ast.Inspect(b, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.AssignStatement:
			if v.Scope == ast.ScopeLocal && v.Name != nil {
				if _, seen := out[v.Name.Value]; !seen {
					out[v.Name.Value] = v.Name.Token
				}
			}
		case *ast.FunctionStatement:
			return false
		}
		return true
	})
}
