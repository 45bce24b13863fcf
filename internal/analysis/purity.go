// Package analysis decides which user functions may have their results cached.
package analysis

import (
	"datacode/internal/ast"
	"datacode/internal/value"
)

// Builtins reports purity for builtin names.
type Builtins interface {
	Has(name string) bool
	Pure(name string) bool
}

// Lookup resolves a user function by name.
type Lookup func(name string) (*value.Function, bool)

// Purity caches per-function verdicts until Invalidate is called.
type Purity struct {
	builtins Builtins
	lookup   Lookup
	memo     map[string]bool
}

func NewPurity(b Builtins, lookup Lookup) *Purity {
	return &Purity{builtins: b, lookup: lookup, memo: map[string]bool{}}
}

// Invalidate forgets every verdict; call it whenever a function is (re)defined.
func (p *Purity) Invalidate() {
	p.memo = map[string]bool{}
}

// Pure reports whether name is a user function whose result depends only on
// its arguments and which has no observable side effects.
func (p *Purity) Pure(name string) bool {
	if v, ok := p.memo[name]; ok {
		return v
	}
	pure := p.check(name, map[string]bool{})
	p.memo[name] = pure
	return pure
}

func (p *Purity) check(name string, visiting map[string]bool) bool {
	if v, ok := p.memo[name]; ok {
		return v
	}
	if visiting[name] {
		// recursion is assumed pure; the rest of the cycle decides
		return true
	}
	fn, ok := p.lookup(name)
	if !ok {
		return false
	}
	visiting[name] = true
	defer delete(visiting, name)

	pure := readsBound(fn)

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if !pure {
			return false
		}
		switch n := n.(type) {
		case *ast.AssignStatement:
			if n.Scope == ast.ScopeGlobal {
				pure = false
			}
		case *ast.IndexAssignStatement, *ast.FunctionStatement:
			pure = false
		case *ast.CallExpression:
			if !p.calleePure(n.Callee(), visiting) {
				pure = false
			}
		}
		return pure
	})

	if !pure {
		p.memo[name] = false
	}
	return pure
}

func (p *Purity) calleePure(name string, visiting map[string]bool) bool {
	if name == "" {
		return false
	}
	if _, ok := p.lookup(name); ok {
		return p.check(name, visiting)
	}
	if p.builtins != nil && p.builtins.Has(name) {
		return p.builtins.Pure(name)
	}
	return false
}

// readsBound reports whether every name fn reads is definitely bound in
// the function at the point of the read: a parameter, or a local assigned
// on every path leading there. Anything else may resolve to a global.
func readsBound(fn *value.Function) bool {
	params := names{}
	for _, param := range fn.Parameters {
		params[param.Value] = true
	}
	fl := &flow{ok: true}
	fl.block(fn.Body, params)
	return fl.ok
}

type names map[string]bool

func (n names) with(extra ...*ast.Identifier) names {
	out := make(names, len(n)+len(extra))
	for k := range n {
		out[k] = true
	}
	for _, id := range extra {
		out[id.Value] = true
	}
	return out
}

// meet keeps the names bound in every live branch. A nil set is a branch
// that never falls through.
func meet(a, b names) names {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := names{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

type flow struct {
	ok bool
}

// block walks stmts in order and returns the names bound when control falls
// out of the block, or nil when it cannot.
func (fl *flow) block(b *ast.BlockStatement, bound names) names {
	if b == nil {
		return bound
	}
	cur := bound.with()
	for _, st := range b.Statements {
		if cur = fl.stmt(st, cur); cur == nil {
			return nil
		}
	}
	return cur
}

func (fl *flow) stmt(st ast.Statement, cur names) names {
	switch s := st.(type) {
	case *ast.ExpressionStatement:
		fl.reads(s.Expression, cur)
	case *ast.AssignStatement:
		fl.reads(s.Value, cur)
		if s.Scope != ast.ScopeGlobal {
			cur[s.Name.Value] = true
		}
	case *ast.IndexAssignStatement:
		fl.reads(s.Left, cur)
		fl.reads(s.Value, cur)
	case *ast.ReturnStatement:
		fl.reads(s.ReturnValue, cur)
		return nil
	case *ast.ThrowStatement:
		fl.reads(s.Value, cur)
		return nil
	case *ast.BreakStatement, *ast.ContinueStatement:
		return nil
	case *ast.IfStatement:
		fl.reads(s.Condition, cur)
		return meet(fl.block(s.Consequence, cur), fl.block(s.Alternative, cur))
	case *ast.WhileStatement:
		fl.reads(s.Condition, cur)
		fl.block(s.Body, cur)
	case *ast.ForStatement:
		fl.reads(s.Iterable, cur)
		fl.block(s.Body, cur.with(s.Vars...))
	case *ast.TryStatement:
		// a catch or finally may start after any statement of the try block
		out := fl.block(s.TryBlock, cur)
		if s.CatchBlock != nil {
			var caught names
			if s.CatchName != nil {
				caught = fl.block(s.CatchBlock, cur.with(s.CatchName))
				if caught != nil {
					delete(caught, s.CatchName.Value)
				}
			} else {
				caught = fl.block(s.CatchBlock, cur)
			}
			out = meet(out, caught)
		}
		fin := fl.block(s.FinallyBlock, cur)
		if out == nil || fin == nil {
			return nil
		}
		for k := range fin {
			out[k] = true
		}
		return out
	case *ast.BlockStatement:
		return fl.block(s, cur)
	}
	return cur
}

func (fl *flow) reads(x ast.Expression, bound names) {
	if x == nil || !fl.ok {
		return
	}
	callees := map[*ast.Identifier]bool{}
	ast.Inspect(x, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CallExpression:
			if id, ok := n.Function.(*ast.Identifier); ok {
				callees[id] = true
			}
		case *ast.Identifier:
			if !callees[n] && !bound[n.Value] {
				fl.ok = false
			}
		}
		return fl.ok
	})
}
