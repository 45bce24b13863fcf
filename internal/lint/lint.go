// Package lint reports suspicious but valid DataCode.
package lint

import (
	"datacode/internal/ast"
	"datacode/internal/builtins"
	"datacode/internal/diag"
)

const (
	CodeUnusedParam    = "DL0001"
	CodeUnreachable    = "DL0002"
	CodeLoopControl    = "DL0003"
	CodeUnusedVariable = "DL0004"
	CodeShadowsBuiltin = "DL0005"
)

type Options struct {
	CheckBuiltinShadowing bool
}

func DefaultOptions() Options {
	return Options{CheckBuiltinShadowing: true}
}

type Linter struct {
	opts     Options
	builtins map[string]bool
}

func New() *Linter {
	return NewWithOptions(DefaultOptions())
}

func NewWithOptions(opts Options) *Linter {
	names := map[string]bool{}
	for _, info := range builtins.Infos() {
		names[info.Name] = true
	}
	return &Linter{opts: opts, builtins: names}
}

func Run(program *ast.Program) []diag.Diagnostic {
	return New().Run(program)
}

func RunWithOptions(program *ast.Program, opts Options) []diag.Diagnostic {
	return NewWithOptions(opts).Run(program)
}

func (l *Linter) Run(program *ast.Program) []diag.Diagnostic {
	if program == nil {
		return nil
	}
	r := &runner{opts: l.opts, builtins: l.builtins}
	r.walkStatements(program.Statements, 0)
	return r.diags
}
