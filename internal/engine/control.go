package engine

import (
	"datacode/internal/ast"
	"datacode/internal/dcerr"
	"datacode/internal/value"
)

type controlKind int

const (
	ctlBlock controlKind = iota
	ctlFor
	ctlWhile
	ctlTry
)

type tryPhase int

const (
	phaseTry tryPhase = iota
	phaseCatch
	phaseFinally
)

// control is one entry of a frame's block stack. The frame's body is the
// bottom entry; if branches, loop bodies and try clauses are pushed above it.
type control struct {
	kind  controlKind
	stmts []ast.Statement
	ip    int

	// loopScope is set when pushing the control entered a loop scope.
	loopScope bool

	forStmt *ast.ForStatement
	items   []value.Value
	next    int

	whileStmt *ast.WhileStatement

	tryStmt *ast.TryStatement
	block   *TryBlock
	phase   tryPhase
	closed  bool
	pending *completion
}

func blockControl(b *ast.BlockStatement) *control {
	c := &control{kind: ctlBlock}
	if b != nil {
		c.stmts = b.Statements
	}
	return c
}

type completionKind int

const (
	compError completionKind = iota
	compReturn
	compBreak
	compContinue
)

func (k completionKind) String() string {
	switch k {
	case compReturn:
		return "return"
	case compBreak:
		return "break"
	case compContinue:
		return "continue"
	}
	return "error"
}

// completion is an abrupt exit travelling down the control stack.
type completion struct {
	kind  completionKind
	err   *dcerr.Error
	value value.Value
}

func errorCompletion(err error, line int) *completion {
	return &completion{kind: compError, err: dcerr.FromError(err, line)}
}
