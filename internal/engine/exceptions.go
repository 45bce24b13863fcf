package engine

import "datacode/internal/ast"

type TryState int

const (
	TryRunning TryState = iota
	TryCaught
	TryUncaught
	TryFinally
	TryClosed
)

func (s TryState) String() string {
	switch s {
	case TryCaught:
		return "caught"
	case TryUncaught:
		return "uncaught"
	case TryFinally:
		return "finally"
	case TryClosed:
		return "closed"
	}
	return "running"
}

// TryBlock is one active try construct.
type TryBlock struct {
	ID          int
	Level       int
	CatchVar    string
	CatchBody   *ast.BlockStatement
	FinallyBody *ast.BlockStatement
	State       TryState
	Line        int
}

// ExceptionStack holds the try blocks that are open, innermost last.
type ExceptionStack struct {
	blocks []*TryBlock
	nextID int
}

func NewExceptionStack() *ExceptionStack {
	return &ExceptionStack{}
}

// Push opens a block for ts with a fresh id; its level is the stack depth
// before the push.
func (s *ExceptionStack) Push(ts *ast.TryStatement) *TryBlock {
	s.nextID++
	b := &TryBlock{
		ID:          s.nextID,
		Level:       len(s.blocks),
		CatchBody:   ts.CatchBlock,
		FinallyBody: ts.FinallyBlock,
		Line:        ts.Token.Line,
	}
	if ts.CatchName != nil {
		b.CatchVar = ts.CatchName.Value
	}
	s.blocks = append(s.blocks, b)
	return b
}

// Pop removes b. Blocks close innermost first, so b is normally the top.
func (s *ExceptionStack) Pop(b *TryBlock) bool {
	for i := len(s.blocks) - 1; i >= 0; i-- {
		if s.blocks[i] == b {
			copy(s.blocks[i:], s.blocks[i+1:])
			s.blocks[len(s.blocks)-1] = nil
			s.blocks = s.blocks[:len(s.blocks)-1]
			return true
		}
	}
	return false
}

func (s *ExceptionStack) Top() *TryBlock {
	if len(s.blocks) == 0 {
		return nil
	}
	return s.blocks[len(s.blocks)-1]
}

func (s *ExceptionStack) Len() int { return len(s.blocks) }

func (s *ExceptionStack) reset() {
	s.blocks = nil
}
