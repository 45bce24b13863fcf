package engine

import (
	"fmt"

	"datacode/internal/ast"
	"datacode/internal/cache"
	"datacode/internal/limits"
	"datacode/internal/value"
)

// CallFrame is one activation. The program itself runs in a frame with a
// nil Function.
type CallFrame struct {
	Function   *value.Function
	Args       []value.Value
	Locals     map[string]value.Value
	ReturnSlot *ast.CallExpression
	Depth      int
	Line       int

	// Entry frames deliver their result to the embedding caller instead of
	// a caller frame.
	Entry bool

	cacheKeys []cache.Key
	// slots holds the values computed so far in the current statement.
	slots     map[ast.Expression]value.Value
	controls  []*control
}

func newFrame(fn *value.Function, args []value.Value) *CallFrame {
	return &CallFrame{
		Function: fn,
		Args:     args,
		slots:    map[ast.Expression]value.Value{},
	}
}

func (f *CallFrame) Name() string {
	if f.Function == nil {
		return "<main>"
	}
	return f.Function.Name
}

// IP is the index of the statement the frame's body is at.
func (f *CallFrame) IP() int {
	if len(f.controls) == 0 {
		return -1
	}
	return f.controls[0].ip
}

func (f *CallFrame) push(c *control) {
	f.controls = append(f.controls, c)
}

func (f *CallFrame) top() *control {
	return f.controls[len(f.controls)-1]
}

func (f *CallFrame) pop() *control {
	n := len(f.controls)
	c := f.controls[n-1]
	f.controls[n-1] = nil
	f.controls = f.controls[:n-1]
	return c
}

func (f *CallFrame) clearSlots() {
	clear(f.slots)
}

func (f *CallFrame) inLoop() bool {
	for _, c := range f.controls {
		if c.kind == ctlFor || c.kind == ctlWhile {
			return true
		}
	}
	return false
}

func (f *CallFrame) inTry() bool {
	for _, c := range f.controls {
		if c.kind == ctlTry {
			return true
		}
	}
	return false
}

// CallStack bounds the number of function frames. The program frame does
// not count against the limit.
type CallStack struct {
	frames []*CallFrame
	budget *limits.DepthBudget
}

func NewCallStack(maxDepth int) *CallStack {
	return &CallStack{budget: limits.NewDepthBudget(maxDepth)}
}

func (s *CallStack) MaxDepth() int { return s.budget.Limit() }

// Depth is the number of function frames on the stack.
func (s *CallStack) Depth() int { return s.budget.Used() }

func (s *CallStack) Len() int { return len(s.frames) }

// Check reports the depth error Push would return for a frame calling name.
func (s *CallStack) Check(name string) error {
	return s.budget.Check(name)
}

func (s *CallStack) Push(f *CallFrame) error {
	if f.Function != nil {
		if err := s.budget.Charge(f.Function.Name); err != nil {
			return err
		}
	}
	f.Depth = s.budget.Used()
	s.frames = append(s.frames, f)
	return nil
}

func (s *CallStack) Pop() *CallFrame {
	n := len(s.frames)
	if n == 0 {
		return nil
	}
	f := s.frames[n-1]
	s.frames[n-1] = nil
	s.frames = s.frames[:n-1]
	if f.Function != nil {
		s.budget.Release()
	}
	return f
}

func (s *CallStack) Top() *CallFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// ReplaceTop swaps the top frame for f, keeping its depth.
func (s *CallStack) ReplaceTop(f *CallFrame) *CallFrame {
	n := len(s.frames)
	if n == 0 {
		return nil
	}
	old := s.frames[n-1]
	f.Depth = old.Depth
	s.frames[n-1] = f
	return old
}

// Trace lists the active frames, innermost first.
func (s *CallStack) Trace() []string {
	out := make([]string, 0, len(s.frames))
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if f.Function == nil {
			out = append(out, "at <main>")
			continue
		}
		out = append(out, fmt.Sprintf("at %s (called from line %d)", f.Function.Name, f.Line))
	}
	return out
}

func (s *CallStack) reset() {
	for s.Pop() != nil {
	}
}
