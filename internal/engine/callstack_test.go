package engine

import (
	"errors"
	"testing"

	"datacode/internal/ast"
	"datacode/internal/limits"
	"datacode/internal/token"
	"datacode/internal/value"
)

func fnFrame(name string, line int) *CallFrame {
	f := newFrame(&value.Function{Name: name}, nil)
	f.Line = line
	return f
}

func TestCallStackDepthLimit(t *testing.T) {
	s := NewCallStack(2)
	main := newFrame(nil, nil)
	if err := s.Push(main); err != nil {
		t.Fatalf("program frame rejected: %v", err)
	}
	if err := s.Push(fnFrame("a", 1)); err != nil {
		t.Fatalf("push a: %v", err)
	}
	if err := s.Push(fnFrame("b", 2)); err != nil {
		t.Fatalf("push b: %v", err)
	}
	if s.Depth() != 2 || s.Len() != 3 {
		t.Fatalf("expected depth 2 len 3, got depth %d len %d", s.Depth(), s.Len())
	}

	err := s.Push(fnFrame("c", 3))
	var de limits.MaxDepthError
	if !errors.As(err, &de) || de.Function != "c" || de.Limit != 2 {
		t.Fatalf("expected depth error naming c, got %v", err)
	}
	if s.Check("c") == nil {
		t.Fatalf("Check should agree with Push")
	}

	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("pop did not release depth: %d", s.Depth())
	}
	if err := s.Push(fnFrame("c", 3)); err != nil {
		t.Fatalf("push after pop: %v", err)
	}
}

func TestReplaceTopKeepsDepth(t *testing.T) {
	s := NewCallStack(10)
	s.Push(newFrame(nil, nil))
	s.Push(fnFrame("a", 1))
	s.Push(fnFrame("b", 2))

	old := s.ReplaceTop(fnFrame("c", 5))
	if old.Name() != "b" {
		t.Fatalf("expected b replaced, got %s", old.Name())
	}
	if top := s.Top(); top.Name() != "c" || top.Depth != 2 {
		t.Fatalf("unexpected top %s at depth %d", top.Name(), top.Depth)
	}
	if s.Depth() != 2 || s.Len() != 3 {
		t.Fatalf("replace changed the stack size: depth %d len %d", s.Depth(), s.Len())
	}
}

func TestCallStackTrace(t *testing.T) {
	s := NewCallStack(10)
	s.Push(newFrame(nil, nil))
	s.Push(fnFrame("outer", 4))
	s.Push(fnFrame("inner", 9))

	want := []string{"at inner (called from line 9)", "at outer (called from line 4)", "at <main>"}
	got := s.Trace()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tests[%d] - expected %q, got %q", i, want[i], got[i])
		}
	}

	s.reset()
	if s.Len() != 0 || s.Depth() != 0 {
		t.Fatalf("reset left frames behind")
	}
}

func TestExceptionStack(t *testing.T) {
	s := NewExceptionStack()
	outer := &ast.TryStatement{
		Token:        token.Token{Line: 1},
		CatchName:    &ast.Identifier{Value: "e"},
		CatchBlock:   &ast.BlockStatement{},
		FinallyBlock: &ast.BlockStatement{},
	}
	inner := &ast.TryStatement{Token: token.Token{Line: 3}, FinallyBlock: &ast.BlockStatement{}}

	a := s.Push(outer)
	b := s.Push(inner)
	if a.ID == b.ID || b.ID <= a.ID {
		t.Fatalf("ids not monotonic: %d, %d", a.ID, b.ID)
	}
	if a.Level != 0 || b.Level != 1 {
		t.Fatalf("unexpected levels %d, %d", a.Level, b.Level)
	}
	if a.CatchVar != "e" || b.CatchVar != "" || b.CatchBody != nil {
		t.Fatalf("catch clause not recorded")
	}
	if s.Top() != b {
		t.Fatalf("top should be the innermost block")
	}
	if !s.Pop(b) || s.Pop(b) {
		t.Fatalf("pop should succeed once")
	}
	if s.Top() != a || s.Len() != 1 {
		t.Fatalf("outer block should remain")
	}

	c := s.Push(inner)
	if c.ID <= b.ID {
		t.Fatalf("id reused after pop: %d", c.ID)
	}
	if a.State != TryRunning || a.State.String() != "running" {
		t.Fatalf("new blocks start running, got %s", a.State)
	}
}
