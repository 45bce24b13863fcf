package scope

import (
	"testing"

	"datacode/internal/value"
)

func num(f float64) value.Value { return &value.Number{Value: f} }

func TestLookupPrecedence(t *testing.T) {
	m := New()
	m.Set("x", num(1), true)

	m.EnterFunctionScope()
	m.Set("x", num(2), false)
	if v, _ := m.Get("x"); v.Inspect() != "2" {
		t.Fatalf("expected function local to shadow global, got %s", v.Inspect())
	}

	m.EnterLoopScope()
	m.SetLoopVariable("x", num(3))
	if v, _ := m.Get("x"); v.Inspect() != "3" {
		t.Fatalf("expected loop variable to shadow local, got %s", v.Inspect())
	}

	m.ExitLoopScope()
	if v, _ := m.Get("x"); v.Inspect() != "2" {
		t.Fatalf("expected local after loop exit, got %s", v.Inspect())
	}

	m.ExitFunctionScope()
	if v, _ := m.Get("x"); v.Inspect() != "1" {
		t.Fatalf("expected global after function exit, got %s", v.Inspect())
	}
}

func TestSetTargets(t *testing.T) {
	tests := []struct {
		inFunction bool
		isGlobal   bool
		wantGlobal bool
	}{
		{false, false, true},
		{false, true, true},
		{true, false, false},
		{true, true, true},
	}
	for i, tt := range tests {
		m := New()
		if tt.inFunction {
			m.EnterFunctionScope()
		}
		m.Set("v", num(7), tt.isGlobal)
		_, global := m.Globals()["v"]
		if global != tt.wantGlobal {
			t.Fatalf("tests[%d] - expected global=%v, got %v", i, tt.wantGlobal, global)
		}
	}
}

func TestScopeExitRemovesNames(t *testing.T) {
	m := New()
	m.Set("shared", num(1), true)

	m.EnterFunctionScope()
	m.Set("inner", num(2), false)
	m.Set("shared", num(3), false)
	m.ExitFunctionScope()

	if m.Has("inner") {
		t.Fatal("expected function local to be gone after exit")
	}
	if v, _ := m.Get("shared"); v.Inspect() != "1" {
		t.Fatalf("expected global binding intact, got %s", v.Inspect())
	}

	m.EnterLoopScope()
	m.SetLoopVariable("i", num(0))
	m.SetLoopVariable("shared", num(9))
	m.ExitLoopScope()

	if m.Has("i") {
		t.Fatal("expected loop variable to be gone after exit")
	}
	if v, _ := m.Get("shared"); v.Inspect() != "1" {
		t.Fatalf("expected global binding intact after loop, got %s", v.Inspect())
	}
}

func TestCalleeDoesNotSeeCallerLoopVars(t *testing.T) {
	m := New()
	m.EnterLoopScope()
	m.SetLoopVariable("item", num(1))

	m.EnterFunctionScope()
	if m.Has("item") {
		t.Fatal("callee must not resolve the caller's loop variable")
	}
	m.ExitFunctionScope()

	if !m.Has("item") {
		t.Fatal("expected loop variable visible again in caller")
	}
}

func TestReplaceFunctionScope(t *testing.T) {
	m := New()
	m.EnterFunctionScope()
	m.Set("a", num(1), false)
	m.ReplaceFunctionScope()

	if m.Has("a") {
		t.Fatal("expected replaced scope to be empty")
	}
	if m.FunctionDepth() != 1 {
		t.Fatalf("expected depth 1, got %d", m.FunctionDepth())
	}
}

func TestNames(t *testing.T) {
	m := New()
	m.Set("b", num(1), true)
	m.EnterFunctionScope()
	m.Set("a", num(1), false)
	m.EnterLoopScope()
	m.SetLoopVariable("c", num(1))

	got := m.Names()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tests[%d] - expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestUpdateRebindsResolvedTier(t *testing.T) {
	m := New()
	m.Set("g", num(1), true)
	m.EnterFunctionScope()
	m.Set("l", num(2), false)
	m.EnterLoopScope()
	m.SetLoopVariable("v", num(3))

	tests := []struct {
		name string
		want bool
	}{
		{"g", true},
		{"l", true},
		{"v", true},
		{"missing", false},
	}
	for i, tt := range tests {
		if got := m.Update(tt.name, num(9)); got != tt.want {
			t.Fatalf("tests[%d] - Update(%q) expected %v, got %v", i, tt.name, tt.want, got)
		}
	}

	if _, ok := m.Locals()["v"]; ok {
		t.Fatal("loop variable leaked into locals")
	}
	m.ExitLoopScope()
	m.ExitFunctionScope()
	v, _ := m.Get("g")
	if v.(*value.Number).Value != 9 {
		t.Fatalf("expected global rebound to 9, got %s", v.Inspect())
	}
	if m.Has("l") {
		t.Fatal("function local survived scope exit")
	}
}
