package lint

import (
	"testing"

	"datacode/internal/diag"
	"datacode/internal/parser"

	"github.com/google/go-cmp/cmp"
)

type finding struct {
	Code string
	Line int
	Col  int
	Msg  string
}

func lintSource(t *testing.T, src string, opts Options) []finding {
	t.Helper()
	prog, diags := parser.Parse(src)
	if len(diags) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	var out []finding
	for _, d := range RunWithOptions(prog, opts) {
		out = append(out, finding{d.Code, d.Range.Line, d.Range.Col, d.Message})
	}
	return out
}

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []finding
	}{
		{"clean", `global function add(a, b) do
    local s = a + b
    return s
endfunction
x = add(1, 2)`, nil},
		{"unused parameter", `global function f(a, _) do
    return 1
endfunction`, []finding{{CodeUnusedParam, 1, 19, "unused parameter: a"}}},
		{"unused local", `global function f() do
    local tmp = 1
    return 2
endfunction`, []finding{{CodeUnusedVariable, 2, 11, "unused variable: tmp"}}},
		{"unreachable after return", `global function f() do
    return 1
    print('never')
    print('also never')
endfunction`, []finding{{CodeUnreachable, 3, 5, "unreachable code"}}},
		{"unreachable after break", `for i in [1, 2] do
    break
    print(i)
next i`, []finding{{CodeUnreachable, 3, 5, "unreachable code"}}},
		{"break outside loop", `if true then
    break
endif`, []finding{{CodeLoopControl, 2, 5, "break outside of a loop"}}},
		{"continue in function inside loop body", `for i in [1] do
    global function f() do
        continue
    endfunction
next i`, []finding{{CodeLoopControl, 3, 9, "continue outside of a loop"}}},
		{"loop variable and catch name are not reads", `global function f(xs) do
    for v in xs do
        try
            print(v)
        catch e
            print('failed')
        endtry
    next v
endfunction`, nil},
		{"shadowed builtin", `global function len(x) do
    return 0
endfunction`, []finding{
			{CodeShadowsBuiltin, 1, 17, "function 'len' shadows the builtin of the same name"},
			{CodeUnusedParam, 1, 21, "unused parameter: x"},
		}},
	}
	for i, tt := range tests {
		got := lintSource(t, tt.src, DefaultOptions())
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("tests[%d] %s - findings mismatch (-want +got):\n%s", i, tt.name, diff)
		}
	}
}

func TestShadowingCanBeDisabled(t *testing.T) {
	got := lintSource(t, "global function len(x) do\n    return x\nendfunction", Options{})
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %v", got)
	}
}

func TestSeverities(t *testing.T) {
	prog, _ := parser.Parse("global function sum(_) do\n    return 0\nendfunction\nbreak")
	got := map[string]diag.Severity{}
	for _, d := range Run(prog) {
		got[d.Code] = d.Severity
	}
	want := map[string]diag.Severity{
		CodeLoopControl:    diag.SeverityError,
		CodeShadowsBuiltin: diag.SeverityInfo,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("severity mismatch (-want +got):\n%s", diff)
	}
}

func TestNilProgram(t *testing.T) {
	if got := Run(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
