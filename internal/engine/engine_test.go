package engine

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"datacode/internal/cache"
	"datacode/internal/dcerr"
	"datacode/internal/value"
)

func newTestEngine(opts ...Option) (*Engine, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out)}, opts...)
	return New(opts...), &out
}

func testExec(t *testing.T, src string, opts ...Option) (*Engine, value.Value, string) {
	t.Helper()
	e, out := newTestEngine(opts...)
	v, err := e.Execute(src)
	if err != nil {
		t.Fatalf("execute failed: %v\nsource:\n%s", err, src)
	}
	return e, v, out.String()
}

func testExecError(t *testing.T, src string, opts ...Option) *dcerr.Error {
	t.Helper()
	e, _ := newTestEngine(opts...)
	_, err := e.Execute(src)
	if err == nil {
		t.Fatalf("expected an error\nsource:\n%s", src)
	}
	de, ok := dcerr.As(err)
	if !ok {
		t.Fatalf("expected *dcerr.Error, got %T (%v)", err, err)
	}
	return de
}

func mustVar(t *testing.T, e *Engine, name string) value.Value {
	t.Helper()
	v, ok := e.GetVariable(name)
	if !ok {
		t.Fatalf("variable %q not defined", name)
	}
	return v
}

func expectNumber(t *testing.T, v value.Value, want float64) {
	t.Helper()
	n, ok := v.(*value.Number)
	if !ok {
		t.Fatalf("expected *value.Number, got %T (%v)", v, v)
	}
	if n.Value != want {
		t.Fatalf("expected %v, got %v", want, n.Value)
	}
}

const factorialSrc = `global function factorial(n) do
    if n <= 1 do
        return 1
    endif
    return n * factorial(n - 1)
endfunction
`

func TestFactorial(t *testing.T) {
	_, v, _ := testExec(t, factorialSrc+"factorial(5)")
	expectNumber(t, v, 120)
}

func TestExpressionResults(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "7"},
		{"'a' + 'b'", "ab"},
		{"[1, 2, 3][-1]", "3"},
		{"o = {a: 1, b: [1, 2]}\no['b'][1]", "2"},
		{"xs = [1, 2]\n[0, ...xs, 3]", "[0, 1, 2, 3]"},
		{"'hello'.upper", "HELLO"},
		{"[4, 5, 6].len", "3"},
		{"true and false", "false"},
		{"false or 1", "true"},
		{"not null", "true"},
		{"len(range(4))", "4"},
		{"x = 3", "null"},
		{"return 5\nprint('unreachable')", "5"},
	}
	for i, tt := range tests {
		_, v, _ := testExec(t, tt.input)
		if v.Inspect() != tt.want {
			t.Fatalf("tests[%d] - expected %q, got %q", i, tt.want, v.Inspect())
		}
	}
}

func TestRecursionWithinDepth(t *testing.T) {
	src := `global function sum_to(n) do
    if n <= 0 do
        return 0
    endif
    return n + sum_to(n - 1)
endfunction
sum_to(1000)`

	_, v, _ := testExec(t, src)
	expectNumber(t, v, 500500)

	de := testExecError(t, src, WithMaxCallDepth(100))
	if !strings.Contains(de.Error(), "stack depth exceeded") || !strings.Contains(de.Error(), "'sum_to'") {
		t.Fatalf("unexpected error %q", de.Error())
	}
}

func TestDepthErrorIsCatchable(t *testing.T) {
	src := `global function down(n) do
    return 1 + down(n + 1)
endfunction
caught = false
try
    down(0)
catch e
    caught = true
    msg = e
endtry`

	e, _, _ := testExec(t, src, WithMaxCallDepth(20))
	if !value.IsTruthy(mustVar(t, e, "caught")) {
		t.Fatalf("depth error was not caught")
	}
	if e.stack.Depth() != 0 || e.stack.Len() != 0 {
		t.Fatalf("stack not empty after run: depth=%d len=%d", e.stack.Depth(), e.stack.Len())
	}
	if msg := mustVar(t, e, "msg").Inspect(); !strings.Contains(msg, "stack depth exceeded") {
		t.Fatalf("unexpected catch message %q", msg)
	}
}

func TestTailCallsDoNotGrowTheStack(t *testing.T) {
	src := `global function loop(n, acc) do
    if n == 0 do
        return acc
    endif
    return loop(n - 1, acc + n)
endfunction
loop(500, 0)`

	_, v, _ := testExec(t, src, WithMaxCallDepth(10))
	expectNumber(t, v, 125250)
}

func TestTailCallInsideTryIsNotReplaced(t *testing.T) {
	src := `global function loop(n) do
    if n == 0 do
        return 0
    endif
    try
        return loop(n - 1)
    finally
        print('f')
    endtry
endfunction
loop(3)`

	_, v, out := testExec(t, src)
	expectNumber(t, v, 0)
	if out != "f\nf\nf\n" {
		t.Fatalf("expected three finally runs, got %q", out)
	}
}

func TestScopeExitRemovesNames(t *testing.T) {
	src := `global function f(a) do
    tmp = a * 2
    return tmp
endfunction
y = f(3)
for i in [1, 2] do
    inner = i
next i`

	e, _, _ := testExec(t, src)
	expectNumber(t, mustVar(t, e, "y"), 6)
	expectNumber(t, mustVar(t, e, "inner"), 2)
	for _, name := range []string{"a", "tmp", "i"} {
		if _, ok := e.GetVariable(name); ok {
			t.Fatalf("%q still visible after its scope exited", name)
		}
	}
	if e.scope.FunctionDepth() != 0 || e.scope.LoopDepth() != 0 {
		t.Fatalf("scopes leaked: functions=%d loops=%d", e.scope.FunctionDepth(), e.scope.LoopDepth())
	}
}

func TestGlobalAssignmentFromFunction(t *testing.T) {
	src := `global function set() do
    global counter = 7
    local hidden = 1
endfunction
set()`

	e, _, _ := testExec(t, src)
	expectNumber(t, mustVar(t, e, "counter"), 7)
	if _, ok := e.GetVariable("hidden"); ok {
		t.Fatalf("local assignment leaked to globals")
	}
}

func TestNestedTryCatch(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`x = 0
try
    try
        throw 'inner'
    catch e
        x = 1
    endtry
catch e2
    x = 2
endtry`, 1},
		{`x = 0
try
    try
        throw 'inner'
    catch e
        throw e
    endtry
catch e2
    x = 2
endtry`, 2},
		{`x = 0
try
    try
        throw 'inner'
    finally
        x = 10
    endtry
catch e
    x = x + 1
endtry`, 11},
	}
	for i, tt := range tests {
		e, _, _ := testExec(t, tt.input)
		v := mustVar(t, e, "x")
		if n, ok := v.(*value.Number); !ok || n.Value != tt.want {
			t.Fatalf("tests[%d] - expected x == %v, got %s", i, tt.want, v.Inspect())
		}
		if e.exceptions.Len() != 0 {
			t.Fatalf("tests[%d] - exception stack not empty: %d", i, e.exceptions.Len())
		}
	}
}

func TestCatchVariable(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"try\n    throw 'boom'\ncatch e\n    msg = e\nendtry", "boom"},
		{"try\n    throw 42\ncatch e\n    msg = e\nendtry", "42"},
		{"try\n    y = missing\ncatch e\n    msg = e\nendtry", "Variable Error at line 2: Variable 'missing' not found"},
	}
	for i, tt := range tests {
		e, _, _ := testExec(t, tt.input)
		got := mustVar(t, e, "msg").Inspect()
		if got != tt.want {
			t.Fatalf("tests[%d] - expected %q, got %q", i, tt.want, got)
		}
		if _, ok := e.GetVariable("e"); ok {
			t.Fatalf("tests[%d] - catch variable visible after endtry", i)
		}
	}
}

func TestFinallyRunsExactlyOnce(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"try\n    print('body')\nfinally\n    print('finally')\nendtry", "body\nfinally\n"},
		{"try\n    throw 'x'\ncatch e\n    print('catch')\nfinally\n    print('finally')\nendtry", "catch\nfinally\n"},
		{`global function f() do
    try
        return 1
    finally
        print('finally')
    endtry
endfunction
f()`, "finally\n"},
		{`for i in [1, 2, 3] do
    try
        if i == 2 do
            break
        endif
    finally
        print(i)
    endtry
next i`, "1\n2\n"},
		{`for i in [1, 2] do
    try
        continue
    finally
        print(i)
    endtry
next i`, "1\n2\n"},
		{`try
    try
        throw 'a'
    catch e
        throw 'b'
    finally
        print('finally')
    endtry
catch e2
    print(e2)
endtry`, "finally\nb\n"},
		{`global function f() do
    try
        throw 'a'
    catch e
        throw e + '!'
    finally
        print('finally')
    endtry
endfunction
try
    f()
catch e
    print(e)
endtry`, "finally\na!\n"},
	}
	for i, tt := range tests {
		_, _, out := testExec(t, tt.input)
		if out != tt.want {
			t.Fatalf("tests[%d] - expected output %q, got %q", i, tt.want, out)
		}
	}
}

func TestFinallyOutcomeWins(t *testing.T) {
	de := testExecError(t, "try\n    throw 'first'\nfinally\n    throw 'second'\nendtry")
	if de.Kind != dcerr.KindUserException || de.Message != "second" {
		t.Fatalf("expected the finally error, got %v", de)
	}

	src := `global function f() do
    try
        throw 'lost'
    finally
        return 3
    endtry
endfunction
f()`
	_, v, _ := testExec(t, src)
	expectNumber(t, v, 3)

	nested := `try
    try
        throw 'a'
    finally
        throw 'b'
    endtry
catch e
    seen = e
endtry`
	e, _, _ := testExec(t, nested)
	if got := mustVar(t, e, "seen").Inspect(); got != "b" {
		t.Fatalf("outer catch expected the finally error %q, got %q", "b", got)
	}
	if e.exceptions.Len() != 0 {
		t.Fatalf("exception stack not empty: %d", e.exceptions.Len())
	}
}

func TestUncaughtErrorUnwindsFrames(t *testing.T) {
	src := `global function inner() do
    throw 'deep'
endfunction
global function outer() do
    try
        inner()
    finally
        print('cleanup')
    endtry
endfunction
outer()`

	e, out := newTestEngine()
	_, err := e.Execute(src)
	de, ok := dcerr.As(err)
	if !ok || de.Kind != dcerr.KindUserException || de.Line != 2 {
		t.Fatalf("expected user exception at line 2, got %v", err)
	}
	if out.String() != "cleanup\n" {
		t.Fatalf("finally did not run while unwinding: %q", out.String())
	}
	if e.stack.Len() != 0 || e.scope.FunctionDepth() != 0 || e.exceptions.Len() != 0 {
		t.Fatalf("engine state leaked after error")
	}
}

func TestLoops(t *testing.T) {
	tests := []struct {
		input string
		name  string
		want  string
	}{
		{`total = 0
for i in range(10) do
    if i == 5 do
        break
    endif
    if i % 2 == 0 do
        continue
    endif
    total = total + i
next i`, "total", "4"},
		{`i = 0
while i < 5 do
    i = i + 1
endwhile`, "i", "5"},
		{`s = ''
for c in 'abc' do
    s = c + s
next c`, "s", "cba"},
		{`s = ''
for k in {b: 1, a: 2} do
    s = s + k
next k`, "s", "ab"},
		{`s = ''
for i, v in enum(['x', 'y']) do
    s = s + str(i) + v
next`, "s", "0x1y"},
		{`s = 0
t = table([[1, 'a'], [2, 'b']], ['id', 'name'])
for row in t do
    s = s + row.id
next row`, "s", "3"},
		{`n = 0
for a, b in [[1], [2, 3]] do
    if b == null do
        n = n + a
    endif
next`, "n", "1"},
	}
	for i, tt := range tests {
		e, _, _ := testExec(t, tt.input)
		got := mustVar(t, e, tt.name).Inspect()
		if got != tt.want {
			t.Fatalf("tests[%d] - expected %s == %q, got %q", i, tt.name, tt.want, got)
		}
	}
}

func TestIndexAssignCopiesOnWrite(t *testing.T) {
	src := `a = [1, 2, 3]
b = a
a[0] = 10
a[-1] = 9
m = {k: [1, 2]}
m['k'][1] = 5
m['new'] = 'v'`

	e, _, _ := testExec(t, src)
	tests := []struct {
		name string
		want string
	}{
		{"a", "[10, 2, 9]"},
		{"b", "[1, 2, 3]"},
	}
	for i, tt := range tests {
		if got := mustVar(t, e, tt.name).Inspect(); got != tt.want {
			t.Fatalf("tests[%d] - expected %s == %s, got %s", i, tt.name, tt.want, got)
		}
	}
	m := mustVar(t, e, "m").(*value.Object)
	if got := m.Pairs["k"].Inspect(); got != "[1, 5]" {
		t.Fatalf("nested assignment failed: %s", got)
	}
	if got := m.Pairs["new"].Inspect(); got != "v" {
		t.Fatalf("new key not set: %s", got)
	}
}

func TestCallArguments(t *testing.T) {
	def := `global function sub(a, b) do
    return a - b
endfunction
`
	tests := []struct {
		input string
		want  float64
	}{
		{"sub(5, 1)", 4},
		{"sub(b=1, a=5)", 4},
		{"sub(5, b=1)", 4},
		{"sub(...[5, 1])", 4},
		{"sub(sub(10, 2), sub(3, 1))", 6},
	}
	for i, tt := range tests {
		_, v, _ := testExec(t, def+tt.input)
		if n, ok := v.(*value.Number); !ok || n.Value != tt.want {
			t.Fatalf("tests[%d] - expected %v, got %v", i, tt.want, v)
		}
	}
}

func TestErrors(t *testing.T) {
	def := `global function sub(a, b) do
    return a - b
endfunction
`
	tests := []struct {
		input string
		want  string
	}{
		{"x = y + 1", "Variable Error at line 1: Variable 'y' not found"},
		{"total = 1\nprint(totl)", "Variable Error at line 2: Variable 'totl' not found (did you mean 'total'?)"},
		{"prnt(1)", "Function Error at line 1: Function 'prnt' not found (did you mean 'print'?)"},
		{def + "sub(1)", "Function Error at line 4: Function 'sub' expects 2 arguments, found 1"},
		{def + "sub(1, c=2)", "Function Error at line 4: Function 'sub' has no parameter 'c'"},
		{def + "sub(1, a=2)", "Runtime Error at line 4: Function 'sub' got multiple values for parameter 'a'"},
		{"len([1], x=1)", "Function Error at line 1: Function 'len' has no parameter 'x'"},
		{"break", "Runtime Error at line 1: break outside of loop"},
		{"continue", "Runtime Error at line 1: continue outside of loop"},
		{"[1, 2][5]", "Runtime Error at line 1: Array index 5 out of bounds (length: 2)"},
		{"o = {a: 1}\no['b']", "Runtime Error at line 2: Key 'b' not found in object"},
		{"a = 5\na[0] = 1", "Runtime Error at line 2: Cannot assign by index into Number"},
		{"t = table([[1]], ['a'])\nt[0] = [2]", "Runtime Error at line 2: Cannot assign by index into Table"},
		{"for x in 5 do\n    print(x)\nnext", "Type Error at line 1: expected Array, String, Table or Object, found Number"},
		{"throw 'custom'", "User Exception at line 1: custom"},
	}
	for i, tt := range tests {
		de := testExecError(t, tt.input)
		if de.Error() != tt.want {
			t.Fatalf("tests[%d] - expected %q, got %q", i, tt.want, de.Error())
		}
	}
}

func TestSyntaxErrorsAreReported(t *testing.T) {
	de := testExecError(t, "x = (1 +")
	if de.Kind != dcerr.KindSyntax {
		t.Fatalf("expected syntax error, got %v", de)
	}
}

func TestResultCache(t *testing.T) {
	src := `global function sq(n) do
    return n * n
endfunction
a = sq(4)
b = sq(4)
c = sq(5)`

	e, _, _ := testExec(t, src)
	st := e.CacheStats()
	if st.Hits != 1 || st.Misses != 2 || st.Size != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	expectNumber(t, mustVar(t, e, "b"), 16)

	if _, err := e.Execute("global function sq(n) do\n    return n + 1\nendfunction\nd = sq(4)"); err != nil {
		t.Fatalf("redefinition failed: %v", err)
	}
	expectNumber(t, mustVar(t, e, "d"), 5)
}

func TestImpureFunctionsAreNotCached(t *testing.T) {
	src := `global function noisy(n) do
    print(n)
    return n
endfunction
noisy(1)
noisy(1)`

	e, _, out := testExec(t, src)
	if out != "1\n1\n" {
		t.Fatalf("expected both calls to print, got %q", out)
	}
	if st := e.CacheStats(); st.Hits != 0 || st.Size != 0 {
		t.Fatalf("impure function was cached: %+v", st)
	}
}

func TestCacheDisabled(t *testing.T) {
	e, _, _ := testExec(t, factorialSrc+"factorial(6)", WithoutCache())
	if st := e.CacheStats(); st.Size != 0 || st.Hits != 0 || st.Misses != 0 {
		t.Fatalf("cache should be off: %+v", st)
	}
}

func TestInProgressCallsBypassCache(t *testing.T) {
	src := factorialSrc + "factorial(5)"
	e, _, _ := testExec(t, src)
	if e.cache.Len() != 5 {
		t.Fatalf("expected one entry per completed call, got %d", e.cache.Len())
	}
	for n := 1; n <= 5; n++ {
		k := cache.NewKey("factorial", []value.Value{&value.Number{Value: float64(n)}})
		if e.cache.InProgress(k) {
			t.Fatalf("factorial(%d) still marked in progress", n)
		}
	}
}

func TestHostCall(t *testing.T) {
	e, _, _ := testExec(t, factorialSrc)
	v, err := e.Call("factorial", &value.Number{Value: 4})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	expectNumber(t, v, 24)

	if _, err := e.Call("factorail"); err == nil || !strings.Contains(err.Error(), "did you mean 'factorial'") {
		t.Fatalf("expected suggestion, got %v", err)
	}
	if _, err := e.Call("factorial"); err == nil {
		t.Fatalf("expected argument count error")
	}
	if !e.HasFunction("factorial") || len(e.Functions()) != 1 {
		t.Fatalf("function table wrong: %v", e.Functions())
	}
}

func TestVariablesPersistAcrossExecutions(t *testing.T) {
	e, _ := newTestEngine()
	e.SetVariable("base", &value.Number{Value: 10}, true)
	if _, err := e.Execute("x = base + 1"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if _, err := e.Execute("y = x * 2"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	expectNumber(t, mustVar(t, e, "y"), 22)
	if g := e.GlobalVariables(); len(g) != 3 {
		t.Fatalf("expected 3 globals, got %d", len(g))
	}
	if _, err := e.Execute("x + 1"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	expectNumber(t, e.LastValue(), 12)
}

func TestCancelledContext(t *testing.T) {
	e, _ := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ExecuteContext(ctx, "while true do\n    x = 1\nendwhile")
	if err == nil || !strings.Contains(err.Error(), "execution cancelled") {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, err := e.Execute("z = 1"); err != nil {
		t.Fatalf("engine unusable after cancellation: %v", err)
	}
}

func TestSetOutput(t *testing.T) {
	e, first := newTestEngine()
	var second bytes.Buffer
	e.SetOutput(&second)
	if _, err := e.Execute("print('hi')"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if first.Len() != 0 || second.String() != "hi\n" {
		t.Fatalf("output went to the wrong sink: first=%q second=%q", first.String(), second.String())
	}
}

func TestReentrantCallsMissCache(t *testing.T) {
	// every call of twice(1) re-enters twice(1) while an outer twice(1) is
	// still running; the depth limit ends the recursion
	src := `global function twice(n) do
    try
        x = twice(n)
        return x + twice(n)
    catch e
        return 1
    endtry
endfunction
a = twice(1)`

	plain, _, _ := testExec(t, src, WithMaxCallDepth(4), WithoutCache())
	want := mustVar(t, plain, "a").(*value.Number).Value

	e, _, _ := testExec(t, src, WithMaxCallDepth(4))
	expectNumber(t, mustVar(t, e, "a"), want)
	st := e.CacheStats()
	if st.Hits != 0 {
		t.Fatalf("in-flight call was answered from the cache: %+v", st)
	}
	if st.Misses < 2 {
		t.Fatalf("expected nested lookups to miss, got %+v", st)
	}

	if _, err := e.Execute("b = twice(1)"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	expectNumber(t, mustVar(t, e, "b"), want)
	if st := e.CacheStats(); st.Hits != 1 {
		t.Fatalf("expected the completed call to be cached, got %+v", st)
	}
}

func TestOperandsReadBeforeCall(t *testing.T) {
	prelude := `global c = 0
global function inc() do
    global c = c + 1
    return 1
endfunction
`
	tests := []struct {
		input string
		want  float64
	}{
		{"global r = c + inc()", 1},
		{"global r = inc() + c", 2},
		{"global r = c * 10 + inc() + c", 2},
		{"if c + inc() == 1 do\n    r = 1\nelse\n    r = 0\nendif", 1},
		{"r = -c + inc()", 1},
	}
	for i, tt := range tests {
		e, _, _ := testExec(t, prelude+tt.input)
		v := mustVar(t, e, "r")
		if n, ok := v.(*value.Number); !ok || n.Value != tt.want {
			t.Fatalf("tests[%d] - expected r == %v, got %s", i, tt.want, v.Inspect())
		}
		expectNumber(t, mustVar(t, e, "c"), 1)
	}
}

func TestLoopConditionRereadEachIteration(t *testing.T) {
	src := `global function one() do
    return 1
endfunction
i = 0
while i + one() < 4 do
    i = i + 1
endwhile`
	e, _, _ := testExec(t, src)
	expectNumber(t, mustVar(t, e, "i"), 3)
}

func TestConditionalLocalIsNotCached(t *testing.T) {
	src := `global x = 5
global function g(n) do
    if n > 0 do
        x = 1
    endif
    return x
endfunction
a = g(0)
global x = 7
b = g(0)`
	e, _, _ := testExec(t, src)
	expectNumber(t, mustVar(t, e, "a"), 5)
	expectNumber(t, mustVar(t, e, "b"), 7)
}

func TestHugeStringRepeatIsAnError(t *testing.T) {
	for i, src := range []string{
		"s = 'ab' * 5000000000000000000",
		"s = 'ab' * 10000000000000000000",
	} {
		de := testExecError(t, src)
		if de.Kind != dcerr.KindRuntime || !strings.Contains(de.Error(), "too large") {
			t.Fatalf("tests[%d] - expected a size error, got %v", i, de)
		}
	}
}
