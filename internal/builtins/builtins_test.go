package builtins

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"datacode/internal/dcerr"
	"datacode/internal/runtimeio"
	"datacode/internal/value"
)

func n(f float64) value.Value { return &value.Number{Value: f} }
func s(v string) value.Value { return &value.String{Value: v} }
func arr(vs ...value.Value) value.Value {
	return &value.Array{Elements: vs}
}

func TestBuiltinResults(t *testing.T) {
	obj := value.NewObject()
	obj.Pairs["b"] = n(2)
	obj.Pairs["a"] = n(1)

	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"len", []value.Value{s("héllo")}, "5"},
		{"len", []value.Value{arr(n(1), n(2))}, "2"},
		{"len", []value.Value{obj}, "2"},
		{"str", []value.Value{n(2.5)}, "2.5"},
		{"num", []value.Value{s(" 42 ")}, "42"},
		{"num", []value.Value{value.TRUE}, "1"},
		{"num", []value.Value{s("$12.50")}, "12.5"},
		{"type", []value.Value{arr()}, "Array"},
		{"push", []value.Value{arr(n(1)), n(2)}, "[1, 2]"},
		{"pop", []value.Value{arr(n(1), n(2))}, "2"},
		{"pop", []value.Value{arr()}, "null"},
		{"keys", []value.Value{obj}, "['a', 'b']"},
		{"values", []value.Value{obj}, "[1, 2]"},
		{"enum", []value.Value{arr(s("x"), s("y"))}, "[[0, 'x'], [1, 'y']]"},
		{"enum", []value.Value{s("ab")}, "[[0, 'a'], [1, 'b']]"},
		{"range", []value.Value{n(3)}, "[0, 1, 2]"},
		{"range", []value.Value{n(2), n(5)}, "[2, 3, 4]"},
		{"range", []value.Value{n(5), n(0), n(-2)}, "[5, 3, 1]"},
		{"range", []value.Value{n(0)}, "[]"},
		{"sum", []value.Value{arr(n(1), n(2), n(3.5))}, "6.5"},
		{"avg", []value.Value{arr(n(1), n(2), n(3))}, "2"},
		{"min", []value.Value{n(3), n(-1), n(2)}, "-1"},
		{"max", []value.Value{arr(n(3), n(9), n(2))}, "9"},
		{"abs", []value.Value{n(-4)}, "4"},
		{"round", []value.Value{n(2.5)}, "3"},
		{"round", []value.Value{n(3.14159), n(2)}, "3.14"},
		{"sqrt", []value.Value{n(16)}, "4"},
		{"upper", []value.Value{s("abc")}, "ABC"},
		{"lower", []value.Value{s("ÀB")}, "àb"},
		{"trim", []value.Value{s("  x \n")}, "x"},
		{"split", []value.Value{s("a,b,,c"), s(",")}, "['a', 'b', '', 'c']"},
		{"join", []value.Value{arr(s("a"), n(1)), s("-")}, "a-1"},
		{"contains", []value.Value{s("dataset"), s("tas")}, "true"},
		{"contains", []value.Value{arr(n(1), n(2)), n(2)}, "true"},
		{"contains", []value.Value{obj, s("z")}, "false"},
		{"path", []value.Value{s("data/./in.csv")}, "data/in.csv"},
		{"currency", []value.Value{s("12.50 EUR")}, "12.50 EUR"},
	}

	r := New(nil)
	for i, tt := range tests {
		got, err := r.Call(tt.name, tt.args, 1)
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error: %v", i, tt.name, err)
		}
		if got.Inspect() != tt.want {
			t.Fatalf("tests[%d] - %s: expected %q, got %q", i, tt.name, tt.want, got.Inspect())
		}
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"len", nil, "Function Error at line 3: Function 'len' expects 1 arguments, found 0"},
		{"range", []value.Value{n(1), n(2), n(3), n(4)}, "Function Error at line 3: Function 'range' expects 1 to 3 arguments, found 4"},
		{"min", nil, "Function Error at line 3: Function 'min' expects at least 1 arguments, found 0"},
		{"len", []value.Value{n(1)}, "Type Error at line 3: expected Array, String, Object or Table, found Number"},
		{"avg", []value.Value{arr()}, "Runtime Error at line 3: Cannot calculate average of empty array"},
		{"sum", []value.Value{arr(n(1), s("x"))}, "Type Error at line 3: expected Array of Numbers, found String"},
		{"sqrt", []value.Value{n(-1)}, "Runtime Error at line 3: Cannot take square root of negative number"},
		{"range", []value.Value{n(0), n(5), n(0)}, "Runtime Error at line 3: Range step cannot be zero"},
		{"num", []value.Value{s("abc")}, "Runtime Error at line 3: Cannot convert 'abc' to number"},
		{"nope", nil, "Function Error at line 3: Function 'nope' not found"},
		{"input", nil, "Runtime Error at line 3: input is not available in non-interactive mode"},
	}

	r := New(nil)
	for i, tt := range tests {
		_, err := r.Call(tt.name, tt.args, 3)
		if err == nil {
			t.Fatalf("tests[%d] - %s: expected error", i, tt.name)
		}
		if _, ok := dcerr.As(err); !ok {
			t.Fatalf("tests[%d] - %s: expected *dcerr.Error, got %T", i, tt.name, err)
		}
		if err.Error() != tt.want {
			t.Fatalf("tests[%d] - %s: expected %q, got %q", i, tt.name, tt.want, err.Error())
		}
	}
}

func TestPrintWritesToRegistryOutput(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)
	if _, err := r.Call("print", []value.Value{s("total:"), n(3), arr(s("a"))}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Call("print", nil, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "total: 3 ['a']\n\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	var other bytes.Buffer
	r.SetOutput(&other)
	_, _ = r.Call("print", []value.Value{s("x")}, 1)
	if other.String() != "x\n" || strings.Count(out.String(), "\n") != 2 {
		t.Fatalf("SetOutput did not redirect print")
	}
}

func TestTableBuiltins(t *testing.T) {
	r := New(nil)
	tv, err := r.Call("table", []value.Value{
		arr(arr(n(1), s("ann")), arr(n(2), s("bob")), arr(n(3))),
		arr(s("id"), s("name")),
	}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl := tv.(*value.Table)
	if tbl.Len() != 2 {
		t.Fatalf("expected short row to be skipped, got %d rows", tbl.Len())
	}

	headers, _ := r.Call("table_headers", []value.Value{tbl}, 1)
	if headers.Inspect() != "['id', 'name']" {
		t.Fatalf("unexpected headers %s", headers.Inspect())
	}

	alias := value.Value(tbl)
	if _, err := r.Call("table_add_row", []value.Value{alias, arr(n(4), s("dan"))}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("expected in-place append, got %d rows", tbl.Len())
	}
	if _, err := r.Call("table_add_row", []value.Value{tbl, arr(n(5))}, 7); err == nil {
		t.Fatal("expected width mismatch error")
	}

	auto, _ := r.Call("table", []value.Value{arr(arr(n(1), n(2)))}, 1)
	if got := auto.(*value.Table).ColumnNames(); got[0] != "Column_0" || got[1] != "Column_1" {
		t.Fatalf("unexpected generated headers %v", got)
	}
}

func TestPurityFlags(t *testing.T) {
	r := New(nil)
	tests := []struct {
		name string
		pure bool
	}{
		{"len", true},
		{"push", true},
		{"table", false},
		{"print", false},
		{"input", false},
		{"getpass", false},
		{"now", false},
		{"table_add_row", false},
		{"unknown", false},
	}
	for i, tt := range tests {
		if got := r.Pure(tt.name); got != tt.pure {
			t.Fatalf("tests[%d] - Pure(%q) expected %v, got %v", i, tt.name, tt.pure, got)
		}
	}
}

func TestInputAndClock(t *testing.T) {
	var out bytes.Buffer
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New(&out,
		WithConsole(runtimeio.NewConsole(strings.NewReader("42\n"), &out)),
		WithClock(func() time.Time { return fixed }),
	)

	got, err := r.Call("input", []value.Value{s("n? ")}, 1)
	if err != nil || got.Inspect() != "42" {
		t.Fatalf("expected 42, got %v (%v)", got, err)
	}
	if out.String() != "n? " {
		t.Fatalf("expected prompt, got %q", out.String())
	}

	now, _ := r.Call("now", nil, 1)
	if now.Inspect() != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected now() %q", now.Inspect())
	}
}

func TestInfosSortedAndDocumented(t *testing.T) {
	infos := Infos()
	for i, info := range infos {
		if i > 0 && infos[i-1].Name >= info.Name {
			t.Fatalf("infos not sorted at %d: %s >= %s", i, infos[i-1].Name, info.Name)
		}
		if info.Signature == "" {
			t.Fatalf("builtin %s has no signature", info.Name)
		}
	}
	if _, ok := New(nil).Lookup("table_add_row"); !ok {
		t.Fatal("expected table_add_row in registry")
	}
}
