package value

import (
	"strings"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5, "5"},
		{-3, "-3"},
		{3.5, "3.5"},
		{120, "120"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e20, "1e+20"},
	}
	for i, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Fatalf("tests[%d] - expected %q, got %q", i, tt.want, got)
		}
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{TRUE, true},
		{FALSE, false},
		{NULL, false},
		{&Number{Value: 0}, false},
		{&Number{Value: 2}, true},
		{&String{Value: ""}, false},
		{&String{Value: "x"}, true},
		{&Array{}, false},
		{&Array{Elements: []Value{NULL}}, true},
		{NewObject(), false},
	}
	for i, tt := range tests {
		if got := IsTruthy(tt.v); got != tt.want {
			t.Fatalf("tests[%d] - expected %v, got %v", i, tt.want, got)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{&Number{Value: 1}, &Number{Value: 1}, true},
		{&Number{Value: 0.1 + 0.2}, &Number{Value: 0.3}, true},
		{&Number{Value: 42}, &String{Value: "42"}, true},
		{&String{Value: "4.5"}, &Number{Value: 4.5}, true},
		{&String{Value: "abc"}, &Number{Value: 1}, false},
		{NULL, NULL, true},
		{NULL, FALSE, false},
		{&Array{Elements: []Value{&Number{Value: 1}}}, &Array{Elements: []Value{&Number{Value: 1}}}, true},
		{&Path{Value: "/a"}, &Path{Value: "/a"}, true},
		{&Path{Value: "/a"}, &String{Value: "/a"}, false},
	}
	for i, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Fatalf("tests[%d] - Equal(%s, %s) expected %v, got %v", i, tt.a.Inspect(), tt.b.Inspect(), tt.want, got)
		}
	}
}

func TestHashStructural(t *testing.T) {
	a := []Value{&Number{Value: 3}, &String{Value: "x"}, &Array{Elements: []Value{TRUE}}}
	b := []Value{&Number{Value: 3}, &String{Value: "x"}, &Array{Elements: []Value{TRUE}}}
	if Hash(a) != Hash(b) {
		t.Fatal("expected equal argument lists to hash equally")
	}

	c := []Value{&Number{Value: 3}, &String{Value: "y"}, &Array{Elements: []Value{TRUE}}}
	if Hash(a) == Hash(c) {
		t.Fatal("expected different argument lists to hash differently")
	}

	// string "3" and number 3 are distinct arguments
	if Hash([]Value{&Number{Value: 3}}) == Hash([]Value{&String{Value: "3"}}) {
		t.Fatal("expected type to participate in hash")
	}

	o1 := &Object{Pairs: map[string]Value{"a": &Number{Value: 1}, "b": &Number{Value: 2}}}
	o2 := &Object{Pairs: map[string]Value{"b": &Number{Value: 2}, "a": &Number{Value: 1}}}
	if Hash([]Value{o1}) != Hash([]Value{o2}) {
		t.Fatal("expected object hash to be independent of insertion order")
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in     string
		ok     bool
		code   string
		amount float64
	}{
		{"$12.50", true, "USD", 12.5},
		{"12.50 EUR", true, "EUR", 12.5},
		{"USD 1,200.00", true, "USD", 1200},
		{"100 ₽", true, "RUB", 100},
		{"-€3", true, "EUR", -3},
		{"12,5 EUR", true, "EUR", 12.5},
		{"12.50", false, "", 0},
		{"hello world", false, "", 0},
		{"12 dollars", false, "", 0},
	}
	for i, tt := range tests {
		c, ok := ParseCurrency(tt.in)
		if ok != tt.ok {
			t.Fatalf("tests[%d] - ParseCurrency(%q) ok expected %v, got %v", i, tt.in, tt.ok, ok)
		}
		if !ok {
			continue
		}
		if c.Code != tt.code || c.Amount != tt.amount {
			t.Fatalf("tests[%d] - expected %s %v, got %s %v", i, tt.code, tt.amount, c.Code, c.Amount)
		}
		if c.Inspect() != tt.in {
			t.Fatalf("tests[%d] - expected raw text to be kept, got %q", i, c.Inspect())
		}
	}
}

func TestTableSharedMutation(t *testing.T) {
	tbl, err := NewTable([]string{"name", "age"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alias := Value(tbl)

	if err := tbl.AddRow([]Value{&String{Value: "ann"}, &Number{Value: 31}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := alias.(*Table).Len(); got != 1 {
		t.Fatalf("expected alias to see 1 row, got %d", got)
	}
	if alias.Inspect() != "Table(1x2)" {
		t.Fatalf("unexpected display %q", alias.Inspect())
	}

	if err := tbl.AddRow([]Value{&String{Value: "bob"}}); err == nil {
		t.Fatal("expected row width error")
	}

	col, ok := tbl.Column("age")
	if !ok || len(col) != 1 || col[0].Inspect() != "31" {
		t.Fatalf("unexpected age column %v", col)
	}
	row, ok := tbl.RowObject(0)
	if !ok || row.Pairs["name"].Inspect() != "ann" {
		t.Fatalf("unexpected row object %v", row)
	}
}

func TestTableDuplicateColumns(t *testing.T) {
	if _, err := NewTable([]string{"a", "a"}); err == nil {
		t.Fatal("expected duplicate column error")
	}
}

func TestTableColumnInference(t *testing.T) {
	tbl, _ := NewTable([]string{"n", "s", "when"})
	rows := [][]Value{
		{&Number{Value: 1}, &String{Value: "a"}, &String{Value: "2024-01-02"}},
		{&Number{Value: 2.5}, &String{Value: "b"}, &String{Value: "2024-03-04"}},
		{&String{Value: "n/a"}, &String{Value: "c"}, &String{Value: "05.06.2024"}},
	}
	for _, r := range rows {
		if err := tbl.AddRow(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	types := tbl.ColumnTypes()
	want := []DataType{DataFloat, DataString, DataDate}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("tests[%d] - expected %s, got %s", i, want[i], types[i])
		}
	}
	warnings := tbl.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Column 'n'") {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}

func TestInspectNested(t *testing.T) {
	arr := &Array{Elements: []Value{&Number{Value: 1}, &String{Value: "a"}, NULL}}
	if got := arr.Inspect(); got != "[1, 'a', null]" {
		t.Fatalf("unexpected array display %q", got)
	}
	obj := &Object{Pairs: map[string]Value{"b": TRUE, "a": &Number{Value: 2.5}}}
	if got := obj.Inspect(); got != "{a: 2.5, b: true}" {
		t.Fatalf("unexpected object display %q", got)
	}
}
