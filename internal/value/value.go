package value

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"datacode/internal/ast"
)

type Type string

const (
	NUMBER_VAL       Type = "Number"
	STRING_VAL       Type = "String"
	BOOL_VAL         Type = "Bool"
	NULL_VAL         Type = "Null"
	ARRAY_VAL        Type = "Array"
	OBJECT_VAL       Type = "Object"
	TABLE_VAL        Type = "Table"
	CURRENCY_VAL     Type = "Currency"
	PATH_VAL         Type = "Path"
	PATH_PATTERN_VAL Type = "PathPattern"
	FUNCTION_VAL     Type = "Function"
	ROW_INDEX_VAL    Type = "TableIndex"
)

type Value interface {
	Type() Type
	Inspect() string
}

var (
	NULL  = &Null{}
	TRUE  = &Bool{Value: true}
	FALSE = &Bool{Value: false}
)

func NativeBool(b bool) *Bool {
	if b {
		return TRUE
	}
	return FALSE
}

type Number struct{ Value float64 }

func (*Number) Type() Type        { return NUMBER_VAL }
func (n *Number) Inspect() string { return FormatNumber(n.Value) }

// IsInteger reports whether the number has no fractional part.
func (n *Number) IsInteger() bool {
	return n.Value == float64(int64(n.Value))
}

type String struct{ Value string }

func (*String) Type() Type        { return STRING_VAL }
func (s *String) Inspect() string { return s.Value }

type Bool struct{ Value bool }

func (*Bool) Type() Type { return BOOL_VAL }
func (b *Bool) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}

type Null struct{}

func (*Null) Type() Type      { return NULL_VAL }
func (*Null) Inspect() string { return "null" }

type Array struct {
	Elements []Value
}

func (*Array) Type() Type { return ARRAY_VAL }
func (a *Array) Inspect() string {
	var out bytes.Buffer
	out.WriteString("[")
	for i, el := range a.Elements {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(inspectNested(el))
	}
	out.WriteString("]")
	return out.String()
}

type Object struct {
	Pairs map[string]Value
}

func NewObject() *Object {
	return &Object{Pairs: map[string]Value{}}
}

func (*Object) Type() Type { return OBJECT_VAL }
func (o *Object) Inspect() string {
	var out bytes.Buffer
	out.WriteString("{")
	for i, k := range o.Keys() {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(k)
		out.WriteString(": ")
		out.WriteString(inspectNested(o.Pairs[k]))
	}
	out.WriteString("}")
	return out.String()
}

// Keys returns the object's keys in sorted order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.Pairs))
	for k := range o.Pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Currency keeps the literal text it was parsed from.
type Currency struct {
	Raw    string
	Amount float64
	Code   string // ISO 4217 code, or the symbol when no code is known
}

func (*Currency) Type() Type        { return CURRENCY_VAL }
func (c *Currency) Inspect() string { return c.Raw }

type Path struct{ Value string }

func (*Path) Type() Type        { return PATH_VAL }
func (p *Path) Inspect() string { return p.Value }

type PathPattern struct{ Value string }

func (*PathPattern) Type() Type        { return PATH_PATTERN_VAL }
func (p *PathPattern) Inspect() string { return p.Value }

// Function is a user function definition. Scope records the keyword it was
// declared with; the definition itself always lives in the engine's function table.
type Function struct {
	Name       string
	Parameters []*ast.Identifier
	Body       *ast.BlockStatement
	Scope      ast.Scope
	Line       int
}

func (*Function) Type() Type { return FUNCTION_VAL }
func (f *Function) Inspect() string {
	return "<function " + f.Name + "(" + strings.Join(f.ParamNames(), ", ") + ")>"
}

func (f *Function) ParamNames() []string {
	names := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		names = append(names, p.Value)
	}
	return names
}

// RowIndex is the accessor returned by table.idx; indexing it yields rows as objects.
type RowIndex struct {
	Table *Table
}

func (*RowIndex) Type() Type { return ROW_INDEX_VAL }
func (r *RowIndex) Inspect() string {
	return "TableIndex(" + strconv.Itoa(r.Table.Len()) + " rows)"
}

// FormatNumber prints integral values without a fraction.
func FormatNumber(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func inspectNested(v Value) string {
	if s, ok := v.(*String); ok {
		return "'" + s.Value + "'"
	}
	return v.Inspect()
}
