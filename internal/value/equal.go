package value

import (
	"math"
	"strconv"
	"strings"
)

const epsilon = 2.220446049250313e-16

func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case *Bool:
		return v.Value
	case *Null:
		return false
	case *Number:
		return v.Value != 0
	case *String:
		return v.Value != ""
	case *Array:
		return len(v.Elements) > 0
	case *Object:
		return len(v.Pairs) > 0
	case *Table:
		return v.Len() > 0
	case *Currency:
		return v.Raw != ""
	case *Path:
		return v.Value != ""
	case *PathPattern:
		return v.Value != ""
	default:
		return true
	}
}

// Equal implements ==. Numbers compare within epsilon and a numeric string
// equals the number it parses to.
func Equal(a, b Value) bool {
	switch l := a.(type) {
	case *Number:
		switch r := b.(type) {
		case *Number:
			return numEq(l.Value, r.Value)
		case *String:
			return numStrEq(l.Value, r.Value)
		}
	case *String:
		switch r := b.(type) {
		case *String:
			return l.Value == r.Value
		case *Number:
			return numStrEq(r.Value, l.Value)
		}
	case *Bool:
		r, ok := b.(*Bool)
		return ok && l.Value == r.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Currency:
		r, ok := b.(*Currency)
		return ok && l.Raw == r.Raw
	case *Path:
		r, ok := b.(*Path)
		return ok && l.Value == r.Value
	case *PathPattern:
		r, ok := b.(*PathPattern)
		return ok && l.Value == r.Value
	case *Array:
		r, ok := b.(*Array)
		if !ok || len(l.Elements) != len(r.Elements) {
			return false
		}
		for i := range l.Elements {
			if !Equal(l.Elements[i], r.Elements[i]) {
				return false
			}
		}
		return true
	case *Object:
		r, ok := b.(*Object)
		if !ok || len(l.Pairs) != len(r.Pairs) {
			return false
		}
		for k, lv := range l.Pairs {
			rv, ok := r.Pairs[k]
			if !ok || !Equal(lv, rv) {
				return false
			}
		}
		return true
	case *Table:
		r, ok := b.(*Table)
		if !ok {
			return false
		}
		if l == r {
			return true
		}
		return tablesEqual(l, r)
	case *Function:
		r, ok := b.(*Function)
		return ok && l == r
	case *RowIndex:
		r, ok := b.(*RowIndex)
		return ok && l.Table == r.Table
	}
	return false
}

func numEq(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func numStrEq(n float64, s string) bool {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	return numEq(n, parsed)
}

func tablesEqual(l, r *Table) bool {
	ln, rn := l.ColumnNames(), r.ColumnNames()
	if len(ln) != len(rn) {
		return false
	}
	for i := range ln {
		if ln[i] != rn[i] {
			return false
		}
	}
	lr, rr := l.Rows(), r.Rows()
	if len(lr) != len(rr) {
		return false
	}
	for i := range lr {
		for j := range lr[i] {
			if !Equal(lr[i][j], rr[i][j]) {
				return false
			}
		}
	}
	return true
}
