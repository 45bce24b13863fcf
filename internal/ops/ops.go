// Package ops implements DataCode's operator semantics over runtime values.
package ops

import (
	"math"
	"path/filepath"
	"strings"

	"datacode/internal/dcerr"
	"datacode/internal/limits"
	"datacode/internal/value"
)

type Operator int

const (
	Add Operator = iota
	Sub
	Mul
	Div
	Mod
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	And
	Or
	Not
	Neg
)

var symbols = map[Operator]string{
	Add:   "+",
	Sub:   "-",
	Mul:   "*",
	Div:   "/",
	Mod:   "%",
	Eq:    "==",
	NotEq: "!=",
	Lt:    "<",
	LtEq:  "<=",
	Gt:    ">",
	GtEq:  ">=",
	And:   "and",
	Or:    "or",
	Not:   "not",
	Neg:   "-",
}

func (o Operator) String() string { return symbols[o] }

// ParseBinary maps an infix operator's source text to its Operator.
func ParseBinary(s string) (Operator, bool) {
	switch s {
	case "+":
		return Add, true
	case "-":
		return Sub, true
	case "*":
		return Mul, true
	case "/":
		return Div, true
	case "%":
		return Mod, true
	case "==":
		return Eq, true
	case "!=":
		return NotEq, true
	case "<":
		return Lt, true
	case "<=":
		return LtEq, true
	case ">":
		return Gt, true
	case ">=":
		return GtEq, true
	case "and":
		return And, true
	case "or":
		return Or, true
	}
	return 0, false
}

func ParseUnary(s string) (Operator, bool) {
	switch s {
	case "-":
		return Neg, true
	case "not":
		return Not, true
	}
	return 0, false
}

// Binary applies a binary operator. Returned errors carry no line.
// And and Or evaluate both operands here; the evaluator short-circuits them.
func Binary(op Operator, left, right value.Value) (value.Value, error) {
	switch op {
	case Add:
		return add(left, right)
	case Sub:
		l, r, err := numbers(left, right)
		if err != nil {
			return nil, err
		}
		return &value.Number{Value: l - r}, nil
	case Mul:
		return mul(left, right)
	case Div:
		return div(left, right)
	case Mod:
		l, r, err := numbers(left, right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, dcerr.Runtime(0, "Modulo by zero")
		}
		return &value.Number{Value: math.Mod(l, r)}, nil
	case Eq:
		return value.NativeBool(value.Equal(left, right)), nil
	case NotEq:
		return value.NativeBool(!value.Equal(left, right)), nil
	case Lt, LtEq, Gt, GtEq:
		return compare(op, left, right)
	case And:
		return value.NativeBool(value.IsTruthy(left) && value.IsTruthy(right)), nil
	case Or:
		return value.NativeBool(value.IsTruthy(left) || value.IsTruthy(right)), nil
	case Not, Neg:
		return nil, dcerr.Runtimef(0, "operator %s is unary", op)
	}
	return nil, dcerr.Runtimef(0, "unknown operator %d", int(op))
}

func Unary(op Operator, right value.Value) (value.Value, error) {
	switch op {
	case Not:
		return value.NativeBool(!value.IsTruthy(right)), nil
	case Neg:
		n, ok := right.(*value.Number)
		if !ok {
			return nil, dcerr.TypeMismatch(0, string(value.NUMBER_VAL), string(right.Type()))
		}
		return &value.Number{Value: -n.Value}, nil
	case Add, Sub, Mul, Div, Mod, Eq, NotEq, Lt, LtEq, Gt, GtEq, And, Or:
		return nil, dcerr.Runtimef(0, "operator %s is binary", op)
	}
	return nil, dcerr.Runtimef(0, "unknown operator %d", int(op))
}

func add(left, right value.Value) (value.Value, error) {
	switch l := left.(type) {
	case *value.Number:
		switch r := right.(type) {
		case *value.Number:
			return &value.Number{Value: l.Value + r.Value}, nil
		case *value.String:
			return &value.String{Value: value.FormatNumber(l.Value) + r.Value}, nil
		}
	case *value.String:
		switch r := right.(type) {
		case *value.String:
			return &value.String{Value: l.Value + r.Value}, nil
		case *value.Number:
			return &value.String{Value: l.Value + value.FormatNumber(r.Value)}, nil
		case *value.Path:
			return &value.String{Value: l.Value + r.Value}, nil
		}
	case *value.Path:
		if r, ok := right.(*value.String); ok {
			return joinPath(l.Value, r.Value), nil
		}
	}
	return nil, dcerr.TypeMismatch(0, string(left.Type()), string(right.Type()))
}

func mul(left, right value.Value) (value.Value, error) {
	switch l := left.(type) {
	case *value.Number:
		switch r := right.(type) {
		case *value.Number:
			return &value.Number{Value: l.Value * r.Value}, nil
		case *value.String:
			return repeat(r.Value, l)
		}
	case *value.String:
		if r, ok := right.(*value.Number); ok {
			return repeat(l.Value, r)
		}
	}
	return nil, dcerr.TypeMismatch(0, string(value.NUMBER_VAL), string(offender(left, right)))
}

func repeat(s string, n *value.Number) (value.Value, error) {
	if n.Value < 0 || n.Value != math.Trunc(n.Value) {
		return nil, dcerr.Runtime(0, "String multiplication requires non-negative integer")
	}
	if s == "" {
		return &value.String{}, nil
	}
	if n.Value > float64(limits.MaxStringBytes/len(s)) {
		return nil, dcerr.Runtimef(0, "String multiplication result too large (limit %d bytes)", limits.MaxStringBytes)
	}
	return &value.String{Value: strings.Repeat(s, int(n.Value))}, nil
}

func div(left, right value.Value) (value.Value, error) {
	switch l := left.(type) {
	case *value.Number:
		if r, ok := right.(*value.Number); ok {
			if r.Value == 0 {
				return nil, dcerr.Runtime(0, "Division by zero")
			}
			return &value.Number{Value: l.Value / r.Value}, nil
		}
	case *value.Path:
		switch r := right.(type) {
		case *value.String:
			return joinPath(l.Value, r.Value), nil
		case *value.Path:
			return joinPath(l.Value, r.Value), nil
		}
	}
	return nil, dcerr.Runtime(0, "Invalid operands for / operator. Use Path/String for path joining or Number/Number for division")
}

func joinPath(base, rel string) value.Value {
	joined := filepath.Join(base, strings.TrimLeft(rel, "/"))
	if strings.ContainsAny(rel, "*?[") {
		return &value.PathPattern{Value: joined}
	}
	return &value.Path{Value: joined}
}

func compare(op Operator, left, right value.Value) (value.Value, error) {
	var c int
	switch l := left.(type) {
	case *value.Number:
		r, ok := right.(*value.Number)
		if !ok {
			return nil, dcerr.TypeMismatch(0, string(value.NUMBER_VAL), string(right.Type()))
		}
		switch {
		case l.Value < r.Value:
			c = -1
		case l.Value > r.Value:
			c = 1
		}
	case *value.String:
		r, ok := right.(*value.String)
		if !ok {
			return nil, dcerr.TypeMismatch(0, string(value.STRING_VAL), string(right.Type()))
		}
		c = strings.Compare(l.Value, r.Value)
	default:
		return nil, dcerr.TypeMismatch(0, "Number or String", string(left.Type()))
	}

	switch op {
	case Lt:
		return value.NativeBool(c < 0), nil
	case LtEq:
		return value.NativeBool(c <= 0), nil
	case Gt:
		return value.NativeBool(c > 0), nil
	default:
		return value.NativeBool(c >= 0), nil
	}
}

func numbers(left, right value.Value) (float64, float64, error) {
	l, lok := left.(*value.Number)
	r, rok := right.(*value.Number)
	if !lok || !rok {
		return 0, 0, dcerr.TypeMismatch(0, string(value.NUMBER_VAL), string(offender(left, right)))
	}
	return l.Value, r.Value, nil
}

func offender(left, right value.Value) value.Type {
	if _, ok := left.(*value.Number); !ok {
		return left.Type()
	}
	return right.Type()
}
