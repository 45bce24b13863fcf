package engine

import (
	"math"
	"strings"
	"unicode/utf8"

	"datacode/internal/ast"
	"datacode/internal/dcerr"
	"datacode/internal/ops"
	"datacode/internal/suggest"
	"datacode/internal/value"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// eval evaluates node in the context of frame f. A user function call
// anywhere in node surfaces as a Call signal; once the driver has run the
// callee and stored its result in f's slot map, the statement is evaluated
// again. Every operand finished before the call is kept in the slot map too,
// so the second pass sees the values read before the callee ran.
func (e *Engine) eval(f *CallFrame, node ast.Expression) (ExecSignal, error) {
	if v, ok := f.slots[node]; ok {
		return valueSignal(v), nil
	}
	sig, err := e.evalNode(f, node)
	if err == nil && sig.Kind == SignalValue && !isLiteral(node) {
		f.slots[node] = sig.Value
	}
	return sig, err
}

func isLiteral(node ast.Expression) bool {
	switch node.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NullLiteral:
		return true
	}
	return false
}

func (e *Engine) evalNode(f *CallFrame, node ast.Expression) (ExecSignal, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return valueSignal(&value.Number{Value: n.Value}), nil
	case *ast.StringLiteral:
		return valueSignal(&value.String{Value: n.Value}), nil
	case *ast.BooleanLiteral:
		return valueSignal(value.NativeBool(n.Value)), nil
	case *ast.NullLiteral:
		return valueSignal(value.NULL), nil
	case *ast.Identifier:
		v, err := e.lookup(n)
		if err != nil {
			return ExecSignal{}, err
		}
		return valueSignal(v), nil
	case *ast.PrefixExpression:
		return e.evalPrefix(f, n)
	case *ast.InfixExpression:
		return e.evalInfix(f, n)
	case *ast.IndexExpression:
		return e.evalIndexExpression(f, n)
	case *ast.MemberExpression:
		obj, err := e.eval(f, n.Object)
		if err != nil || obj.Kind != SignalValue {
			return obj, err
		}
		v, err := member(obj.Value, n.Property.Value)
		if err != nil {
			return ExecSignal{}, dcerr.FromError(err, n.Token.Line)
		}
		return valueSignal(v), nil
	case *ast.ArrayLiteral:
		elems, sig, err := e.evalList(f, n.Elements)
		if err != nil || sig != nil {
			return deref(sig), err
		}
		return valueSignal(&value.Array{Elements: elems}), nil
	case *ast.ObjectLiteral:
		obj := value.NewObject()
		for _, p := range n.Pairs {
			sig, err := e.eval(f, p.Value)
			if err != nil || sig.Kind != SignalValue {
				return sig, err
			}
			obj.Pairs[p.Key] = sig.Value
		}
		return valueSignal(obj), nil
	case *ast.CallExpression:
		return e.evalCall(f, n)
	case *ast.SpreadExpression:
		return ExecSignal{}, dcerr.Runtime(n.Token.Line, "Spread is only allowed in array literals and call arguments")
	}
	return ExecSignal{}, dcerr.Runtimef(ast.Line(node), "Cannot evaluate %s", node.String())
}

func deref(sig *ExecSignal) ExecSignal {
	if sig == nil {
		return ExecSignal{}
	}
	return *sig
}

func (e *Engine) lookup(id *ast.Identifier) (value.Value, error) {
	if v, ok := e.scope.Get(id.Value); ok {
		return v, nil
	}
	if fn, ok := e.functions[id.Value]; ok {
		return fn, nil
	}
	err := dcerr.VarNotFound(id.Token.Line, id.Value)
	if s := suggest.Closest(id.Value, e.scope.Names()); s != "" {
		err.WithSuggestion(s)
	}
	return nil, err
}

func (e *Engine) evalPrefix(f *CallFrame, n *ast.PrefixExpression) (ExecSignal, error) {
	op, ok := ops.ParseUnary(n.Operator)
	if !ok {
		return ExecSignal{}, dcerr.Runtimef(n.Token.Line, "Unknown operator %s", n.Operator)
	}
	right, err := e.eval(f, n.Right)
	if err != nil || right.Kind != SignalValue {
		return right, err
	}
	v, err := ops.Unary(op, right.Value)
	if err != nil {
		return ExecSignal{}, dcerr.FromError(err, n.Token.Line)
	}
	return valueSignal(v), nil
}

func (e *Engine) evalInfix(f *CallFrame, n *ast.InfixExpression) (ExecSignal, error) {
	op, ok := ops.ParseBinary(n.Operator)
	if !ok {
		return ExecSignal{}, dcerr.Runtimef(n.Token.Line, "Unknown operator %s", n.Operator)
	}
	left, err := e.eval(f, n.Left)
	if err != nil || left.Kind != SignalValue {
		return left, err
	}

	switch op {
	case ops.And, ops.Or:
		lt := value.IsTruthy(left.Value)
		if (op == ops.And && !lt) || (op == ops.Or && lt) {
			return valueSignal(value.NativeBool(lt)), nil
		}
		right, err := e.eval(f, n.Right)
		if err != nil || right.Kind != SignalValue {
			return right, err
		}
		return valueSignal(value.NativeBool(value.IsTruthy(right.Value))), nil
	}

	right, err := e.eval(f, n.Right)
	if err != nil || right.Kind != SignalValue {
		return right, err
	}
	v, err := ops.Binary(op, left.Value, right.Value)
	if err != nil {
		return ExecSignal{}, dcerr.FromError(err, n.Token.Line)
	}
	return valueSignal(v), nil
}

// evalList evaluates expressions left to right, expanding spreads. A non-nil
// signal means a call must run first.
func (e *Engine) evalList(f *CallFrame, exprs []ast.Expression) ([]value.Value, *ExecSignal, error) {
	out := make([]value.Value, 0, len(exprs))
	for _, x := range exprs {
		if sp, ok := x.(*ast.SpreadExpression); ok {
			sig, err := e.eval(f, sp.Value)
			if err != nil {
				return nil, nil, err
			}
			if sig.Kind != SignalValue {
				return nil, &sig, nil
			}
			arr, ok := sig.Value.(*value.Array)
			if !ok {
				return nil, nil, dcerr.TypeMismatch(sp.Token.Line, "Array", string(sig.Value.Type()))
			}
			out = append(out, arr.Elements...)
			continue
		}
		sig, err := e.eval(f, x)
		if err != nil {
			return nil, nil, err
		}
		if sig.Kind != SignalValue {
			return nil, &sig, nil
		}
		out = append(out, sig.Value)
	}
	return out, nil, nil
}

func (e *Engine) evalCall(f *CallFrame, ce *ast.CallExpression) (ExecSignal, error) {
	if v, ok := f.slots[ce]; ok {
		return valueSignal(v), nil
	}
	req, sig, err := e.prepareCall(f, ce)
	if err != nil || sig != nil {
		return deref(sig), err
	}
	if req != nil {
		return callSignal(req), nil
	}
	return valueSignal(f.slots[ce]), nil
}

// prepareCall evaluates the arguments of ce. User functions come back as a
// request; builtins run immediately and their result lands in f's slot map.
func (e *Engine) prepareCall(f *CallFrame, ce *ast.CallExpression) (*CallRequest, *ExecSignal, error) {
	line := ce.Token.Line
	name := ce.Callee()
	if name == "" {
		return nil, nil, dcerr.Runtimef(line, "'%s' is not callable", ce.Function.String())
	}

	args, sig, err := e.evalList(f, ce.Arguments)
	if err != nil || sig != nil {
		return nil, sig, err
	}
	named := make(map[string]value.Value, len(ce.Named))
	for _, na := range ce.Named {
		s, err := e.eval(f, na.Value)
		if err != nil {
			return nil, nil, err
		}
		if s.Kind != SignalValue {
			return nil, &s, nil
		}
		named[na.Name.Value] = s.Value
	}

	if fn, ok := e.functions[name]; ok {
		bound, err := bindArguments(fn, args, ce.Named, named, line)
		if err != nil {
			return nil, nil, err
		}
		return &CallRequest{Function: fn, Args: bound, Slot: ce, Line: line}, nil, nil
	}

	if e.builtins.Has(name) {
		if len(ce.Named) > 0 {
			return nil, nil, dcerr.UnknownParam(line, name, ce.Named[0].Name.Value)
		}
		v, err := e.builtins.Call(name, args, line)
		if err != nil {
			return nil, nil, err
		}
		f.slots[ce] = v
		return nil, nil, nil
	}

	nf := dcerr.FuncNotFound(line, name)
	if s := suggest.Closest(name, e.callableNames()); s != "" {
		nf.WithSuggestion(s)
	}
	return nil, nil, nf
}

// bindArguments orders positional and named arguments by parameter.
func bindArguments(fn *value.Function, args []value.Value, order []ast.NamedArgument, named map[string]value.Value, line int) ([]value.Value, error) {
	params := fn.ParamNames()
	found := len(args) + len(order)
	if len(args) > len(params) {
		return nil, dcerr.ArgCount(line, fn.Name, len(params), found)
	}
	bound := make([]value.Value, len(params))
	copy(bound, args)
	for _, na := range order {
		idx := -1
		for i, p := range params {
			if p == na.Name.Value {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, dcerr.UnknownParam(line, fn.Name, na.Name.Value)
		}
		if bound[idx] != nil {
			return nil, dcerr.Runtimef(line, "Function '%s' got multiple values for parameter '%s'", fn.Name, na.Name.Value)
		}
		bound[idx] = named[na.Name.Value]
	}
	for _, v := range bound {
		if v == nil {
			return nil, dcerr.ArgCount(line, fn.Name, len(params), found)
		}
	}
	return bound, nil
}

func (e *Engine) evalIndexExpression(f *CallFrame, n *ast.IndexExpression) (ExecSignal, error) {
	left, err := e.eval(f, n.Left)
	if err != nil || left.Kind != SignalValue {
		return left, err
	}
	idx, err := e.eval(f, n.Index)
	if err != nil || idx.Kind != SignalValue {
		return idx, err
	}
	v, err := index(left.Value, idx.Value)
	if err != nil {
		return ExecSignal{}, dcerr.FromError(err, n.Token.Line)
	}
	return valueSignal(v), nil
}

func position(kind string, f float64, length int) (int, error) {
	if f != math.Trunc(f) {
		return 0, dcerr.Runtimef(0, "%s index must be an integer", kind)
	}
	i := int(f)
	actual := i
	if actual < 0 {
		actual += length
	}
	if actual < 0 || actual >= length {
		if kind == "Table row" {
			return 0, dcerr.Runtimef(0, "Table row index %d out of bounds (rows: %d)", i, length)
		}
		return 0, dcerr.Runtimef(0, "%s index %d out of bounds (length: %d)", kind, i, length)
	}
	return actual, nil
}

func index(container, idx value.Value) (value.Value, error) {
	switch c := container.(type) {
	case *value.Array:
		n, ok := idx.(*value.Number)
		if !ok {
			return nil, dcerr.Runtime(0, "Array index must be an integer")
		}
		i, err := position("Array", n.Value, len(c.Elements))
		if err != nil {
			return nil, err
		}
		return c.Elements[i], nil
	case *value.String:
		n, ok := idx.(*value.Number)
		if !ok {
			return nil, dcerr.Runtime(0, "String index must be an integer")
		}
		runes := []rune(c.Value)
		i, err := position("String", n.Value, len(runes))
		if err != nil {
			return nil, err
		}
		return &value.String{Value: string(runes[i])}, nil
	case *value.Object:
		key, ok := idx.(*value.String)
		if !ok {
			return nil, dcerr.TypeMismatch(0, "String key", string(idx.Type()))
		}
		v, ok := c.Pairs[key.Value]
		if !ok {
			return nil, dcerr.Runtimef(0, "Key '%s' not found in object", key.Value)
		}
		return v, nil
	case *value.Table:
		switch k := idx.(type) {
		case *value.Number:
			i, err := position("Table row", k.Value, c.Len())
			if err != nil {
				return nil, err
			}
			row, _ := c.Row(i)
			return &value.Array{Elements: row}, nil
		case *value.String:
			col, ok := c.Column(k.Value)
			if !ok {
				return nil, dcerr.Runtimef(0, "Column '%s' not found in table", k.Value)
			}
			return &value.Array{Elements: col}, nil
		}
		return nil, dcerr.TypeMismatch(0, "Number or String", string(idx.Type()))
	case *value.RowIndex:
		n, ok := idx.(*value.Number)
		if !ok {
			return nil, dcerr.Runtime(0, "Table row index must be an integer")
		}
		i, err := position("Table row", n.Value, c.Table.Len())
		if err != nil {
			return nil, err
		}
		row, _ := c.Table.RowObject(i)
		return row, nil
	}
	return nil, dcerr.TypeMismatch(0, "indexable type", string(container.Type()))
}

func member(obj value.Value, name string) (value.Value, error) {
	switch o := obj.(type) {
	case *value.Object:
		v, ok := o.Pairs[name]
		if !ok {
			return nil, dcerr.Runtimef(0, "Member '%s' not found", name)
		}
		return v, nil
	case *value.Table:
		switch name {
		case "rows":
			return &value.Number{Value: float64(o.Len())}, nil
		case "columns":
			return &value.Number{Value: float64(o.Width())}, nil
		case "column_names":
			names := o.ColumnNames()
			out := make([]value.Value, len(names))
			for i, n := range names {
				out[i] = &value.String{Value: n}
			}
			return &value.Array{Elements: out}, nil
		case "idx":
			return &value.RowIndex{Table: o}, nil
		}
		if col, ok := o.Column(name); ok {
			return &value.Array{Elements: col}, nil
		}
		return nil, dcerr.Runtimef(0, "Table has no member or column '%s'", name)
	case *value.Array:
		switch name {
		case "length", "len":
			return &value.Number{Value: float64(len(o.Elements))}, nil
		case "first":
			if len(o.Elements) == 0 {
				return value.NULL, nil
			}
			return o.Elements[0], nil
		case "last":
			if len(o.Elements) == 0 {
				return value.NULL, nil
			}
			return o.Elements[len(o.Elements)-1], nil
		}
		return nil, dcerr.Runtimef(0, "Array has no member '%s'", name)
	case *value.String:
		switch name {
		case "length", "len":
			return &value.Number{Value: float64(utf8.RuneCountInString(o.Value))}, nil
		case "upper":
			return &value.String{Value: upperCaser.String(o.Value)}, nil
		case "lower":
			return &value.String{Value: lowerCaser.String(o.Value)}, nil
		case "trim":
			return &value.String{Value: strings.TrimSpace(o.Value)}, nil
		}
		return nil, dcerr.Runtimef(0, "String has no member '%s'", name)
	}
	return nil, dcerr.Runtimef(0, "Cannot access member '%s' on %s", name, obj.Type())
}
