package builtins

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"datacode/internal/dcerr"
	"datacode/internal/value"
)

var catalog = concat(coreBuiltins, mathBuiltins, stringBuiltins, dataBuiltins, ioBuiltins)

func concat(groups ...[]*Builtin) []*Builtin {
	var out []*Builtin
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var coreBuiltins = []*Builtin{
	{
		Info: Info{
			Name:      "print",
			Signature: "print(...args) -> null",
			Doc:       "Writes the display form of each argument, separated by spaces, followed by a newline.",
			Params:    []string{"...args"},
			Category:  "system",
			MaxArgs:   -1,
		},
		Fn: func(r *Registry, args []value.Value) (value.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.Inspect()
			}
			if _, err := fmt.Fprintln(r.out, strings.Join(parts, " ")); err != nil {
				return nil, dcerr.Runtimef(0, "print failed: %v", err)
			}
			return value.NULL, nil
		},
	},
	{
		Info: Info{
			Name:      "len",
			Signature: "len(x) -> number",
			Doc:       "Length of a string (characters), array, object or table (rows).",
			Params:    []string{"x"},
			Category:  "array",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			switch v := args[0].(type) {
			case *value.String:
				return num(float64(utf8.RuneCountInString(v.Value))), nil
			case *value.Array:
				return num(float64(len(v.Elements))), nil
			case *value.Object:
				return num(float64(len(v.Pairs))), nil
			case *value.Table:
				return num(float64(v.Len())), nil
			case *value.Currency:
				return num(float64(utf8.RuneCountInString(v.Raw))), nil
			}
			return nil, typeErr("Array, String, Object or Table", args[0])
		},
	},
	{
		Info: Info{
			Name:      "str",
			Signature: "str(x) -> string",
			Doc:       "Converts a value to its display string.",
			Params:    []string{"x"},
			Category:  "system",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			if s, ok := args[0].(*value.String); ok {
				return s, nil
			}
			return str(args[0].Inspect()), nil
		},
	},
	{
		Info: Info{
			Name:      "num",
			Signature: "num(x) -> number",
			Doc:       "Converts a numeric string, bool or currency to a number.",
			Params:    []string{"x"},
			Category:  "system",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			switch v := args[0].(type) {
			case *value.Number:
				return v, nil
			case *value.Bool:
				if v.Value {
					return num(1), nil
				}
				return num(0), nil
			case *value.Currency:
				return num(v.Amount), nil
			case *value.String:
				s := strings.TrimSpace(v.Value)
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					return num(f), nil
				}
				if c, ok := value.ParseCurrency(s); ok {
					return num(c.Amount), nil
				}
				return nil, dcerr.Runtimef(0, "Cannot convert '%s' to number", v.Value)
			}
			return nil, typeErr("String, Number, Bool or Currency", args[0])
		},
	},
	{
		Info: Info{
			Name:      "type",
			Signature: "type(x) -> string",
			Doc:       "Name of the value's type.",
			Params:    []string{"x"},
			Category:  "system",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			return str(string(args[0].Type())), nil
		},
	},
	{
		Info: Info{
			Name:      "push",
			Signature: "push(array, x) -> array",
			Doc:       "Returns a new array with x appended; the argument is left unchanged.",
			Params:    []string{"array", "x"},
			Category:  "array",
			MinArgs:   2,
			MaxArgs:   2,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			arr, err := argArray(args[0])
			if err != nil {
				return nil, err
			}
			out := make([]value.Value, len(arr.Elements), len(arr.Elements)+1)
			copy(out, arr.Elements)
			return &value.Array{Elements: append(out, args[1])}, nil
		},
	},
	{
		Info: Info{
			Name:      "pop",
			Signature: "pop(array) -> value",
			Doc:       "Last element of the array, or null when it is empty.",
			Params:    []string{"array"},
			Category:  "array",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			arr, err := argArray(args[0])
			if err != nil {
				return nil, err
			}
			if len(arr.Elements) == 0 {
				return value.NULL, nil
			}
			return arr.Elements[len(arr.Elements)-1], nil
		},
	},
	{
		Info: Info{
			Name:      "keys",
			Signature: "keys(object) -> [string]",
			Doc:       "Keys of an object in sorted order.",
			Params:    []string{"object"},
			Category:  "object",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			obj, ok := args[0].(*value.Object)
			if !ok {
				return nil, typeErr("Object", args[0])
			}
			keys := obj.Keys()
			out := make([]value.Value, len(keys))
			for i, k := range keys {
				out[i] = str(k)
			}
			return &value.Array{Elements: out}, nil
		},
	},
	{
		Info: Info{
			Name:      "values",
			Signature: "values(object) -> [value]",
			Doc:       "Values of an object in the order of keys().",
			Params:    []string{"object"},
			Category:  "object",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			obj, ok := args[0].(*value.Object)
			if !ok {
				return nil, typeErr("Object", args[0])
			}
			keys := obj.Keys()
			out := make([]value.Value, len(keys))
			for i, k := range keys {
				out[i] = obj.Pairs[k]
			}
			return &value.Array{Elements: out}, nil
		},
	},
	{
		Info: Info{
			Name:      "enum",
			Signature: "enum(x) -> [[index, item]]",
			Doc:       "Pairs every element of an array, string or table with its index.",
			Params:    []string{"x"},
			Category:  "iteration",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			var items []value.Value
			switch v := args[0].(type) {
			case *value.Array:
				items = v.Elements
			case *value.String:
				for _, ch := range v.Value {
					items = append(items, str(string(ch)))
				}
			case *value.Table:
				for _, row := range v.Rows() {
					items = append(items, &value.Array{Elements: row})
				}
			default:
				return nil, typeErr("Array, String or Table", args[0])
			}
			out := make([]value.Value, len(items))
			for i, it := range items {
				out[i] = &value.Array{Elements: []value.Value{num(float64(i)), it}}
			}
			return &value.Array{Elements: out}, nil
		},
	},
	{
		Info: Info{
			Name:      "range",
			Signature: "range(n) | range(start, end) | range(start, end, step) -> [number]",
			Doc:       "Numbers from start up to end (exclusive).",
			Params:    []string{"start", "end", "step"},
			Category:  "array",
			MinArgs:   1,
			MaxArgs:   3,
			Pure:      true,
		},
		Fn: builtinRange,
	},
}

func builtinRange(_ *Registry, args []value.Value) (value.Value, error) {
	bounds := make([]int, len(args))
	for i, a := range args {
		f, err := argNumber(a)
		if err != nil {
			return nil, err
		}
		bounds[i] = int(f)
	}
	start, end, step := 0, 0, 1
	switch len(bounds) {
	case 1:
		end = bounds[0]
		if end < 0 {
			return nil, dcerr.Runtime(0, "Range end cannot be negative")
		}
	case 2:
		start, end = bounds[0], bounds[1]
	case 3:
		start, end, step = bounds[0], bounds[1], bounds[2]
		if step == 0 {
			return nil, dcerr.Runtime(0, "Range step cannot be zero")
		}
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, num(float64(i)))
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, num(float64(i)))
		}
	}
	if out == nil {
		out = []value.Value{}
	}
	return &value.Array{Elements: out}, nil
}
