package builtins

import (
	"strings"

	"datacode/internal/value"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

var stringBuiltins = []*Builtin{
	{
		Info: Info{
			Name:      "upper",
			Signature: "upper(s) -> string",
			Params:    []string{"s"},
			Category:  "string",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			s, err := argString(args[0])
			if err != nil {
				return nil, err
			}
			return str(upperCaser.String(s)), nil
		},
	},
	{
		Info: Info{
			Name:      "lower",
			Signature: "lower(s) -> string",
			Params:    []string{"s"},
			Category:  "string",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			s, err := argString(args[0])
			if err != nil {
				return nil, err
			}
			return str(lowerCaser.String(s)), nil
		},
	},
	{
		Info: Info{
			Name:      "trim",
			Signature: "trim(s) -> string",
			Doc:       "Removes leading and trailing whitespace.",
			Params:    []string{"s"},
			Category:  "string",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			s, err := argString(args[0])
			if err != nil {
				return nil, err
			}
			return str(strings.TrimSpace(s)), nil
		},
	},
	{
		Info: Info{
			Name:      "split",
			Signature: "split(s, sep) -> [string]",
			Params:    []string{"s", "sep"},
			Category:  "string",
			MinArgs:   2,
			MaxArgs:   2,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			s, err := argString(args[0])
			if err != nil {
				return nil, err
			}
			sep, err := argString(args[1])
			if err != nil {
				return nil, err
			}
			parts := strings.Split(s, sep)
			out := make([]value.Value, len(parts))
			for i, p := range parts {
				out[i] = str(p)
			}
			return &value.Array{Elements: out}, nil
		},
	},
	{
		Info: Info{
			Name:      "join",
			Signature: "join(array, sep) -> string",
			Doc:       "Joins the display strings of the array's elements with sep.",
			Params:    []string{"array", "sep"},
			Category:  "string",
			MinArgs:   2,
			MaxArgs:   2,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			arr, err := argArray(args[0])
			if err != nil {
				return nil, err
			}
			sep, err := argString(args[1])
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(arr.Elements))
			for i, el := range arr.Elements {
				parts[i] = el.Inspect()
			}
			return str(strings.Join(parts, sep)), nil
		},
	},
	{
		Info: Info{
			Name:      "contains",
			Signature: "contains(haystack, needle) -> bool",
			Doc:       "Substring test for strings, membership test for arrays, key test for objects.",
			Params:    []string{"haystack", "needle"},
			Category:  "string",
			MinArgs:   2,
			MaxArgs:   2,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			switch h := args[0].(type) {
			case *value.String:
				needle, err := argString(args[1])
				if err != nil {
					return nil, err
				}
				return value.NativeBool(strings.Contains(h.Value, needle)), nil
			case *value.Array:
				for _, el := range h.Elements {
					if value.Equal(el, args[1]) {
						return value.TRUE, nil
					}
				}
				return value.FALSE, nil
			case *value.Object:
				key, err := argString(args[1])
				if err != nil {
					return nil, err
				}
				_, ok := h.Pairs[key]
				return value.NativeBool(ok), nil
			}
			return nil, typeErr("String, Array or Object", args[0])
		},
	},
}
