package builtins

import (
	"math"

	"datacode/internal/dcerr"
	"datacode/internal/value"
)

var mathBuiltins = []*Builtin{
	{
		Info: Info{
			Name:      "sum",
			Signature: "sum(array) -> number",
			Doc:       "Sum of an array of numbers.",
			Params:    []string{"array"},
			Category:  "math",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			nums, err := numberElements(args[0])
			if err != nil {
				return nil, err
			}
			total := 0.0
			for _, n := range nums {
				total += n
			}
			return num(total), nil
		},
	},
	{
		Info: Info{
			Name:      "avg",
			Signature: "avg(array) -> number",
			Doc:       "Arithmetic mean of an array of numbers; the array must not be empty.",
			Params:    []string{"array"},
			Category:  "math",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			nums, err := numberElements(args[0])
			if err != nil {
				return nil, err
			}
			if len(nums) == 0 {
				return nil, dcerr.Runtime(0, "Cannot calculate average of empty array")
			}
			total := 0.0
			for _, n := range nums {
				total += n
			}
			return num(total / float64(len(nums))), nil
		},
	},
	{
		Info: Info{
			Name:      "min",
			Signature: "min(...numbers) | min(array) -> number",
			Doc:       "Smallest of the numbers given, or of one array of numbers.",
			Params:    []string{"...numbers"},
			Category:  "math",
			MinArgs:   1,
			MaxArgs:   -1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			return extremum("min", args, func(a, b float64) bool { return a < b })
		},
	},
	{
		Info: Info{
			Name:      "max",
			Signature: "max(...numbers) | max(array) -> number",
			Doc:       "Largest of the numbers given, or of one array of numbers.",
			Params:    []string{"...numbers"},
			Category:  "math",
			MinArgs:   1,
			MaxArgs:   -1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			return extremum("max", args, func(a, b float64) bool { return a > b })
		},
	},
	{
		Info: Info{
			Name:      "abs",
			Signature: "abs(x) -> number",
			Params:    []string{"x"},
			Category:  "math",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			f, err := argNumber(args[0])
			if err != nil {
				return nil, err
			}
			return num(math.Abs(f)), nil
		},
	},
	{
		Info: Info{
			Name:      "round",
			Signature: "round(x, digits=0) -> number",
			Doc:       "Rounds half away from zero to the given number of decimal digits.",
			Params:    []string{"x", "digits"},
			Category:  "math",
			MinArgs:   1,
			MaxArgs:   2,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			f, err := argNumber(args[0])
			if err != nil {
				return nil, err
			}
			if len(args) == 1 {
				return num(math.Round(f)), nil
			}
			d, err := argNumber(args[1])
			if err != nil {
				return nil, err
			}
			scale := math.Pow(10, math.Trunc(d))
			return num(math.Round(f*scale) / scale), nil
		},
	},
	{
		Info: Info{
			Name:      "sqrt",
			Signature: "sqrt(x) -> number",
			Params:    []string{"x"},
			Category:  "math",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			f, err := argNumber(args[0])
			if err != nil {
				return nil, err
			}
			if f < 0 {
				return nil, dcerr.Runtime(0, "Cannot take square root of negative number")
			}
			return num(math.Sqrt(f)), nil
		},
	},
}

func numberElements(v value.Value) ([]float64, error) {
	arr, err := argArray(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(arr.Elements))
	for i, el := range arr.Elements {
		n, ok := el.(*value.Number)
		if !ok {
			return nil, dcerr.TypeMismatch(0, "Array of Numbers", string(el.Type()))
		}
		out[i] = n.Value
	}
	return out, nil
}

func extremum(name string, args []value.Value, better func(a, b float64) bool) (value.Value, error) {
	var nums []float64
	if len(args) == 1 {
		if _, ok := args[0].(*value.Array); ok {
			var err error
			if nums, err = numberElements(args[0]); err != nil {
				return nil, err
			}
		}
	}
	if nums == nil {
		for _, a := range args {
			f, err := argNumber(a)
			if err != nil {
				return nil, err
			}
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return nil, dcerr.Runtimef(0, "%s() of an empty array", name)
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if better(n, best) {
			best = n
		}
	}
	return num(best), nil
}
