package builtins

import (
	"fmt"
	"path/filepath"
	"strings"

	"datacode/internal/dcerr"
	"datacode/internal/value"
)

var dataBuiltins = []*Builtin{
	{
		Info: Info{
			Name:      "path",
			Signature: "path(s) -> Path",
			Doc:       "Path value; strings with * ? or [ become glob patterns.",
			Params:    []string{"s"},
			Category:  "file",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			s, err := argString(args[0])
			if err != nil {
				return nil, err
			}
			if s == "" {
				return nil, dcerr.FileSystem(0, dcerr.InvalidPath, s, "")
			}
			s = filepath.Clean(s)
			if strings.ContainsAny(s, "*?[") {
				return &value.PathPattern{Value: s}, nil
			}
			return &value.Path{Value: s}, nil
		},
	},
	{
		Info: Info{
			Name:      "currency",
			Signature: "currency(s) -> Currency",
			Doc:       "Parses amounts such as '$12.50', '12.50 EUR' or 'USD 12.50'.",
			Params:    []string{"s"},
			Category:  "system",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			switch v := args[0].(type) {
			case *value.Currency:
				return v, nil
			case *value.String:
				c, ok := value.ParseCurrency(v.Value)
				if !ok {
					return nil, dcerr.Runtimef(0, "'%s' is not a currency amount", v.Value)
				}
				return c, nil
			}
			return nil, typeErr("String", args[0])
		},
	},
	{
		Info: Info{
			Name:      "table",
			Signature: "table(rows, headers?) -> Table",
			Doc:       "Builds a table from an array of row arrays. Without headers columns are named Column_0, Column_1 and so on.",
			Params:    []string{"rows", "headers"},
			Category:  "table",
			MinArgs:   1,
			MaxArgs:   2,
		},
		Fn: builtinTable,
	},
	{
		Info: Info{
			Name:      "table_headers",
			Signature: "table_headers(table) -> [string]",
			Params:    []string{"table"},
			Category:  "table",
			MinArgs:   1,
			MaxArgs:   1,
			Pure:      true,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			t, err := argTable(args[0])
			if err != nil {
				return nil, err
			}
			names := t.ColumnNames()
			out := make([]value.Value, len(names))
			for i, n := range names {
				out[i] = str(n)
			}
			return &value.Array{Elements: out}, nil
		},
	},
	{
		Info: Info{
			Name:      "table_add_row",
			Signature: "table_add_row(table, row) -> null",
			Doc:       "Appends a row in place; every variable holding the table sees it.",
			Params:    []string{"table", "row"},
			Category:  "table",
			MinArgs:   2,
			MaxArgs:   2,
		},
		Fn: func(_ *Registry, args []value.Value) (value.Value, error) {
			t, err := argTable(args[0])
			if err != nil {
				return nil, err
			}
			row, err := argArray(args[1])
			if err != nil {
				return nil, err
			}
			if err := t.AddRow(row.Elements); err != nil {
				return nil, dcerr.Runtime(0, err.Error())
			}
			return value.NULL, nil
		},
	},
}

func builtinTable(r *Registry, args []value.Value) (value.Value, error) {
	rows, err := argArray(args[0])
	if err != nil {
		return nil, err
	}
	var headers []string
	if len(args) > 1 {
		hs, err := argArray(args[1])
		if err != nil {
			return nil, err
		}
		for i, h := range hs.Elements {
			if s, ok := h.(*value.String); ok {
				headers = append(headers, s.Value)
			} else {
				headers = append(headers, fmt.Sprintf("Column_%d", i))
			}
		}
	} else if len(rows.Elements) > 0 {
		if first, ok := rows.Elements[0].(*value.Array); ok {
			for i := range first.Elements {
				headers = append(headers, fmt.Sprintf("Column_%d", i))
			}
		}
	}

	t, err := value.NewTable(headers)
	if err != nil {
		return nil, dcerr.Runtime(0, err.Error())
	}
	for i, raw := range rows.Elements {
		row, ok := raw.(*value.Array)
		if !ok {
			return nil, dcerr.Runtimef(0, "Row %d is not an array", i+1)
		}
		if err := t.AddRow(row.Elements); err != nil {
			r.log.Warn().Int("row", i+1).Err(err).Msg("table row skipped")
		}
	}
	for _, w := range t.Warnings() {
		r.log.Warn().Msg(w)
	}
	return t, nil
}
