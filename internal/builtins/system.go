package builtins

import (
	"time"

	"datacode/internal/dcerr"
	"datacode/internal/value"
)

var ioBuiltins = []*Builtin{
	{
		Info: Info{
			Name:      "input",
			Signature: "input(prompt?) -> string",
			Doc:       "Reads one line from standard input. Fails when input is not interactive.",
			Params:    []string{"prompt"},
			Category:  "system",
			MaxArgs:   1,
		},
		Fn: func(r *Registry, args []value.Value) (value.Value, error) {
			prompt := ""
			if len(args) == 1 {
				prompt = args[0].Inspect()
			}
			line, err := r.console.Input(prompt)
			if err != nil {
				return nil, dcerr.Runtime(0, err.Error())
			}
			return str(line), nil
		},
	},
	{
		Info: Info{
			Name:      "getpass",
			Signature: "getpass(prompt?) -> string",
			Doc:       "Reads one line without echo when standard input is a terminal.",
			Params:    []string{"prompt"},
			Category:  "system",
			MaxArgs:   1,
		},
		Fn: func(r *Registry, args []value.Value) (value.Value, error) {
			prompt := ""
			if len(args) == 1 {
				prompt = args[0].Inspect()
			}
			line, err := r.console.GetPass(prompt)
			if err != nil {
				return nil, dcerr.Runtime(0, err.Error())
			}
			return str(line), nil
		},
	},
	{
		Info: Info{
			Name:      "now",
			Signature: "now() -> string",
			Doc:       "Current UTC time in RFC 3339 format.",
			Category:  "system",
		},
		Fn: func(r *Registry, _ []value.Value) (value.Value, error) {
			return str(r.now().UTC().Format(time.RFC3339Nano)), nil
		},
	},
}
