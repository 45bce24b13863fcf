// Package builtins holds the functions every DataCode program can call
// without defining them.
package builtins

import (
	"io"
	"sort"
	"time"

	"datacode/internal/dcerr"
	"datacode/internal/runtimeio"
	"datacode/internal/value"

	"github.com/rs/zerolog"
)

type Info struct {
	Name      string
	Signature string
	Doc       string
	Params    []string
	Category  string
	MinArgs   int
	MaxArgs   int // -1 for variadic
	Pure      bool
}

type Fn func(r *Registry, args []value.Value) (value.Value, error)

type Builtin struct {
	Info
	Fn Fn
}

// Registry dispatches builtin calls. Output and input go through the
// registry so one engine's print never reaches another's sink.
type Registry struct {
	out     io.Writer
	console *runtimeio.Console
	now     func() time.Time
	log     zerolog.Logger
	table   map[string]*Builtin
}

type Option func(*Registry)

func WithConsole(c *runtimeio.Console) Option {
	return func(r *Registry) { r.console = c }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

func New(out io.Writer, opts ...Option) *Registry {
	if out == nil {
		out = io.Discard
	}
	r := &Registry{
		out:     out,
		console: runtimeio.NewConsole(nil, out),
		now:     time.Now,
		log:     zerolog.Nop(),
		table:   make(map[string]*Builtin, len(catalog)),
	}
	for _, o := range opts {
		o(r)
	}
	for _, b := range catalog {
		r.table[b.Name] = b
	}
	return r
}

func (r *Registry) Has(name string) bool {
	_, ok := r.table[name]
	return ok
}

// Pure reports whether name always returns the same value for the same
// arguments and has no observable effect.
func (r *Registry) Pure(name string) bool {
	b, ok := r.table[name]
	return ok && b.Pure
}

func (r *Registry) Lookup(name string) (Info, bool) {
	b, ok := r.table[name]
	if !ok {
		return Info{}, false
	}
	return b.Info, true
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.table))
	for n := range r.table {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Output is the sink print writes to.
func (r *Registry) Output() io.Writer { return r.out }

// SetOutput redirects print; the server swaps it per request.
func (r *Registry) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	r.out = w
}

func (r *Registry) Call(name string, args []value.Value, line int) (value.Value, error) {
	b, ok := r.table[name]
	if !ok {
		return nil, dcerr.FuncNotFound(line, name)
	}
	if len(args) < b.MinArgs || (b.MaxArgs >= 0 && len(args) > b.MaxArgs) {
		return nil, dcerr.ArgCountRange(line, name, b.MinArgs, b.MaxArgs, len(args))
	}
	v, err := b.Fn(r, args)
	if err != nil {
		return nil, dcerr.FromError(err, line)
	}
	if v == nil {
		v = value.NULL
	}
	return v, nil
}

// Infos returns the catalog entries sorted by name.
func Infos() []Info {
	out := make([]Info, 0, len(catalog))
	for _, b := range catalog {
		out = append(out, b.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

/* -------------------- argument helpers -------------------- */

func typeErr(expected string, got value.Value) error {
	return dcerr.TypeMismatch(0, expected, string(got.Type()))
}

func argNumber(v value.Value) (float64, error) {
	n, ok := v.(*value.Number)
	if !ok {
		return 0, typeErr("Number", v)
	}
	return n.Value, nil
}

func argString(v value.Value) (string, error) {
	s, ok := v.(*value.String)
	if !ok {
		return "", typeErr("String", v)
	}
	return s.Value, nil
}

func argArray(v value.Value) (*value.Array, error) {
	a, ok := v.(*value.Array)
	if !ok {
		return nil, typeErr("Array", v)
	}
	return a, nil
}

func argTable(v value.Value) (*value.Table, error) {
	t, ok := v.(*value.Table)
	if !ok {
		return nil, typeErr("Table", v)
	}
	return t, nil
}

func num(f float64) *value.Number { return &value.Number{Value: f} }

func str(s string) *value.String { return &value.String{Value: s} }
