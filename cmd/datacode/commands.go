package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"datacode/internal/diag"
	"datacode/internal/engine"
	"datacode/internal/export"
	"datacode/internal/lexer"
	"datacode/internal/lint"
	"datacode/internal/parser"
	"datacode/internal/runtimeio"
	"datacode/internal/scripttest"
	"datacode/internal/server"
	"datacode/internal/token"
	"datacode/internal/value"

	"github.com/spf13/cobra"
)

// errFailed reports a failure that was already printed.
var errFailed = errors.New("failed")

type runOptions struct {
	tokens   bool
	ast      bool
	exportTo string
	stats    bool
}

func (a *app) runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFile(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.tokens, "tokens", false, "print tokens instead of running")
	f.BoolVar(&opts.ast, "ast", false, "print the parsed program instead of running")
	f.StringVar(&opts.exportTo, "export", "", "write global variables to this SQLite file after the run")
	f.BoolVar(&opts.stats, "stats", false, "print result cache statistics after the run")
	return cmd
}

func (a *app) runFile(cmd *cobra.Command, path string, opts runOptions) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src := string(b)

	if opts.tokens {
		l := lexer.New(src)
		for {
			tok := l.NextToken()
			fmt.Fprintf(a.stdout, "%4d:%-3d  %-10s  %q\n", tok.Line, tok.Col, tok.Type, tok.Literal)
			if tok.Type == token.EOF {
				return nil
			}
		}
	}

	prog, diags := parser.Parse(src)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(a.stderr, d.Format(path))
		}
		return errFailed
	}
	if opts.ast {
		fmt.Fprintln(a.stdout, prog.String())
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	eng := a.newEngine(a.stdout, a.console(a.stdout))
	start := time.Now()
	_, err = eng.ExecuteProgramContext(ctx, prog)
	a.log.Debug().Str("file", path).Str("elapsed", elapsed(start)).Msg("run finished")
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return errFailed
	}

	if opts.stats {
		st := eng.CacheStats()
		fmt.Fprintf(a.stderr, "cache: %d hits, %d misses, %d evictions, %d entries\n", st.Hits, st.Misses, st.Evictions, st.Size)
	}
	if opts.exportTo != "" {
		return a.exportGlobals(ctx, eng.GlobalVariables(), opts.exportTo)
	}
	return nil
}

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.startREPL()
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scripts sent over a WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			factory := func(out io.Writer) *engine.Engine {
				return a.newEngine(out, runtimeio.NewConsole(nil, out))
			}
			srv := server.New(a.cfg.Server.Addr, factory,
				server.WithLogger(a.log),
				server.WithTimeout(timeout),
			)
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request execution limit, 0 for none")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Run a script and write its global variables to SQLite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = a.cfg.Export.Path
			}
			return a.runFile(cmd, args[0], runOptions{exportTo: out})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "database path (default from config)")
	return cmd
}

func (a *app) exportGlobals(ctx context.Context, globals map[string]value.Value, path string) error {
	sum, err := export.SQLite(ctx, path, globals, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "exported %d variables (%d tables) to %s\n", sum.Variables, len(sum.Tables), path)
	return nil
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Report syntax errors and lint findings without running",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				prog, diags := parser.Parse(string(b))
				if len(diags) == 0 {
					diags = lint.Run(prog)
				}
				diag.Sort(diags)
				for _, d := range diags {
					fmt.Fprintln(a.stdout, d.Format(path))
				}
				if len(diags) > 0 {
					fmt.Fprintf(a.stderr, "%s: %s\n", path, diag.Summary(diags))
				}
				failed = failed || diag.HasErrors(diags)
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
}

func (a *app) testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [path]...",
		Short: "Run *" + scripttest.Suffix + " scripts and check their expect headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			files, err := scripttest.CollectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(a.stdout, "no tests found")
				return nil
			}
			factory := func(out io.Writer) *engine.Engine {
				return a.newEngine(out, runtimeio.NewConsole(nil, out))
			}
			passed, failed := 0, 0
			for _, path := range files {
				res := scripttest.RunFile(cmd.Context(), path, factory)
				if res.Passed {
					passed++
					continue
				}
				failed++
				fmt.Fprintf(a.stdout, "FAIL %s: %s\n", path, res.Reason)
			}
			fmt.Fprintf(a.stdout, "passed %d, failed %d\n", passed, failed)
			if failed > 0 {
				return errFailed
			}
			return nil
		},
	}
}
