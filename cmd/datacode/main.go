package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"datacode/internal/config"
	"datacode/internal/engine"
	"datacode/internal/logging"
	"datacode/internal/repl"
	"datacode/internal/runtimeio"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "0.1"

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		if err != errFailed {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// app carries what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	maxDepth   int
	logLevel   string
	noCache    bool

	cfg *config.Config
	log zerolog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "datacode [file]",
		Short:         "Run DataCode scripts",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.startREPL()
			}
			return a.runFile(cmd, args[0], runOptions{})
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	pf.IntVar(&a.maxDepth, "max-depth", 0, "maximum call depth")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&a.noCache, "no-cache", false, "disable the function result cache")

	root.AddCommand(
		a.runCmd(),
		a.replCmd(),
		a.serveCmd(),
		a.exportCmd(),
		a.checkCmd(),
		a.testCmd(),
	)
	return root
}

// setup loads the config and applies flag overrides on top of it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		cfg.Engine.MaxCallDepth = a.maxDepth
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if a.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(a.stderr, cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// newEngine builds an engine from the config; print goes to out and
// input reads console.
func (a *app) newEngine(out io.Writer, console *runtimeio.Console) *engine.Engine {
	opts := []engine.Option{
		engine.WithOutput(out),
		engine.WithLogger(a.log),
		engine.WithMaxCallDepth(a.cfg.Engine.MaxCallDepth),
	}
	if console != nil {
		opts = append(opts, engine.WithConsole(console))
	}
	if a.cfg.Cache.Enabled {
		opts = append(opts, engine.WithCache(a.cfg.Cache.MaxSize, a.cfg.Cache.TTL))
	} else {
		opts = append(opts, engine.WithoutCache())
	}
	return engine.New(opts...)
}

func (a *app) console(out io.Writer) *runtimeio.Console {
	if f, ok := a.stdin.(*os.File); ok && f == os.Stdin {
		return runtimeio.Stdio(out)
	}
	return runtimeio.NewConsole(a.stdin, out)
}

func (a *app) startREPL() error {
	newEngine := func() *engine.Engine { return a.newEngine(a.stdout, a.console(a.stdout)) }
	return repl.Start(newEngine, a.stdin, a.stdout, historyPath())
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".datacode_history")
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Microsecond).String()
}
