package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"datacode/internal/engine"
	"datacode/internal/lexer"
	"datacode/internal/token"
	"datacode/internal/value"

	"github.com/peterh/liner"
)

const (
	prompt1 = "datacode> "
	prompt2 = "     ...> "
)

// LineReader is the part of liner.State the session needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

type historian interface {
	AppendHistory(item string)
}

// Session reads snippets, runs them on one engine and echoes results.
type Session struct {
	newEngine func() *engine.Engine
	eng       *engine.Engine
	in        LineReader
	out       io.Writer
}

func NewSession(newEngine func() *engine.Engine, in LineReader, out io.Writer) *Session {
	return &Session{newEngine: newEngine, eng: newEngine(), in: in, out: out}
}

func (s *Session) Engine() *engine.Engine { return s.eng }

// Start runs an interactive session on the terminal with line editing and
// a history file. Non-terminal input falls back to plain line reading.
func Start(newEngine func() *engine.Engine, in io.Reader, out io.Writer, historyPath string) error {
	fmt.Fprint(out, "DataCode REPL (type 'help', Ctrl+D to exit)\n")

	f, isFile := in.(*os.File)
	if !isFile || !liner.TerminalSupported() || f != os.Stdin {
		return NewSession(newEngine, NewScannerReader(in, out), out).Run()
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if historyPath != "" {
		if hf, err := os.Open(historyPath); err == nil {
			_, _ = ln.ReadHistory(hf)
			hf.Close()
		}
		defer func() {
			if hf, err := os.Create(historyPath); err == nil {
				_, _ = ln.WriteHistory(hf)
				hf.Close()
			}
		}()
	}
	return NewSession(newEngine, ln, out).Run()
}

// Run loops until end of input or an exit command.
func (s *Session) Run() error {
	for {
		src, ok, err := s.read()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprint(s.out, "\n")
			return nil
		}
		trim := strings.TrimSpace(src)
		if trim == "" {
			continue
		}
		if h, ok := s.in.(historian); ok {
			h.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		}
		if s.command(trim) {
			if trim == "exit" || trim == "quit" {
				return nil
			}
			continue
		}
		s.Eval(src)
	}
}

// read collects lines until the open blocks and brackets are balanced.
func (s *Session) read() (string, bool, error) {
	var b strings.Builder
	for {
		p := prompt1
		if b.Len() > 0 {
			p = prompt2
		}
		line, err := s.in.Prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true, nil
			}
			return "", false, nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false, err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if Depth(b.String()) <= 0 {
			return b.String(), true, nil
		}
	}
}

// Eval runs src and prints the result or the error.
func (s *Session) Eval(src string) {
	v, err := s.eng.Execute(src)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	if v != nil && v != value.NULL {
		fmt.Fprintln(s.out, v.Inspect())
	}
}

func (s *Session) command(line string) bool {
	switch line {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprint(s.out, helpText)
		return true
	case "vars":
		s.showVariables()
		return true
	case "funcs":
		for _, n := range s.eng.Functions() {
			fmt.Fprintln(s.out, " ", n)
		}
		return true
	case "reset":
		s.eng = s.newEngine()
		fmt.Fprintln(s.out, "interpreter reset")
		return true
	case "clear":
		fmt.Fprint(s.out, "\x1b[2J\x1b[1;1H")
		return true
	}
	return false
}

func (s *Session) showVariables() {
	vars := s.eng.GlobalVariables()
	if len(vars) == 0 {
		fmt.Fprintln(s.out, "  (no variables defined)")
		return
	}
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(s.out, "  %s = %s\n", n, vars[n].Inspect())
	}
}

// Depth is the number of blocks and brackets src leaves open. It is
// negative when src closes more than it opens.
func Depth(src string) int {
	l := lexer.New(src)
	depth := 0
	prev := token.Type("")
	for {
		tok := l.NextToken()
		switch {
		case tok.Type == token.EOF:
			return depth
		case tok.Type == token.IF && prev == token.ELSE:
			// else if shares the enclosing endif
		case token.IsBlockOpener(tok.Type):
			depth++
		case token.IsBlockCloser(tok.Type):
			depth--
		case tok.Type == token.LPAREN, tok.Type == token.LBRACKET, tok.Type == token.LBRACE:
			depth++
		case tok.Type == token.RPAREN, tok.Type == token.RBRACKET, tok.Type == token.RBRACE:
			depth--
		}
		prev = tok.Type
	}
}

// ScannerReader prompts on out and reads lines from in.
type ScannerReader struct {
	sc  *bufio.Scanner
	out io.Writer
}

func NewScannerReader(in io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{sc: bufio.NewScanner(in), out: out}
}

func (r *ScannerReader) Prompt(p string) (string, error) {
	fmt.Fprint(r.out, p)
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

const helpText = `Commands:
  help    show this text
  vars    list global variables
  funcs   list defined functions
  reset   start over with a fresh interpreter
  clear   clear the screen
  exit    leave (also quit or Ctrl+D)

Blocks continue until their closer:
  global function add(a, b) do
      return a + b
  endfunction
`
