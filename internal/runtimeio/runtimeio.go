package runtimeio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	ErrInputUnavailable   = errors.New("input is not available in non-interactive mode")
	ErrGetpassUnavailable = errors.New("getpass is not available in non-interactive mode")
)

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Console is the script's view of standard input. Engines serving remote
// clients get a console with no input.
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive func() bool
	fd          int
}

// Stdio reads os.Stdin and prompts on out.
func Stdio(out io.Writer) *Console {
	return &Console{
		in:          bufio.NewReader(os.Stdin),
		out:         out,
		interactive: IsInteractive,
		fd:          int(os.Stdin.Fd()),
	}
}

// NewConsole reads lines from in; a nil in makes every read fail.
func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, fd: -1}
	if in != nil {
		c.in = bufio.NewReader(in)
		c.interactive = func() bool { return true }
	} else {
		c.interactive = func() bool { return false }
	}
	return c
}

func (c *Console) Input(prompt string) (string, error) {
	if c == nil || c.in == nil || !c.interactive() {
		return "", ErrInputUnavailable
	}
	c.prompt(prompt)
	line, err := c.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrInputUnavailable
		}
		return "", err
	}
	return line, nil
}

func (c *Console) GetPass(prompt string) (string, error) {
	if c == nil || c.in == nil || !c.interactive() {
		return "", ErrGetpassUnavailable
	}
	c.prompt(prompt)
	if c.fd >= 0 && term.IsTerminal(c.fd) {
		if b, err := term.ReadPassword(c.fd); err == nil {
			return string(b), nil
		}
	}
	line, err := c.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrGetpassUnavailable
		}
		return "", err
	}
	return line, nil
}

func (c *Console) prompt(p string) {
	if p != "" && c.out != nil {
		_, _ = fmt.Fprint(c.out, p)
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if line != "" && errors.Is(err, io.EOF) {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
