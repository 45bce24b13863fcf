// Package scripttest runs DataCode scripts whose header comments state
// the expected outcome:
//
//	# expect: ok
//	# expect: error
//	# expect: error contains "Division by zero"
//	# expect: stdout "3\n"
//	# expect: stdout contains "done"
//	# expect: stdout file "golden.txt"
//
// Only the leading comment block is read. At most one outcome and one
// stdout directive may appear.
package scripttest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Outcome int

const (
	ExpectOK Outcome = iota
	ExpectError
	ExpectErrorContains
)

type StdoutMode int

const (
	StdoutNone StdoutMode = iota
	StdoutExact
	StdoutContains
	StdoutFile
)

type StdoutExpectation struct {
	Mode  StdoutMode
	Value string
}

type Expectation struct {
	Outcome   Outcome
	Substring string
	Stdout    StdoutExpectation

	hasOutcome bool
	hasStdout  bool
}

func ParseExpectationFile(path string) (*Expectation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open test file")
	}
	defer f.Close()
	return ParseExpectation(path, f)
}

// ParseExpectation reads directives from r; name prefixes error positions.
func ParseExpectation(name string, r io.Reader) (*Expectation, error) {
	exp := &Expectation{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
		comment := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if !strings.HasPrefix(strings.ToLower(comment), "expect:") {
			continue
		}
		body := strings.TrimSpace(comment[len("expect:"):])
		if err := exp.apply(body); err != nil {
			return nil, fmt.Errorf("%s:%d: %v", name, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return exp, nil
}

func (e *Expectation) apply(body string) error {
	lower := strings.ToLower(body)
	switch {
	case lower == "ok":
		return e.setOutcome(ExpectOK, "")
	case lower == "error":
		return e.setOutcome(ExpectError, "")
	case strings.HasPrefix(lower, "error contains"):
		sub, err := parseQuoted(body[len("error contains"):], "error substring")
		if err != nil {
			return err
		}
		return e.setOutcome(ExpectErrorContains, sub)
	case strings.HasPrefix(lower, "stdout file"):
		path, err := parseQuoted(body[len("stdout file"):], "stdout file path")
		if err != nil {
			return err
		}
		return e.setStdout(StdoutFile, path)
	case strings.HasPrefix(lower, "stdout contains"):
		sub, err := parseQuoted(body[len("stdout contains"):], "stdout substring")
		if err != nil {
			return err
		}
		return e.setStdout(StdoutContains, sub)
	case strings.HasPrefix(lower, "stdout"):
		val, err := parseQuoted(body[len("stdout"):], "stdout string")
		if err != nil {
			return err
		}
		return e.setStdout(StdoutExact, val)
	}
	return fmt.Errorf("invalid expect directive")
}

func (e *Expectation) setOutcome(o Outcome, sub string) error {
	if e.hasOutcome {
		return fmt.Errorf("multiple outcome expect directives")
	}
	e.hasOutcome = true
	e.Outcome = o
	e.Substring = sub
	return nil
}

func (e *Expectation) setStdout(mode StdoutMode, v string) error {
	if e.hasStdout {
		return fmt.Errorf("multiple stdout expect directives")
	}
	e.hasStdout = true
	e.Stdout = StdoutExpectation{Mode: mode, Value: v}
	return nil
}

func parseQuoted(raw, what string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("missing %s", what)
	}
	if raw[0] != '"' {
		return "", fmt.Errorf("expected quoted string")
	}
	return strconv.Unquote(raw)
}

func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// MatchStdout compares got against exp. A relative stdout file is
// resolved against baseDir.
func MatchStdout(got string, exp StdoutExpectation, baseDir string) (bool, string, error) {
	got = NormalizeNewlines(got)
	switch exp.Mode {
	case StdoutNone:
		return true, "", nil
	case StdoutExact:
		want := NormalizeNewlines(exp.Value)
		if got != want {
			return false, fmt.Sprintf("stdout mismatch: expected %q, got %q", want, got), nil
		}
		return true, "", nil
	case StdoutContains:
		want := NormalizeNewlines(exp.Value)
		if !strings.Contains(got, want) {
			return false, fmt.Sprintf("stdout mismatch: expected to contain %q, got %q", want, got), nil
		}
		return true, "", nil
	case StdoutFile:
		if exp.Value == "" {
			return false, "stdout file path is empty", nil
		}
		path := exp.Value
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return false, "", errors.Wrap(err, "read stdout file")
		}
		if want := NormalizeNewlines(string(b)); got != want {
			return false, fmt.Sprintf("stdout mismatch: expected file %q to match, got %q", exp.Value, got), nil
		}
		return true, "", nil
	}
	return false, "unknown stdout expectation", nil
}
