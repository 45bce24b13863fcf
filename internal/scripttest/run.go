package scripttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"datacode/internal/engine"

	"github.com/pkg/errors"
)

// Suffix marks a script as a test.
const Suffix = ".test.dc"

// EngineFactory builds the engine for one script; print writes to out.
type EngineFactory func(out io.Writer) *engine.Engine

type Result struct {
	Path   string
	Stdout string
	Err    error
	Passed bool
	Reason string
}

// RunFile executes one test script on a fresh engine and checks it
// against its header.
func RunFile(ctx context.Context, path string, newEngine EngineFactory) Result {
	res := Result{Path: path}
	exp, err := ParseExpectationFile(path)
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	src, err := os.ReadFile(path)
	if err != nil {
		res.Reason = err.Error()
		return res
	}

	var out bytes.Buffer
	eng := newEngine(&out)
	_, res.Err = eng.ExecuteContext(ctx, string(src))
	res.Stdout = out.String()
	res.Passed, res.Reason, err = Check(exp, res.Stdout, res.Err, filepath.Dir(path))
	if err != nil {
		res.Passed, res.Reason = false, err.Error()
	}
	return res
}

// Check reports whether stdout and runErr satisfy exp.
func Check(exp *Expectation, stdout string, runErr error, baseDir string) (bool, string, error) {
	switch exp.Outcome {
	case ExpectOK:
		if runErr != nil {
			return false, "expected ok, got error: " + runErr.Error(), nil
		}
	case ExpectError, ExpectErrorContains:
		if runErr == nil {
			return false, "expected error, got ok", nil
		}
		if exp.Outcome == ExpectErrorContains && !strings.Contains(runErr.Error(), exp.Substring) {
			return false, fmt.Sprintf("error mismatch: expected to contain %q, got %q", exp.Substring, runErr.Error()), nil
		}
	default:
		return false, "unknown expectation", nil
	}
	return MatchStdout(stdout, exp.Stdout, baseDir)
}

// CollectFiles finds test scripts under the given files and directories,
// sorted and without duplicates.
func CollectFiles(targets []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, errors.Wrap(err, "collect tests")
		}
		if !info.IsDir() {
			if strings.HasSuffix(target, Suffix) {
				if err := add(target); err != nil {
					return nil, err
				}
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if base := d.Name(); path != target && (base == ".git" || strings.HasPrefix(base, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, Suffix) {
				return add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "collect tests")
		}
	}
	sort.Strings(files)
	return files, nil
}
