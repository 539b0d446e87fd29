// Package oracle defines the TestOracle boundary the fitness engine (C5)
// invokes against a materialised working directory (spec.md §6), plus an
// in-process reference oracle over internal/langast programs for the
// engine's own bundled tests and its example CLI invocation.
package oracle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"mendr/internal/langast"
)

// Outcome is one test's pass/fail/error result.
type Outcome struct {
	Name   string
	Passed bool
	Err    error
}

// Report is everything one oracle invocation produced.
type Report struct {
	Outcomes []Outcome
}

// Passing returns the names of every test that passed.
func (r Report) Passing() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Passed {
			out = append(out, o.Name)
		}
	}
	return out
}

// Failing returns the names of every test that did not pass (whether it
// failed an assertion or errored outright).
func (r Report) Failing() []string {
	var out []string
	for _, o := range r.Outcomes {
		if !o.Passed {
			out = append(out, o.Name)
		}
	}
	return out
}

// TestOracle is the external build/test boundary: given a materialised
// working directory, run the test suite and report per-test outcomes.
// Implementations are expected to run the target's real build/test
// tooling as a child process the caller can terminate on timeout
// (spec.md §9's "cooperative child-process supervision" design note);
// the in-process Interpreter in this package stands in for that for the
// engine's own toy language.
type TestOracle interface {
	Run(ctx context.Context, workDir string) (Report, error)
}

// StreamingOracle is the per-test boundary spec.md §4.6's "per-test
// streaming mode that yields (test_id, result) lazily as each test
// finishes" describes: given a materialised working directory and one
// test identifier, run just that test. internal/search/adaptive uses
// this to abort a candidate's evaluation at the first failing test
// instead of paying for the whole suite (spec.md §4.8).
type StreamingOracle interface {
	RunOne(ctx context.Context, workDir string, testID string) (Outcome, error)
}

// CaseOracle is a TestOracle/StreamingOracle backed by a fixed set of
// Interpreter Cases run against whatever program RelPath parses out of
// the materialised working directory — the same re-parse-and-run shape
// internal/fitness's own tests use for their reparseOracle fixture,
// promoted here so the CLI and internal/search/adaptive share one
// concrete oracle instead of every caller reinventing it.
type CaseOracle struct {
	RelPath string
	Cases   []Case
}

func (o *CaseOracle) load(dir string) (*Interpreter, map[string]Case, error) {
	data, err := os.ReadFile(filepath.Join(dir, o.RelPath))
	if err != nil {
		return nil, nil, errors.Wrap(err, "oracle: reading program under test")
	}
	f, errs := langast.ParseFile(o.RelPath, string(data))
	if len(errs) != 0 {
		return nil, nil, errors.Wrap(errs[0], "oracle: parsing program under test")
	}
	byName := make(map[string]Case, len(o.Cases))
	for _, c := range o.Cases {
		byName[c.Name] = c
	}
	return NewInterpreter(&langast.Program{Files: []*langast.File{f}}), byName, nil
}

// Run implements TestOracle: every configured case, in order.
func (o *CaseOracle) Run(ctx context.Context, dir string) (Report, error) {
	it, _, err := o.load(dir)
	if err != nil {
		return Report{}, err
	}
	return it.Run(ctx, o.Cases), nil
}

// RunOne implements StreamingOracle: a single named case.
func (o *CaseOracle) RunOne(ctx context.Context, dir string, testID string) (Outcome, error) {
	it, byName, err := o.load(dir)
	if err != nil {
		return Outcome{}, err
	}
	c, ok := byName[testID]
	if !ok {
		return Outcome{}, errors.Errorf("oracle: unknown test %q", testID)
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Name: c.Name, Passed: false, Err: err}, nil
	}
	got, err := it.Call(c.Func, c.Args)
	if err != nil {
		return Outcome{Name: c.Name, Passed: false, Err: err}, nil
	}
	return Outcome{Name: c.Name, Passed: valueEqual(got, c.Want)}, nil
}
