// Package fitness implements C5/C4.6: the materialise-oracle-score
// pipeline that turns a candidate's op list into a fitness scalar, with
// memoisation shared across a fixed pool of parallel workers (spec.md
// §4.5, §4.6).
package fitness

import (
	"context"
	"sync"
	"time"

	"mendr/internal/candidate"
	"mendr/internal/langast"
	"mendr/internal/mutate"
	"mendr/internal/oracle"
	"mendr/internal/repairerr"
	"mendr/internal/stmtindex"
	"mendr/internal/workdir"
	"mendr/internal/workerpool"
)

// Config holds the fitness engine's tunable parameters (spec.md §6
// Configuration: w_pos, w_neg, workers, timeout_per_candidate_s).
type Config struct {
	// Workers is the size of the parallel worker pool. Defaults to 1.
	Workers int
	// WPos, WNeg are the scoring weights for expected-passing and
	// expected-failing tests. Defaults to 1 and 10 (spec.md §4.5).
	WPos, WNeg float64
	// RaiseOnFailure turns oracle/tooling failures into propagated
	// errors instead of silently scoring the candidate 0.
	RaiseOnFailure bool
	// TimeoutPerCandidate bounds one evaluation's wall-clock time; zero
	// disables the limit (spec.md §5 default is 1800s, applied by the
	// caller's configuration layer, not hardcoded here).
	TimeoutPerCandidate time.Duration
}

func (c Config) normalize() Config {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.WPos == 0 && c.WNeg == 0 {
		c.WPos, c.WNeg = 1, 10
	}
	return c
}

// Engine evaluates candidates against a fixed program, statement table,
// and test oracle, memoising fitness by operator-sequence key. Per
// spec.md §4.6, each of its Workers worker threads owns a distinct,
// long-lived working directory; the engine itself owns the memo map and
// is safe for concurrent Evaluate calls.
type Engine struct {
	prog    *langast.Program
	ix      *stmtindex.Index
	applier *mutate.Applier
	test    oracle.TestOracle

	expectedPassing []string
	expectedFailing []string

	cfg Config

	memoMu sync.RWMutex
	memo   map[string]float64

	workdirs []*workdir.WorkDir
}

// New builds an engine over sourceRoot, creating cfg.Workers private
// working directories up front (each a full copy of sourceRoot). Callers
// must Close the engine when done to remove them.
func New(sourceRoot string, prog *langast.Program, ix *stmtindex.Index, applier *mutate.Applier, test oracle.TestOracle, expectedPassing, expectedFailing []string, cfg Config) (*Engine, error) {
	cfg = cfg.normalize()

	e := &Engine{
		prog:            prog,
		ix:              ix,
		applier:         applier,
		test:            test,
		expectedPassing: expectedPassing,
		expectedFailing: expectedFailing,
		cfg:             cfg,
		memo:            map[string]float64{},
		workdirs:        make([]*workdir.WorkDir, cfg.Workers),
	}
	for i := range e.workdirs {
		wd, err := workdir.New(sourceRoot)
		if err != nil {
			e.closeWorkdirs(i)
			return nil, err
		}
		e.workdirs[i] = wd
	}
	return e, nil
}

// Close removes every worker's private directory.
func (e *Engine) Close() error {
	return e.closeWorkdirs(len(e.workdirs))
}

func (e *Engine) closeWorkdirs(n int) error {
	var first error
	for i := 0; i < n; i++ {
		if e.workdirs[i] == nil {
			continue
		}
		if err := e.workdirs[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Seed pre-populates the memo map for ops, so a subsequent Evaluate of a
// candidate with that exact op list returns the seeded value without
// invoking the oracle (spec.md §8 scenario S2).
func (e *Engine) Seed(ops mutate.OpList, fitnessValue float64) {
	e.memoMu.Lock()
	e.memo[ops.Encode()] = fitnessValue
	e.memoMu.Unlock()
}

// SeedKey is Seed's raw-key counterpart: it seeds the memo map under an
// already-encoded key, for a caller (internal/session, restoring from
// internal/store) that holds op-list encodings it persisted rather than
// the OpList values themselves.
func (e *Engine) SeedKey(key string, fitnessValue float64) {
	e.memoMu.Lock()
	e.memo[key] = fitnessValue
	e.memoMu.Unlock()
}

// DumpMemo returns a snapshot copy of the entire memo map, keyed by
// op-list encoding, for a caller that wants to persist it (internal/store).
func (e *Engine) DumpMemo() map[string]float64 {
	e.memoMu.RLock()
	defer e.memoMu.RUnlock()
	out := make(map[string]float64, len(e.memo))
	for k, v := range e.memo {
		out[k] = v
	}
	return out
}

// Evaluate scores every candidate in cands, returning a new slice in the
// same order with Fitness populated. A memo hit short-circuits the
// materialise/oracle pipeline entirely; a miss runs it and stores the
// result under the op-list key (spec.md §4.5 steps 1-4). An error here is
// always a Fatal repairerr.Kind or, when Config.RaiseOnFailure is set, a
// propagated oracle failure; anything else is contained to fitness 0 on
// the affected candidate.
func (e *Engine) Evaluate(ctx context.Context, cands []candidate.Candidate) ([]candidate.Candidate, error) {
	out := make([]candidate.Candidate, len(cands))
	copy(out, cands)

	var pendingIdx []int
	var pending []candidate.Candidate
	for i, c := range cands {
		if v, ok := e.lookupMemo(c.Ops); ok {
			out[i] = c.WithFitness(v)
			continue
		}
		pendingIdx = append(pendingIdx, i)
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return out, nil
	}

	results, err := workerpool.Run(ctx, e.cfg.Workers, pending, e.evaluateOne)
	if err != nil {
		return nil, err
	}
	for k, idx := range pendingIdx {
		out[idx] = results[k]
	}
	return out, nil
}

func (e *Engine) lookupMemo(ops mutate.OpList) (float64, bool) {
	e.memoMu.RLock()
	defer e.memoMu.RUnlock()
	v, ok := e.memo[ops.Encode()]
	return v, ok
}

func (e *Engine) storeMemo(ops mutate.OpList, value float64) {
	e.memoMu.Lock()
	e.memo[ops.Encode()] = value
	e.memoMu.Unlock()
}

// evaluateOne is the per-job body workerpool.Run dispatches: materialise,
// invoke the oracle, score, memoise.
func (e *Engine) evaluateOne(ctx context.Context, workerID int, c candidate.Candidate) (candidate.Candidate, error) {
	wd := e.workdirs[workerID]

	contents, err := e.applier.Render(e.prog, e.ix, c.Ops)
	if err != nil {
		return c, repairerr.Wrap(repairerr.InternalInvariant, err, "rendering candidate for evaluation")
	}
	if err := wd.Sync(contents); err != nil {
		return c, err
	}

	evalCtx := ctx
	if e.cfg.TimeoutPerCandidate > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, e.cfg.TimeoutPerCandidate)
		defer cancel()
	}

	report, err := e.test.Run(evalCtx, wd.Dir())
	if err != nil {
		kind := repairerr.OracleUnavailable
		if evalCtx.Err() == context.DeadlineExceeded {
			kind = repairerr.EvaluationTimeout
		}
		wrapped := repairerr.Wrap(kind, err, "test oracle invocation failed")
		if e.cfg.RaiseOnFailure {
			return c, wrapped
		}
		e.storeMemo(c.Ops, 0)
		return c.WithFitness(0), nil
	}

	score := e.score(report)
	e.storeMemo(c.Ops, score)
	return c.WithFitness(score), nil
}

// score implements spec.md §4.5's scoring formula:
// (w+ * |P ∩ passing| + w- * |F ∩ passing|) / (w+ * |P| + w- * |F|).
func (e *Engine) score(report oracle.Report) float64 {
	passing := map[string]bool{}
	for _, name := range report.Passing() {
		passing[name] = true
	}

	var pHit, fHit float64
	for _, t := range e.expectedPassing {
		if passing[t] {
			pHit++
		}
	}
	for _, t := range e.expectedFailing {
		if passing[t] {
			fHit++
		}
	}

	denom := e.cfg.WPos*float64(len(e.expectedPassing)) + e.cfg.WNeg*float64(len(e.expectedFailing))
	if denom == 0 {
		return 0
	}
	return (e.cfg.WPos*pHit + e.cfg.WNeg*fHit) / denom
}
