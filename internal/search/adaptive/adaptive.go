// Package adaptive implements C8: the "AE" configuration's depth-bounded
// sequential search (spec.md §4.8) — odometer-enumerated tuples of
// single-op edits, equivalence-pruned against previously accepted
// candidates, streamed against the test oracle in descending-prior-
// failure order with early abort at the first failing test.
package adaptive

import (
	"context"
	"log"
	"sort"
	"time"

	"mendr/internal/candidate"
	"mendr/internal/langast"
	"mendr/internal/mutate"
	"mendr/internal/oracle"
	"mendr/internal/repairerr"
	"mendr/internal/stmtindex"
	"mendr/internal/workdir"
)

// Observation is one recorded (candidate, test, result) triple, the
// model M spec.md §4.8 describes.
type Observation struct {
	CandidateKey string
	Test         string
	Passed       bool
}

// Config holds the adaptive driver's tunable parameters (spec.md §6
// Configuration: k_depth, timeout_per_candidate_s).
type Config struct {
	// KDepth bounds tuple length (spec.md §6 "k_depth: uint (AE only)").
	KDepth int
	// Equivalence selects which of the three predicates prunes
	// newly-generated candidates against previously accepted ones.
	Equivalence EquivalenceKind
	// TimeoutPerCandidate bounds one candidate's streaming evaluation;
	// zero disables the limit.
	TimeoutPerCandidate time.Duration
}

// Driver runs the sequential adaptive search in-process: it owns a
// single working directory (spec.md §5: "all other components run on a
// single thread") and streams tests one at a time through a
// StreamingOracle.
type Driver struct {
	Prog    *langast.Program
	Index   *stmtindex.Index
	Applier *mutate.Applier
	Oracle  oracle.StreamingOracle
	WorkDir *workdir.WorkDir
	Tests   []string
	Cfg     Config
	Logger  *log.Logger

	// OnTestResult, if set, is invoked after every streamed test outcome,
	// letting a caller forward which tests are currently "hot" to an
	// internal/progress.Broadcaster (spec.md §4.8) without this package
	// depending on it directly.
	OnTestResult func(candidateKey, test string, passed bool)

	model         []Observation
	failureCounts map[string]int
}

// Result is what Run returns: the repairing candidate if one was found,
// the full observation model gathered along the way, and how many
// candidates were actually streamed (post equivalence-pruning).
type Result struct {
	Found      *candidate.Candidate
	Model      []Observation
	Evaluated  int
	Pruned     int
	Exhausted  bool
}

// Run enumerates tuples from edits up to Cfg.KDepth, skipping any
// equivalent to a previously accepted candidate, streaming each
// remaining one against d.Tests in descending-prior-failure order, and
// returns as soon as one passes every test (spec.md §4.8).
func (d *Driver) Run(ctx context.Context, initial candidate.Candidate, edits []mutate.Op) (Result, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	d.failureCounts = map[string]int{}

	odo := NewOdometer(edits, d.Cfg.KDepth)
	var accepted []mutate.OpList
	res := Result{}

	for {
		tuple, ok := odo.Next()
		if !ok {
			res.Exhausted = true
			res.Model = d.model
			return res, nil
		}

		cand := initial.Offspring(mutate.OpList(tuple))

		if d.equivalentToAccepted(cand.Ops, accepted) {
			res.Pruned++
			continue
		}
		accepted = append(accepted, cand.Ops)
		res.Evaluated++

		allPass, err := d.streamEvaluate(ctx, cand)
		if err != nil {
			res.Model = d.model
			return res, err
		}
		if allPass {
			logger.Printf("adaptive: candidate with %d operator(s) passed every test", len(cand.Ops))
			found := cand
			res.Found = &found
			res.Model = d.model
			return res, nil
		}
	}
}

func (d *Driver) equivalentToAccepted(ops mutate.OpList, accepted []mutate.OpList) bool {
	for _, a := range accepted {
		if Equivalent(d.Cfg.Equivalence, ops, a) {
			return true
		}
	}
	return false
}

// streamEvaluate materialises cand, runs d.Tests one at a time in
// descending-prior-failure order, updates the failure-count heuristic
// and the observation model as it goes, and returns true iff every test
// passed. A per-candidate timeout that expires (EvaluationTimeout) or an
// oracle error is contained: the candidate counts as not passing and the
// search continues (spec.md §7). No observation is added to the model
// for the test that timed out or errored.
func (d *Driver) streamEvaluate(ctx context.Context, cand candidate.Candidate) (bool, error) {
	contents, err := d.Applier.Render(d.Prog, d.Index, cand.Ops)
	if err != nil {
		return false, repairerr.Wrap(repairerr.InternalInvariant, err, "rendering candidate for adaptive evaluation")
	}
	if err := d.WorkDir.Sync(contents); err != nil {
		return false, err
	}

	evalCtx := ctx
	if d.Cfg.TimeoutPerCandidate > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, d.Cfg.TimeoutPerCandidate)
		defer cancel()
	}

	for _, test := range d.testOrder() {
		outcome, err := d.Oracle.RunOne(evalCtx, d.WorkDir.Dir(), test)
		if err != nil || evalCtx.Err() != nil {
			// EvaluationTimeout or an oracle crash: contained to this
			// candidate, not propagated (spec.md §7).
			return false, nil
		}
		d.model = append(d.model, Observation{CandidateKey: cand.Key(), Test: test, Passed: outcome.Passed})
		if d.OnTestResult != nil {
			d.OnTestResult(cand.Key(), test, outcome.Passed)
		}
		if !outcome.Passed {
			d.failureCounts[test]++
			return false, nil
		}
	}
	return true, nil
}

// testOrder sorts d.Tests by descending prior-failure count (spec.md
// §4.8's "streaming evaluation" heuristic), breaking ties by the
// original configured order for reproducibility.
func (d *Driver) testOrder() []string {
	out := make([]string, len(d.Tests))
	copy(out, d.Tests)
	sort.SliceStable(out, func(i, j int) bool {
		return d.failureCounts[out[i]] > d.failureCounts[out[j]]
	})
	return out
}
