// Package minimize implements C9: delta-debugging over a candidate's
// operator list, keeping only operators whose removal strictly lowers
// fitness (spec.md §2's C9 row; invoked after search per §4.7's closing
// paragraph: "retains candidates tied at the maximum fitness... (c)
// minimises (C9)").
package minimize

import (
	"context"

	"mendr/internal/candidate"
	"mendr/internal/fitness"
	"mendr/internal/mutate"
)

// Minimize repeatedly tries removing one operator at a time from c's op
// list, keeping the removal whenever the resulting candidate's fitness is
// no lower than before (an operator earns its place in the final list
// only once every single-operator removal would strictly lower fitness).
// It runs to a fixed point: removing one operator can make a previously
// load-bearing operator removable too, so a pass that removed anything
// restarts from the top of the (now shorter) list.
func Minimize(ctx context.Context, engine *fitness.Engine, c candidate.Candidate) (candidate.Candidate, error) {
	current := c
	if !current.Fitness.Scored {
		scored, err := engine.Evaluate(ctx, []candidate.Candidate{current})
		if err != nil {
			return candidate.Candidate{}, err
		}
		current = scored[0]
	}

	for {
		removedAny, next, err := tryOnePass(ctx, engine, current)
		if err != nil {
			return candidate.Candidate{}, err
		}
		current = next
		if !removedAny {
			return current, nil
		}
	}
}

// tryOnePass walks the op list left to right, removing the first operator
// whose removal doesn't strictly lower fitness, and reports whether it
// found one (the caller restarts a fresh pass over the shortened list
// rather than continuing this one, since indices shift).
func tryOnePass(ctx context.Context, engine *fitness.Engine, current candidate.Candidate) (bool, candidate.Candidate, error) {
	for i := range current.Ops {
		trialOps := removeAt(current.Ops, i)
		trial := current.Offspring(trialOps)
		scored, err := engine.Evaluate(ctx, []candidate.Candidate{trial})
		if err != nil {
			return false, candidate.Candidate{}, err
		}
		trial = scored[0]
		if trial.Fitness.Value >= current.Fitness.Value {
			return true, trial, nil
		}
	}
	return false, current, nil
}

func removeAt(ops mutate.OpList, i int) mutate.OpList {
	out := make(mutate.OpList, 0, len(ops)-1)
	out = append(out, ops[:i]...)
	out = append(out, ops[i+1:]...)
	return out
}
