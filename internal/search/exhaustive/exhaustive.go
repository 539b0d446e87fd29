// Package exhaustive implements C7's exhaustive search strategy (spec.md
// §4.8): used by the "kali" and "mut-repair" configurations, it enumerates
// every (operator-kind, suggestion) pair with positive weight and appends
// each to a clone of the initial candidate — no random sampling, no
// selection, no crossover, a single generation.
package exhaustive

import (
	"context"
	"math/rand"

	"mendr/internal/candidate"
	"mendr/internal/fitness"
	"mendr/internal/localize"
	"mendr/internal/mutate"
)

// Driver holds the fixed inputs one exhaustive pass needs.
type Driver struct {
	Engine *fitness.Engine
	// Kinds is the configured operator set to enumerate against every
	// positive-weight suggestion (spec.md §8 scenario S4's "operator
	// set"). Defaults to mutate.AllKinds if empty.
	Kinds []mutate.Kind
	// SIDUniverse backs the selection draw for kinds that need one
	// (spec.md §3: InsertBefore/After/Both, Replace, MoveBefore/After/
	// Both, Swap). Exhaustive search still enumerates the operator
	// dimension exhaustively; the selection sid itself is drawn from
	// this pool via the supplied *rand.Rand, pinned once at construction
	// like every other operator.
	SIDUniverse []mutate.SID
}

// Run builds one offspring per (kind, suggestion) pair over every
// positive-weight suggestion, evaluates the whole population, and
// returns it (spec.md §4.8: "a single generation suffices").
func (d *Driver) Run(ctx context.Context, rng *rand.Rand, initial candidate.Candidate, suggestions []localize.WeightedSID) (candidate.Population, error) {
	kinds := d.Kinds
	if len(kinds) == 0 {
		kinds = mutate.AllKinds
	}

	positive := localize.Positive(suggestions)

	var pop candidate.Population
	for _, sug := range positive {
		for _, kind := range kinds {
			op := d.newOp(rng, kind, mutate.SID(sug.SID))
			pop = append(pop, initial.Offspring(mutate.OpList{op}))
		}
	}

	return d.Engine.Evaluate(ctx, pop)
}

func (d *Driver) newOp(rng *rand.Rand, kind mutate.Kind, target mutate.SID) mutate.Op {
	if !kind.NeedsSelection() || len(d.SIDUniverse) == 0 {
		return mutate.New(rng, kind, target, 0, false)
	}
	selection := d.SIDUniverse[rng.Intn(len(d.SIDUniverse))]
	return mutate.New(rng, kind, target, selection, true)
}
