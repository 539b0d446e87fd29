// Package candidate implements C2: the immutable candidate handle the
// rest of the engine passes by value-like reference — a source root plus
// an ordered operator list, a generation number, and a fitness score once
// evaluated.
package candidate

import (
	"github.com/google/uuid"

	"mendr/internal/mutate"
)

// Fitness is a scalar in [0, 1], or unset until the fitness engine scores
// a candidate.
type Fitness struct {
	Value   float64
	Scored  bool
}

// Candidate is (source root, op list, generation, fitness) (spec.md
// GLOSSARY). It is never mutated in place after construction: Offspring
// and WithFitness return a new value.
type Candidate struct {
	SourceRoot string
	Ops        mutate.OpList
	Generation int
	Fitness    Fitness

	// RunID stamps every candidate produced by one engine run, so
	// persisted memo/progress records (internal/store, internal/progress)
	// can be grouped without a foreign key back to process state.
	RunID uuid.UUID
}

// New constructs a zero-generation candidate with no fitness recorded
// yet.
func New(runID uuid.UUID, sourceRoot string, ops mutate.OpList) Candidate {
	return Candidate{SourceRoot: sourceRoot, Ops: ops.Clone(), Generation: 0, RunID: runID}
}

// Key returns the (source_root, ops) identity spec.md invariant 2 defines
// equality and hashing over: two candidates with an equal Key compare and
// hash equal regardless of generation or fitness.
func (c Candidate) Key() string {
	return c.SourceRoot + "\x00" + c.Ops.Encode()
}

// Equal implements spec.md invariant 2 directly: equality is solely a
// function of (source_root, ops).
func (c Candidate) Equal(other Candidate) bool {
	return c.SourceRoot == other.SourceRoot && c.Ops.Equal(other.Ops)
}

// Offspring returns a new candidate one generation later, carrying ops in
// place of the receiver's, with fitness cleared — the fitness engine must
// re-evaluate it under its own memo lookup.
func (c Candidate) Offspring(ops mutate.OpList) Candidate {
	return Candidate{
		SourceRoot: c.SourceRoot,
		Ops:        ops.Clone(),
		Generation: c.Generation + 1,
		RunID:      c.RunID,
	}
}

// Clone duplicates c's op list (spec.md §4.2: "clone(bump_generation:
// bool)"), optionally incrementing the generation counter. Fitness is
// always cleared: a clone is a distinct candidate value even though its
// Key() is identical to the receiver's until its op list diverges.
func (c Candidate) Clone(bumpGeneration bool) Candidate {
	gen := c.Generation
	if bumpGeneration {
		gen++
	}
	return Candidate{
		SourceRoot: c.SourceRoot,
		Ops:        c.Ops.Clone(),
		Generation: gen,
		RunID:      c.RunID,
	}
}

// WithFitness returns a copy of c with its fitness set.
func (c Candidate) WithFitness(value float64) Candidate {
	c.Fitness = Fitness{Value: value, Scored: true}
	return c
}

// IsRepair reports whether c reached the fitness-1 success criterion
// (spec.md GLOSSARY: "fitness — scalar in [0, 1]; 1 is the success
// criterion"), within the tolerance the fitness engine uses for
// floating-point comparison.
func (c Candidate) IsRepair(tolerance float64) bool {
	return c.Fitness.Scored && c.Fitness.Value >= 1-tolerance
}

// Population is an ordered set of candidates belonging to one generation.
type Population []Candidate

// BestFitness returns the highest fitness value among scored candidates,
// and false if none have been scored yet.
func (p Population) BestFitness() (float64, bool) {
	best := 0.0
	found := false
	for _, c := range p {
		if !c.Fitness.Scored {
			continue
		}
		if !found || c.Fitness.Value > best {
			best = c.Fitness.Value
			found = true
		}
	}
	return best, found
}

// TiedBest returns every candidate whose fitness equals the population's
// best, within tolerance — the "user-visible outcome" spec.md §7
// describes: "a (possibly empty) list of candidates tied at the highest
// observed fitness".
func (p Population) TiedBest(tolerance float64) Population {
	best, found := p.BestFitness()
	if !found {
		return nil
	}
	out := make(Population, 0, len(p))
	for _, c := range p {
		if c.Fitness.Scored && c.Fitness.Value >= best-tolerance {
			out = append(out, c)
		}
	}
	return out
}

// Dedup removes candidates with a duplicate Key, keeping the first
// occurrence — part of the "after deduplication and minimisation"
// pipeline spec.md §7 describes.
func (p Population) Dedup() Population {
	seen := make(map[string]bool, len(p))
	out := make(Population, 0, len(p))
	for _, c := range p {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
