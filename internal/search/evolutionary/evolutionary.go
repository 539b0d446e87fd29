// Package evolutionary implements the evolutionary half of C7: the
// fill -> evaluate -> viable-filter -> select -> crossover -> mutate
// generation loop (spec.md §4.7).
package evolutionary

import (
	"context"
	"log"
	"math/rand"

	"mendr/internal/candidate"
	"mendr/internal/fitness"
	"mendr/internal/localize"
	"mendr/internal/mutate"
	"mendr/internal/search/selection"
)

// Config holds the evolutionary driver's tunable parameters (spec.md §6
// Configuration: population_size, max_generations, mutation_probability,
// operator_weights, selection, crossover).
type Config struct {
	PopulationSize int
	MaxGenerations int
	// MutationProbability is w_mut in spec.md §4.7 step 7: a weighted
	// suggestion with weight w gets an appended operator independently
	// with probability w * MutationProbability.
	MutationProbability float64
	// OperatorWeights biases which Kind a new mutation-step operator
	// draws (spec.md §4.7 step 7: "its kind sampled by the configured
	// per-kind weight vector"). Nil or all-zero falls back to uniform
	// weight over mutate.AllKinds.
	OperatorWeights map[mutate.Kind]float64
	Selection       selection.Rule
	// Tolerance is the epsilon spec.md §4.7 step 3 and §6's exit
	// criterion use for the fitness=1 comparison.
	Tolerance float64
}

func (c Config) normalize() Config {
	if c.PopulationSize < 1 {
		c.PopulationSize = 1
	}
	if c.MaxGenerations < 1 {
		c.MaxGenerations = 1
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-8
	}
	return c
}

// Driver runs the evolutionary loop over a fixed sid universe (every sid
// in the statement table, used as the mutation step's selection pool) and
// a weighted-suggestion list (localize.Localize's output) that drives
// where new operators get appended.
type Driver struct {
	Engine      *fitness.Engine
	Suggestions []localize.WeightedSID
	SIDUniverse []mutate.SID
	Cfg         Config
	Logger      *log.Logger

	// OnGeneration, if set, is invoked once per completed generation with
	// the generation index and its evaluated population, letting a caller
	// forward progress to an internal/progress.Broadcaster without this
	// package depending on it directly.
	OnGeneration func(gen int, pop candidate.Population)
}

// Run executes the generation loop starting from initial and returns the
// final evaluated population as a whole. It does not deduplicate it or
// narrow it to the candidates tied at the best fitness; the caller does
// that (internal/session via Population.Dedup/TiedBest), and minimisation
// is likewise the caller's job via internal/minimize.
func (d *Driver) Run(ctx context.Context, rng *rand.Rand, initial candidate.Candidate) (candidate.Population, error) {
	cfg := d.Cfg.normalize()
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	pop := candidate.Population{initial}

	for gen := 0; gen < cfg.MaxGenerations; gen++ {
		pop = d.fill(rng, pop, cfg.PopulationSize)

		var err error
		pop, err = d.evaluate(ctx, pop)
		if err != nil {
			return nil, err
		}
		if d.OnGeneration != nil {
			d.OnGeneration(gen, pop)
		}

		if best, ok := pop.BestFitness(); ok && best >= 1-cfg.Tolerance {
			logger.Printf("evolutionary: generation %d reached fitness %.6f, terminating", gen, best)
			return pop, nil
		}

		viable := viableFilter(pop)
		if len(viable) == 0 {
			logger.Printf("evolutionary: generation %d had no viable candidates, restarting from initial", gen)
			pop = candidate.Population{initial}
			continue
		}

		parents := selection.Select(rng, cfg.Selection, viable, cfg.PopulationSize/2)
		children := d.crossover(rng, parents)
		children = d.mutate(rng, children)

		pop = append(viable, children...)
	}

	return d.evaluate(ctx, pop)
}

// fill clones random existing members (generation not bumped, spec.md
// §4.7 step 1) until pop reaches size n.
func (d *Driver) fill(rng *rand.Rand, pop candidate.Population, n int) candidate.Population {
	if len(pop) == 0 || len(pop) >= n {
		return pop
	}
	out := make(candidate.Population, len(pop), n)
	copy(out, pop)
	for len(out) < n {
		src := pop[rng.Intn(len(pop))]
		out = append(out, src.Clone(false))
	}
	return out
}

// evaluate scores every unscored candidate in pop via the fitness engine.
func (d *Driver) evaluate(ctx context.Context, pop candidate.Population) (candidate.Population, error) {
	var unscored []candidate.Candidate
	var unscoredIdx []int
	for i, c := range pop {
		if !c.Fitness.Scored {
			unscored = append(unscored, c)
			unscoredIdx = append(unscoredIdx, i)
		}
	}
	if len(unscored) == 0 {
		return pop, nil
	}
	scored, err := d.Engine.Evaluate(ctx, unscored)
	if err != nil {
		return nil, err
	}
	out := make(candidate.Population, len(pop))
	copy(out, pop)
	for k, idx := range unscoredIdx {
		out[idx] = scored[k]
	}
	return out, nil
}

// viableFilter drops candidates with fitness exactly 0 (spec.md §4.7 step
// 4).
func viableFilter(pop candidate.Population) candidate.Population {
	out := make(candidate.Population, 0, len(pop))
	for _, c := range pop {
		if c.Fitness.Scored && c.Fitness.Value == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// crossover shuffles parents, pairs them consecutively, and produces two
// single-point-crossover offspring per pair (spec.md §4.7 step 6).
func (d *Driver) crossover(rng *rand.Rand, parents candidate.Population) candidate.Population {
	var out candidate.Population
	for _, pair := range selection.Pairs(rng, parents) {
		px, py := pair[0], pair[1]
		childOpsA, childOpsB := selection.Crossover(rng, px.Ops, py.Ops)
		out = append(out, px.Offspring(childOpsA), py.Offspring(childOpsB))
	}
	return out
}

// mutate applies spec.md §4.7 step 7 to every candidate: for each
// weighted suggestion, independently with probability weight*w_mut,
// append one new operator targeting that suggestion's sid.
func (d *Driver) mutate(rng *rand.Rand, pop candidate.Population) candidate.Population {
	out := make(candidate.Population, len(pop))
	for i, c := range pop {
		ops := c.Ops.Clone()
		for _, sug := range d.Suggestions {
			if rng.Float64() >= sug.Weight*d.Cfg.MutationProbability {
				continue
			}
			kind := pickKind(rng, d.Cfg.OperatorWeights)
			op := d.newOp(rng, kind, mutate.SID(sug.SID))
			ops = append(ops, op)
		}
		out[i] = c.Offspring(ops)
	}
	return out
}

// newOp constructs an operator targeting target, drawing a selection sid
// uniformly from the full sid universe when kind needs one (spec.md
// §4.7 step 7: "its pool = all sids").
func (d *Driver) newOp(rng *rand.Rand, kind mutate.Kind, target mutate.SID) mutate.Op {
	if !kind.NeedsSelection() || len(d.SIDUniverse) == 0 {
		return mutate.New(rng, kind, target, 0, false)
	}
	selection := d.SIDUniverse[rng.Intn(len(d.SIDUniverse))]
	return mutate.New(rng, kind, target, selection, true)
}

// pickKind draws a Kind from weights, falling back to a uniform
// distribution over mutate.AllKinds when weights is empty or sums to 0.
func pickKind(rng *rand.Rand, weights map[mutate.Kind]float64) mutate.Kind {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return mutate.AllKinds[rng.Intn(len(mutate.AllKinds))]
	}
	pick := rng.Float64() * total
	cum := 0.0
	for _, k := range mutate.AllKinds {
		w := weights[k]
		if w <= 0 {
			continue
		}
		cum += w
		if pick < cum {
			return k
		}
	}
	return mutate.AllKinds[len(mutate.AllKinds)-1]
}
