// Package selection implements C6: the parent-selection rules and
// single-point crossover the evolutionary driver (C7) calls each
// generation (spec.md §4.7 step 5-6).
package selection

import (
	"math/rand"

	"mendr/internal/candidate"
	"mendr/internal/mutate"
)

// Kind is one of the three configured selection rules (spec.md §6
// Configuration: selection: {random | universal | tournament(k)}).
type Kind string

const (
	Random     Kind = "random"
	Universal  Kind = "universal"
	Tournament Kind = "tournament"
)

// Rule configures one selection pass. TournamentK is only meaningful for
// Tournament.
type Rule struct {
	Kind        Kind
	TournamentK int
}

// Select draws n parents from pop under rule, with replacement. pop must
// be non-empty and every member scored.
func Select(rng *rand.Rand, rule Rule, pop candidate.Population, n int) candidate.Population {
	if len(pop) == 0 || n <= 0 {
		return nil
	}
	switch rule.Kind {
	case Universal:
		return selectUniversal(rng, pop, n)
	case Tournament:
		k := rule.TournamentK
		if k < 1 {
			k = 1
		}
		return selectTournament(rng, pop, n, k)
	default:
		return selectRandom(rng, pop, n)
	}
}

func selectRandom(rng *rand.Rand, pop candidate.Population, n int) candidate.Population {
	out := make(candidate.Population, n)
	for i := 0; i < n; i++ {
		out[i] = pop[rng.Intn(len(pop))]
	}
	return out
}

func selectTournament(rng *rand.Rand, pop candidate.Population, n, k int) candidate.Population {
	out := make(candidate.Population, n)
	for i := 0; i < n; i++ {
		best := pop[rng.Intn(len(pop))]
		for j := 1; j < k; j++ {
			c := pop[rng.Intn(len(pop))]
			if c.Fitness.Value > best.Fitness.Value {
				best = c
			}
		}
		out[i] = best
	}
	return out
}

// selectUniversal is stochastic universal sampling: n evenly spaced
// pointers over the fitness-weighted cumulative distribution, one spin of
// the wheel selecting all n parents instead of n independent spins. Falls
// back to uniform weights if every candidate's fitness is 0 (a zero total
// would otherwise make the wheel degenerate).
func selectUniversal(rng *rand.Rand, pop candidate.Population, n int) candidate.Population {
	weights := make([]float64, len(pop))
	total := 0.0
	for i, c := range pop {
		w := c.Fitness.Value
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}

	step := total / float64(n)
	start := rng.Float64() * step

	out := make(candidate.Population, n)
	cum := 0.0
	idx := 0
	for i := 0; i < n; i++ {
		pointer := start + step*float64(i)
		for idx < len(weights)-1 && cum+weights[idx] < pointer {
			cum += weights[idx]
			idx++
		}
		out[i] = pop[idx]
	}
	return out
}

// CrossoverAt performs spec.md §4.7 step 6's single-point crossover at
// fixed cut indices i (into px, 0<=i<=len(px)) and j (into py,
// 0<=j<=len(py)): children are px[:i]+py[j:] and py[:j]+px[i:].
func CrossoverAt(px, py mutate.OpList, i, j int) (childA, childB mutate.OpList) {
	childA = append(append(mutate.OpList{}, px[:i]...), py[j:]...)
	childB = append(append(mutate.OpList{}, py[:j]...), px[i:]...)
	return childA, childB
}

// Crossover draws cut indices uniformly in [0, len(px)] and [0, len(py)]
// and delegates to CrossoverAt.
func Crossover(rng *rand.Rand, px, py mutate.OpList) (childA, childB mutate.OpList) {
	i := rng.Intn(len(px) + 1)
	j := rng.Intn(len(py) + 1)
	return CrossoverAt(px, py, i, j)
}

// Pairs shuffles parents and groups them into consecutive pairs, per
// spec.md §4.7 step 6's "shuffle; pair consecutively". An odd parent out
// is dropped, matching the pairing of an even-sized N/2 parent pool.
func Pairs(rng *rand.Rand, parents candidate.Population) [][2]candidate.Candidate {
	shuffled := make(candidate.Population, len(parents))
	copy(shuffled, parents)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var pairs [][2]candidate.Candidate
	for i := 0; i+1 < len(shuffled); i += 2 {
		pairs = append(pairs, [2]candidate.Candidate{shuffled[i], shuffled[i+1]})
	}
	return pairs
}
