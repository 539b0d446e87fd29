package selection

import (
	"math/rand"

	"github.com/google/uuid"

	"mendr/internal/candidate"
	"mendr/internal/mutate"
)

func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// scoredPopulation builds a population of len(fitnesses) candidates, each
// with a single distinct Delete op (so they compare unequal) and the
// given fitness already scored.
func scoredPopulation(fitnesses ...float64) candidate.Population {
	runID := uuid.New()
	out := make(candidate.Population, len(fitnesses))
	for i, f := range fitnesses {
		ops := mutate.OpList{{Kind: mutate.Delete, Target: mutate.SID(i)}}
		out[i] = candidate.New(runID, "root", ops).WithFitness(f)
	}
	return out
}
