package candidate

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"mendr/internal/mutate"
)

func TestEqualIsSolelyRootAndOps(t *testing.T) {
	runA := uuid.New()
	runB := uuid.New()
	rng := rand.New(rand.NewSource(1))
	ops := mutate.OpList{mutate.New(rng, mutate.Delete, 0, 0, false)}

	c1 := New(runA, "root", ops).WithFitness(0.5)
	c2 := New(runB, "root", ops)
	c2.Generation = 7

	if !c1.Equal(c2) {
		t.Fatalf("expected equality independent of RunID/Generation/Fitness")
	}
	if c1.Key() != c2.Key() {
		t.Fatalf("expected equal keys")
	}
}

func TestEqualDiffersOnOpsOrRoot(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	opsA := mutate.OpList{mutate.New(rng, mutate.Delete, 0, 0, false)}
	opsB := mutate.OpList{mutate.New(rng, mutate.Delete, 1, 0, false)}

	c1 := New(uuid.New(), "root", opsA)
	c2 := New(uuid.New(), "root", opsB)
	if c1.Equal(c2) {
		t.Fatalf("different ops must not compare equal")
	}

	c3 := New(uuid.New(), "other-root", opsA)
	if c1.Equal(c3) {
		t.Fatalf("different source roots must not compare equal")
	}
}

func TestOffspringIncrementsGenerationAndClearsFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	base := New(uuid.New(), "root", mutate.OpList{mutate.New(rng, mutate.Delete, 0, 0, false)}).WithFitness(0.3)
	child := base.Offspring(mutate.OpList{mutate.New(rng, mutate.Delete, 1, 0, false)})

	if child.Generation != base.Generation+1 {
		t.Fatalf("expected generation to increment")
	}
	if child.Fitness.Scored {
		t.Fatalf("expected offspring fitness to be unscored")
	}
	if child.RunID != base.RunID {
		t.Fatalf("expected RunID to carry over")
	}
}

func TestPopulationTiedBestAndDedup(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := New(uuid.New(), "root", mutate.OpList{mutate.New(rng, mutate.Delete, 0, 0, false)}).WithFitness(1.0)
	b := New(uuid.New(), "root", mutate.OpList{mutate.New(rng, mutate.Delete, 1, 0, false)}).WithFitness(1.0)
	c := New(uuid.New(), "root", mutate.OpList{mutate.New(rng, mutate.Delete, 2, 0, false)}).WithFitness(0.4)
	dup := a
	dup.RunID = uuid.New()

	pop := Population{a, b, c, dup}
	best, ok := pop.BestFitness()
	if !ok || best != 1.0 {
		t.Fatalf("expected best fitness 1.0, got %v (ok=%v)", best, ok)
	}

	tied := pop.TiedBest(1e-9)
	if len(tied) != 3 {
		t.Fatalf("expected 3 candidates tied at best (a, b, dup), got %d", len(tied))
	}

	deduped := pop.Dedup()
	if len(deduped) != 3 {
		t.Fatalf("expected dedup to collapse a/dup to one entry, got %d", len(deduped))
	}
}
