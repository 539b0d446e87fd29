package adaptive

import (
	"testing"

	"mendr/internal/mutate"
)

func TestEquivalentIdentityRequiresExactOrder(t *testing.T) {
	a := mutate.OpList{{Kind: mutate.Delete, Target: 0}, {Kind: mutate.Delete, Target: 1}}
	b := mutate.OpList{{Kind: mutate.Delete, Target: 1}, {Kind: mutate.Delete, Target: 0}}
	if Equivalent(Identity, a, b) {
		t.Fatalf("expected identity equivalence to be order-sensitive")
	}
	if !Equivalent(Identity, a, a) {
		t.Fatalf("expected an op list to be identity-equivalent to itself")
	}
}

func TestEquivalentDeadCodeIgnoresDeletionOrder(t *testing.T) {
	a := mutate.OpList{{Kind: mutate.Delete, Target: 0}, {Kind: mutate.Delete, Target: 1}}
	b := mutate.OpList{{Kind: mutate.Delete, Target: 1}, {Kind: mutate.Delete, Target: 0}}
	if !Equivalent(DeadCode, a, b) {
		t.Fatalf("expected dead-code equivalence to ignore deletion order")
	}
}

func TestEquivalentDeadCodeRequiresSameInsertionDirection(t *testing.T) {
	a := mutate.OpList{{Kind: mutate.InsertBefore, Target: 0, Selection: 1, HasSelection: true}}
	b := mutate.OpList{{Kind: mutate.InsertAfter, Target: 0, Selection: 1, HasSelection: true}}
	if Equivalent(DeadCode, a, b) {
		t.Fatalf("expected dead-code equivalence to distinguish insertion direction")
	}
}

func TestEquivalentOrderIgnoresInsertionDirection(t *testing.T) {
	a := mutate.OpList{{Kind: mutate.InsertBefore, Target: 0, Selection: 1, HasSelection: true}}
	b := mutate.OpList{{Kind: mutate.InsertAfter, Target: 0, Selection: 1, HasSelection: true}}
	if !Equivalent(Order, a, b) {
		t.Fatalf("expected order equivalence to ignore insertion direction")
	}
}

func TestEquivalentOrderStillDistinguishesDifferentTargets(t *testing.T) {
	a := mutate.OpList{{Kind: mutate.InsertBefore, Target: 0, Selection: 1, HasSelection: true}}
	b := mutate.OpList{{Kind: mutate.InsertAfter, Target: 2, Selection: 1, HasSelection: true}}
	if Equivalent(Order, a, b) {
		t.Fatalf("expected order equivalence to still require the same target")
	}
}

func TestEquivalentDifferentLengthsNeverEqual(t *testing.T) {
	a := mutate.OpList{{Kind: mutate.Delete, Target: 0}}
	b := mutate.OpList{{Kind: mutate.Delete, Target: 0}, {Kind: mutate.Delete, Target: 1}}
	for _, kind := range []EquivalenceKind{Identity, DeadCode, Order} {
		if Equivalent(kind, a, b) {
			t.Fatalf("%s: expected different-length op lists to never be equivalent", kind)
		}
	}
}
