package adaptive

import (
	"sort"
	"strconv"

	"mendr/internal/mutate"
)

// EquivalenceKind selects one of the configured equivalence predicates
// spec.md §4.8 lists: "identity", "dead-code", "order".
type EquivalenceKind string

const (
	// Identity: the op lists are element-wise, order-sensitive equal.
	Identity EquivalenceKind = "identity"
	// DeadCode: insertion targets identical modulo order, deletions
	// identical.
	DeadCode EquivalenceKind = "dead-code"
	// Order: insertion targets equal regardless of direction
	// (InsertBefore/InsertAfter of the same target/selection pair count
	// the same).
	Order EquivalenceKind = "order"
)

// Equivalent reports whether a and b are equivalent under kind, used by
// the adaptive driver to skip a newly emitted candidate that is
// equivalent to one it already accepted (spec.md §4.8).
func Equivalent(kind EquivalenceKind, a, b mutate.OpList) bool {
	switch kind {
	case DeadCode:
		return multisetEqual(deletionTargets(a), deletionTargets(b)) &&
			multisetEqual(insertionTargets(a, false), insertionTargets(b, false))
	case Order:
		return multisetEqual(insertionTargets(a, true), insertionTargets(b, true)) &&
			multisetEqual(deletionTargets(a), deletionTargets(b))
	default:
		return a.Equal(b)
	}
}

func deletionTargets(ops mutate.OpList) []string {
	var out []string
	for _, op := range ops {
		if op.Kind == mutate.Delete {
			out = append(out, strconv.Itoa(int(op.Target)))
		}
	}
	return out
}

// insertionTargets returns a key per insertion operator; when
// ignoreDirection is true, InsertBefore and InsertAfter of the same
// (target, selection) pair produce the same key, matching the "order"
// equivalence predicate's direction-insensitivity.
func insertionTargets(ops mutate.OpList, ignoreDirection bool) []string {
	var out []string
	for _, op := range ops {
		switch op.Kind {
		case mutate.InsertBefore, mutate.InsertAfter, mutate.InsertBoth:
			kind := string(op.Kind)
			if ignoreDirection {
				kind = "Insert"
			}
			out = append(out, kind+"|"+strconv.Itoa(int(op.Target))+"|"+strconv.Itoa(int(op.Selection)))
		}
	}
	return out
}

// multisetEqual compares two string slices as multisets (order-
// insensitive, duplicate-sensitive).
func multisetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
