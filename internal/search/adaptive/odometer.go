package adaptive

import "mendr/internal/mutate"

// Odometer is the explicit, resumable iterator spec.md §9 calls for
// ("coroutine-style generators -> explicit iterator objects with
// explicit resumable state... a finite-state machine over an array of
// per-slot iterators"): it enumerates every ordered tuple of length 1..K
// over a fixed list of single-op edits, shortest tuples first, the
// right-most slot advancing fastest within a length (spec.md §8 scenario
// S5).
type Odometer struct {
	edits   []mutate.Op
	k       int
	length  int
	idx     []int
	started bool
	done    bool
}

// NewOdometer builds an odometer over edits, enumerating tuples up to
// length k (spec.md §6 Configuration's k_depth, AE only).
func NewOdometer(edits []mutate.Op, k int) *Odometer {
	return &Odometer{edits: edits, k: k}
}

// Next returns the next tuple in enumeration order, or (nil, false) once
// every tuple up to length k has been produced (or the edit list is
// empty).
func (o *Odometer) Next() ([]mutate.Op, bool) {
	if o.done || len(o.edits) == 0 || o.k < 1 {
		return nil, false
	}
	if !o.started {
		o.started = true
		o.length = 1
		o.idx = make([]int, 1)
		return o.current(), true
	}

	for i := len(o.idx) - 1; i >= 0; i-- {
		o.idx[i]++
		if o.idx[i] < len(o.edits) {
			return o.current(), true
		}
		o.idx[i] = 0
	}

	o.length++
	if o.length > o.k {
		o.done = true
		return nil, false
	}
	o.idx = make([]int, o.length)
	return o.current(), true
}

func (o *Odometer) current() []mutate.Op {
	out := make([]mutate.Op, len(o.idx))
	for i, ix := range o.idx {
		out[i] = o.edits[ix]
	}
	return out
}

// BuildEdits constructs the flat, ordered single-op edit generator spec.md
// §4.8 describes: for each location in locs (weighted-suggestion order),
// yield Delete(loc), then for every other sid j in universe (already
// arranged in the desired "reverse universe" order by the caller):
// InsertBefore(loc, j), InsertAfter(loc, j).
func BuildEdits(locs []mutate.SID, universe []mutate.SID) []mutate.Op {
	var edits []mutate.Op
	for _, loc := range locs {
		edits = append(edits, mutate.Op{Kind: mutate.Delete, Target: loc})
		for _, j := range universe {
			if j == loc {
				continue
			}
			edits = append(edits, mutate.Op{Kind: mutate.InsertBefore, Target: loc, Selection: j, HasSelection: true})
			edits = append(edits, mutate.Op{Kind: mutate.InsertAfter, Target: loc, Selection: j, HasSelection: true})
		}
	}
	return edits
}

// ReverseUniverse arranges the sid universe the "other sid" loop ranges
// over (spec.md §4.8: "extended with all remaining sids in original
// order and iterated in reverse"): the weighted-suggestion sids in their
// given order, followed by every sid not already among them in ascending
// (original traversal) order, the whole sequence then reversed.
func ReverseUniverse(locs []mutate.SID, allSIDs []mutate.SID) []mutate.SID {
	seen := make(map[mutate.SID]bool, len(locs))
	ordered := make([]mutate.SID, 0, len(allSIDs))
	for _, l := range locs {
		if !seen[l] {
			seen[l] = true
			ordered = append(ordered, l)
		}
	}
	for _, s := range allSIDs {
		if !seen[s] {
			seen[s] = true
			ordered = append(ordered, s)
		}
	}
	out := make([]mutate.SID, len(ordered))
	for i, s := range ordered {
		out[len(ordered)-1-i] = s
	}
	return out
}
