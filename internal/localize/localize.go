// Package localize implements C4: normalising raw weighted (file, line)
// fault-localisation suggestions and mapping them onto statement
// identifiers (spec.md §4.4).
package localize

import (
	"math"
	"sort"

	"mendr/internal/stmtindex"
)

// Suggestion is a raw weighted fault-localisation record as produced by
// an external spectrum/coverage/instrumentation back-end (spec.md §6's
// "Localisation input").
type Suggestion struct {
	File   string
	Line   int
	Weight float64
}

// WeightedSID is the post-normalisation, post-mapping form search
// consumes (spec.md GLOSSARY: "Weighted identifier").
type WeightedSID struct {
	SID    stmtindex.SID
	Weight float64
}

// Normalize applies spec.md §4.4's normalisation: if any weight is
// negative, every non-NaN weight is shifted so the minimum is 0; then
// every non-NaN weight is divided by the maximum (1 if the maximum would
// otherwise be 0); a NaN weight normalises straight to 0, taking no part
// in the shift/scale computation (spec.md §8 scenario S3: a NaN entry
// among negative values still comes out 0, not shifted along with them).
// The postcondition is every weight in [0, 1] (spec.md §8 invariant 4).
func Normalize(suggestions []Suggestion) []Suggestion {
	out := make([]Suggestion, len(suggestions))
	copy(out, suggestions)

	min, max := 0.0, 0.0
	haveValue := false
	for _, s := range out {
		if math.IsNaN(s.Weight) {
			continue
		}
		if !haveValue || s.Weight < min {
			min = s.Weight
		}
		if !haveValue || s.Weight > max {
			max = s.Weight
		}
		haveValue = true
	}
	if min > 0 {
		min = 0
	}
	if min < 0 {
		max -= min
	}
	if max == 0 {
		max = 1
	}

	for i := range out {
		if math.IsNaN(out[i].Weight) {
			out[i].Weight = 0
			continue
		}
		out[i].Weight = (out[i].Weight - min) / max
	}
	return out
}

// Localize normalises suggestions and expands each into one WeightedSID
// per sid recorded at ix.Lines[file][line], preserving the file/line
// ordering of the input. A (file, line) pair with no sids in the
// statement table (e.g. a blank line, or a line excluded from indexing)
// contributes nothing.
func Localize(ix *stmtindex.Index, suggestions []Suggestion) []WeightedSID {
	normalized := Normalize(suggestions)
	var out []WeightedSID
	for _, s := range normalized {
		sids := ix.SortedLineSIDs(s.File, s.Line)
		if len(sids) == 0 {
			continue
		}
		for _, sid := range sids {
			out = append(out, WeightedSID{SID: sid, Weight: s.Weight})
		}
	}
	return out
}

// SortedByWeightDesc returns a copy of ws sorted by descending weight,
// breaking ties by ascending sid for reproducibility — used by
// exhaustive/adaptive search to visit the most suspicious statements
// first.
func SortedByWeightDesc(ws []WeightedSID) []WeightedSID {
	out := make([]WeightedSID, len(ws))
	copy(out, ws)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].SID < out[j].SID
	})
	return out
}

// Positive filters to only the sids with strictly positive weight —
// spec.md §8 invariant 8's precondition for a mutation's op.target.
func Positive(ws []WeightedSID) []WeightedSID {
	out := make([]WeightedSID, 0, len(ws))
	for _, w := range ws {
		if w.Weight > 0 {
			out = append(out, w)
		}
	}
	return out
}
