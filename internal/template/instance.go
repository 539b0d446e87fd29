package template

import (
	"math/rand"
	"sort"
	"strings"

	"mendr/internal/langast"
)

// Instance is one template with every placeholder substituted by a
// concrete name drawn from the insertion point's visible scope (spec.md
// §4.9: "Instantiation").
type Instance struct {
	TemplateID int
	Index      int
	Mapping    map[string]string
	Stmt       langast.Stmt
}

// Instantiate enumerates the Cartesian product of visibleNames over
// every unique placeholder in t.Names, one Instance per tuple (spec.md
// §4.9: "enumerate the Cartesian product over the visible name set at
// s"). A template with no placeholders produces exactly one
// (unmodified) instance; a template with placeholders but an empty
// visible-name set produces none.
func Instantiate(t Template, visibleNames []string) []Instance {
	if len(t.Names) == 0 {
		return []Instance{{TemplateID: t.ID, Index: 0, Mapping: map[string]string{}, Stmt: t.Pattern}}
	}
	if len(visibleNames) == 0 {
		return nil
	}

	names := make([]string, len(visibleNames))
	copy(names, visibleNames)
	sort.Strings(names)

	total := 1
	for range t.Names {
		total *= len(names)
	}

	out := make([]Instance, 0, total)
	for idx := 0; idx < total; idx++ {
		mapping := make(map[string]string, len(t.Names))
		rem := idx
		for _, placeholder := range t.Names {
			choice := rem % len(names)
			rem /= len(names)
			mapping[placeholder] = names[choice]
		}
		out = append(out, Instance{
			TemplateID: t.ID,
			Index:      idx,
			Mapping:    mapping,
			Stmt:       langast.SubstituteNames(t.Pattern, mapping),
		})
	}
	return out
}

// ProbModel precomputes, for every frozen (sorted, deduplicated) multiset
// of names appearing together in any statement, p(M) = |{stmts
// containing M}| / |{stmts with |M| distinct names}| (spec.md §4.9's
// "Probabilistic model"; the frozen-multiset granularity resolves the
// spec's Open Question per DESIGN.md).
type ProbModel struct {
	countByMultiset map[string]int
	countBySize     map[int]int
}

// BuildProbModel scans every statement template's name set and tallies
// the counts ProbModel.P needs.
func BuildProbModel(templates []Template) *ProbModel {
	pm := &ProbModel{countByMultiset: map[string]int{}, countBySize: map[int]int{}}
	for _, t := range templates {
		key := multisetKey(t.Names)
		pm.countByMultiset[key]++
		pm.countBySize[len(dedupe(t.Names))]++
	}
	return pm
}

// P returns the precomputed probability for the frozen multiset of
// names, or 0 if that exact multiset or that size class was never
// observed.
func (pm *ProbModel) P(names []string) float64 {
	size := len(dedupe(names))
	denom := pm.countBySize[size]
	if denom == 0 {
		return 0
	}
	return float64(pm.countByMultiset[multisetKey(names)]) / float64(denom)
}

// SelectInstance draws weighted-randomly over instances, weighting each
// by pm.P of its chosen names (spec.md §4.9: "Instance selection at s
// draws weighted-randomly over its enumerated instances using
// p(multiset-of-chosen-names)"). Falls back to uniform selection when
// every instance weighs zero (e.g. a never-before-seen name combination).
func SelectInstance(rng *rand.Rand, instances []Instance, pm *ProbModel) (Instance, bool) {
	if len(instances) == 0 {
		return Instance{}, false
	}
	weights := make([]float64, len(instances))
	total := 0.0
	for i, inst := range instances {
		names := make([]string, 0, len(inst.Mapping))
		for _, v := range inst.Mapping {
			names = append(names, v)
		}
		w := pm.P(names)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return instances[rng.Intn(len(instances))], true
	}
	pick := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if pick < cum {
			return instances[i], true
		}
	}
	return instances[len(instances)-1], true
}

func dedupe(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func multisetKey(names []string) string {
	uniq := dedupe(names)
	sort.Strings(uniq)
	return strings.Join(uniq, ",")
}
