package template

import (
	"math/rand"
	"path/filepath"
)

// Locality selects which templates a fault site's pool is drawn from
// (spec.md §4.9: "local (same file), folder (same directory), global
// (all)").
type Locality string

const (
	Local  Locality = "local"
	Folder Locality = "folder"
	Global Locality = "global"
)

// Pool filters templates by locality relative to file, optionally
// further restricted to templates sharing kind (pass "" to skip the kind
// filter).
func Pool(templates []Template, locality Locality, file string, kind string) []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		switch locality {
		case Local:
			if t.File != file {
				continue
			}
		case Folder:
			if filepath.Dir(t.File) != filepath.Dir(file) {
				continue
			}
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SelectTemplate draws weighted-randomly from pool, weighting template t
// by |names(t) ∩ names(siteNames)| / |names(t)| (spec.md §4.9: "Template
// selection at a fault site"). A template with zero names carries zero
// weight and is only reachable via the uniform fallback when every
// candidate weighs zero.
func SelectTemplate(rng *rand.Rand, pool []Template, siteNames []string) (Template, bool) {
	if len(pool) == 0 {
		return Template{}, false
	}
	siteSet := make(map[string]bool, len(siteNames))
	for _, n := range siteNames {
		siteSet[n] = true
	}

	weights := make([]float64, len(pool))
	total := 0.0
	for i, t := range pool {
		if len(t.Names) == 0 {
			continue
		}
		inter := 0
		for _, n := range t.Names {
			if siteSet[n] {
				inter++
			}
		}
		w := float64(inter) / float64(len(t.Names))
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return pool[rng.Intn(len(pool))], true
	}
	pick := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if pick < cum {
			return pool[i], true
		}
	}
	return pool[len(pool)-1], true
}
