package template

import (
	"math/rand"
	"testing"
)

func sampleTemplates() []Template {
	return []Template{
		{ID: 0, File: "a/one.src", Kind: "X", Names: []string{"x"}},
		{ID: 1, File: "a/two.src", Kind: "X", Names: []string{"y"}},
		{ID: 2, File: "b/three.src", Kind: "Y", Names: []string{"x", "y"}},
	}
}

func TestPoolLocalFiltersToExactFile(t *testing.T) {
	templates := sampleTemplates()
	out := Pool(templates, Local, "a/one.src", "")
	if len(out) != 1 || out[0].ID != 0 {
		t.Fatalf("expected only the matching file's template, got %+v", out)
	}
}

func TestPoolFolderFiltersToSharedDirectory(t *testing.T) {
	templates := sampleTemplates()
	out := Pool(templates, Folder, "a/two.src", "")
	if len(out) != 2 {
		t.Fatalf("expected both templates under a/, got %d: %+v", len(out), out)
	}
}

func TestPoolGlobalReturnsEverything(t *testing.T) {
	templates := sampleTemplates()
	out := Pool(templates, Global, "a/one.src", "")
	if len(out) != len(templates) {
		t.Fatalf("expected every template, got %d", len(out))
	}
}

func TestPoolKindFilterNarrowsFurther(t *testing.T) {
	templates := sampleTemplates()
	out := Pool(templates, Global, "", "Y")
	if len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("expected only the Y-kind template, got %+v", out)
	}
}

func TestSelectTemplatePrefersHigherOverlap(t *testing.T) {
	pool := []Template{
		{ID: 0, Names: []string{"z"}},
		{ID: 1, Names: []string{"x"}},
	}
	rng := rand.New(rand.NewSource(1))
	hits := map[int]int{}
	for i := 0; i < 200; i++ {
		tmpl, ok := SelectTemplate(rng, pool, []string{"x"})
		if !ok {
			t.Fatalf("expected a selection")
		}
		hits[tmpl.ID]++
	}
	if hits[1] == 0 {
		t.Fatalf("expected template 1 (full overlap) to be selected at least once")
	}
	if hits[1] <= hits[0] {
		t.Fatalf("expected template 1 (overlap) to be favored over template 0 (no overlap): %v", hits)
	}
}

func TestSelectTemplateEmptyPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, ok := SelectTemplate(rng, nil, []string{"x"}); ok {
		t.Fatalf("expected no selection from an empty pool")
	}
}

func TestSelectTemplateFallsBackUniformlyWhenNoOverlap(t *testing.T) {
	pool := []Template{{ID: 0, Names: []string{"a"}}, {ID: 1, Names: []string{"b"}}}
	rng := rand.New(rand.NewSource(1))
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		tmpl, ok := SelectTemplate(rng, pool, []string{"z"})
		if !ok {
			t.Fatalf("expected a selection")
		}
		seen[tmpl.ID] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected the uniform fallback to eventually hit both templates, saw %v", seen)
	}
}
