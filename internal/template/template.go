// Package template implements C10 — Cardumen: extraction of reusable
// statement templates parameterised by the variable names they
// reference, locality-filtered pool selection, scope-constrained
// instantiation, and a co-occurrence probability model over instances
// (spec.md §4.9).
package template

import (
	"fmt"
	"sort"

	"mendr/internal/langast"
	"mendr/internal/stmtindex"
)

// Template captures one statement's shape: the file it came from, its
// kind tag, and the distinct variable names it references (its
// placeholders) — spec.md §4.9's "Template extraction".
type Template struct {
	ID      int
	File    string
	Kind    string
	Names   []string // sorted, distinct
	Pattern langast.Stmt
}

// Extract builds one Template per statement in ix's traversal order.
func Extract(ix *stmtindex.Index) []Template {
	sids := ix.AllSIDs()
	out := make([]Template, 0, len(sids))
	for i, sid := range sids {
		s, ok := ix.Node(sid)
		if !ok {
			continue
		}
		names := langast.StmtNames(s)
		sort.Strings(names)
		out = append(out, Template{
			ID:      i,
			File:    ix.File[sid],
			Kind:    fmt.Sprintf("%T", s),
			Names:   names,
			Pattern: s,
		})
	}
	return out
}
