package mutate

import (
	"mendr/internal/langast"
	"mendr/internal/stmtindex"
)

// Render applies ops against ix, rewrites prog through the resulting
// overlay, and unparses every file. It returns the full set of rendered
// file contents; callers that only care which files actually changed can
// compare against the sids each op in ops touches, or simply diff this
// map's values against the original source.
func (a *Applier) Render(prog *langast.Program, ix *stmtindex.Index, ops OpList) (map[string]string, error) {
	overlay, err := a.Apply(ix, ops)
	if err != nil {
		return nil, err
	}
	rewritten, err := ix.Rewrite(prog, overlay)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rewritten.Files))
	for _, f := range rewritten.Files {
		out[f.Path] = langast.Unparse(f.Stmts)
	}
	return out, nil
}

// TouchedFiles reports which file paths contain at least one sid that
// ops references as a Target or Selection, per the index's file table.
func TouchedFiles(ix *stmtindex.Index, ops OpList) map[string]bool {
	out := map[string]bool{}
	for _, op := range ops {
		if f, ok := ix.File[op.Target]; ok {
			out[f] = true
		}
		if op.HasSelection {
			if f, ok := ix.File[op.Selection]; ok {
				out[f] = true
			}
		}
	}
	return out
}
