package stmtindex

import "mendr/internal/langast"

// Rewrite replays the exact traversal Build used to assign sids over
// prog, substituting each sid present in overlay for its original node
// and leaving everything else untouched. A *langast.SeqStmt in the
// overlay is flattened into its constituent statements in place; a
// *langast.NoOpStmt is dropped entirely. Files matched by the index's
// original Excludes pass through unmodified, byte-for-byte, since they
// never received sids to overlay in the first place.
func (ix *Index) Rewrite(prog *langast.Program, overlay map[SID]langast.Stmt) (*langast.Program, error) {
	r := &rewriter{overlay: overlay, lineMode: ix.opts.LineMode}
	out := &langast.Program{Files: make([]*langast.File, 0, len(prog.Files))}
	for _, f := range prog.Files {
		excluded, err := matchesAny(ix.opts.Excludes, f.Path)
		if err != nil {
			return nil, err
		}
		if excluded {
			out.Files = append(out.Files, f)
			continue
		}
		out.Files = append(out.Files, &langast.File{Path: f.Path, Stmts: r.rewriteStmts(f.Stmts)})
	}
	return out, nil
}

type rewriter struct {
	next     SID
	overlay  map[SID]langast.Stmt
	lineMode bool
}

func (r *rewriter) rewriteStmts(stmts []langast.Stmt) []langast.Stmt {
	out := make([]langast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, r.rewriteStmt(s)...)
	}
	return out
}

func (r *rewriter) rewriteStmt(s langast.Stmt) []langast.Stmt {
	switch st := s.(type) {
	case *langast.IfStmt:
		if r.lineMode {
			newThen := r.rewriteStmts(st.Then)
			newElse := r.rewriteStmts(st.Else)
			return []langast.Stmt{&langast.IfStmt{Cond: st.Cond, Then: newThen, Else: newElse, Line: st.Line}}
		}
		sid := r.next
		r.next++
		newThen := r.rewriteStmts(st.Then)
		newElse := r.rewriteStmts(st.Else)
		if replacement, ok := r.overlay[sid]; ok {
			return flatten(replacement)
		}
		return []langast.Stmt{&langast.IfStmt{Cond: st.Cond, Then: newThen, Else: newElse, Line: st.Line}}

	case *langast.WhileStmt:
		if r.lineMode {
			newBody := r.rewriteStmts(st.Body)
			return []langast.Stmt{&langast.WhileStmt{Cond: st.Cond, Body: newBody, Line: st.Line}}
		}
		sid := r.next
		r.next++
		newBody := r.rewriteStmts(st.Body)
		if replacement, ok := r.overlay[sid]; ok {
			return flatten(replacement)
		}
		return []langast.Stmt{&langast.WhileStmt{Cond: st.Cond, Body: newBody, Line: st.Line}}

	case *langast.FunctionDef:
		newBody := r.rewriteStmts(st.Body)
		return []langast.Stmt{&langast.FunctionDef{Name: st.Name, Params: st.Params, Body: newBody, Line: st.Line}}

	default:
		sid := r.next
		r.next++
		if replacement, ok := r.overlay[sid]; ok {
			return flatten(replacement)
		}
		return []langast.Stmt{s}
	}
}

// flatten expands a SeqStmt into its constituent statements (recursively,
// since an overlay value can itself reference another Seq via Insert*
// composing with Move*) and drops NoOpStmt entirely.
func flatten(s langast.Stmt) []langast.Stmt {
	switch st := s.(type) {
	case *langast.SeqStmt:
		out := make([]langast.Stmt, 0, len(st.Stmts))
		for _, c := range st.Stmts {
			out = append(out, flatten(c)...)
		}
		return out
	case *langast.NoOpStmt:
		return nil
	default:
		return []langast.Stmt{s}
	}
}
