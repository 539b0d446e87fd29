// Package stmtindex implements C1: it walks each parsed file's AST,
// assigns dense integer statement identifiers (sids) in traversal order,
// and records the (sid -> node), (sid -> file), and (file -> line ->
// [sid]) tables spec.md §3/§4.1 describes.
package stmtindex

import (
	"path/filepath"
	"sort"

	"mendr/internal/langast"
	"mendr/internal/repairerr"
)

// SID is a dense, non-negative statement identifier, stable for the
// lifetime of an initial Candidate and never recycled.
type SID int

// Options configures the traversal.
type Options struct {
	// LineMode excludes compound statements with nested blocks (if,
	// while) from receiving sids; only their leaves are indexed. When
	// false, compound statements receive their own sid in addition to
	// their children's.
	LineMode bool
	// Excludes is a list of glob patterns (path/filepath.Match syntax)
	// matched against each file's path; matching files are skipped
	// entirely.
	Excludes []string
}

// Index is the immutable statement table plus location tables, populated
// once by Build and never mutated afterward; mutations in internal/mutate
// produce a separate overlay, they never edit this table.
type Index struct {
	Stmts map[SID]langast.Stmt
	File  map[SID]string
	// Lines[file][line] is the ordered list of sids at that file/line,
	// ordered by traversal so ties on the same line are reproducible.
	Lines map[string]map[int][]SID
	// Order is every sid in traversal order, across all files.
	Order []SID
	// opts is retained so Rewrite can replay the exact same traversal
	// (same LineMode, same Excludes) that assigned these sids.
	opts Options
}

// Len reports how many sids are in the table.
func (ix *Index) Len() int { return len(ix.Order) }

// Node looks up the AST node for an sid.
func (ix *Index) Node(sid SID) (langast.Stmt, bool) {
	n, ok := ix.Stmts[sid]
	return n, ok
}

// AllSIDs returns every sid in ascending (traversal) order. The returned
// slice must not be mutated by callers.
func (ix *Index) AllSIDs() []SID { return ix.Order }

type builder struct {
	opts  Options
	ix    *Index
	next  SID
}

// Build indexes every file in prog not matched by opts.Excludes.
func Build(prog *langast.Program, opts Options) (*Index, error) {
	b := &builder{
		opts: opts,
		ix: &Index{
			Stmts: map[SID]langast.Stmt{},
			File:  map[SID]string{},
			Lines: map[string]map[int][]SID{},
			opts:  opts,
		},
	}
	for _, f := range prog.Files {
		excluded, err := matchesAny(opts.Excludes, f.Path)
		if err != nil {
			return nil, repairerr.Wrap(repairerr.SourceUnavailable, err, "invalid exclude pattern").WithLocation(f.Path, 0)
		}
		if excluded {
			continue
		}
		b.ix.Lines[f.Path] = map[int][]SID{}
		b.walkStmts(f.Path, f.Stmts)
	}
	return b.ix, nil
}

func matchesAny(patterns []string, path string) (bool, error) {
	for _, pat := range patterns {
		ok, err := filepath.Match(pat, path)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		// also try against the base name, so "*_test.src" matches
		// regardless of directory.
		ok, err = filepath.Match(pat, filepath.Base(path))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (b *builder) assign(file string, s langast.Stmt) {
	sid := b.next
	b.next++
	b.ix.Stmts[sid] = s
	b.ix.File[sid] = file
	line := s.StmtLine()
	b.ix.Lines[file][line] = append(b.ix.Lines[file][line], sid)
	b.ix.Order = append(b.ix.Order, sid)
}

func (b *builder) walkStmts(file string, stmts []langast.Stmt) {
	for _, s := range stmts {
		b.walkStmt(file, s)
	}
}

func (b *builder) walkStmt(file string, s langast.Stmt) {
	switch st := s.(type) {
	case *langast.IfStmt:
		if !b.opts.LineMode {
			b.assign(file, s)
		}
		b.walkStmts(file, st.Then)
		b.walkStmts(file, st.Else)
	case *langast.WhileStmt:
		if !b.opts.LineMode {
			b.assign(file, s)
		}
		b.walkStmts(file, st.Body)
	case *langast.FunctionDef:
		// Function declarations are never themselves a mutation target;
		// only their bodies are.
		b.walkStmts(file, st.Body)
	default:
		b.assign(file, s)
	}
}

// SortedLineSIDs is a convenience used by internal/localize: the sids at
// file:line in traversal order.
func (ix *Index) SortedLineSIDs(file string, line int) []SID {
	lines, ok := ix.Lines[file]
	if !ok {
		return nil
	}
	return lines[line]
}

// Files returns every indexed file path, sorted for deterministic
// iteration.
func (ix *Index) Files() []string {
	files := make([]string, 0, len(ix.Lines))
	for f := range ix.Lines {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
