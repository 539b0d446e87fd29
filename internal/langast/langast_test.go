package langast

import (
	"strings"
	"testing"
)

const medianSrc = `func median(x, y, z) {
    if (x < y) {
        if (y < z) {
            return y
        } else {
            return y
        }
    } else {
        return x
    }
}
`

func TestParseFileMedian(t *testing.T) {
	f, errs := ParseFile("median.src", medianSrc)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(f.Stmts) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(f.Stmts))
	}
	fn, ok := f.Stmts[0].(*FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", f.Stmts[0])
	}
	if fn.Name != "median" || len(fn.Params) != 3 {
		t.Fatalf("unexpected function signature: %+v", fn)
	}
}

func TestUnparseRoundTripsExecutableShape(t *testing.T) {
	f, errs := ParseFile("median.src", medianSrc)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	out := Unparse(f.Stmts)
	if !strings.Contains(out, "func median(x, y, z)") {
		t.Fatalf("unparse lost function signature: %s", out)
	}
	if !strings.Contains(out, "return y") {
		t.Fatalf("unparse lost body: %s", out)
	}
}

func TestProgramNamesAndRename(t *testing.T) {
	f, errs := ParseFile("median.src", medianSrc)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	names := ProgramNames([]*File{f})
	want := map[string]bool{"x": true, "y": true, "z": true}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected name %q in %v", n, names)
		}
	}
	for w := range want {
		found := false
		for _, n := range names {
			if n == w {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing expected name %q in %v", w, names)
		}
	}

	fn := f.Stmts[0].(*FunctionDef)
	innerIf := fn.Body[0].(*IfStmt)
	renamed := RenameAll(innerIf, "w").(*IfStmt)
	cmp := renamed.Cond.(*CompareExpr)
	if cmp.Left.(*Ident).Name != "w" {
		t.Fatalf("RenameAll did not rewrite left operand: %+v", cmp.Left)
	}
}

func TestRewriteFirstExprReplacesCompareOp(t *testing.T) {
	stmt := &IfStmt{
		Cond: &CompareExpr{Left: &Ident{Name: "a"}, Ops: []string{"<"}, Comparators: []Expr{&Ident{Name: "b"}}},
		Then: []Stmt{&ReturnStmt{Value: &Ident{Name: "a"}}},
	}
	newStmt, ok := RewriteFirstExpr(stmt, func(e Expr) bool {
		_, isCompare := e.(*CompareExpr)
		return isCompare
	}, func(e Expr) Expr {
		c := e.(*CompareExpr)
		return &CompareExpr{Left: c.Left, Ops: []string{">="}, Comparators: c.Comparators}
	})
	if !ok {
		t.Fatalf("expected a match")
	}
	got := newStmt.(*IfStmt).Cond.(*CompareExpr).Ops[0]
	if got != ">=" {
		t.Fatalf("expected rewritten op >=, got %s", got)
	}
	// original untouched
	if stmt.Cond.(*CompareExpr).Ops[0] != "<" {
		t.Fatalf("original statement must not be mutated in place")
	}
}
