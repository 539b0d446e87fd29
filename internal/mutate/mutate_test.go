package mutate

import (
	"math/rand"
	"strings"
	"testing"

	"mendr/internal/langast"
	"mendr/internal/stmtindex"
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

func buildMedian(t *testing.T) (*langast.Program, *stmtindex.Index) {
	t.Helper()
	f, errs := langast.ParseFile("median.src", medianSrc)
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	prog := &langast.Program{Files: []*langast.File{f}}
	ix, err := stmtindex.Build(prog, stmtindex.Options{LineMode: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return prog, ix
}

// TestReplaceFixesMiddleOfThree exercises S1's groundwork: the buggy
// clause returns y where it should return x; a single Replace targeting
// that clause's sid with the correct sibling statement's sid as selection
// produces the fixed program text.
func TestReplaceFixesMiddleOfThree(t *testing.T) {
	prog, ix := buildMedian(t)
	// sids in traversal order: 0 = "return y" (inner then), 1 = "return y"
	// (inner else, the bug — should read "return x"), 2 = "return x"
	// (outer else).
	buggy := SID(1)
	correct := SID(2)
	if node, _ := ix.Node(buggy); node.(*langast.ReturnStmt).Value.(*langast.Ident).Name != "y" {
		t.Fatalf("unexpected sid layout: sid 1 is not the buggy 'return y' clause")
	}

	rng := rand.New(rand.NewSource(1))
	op := New(rng, Replace, buggy, correct, true)
	a := &Applier{}
	out, err := a.Render(prog, ix, OpList{op})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := out["median.src"]
	if strings.Count(got, "return y") != 1 {
		t.Fatalf("expected exactly one remaining 'return y', got:\n%s", got)
	}
	if strings.Count(got, "return x") != 2 {
		t.Fatalf("expected two 'return x' after the fix, got:\n%s", got)
	}
}

// TestDeleteIdempotent is invariant 5: Delete(t), Delete(t) == Delete(t).
func TestDeleteIdempotent(t *testing.T) {
	_, ix := buildMedian(t)
	rng := rand.New(rand.NewSource(2))
	target := SID(0)
	single := New(rng, Delete, target, 0, false)
	twice := New(rng, Delete, target, 0, false)

	a := &Applier{}
	overlaySingle, err := a.Apply(ix, OpList{single})
	if err != nil {
		t.Fatalf("Apply single: %v", err)
	}
	overlayTwice, err := a.Apply(ix, OpList{single, twice})
	if err != nil {
		t.Fatalf("Apply twice: %v", err)
	}
	if _, ok := overlaySingle[target].(*langast.NoOpStmt); !ok {
		t.Fatalf("expected NoOpStmt after one Delete")
	}
	if _, ok := overlayTwice[target].(*langast.NoOpStmt); !ok {
		t.Fatalf("expected NoOpStmt after two Deletes")
	}
}

// TestSwapSelfInverse is invariant 6.
func TestSwapSelfInverse(t *testing.T) {
	prog, ix := buildMedian(t)
	t1, t2 := SID(0), SID(2)
	rng := rand.New(rand.NewSource(3))
	swap := New(rng, Swap, t1, t2, true)

	a := &Applier{}
	original, err := a.Render(prog, ix, OpList{})
	if err != nil {
		t.Fatalf("Render original: %v", err)
	}
	roundTripped, err := a.Render(prog, ix, OpList{swap, swap})
	if err != nil {
		t.Fatalf("Render swap-swap: %v", err)
	}
	if original["median.src"] != roundTripped["median.src"] {
		t.Fatalf("Swap,Swap not self-inverse:\nwant:\n%s\ngot:\n%s", original["median.src"], roundTripped["median.src"])
	}
}

// TestOtherFilesByteIdentical is invariant 1's second clause: a mutation
// touching one file must leave every other file untouched.
func TestOtherFilesByteIdentical(t *testing.T) {
	fA, errs := langast.ParseFile("a.src", medianSrc)
	if len(errs) != 0 {
		t.Fatalf("parse a.src: %v", errs)
	}
	otherSrc := "func untouched() {\n    return 1\n}\n"
	fB, errs := langast.ParseFile("b.src", otherSrc)
	if len(errs) != 0 {
		t.Fatalf("parse b.src: %v", errs)
	}
	prog := &langast.Program{Files: []*langast.File{fA, fB}}
	ix, err := stmtindex.Build(prog, stmtindex.Options{LineMode: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rng := rand.New(rand.NewSource(4))
	op := New(rng, Delete, SID(0), 0, false)
	a := &Applier{}
	out, err := a.Render(prog, ix, OpList{op})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	wantB := langast.Unparse(fB.Stmts)
	if out["b.src"] != wantB {
		t.Fatalf("untouched file changed:\nwant:\n%s\ngot:\n%s", wantB, out["b.src"])
	}
}

// TestAllKindsApplyWithoutError is a broad sweep over the kinds the
// median fixture can exercise (it has no BinaryExpr/UnaryExpr/BoolExpr,
// so ReplaceBinaryOp/ReplaceUnaryOp/ReplaceBoolOp aren't reachable here;
// they're covered separately below).
func TestAllKindsApplyWithoutError(t *testing.T) {
	f, errs := langast.ParseFile("median.src", medianSrc)
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	prog := &langast.Program{Files: []*langast.File{f}}
	ix, err := stmtindex.Build(prog, stmtindex.Options{LineMode: false})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rng := rand.New(rand.NewSource(5))
	a := &Applier{Names: []string{"x", "y", "z"}}

	ifSid := findIfSid(t, ix)

	cases := []Op{
		New(rng, Delete, 0, 0, false),
		New(rng, InsertBefore, 0, 2, true),
		New(rng, InsertAfter, 0, 2, true),
		New(rng, InsertBoth, 0, 2, true),
		New(rng, Replace, 0, 2, true),
		New(rng, MoveBefore, 0, 2, true),
		New(rng, MoveAfter, 1, 2, true),
		New(rng, MoveBoth, 0, 2, true),
		New(rng, Swap, 0, 2, true),
		New(rng, Copy, 0, 0, false),
		New(rng, ModifyIfToTrue, ifSid, 0, false),
		New(rng, ModifyIfToFalse, ifSid, 0, false),
		New(rng, ReplaceCompareOp, ifSid, 0, false),
		New(rng, InsertReturn0, 0, 0, false),
		New(rng, InsertReturnNone, 0, 0, false),
		New(rng, InsertReturnString, 0, 0, false),
		New(rng, InsertReturnList, 0, 0, false),
		New(rng, InsertReturnTuple, 0, 0, false),
		New(rng, Rename, 0, 0, false),
	}
	for _, op := range cases {
		if _, err := a.Apply(ix, OpList{op}); err != nil {
			t.Fatalf("kind %s: unexpected error: %v", op.Kind, err)
		}
	}
}

// TestReplaceArithmeticUnaryBoolOps covers the three Replace*Op kinds the
// median fixture cannot reach, against a hand-built statement table.
func TestReplaceArithmeticUnaryBoolOps(t *testing.T) {
	letStmt := &langast.LetStmt{Name: "total", Value: &langast.BinaryExpr{Op: "+", Left: &langast.Ident{Name: "a"}, Right: &langast.Ident{Name: "b"}}, Line: 1}
	retStmt := &langast.ReturnStmt{Value: &langast.UnaryExpr{Op: "-", Operand: &langast.Ident{Name: "a"}}, Line: 2}
	ifStmt := &langast.IfStmt{Cond: &langast.BoolExpr{Op: "and", Values: []langast.Expr{&langast.BoolLit{Value: true}, &langast.BoolLit{Value: false}}}, Line: 3}

	ix := &stmtindex.Index{
		Stmts: map[SID]langast.Stmt{0: letStmt, 1: retStmt, 2: ifStmt},
		File:  map[SID]string{0: "x.src", 1: "x.src", 2: "x.src"},
		Lines: map[string]map[int][]SID{},
		Order: []SID{0, 1, 2},
	}
	rng := rand.New(rand.NewSource(6))
	a := &Applier{}

	overlay, err := a.Apply(ix, OpList{
		New(rng, ReplaceBinaryOp, 0, 0, false),
		New(rng, ReplaceUnaryOp, 1, 0, false),
		New(rng, ReplaceBoolOp, 2, 0, false),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := overlay[0].(*langast.LetStmt).Value.(*langast.BinaryExpr).Op; got == "+" {
		t.Fatalf("ReplaceBinaryOp left the operator unchanged")
	}
	if got := overlay[1].(*langast.ReturnStmt).Value.(*langast.UnaryExpr).Op; got == "-" {
		t.Fatalf("ReplaceUnaryOp left the operator unchanged")
	}
	if got := overlay[2].(*langast.IfStmt).Cond.(*langast.BoolExpr).Op; got == "and" {
		t.Fatalf("ReplaceBoolOp left the operator unchanged")
	}
}

func findIfSid(t *testing.T, ix *stmtindex.Index) SID {
	t.Helper()
	for _, sid := range ix.AllSIDs() {
		if node, _ := ix.Node(sid); node != nil {
			if _, ok := langast.Condition(node); ok {
				return sid
			}
		}
	}
	t.Fatalf("no conditional statement found in index")
	return 0
}
