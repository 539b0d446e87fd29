package mutate

import (
	"mendr/internal/langast"
	"mendr/internal/repairerr"
	"mendr/internal/stmtindex"
)

// CardumenResolver resolves a ReplaceCardumen operator's (TemplateID,
// InstanceIdx) pair to the concrete statement internal/template built for
// that instance (spec.md §4.9). Kept as an interface here so
// internal/mutate never imports internal/template: the dependency runs
// the other way, template depends on mutate's Op type.
type CardumenResolver interface {
	ResolveInstance(templateID, instanceIdx int) (langast.Stmt, error)
}

// Overlay maps the sids an operator list actually touched to their
// rewritten statement. Sids absent from the overlay are untouched: an
// unparser must read the original table for them (spec.md §8 invariant
// 1's "other files byte-identical" clause follows directly from this:
// a file containing no overlaid sid renders to the same text whatever
// the op list).
type Overlay map[SID]langast.Stmt

// Applier holds the inputs an Apply call needs beyond the statement index
// and op list themselves: the name pool Rename draws from, and the
// resolver ReplaceCardumen defers to.
type Applier struct {
	Names    []string
	Resolver CardumenResolver
}

// Apply runs ops, in order, against ix, building up an Overlay. Operators
// are applied sequentially against the evolving overlay (not against a
// single snapshot of ix): each operator's reads see every earlier
// operator's writes. This is what makes Swap self-inverse under
// [Swap(t,s), Swap(t,s)] and Delete idempotent under [Delete(t),
// Delete(t)] (spec.md §8 invariants 5 and 6) — both properties fall out
// of plain sequential overlay semantics, not special-cased logic.
func (a *Applier) Apply(ix *stmtindex.Index, ops OpList) (Overlay, error) {
	overlay := Overlay{}
	for _, op := range ops {
		if err := a.applyOne(ix, overlay, op); err != nil {
			return nil, repairerr.Wrap(repairerr.InternalInvariant, err, "applying mutation operator").WithSID(int(op.Target))
		}
	}
	return overlay, nil
}

func current(ix *stmtindex.Index, overlay Overlay, sid SID) (langast.Stmt, bool) {
	if s, ok := overlay[sid]; ok {
		return s, true
	}
	return ix.Node(sid)
}

func (a *Applier) applyOne(ix *stmtindex.Index, overlay Overlay, op Op) error {
	target, ok := current(ix, overlay, op.Target)
	if !ok {
		return repairerr.New(repairerr.InternalInvariant, "unknown target sid")
	}
	line := target.StmtLine()

	var selection langast.Stmt
	if op.HasSelection {
		sel, ok := current(ix, overlay, op.Selection)
		if !ok {
			return repairerr.New(repairerr.InternalInvariant, "unknown selection sid")
		}
		selection = sel
	}

	switch op.Kind {
	case Delete:
		overlay[op.Target] = &langast.NoOpStmt{Line: line}

	case InsertBefore:
		overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{selection, target}, Line: line}

	case InsertAfter:
		overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{target, selection}, Line: line}

	case InsertBoth:
		// Chooses before/after at construction time and delegates (spec.md
		// §4.3); it is not "insert on both sides".
		if op.SubChoice%2 == 0 {
			overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{selection, target}, Line: line}
		} else {
			overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{target, selection}, Line: line}
		}

	case Replace:
		overlay[op.Target] = selection

	case MoveBefore:
		overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{selection, target}, Line: line}
		if op.Selection != op.Target {
			overlay[op.Selection] = &langast.NoOpStmt{Line: selection.StmtLine()}
		}

	case MoveAfter:
		overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{target, selection}, Line: line}
		if op.Selection != op.Target {
			overlay[op.Selection] = &langast.NoOpStmt{Line: selection.StmtLine()}
		}

	case MoveBoth:
		// Direction is pinned at construction time via SubChoice parity
		// (DESIGN.md Open Question: MoveBoth is not "insert on both
		// sides", it is a MoveBefore/MoveAfter chosen once, deterministically,
		// when the operator was built).
		if op.SubChoice%2 == 0 {
			overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{selection, target}, Line: line}
		} else {
			overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{target, selection}, Line: line}
		}
		if op.Selection != op.Target {
			overlay[op.Selection] = &langast.NoOpStmt{Line: selection.StmtLine()}
		}

	case Swap:
		overlay[op.Target] = selection
		overlay[op.Selection] = target

	case Copy:
		// Duplicates target in place; Copy needs no selection (spec.md
		// §3's operator table).
		overlay[op.Target] = &langast.SeqStmt{Stmts: []langast.Stmt{target, target}, Line: line}

	// Replace*Op and ModifyIfTo* leave a target that has no matching
	// expression (or is not a conditional) unchanged.
	case ReplaceBinaryOp:
		rewritten, ok := langast.RewriteFirstExpr(target, isBinaryExpr, replaceBinaryOp(op.SubChoice))
		if !ok {
			return nil
		}
		overlay[op.Target] = rewritten

	case ReplaceCompareOp:
		rewritten, ok := langast.RewriteFirstExpr(target, isCompareExpr, replaceCompareOp(op.SubChoice))
		if !ok {
			return nil
		}
		overlay[op.Target] = rewritten

	case ReplaceUnaryOp:
		rewritten, ok := langast.RewriteFirstExpr(target, isUnaryExpr, replaceUnaryOp(op.SubChoice))
		if !ok {
			return nil
		}
		overlay[op.Target] = rewritten

	case ReplaceBoolOp:
		rewritten, ok := langast.RewriteFirstExpr(target, isBoolExpr, replaceBoolOp(op.SubChoice))
		if !ok {
			return nil
		}
		overlay[op.Target] = rewritten

	case ModifyIfToTrue:
		if _, ok := langast.Condition(target); !ok {
			return nil
		}
		overlay[op.Target] = langast.WithCondition(target, &langast.BoolLit{Value: true, Line: line})

	case ModifyIfToFalse:
		if _, ok := langast.Condition(target); !ok {
			return nil
		}
		overlay[op.Target] = langast.WithCondition(target, &langast.BoolLit{Value: false, Line: line})

	case InsertReturn0:
		overlay[op.Target] = insertReturn(target, line, op.SubChoice, &langast.IntLit{Value: 0, Line: line})

	case InsertReturnNone:
		overlay[op.Target] = insertReturn(target, line, op.SubChoice, &langast.NoneLit{Line: line})

	case InsertReturnString:
		overlay[op.Target] = insertReturn(target, line, op.SubChoice, &langast.StringLit{Value: "", Line: line})

	case InsertReturnList:
		overlay[op.Target] = insertReturn(target, line, op.SubChoice, &langast.ListLit{Line: line})

	case InsertReturnTuple:
		overlay[op.Target] = insertReturn(target, line, op.SubChoice, &langast.TupleLit{Line: line})

	case Rename:
		if len(a.Names) == 0 {
			return repairerr.New(repairerr.InternalInvariant, "Rename: empty name pool")
		}
		to := a.Names[mod(op.SubChoice, len(a.Names))]
		overlay[op.Target] = langast.RenameAll(target, to)

	case ReplaceCardumen:
		if a.Resolver == nil {
			return repairerr.New(repairerr.InternalInvariant, "ReplaceCardumen: no resolver configured")
		}
		instance, err := a.Resolver.ResolveInstance(op.TemplateID, op.InstanceIdx)
		if err != nil {
			return err
		}
		overlay[op.Target] = instance

	default:
		return repairerr.New(repairerr.InternalInvariant, "unknown operator kind "+string(op.Kind))
	}
	return nil
}

// insertReturn wraps target in a sequence with a synthetic return
// statement before or after, the side chosen by SubChoice parity so the
// four InsertReturn* kinds exercise both insertion points across a
// population rather than always picking one.
func insertReturn(target langast.Stmt, line, subChoice int, value langast.Expr) langast.Stmt {
	ret := &langast.ReturnStmt{Value: value, Line: line}
	if subChoice%2 == 0 {
		return &langast.SeqStmt{Stmts: []langast.Stmt{ret, target}, Line: line}
	}
	return &langast.SeqStmt{Stmts: []langast.Stmt{target, ret}, Line: line}
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func isBinaryExpr(e langast.Expr) bool  { _, ok := e.(*langast.BinaryExpr); return ok }
func isCompareExpr(e langast.Expr) bool { _, ok := e.(*langast.CompareExpr); return ok }
func isUnaryExpr(e langast.Expr) bool   { _, ok := e.(*langast.UnaryExpr); return ok }
func isBoolExpr(e langast.Expr) bool    { _, ok := e.(*langast.BoolExpr); return ok }

// replaceBinaryOp returns a rewrite function that picks the alternative
// at subChoice's position in the alphabet, skipping over the expression's
// own current operator (spec.md: "an alternative that differs from the
// statement's current value"). The current operator is only observable
// at apply time, through the matched expression itself, hence this
// indirection instead of a fixed index chosen at construction.
func replaceBinaryOp(subChoice int) func(langast.Expr) langast.Expr {
	return func(e langast.Expr) langast.Expr {
		b := e.(*langast.BinaryExpr)
		return &langast.BinaryExpr{Op: pickDifferent(langast.BinaryOpAlphabet, b.Op, subChoice), Left: b.Left, Right: b.Right, Line: b.Line}
	}
}

// replaceCompareOp rewrites every element of a (possibly chained)
// comparison so the resulting sequence differs element-wise from the
// original (spec.md §4.3), deriving each element's replacement from
// subChoice offset by its position so the whole chain stays a pure
// function of the single construction-time draw.
func replaceCompareOp(subChoice int) func(langast.Expr) langast.Expr {
	return func(e langast.Expr) langast.Expr {
		c := e.(*langast.CompareExpr)
		ops := make([]string, len(c.Ops))
		for i, op := range c.Ops {
			ops[i] = pickDifferent(langast.CompareOpAlphabet, op, subChoice+i)
		}
		return &langast.CompareExpr{Left: c.Left, Ops: ops, Comparators: c.Comparators, Line: c.Line}
	}
}

func replaceUnaryOp(subChoice int) func(langast.Expr) langast.Expr {
	return func(e langast.Expr) langast.Expr {
		u := e.(*langast.UnaryExpr)
		return &langast.UnaryExpr{Op: pickDifferent(langast.UnaryOpAlphabet, u.Op, subChoice), Operand: u.Operand, Line: u.Line}
	}
}

func replaceBoolOp(subChoice int) func(langast.Expr) langast.Expr {
	return func(e langast.Expr) langast.Expr {
		b := e.(*langast.BoolExpr)
		return &langast.BoolExpr{Op: pickDifferent(langast.BoolOpAlphabet, b.Op, subChoice), Values: b.Values, Line: b.Line}
	}
}

// pickDifferent deterministically selects an alphabet entry other than
// curOp, indexed by subChoice over the alphabet with curOp removed.
func pickDifferent(alphabet []string, curOp string, subChoice int) string {
	alternatives := make([]string, 0, len(alphabet))
	for _, op := range alphabet {
		if op != curOp {
			alternatives = append(alternatives, op)
		}
	}
	if len(alternatives) == 0 {
		return curOp
	}
	return alternatives[mod(subChoice, len(alternatives))]
}
