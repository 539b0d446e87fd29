// Package mutate implements C3: the closed mutation operator algebra and
// the applier that turns a statement table plus an ordered operator list
// into an overlay of rewritten AST nodes (spec.md §3/§4.3).
package mutate

import (
	"fmt"
	"math/rand"

	"mendr/internal/stmtindex"
)

// SID is an alias of stmtindex.SID so callers don't need two imports for
// one concept.
type SID = stmtindex.SID

// Kind is one of the closed set of mutation operator kinds.
type Kind string

const (
	Delete              Kind = "Delete"
	InsertBefore        Kind = "InsertBefore"
	InsertAfter         Kind = "InsertAfter"
	InsertBoth          Kind = "InsertBoth"
	Replace             Kind = "Replace"
	MoveBefore          Kind = "MoveBefore"
	MoveAfter           Kind = "MoveAfter"
	MoveBoth            Kind = "MoveBoth"
	Swap                Kind = "Swap"
	Copy                Kind = "Copy"
	ReplaceBinaryOp     Kind = "ReplaceBinaryOp"
	ReplaceCompareOp    Kind = "ReplaceCompareOp"
	ReplaceUnaryOp      Kind = "ReplaceUnaryOp"
	ReplaceBoolOp       Kind = "ReplaceBoolOp"
	ModifyIfToTrue      Kind = "ModifyIfToTrue"
	ModifyIfToFalse     Kind = "ModifyIfToFalse"
	InsertReturn0       Kind = "InsertReturn0"
	InsertReturnNone    Kind = "InsertReturnNone"
	InsertReturnString  Kind = "InsertReturnString"
	InsertReturnList    Kind = "InsertReturnList"
	InsertReturnTuple   Kind = "InsertReturnTuple"
	Rename              Kind = "Rename"
	ReplaceCardumen     Kind = "ReplaceCardumen"
)

// AllKinds lists the closed operator set in a stable order, used by
// exhaustive search (C7) and the mutation operator-weight configuration.
var AllKinds = []Kind{
	Delete, InsertBefore, InsertAfter, InsertBoth, Replace,
	MoveBefore, MoveAfter, MoveBoth, Swap, Copy,
	ReplaceBinaryOp, ReplaceCompareOp, ReplaceUnaryOp, ReplaceBoolOp,
	ModifyIfToTrue, ModifyIfToFalse,
	InsertReturn0, InsertReturnNone, InsertReturnString, InsertReturnList, InsertReturnTuple,
	Rename, ReplaceCardumen,
}

// NeedsSelection reports whether constructing an operator of this kind
// requires drawing a selection sid from an offered pool (spec.md §3
// table).
func (k Kind) NeedsSelection() bool {
	switch k {
	case InsertBefore, InsertAfter, InsertBoth, Replace, MoveBefore, MoveAfter, MoveBoth, Swap:
		return true
	default:
		return false
	}
}

// Op is a single mutation operator instance. It is a plain comparable
// struct: two operators constructed from the same inputs with the same
// random draw compare equal via ==, which is what guarantees
// deterministic memoisation keys (spec.md §3).
//
// SubChoice is the single random integer drawn once at construction time
// for whatever internal sub-choice this kind needs (before/after flag,
// operator-alphabet alternative, Rename's target-name index). Every
// further derivation from it is a deterministic function of SubChoice and
// run-time state, never a fresh random draw — this is what lets a
// "differs from the current operator" rule (ReplaceCompareOp) coexist
// with construction-time-only randomness.
type Op struct {
	Kind         Kind
	Target       SID
	Selection    SID
	HasSelection bool
	SubChoice    int
	// TemplateID/InstanceIdx are only meaningful for ReplaceCardumen: they
	// pin down which extracted template and which enumerated instance a
	// *template.Catalog resolves at apply time.
	TemplateID  int
	InstanceIdx int
}

// New constructs an operator, drawing its single random sub-choice from
// rng. Selection must be supplied (with hasSelection=true) for kinds
// where Kind.NeedsSelection() is true.
func New(rng *rand.Rand, kind Kind, target SID, selection SID, hasSelection bool) Op {
	return Op{
		Kind:         kind,
		Target:       target,
		Selection:    selection,
		HasSelection: hasSelection,
		SubChoice:    rng.Int(),
	}
}

// NewCardumen constructs a ReplaceCardumen operator targeting a specific
// extracted template and enumerated instance.
func NewCardumen(rng *rand.Rand, target SID, templateID, instanceIdx int) Op {
	return Op{
		Kind:        ReplaceCardumen,
		Target:      target,
		SubChoice:   rng.Int(),
		TemplateID:  templateID,
		InstanceIdx: instanceIdx,
	}
}

// Encode returns a canonical, total, injective string encoding of the
// operator, used as the basis of the memoisation key (spec.md §6).
func (o Op) Encode() string {
	return fmt.Sprintf("%s|%d|%d|%t|%d|%d|%d", o.Kind, o.Target, o.Selection, o.HasSelection, o.SubChoice, o.TemplateID, o.InstanceIdx)
}

// OpList is an ordered operator sequence: a candidate's op list.
type OpList []Op

// Encode concatenates each operator's canonical encoding in order,
// producing a total, injective, stable string key for the whole list.
func (ol OpList) Encode() string {
	out := make([]byte, 0, 24*len(ol))
	for _, o := range ol {
		out = append(out, o.Encode()...)
		out = append(out, ';')
	}
	return string(out)
}

// Equal reports element-wise, order-sensitive equality.
func (ol OpList) Equal(other OpList) bool {
	if len(ol) != len(other) {
		return false
	}
	for i := range ol {
		if ol[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of the op list (Op is a value type, so
// this is a full copy).
func (ol OpList) Clone() OpList {
	out := make(OpList, len(ol))
	copy(out, ol)
	return out
}
