package langast

// nameCollector gathers every Ident name reachable from an expression
// tree, used both by Rename (spec.md: "the union of all names appearing
// in the program") and by internal/template's scope/name-set machinery.
type nameCollector struct{ seen map[string]bool }

func (c *nameCollector) add(name string) {
	if c.seen == nil {
		c.seen = map[string]bool{}
	}
	c.seen[name] = true
}

func (c *nameCollector) VisitIdent(e *Ident) any        { c.add(e.Name); return nil }
func (c *nameCollector) VisitIntLit(e *IntLit) any      { return nil }
func (c *nameCollector) VisitStringLit(e *StringLit) any { return nil }
func (c *nameCollector) VisitBoolLit(e *BoolLit) any    { return nil }
func (c *nameCollector) VisitNoneLit(e *NoneLit) any    { return nil }
func (c *nameCollector) VisitListLit(e *ListLit) any {
	for _, el := range e.Elems {
		el.Accept(c)
	}
	return nil
}
func (c *nameCollector) VisitTupleLit(e *TupleLit) any {
	for _, el := range e.Elems {
		el.Accept(c)
	}
	return nil
}
func (c *nameCollector) VisitBinaryExpr(e *BinaryExpr) any {
	e.Left.Accept(c)
	e.Right.Accept(c)
	return nil
}
func (c *nameCollector) VisitCompareExpr(e *CompareExpr) any {
	e.Left.Accept(c)
	for _, cp := range e.Comparators {
		cp.Accept(c)
	}
	return nil
}
func (c *nameCollector) VisitUnaryExpr(e *UnaryExpr) any { e.Operand.Accept(c); return nil }
func (c *nameCollector) VisitBoolExpr(e *BoolExpr) any {
	for _, v := range e.Values {
		v.Accept(c)
	}
	return nil
}
func (c *nameCollector) VisitCallExpr(e *CallExpr) any {
	for _, a := range e.Args {
		a.Accept(c)
	}
	return nil
}

// exprsOf returns every top-level expression directly owned by a
// statement (not descending into nested statement bodies: those belong
// to other sids).
func exprsOf(s Stmt) []Expr {
	switch st := s.(type) {
	case *ExprStmt:
		return []Expr{st.Expr}
	case *LetStmt:
		return []Expr{st.Value}
	case *AssignStmt:
		return []Expr{st.Value}
	case *ReturnStmt:
		if st.Value == nil {
			return nil
		}
		return []Expr{st.Value}
	case *IfStmt:
		return []Expr{st.Cond}
	case *WhileStmt:
		return []Expr{st.Cond}
	default:
		return nil
	}
}

// StmtNames returns the distinct variable names referenced by a single
// statement's own expressions (does not recurse into child blocks).
func StmtNames(s Stmt) []string {
	c := &nameCollector{}
	for _, e := range exprsOf(s) {
		e.Accept(c)
	}
	return mapKeys(c.seen)
}

// ProgramNames returns every distinct variable name referenced anywhere
// in the program: Rename's selection pool (spec.md §3).
func ProgramNames(files []*File) []string {
	c := &nameCollector{}
	var walk func(stmts []Stmt)
	walk = func(stmts []Stmt) {
		for _, s := range stmts {
			for _, e := range exprsOf(s) {
				e.Accept(c)
			}
			switch st := s.(type) {
			case *IfStmt:
				walk(st.Then)
				walk(st.Else)
			case *WhileStmt:
				walk(st.Body)
			case *FunctionDef:
				for _, p := range st.Params {
					c.add(p)
				}
				walk(st.Body)
			case *SeqStmt:
				walk(st.Stmts)
			}
		}
	}
	for _, f := range files {
		walk(f.Stmts)
	}
	return mapKeys(c.seen)
}

func mapKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// renamer rewrites every Ident in an expression tree to a single fixed
// name.
type renamer struct{ to string }

func (r *renamer) rewrite(e Expr) Expr {
	switch ex := e.(type) {
	case *Ident:
		return &Ident{Name: r.to, Line: ex.Line}
	case *IntLit, *StringLit, *BoolLit, *NoneLit:
		return e
	case *ListLit:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = r.rewrite(el)
		}
		return &ListLit{Elems: elems, Line: ex.Line}
	case *TupleLit:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = r.rewrite(el)
		}
		return &TupleLit{Elems: elems, Line: ex.Line}
	case *BinaryExpr:
		return &BinaryExpr{Op: ex.Op, Left: r.rewrite(ex.Left), Right: r.rewrite(ex.Right), Line: ex.Line}
	case *CompareExpr:
		comps := make([]Expr, len(ex.Comparators))
		for i, cp := range ex.Comparators {
			comps[i] = r.rewrite(cp)
		}
		return &CompareExpr{Left: r.rewrite(ex.Left), Ops: append([]string(nil), ex.Ops...), Comparators: comps, Line: ex.Line}
	case *UnaryExpr:
		return &UnaryExpr{Op: ex.Op, Operand: r.rewrite(ex.Operand), Line: ex.Line}
	case *BoolExpr:
		values := make([]Expr, len(ex.Values))
		for i, v := range ex.Values {
			values[i] = r.rewrite(v)
		}
		return &BoolExpr{Op: ex.Op, Values: values, Line: ex.Line}
	case *CallExpr:
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = r.rewrite(a)
		}
		return &CallExpr{Callee: ex.Callee, Args: args, Line: ex.Line}
	default:
		return e
	}
}

// RenameAll returns a copy of s with every variable reference inside its
// own expressions replaced by a single name (spec.md's Rename operator,
// implemented literally per the Open Question resolution in DESIGN.md).
func RenameAll(s Stmt, to string) Stmt {
	r := &renamer{to: to}
	switch st := s.(type) {
	case *ExprStmt:
		return &ExprStmt{Expr: r.rewrite(st.Expr), Line: st.Line}
	case *LetStmt:
		return &LetStmt{Name: st.Name, Value: r.rewrite(st.Value), Line: st.Line}
	case *AssignStmt:
		return &AssignStmt{Name: st.Name, Value: r.rewrite(st.Value), Line: st.Line}
	case *ReturnStmt:
		if st.Value == nil {
			return s
		}
		return &ReturnStmt{Value: r.rewrite(st.Value), Line: st.Line}
	case *IfStmt:
		return &IfStmt{Cond: r.rewrite(st.Cond), Then: st.Then, Else: st.Else, Line: st.Line}
	case *WhileStmt:
		return &WhileStmt{Cond: r.rewrite(st.Cond), Body: st.Body, Line: st.Line}
	default:
		return s
	}
}

// substituter rewrites each Ident per a fixed name->name mapping, leaving
// any name with no entry untouched — the template engine's (C10)
// per-placeholder instantiation, as opposed to renamer's single fixed
// target name.
type substituter struct{ mapping map[string]string }

func (s *substituter) rewrite(e Expr) Expr {
	switch ex := e.(type) {
	case *Ident:
		if to, ok := s.mapping[ex.Name]; ok {
			return &Ident{Name: to, Line: ex.Line}
		}
		return e
	case *IntLit, *StringLit, *BoolLit, *NoneLit:
		return e
	case *ListLit:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = s.rewrite(el)
		}
		return &ListLit{Elems: elems, Line: ex.Line}
	case *TupleLit:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = s.rewrite(el)
		}
		return &TupleLit{Elems: elems, Line: ex.Line}
	case *BinaryExpr:
		return &BinaryExpr{Op: ex.Op, Left: s.rewrite(ex.Left), Right: s.rewrite(ex.Right), Line: ex.Line}
	case *CompareExpr:
		comps := make([]Expr, len(ex.Comparators))
		for i, cp := range ex.Comparators {
			comps[i] = s.rewrite(cp)
		}
		return &CompareExpr{Left: s.rewrite(ex.Left), Ops: append([]string(nil), ex.Ops...), Comparators: comps, Line: ex.Line}
	case *UnaryExpr:
		return &UnaryExpr{Op: ex.Op, Operand: s.rewrite(ex.Operand), Line: ex.Line}
	case *BoolExpr:
		values := make([]Expr, len(ex.Values))
		for i, v := range ex.Values {
			values[i] = s.rewrite(v)
		}
		return &BoolExpr{Op: ex.Op, Values: values, Line: ex.Line}
	case *CallExpr:
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = s.rewrite(a)
		}
		return &CallExpr{Callee: ex.Callee, Args: args, Line: ex.Line}
	default:
		return e
	}
}

// SubstituteNames returns a copy of s with every variable reference
// inside its own expressions rewritten per mapping (names absent from
// mapping pass through unchanged) — the template engine's (C10)
// instantiation step, substituting a template's placeholder names for
// concrete names drawn from the insertion point's visible scope.
func SubstituteNames(s Stmt, mapping map[string]string) Stmt {
	r := &substituter{mapping: mapping}
	switch st := s.(type) {
	case *ExprStmt:
		return &ExprStmt{Expr: r.rewrite(st.Expr), Line: st.Line}
	case *LetStmt:
		name := st.Name
		if to, ok := mapping[name]; ok {
			name = to
		}
		return &LetStmt{Name: name, Value: r.rewrite(st.Value), Line: st.Line}
	case *AssignStmt:
		name := st.Name
		if to, ok := mapping[name]; ok {
			name = to
		}
		return &AssignStmt{Name: name, Value: r.rewrite(st.Value), Line: st.Line}
	case *ReturnStmt:
		if st.Value == nil {
			return s
		}
		return &ReturnStmt{Value: r.rewrite(st.Value), Line: st.Line}
	case *IfStmt:
		return &IfStmt{Cond: r.rewrite(st.Cond), Then: st.Then, Else: st.Else, Line: st.Line}
	case *WhileStmt:
		return &WhileStmt{Cond: r.rewrite(st.Cond), Body: st.Body, Line: st.Line}
	default:
		return s
	}
}

// Condition returns the boolean test of a conditional statement (IfStmt
// or WhileStmt) and true, or (nil, false) if s is not a conditional.
func Condition(s Stmt) (Expr, bool) {
	switch st := s.(type) {
	case *IfStmt:
		return st.Cond, true
	case *WhileStmt:
		return st.Cond, true
	}
	return nil, false
}

// WithCondition returns a copy of a conditional statement with its test
// replaced.
func WithCondition(s Stmt, cond Expr) Stmt {
	switch st := s.(type) {
	case *IfStmt:
		return &IfStmt{Cond: cond, Then: st.Then, Else: st.Else, Line: st.Line}
	case *WhileStmt:
		return &WhileStmt{Cond: cond, Body: st.Body, Line: st.Line}
	}
	return s
}

// transformer finds the first expression matching a predicate within a
// tree and rewrites it in place, sharing every untouched subtree.
type transformer struct {
	match   func(Expr) bool
	rewrite func(Expr) Expr
	done    bool
}

func (t *transformer) visit(e Expr) Expr {
	if t.done {
		return e
	}
	if t.match(e) {
		t.done = true
		return t.rewrite(e)
	}
	switch ex := e.(type) {
	case *ListLit:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = t.visit(el)
		}
		return &ListLit{Elems: elems, Line: ex.Line}
	case *TupleLit:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = t.visit(el)
		}
		return &TupleLit{Elems: elems, Line: ex.Line}
	case *BinaryExpr:
		left := t.visit(ex.Left)
		right := ex.Right
		if !t.done {
			right = t.visit(ex.Right)
		}
		return &BinaryExpr{Op: ex.Op, Left: left, Right: right, Line: ex.Line}
	case *CompareExpr:
		left := t.visit(ex.Left)
		comps := make([]Expr, len(ex.Comparators))
		for i, cp := range ex.Comparators {
			if t.done {
				comps[i] = cp
				continue
			}
			comps[i] = t.visit(cp)
		}
		return &CompareExpr{Left: left, Ops: ex.Ops, Comparators: comps, Line: ex.Line}
	case *UnaryExpr:
		return &UnaryExpr{Op: ex.Op, Operand: t.visit(ex.Operand), Line: ex.Line}
	case *BoolExpr:
		values := make([]Expr, len(ex.Values))
		for i, v := range ex.Values {
			if t.done {
				values[i] = v
				continue
			}
			values[i] = t.visit(v)
		}
		return &BoolExpr{Op: ex.Op, Values: values, Line: ex.Line}
	case *CallExpr:
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			if t.done {
				args[i] = a
				continue
			}
			args[i] = t.visit(a)
		}
		return &CallExpr{Callee: ex.Callee, Args: args, Line: ex.Line}
	default:
		return e
	}
}

// RewriteFirstExpr finds the first expression within s's own expression
// trees (not descending into child statement bodies) satisfying match,
// and replaces it using rewrite. It returns the possibly-new statement
// and whether a match was found.
func RewriteFirstExpr(s Stmt, match func(Expr) bool, rewrite func(Expr) Expr) (Stmt, bool) {
	t := &transformer{match: match, rewrite: rewrite}
	switch st := s.(type) {
	case *ExprStmt:
		newExpr := t.visit(st.Expr)
		if !t.done {
			return s, false
		}
		return &ExprStmt{Expr: newExpr, Line: st.Line}, true
	case *LetStmt:
		newExpr := t.visit(st.Value)
		if !t.done {
			return s, false
		}
		return &LetStmt{Name: st.Name, Value: newExpr, Line: st.Line}, true
	case *AssignStmt:
		newExpr := t.visit(st.Value)
		if !t.done {
			return s, false
		}
		return &AssignStmt{Name: st.Name, Value: newExpr, Line: st.Line}, true
	case *ReturnStmt:
		if st.Value == nil {
			return s, false
		}
		newExpr := t.visit(st.Value)
		if !t.done {
			return s, false
		}
		return &ReturnStmt{Value: newExpr, Line: st.Line}, true
	case *IfStmt:
		newExpr := t.visit(st.Cond)
		if !t.done {
			return s, false
		}
		return &IfStmt{Cond: newExpr, Then: st.Then, Else: st.Else, Line: st.Line}, true
	case *WhileStmt:
		newExpr := t.visit(st.Cond)
		if !t.done {
			return s, false
		}
		return &WhileStmt{Cond: newExpr, Body: st.Body, Line: st.Line}, true
	default:
		return s, false
	}
}
