package oracle

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"mendr/internal/langast"
)

// Value is whatever a program expression evaluates to: int64, bool,
// string, nil (None), or []Value (list/tuple — the toy language doesn't
// distinguish them at the value level).
type Value any

// Case is a single named invocation of a function in the program under
// test, with the value the call is expected to return.
type Case struct {
	Name string
	Func string
	Args []Value
	Want Value
}

// Interpreter is the in-process reference oracle: a small tree-walking
// evaluator over internal/langast programs, grounded on the same
// AST-visitor shape internal/langast itself defines (no separate
// evaluator visitor type is introduced; a plain type switch suffices,
// matching spec.md §9's "structural pattern matching... or explicit
// walker" design note for traversal).
type Interpreter struct {
	funcs map[string]*langast.FunctionDef
}

// NewInterpreter indexes every top-level function definition across prog
// by name.
func NewInterpreter(prog *langast.Program) *Interpreter {
	it := &Interpreter{funcs: map[string]*langast.FunctionDef{}}
	for _, f := range prog.Files {
		for _, s := range f.Stmts {
			if fn, ok := s.(*langast.FunctionDef); ok {
				it.funcs[fn.Name] = fn
			}
		}
	}
	return it
}

// Run evaluates every case against the program and reports whether each
// call's result equals its expected value.
func (it *Interpreter) Run(ctx context.Context, cases []Case) Report {
	var outcomes []Outcome
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Name: c.Name, Passed: false, Err: err})
			continue
		}
		got, err := it.Call(c.Func, c.Args)
		if err != nil {
			outcomes = append(outcomes, Outcome{Name: c.Name, Passed: false, Err: err})
			continue
		}
		outcomes = append(outcomes, Outcome{Name: c.Name, Passed: valueEqual(got, c.Want)})
	}
	return Report{Outcomes: outcomes}
}

// Call invokes a top-level function by name with positional arguments.
func (it *Interpreter) Call(name string, args []Value) (Value, error) {
	fn, ok := it.funcs[name]
	if !ok {
		return nil, errors.Errorf("oracle: unknown function %q", name)
	}
	if len(args) != len(fn.Params) {
		return nil, errors.Errorf("oracle: %s expects %d args, got %d", name, len(fn.Params), len(args))
	}
	env := map[string]Value{}
	for i, p := range fn.Params {
		env[p] = args[i]
	}
	ret, ok, err := it.execStmts(fn.Body, env)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", name)
	}
	if !ok {
		return nil, nil
	}
	return ret, nil
}

// execStmts runs stmts in env, stopping at the first ReturnStmt
// encountered. The second return value reports whether a return was hit.
func (it *Interpreter) execStmts(stmts []langast.Stmt, env map[string]Value) (Value, bool, error) {
	for _, s := range stmts {
		ret, returned, err := it.execStmt(s, env)
		if err != nil {
			return nil, false, err
		}
		if returned {
			return ret, true, nil
		}
	}
	return nil, false, nil
}

func (it *Interpreter) execStmt(s langast.Stmt, env map[string]Value) (Value, bool, error) {
	switch st := s.(type) {
	case *langast.NoOpStmt:
		return nil, false, nil

	case *langast.SeqStmt:
		return it.execStmts(st.Stmts, env)

	case *langast.LetStmt:
		v, err := it.eval(st.Value, env)
		if err != nil {
			return nil, false, err
		}
		env[st.Name] = v
		return nil, false, nil

	case *langast.AssignStmt:
		v, err := it.eval(st.Value, env)
		if err != nil {
			return nil, false, err
		}
		env[st.Name] = v
		return nil, false, nil

	case *langast.ExprStmt:
		_, err := it.eval(st.Expr, env)
		return nil, false, err

	case *langast.ReturnStmt:
		if st.Value == nil {
			return nil, true, nil
		}
		v, err := it.eval(st.Value, env)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil

	case *langast.IfStmt:
		cond, err := it.eval(st.Cond, env)
		if err != nil {
			return nil, false, err
		}
		b, err := asBool(cond)
		if err != nil {
			return nil, false, err
		}
		if b {
			return it.execStmts(st.Then, env)
		}
		return it.execStmts(st.Else, env)

	case *langast.WhileStmt:
		for {
			cond, err := it.eval(st.Cond, env)
			if err != nil {
				return nil, false, err
			}
			b, err := asBool(cond)
			if err != nil {
				return nil, false, err
			}
			if !b {
				return nil, false, nil
			}
			ret, returned, err := it.execStmts(st.Body, env)
			if err != nil {
				return nil, false, err
			}
			if returned {
				return ret, true, nil
			}
		}

	case *langast.FunctionDef:
		// Nested function definitions are not called in this toy
		// language's reference oracle; recording them would require a
		// closure model the spec doesn't ask for.
		return nil, false, nil

	default:
		return nil, false, errors.Errorf("oracle: unhandled statement %T", s)
	}
}

func (it *Interpreter) eval(e langast.Expr, env map[string]Value) (Value, error) {
	switch ex := e.(type) {
	case *langast.Ident:
		v, ok := env[ex.Name]
		if !ok {
			return nil, errors.Errorf("oracle: undefined name %q", ex.Name)
		}
		return v, nil
	case *langast.IntLit:
		return ex.Value, nil
	case *langast.StringLit:
		return ex.Value, nil
	case *langast.BoolLit:
		return ex.Value, nil
	case *langast.NoneLit:
		return nil, nil
	case *langast.ListLit:
		return it.evalList(ex.Elems, env)
	case *langast.TupleLit:
		return it.evalList(ex.Elems, env)
	case *langast.BinaryExpr:
		return it.evalBinary(ex, env)
	case *langast.CompareExpr:
		return it.evalCompare(ex, env)
	case *langast.UnaryExpr:
		return it.evalUnary(ex, env)
	case *langast.BoolExpr:
		return it.evalBool(ex, env)
	case *langast.CallExpr:
		args := make([]Value, len(ex.Args))
		for i, a := range ex.Args {
			v, err := it.eval(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return it.Call(ex.Callee, args)
	default:
		return nil, errors.Errorf("oracle: unhandled expression %T", e)
	}
}

func (it *Interpreter) evalList(elems []langast.Expr, env map[string]Value) (Value, error) {
	out := make([]Value, len(elems))
	for i, el := range elems {
		v, err := it.eval(el, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (it *Interpreter) evalBinary(ex *langast.BinaryExpr, env map[string]Value) (Value, error) {
	l, err := it.eval(ex.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := it.eval(ex.Right, env)
	if err != nil {
		return nil, err
	}
	li, lok := l.(int64)
	ri, rok := r.(int64)
	if !lok || !rok {
		return nil, errors.Errorf("oracle: binary op %s on non-integer operands", ex.Op)
	}
	switch ex.Op {
	case "+":
		return li + ri, nil
	case "-":
		return li - ri, nil
	case "*":
		return li * ri, nil
	case "/":
		if ri == 0 {
			return nil, errors.New("oracle: division by zero")
		}
		return li / ri, nil
	case "%":
		if ri == 0 {
			return nil, errors.New("oracle: modulo by zero")
		}
		return li % ri, nil
	default:
		return nil, errors.Errorf("oracle: unknown binary op %q", ex.Op)
	}
}

func (it *Interpreter) evalCompare(ex *langast.CompareExpr, env map[string]Value) (Value, error) {
	left, err := it.eval(ex.Left, env)
	if err != nil {
		return nil, err
	}
	for i, op := range ex.Ops {
		right, err := it.eval(ex.Comparators[i], env)
		if err != nil {
			return nil, err
		}
		ok, err := compareOne(left, op, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func compareOne(l Value, op string, r Value) (bool, error) {
	li, lok := l.(int64)
	ri, rok := r.(int64)
	if lok && rok {
		switch op {
		case "==":
			return li == ri, nil
		case "!=":
			return li != ri, nil
		case "<":
			return li < ri, nil
		case "<=":
			return li <= ri, nil
		case ">":
			return li > ri, nil
		case ">=":
			return li >= ri, nil
		}
		return false, errors.Errorf("oracle: unknown compare op %q", op)
	}
	switch op {
	case "==":
		return valueEqual(l, r), nil
	case "!=":
		return !valueEqual(l, r), nil
	default:
		return false, errors.Errorf("oracle: compare op %q on non-integer operands", op)
	}
}

func (it *Interpreter) evalUnary(ex *langast.UnaryExpr, env map[string]Value) (Value, error) {
	v, err := it.eval(ex.Operand, env)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case "-":
		i, ok := v.(int64)
		if !ok {
			return nil, errors.New("oracle: unary - on non-integer operand")
		}
		return -i, nil
	case "not":
		b, err := asBool(v)
		if err != nil {
			return nil, err
		}
		return !b, nil
	default:
		return nil, errors.Errorf("oracle: unknown unary op %q", ex.Op)
	}
}

func (it *Interpreter) evalBool(ex *langast.BoolExpr, env map[string]Value) (Value, error) {
	if len(ex.Values) == 0 {
		return true, nil
	}
	result, err := asBoolExpr(it, ex.Values[0], env)
	if err != nil {
		return nil, err
	}
	for _, v := range ex.Values[1:] {
		b, err := asBoolExpr(it, v, env)
		if err != nil {
			return nil, err
		}
		switch ex.Op {
		case "and":
			result = result && b
		case "or":
			result = result || b
		default:
			return nil, errors.Errorf("oracle: unknown bool op %q", ex.Op)
		}
	}
	return result, nil
}

func asBoolExpr(it *Interpreter, e langast.Expr, env map[string]Value) (bool, error) {
	v, err := it.eval(e, env)
	if err != nil {
		return false, err
	}
	return asBool(v)
}

func asBool(v Value) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("oracle: expected boolean, got %T", v)
	}
	return b, nil
}

func valueEqual(a, b Value) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
