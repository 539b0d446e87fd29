package langast

import (
	"strconv"
	"strings"
)

// Unparse renders a file's statements back to source text. It is the
// `unparse(AST) -> bytes` half of the injected Parser/Unparser pair from
// spec.md §6.
func Unparse(stmts []Stmt) string {
	p := &printer{}
	p.stmts(stmts, 0)
	return p.sb.String()
}

type printer struct{ sb strings.Builder }

func (p *printer) indent(depth int) { p.sb.WriteString(strings.Repeat("    ", depth)) }

func (p *printer) stmts(stmts []Stmt, depth int) {
	for _, s := range stmts {
		p.stmt(s, depth)
	}
}

func (p *printer) stmt(s Stmt, depth int) {
	switch st := s.(type) {
	case *SeqStmt:
		p.stmts(st.Stmts, depth)
	case *NoOpStmt:
		p.indent(depth)
		p.sb.WriteString("pass\n")
	case *LetStmt:
		p.indent(depth)
		p.sb.WriteString("let ")
		p.sb.WriteString(st.Name)
		p.sb.WriteString(" = ")
		p.sb.WriteString(p.expr(st.Value))
		p.sb.WriteString("\n")
	case *AssignStmt:
		p.indent(depth)
		p.sb.WriteString(st.Name)
		p.sb.WriteString(" = ")
		p.sb.WriteString(p.expr(st.Value))
		p.sb.WriteString("\n")
	case *ExprStmt:
		p.indent(depth)
		p.sb.WriteString(p.expr(st.Expr))
		p.sb.WriteString("\n")
	case *ReturnStmt:
		p.indent(depth)
		p.sb.WriteString("return")
		if st.Value != nil {
			p.sb.WriteString(" ")
			p.sb.WriteString(p.expr(st.Value))
		}
		p.sb.WriteString("\n")
	case *IfStmt:
		p.indent(depth)
		p.sb.WriteString("if (")
		p.sb.WriteString(p.expr(st.Cond))
		p.sb.WriteString(") {\n")
		p.stmts(st.Then, depth+1)
		p.indent(depth)
		p.sb.WriteString("}")
		if st.Else != nil {
			p.sb.WriteString(" else {\n")
			p.stmts(st.Else, depth+1)
			p.indent(depth)
			p.sb.WriteString("}")
		}
		p.sb.WriteString("\n")
	case *WhileStmt:
		p.indent(depth)
		p.sb.WriteString("while (")
		p.sb.WriteString(p.expr(st.Cond))
		p.sb.WriteString(") {\n")
		p.stmts(st.Body, depth+1)
		p.indent(depth)
		p.sb.WriteString("}\n")
	case *FunctionDef:
		p.indent(depth)
		p.sb.WriteString("func ")
		p.sb.WriteString(st.Name)
		p.sb.WriteString("(")
		p.sb.WriteString(strings.Join(st.Params, ", "))
		p.sb.WriteString(") {\n")
		p.stmts(st.Body, depth+1)
		p.indent(depth)
		p.sb.WriteString("}\n")
	}
}

func (p *printer) expr(e Expr) string {
	switch ex := e.(type) {
	case *Ident:
		return ex.Name
	case *IntLit:
		return strconv.FormatInt(ex.Value, 10)
	case *StringLit:
		return strconv.Quote(ex.Value)
	case *BoolLit:
		if ex.Value {
			return "true"
		}
		return "false"
	case *NoneLit:
		return "none"
	case *ListLit:
		parts := make([]string, len(ex.Elems))
		for i, el := range ex.Elems {
			parts[i] = p.expr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *TupleLit:
		parts := make([]string, len(ex.Elems))
		for i, el := range ex.Elems {
			parts[i] = p.expr(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *BinaryExpr:
		return "(" + p.expr(ex.Left) + " " + ex.Op + " " + p.expr(ex.Right) + ")"
	case *CompareExpr:
		var sb strings.Builder
		sb.WriteString(p.expr(ex.Left))
		for i, op := range ex.Ops {
			sb.WriteString(" ")
			sb.WriteString(op)
			sb.WriteString(" ")
			sb.WriteString(p.expr(ex.Comparators[i]))
		}
		return "(" + sb.String() + ")"
	case *UnaryExpr:
		if ex.Op == "not" {
			return "(not " + p.expr(ex.Operand) + ")"
		}
		return "(" + ex.Op + p.expr(ex.Operand) + ")"
	case *BoolExpr:
		parts := make([]string, len(ex.Values))
		for i, v := range ex.Values {
			parts[i] = p.expr(v)
		}
		return "(" + strings.Join(parts, " "+ex.Op+" ") + ")"
	case *CallExpr:
		parts := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			parts[i] = p.expr(a)
		}
		return ex.Callee + "(" + strings.Join(parts, ", ") + ")"
	default:
		return ""
	}
}
