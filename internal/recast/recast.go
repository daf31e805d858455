// Package recast renders syntax trees back into formatted KCL source.
package recast

import (
	"strings"

	"github.com/DeusData/kcl-ast/internal/ast"
)

// maxInlineWidth is the widest array or object rendered on one line.
const maxInlineWidth = 80

// Program formats a whole document.
func Program(p *ast.Program, opts FormatOptions) string {
	out := program(p, opts, 0)
	out = strings.TrimRight(out, "\n")
	if opts.InsertFinalNewline && out != "" {
		out += "\n"
	}
	return out
}

// BodyItem formats one statement at nesting level 0 without a trailing newline.
func BodyItem(item ast.BodyItem, opts FormatOptions) string {
	return bodyItem(item, opts, 0)
}

// Expr formats an expression at nesting level 0.
func Expr(e ast.Expr, opts FormatOptions) string {
	return expr(e, opts, 0, false)
}

// Renderer adapts BodyItem to ast.RenderFunc.
func Renderer(opts FormatOptions) ast.RenderFunc {
	return func(item ast.BodyItem) string { return BodyItem(item, opts) }
}

func program(p *ast.Program, opts FormatOptions, level int) string {
	if p == nil {
		return ""
	}
	indent := opts.Indentation(level)
	var b strings.Builder
	atLineStart := gap(&b, p.NonCodeMeta.Start, indent, true, true)
	for i, item := range p.Body {
		if i > 0 {
			atLineStart = gap(&b, p.NonCodeMeta.NonCodeNodes[i], indent, false, false)
		}
		if !atLineStart {
			b.WriteString("\n")
		}
		b.WriteString(indent)
		b.WriteString(bodyItem(item, opts, level))
		atLineStart = false
	}
	if trailing := p.NonCodeMeta.NonCodeNodes[len(p.Body)]; len(trailing) > 0 {
		atLineStart = gap(&b, trailing, indent, false, len(p.Body) == 0)
	}
	if !atLineStart {
		b.WriteString("\n")
	}
	return b.String()
}

// gap writes the non-code nodes found between two statements. The previous
// statement has been written without its newline unless atLineStart is set.
// It reports whether the builder ends at the start of a line.
func gap(b *strings.Builder, nodes []*ast.NonCodeNode, indent string, atLineStart, fileStart bool) bool {
	for _, n := range nodes {
		switch n.Value.Kind {
		case ast.NonCodeShebang:
			b.WriteString(n.Format(indent))
			atLineStart = true
		case ast.NonCodeInlineComment:
			b.WriteString(n.Format(indent))
			atLineStart = n.Value.Style == ast.StyleLine
		case ast.NonCodeBlockComment:
			if !atLineStart {
				b.WriteString("\n")
			}
			b.WriteString(n.Format(indent))
			if n.Value.Style == ast.StyleBlock {
				b.WriteString("\n")
			}
			atLineStart = true
		case ast.NonCodeNewLineBlockComment:
			switch {
			case fileStart && b.Len() == 0:
			case atLineStart:
				b.WriteString("\n")
			default:
				b.WriteString("\n\n")
			}
			plain := &ast.NonCodeNode{Value: ast.NonCodeValue{Kind: ast.NonCodeBlockComment, Value: n.Value.Value, Style: n.Value.Style}}
			b.WriteString(plain.Format(indent))
			if n.Value.Style == ast.StyleBlock {
				b.WriteString("\n")
			}
			atLineStart = true
		case ast.NonCodeNewLine:
			switch {
			case fileStart && b.Len() == 0:
			case atLineStart:
				b.WriteString("\n")
			default:
				b.WriteString("\n\n")
			}
			atLineStart = true
		}
	}
	return atLineStart
}

func bodyItem(item ast.BodyItem, opts FormatOptions, level int) string {
	switch it := item.(type) {
	case *ast.ImportStatement:
		return importStatement(it)
	case *ast.ExpressionStatement:
		return expr(it.Expression, opts, level, false)
	case *ast.VariableDeclaration:
		return declaration(it, opts, level)
	case *ast.ReturnStatement:
		return "return " + expr(it.Argument, opts, level, false)
	}
	return ""
}

func importStatement(s *ast.ImportStatement) string {
	parts := make([]string, 0, len(s.Items))
	for _, ii := range s.Items {
		p := ii.Name.Name
		if ii.Alias != nil {
			p += " as " + ii.Alias.Name
		}
		parts = append(parts, p)
	}
	path := s.RawPath
	if path == "" {
		path = `"` + s.Path + `"`
	}
	return "import " + strings.Join(parts, ", ") + " from " + path
}

// declaration drops the const keyword and keeps fn, so a constant renders as
// "x = 1" and a function as "fn f = (a) => {".
func declaration(v *ast.VariableDeclaration, opts FormatOptions, level int) string {
	var b strings.Builder
	if v.Visibility == ast.VisibilityExport {
		b.WriteString("export ")
	}
	if v.Kind == ast.KindFn {
		b.WriteString("fn ")
	}
	for i, d := range v.Declarations {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.ID.Name)
		b.WriteString(" = ")
		b.WriteString(expr(d.Init, opts, level, false))
	}
	return b.String()
}

func expr(e ast.Expr, opts FormatOptions, level int, inPipe bool) string {
	switch n := e.(type) {
	case nil:
		return ""
	case *ast.Literal:
		if n.Raw != "" {
			return n.Raw
		}
		if n.Value.Kind == ast.LiteralString {
			return "'" + n.Value.Str + "'"
		}
		return n.Value.String()
	case *ast.Identifier:
		return n.Name
	case *ast.TagDeclarator:
		return "$" + n.Name
	case *ast.PipeSubstitution:
		return "%"
	case *ast.None:
		return "none"
	case *ast.BinaryExpression:
		return binary(n, opts, level)
	case *ast.UnaryExpression:
		arg := expr(n.Argument, opts, level, false)
		if _, ok := n.Argument.(*ast.BinaryExpression); ok {
			arg = "(" + arg + ")"
		}
		return string(n.Operator) + arg
	case *ast.CallExpression:
		args := make([]string, 0, len(n.Arguments))
		for _, a := range n.Arguments {
			args = append(args, expr(a, opts, level, inPipe))
		}
		return n.Callee.Name + "(" + strings.Join(args, ", ") + ")"
	case *ast.PipeExpression:
		return pipe(n, opts, level)
	case *ast.ArrayExpression:
		return array(n, opts, level)
	case *ast.ArrayRangeExpression:
		op := " .. "
		if !n.EndInclusive {
			op = " ..< "
		}
		return "[" + expr(n.StartElement, opts, level, false) + op + expr(n.EndElement, opts, level, false) + "]"
	case *ast.ObjectExpression:
		return object(n, opts, level)
	case *ast.MemberExpression:
		obj := expr(n.Object, opts, level, false)
		if n.Computed {
			return obj + "[" + expr(n.Property, opts, level, false) + "]"
		}
		return obj + "." + expr(n.Property, opts, level, false)
	case *ast.FunctionExpression:
		return function(n, opts, level)
	case *ast.IfExpression:
		return ifExpr(n, opts, level)
	}
	return ""
}

func binary(n *ast.BinaryExpression, opts FormatOptions, level int) string {
	operand := func(part ast.BinaryPart, right bool) string {
		s := expr(part, opts, level, false)
		child, ok := part.(*ast.BinaryExpression)
		if !ok {
			return s
		}
		cp, pp := child.Operator.Precedence(), n.Operator.Precedence()
		needParens := cp < pp
		if cp == pp {
			if n.Operator.Associativity() == ast.AssocLeft {
				needParens = right
			} else {
				needParens = !right
			}
		}
		if needParens {
			return "(" + s + ")"
		}
		return s
	}
	return operand(n.Left, false) + " " + string(n.Operator) + " " + operand(n.Right, true)
}

func pipe(n *ast.PipeExpression, opts FormatOptions, level int) string {
	indent := opts.Indentation(level + 1)
	var b strings.Builder
	for _, nc := range n.NonCodeMeta.Start {
		b.WriteString(strings.TrimRight(nc.Format(""), "\n"))
		b.WriteString("\n")
		b.WriteString(indent)
	}
	for i, stage := range n.Body {
		if i > 0 {
			for _, nc := range n.NonCodeMeta.NonCodeNodes[i] {
				if nc.Value.Kind == ast.NonCodeNewLine {
					continue
				}
				text := strings.TrimRight(nc.Format(indent), "\n")
				if nc.Value.Kind == ast.NonCodeInlineComment {
					b.WriteString(text)
					continue
				}
				b.WriteString("\n")
				b.WriteString(strings.TrimLeft(text, "\n"))
			}
			b.WriteString("\n")
			b.WriteString(indent)
			b.WriteString(PipeOperator)
			b.WriteString(" ")
		}
		b.WriteString(expr(stage, opts, level+1, true))
	}
	for _, nc := range n.NonCodeMeta.NonCodeNodes[len(n.Body)] {
		if nc.Value.Kind == ast.NonCodeInlineComment {
			b.WriteString(strings.TrimRight(nc.Format(indent), "\n"))
		}
	}
	return b.String()
}

func array(n *ast.ArrayExpression, opts FormatOptions, level int) string {
	elems := make([]string, 0, len(n.Elements))
	for _, el := range n.Elements {
		elems = append(elems, expr(el, opts, level+1, false))
	}
	inline := "[" + strings.Join(elems, ", ") + "]"
	if n.NonCodeMeta.IsEmpty() && len(inline) <= maxInlineWidth && !strings.Contains(inline, "\n") {
		return inline
	}
	return multiline("[", "]", elems, &n.NonCodeMeta, opts, level)
}

func object(n *ast.ObjectExpression, opts FormatOptions, level int) string {
	if len(n.Properties) == 0 && n.NonCodeMeta.IsEmpty() {
		return "{}"
	}
	props := make([]string, 0, len(n.Properties))
	for _, p := range n.Properties {
		props = append(props, p.Key.Name+": "+expr(p.Value, opts, level+1, false))
	}
	inline := "{ " + strings.Join(props, ", ") + " }"
	if n.NonCodeMeta.IsEmpty() && len(inline) <= maxInlineWidth && !strings.Contains(inline, "\n") {
		return inline
	}
	return multiline("{", "}", props, &n.NonCodeMeta, opts, level)
}

func multiline(openTok, closeTok string, items []string, meta *ast.NonCodeMeta, opts FormatOptions, level int) string {
	inner := opts.Indentation(level + 1)
	var b strings.Builder
	b.WriteString(openTok)
	b.WriteString("\n")
	for _, nc := range meta.Start {
		writeComment(&b, nc, inner)
	}
	for i, item := range items {
		if i > 0 {
			for _, nc := range meta.NonCodeNodes[i] {
				writeComment(&b, nc, inner)
			}
		}
		b.WriteString(inner)
		b.WriteString(item)
		if i < len(items)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	for _, nc := range meta.NonCodeNodes[len(items)] {
		writeComment(&b, nc, inner)
	}
	b.WriteString(opts.Indentation(level))
	b.WriteString(closeTok)
	return b.String()
}

func writeComment(b *strings.Builder, nc *ast.NonCodeNode, indent string) {
	if nc.Value.Kind == ast.NonCodeNewLine || nc.Value.Kind == ast.NonCodeShebang {
		return
	}
	plain := &ast.NonCodeNode{Value: ast.NonCodeValue{Kind: ast.NonCodeBlockComment, Value: nc.Value.Value, Style: nc.Value.Style}}
	b.WriteString(strings.TrimRight(plain.Format(indent), "\n"))
	b.WriteString("\n")
}

func function(n *ast.FunctionExpression, opts FormatOptions, level int) string {
	params := make([]string, 0, len(n.Params))
	for _, p := range n.Params {
		s := p.Identifier.Name
		if p.Optional {
			s += "?"
		}
		if p.Type != nil {
			s += ": " + p.Type.String()
		}
		params = append(params, s)
	}
	head := "(" + strings.Join(params, ", ") + ")"
	if n.ReturnType != nil {
		head += ": " + n.ReturnType.String()
	}
	body := program(n.Body, opts, level+1)
	return head + " => {\n" + body + opts.Indentation(level) + "}"
}

func ifExpr(n *ast.IfExpression, opts FormatOptions, level int) string {
	var b strings.Builder
	b.WriteString("if ")
	b.WriteString(expr(n.Cond, opts, level, false))
	b.WriteString(" {\n")
	b.WriteString(program(n.ThenVal, opts, level+1))
	b.WriteString(opts.Indentation(level))
	b.WriteString("}")
	for _, ei := range n.ElseIfs {
		b.WriteString(" else if ")
		b.WriteString(expr(ei.Cond, opts, level, false))
		b.WriteString(" {\n")
		b.WriteString(program(ei.ThenVal, opts, level+1))
		b.WriteString(opts.Indentation(level))
		b.WriteString("}")
	}
	if n.FinalElse != nil {
		b.WriteString(" else {\n")
		b.WriteString(program(n.FinalElse, opts, level+1))
		b.WriteString(opts.Indentation(level))
		b.WriteString("}")
	}
	return b.String()
}
