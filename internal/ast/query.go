package ast

// ShebangHover is the hover text shown for a file-leading shebang line.
const ShebangHover = "The `#!` at the start of a script, known as a shebang, specifies the path to the interpreter " +
	"that should execute the script. This line is not necessary for your `kcl` to run in the modeling-app. " +
	"You can safely delete it. If you wish to learn more about what you _can_ do with a shebang, read this doc: " +
	"[zoo.dev/docs/faq/shebang](https://zoo.dev/docs/faq/shebang)."

// BodyItemAt returns the first statement whose range contains pos.
func (p *Program) BodyItemAt(pos int) BodyItem {
	for _, item := range p.Body {
		if item.Range().Contains(pos) {
			return item
		}
	}
	return nil
}

// ExprAt returns the immediate expression of the statement containing pos:
// the statement's expression, the containing declarator's initializer or the
// returned value. Imports have none.
func (p *Program) ExprAt(pos int) Expr {
	item := p.BodyItemAt(pos)
	if item == nil {
		return nil
	}
	return immediateExpr(item, pos)
}

func immediateExpr(item BodyItem, pos int) Expr {
	switch it := item.(type) {
	case *ExpressionStatement:
		return it.Expression
	case *VariableDeclaration:
		if d := it.DeclaratorAt(pos); d != nil {
			return d.Init
		}
	case *ReturnStatement:
		return it.Argument
	}
	return nil
}

// DeclaratorAt returns the first declarator whose range contains pos.
func (v *VariableDeclaration) DeclaratorAt(pos int) *VariableDeclarator {
	for _, d := range v.Declarations {
		if d.Range().Contains(pos) {
			return d
		}
	}
	return nil
}

// NodeAt returns the smallest expression enclosing pos, descending into
// function bodies and if branches. A position on a function parameter
// yields the function expression itself.
func (p *Program) NodeAt(pos int) Expr {
	return deepestExpr(p.ExprAt(pos), pos)
}

func deepestExpr(e Expr, pos int) Expr {
	if e == nil || !e.Range().Contains(pos) {
		return nil
	}
	for _, c := range ChildExprs(e) {
		if d := deepestExpr(c, pos); d != nil {
			return d
		}
	}
	for _, prog := range childPrograms(e) {
		if d := prog.NodeAt(pos); d != nil {
			return d
		}
	}
	return e
}

// NonCodeMetaOf returns the non-code meta carried by pipes, arrays and objects.
func NonCodeMetaOf(e Expr) *NonCodeMeta {
	switch n := e.(type) {
	case *PipeExpression:
		return &n.NonCodeMeta
	case *ArrayExpression:
		return &n.NonCodeMeta
	case *ObjectExpression:
		return &n.NonCodeMeta
	}
	return nil
}

// NonCodeMetaAt returns the non-code meta holding a node at pos. The
// program-level meta is checked before the enclosing statement's expression.
func (p *Program) NonCodeMetaAt(pos int) *NonCodeMeta {
	if p.NonCodeMeta.Contains(pos) {
		return &p.NonCodeMeta
	}
	if m := NonCodeMetaOf(p.ExprAt(pos)); m != nil && m.Contains(pos) {
		return m
	}
	return nil
}

// NonCodeNodeAt returns the comment, shebang or blank line covering pos.
func (p *Program) NonCodeNodeAt(pos int) *NonCodeNode {
	m := p.NonCodeMetaAt(pos)
	if m == nil {
		return nil
	}
	return m.NodeAt(pos)
}

// HoverKind tells which fields of a Hover are set.
type HoverKind string

const (
	HoverFunction  HoverKind = "function"
	HoverSignature HoverKind = "signature"
	HoverComment   HoverKind = "comment"
)

// Hover describes what sits under the cursor.
type Hover struct {
	Kind           HoverKind `json:"kind"`
	Name           string    `json:"name,omitempty"`
	ParameterIndex int       `json:"parameterIndex"`
	Value          string    `json:"value,omitempty"`
	Range          LSPRange  `json:"range"`
}

// HoverAt returns hover information for pos, or nil.
func (p *Program) HoverAt(pos int, code string) *Hover {
	for _, n := range p.NonCodeMeta.Start {
		if n.Contains(pos) && n.Value.Kind == NonCodeShebang {
			return &Hover{Kind: HoverComment, Value: ShebangHover, Range: n.Range().ToLSPRange(code)}
		}
	}
	return hoverExpr(p.ExprAt(pos), pos, code)
}

func hoverExpr(e Expr, pos int, code string) *Hover {
	switch n := e.(type) {
	case *CallExpression:
		if r := n.Callee.Range(); r.Contains(pos) {
			return &Hover{Kind: HoverFunction, Name: n.Callee.Name, Range: r.ToLSPRange(code)}
		}
		for i, arg := range n.Arguments {
			if r := arg.Range(); r.Contains(pos) {
				return &Hover{Kind: HoverSignature, Name: n.Callee.Name, ParameterIndex: i, Range: r.ToLSPRange(code)}
			}
		}
		return nil
	case *FunctionExpression:
		return hoverExpr(n.Body.ExprAt(pos), pos, code)
	case *IfExpression:
		if n.Cond != nil && n.Cond.Range().Contains(pos) {
			return hoverExpr(n.Cond, pos, code)
		}
		for _, prog := range childPrograms(n) {
			if prog.Range().Contains(pos) {
				return hoverExpr(prog.ExprAt(pos), pos, code)
			}
		}
		for _, ei := range n.ElseIfs {
			if ei.Cond != nil && ei.Cond.Range().Contains(pos) {
				return hoverExpr(ei.Cond, pos, code)
			}
		}
		return nil
	case nil:
		return nil
	}
	for _, c := range ChildExprs(e) {
		if c.Range().Contains(pos) {
			return hoverExpr(c, pos, code)
		}
	}
	return nil
}
