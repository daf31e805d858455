package ast

// Definition is what a name resolves to at the top level of a program:
// exactly one of Import and Variable is set.
type Definition struct {
	Import   *ImportStatement
	Variable *VariableDeclarator
}

// GetVariable returns the first top-level import or declarator binding name.
func (p *Program) GetVariable(name string) *Definition {
	for _, item := range p.Body {
		switch it := item.(type) {
		case *ImportStatement:
			for _, ii := range it.Items {
				if ii.Identifier() == name {
					return &Definition{Import: it}
				}
			}
		case *VariableDeclaration:
			for _, d := range it.Declarations {
				if d.ID.Name == name {
					return &Definition{Variable: d}
				}
			}
		}
	}
	return nil
}

// ReplaceVariable swaps the first top-level declarator named name for
// declarator. It reports whether a replacement happened.
func (p *Program) ReplaceVariable(name string, declarator *VariableDeclarator) bool {
	for _, item := range p.Body {
		v, ok := item.(*VariableDeclaration)
		if !ok {
			continue
		}
		for i, d := range v.Declarations {
			if d.ID.Name == name {
				v.Declarations[i] = declarator
				return true
			}
		}
	}
	return false
}

// ReplaceValue replaces every expression whose range equals r exactly with
// value. Imports are never touched. Cached digests along the way are stale
// afterwards.
func (p *Program) ReplaceValue(r SourceRange, value Expr) int {
	n := 0
	for _, item := range p.Body {
		switch it := item.(type) {
		case *ExpressionStatement:
			it.Expression = replaceIn(it.Expression, r, value, &n)
		case *VariableDeclaration:
			for _, d := range it.Declarations {
				d.Init = replaceIn(d.Init, r, value, &n)
			}
		case *ReturnStatement:
			it.Argument = replaceIn(it.Argument, r, value, &n)
		}
	}
	return n
}

func replaceIn(e Expr, r SourceRange, value Expr, n *int) Expr {
	if e == nil {
		return nil
	}
	if e.Range() == r {
		*n++
		return value
	}
	switch x := e.(type) {
	case *BinaryExpression:
		x.Left = replacePart(x.Left, r, value, n)
		x.Right = replacePart(x.Right, r, value, n)
	case *UnaryExpression:
		x.Argument = replacePart(x.Argument, r, value, n)
	case *CallExpression:
		for i, a := range x.Arguments {
			x.Arguments[i] = replaceIn(a, r, value, n)
		}
	case *PipeExpression:
		for i, s := range x.Body {
			x.Body[i] = replaceIn(s, r, value, n)
		}
	case *ArrayExpression:
		for i, el := range x.Elements {
			x.Elements[i] = replaceIn(el, r, value, n)
		}
	case *ArrayRangeExpression:
		x.StartElement = replaceIn(x.StartElement, r, value, n)
		x.EndElement = replaceIn(x.EndElement, r, value, n)
	case *ObjectExpression:
		for _, prop := range x.Properties {
			prop.Value = replaceIn(prop.Value, r, value, n)
		}
	case *MemberExpression:
		x.Object = replaceMemberObject(x.Object, r, value, n)
		if x.Computed {
			x.Property = replaceProperty(x.Property, r, value, n)
		}
	case *IfExpression:
		x.Cond = replaceIn(x.Cond, r, value, n)
		*n += x.ThenVal.replaceValue(r, value)
		for _, ei := range x.ElseIfs {
			ei.Cond = replaceIn(ei.Cond, r, value, n)
			*n += ei.ThenVal.replaceValue(r, value)
		}
		*n += x.FinalElse.replaceValue(r, value)
	case *FunctionExpression:
		*n += x.Body.replaceValue(r, value)
	}
	return e
}

func (p *Program) replaceValue(r SourceRange, value Expr) int {
	if p == nil {
		return 0
	}
	return p.ReplaceValue(r, value)
}

func replaceMemberObject(mo MemberObject, r SourceRange, value Expr, n *int) MemberObject {
	if mo.Range() == r {
		if v, ok := value.(MemberObject); ok {
			*n++
			return v
		}
		return mo
	}
	replaceIn(mo, r, value, n)
	return mo
}

func replaceProperty(li LiteralIdentifier, r SourceRange, value Expr, n *int) LiteralIdentifier {
	if li.Range() == r {
		if v, ok := value.(LiteralIdentifier); ok {
			*n++
			return v
		}
	}
	return li
}

// replacePart only substitutes values that are legal operands.
func replacePart(bp BinaryPart, r SourceRange, value Expr, n *int) BinaryPart {
	if bp == nil {
		return nil
	}
	if bp.Range() == r {
		if v, ok := value.(BinaryPart); ok {
			*n++
			return v
		}
		return bp
	}
	replaceIn(bp, r, value, n)
	return bp
}
