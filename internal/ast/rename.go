package ast

// RenameSymbol renames the binding at pos to newName and rewrites every
// reference to the old name in the binding's scope. It reports the old name
// and whether the rename happened. When no binding is found the old name is
// empty; when one is found but a different binding of newName would capture
// a rewritten reference, the old name is returned with false. In both cases
// the tree is untouched.
//
// Top-level imports and declarators are tried first. Otherwise the outermost
// function expression enclosing pos is searched: a parameter under pos is
// renamed within that function's body, and anything else is resolved
// recursively against the body as its own program.
func (p *Program) RenameSymbol(newName string, pos int) (string, bool) {
	t, ok := p.resolveBinding(pos)
	if !ok {
		return "", false
	}
	if t.oldName == newName {
		return t.oldName, true
	}
	if t.shadowed(newName) {
		return t.oldName, false
	}
	undo := t.bind(newName)
	r := &renamer{oldName: t.oldName, newName: newName, target: t.id, dry: true}
	r.program(t.scope, false)
	if r.captured {
		undo()
		return t.oldName, false
	}
	r.dry = false
	r.program(t.scope, false)
	return t.oldName, true
}

// renameTarget is a resolved binding site and the program it is visible in.
type renameTarget struct {
	oldName  string
	scope    *Program
	id       *Identifier // nil for an import that gains an alias
	siblings []*Parameter
	bind     func(newName string) func()
}

// shadowed reports whether another parameter of the same function already
// uses newName.
func (t *renameTarget) shadowed(newName string) bool {
	for _, s := range t.siblings {
		if s.Identifier != t.id && s.Identifier.Name == newName {
			return true
		}
	}
	return false
}

func (p *Program) resolveBinding(pos int) (*renameTarget, bool) {
	for _, item := range p.Body {
		var t *renameTarget
		switch it := item.(type) {
		case *ImportStatement:
			t = it.resolveBinding(pos)
		case *VariableDeclaration:
			t = it.resolveBinding(pos)
		}
		if t != nil {
			t.scope = p
			return t, true
		}
	}

	fn := enclosingFunction(p.ExprAt(pos), pos)
	if fn == nil {
		return nil, false
	}
	for _, param := range fn.Params {
		if param.Range().Contains(pos) {
			return &renameTarget{
				oldName:  param.Identifier.Name,
				scope:    fn.Body,
				id:       param.Identifier,
				siblings: fn.Params,
				bind:     renameIdent(param.Identifier),
			}, true
		}
	}
	if fn.Body == nil {
		return nil, false
	}
	return fn.Body.resolveBinding(pos)
}

func renameIdent(id *Identifier) func(string) func() {
	return func(newName string) func() {
		old := id.Name
		id.Name = newName
		return func() { id.Name = old }
	}
}

func enclosingFunction(e Expr, pos int) *FunctionExpression {
	if e == nil || !e.Range().Contains(pos) {
		return nil
	}
	if fn, ok := e.(*FunctionExpression); ok {
		return fn
	}
	for _, c := range ChildExprs(e) {
		if fn := enclosingFunction(c, pos); fn != nil {
			return fn
		}
	}
	for _, prog := range childPrograms(e) {
		if fn := enclosingFunction(prog.ExprAt(pos), pos); fn != nil {
			return fn
		}
	}
	return nil
}

func (s *ImportStatement) resolveBinding(pos int) *renameTarget {
	for _, item := range s.Items {
		if !item.Range().Contains(pos) {
			continue
		}
		if item.Alias != nil {
			if !item.Alias.Range().Contains(pos) {
				continue
			}
			return &renameTarget{oldName: item.Alias.Name, id: item.Alias, bind: renameIdent(item.Alias)}
		}
		return &renameTarget{
			oldName: item.Name.Name,
			bind: func(newName string) func() {
				item.Alias = NewIdentifier(newName)
				return func() { item.Alias = nil }
			},
		}
	}
	return nil
}

func (v *VariableDeclaration) resolveBinding(pos int) *renameTarget {
	if !v.Range().Contains(pos) {
		return nil
	}
	for _, d := range v.Declarations {
		if d.ID.Range().Contains(pos) {
			return &renameTarget{oldName: d.ID.Name, id: d.ID, bind: renameIdent(d.ID)}
		}
	}
	return nil
}

// RenameIdentifiers rewrites every reference named oldName to newName.
// Declarator names are left alone, and the initializer of a declarator
// already named newName is skipped so the renamed binding cannot capture
// itself. A declarator that re-binds oldName ends propagation for the rest
// of its body, though its own initializer is still rewritten. Function
// bodies are skipped when a parameter shadows oldName.
func (p *Program) RenameIdentifiers(oldName, newName string) {
	r := &renamer{oldName: oldName, newName: newName}
	r.program(p, false)
}

// renamer walks a scope rewriting references. In dry mode it only records
// whether any rewrite would land where a binding of newName other than
// target is visible.
type renamer struct {
	oldName, newName string
	target           *Identifier
	dry              bool
	captured         bool
}

// program walks one body. shadowed is true when an enclosing binding of
// newName other than the target is already in scope.
func (r *renamer) program(p *Program, shadowed bool) {
	if p == nil {
		return
	}
	for _, item := range p.Body {
		switch it := item.(type) {
		case *ImportStatement:
			for _, ii := range it.Items {
				if ii.Alias != nil {
					r.ident(ii.Alias, shadowed)
				}
			}
		case *ExpressionStatement:
			r.expr(it.Expression, shadowed)
		case *VariableDeclaration:
			for _, d := range it.Declarations {
				if d.ID.Name == r.newName {
					if d.ID != r.target {
						shadowed = true
					}
					continue
				}
				r.expr(d.Init, shadowed)
				if d.ID.Name == r.oldName {
					return
				}
			}
		case *ReturnStatement:
			r.expr(it.Argument, shadowed)
		}
	}
}

func (r *renamer) ident(id *Identifier, shadowed bool) {
	if id.Name != r.oldName {
		return
	}
	if r.dry {
		r.captured = r.captured || shadowed
		return
	}
	id.Name = r.newName
}

func (r *renamer) expr(e Expr, shadowed bool) {
	switch n := e.(type) {
	case nil:
		return
	case *Identifier:
		r.ident(n, shadowed)
	case *TagDeclarator:
		if n.Name != r.oldName {
			return
		}
		if r.dry {
			r.captured = r.captured || shadowed
			return
		}
		n.Name = r.newName
	case *FunctionExpression:
		inner := shadowed
		for _, param := range n.Params {
			if param.Identifier.Name == r.oldName {
				return
			}
			if param.Identifier.Name == r.newName {
				inner = true
			}
		}
		r.program(n.Body, inner)
	case *MemberExpression:
		r.expr(n.Object, shadowed)
		if n.Computed {
			if id, ok := n.Property.(*Identifier); ok {
				r.ident(id, shadowed)
			}
		}
	case *IfExpression:
		r.expr(n.Cond, shadowed)
		r.program(n.ThenVal, shadowed)
		for _, ei := range n.ElseIfs {
			r.expr(ei.Cond, shadowed)
			r.program(ei.ThenVal, shadowed)
		}
		r.program(n.FinalElse, shadowed)
	default:
		for _, c := range ChildExprs(e) {
			r.expr(c, shadowed)
		}
	}
}
