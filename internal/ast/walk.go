package ast

import (
	"errors"
	"fmt"
)

// ErrTraversal wraps any error returned by a walk callback. It aborts only
// the walk that produced it.
var ErrTraversal = errors.New("ast traversal")

// SkipChildren can be returned by a walk callback to skip a node's children
// without aborting the walk.
var SkipChildren = errors.New("skip children")

// ChildExprs returns the direct expression children of e in source order.
// Function bodies and if branches are programs and are not included; see
// childPrograms.
func ChildExprs(e Expr) []Expr {
	switch n := e.(type) {
	case *BinaryExpression:
		return nonNil(n.Left, n.Right)
	case *UnaryExpression:
		return nonNil(n.Argument)
	case *CallExpression:
		out := make([]Expr, 0, len(n.Arguments)+1)
		out = append(out, n.Callee)
		return append(out, n.Arguments...)
	case *PipeExpression:
		return n.Body
	case *ArrayExpression:
		return n.Elements
	case *ArrayRangeExpression:
		return nonNil(n.StartElement, n.EndElement)
	case *ObjectExpression:
		out := make([]Expr, 0, len(n.Properties))
		for _, p := range n.Properties {
			if p.Value != nil {
				out = append(out, p.Value)
			}
		}
		return out
	case *MemberExpression:
		return nonNil(n.Object, n.Property)
	case *IfExpression:
		out := nonNil(n.Cond)
		for _, ei := range n.ElseIfs {
			if ei.Cond != nil {
				out = append(out, ei.Cond)
			}
		}
		return out
	}
	return nil
}

func nonNil(xs ...Expr) []Expr {
	out := make([]Expr, 0, len(xs))
	for _, x := range xs {
		if x != nil {
			out = append(out, x)
		}
	}
	return out
}

func childPrograms(e Expr) []*Program {
	switch n := e.(type) {
	case *FunctionExpression:
		if n.Body != nil {
			return []*Program{n.Body}
		}
	case *IfExpression:
		var out []*Program
		if n.ThenVal != nil {
			out = append(out, n.ThenVal)
		}
		for _, ei := range n.ElseIfs {
			if ei.ThenVal != nil {
				out = append(out, ei.ThenVal)
			}
		}
		if n.FinalElse != nil {
			out = append(out, n.FinalElse)
		}
		return out
	}
	return nil
}

// Walk visits root and every node below it in pre-order. Non-code nodes are
// not visited. If fn returns SkipChildren the node's children are skipped;
// any other error aborts the walk and is returned wrapped with ErrTraversal.
func Walk(root Node, fn func(Node) error) error {
	w := walker{fn: fn}
	return w.node(root)
}

type walker struct {
	fn func(Node) error
}

func (w *walker) visit(n Node) (bool, error) {
	if err := w.fn(n); err != nil {
		if errors.Is(err, SkipChildren) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %T: %w", ErrTraversal, n, err)
	}
	return true, nil
}

func (w *walker) node(n Node) error {
	switch n := n.(type) {
	case *Program:
		return w.program(n)
	case BodyItem:
		return w.bodyItem(n)
	case Expr:
		return w.expr(n)
	}
	_, err := w.visit(n)
	return err
}

func (w *walker) program(p *Program) error {
	if p == nil {
		return nil
	}
	descend, err := w.visit(p)
	if err != nil || !descend {
		return err
	}
	for _, item := range p.Body {
		if err := w.bodyItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) bodyItem(item BodyItem) error {
	descend, err := w.visit(item)
	if err != nil || !descend {
		return err
	}
	switch it := item.(type) {
	case *ImportStatement:
		for _, ii := range it.Items {
			if err := w.importItem(ii); err != nil {
				return err
			}
		}
	case *ExpressionStatement:
		return w.expr(it.Expression)
	case *VariableDeclaration:
		for _, d := range it.Declarations {
			descend, err := w.visit(d)
			if err != nil {
				return err
			}
			if !descend {
				continue
			}
			if err := w.expr(d.ID); err != nil {
				return err
			}
			if err := w.expr(d.Init); err != nil {
				return err
			}
		}
	case *ReturnStatement:
		return w.expr(it.Argument)
	}
	return nil
}

func (w *walker) importItem(ii *ImportItem) error {
	descend, err := w.visit(ii)
	if err != nil || !descend {
		return err
	}
	if err := w.expr(ii.Name); err != nil {
		return err
	}
	if ii.Alias != nil {
		return w.expr(ii.Alias)
	}
	return nil
}

func (w *walker) expr(e Expr) error {
	if e == nil {
		return nil
	}
	descend, err := w.visit(e)
	if err != nil || !descend {
		return err
	}
	switch n := e.(type) {
	case *FunctionExpression:
		for _, p := range n.Params {
			if err := w.expr(p.Identifier); err != nil {
				return err
			}
		}
		return w.program(n.Body)
	case *ObjectExpression:
		for _, p := range n.Properties {
			descend, err := w.visit(p)
			if err != nil {
				return err
			}
			if !descend {
				continue
			}
			if err := w.expr(p.Key); err != nil {
				return err
			}
			if err := w.expr(p.Value); err != nil {
				return err
			}
		}
		return nil
	case *IfExpression:
		if err := w.expr(n.Cond); err != nil {
			return err
		}
		if err := w.program(n.ThenVal); err != nil {
			return err
		}
		for _, ei := range n.ElseIfs {
			descend, err := w.visit(ei)
			if err != nil {
				return err
			}
			if !descend {
				continue
			}
			if err := w.expr(ei.Cond); err != nil {
				return err
			}
			if err := w.program(ei.ThenVal); err != nil {
				return err
			}
		}
		return w.program(n.FinalElse)
	}
	for _, c := range ChildExprs(e) {
		if err := w.expr(c); err != nil {
			return err
		}
	}
	return nil
}
