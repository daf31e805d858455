package ast

// ConstraintKind classifies how much of a value is fixed by literals.
type ConstraintKind string

const (
	// ConstraintIgnore is excluded from aggregation (pipe substitutions,
	// empty composites, function literals).
	ConstraintIgnore ConstraintKind = "ignore"
	// ConstraintNone means built only from literals.
	ConstraintNone    ConstraintKind = "none"
	ConstraintPartial ConstraintKind = "partial"
	// ConstraintFull means determined by references.
	ConstraintFull ConstraintKind = "full"
)

// ConstraintLevel is the classification of one expression. Levels is only
// set for ConstraintPartial and holds every child level in order.
type ConstraintLevel struct {
	Kind         ConstraintKind    `json:"type"`
	SourceRanges []SourceRange     `json:"sourceRanges"`
	Levels       []ConstraintLevel `json:"levels,omitempty"`
}

func level(kind ConstraintKind, r SourceRange) ConstraintLevel {
	return ConstraintLevel{Kind: kind, SourceRanges: []SourceRange{r}}
}

// reduceLevels merges child levels for the composite spanning r.
func reduceLevels(levels []ConstraintLevel, r SourceRange) ConstraintLevel {
	var first ConstraintKind
	for _, l := range levels {
		if l.Kind == ConstraintIgnore {
			continue
		}
		if first == "" {
			first = l.Kind
			continue
		}
		if l.Kind != first {
			return ConstraintLevel{Kind: ConstraintPartial, SourceRanges: []SourceRange{r}, Levels: levels}
		}
	}
	if first == "" {
		return level(ConstraintIgnore, r)
	}
	if first == ConstraintPartial {
		return ConstraintLevel{Kind: ConstraintPartial, SourceRanges: []SourceRange{r}, Levels: levels}
	}
	return level(first, r)
}

// ConstraintLevelOf classifies e.
func ConstraintLevelOf(e Expr) ConstraintLevel {
	switch n := e.(type) {
	case *Literal, *None:
		return level(ConstraintNone, n.Range())
	case *Identifier, *TagDeclarator, *MemberExpression:
		return level(ConstraintFull, n.Range())
	case *PipeSubstitution, *FunctionExpression:
		return level(ConstraintIgnore, n.Range())
	case *IfExpression:
		return level(ConstraintFull, n.Range())
	case *CallExpression:
		return reduceChildren(n.Arguments, n.Range())
	case *ObjectExpression:
		values := make([]Expr, 0, len(n.Properties))
		for _, p := range n.Properties {
			values = append(values, p.Value)
		}
		return reduceChildren(values, n.Range())
	case nil:
		return ConstraintLevel{Kind: ConstraintIgnore}
	}
	return reduceChildren(ChildExprs(e), e.Range())
}

func reduceChildren(children []Expr, r SourceRange) ConstraintLevel {
	if len(children) == 0 {
		return level(ConstraintIgnore, r)
	}
	levels := make([]ConstraintLevel, 0, len(children))
	for _, c := range children {
		levels = append(levels, ConstraintLevelOf(c))
	}
	return reduceLevels(levels, r)
}

// ConstraintLevel classifies an import statement. Imports are references.
func (s *ImportStatement) ConstraintLevel() ConstraintLevel {
	return level(ConstraintFull, s.Range())
}

// ConstraintLevelAt classifies the immediate expression of the statement at pos.
func (p *Program) ConstraintLevelAt(pos int) (ConstraintLevel, bool) {
	item := p.BodyItemAt(pos)
	if item == nil {
		return ConstraintLevel{}, false
	}
	if imp, ok := item.(*ImportStatement); ok {
		return imp.ConstraintLevel(), true
	}
	e := immediateExpr(item, pos)
	if e == nil {
		return ConstraintLevel{}, false
	}
	return ConstraintLevelOf(e), true
}

// PartialOrFullRanges returns the ranges of every full level reachable from
// l. A partial level contributes the ranges of its children, not its own.
func (l ConstraintLevel) PartialOrFullRanges() []SourceRange {
	var out []SourceRange
	switch l.Kind {
	case ConstraintFull:
		out = append(out, l.SourceRanges...)
	case ConstraintPartial:
		for _, child := range l.Levels {
			out = append(out, child.PartialOrFullRanges()...)
		}
	}
	return out
}
