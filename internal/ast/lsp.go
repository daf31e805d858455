package ast

import "strings"

// SymbolKind mirrors the LSP symbol kind numbering.
type SymbolKind int

const (
	SymbolProperty SymbolKind = 7
	SymbolFunction SymbolKind = 12
	SymbolVariable SymbolKind = 13
	SymbolConstant SymbolKind = 14
	SymbolArray    SymbolKind = 18
	SymbolObject   SymbolKind = 19
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolProperty:
		return "property"
	case SymbolFunction:
		return "function"
	case SymbolVariable:
		return "variable"
	case SymbolConstant:
		return "constant"
	case SymbolArray:
		return "array"
	case SymbolObject:
		return "object"
	}
	return "unknown"
}

// DocumentSymbol is one entry of a document outline.
type DocumentSymbol struct {
	Name           string            `json:"name"`
	Detail         string            `json:"detail,omitempty"`
	Kind           SymbolKind        `json:"kind"`
	Range          LSPRange          `json:"range"`
	SelectionRange LSPRange          `json:"selectionRange"`
	Source         SourceRange       `json:"sourceRange"`
	Children       []*DocumentSymbol `json:"children,omitempty"`
}

// CompletionItemKind mirrors the LSP completion item kind numbering.
type CompletionItemKind int

const (
	CompletionFunction  CompletionItemKind = 3
	CompletionReference CompletionItemKind = 18
	CompletionConstant  CompletionItemKind = 21
)

// CompletionItem is a name the editor can offer while typing.
type CompletionItem struct {
	Label  string             `json:"label"`
	Kind   CompletionItemKind `json:"kind"`
	Detail string             `json:"detail,omitempty"`
}

// TagCompletionDetail is the detail text attached to tag completions.
const TagCompletionDetail = "tag (A reference to an entity you previously named)"

// FoldingRange is a foldable region in byte offsets. CollapsedText is the
// first rendered line of the folded statement.
type FoldingRange struct {
	Start         int    `json:"start"`
	End           int    `json:"end"`
	Kind          string `json:"kind"`
	CollapsedText string `json:"collapsedText"`
}

// RenderFunc turns a statement back into source text.
type RenderFunc func(BodyItem) string

// FoldingRanges returns one region per multi-line top-level statement.
// Imports and returns never fold and nested statements are not considered.
func (p *Program) FoldingRanges(render RenderFunc) []FoldingRange {
	var ranges []FoldingRange
	for _, item := range p.Body {
		switch item.(type) {
		case *ImportStatement, *ReturnStatement:
			continue
		}
		text := render(item)
		firstLine, _, multi := strings.Cut(text, "\n")
		if !multi || strings.TrimSpace(text[len(firstLine):]) == "" {
			continue
		}
		r := item.Range()
		ranges = append(ranges, FoldingRange{
			Start:         r.Start() + len(firstLine),
			End:           r.End(),
			Kind:          "region",
			CollapsedText: firstLine,
		})
	}
	return ranges
}

// DocumentSymbols returns outline symbols for every variable declaration and
// tag declarator in the program, nested function bodies included.
func (p *Program) DocumentSymbols(code string) []*DocumentSymbol {
	var symbols []*DocumentSymbol
	_ = Walk(p, func(n Node) error {
		switch n := n.(type) {
		case *TagDeclarator:
			symbols = append(symbols, tagSymbol(n, code))
		case *VariableDeclaration:
			symbols = append(symbols, declarationSymbols(n, code)...)
		}
		return nil
	})
	return symbols
}

func tagSymbol(t *TagDeclarator, code string) *DocumentSymbol {
	r := t.Range()
	return &DocumentSymbol{
		Name:           t.Name,
		Kind:           SymbolConstant,
		Range:          r.ToLSPRange(code),
		SelectionRange: r.ToLSPRange(code),
		Source:         r,
	}
}

func declarationSymbols(v *VariableDeclaration, code string) []*DocumentSymbol {
	out := make([]*DocumentSymbol, 0, len(v.Declarations))
	for _, d := range v.Declarations {
		kind := SymbolConstant
		if v.Kind == KindFn {
			kind = SymbolFunction
		}
		var children []*DocumentSymbol
		switch init := d.Init.(type) {
		case *FunctionExpression:
			kind = SymbolFunction
			for _, param := range init.Params {
				r := param.Range()
				children = append(children, &DocumentSymbol{
					Name:           param.Identifier.Name,
					Kind:           SymbolConstant,
					Range:          r.ToLSPRange(code),
					SelectionRange: r.ToLSPRange(code),
					Source:         r,
				})
			}
		case *ObjectExpression:
			kind = SymbolObject
			for _, prop := range init.Properties {
				r := prop.Range()
				children = append(children, &DocumentSymbol{
					Name:           prop.Key.Name,
					Kind:           SymbolProperty,
					Range:          r.ToLSPRange(code),
					SelectionRange: prop.Key.Range().ToLSPRange(code),
					Source:         r,
				})
			}
		case *ArrayExpression:
			kind = SymbolArray
		}
		out = append(out, &DocumentSymbol{
			Name:           d.ID.Name,
			Detail:         string(v.Kind),
			Kind:           kind,
			Range:          d.Range().ToLSPRange(code),
			SelectionRange: d.ID.Range().ToLSPRange(code),
			Source:         d.Range(),
			Children:       children,
		})
	}
	return out
}

// CompletionItems returns one item per tag declarator and per declared variable.
func (p *Program) CompletionItems() []CompletionItem {
	var items []CompletionItem
	_ = Walk(p, func(n Node) error {
		switch n := n.(type) {
		case *TagDeclarator:
			items = append(items, CompletionItem{Label: n.Name, Kind: CompletionReference, Detail: TagCompletionDetail})
		case *VariableDeclaration:
			kind := CompletionConstant
			if n.Kind == KindFn {
				kind = CompletionFunction
			}
			for _, d := range n.Declarations {
				items = append(items, CompletionItem{Label: d.ID.Name, Kind: kind, Detail: string(n.Kind)})
			}
		}
		return nil
	})
	return items
}
