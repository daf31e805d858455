package ast_test

import (
	"testing"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
	"github.com/DeusData/kcl-ast/internal/recast"
)

const pipeline = "const h = 30\n\n// st\nconst cyl = f('-XZ') |> g([50,0], %) |> h({a:1}, %)"

func mustParse(t *testing.T, code string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse %q: %v", code, err)
	}
	return prog
}

func TestNonCodeNodeAtComment(t *testing.T) {
	prog := mustParse(t, pipeline)
	n := prog.NonCodeNodeAt(14)
	if n == nil {
		t.Fatal("expected a non-code node at the comment")
	}
	if n.Value.Kind != ast.NonCodeNewLineBlockComment || n.Text() != "st" {
		t.Errorf("node = %+v", n.Value)
	}
	if m := prog.NonCodeMetaAt(14); m != &prog.NonCodeMeta {
		t.Errorf("expected the program-level meta")
	}
	if prog.NonCodeNodeAt(0) != nil {
		t.Errorf("no non-code node expected at offset 0")
	}
}

func TestNodeAt(t *testing.T) {
	prog := mustParse(t, pipeline)
	lit, ok := prog.NodeAt(47).(*ast.Literal)
	if !ok || lit.Raw != "50" {
		t.Fatalf("NodeAt(47) = %#v", prog.NodeAt(47))
	}
	if _, ok := prog.ExprAt(47).(*ast.PipeExpression); !ok {
		t.Errorf("ExprAt(47) should be the pipe, got %T", prog.ExprAt(47))
	}
	if prog.NodeAt(13) != nil {
		t.Errorf("blank line should not resolve to a node")
	}
}

func TestNodeAtInsideFunctionBody(t *testing.T) {
	code := "fn f = (x) => {\n  return x + 1\n}"
	prog := mustParse(t, code)
	pos := len("fn f = (x) => {\n  return ")
	id, ok := prog.NodeAt(pos).(*ast.Identifier)
	if !ok || id.Name != "x" {
		t.Fatalf("NodeAt(%d) = %#v", pos, prog.NodeAt(pos))
	}
}

func TestHover(t *testing.T) {
	prog := mustParse(t, pipeline)

	h := prog.HoverAt(32, pipeline)
	if h == nil || h.Kind != ast.HoverFunction || h.Name != "f" {
		t.Fatalf("hover on callee = %+v", h)
	}
	if h.Range.Start.Line != 3 || h.Range.Start.Character != 12 {
		t.Errorf("callee range start = %+v", h.Range.Start)
	}

	h = prog.HoverAt(47, pipeline)
	if h == nil || h.Kind != ast.HoverSignature || h.Name != "g" || h.ParameterIndex != 0 {
		t.Fatalf("hover on first argument = %+v", h)
	}

	h = prog.HoverAt(69, pipeline)
	if h == nil || h.Kind != ast.HoverSignature || h.Name != "h" || h.ParameterIndex != 1 {
		t.Fatalf("hover on substitution = %+v", h)
	}

	if h := prog.HoverAt(10, pipeline); h != nil {
		t.Errorf("hover on a literal initializer = %+v", h)
	}
}

func TestHoverShebang(t *testing.T) {
	code := "#!/usr/bin/env kcl\nx = 1"
	prog := mustParse(t, code)
	h := prog.HoverAt(3, code)
	if h == nil || h.Kind != ast.HoverComment || h.Value != ast.ShebangHover {
		t.Fatalf("hover = %+v", h)
	}
}

func TestDocumentSymbols(t *testing.T) {
	prog := mustParse(t, pipeline)
	symbols := prog.DocumentSymbols(pipeline)
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(symbols))
	}
	if symbols[0].Name != "h" || symbols[1].Name != "cyl" {
		t.Errorf("names = %s, %s", symbols[0].Name, symbols[1].Name)
	}
	for _, s := range symbols {
		if s.Kind != ast.SymbolConstant {
			t.Errorf("%s kind = %s", s.Name, s.Kind)
		}
	}
	if symbols[1].SelectionRange.Start.Line != 3 {
		t.Errorf("cyl selection = %+v", symbols[1].SelectionRange)
	}
}

func TestDocumentSymbolsNested(t *testing.T) {
	code := "fn box = (w, h) => {\n  inner = { a: 1 }\n  return line(w, h, $edge)\n}"
	prog := mustParse(t, code)
	symbols := prog.DocumentSymbols(code)

	byName := map[string]*ast.DocumentSymbol{}
	for _, s := range symbols {
		byName[s.Name] = s
	}
	box := byName["box"]
	if box == nil || box.Kind != ast.SymbolFunction || len(box.Children) != 2 {
		t.Fatalf("box = %+v", box)
	}
	inner := byName["inner"]
	if inner == nil || inner.Kind != ast.SymbolObject || len(inner.Children) != 1 {
		t.Fatalf("inner = %+v", inner)
	}
	if edge := byName["edge"]; edge == nil || edge.Kind != ast.SymbolConstant {
		t.Errorf("edge = %+v", edge)
	}
}

func TestFoldingRanges(t *testing.T) {
	prog := mustParse(t, pipeline)
	ranges := prog.FoldingRanges(recast.Renderer(recast.DefaultOptions()))
	if len(ranges) != 1 {
		t.Fatalf("expected 1 folding range, got %d", len(ranges))
	}
	r := ranges[0]
	if r.CollapsedText != "cyl = f('-XZ')" {
		t.Errorf("collapsed = %q", r.CollapsedText)
	}
	if r.End != len(pipeline) || r.Kind != "region" {
		t.Errorf("range = %+v", r)
	}
}

func TestCompletionItems(t *testing.T) {
	prog := mustParse(t, "fn f = (x) => { return x }\nsk = f(1) |> line(%, $seg)")
	items := prog.CompletionItems()
	got := map[string]ast.CompletionItemKind{}
	for _, it := range items {
		got[it.Label] = it.Kind
	}
	if got["f"] != ast.CompletionFunction {
		t.Errorf("f kind = %d", got["f"])
	}
	if got["sk"] != ast.CompletionConstant {
		t.Errorf("sk kind = %d", got["sk"])
	}
	if got["seg"] != ast.CompletionReference {
		t.Errorf("seg kind = %d", got["seg"])
	}
}

func TestOffsetPositionRoundTrip(t *testing.T) {
	code := "a = 1\n\nbb = 22\n"
	for off := 0; off <= len(code); off++ {
		p := ast.OffsetToPosition(code, off)
		if back := ast.PositionToOffset(code, p); back != off {
			t.Errorf("offset %d -> %+v -> %d", off, p, back)
		}
	}
}

func TestReplaceValueInMemberAndIf(t *testing.T) {
	prog := mustParse(t, "v = arr[i]\nw = if v > 1 {\n  v\n} else {\n  7\n}\n")
	for _, tt := range []struct {
		r   ast.SourceRange
		val float64
	}{
		{ast.SourceRange{8, 9}, 2},   // computed property
		{ast.SourceRange{18, 19}, 3}, // if condition operand
		{ast.SourceRange{41, 42}, 8}, // else branch
	} {
		if n := prog.ReplaceValue(tt.r, ast.NewNumber(tt.val)); n != 1 {
			t.Errorf("ReplaceValue(%v) replaced %d expressions", tt.r, n)
		}
	}
	want := "v = arr[2]\nw = if 3 > 1 {\n  v\n} else {\n  8\n}\n"
	if got := format(prog); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEditHelpers(t *testing.T) {
	prog := mustParse(t, pipeline)
	def := prog.GetVariable("h")
	if def == nil || def.Variable == nil {
		t.Fatal("expected h to resolve to a declarator")
	}
	if prog.GetVariable("missing") != nil {
		t.Error("unexpected definition for missing")
	}

	if n := prog.ReplaceValue(ast.SourceRange{10, 12}, ast.NewNumber(40)); n != 1 {
		t.Fatalf("ReplaceValue replaced %d expressions", n)
	}
	if got := recast.BodyItem(prog.Body[0], recast.DefaultOptions()); got != "h = 40" {
		t.Errorf("after replace = %q", got)
	}

	repl := &ast.VariableDeclarator{ID: ast.NewIdentifier("cyl"), Init: ast.NewString("x")}
	if !prog.ReplaceVariable("cyl", repl) {
		t.Fatal("ReplaceVariable reported no match")
	}
	if prog.GetVariable("cyl").Variable != repl {
		t.Error("cyl was not replaced")
	}
}
