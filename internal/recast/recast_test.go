package recast

import (
	"strings"
	"testing"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
)

func mustFormat(t *testing.T, code string, opts FormatOptions) string {
	t.Helper()
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse %q: %v", code, err)
	}
	return Program(prog, opts)
}

func TestFormatPipeline(t *testing.T) {
	code := "const h = 30\n\n// st\nconst cyl = f('-XZ') |> g([50,0], %) |> h({a:1}, %)"
	want := "h = 30\n\n// st\ncyl = f('-XZ')\n  |> g([50, 0], %)\n  |> h({ a: 1 }, %)\n"
	if got := mustFormat(t, code, DefaultOptions()); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	sources := []string{
		"#!/usr/bin/env kcl\n\nx = 1 // inline\n\ny = 2\n",
		"import a, b as c from \"parts.kcl\"\nexport fn box = (w: number, h?: number) => {\n  return rect(w, h)\n}\n",
		"v = if x > 1 {\n  2\n} else if x > 0 {\n  1\n} else {\n  0\n}\n",
		"r = [0 .. 10]\ne = [1 ..< 3]\nm = obj.a[0]\nn = -(a + b) * c\n",
		"s = f()\n  // next\n  |> g(%, $tag)\n",
		"pts = [\n  1,\n  // one\n  2\n]\n",
	}
	for _, src := range sources {
		once := mustFormat(t, src, DefaultOptions())
		twice := mustFormat(t, once, DefaultOptions())
		if once != twice {
			t.Errorf("not idempotent for %q:\nonce:  %q\ntwice: %q", src, once, twice)
		}
		if once != src {
			t.Errorf("formatting changed canonical source:\nsrc: %q\ngot: %q", src, once)
		}
	}
}

func TestFormatPreservesDigest(t *testing.T) {
	code := "a = 1 // first\n\n/* block */\nb = [a, 2]\nfn f = (x) => {\n  // body\n  return x ^ 2 ^ 3\n}\n"
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	formatted := Program(prog, DefaultOptions())
	again, err := parser.Parse(formatted)
	if err != nil {
		t.Fatalf("reparse %q: %v", formatted, err)
	}
	if prog.ComputeDigest() != again.ComputeDigest() {
		t.Errorf("digest changed after formatting:\n%s", formatted)
	}
}

func TestBinaryParentheses(t *testing.T) {
	tests := map[string]string{
		"(1 + 2) * 3":   "(1 + 2) * 3",
		"1 + (2 * 3)":   "1 + 2 * 3",
		"1 - (2 - 3)":   "1 - (2 - 3)",
		"(1 - 2) - 3":   "1 - 2 - 3",
		"(2 ^ 3) ^ 4":   "(2 ^ 3) ^ 4",
		"2 ^ (3 ^ 4)":   "2 ^ 3 ^ 4",
		"-(a + b)":      "-(a + b)",
		"a == (b == c)": "a == (b == c)",
	}
	for src, want := range tests {
		e, err := parser.ParseExpr(src)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		if got := Expr(e, DefaultOptions()); got != want {
			t.Errorf("%q: got %q, want %q", src, got, want)
		}
	}
}

func TestFormatTabs(t *testing.T) {
	opts := FormatOptions{UseTabs: true}
	got := mustFormat(t, "fn f = (x) => { return x }", opts)
	if got != "fn f = (x) => {\n\treturn x\n}" {
		t.Errorf("got %q", got)
	}
}

func TestLongArrayBreaks(t *testing.T) {
	elems := make([]string, 30)
	for i := range elems {
		elems[i] = "123"
	}
	got := mustFormat(t, "a = ["+strings.Join(elems, ",")+"]", DefaultOptions())
	if !strings.HasPrefix(got, "a = [\n  123,\n") || !strings.HasSuffix(got, "  123\n]\n") {
		t.Errorf("long array not broken onto lines:\n%s", got)
	}
}

func TestRendererMatchesBodyItem(t *testing.T) {
	prog, err := parser.Parse("x = { a: 1 }")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	render := Renderer(DefaultOptions())
	if got := render(prog.Body[0]); got != BodyItem(prog.Body[0], DefaultOptions()) {
		t.Errorf("renderer = %q", got)
	}
}

func TestIndentation(t *testing.T) {
	opts := DefaultOptions()
	if opts.Indentation(2) != "    " {
		t.Errorf("Indentation(2) = %q", opts.Indentation(2))
	}
	if opts.IndentationOffsetPipe(1) != "     " {
		t.Errorf("IndentationOffsetPipe(1) = %q", opts.IndentationOffsetPipe(1))
	}
	var none ast.Expr
	if Expr(none, opts) != "" {
		t.Error("nil expression should render empty")
	}
}
