package ast_test

import (
	"errors"
	"testing"

	"github.com/DeusData/kcl-ast/internal/ast"
)

func TestWalkVisitsEverything(t *testing.T) {
	prog := mustParse(t, "fn f = (a) => {\n  return if a { [1] } else { { k: a } }\n}")
	counts := map[string]int{}
	err := ast.Walk(prog, func(n ast.Node) error {
		switch n.(type) {
		case *ast.Identifier:
			counts["ident"]++
		case *ast.Program:
			counts["program"]++
		case *ast.ObjectProperty:
			counts["prop"]++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	// f, a (param), a (cond), k, a (value)
	if counts["ident"] != 5 {
		t.Errorf("identifiers = %d, want 5", counts["ident"])
	}
	// root, fn body, then, else
	if counts["program"] != 4 {
		t.Errorf("programs = %d, want 4", counts["program"])
	}
	if counts["prop"] != 1 {
		t.Errorf("properties = %d, want 1", counts["prop"])
	}
}

func TestChildRangesNestInParents(t *testing.T) {
	code := "import a, b as c from \"p.kcl\"\n" +
		pipeline + "\n" +
		"export z = -obj.a[0] != 1\n" +
		"sk = f(1) |> g(%, $seg)\n" +
		"r = [0..<3]\n" +
		"fn pick = (n: number, opts?: {w: number}): number => {\n" +
		"  return if n > 1 { [n, 2] } else if n > 0 { { k: opts.w } } else { 0 }\n" +
		"}\n"
	prog := mustParse(t, code)

	nodes := 0
	err := ast.Walk(prog, func(parent ast.Node) error {
		nodes++
		return ast.Walk(parent, func(child ast.Node) error {
			if child == parent {
				return nil
			}
			if !parent.Range().ContainsRange(child.Range()) {
				t.Errorf("%T %v does not contain child %T %v", parent, parent.Range(), child, child.Range())
			}
			return ast.SkipChildren
		})
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if nodes < 40 {
		t.Errorf("visited only %d nodes", nodes)
	}
}

func TestWalkSkipChildren(t *testing.T) {
	prog := mustParse(t, "x = f(a, b)\ny = c")
	var names []string
	err := ast.Walk(prog, func(n ast.Node) error {
		switch n := n.(type) {
		case *ast.CallExpression:
			return ast.SkipChildren
		case *ast.Identifier:
			names = append(names, n.Name)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(names) != 3 || names[0] != "x" || names[1] != "y" || names[2] != "c" {
		t.Errorf("names = %v", names)
	}
}

func TestWalkWrapsCallbackErrors(t *testing.T) {
	prog := mustParse(t, "x = 1\ny = 2")
	stop := errors.New("stop")
	visited := 0
	err := ast.Walk(prog, func(n ast.Node) error {
		visited++
		if _, ok := n.(*ast.Literal); ok {
			return stop
		}
		return nil
	})
	if !errors.Is(err, ast.ErrTraversal) || !errors.Is(err, stop) {
		t.Fatalf("err = %v", err)
	}
	// program, declaration, declarator, identifier, literal
	if visited != 5 {
		t.Errorf("visited %d nodes before stopping, want 5", visited)
	}
}

func TestLint(t *testing.T) {
	prog := mustParse(t, "fooBar = 1\nBad_name = { Key: 1, okKey: 2 }\n_unused = 3")
	findings, err := prog.Lint()
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %+v", findings)
	}
	if findings[0].Code != ast.LintVariableCase || findings[1].Code != ast.LintPropertyCase {
		t.Errorf("codes = %s, %s", findings[0].Code, findings[1].Code)
	}
	if findings[0].Range != (ast.SourceRange{11, 19}) {
		t.Errorf("first finding range = %v", findings[0].Range)
	}
}

func TestRequiredParamAfterOptional(t *testing.T) {
	fn := &ast.FunctionExpression{Params: []*ast.Parameter{
		{Identifier: ast.NewIdentifier("a"), Optional: true},
		{Identifier: ast.NewIdentifier("b")},
	}}
	_, _, err := fn.RequiredAndOptionalParams()
	var perr *ast.RequiredParamAfterOptionalParamError
	if !errors.As(err, &perr) || perr.Param.Identifier.Name != "b" {
		t.Fatalf("err = %v", err)
	}

	fn.Params[0].Optional = false
	fn.Params[1].Optional = true
	req, opt, err := fn.RequiredAndOptionalParams()
	if err != nil || len(req) != 1 || len(opt) != 1 {
		t.Errorf("split = %d required, %d optional, err %v", len(req), len(opt), err)
	}
}
