package ast_test

import (
	"testing"

	"github.com/DeusData/kcl-ast/internal/ast"
)

func TestDigestIgnoresOffsets(t *testing.T) {
	a := mustParse(t, "x = 1 + 2")
	b := mustParse(t, "\n   x=1+2")
	if a.ComputeDigest() != b.ComputeDigest() {
		t.Error("whitespace-only differences changed the digest")
	}
}

func TestDigestSeesStructure(t *testing.T) {
	base := mustParse(t, "x = 1 + 2").ComputeDigest()
	for _, code := range []string{
		"x = 1 + 3",
		"x = 1 - 2",
		"y = 1 + 2",
		"export x = 1 + 2",
		"x = 1 + 2 // note",
		"x = 1 + 2\n/* note */",
	} {
		if mustParse(t, code).ComputeDigest() == base {
			t.Errorf("%q hashes like \"x = 1 + 2\"", code)
		}
	}
}

func TestDigestCommentStyle(t *testing.T) {
	line := mustParse(t, "x = 1\n// c\ny = 2")
	block := mustParse(t, "x = 1\n/* c */\ny = 2")
	if line.ComputeDigest() == block.ComputeDigest() {
		t.Error("comment style must contribute to the digest")
	}
}

func TestDigestRefreshesCaches(t *testing.T) {
	prog := mustParse(t, pipeline)
	d := prog.ComputeDigest()
	if prog.Digest == nil || *prog.Digest != d {
		t.Fatal("program digest was not cached")
	}
	decl := prog.Body[1].(*ast.VariableDeclaration)
	if decl.Digest == nil || decl.Declarations[0].Init.(*ast.PipeExpression).Digest == nil {
		t.Fatal("child digests were not cached")
	}

	prog.ReplaceValue(ast.SourceRange{10, 12}, ast.NewNumber(31))
	if prog.ComputeDigest() == d {
		t.Error("digest did not change after an edit")
	}
}

func TestExprDigest(t *testing.T) {
	a := mustParse(t, "x = f([1, 2], %)").ExprAt(4)
	b := mustParse(t, "y   =   f([1,2],%)").ExprAt(8)
	if ast.ComputeDigest(a) != ast.ComputeDigest(b) {
		t.Error("equal expressions hash differently")
	}
	if ast.ComputeDigest(a).String() == "" {
		t.Error("empty hex form")
	}
}
