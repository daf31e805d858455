package ast_test

import (
	"testing"

	"github.com/DeusData/kcl-ast/internal/ast"
)

func TestConstraintLevels(t *testing.T) {
	tests := []struct {
		code string
		want ast.ConstraintKind
	}{
		{"x = f(1, 2)", ast.ConstraintNone},
		{"x = f(a)", ast.ConstraintFull},
		{"x = f(a, 1)", ast.ConstraintPartial},
		{"x = f()", ast.ConstraintIgnore},
		{"x = []", ast.ConstraintIgnore},
		{"x = [1, [a]]", ast.ConstraintPartial},
		{"x = { a: 1, b: c }", ast.ConstraintPartial},
		{"x = { a: 1 }", ast.ConstraintNone},
		{"x = f(1) |> g(%, 2)", ast.ConstraintNone},
		{"x = -a", ast.ConstraintFull},
		{"x = 1 + 2", ast.ConstraintNone},
		{"x = (y) => { return y }", ast.ConstraintIgnore},
		{"x = if a { 1 } else { 2 }", ast.ConstraintFull},
		{"x = none", ast.ConstraintNone},
		{"x = obj.a", ast.ConstraintFull},
	}
	for _, tt := range tests {
		prog := mustParse(t, tt.code)
		got, ok := prog.ConstraintLevelAt(4)
		if !ok {
			t.Errorf("%q: no constraint level at offset 4", tt.code)
			continue
		}
		if got.Kind != tt.want {
			t.Errorf("%q: kind = %s, want %s", tt.code, got.Kind, tt.want)
		}
		if got.SourceRanges[0] != (ast.SourceRange{4, len(tt.code)}) {
			t.Errorf("%q: range = %v", tt.code, got.SourceRanges[0])
		}
	}
}

func TestConstraintPartialRanges(t *testing.T) {
	prog := mustParse(t, "x = f(a, 1)")
	got, _ := prog.ConstraintLevelAt(4)
	if len(got.Levels) != 2 {
		t.Fatalf("expected 2 child levels, got %d", len(got.Levels))
	}
	if got.Levels[0].Kind != ast.ConstraintFull || got.Levels[1].Kind != ast.ConstraintNone {
		t.Errorf("child kinds = %s, %s", got.Levels[0].Kind, got.Levels[1].Kind)
	}
	ranges := got.PartialOrFullRanges()
	want := []ast.SourceRange{{6, 7}}
	if len(ranges) != len(want) {
		t.Fatalf("ranges = %v, want %v", ranges, want)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("ranges[%d] = %v, want %v", i, ranges[i], want[i])
		}
	}
}

func TestConstraintImportAndMisses(t *testing.T) {
	prog := mustParse(t, "import a from \"p.kcl\"\n\nx = 1")
	got, ok := prog.ConstraintLevelAt(0)
	if !ok || got.Kind != ast.ConstraintFull {
		t.Errorf("import level = %+v, %v", got, ok)
	}
	if _, ok := prog.ConstraintLevelAt(22); ok {
		t.Error("blank line should have no constraint level")
	}
}
