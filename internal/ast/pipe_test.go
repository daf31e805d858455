package ast_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/DeusData/kcl-ast/internal/ast"
)

var errBoom = errors.New("boom")

// sumEvaluator adds the literal arguments of each stage to the previous value.
type sumEvaluator struct {
	calls []string
}

func (s *sumEvaluator) EvaluateHead(_ context.Context, head ast.Expr) (float64, error) {
	s.calls = append(s.calls, "head")
	lit, ok := head.(*ast.Literal)
	if !ok {
		return 0, errors.New("head must be a literal")
	}
	return lit.Value.Number, nil
}

func (s *sumEvaluator) EvaluateStage(_ context.Context, stage *ast.CallExpression, prev float64) (float64, error) {
	s.calls = append(s.calls, stage.Callee.Name)
	if stage.Callee.Name == "fail" {
		return 0, errBoom
	}
	total := 0.0
	for _, a := range stage.Arguments {
		switch x := a.(type) {
		case *ast.PipeSubstitution:
			total += prev
		case *ast.Literal:
			total += x.Value.Number
		}
	}
	return total, nil
}

func pipeAt(t *testing.T, code string) *ast.PipeExpression {
	t.Helper()
	p, ok := mustParse(t, code).ExprAt(4).(*ast.PipeExpression)
	if !ok {
		t.Fatalf("%q has no pipe at offset 4", code)
	}
	return p
}

func TestEvaluatePipeSequencesStages(t *testing.T) {
	ev := &sumEvaluator{}
	got, err := ast.EvaluatePipe[float64](context.Background(), pipeAt(t, "x = 1 |> add(%, 2) |> add(%, 3)"), ev)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != 6 {
		t.Errorf("result = %v, want 6", got)
	}
	if want := []string{"head", "add", "add"}; !slices.Equal(ev.calls, want) {
		t.Errorf("calls = %v, want %v", ev.calls, want)
	}
}

func TestEvaluatePipeStopsAtFirstError(t *testing.T) {
	ev := &sumEvaluator{}
	p := pipeAt(t, "x = 1 |> fail(%) |> add(%, 3)")
	_, err := ast.EvaluatePipe[float64](context.Background(), p, ev)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	var stageErr *ast.PipeStageError
	if !errors.As(err, &stageErr) || stageErr.Index != 1 {
		t.Fatalf("expected a stage 1 error, got %v", err)
	}
	if stageErr.Range != p.Body[1].Range() {
		t.Errorf("error range = %v, want %v", stageErr.Range, p.Body[1].Range())
	}
	if want := []string{"head", "fail"}; !slices.Equal(ev.calls, want) {
		t.Errorf("calls = %v, want %v", ev.calls, want)
	}
}

func TestSubstitutionArgs(t *testing.T) {
	p := pipeAt(t, "x = 1 |> f(%, 2, %) |> g(3)")
	call := p.Body[1].(*ast.CallExpression)
	if got := call.SubstitutionArgs(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("SubstitutionArgs = %v", got)
	}
	if got := p.Body[2].(*ast.CallExpression).SubstitutionArgs(); len(got) != 0 {
		t.Errorf("g(3) has no substitution, got %v", got)
	}
}
