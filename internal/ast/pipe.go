package ast

import (
	"context"
	"fmt"
)

// PipeStageEvaluator is implemented by the executor. EvaluateHead evaluates
// the first stage of a pipe; EvaluateStage evaluates a later stage with prev
// bound to every pipe substitution among the call's arguments.
type PipeStageEvaluator[V any] interface {
	EvaluateHead(ctx context.Context, head Expr) (V, error)
	EvaluateStage(ctx context.Context, stage *CallExpression, prev V) (V, error)
}

// PipeStageError reports the stage of a pipe that failed.
type PipeStageError struct {
	Index int
	Range SourceRange
	Err   error
}

func (e *PipeStageError) Error() string {
	return fmt.Sprintf("pipe stage %d [%d, %d]: %v", e.Index, e.Range[0], e.Range[1], e.Err)
}

func (e *PipeStageError) Unwrap() error { return e.Err }

// EvaluatePipe runs the stages of p in order, feeding each result into the
// next stage. The first failure stops evaluation; later stages never run.
// Cancellation is left to the evaluator.
func EvaluatePipe[V any](ctx context.Context, p *PipeExpression, ev PipeStageEvaluator[V]) (V, error) {
	var zero V
	if len(p.Body) == 0 {
		return zero, &PipeStageError{Index: 0, Range: p.Range(), Err: fmt.Errorf("empty pipe")}
	}
	val, err := ev.EvaluateHead(ctx, p.Body[0])
	if err != nil {
		return zero, &PipeStageError{Index: 0, Range: p.Body[0].Range(), Err: err}
	}
	for i, stage := range p.Body[1:] {
		call, ok := stage.(*CallExpression)
		if !ok {
			return zero, &PipeStageError{Index: i + 1, Range: stage.Range(), Err: fmt.Errorf("pipe stage is %T, not a call", stage)}
		}
		val, err = ev.EvaluateStage(ctx, call, val)
		if err != nil {
			return zero, &PipeStageError{Index: i + 1, Range: call.Range(), Err: err}
		}
	}
	return val, nil
}

// SubstitutionArgs returns the indexes of the arguments that are themselves a
// pipe substitution. The executor binds the previous stage's value there.
func (c *CallExpression) SubstitutionArgs() []int {
	var idx []int
	for i, a := range c.Arguments {
		if _, ok := a.(*PipeSubstitution); ok {
			idx = append(idx, i)
		}
	}
	return idx
}
