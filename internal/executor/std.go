package executor

import (
	"context"
	"math"

	"github.com/DeusData/kcl-ast/internal/ast"
)

// dslStdlib holds standard functions written in KCL itself.
var dslStdlib = map[string]string{
	"double": "fn double = (x) => {\n  return x * 2\n}\n",
	"hypot":  "fn hypot = (a, b) => {\n  return sqrt(a * a + b * b)\n}\n",
	"clamp":  "fn clamp = (x, lo, hi) => {\n  return min(max(x, lo), hi)\n}\n",
}

func unary(name string, f func(float64) float64) *NativeFunction {
	return NewNativeFunction(name, 1, 1, func(_ context.Context, _ *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
		x, err := AsNumber(args[0], argRange(args[0], r))
		if err != nil {
			return nil, err
		}
		return number(f(x), r), nil
	})
}

func fold(name string, f func(a, b float64) float64) *NativeFunction {
	return NewNativeFunction(name, 1, -1, func(_ context.Context, _ *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
		acc, err := AsNumber(args[0], argRange(args[0], r))
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			x, err := AsNumber(a, argRange(a, r))
			if err != nil {
				return nil, err
			}
			acc = f(acc, x)
		}
		return number(acc, r), nil
	})
}

// argRange is the first source range of v, or fallback.
func argRange(v KclValue, fallback ast.SourceRange) ast.SourceRange {
	if rs := v.Ranges(); len(rs) > 0 {
		return rs[0]
	}
	return fallback
}

func asFunction(v KclValue, r ast.SourceRange) (Function, error) {
	if fv, ok := v.(*FunctionValue); ok {
		return fv.Func, nil
	}
	return nil, newError(ErrType, r, "Expected a function but found %s", v.TypeName())
}

func invoke(ctx context.Context, st *ExecState, f Function, args []KclValue, r ast.SourceRange) (KclValue, error) {
	if err := checkArity(f, len(args), r); err != nil {
		return nil, err
	}
	return f.Call(ctx, st, args, r)
}

func nativeStdlib() []Function {
	return []Function{
		unary("abs", math.Abs),
		unary("sqrt", math.Sqrt),
		unary("floor", math.Floor),
		unary("ceil", math.Ceil),
		unary("round", math.Round),
		unary("cos", math.Cos),
		unary("sin", math.Sin),
		unary("tan", math.Tan),
		unary("toRadians", func(d float64) float64 { return d * math.Pi / 180 }),
		unary("toDegrees", func(r float64) float64 { return r * 180 / math.Pi }),
		fold("min", math.Min),
		fold("max", math.Max),
		NewNativeFunction("pow", 2, 2, func(_ context.Context, _ *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
			b, err := AsNumber(args[0], argRange(args[0], r))
			if err != nil {
				return nil, err
			}
			x, err := AsNumber(args[1], argRange(args[1], r))
			if err != nil {
				return nil, err
			}
			return number(math.Pow(b, x), r), nil
		}),
		NewNativeFunction("pi", 0, 0, func(_ context.Context, _ *ExecState, _ []KclValue, r ast.SourceRange) (KclValue, error) {
			return number(math.Pi, r), nil
		}),
		NewNativeFunction("len", 1, 1, stdLen),
		NewNativeFunction("push", 2, 2, func(_ context.Context, _ *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
			arr, err := AsArray(args[0], argRange(args[0], r))
			if err != nil {
				return nil, err
			}
			out := make([]KclValue, len(arr), len(arr)+1)
			copy(out, arr)
			return &UserVal{Value: append(out, args[1]), Meta: []ast.SourceRange{r}}, nil
		}),
		NewNativeFunction("map", 2, 2, stdMap),
		NewNativeFunction("reduce", 3, 3, stdReduce),
	}
}

func stdLen(_ context.Context, _ *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
	if u, ok := args[0].(*UserVal); ok {
		switch x := u.Value.(type) {
		case []KclValue:
			return number(float64(len(x)), r), nil
		case map[string]KclValue:
			return number(float64(len(x)), r), nil
		case string:
			return number(float64(len(x)), r), nil
		}
	}
	return nil, newError(ErrType, argRange(args[0], r), "Cannot take the length of %s", args[0].TypeName())
}

// map(array, fn) applies fn to every element.
func stdMap(ctx context.Context, st *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
	arr, err := AsArray(args[0], argRange(args[0], r))
	if err != nil {
		return nil, err
	}
	f, err := asFunction(args[1], argRange(args[1], r))
	if err != nil {
		return nil, err
	}
	out := make([]KclValue, 0, len(arr))
	for _, el := range arr {
		v, err := invoke(ctx, st, f, []KclValue{el}, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return &UserVal{Value: out, Meta: []ast.SourceRange{r}}, nil
}

// reduce(array, start, fn) folds the array left to right with fn(element, acc).
func stdReduce(ctx context.Context, st *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
	arr, err := AsArray(args[0], argRange(args[0], r))
	if err != nil {
		return nil, err
	}
	f, err := asFunction(args[2], argRange(args[2], r))
	if err != nil {
		return nil, err
	}
	acc := args[1]
	for _, el := range arr {
		acc, err = invoke(ctx, st, f, []KclValue{el, acc}, r)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
