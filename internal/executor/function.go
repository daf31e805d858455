package executor

import (
	"context"
	"fmt"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
)

// FunctionKind says where a function is implemented.
type FunctionKind int

const (
	// FuncNative is implemented in Go.
	FuncNative FunctionKind = iota
	// FuncDSL is a standard library function written in KCL.
	FuncDSL
	// FuncInMemory is a function literal evaluated by the running program.
	FuncInMemory
)

func (k FunctionKind) String() string {
	switch k {
	case FuncNative:
		return "native"
	case FuncDSL:
		return "dsl"
	case FuncInMemory:
		return "in_memory"
	}
	return "unknown"
}

// Function is anything a call expression can invoke. Arity returns the
// accepted argument count range; max is -1 when unbounded.
type Function interface {
	Name() string
	Arity() (minArgs, maxArgs int)
	Kind() FunctionKind
	Call(ctx context.Context, st *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error)
}

// FunctionsEqual reports whether two functions are interchangeable. Native
// and DSL functions are equal when they have the same kind and name. In-memory
// functions are all equal to each other and to nothing else.
func FunctionsEqual(a, b Function) bool {
	if a.Kind() == FuncInMemory || b.Kind() == FuncInMemory {
		return a.Kind() == b.Kind()
	}
	return a.Kind() == b.Kind() && a.Name() == b.Name()
}

// NativeFn is the Go implementation of a native function.
type NativeFn func(ctx context.Context, st *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error)

// NativeFunction is a standard library function implemented in Go.
type NativeFunction struct {
	name    string
	minArgs int
	maxArgs int
	fn      NativeFn
}

// NewNativeFunction registers fn under name. maxArgs of -1 means variadic.
func NewNativeFunction(name string, minArgs, maxArgs int, fn NativeFn) *NativeFunction {
	return &NativeFunction{name: name, minArgs: minArgs, maxArgs: maxArgs, fn: fn}
}

func (f *NativeFunction) Name() string                  { return f.name }
func (f *NativeFunction) Arity() (minArgs, maxArgs int) { return f.minArgs, f.maxArgs }
func (f *NativeFunction) Kind() FunctionKind            { return FuncNative }

func (f *NativeFunction) Call(ctx context.Context, st *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
	return f.fn(ctx, st, args, r)
}

// DSLFunction is a standard library function whose body is KCL source.
type DSLFunction struct {
	name string
	expr *ast.FunctionExpression
}

// NewDSLFunction parses source, which must declare exactly one function
// named name, e.g. "fn double = (x) => { return x * 2 }".
func NewDSLFunction(name, source string) (*DSLFunction, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("dsl function %s: %w", name, err)
	}
	def := prog.GetVariable(name)
	if def == nil || def.Variable == nil {
		return nil, fmt.Errorf("dsl function %s: source does not declare it", name)
	}
	fn, ok := def.Variable.Init.(*ast.FunctionExpression)
	if !ok {
		return nil, fmt.Errorf("dsl function %s: declared value is %T, not a function", name, def.Variable.Init)
	}
	if _, _, err := fn.RequiredAndOptionalParams(); err != nil {
		return nil, fmt.Errorf("dsl function %s: %w", name, err)
	}
	return &DSLFunction{name: name, expr: fn}, nil
}

func (f *DSLFunction) Name() string { return f.name }

func (f *DSLFunction) Arity() (minArgs, maxArgs int) { return f.expr.NumberOfArgs() }

func (f *DSLFunction) Kind() FunctionKind { return FuncDSL }

// DSL functions close over nothing but the standard library.
func (f *DSLFunction) Call(ctx context.Context, st *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
	return st.exec.callFunctionExpr(ctx, st, f.expr, NewProgramMemory(), args, r)
}

// InMemoryFunction is a function literal together with the scope it was
// evaluated in.
type InMemoryFunction struct {
	name    string
	expr    *ast.FunctionExpression
	closure *ProgramMemory
}

func (f *InMemoryFunction) Name() string { return f.name }

func (f *InMemoryFunction) Arity() (minArgs, maxArgs int) { return f.expr.NumberOfArgs() }

func (f *InMemoryFunction) Kind() FunctionKind { return FuncInMemory }

func (f *InMemoryFunction) Call(ctx context.Context, st *ExecState, args []KclValue, r ast.SourceRange) (KclValue, error) {
	return st.exec.callFunctionExpr(ctx, st, f.expr, f.closure, args, r)
}

// checkArity validates the argument count for a call at r.
func checkArity(f Function, n int, r ast.SourceRange) error {
	minArgs, maxArgs := f.Arity()
	if n < minArgs || (maxArgs >= 0 && n > maxArgs) {
		want := fmt.Sprint(minArgs)
		switch {
		case maxArgs < 0:
			want = fmt.Sprintf("at least %d", minArgs)
		case maxArgs != minArgs:
			want = fmt.Sprintf("%d to %d", minArgs, maxArgs)
		}
		return newError(ErrSemantic, r, "Expected %s arguments, got %d", want, n)
	}
	return nil
}
