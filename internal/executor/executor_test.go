package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
)

func run(t *testing.T, code string, opts ...Option) (*ExecState, error) {
	t.Helper()
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e, err := NewExecutor(opts...)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return e.ExecuteProgram(context.Background(), prog)
}

func mustRun(t *testing.T, code string, opts ...Option) *ExecState {
	t.Helper()
	st, err := run(t, code, opts...)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return st
}

func numberVar(t *testing.T, st *ExecState, name string) float64 {
	t.Helper()
	v, ok := st.Memory.Get(name)
	if !ok {
		t.Fatalf("%s not defined", name)
	}
	f, err := AsNumber(v, ast.SourceRange{})
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return f
}

func TestPipeThreadsValues(t *testing.T) {
	st := mustRun(t, "fn add = (a, b) => {\n  return a + b\n}\nx = 1\n  |> add(%, 2)\n  |> add(3, %)\n")
	if got := numberVar(t, st, "x"); got != 6 {
		t.Errorf("x = %v, want 6", got)
	}
}

func TestPipeSubstitutionInsideArgument(t *testing.T) {
	st := mustRun(t, "fn lead = (arr, k) => {\n  return arr[0] * k\n}\nx = 5\n  |> lead([%, 1], %)\n")
	if got := numberVar(t, st, "x"); got != 25 {
		t.Errorf("x = %v, want 25", got)
	}
}

func TestPipeStageErrorWrapsKclError(t *testing.T) {
	_, err := run(t, "x = 1\n  |> abs(%)\n  |> sqrt(%, 2)\n")
	var pe *ast.PipeStageError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipeStageError, got %v", err)
	}
	if pe.Index != 2 {
		t.Errorf("stage index = %d, want 2", pe.Index)
	}
	var ke *KclError
	if !errors.As(err, &ke) {
		t.Fatalf("expected KclError inside %v", err)
	}
	if ke.Message != "Expected 1 arguments, got 2" {
		t.Errorf("message = %q", ke.Message)
	}
}

func TestSubstitutionOutsidePipe(t *testing.T) {
	_, err := run(t, "y = %\n")
	if !IsKind(err, ErrSemantic) {
		t.Fatalf("expected semantic error, got %v", err)
	}
	if !strings.Contains(err.Error(), "outside a pipe") {
		t.Errorf("error = %v", err)
	}
}

func TestUndefinedValue(t *testing.T) {
	_, err := run(t, "y = z + 1\n")
	var ke *KclError
	if !errors.As(err, &ke) || ke.Kind != ErrUndefinedValue {
		t.Fatalf("expected undefined value, got %v", err)
	}
	if got := ke.SourceRanges[0]; got != (ast.SourceRange{4, 5}) {
		t.Errorf("range = %v, want [4 5]", got)
	}
}

func TestRedefinitionInSameScope(t *testing.T) {
	_, err := run(t, "a = 1\na = 2\n")
	if !IsKind(err, ErrValueAlreadyDefined) {
		t.Fatalf("expected value_already_defined, got %v", err)
	}
}

func TestShadowingInFunctionScope(t *testing.T) {
	st := mustRun(t, "a = 1\nfn f = (a) => {\n  return a * 10\n}\nb = f(5)\n")
	if got := numberVar(t, st, "b"); got != 50 {
		t.Errorf("b = %v, want 50", got)
	}
}

func TestStdlib(t *testing.T) {
	st := mustRun(t, "a = double(4)\nb = hypot(3, 4)\nc = clamp(12, 0, 10)\nd = len([1, 2, 3])\ne = max(1, 7, 3)\nf = round(toDegrees(pi()))\n")
	want := map[string]float64{"a": 8, "b": 5, "c": 10, "d": 3, "e": 7, "f": 180}
	for name, w := range want {
		if got := numberVar(t, st, name); got != w {
			t.Errorf("%s = %v, want %v", name, got, w)
		}
	}
}

func TestMapReduceWithClosures(t *testing.T) {
	st := mustRun(t, "k = 2\nscale = (x) => {\n  return x * k\n}\ntotal = reduce(map([1 .. 3], scale), 0, (el, acc) => {\n  return el + acc\n})\n")
	if got := numberVar(t, st, "total"); got != 12 {
		t.Errorf("total = %v, want 12", got)
	}
}

func TestArityMessages(t *testing.T) {
	_, err := run(t, "y = abs(1, 2)\n")
	var ke *KclError
	if !errors.As(err, &ke) {
		t.Fatalf("expected KclError, got %v", err)
	}
	if ke.Message != "Expected 1 arguments, got 2" {
		t.Errorf("message = %q", ke.Message)
	}
	_, err = run(t, "fn f = (a, b?) => {\n  return a\n}\ny = f()\n")
	if !errors.As(err, &ke) || ke.Message != "Expected 1 to 2 arguments, got 0" {
		t.Errorf("optional arity: %v", err)
	}
}

func TestOptionalParamIsNone(t *testing.T) {
	st := mustRun(t, "fn f = (a, b?) => {\n  return b\n}\ny = f(1)\n")
	v, _ := st.Memory.Get("y")
	if u, ok := v.(*UserVal); !ok || u.Value != nil || u.TypeName() != "none" {
		t.Errorf("y = %#v, want none", v)
	}
}

func TestMembersAndIf(t *testing.T) {
	st := mustRun(t, "obj = { a: [10, 20], b: 'x' }\nv = obj.a[1]\nw = if v > 15 {\n  1\n} else if v > 5 {\n  2\n} else {\n  3\n}\ns = obj['b'] + 'y'\n")
	if got := numberVar(t, st, "v"); got != 20 {
		t.Errorf("v = %v, want 20", got)
	}
	if got := numberVar(t, st, "w"); got != 1 {
		t.Errorf("w = %v, want 1", got)
	}
	v, _ := st.Memory.Get("s")
	if s, _ := stringOf(v); s != "xy" {
		t.Errorf("s = %q, want xy", s)
	}
}

func TestIndexOutOfBounds(t *testing.T) {
	_, err := run(t, "a = [1]\nb = a[3]\n")
	if !IsKind(err, ErrUndefinedValue) {
		t.Fatalf("expected undefined value, got %v", err)
	}
}

func TestRecursionDepthLimit(t *testing.T) {
	_, err := run(t, "fn loop = (n) => {\n  return loop(n + 1)\n}\nx = loop(0)\n")
	if !IsKind(err, ErrSemantic) || !strings.Contains(err.Error(), "Call stack exceeded") {
		t.Fatalf("expected call stack error, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	prog, err := parser.Parse("x = 1\n")
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewExecutor()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.ExecuteProgram(ctx, prog); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestImportsExportedNames(t *testing.T) {
	fsys := fstest.MapFS{
		"lib.kcl": {Data: []byte("export fn triple = (x) => {\n  return x * 3\n}\nhidden = 1\n")},
	}
	st := mustRun(t, "import triple as t from \"lib.kcl\"\ny = t(2)\n", WithImportFS(fsys))
	if got := numberVar(t, st, "y"); got != 6 {
		t.Errorf("y = %v, want 6", got)
	}
	_, err := run(t, "import hidden from \"lib.kcl\"\n", WithImportFS(fsys))
	if !IsKind(err, ErrSemantic) {
		t.Fatalf("expected semantic error importing hidden, got %v", err)
	}
	if _, err := run(t, "import triple from \"lib.kcl\"\n"); !IsKind(err, ErrSemantic) {
		t.Fatalf("expected semantic error without import fs, got %v", err)
	}
}

func TestFunctionsEqual(t *testing.T) {
	e, err := NewExecutor()
	if err != nil {
		t.Fatal(err)
	}
	abs1, _ := e.Lookup("abs")
	abs2 := NewNativeFunction("abs", 1, 1, nil)
	sqrt, _ := e.Lookup("sqrt")
	double, _ := e.Lookup("double")
	dslAbs, err := NewDSLFunction("abs", "fn abs = (x) => {\n  return x\n}\n")
	if err != nil {
		t.Fatal(err)
	}
	lit := &InMemoryFunction{name: "a"}
	other := &InMemoryFunction{name: "b"}

	if !FunctionsEqual(abs1, abs2) {
		t.Error("native functions with the same name should be equal")
	}
	if FunctionsEqual(abs1, sqrt) {
		t.Error("native functions with different names should differ")
	}
	if FunctionsEqual(abs1, dslAbs) {
		t.Error("native and dsl functions should differ")
	}
	if FunctionsEqual(double, lit) {
		t.Error("dsl and in-memory functions should differ")
	}
	if !FunctionsEqual(lit, other) {
		t.Error("in-memory functions should be equal to each other")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	e, err := NewExecutor()
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Register(NewNativeFunction("abs", 1, 1, nil)); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	names := e.StdNames()
	if len(names) == 0 || names[0] != "abs" {
		t.Errorf("StdNames = %v", names)
	}
}

func TestTopLevelReturnAndExports(t *testing.T) {
	st := mustRun(t, "export a = 1\nb = 2\nreturn a + b\n")
	if len(st.Exports) != 1 || st.Exports[0] != "a" {
		t.Errorf("exports = %v", st.Exports)
	}
	f, err := AsNumber(st.Return, ast.SourceRange{})
	if err != nil || f != 3 {
		t.Errorf("return = %v (%v)", st.Return, err)
	}
}
