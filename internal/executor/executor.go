package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path"
	"sort"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
)

const (
	maxCallDepth   = 512
	maxRangeLength = 1 << 20
)

// Executor evaluates programs against a registry of standard functions.
// An Executor is safe for concurrent use once construction is done; every
// ExecuteProgram call works on its own ExecState.
type Executor struct {
	std      map[string]Function
	importFS fs.FS
}

// Option configures an Executor.
type Option func(*Executor)

// WithImportFS resolves import paths against fsys. Without it, import
// statements fail.
func WithImportFS(fsys fs.FS) Option {
	return func(e *Executor) { e.importFS = fsys }
}

// NewExecutor returns an executor with the standard library registered.
func NewExecutor(opts ...Option) (*Executor, error) {
	e := &Executor{std: make(map[string]Function)}
	for _, o := range opts {
		o(e)
	}
	for _, f := range nativeStdlib() {
		if err := e.Register(f); err != nil {
			return nil, err
		}
	}
	for name, src := range dslStdlib {
		f, err := NewDSLFunction(name, src)
		if err != nil {
			return nil, err
		}
		if err := e.Register(f); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register adds f to the standard library. Names must be unique.
func (e *Executor) Register(f Function) error {
	if _, ok := e.std[f.Name()]; ok {
		return fmt.Errorf("register %s: already defined", f.Name())
	}
	e.std[f.Name()] = f
	return nil
}

// Lookup returns the standard function registered under name.
func (e *Executor) Lookup(name string) (Function, bool) {
	f, ok := e.std[name]
	return f, ok
}

// StdNames lists the registered standard functions, sorted.
func (e *Executor) StdNames() []string {
	names := make([]string, 0, len(e.std))
	for n := range e.std {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ExecState is the mutable state of one program run.
type ExecState struct {
	// Memory is the top-level scope of the program.
	Memory *ProgramMemory
	// Exports lists the names declared with export, in order.
	Exports []string
	// Return is the value of a top-level return statement, if any.
	Return KclValue

	exec      *Executor
	pipeValue KclValue
	depth     int
	importing []string
}

// ExecuteProgram runs prog to completion and returns the final state.
func (e *Executor) ExecuteProgram(ctx context.Context, prog *ast.Program) (*ExecState, error) {
	st := &ExecState{Memory: NewProgramMemory(), exec: e}
	if err := e.run(ctx, st, prog); err != nil {
		return st, err
	}
	return st, nil
}

func (e *Executor) run(ctx context.Context, st *ExecState, prog *ast.Program) error {
	slog.Debug("executor.run", "items", len(prog.Body))
	ret, returned, err := e.runBody(ctx, st, prog, st.Memory)
	if err != nil {
		return err
	}
	if returned {
		st.Return = ret
	}
	return nil
}

// runBody executes the statements of prog in mem. It returns the value of
// the first return statement, or else the value of a trailing expression
// statement.
func (e *Executor) runBody(ctx context.Context, st *ExecState, prog *ast.Program, mem *ProgramMemory) (KclValue, bool, error) {
	var last KclValue
	for _, item := range prog.Body {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		last = nil
		switch it := item.(type) {
		case *ast.ImportStatement:
			if err := e.runImport(ctx, st, it, mem); err != nil {
				return nil, false, err
			}
		case *ast.ExpressionStatement:
			v, err := e.evaluate(ctx, st, mem, it.Expression)
			if err != nil {
				return nil, false, err
			}
			last = v
		case *ast.VariableDeclaration:
			for _, d := range it.Declarations {
				v, err := e.evaluate(ctx, st, mem, d.Init)
				if err != nil {
					return nil, false, err
				}
				if fv, ok := v.(*FunctionValue); ok {
					if f, ok := fv.Func.(*InMemoryFunction); ok && f.name == "" {
						f.name = d.ID.Name
					}
				}
				if err := mem.Add(d.ID.Name, v, d.ID.Range()); err != nil {
					return nil, false, err
				}
				if it.Visibility == ast.VisibilityExport && mem == st.Memory {
					st.Exports = append(st.Exports, d.ID.Name)
				}
			}
		case *ast.ReturnStatement:
			v, err := e.evaluate(ctx, st, mem, it.Argument)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		}
	}
	return last, false, nil
}

func (e *Executor) runImport(ctx context.Context, st *ExecState, imp *ast.ImportStatement, mem *ProgramMemory) error {
	r := imp.Range()
	if e.importFS == nil {
		return newError(ErrSemantic, r, "Cannot import %q: no import filesystem configured", imp.Path)
	}
	p := path.Clean(imp.Path)
	for _, open := range st.importing {
		if open == p {
			return newError(ErrSemantic, r, "Circular import of %q", imp.Path)
		}
	}
	data, err := fs.ReadFile(e.importFS, p)
	if err != nil {
		return newError(ErrSemantic, r, "Cannot read %q: %v", imp.Path, err)
	}
	prog, err := parser.Parse(string(data))
	if err != nil {
		return newError(ErrSyntax, r, "Cannot parse %q: %v", imp.Path, err)
	}
	sub := &ExecState{Memory: NewProgramMemory(), exec: e, importing: append(append([]string(nil), st.importing...), p)}
	slog.Debug("executor.import", "path", p, "items", len(imp.Items))
	if err := e.run(ctx, sub, prog); err != nil {
		return fmt.Errorf("import %s: %w", imp.Path, err)
	}
	exported := make(map[string]bool, len(sub.Exports))
	for _, n := range sub.Exports {
		exported[n] = true
	}
	for _, item := range imp.Items {
		name := item.Name.Name
		if !exported[name] {
			return newError(ErrSemantic, item.Range(), "Cannot import non-exported symbol `%s` from %q", name, imp.Path)
		}
		v, _ := sub.Memory.Get(name)
		if err := mem.Add(item.Identifier(), v, item.Range()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) evaluate(ctx context.Context, st *ExecState, mem *ProgramMemory, expr ast.Expr) (KclValue, error) {
	r := expr.Range()
	switch x := expr.(type) {
	case *ast.Literal:
		return literalValue(x), nil
	case *ast.None:
		return none(r), nil
	case *ast.TagDeclarator:
		return &TagIdentifier{Name: x.Name, Meta: []ast.SourceRange{r}}, nil
	case *ast.Identifier:
		return e.lookup(mem, x)
	case *ast.PipeSubstitution:
		if st.pipeValue == nil {
			return nil, newError(ErrSemantic, r, "Cannot use %% outside a pipe expression")
		}
		return st.pipeValue, nil
	case *ast.BinaryExpression:
		return e.evalBinary(ctx, st, mem, x)
	case *ast.UnaryExpression:
		return e.evalUnary(ctx, st, mem, x)
	case *ast.FunctionExpression:
		return &FunctionValue{Func: &InMemoryFunction{expr: x, closure: mem}, Meta: []ast.SourceRange{r}}, nil
	case *ast.CallExpression:
		return e.evalCall(ctx, st, mem, x)
	case *ast.PipeExpression:
		v, err := ast.EvaluatePipe[KclValue](ctx, x, &pipeEvaluator{exec: e, st: st, mem: mem})
		if err != nil {
			return nil, err
		}
		return v, nil
	case *ast.ArrayExpression:
		out := make([]KclValue, 0, len(x.Elements))
		for _, el := range x.Elements {
			v, err := e.evaluate(ctx, st, mem, el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return &UserVal{Value: out, Meta: []ast.SourceRange{r}}, nil
	case *ast.ArrayRangeExpression:
		return e.evalRange(ctx, st, mem, x)
	case *ast.ObjectExpression:
		out := make(map[string]KclValue, len(x.Properties))
		for _, p := range x.Properties {
			v, err := e.evaluate(ctx, st, mem, p.Value)
			if err != nil {
				return nil, err
			}
			out[p.Key.Name] = v
		}
		return &UserVal{Value: out, Meta: []ast.SourceRange{r}}, nil
	case *ast.MemberExpression:
		return e.evalMember(ctx, st, mem, x)
	case *ast.IfExpression:
		return e.evalIf(ctx, st, mem, x)
	}
	return nil, newError(ErrInternal, r, "Cannot evaluate %T", expr)
}

func (e *Executor) lookup(mem *ProgramMemory, id *ast.Identifier) (KclValue, error) {
	if v, ok := mem.Get(id.Name); ok {
		return v, nil
	}
	if f, ok := e.std[id.Name]; ok {
		return &FunctionValue{Func: f, Meta: []ast.SourceRange{id.Range()}}, nil
	}
	return nil, newError(ErrUndefinedValue, id.Range(), "memory item key `%s` is not defined", id.Name)
}

func (e *Executor) evalCall(ctx context.Context, st *ExecState, mem *ProgramMemory, call *ast.CallExpression) (KclValue, error) {
	return e.callWith(ctx, st, mem, call, nil)
}

// callWith evaluates call, taking the arguments at the indexes in bound as
// already evaluated.
func (e *Executor) callWith(ctx context.Context, st *ExecState, mem *ProgramMemory, call *ast.CallExpression, bound map[int]KclValue) (KclValue, error) {
	r := call.Range()
	callee, err := e.lookup(mem, call.Callee)
	if err != nil {
		return nil, err
	}
	fv, ok := callee.(*FunctionValue)
	if !ok {
		return nil, newError(ErrSemantic, call.Callee.Range(), "`%s` is %s, not a function", call.Callee.Name, callee.TypeName())
	}
	args := make([]KclValue, 0, len(call.Arguments))
	for i, a := range call.Arguments {
		if v, ok := bound[i]; ok {
			args = append(args, v)
			continue
		}
		v, err := e.evaluate(ctx, st, mem, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if err := checkArity(fv.Func, len(args), r); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if st.depth >= maxCallDepth {
		return nil, newError(ErrSemantic, r, "Call stack exceeded %d frames in `%s`", maxCallDepth, call.Callee.Name)
	}
	st.depth++
	defer func() { st.depth-- }()
	slog.Debug("executor.call", "fn", fv.Func.Name(), "kind", fv.Func.Kind().String(), "args", len(args))
	return fv.Func.Call(ctx, st, args, r)
}

// callFunctionExpr binds args to the parameters of fn in a child of closure
// and runs its body. A missing optional argument is none.
func (e *Executor) callFunctionExpr(ctx context.Context, st *ExecState, fn *ast.FunctionExpression, closure *ProgramMemory, args []KclValue, r ast.SourceRange) (KclValue, error) {
	fnMem := closure.Child()
	for i, p := range fn.Params {
		var v KclValue
		switch {
		case i < len(args):
			v = args[i]
		case p.Optional:
			v = none(p.Range())
		default:
			return nil, newError(ErrSemantic, r, "Missing required argument `%s`", p.Identifier.Name)
		}
		if err := fnMem.Add(p.Identifier.Name, v, p.Range()); err != nil {
			return nil, err
		}
	}
	saved := st.pipeValue
	st.pipeValue = nil
	defer func() { st.pipeValue = saved }()
	ret, returned, err := e.runBody(ctx, st, fn.Body, fnMem)
	if err != nil {
		return nil, err
	}
	if !returned {
		return none(r), nil
	}
	return ret, nil
}

type pipeEvaluator struct {
	exec *Executor
	st   *ExecState
	mem  *ProgramMemory
}

func (p *pipeEvaluator) EvaluateHead(ctx context.Context, head ast.Expr) (KclValue, error) {
	return p.exec.evaluate(ctx, p.st, p.mem, head)
}

// EvaluateStage binds prev to the stage's direct substitution arguments. A %
// nested inside an argument, as in f([%, 1]), reads it from the state.
func (p *pipeEvaluator) EvaluateStage(ctx context.Context, stage *ast.CallExpression, prev KclValue) (KclValue, error) {
	sites := stage.SubstitutionArgs()
	bound := make(map[int]KclValue, len(sites))
	for _, i := range sites {
		bound[i] = prev
	}
	saved := p.st.pipeValue
	p.st.pipeValue = prev
	defer func() { p.st.pipeValue = saved }()
	return p.exec.callWith(ctx, p.st, p.mem, stage, bound)
}

func (e *Executor) evalBinary(ctx context.Context, st *ExecState, mem *ProgramMemory, b *ast.BinaryExpression) (KclValue, error) {
	r := b.Range()
	left, err := e.evaluate(ctx, st, mem, b.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.evaluate(ctx, st, mem, b.Right)
	if err != nil {
		return nil, err
	}
	switch b.Operator {
	case ast.OpEq, ast.OpNeq:
		eq, err := scalarEqual(left, right, r)
		if err != nil {
			return nil, err
		}
		return &UserVal{Value: eq == (b.Operator == ast.OpEq), Meta: []ast.SourceRange{r}}, nil
	case ast.OpAdd:
		if ls, ok := stringOf(left); ok {
			rs, ok := stringOf(right)
			if !ok {
				return nil, newError(ErrType, b.Right.Range(), "Cannot add %s to a string", right.TypeName())
			}
			return &UserVal{Value: ls + rs, Meta: []ast.SourceRange{r}}, nil
		}
	}
	l, err := AsNumber(left, b.Left.Range())
	if err != nil {
		return nil, err
	}
	rv, err := AsNumber(right, b.Right.Range())
	if err != nil {
		return nil, err
	}
	var out any
	switch b.Operator {
	case ast.OpAdd:
		out = l + rv
	case ast.OpSub:
		out = l - rv
	case ast.OpMul:
		out = l * rv
	case ast.OpDiv:
		out = l / rv
	case ast.OpMod:
		out = math.Mod(l, rv)
	case ast.OpPow:
		out = math.Pow(l, rv)
	case ast.OpGt:
		out = l > rv
	case ast.OpGte:
		out = l >= rv
	case ast.OpLt:
		out = l < rv
	case ast.OpLte:
		out = l <= rv
	default:
		return nil, newError(ErrInternal, r, "Unknown operator %q", b.Operator)
	}
	return &UserVal{Value: out, Meta: []ast.SourceRange{r}}, nil
}

func stringOf(v KclValue) (string, bool) {
	u, ok := v.(*UserVal)
	if !ok {
		return "", false
	}
	s, ok := u.Value.(string)
	return s, ok
}

func (e *Executor) evalUnary(ctx context.Context, st *ExecState, mem *ProgramMemory, u *ast.UnaryExpression) (KclValue, error) {
	r := u.Range()
	v, err := e.evaluate(ctx, st, mem, u.Argument)
	if err != nil {
		return nil, err
	}
	if u.Operator == ast.OpNot {
		b, err := asBool(v, u.Argument.Range())
		if err != nil {
			return nil, err
		}
		return &UserVal{Value: !b, Meta: []ast.SourceRange{r}}, nil
	}
	f, err := AsNumber(v, u.Argument.Range())
	if err != nil {
		return nil, err
	}
	return number(-f, r), nil
}

func (e *Executor) evalRange(ctx context.Context, st *ExecState, mem *ProgramMemory, x *ast.ArrayRangeExpression) (KclValue, error) {
	r := x.Range()
	bounds := [2]int{}
	for i, el := range []ast.Expr{x.StartElement, x.EndElement} {
		v, err := e.evaluate(ctx, st, mem, el)
		if err != nil {
			return nil, err
		}
		f, err := AsNumber(v, el.Range())
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) || math.Abs(f) > maxRangeLength {
			return nil, newError(ErrSemantic, el.Range(), "Range bounds must be integers, found %v", f)
		}
		bounds[i] = int(f)
	}
	end := bounds[1]
	if !x.EndInclusive {
		end--
	}
	if end-bounds[0] >= maxRangeLength {
		return nil, newError(ErrSemantic, r, "Range of %d elements is too large", end-bounds[0]+1)
	}
	out := []KclValue{}
	for i := bounds[0]; i <= end; i++ {
		out = append(out, number(float64(i), r))
	}
	return &UserVal{Value: out, Meta: []ast.SourceRange{r}}, nil
}

func (e *Executor) evalMember(ctx context.Context, st *ExecState, mem *ProgramMemory, m *ast.MemberExpression) (KclValue, error) {
	obj, err := e.evaluate(ctx, st, mem, m.Object)
	if err != nil {
		return nil, err
	}
	var key KclValue
	if id, ok := m.Property.(*ast.Identifier); ok && !m.Computed {
		key = &UserVal{Value: id.Name, Meta: []ast.SourceRange{id.Range()}}
	} else {
		key, err = e.evaluate(ctx, st, mem, m.Property)
		if err != nil {
			return nil, err
		}
	}
	pr := m.Property.Range()
	u, ok := obj.(*UserVal)
	if !ok {
		return nil, newError(ErrSemantic, m.Object.Range(), "Cannot index into %s", obj.TypeName())
	}
	switch container := u.Value.(type) {
	case map[string]KclValue:
		k, ok := stringOf(key)
		if !ok {
			return nil, newError(ErrSemantic, pr, "Object keys must be strings, found %s", key.TypeName())
		}
		v, ok := container[k]
		if !ok {
			return nil, newError(ErrUndefinedValue, pr, "Property `%s` not found in object", k)
		}
		return v, nil
	case []KclValue:
		f, err := AsNumber(key, pr)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) || f < 0 || int(f) >= len(container) {
			return nil, newError(ErrUndefinedValue, pr, "Index %v is out of bounds for array of length %d", f, len(container))
		}
		return container[int(f)], nil
	}
	return nil, newError(ErrSemantic, m.Object.Range(), "Cannot index into %s", obj.TypeName())
}

func (e *Executor) evalIf(ctx context.Context, st *ExecState, mem *ProgramMemory, x *ast.IfExpression) (KclValue, error) {
	branch := x.FinalElse
	conds := []struct {
		cond ast.Expr
		then *ast.Program
	}{{x.Cond, x.ThenVal}}
	for _, ei := range x.ElseIfs {
		conds = append(conds, struct {
			cond ast.Expr
			then *ast.Program
		}{ei.Cond, ei.ThenVal})
	}
	for _, c := range conds {
		v, err := e.evaluate(ctx, st, mem, c.cond)
		if err != nil {
			return nil, err
		}
		ok, err := asBool(v, c.cond.Range())
		if err != nil {
			return nil, err
		}
		if ok {
			branch = c.then
			break
		}
	}
	if branch == nil {
		return none(x.Range()), nil
	}
	v, _, err := e.runBody(ctx, st, branch, mem.Child())
	if err != nil {
		return nil, err
	}
	if v == nil {
		return none(branch.Range()), nil
	}
	return v, nil
}

// IsKind reports whether err is a KclError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ke *KclError
	return errors.As(err, &ke) && ke.Kind == kind
}
