package executor

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/DeusData/kcl-ast/internal/ast"
)

// KclValue is the result of evaluating an expression: *UserVal,
// *TagIdentifier or *FunctionValue.
type KclValue interface {
	// TypeName is the human readable type used in error messages.
	TypeName() string
	Ranges() []ast.SourceRange
}

// UserVal holds plain data. Value is one of nil, float64, string, bool,
// []KclValue or map[string]KclValue.
type UserVal struct {
	Value any
	Meta  []ast.SourceRange
}

func (v *UserVal) Ranges() []ast.SourceRange { return v.Meta }

func (v *UserVal) TypeName() string {
	switch v.Value.(type) {
	case nil:
		return "none"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []KclValue:
		return "array"
	case map[string]KclValue:
		return "object"
	}
	return fmt.Sprintf("%T", v.Value)
}

func (v *UserVal) MarshalJSON() ([]byte, error) {
	switch x := v.Value.(type) {
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return json.Marshal(fmt.Sprint(x))
		}
	}
	return json.Marshal(v.Value)
}

// TagIdentifier is the value of a $tag declarator.
type TagIdentifier struct {
	Name string
	Meta []ast.SourceRange
}

func (t *TagIdentifier) Ranges() []ast.SourceRange { return t.Meta }
func (t *TagIdentifier) TypeName() string         { return "tag" }

func (t *TagIdentifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"type": "TagIdentifier", "value": t.Name})
}

// FunctionValue wraps a callable.
type FunctionValue struct {
	Func Function
	Meta []ast.SourceRange
}

func (f *FunctionValue) Ranges() []ast.SourceRange { return f.Meta }
func (f *FunctionValue) TypeName() string         { return "function" }

func (f *FunctionValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"type": "Function", "name": f.Func.Name(), "kind": f.Func.Kind().String()})
}

func none(r ast.SourceRange) *UserVal {
	return &UserVal{Meta: []ast.SourceRange{r}}
}

func number(f float64, r ast.SourceRange) *UserVal {
	return &UserVal{Value: f, Meta: []ast.SourceRange{r}}
}

func literalValue(l *ast.Literal) *UserVal {
	var v any
	switch l.Value.Kind {
	case ast.LiteralNumber:
		v = l.Value.Number
	case ast.LiteralString:
		v = l.Value.Str
	case ast.LiteralBool:
		v = l.Value.Bool
	}
	return &UserVal{Value: v, Meta: []ast.SourceRange{l.Range()}}
}

// AsNumber extracts a number or reports a type error located at r.
func AsNumber(v KclValue, r ast.SourceRange) (float64, error) {
	if u, ok := v.(*UserVal); ok {
		if f, ok := u.Value.(float64); ok {
			return f, nil
		}
	}
	return 0, newError(ErrType, r, "Expected a number but found %s", v.TypeName())
}

// AsArray extracts an array or reports a type error located at r.
func AsArray(v KclValue, r ast.SourceRange) ([]KclValue, error) {
	if u, ok := v.(*UserVal); ok {
		if a, ok := u.Value.([]KclValue); ok {
			return a, nil
		}
	}
	return nil, newError(ErrType, r, "Expected an array but found %s", v.TypeName())
}

func asBool(v KclValue, r ast.SourceRange) (bool, error) {
	if u, ok := v.(*UserVal); ok {
		if b, ok := u.Value.(bool); ok {
			return b, nil
		}
	}
	return false, newError(ErrType, r, "Expected a boolean but found %s", v.TypeName())
}

// scalarEqual compares none, numbers, strings, booleans and tags.
func scalarEqual(a, b KclValue, r ast.SourceRange) (bool, error) {
	if ta, ok := a.(*TagIdentifier); ok {
		tb, ok := b.(*TagIdentifier)
		return ok && ta.Name == tb.Name, nil
	}
	ua, okA := a.(*UserVal)
	ub, okB := b.(*UserVal)
	if !okA || !okB {
		return false, newError(ErrSemantic, r, "Cannot compare %s with %s", a.TypeName(), b.TypeName())
	}
	switch ua.Value.(type) {
	case []KclValue, map[string]KclValue:
		return false, newError(ErrSemantic, r, "Cannot compare %s values", ua.TypeName())
	}
	switch ub.Value.(type) {
	case []KclValue, map[string]KclValue:
		return false, newError(ErrSemantic, r, "Cannot compare %s values", ub.TypeName())
	}
	return ua.Value == ub.Value, nil
}
