package ast

import (
	"encoding/json"
	"fmt"
)

// FnArgPrimitive is a primitive parameter type annotation.
type FnArgPrimitive string

const (
	PrimString        FnArgPrimitive = "string"
	PrimNumber        FnArgPrimitive = "number"
	PrimBoolean       FnArgPrimitive = "boolean"
	PrimTag           FnArgPrimitive = "tag"
	PrimSketch        FnArgPrimitive = "sketch"
	PrimSketchSurface FnArgPrimitive = "sketch_surface"
	PrimSolid         FnArgPrimitive = "solid"
)

// ParsePrimitive maps a type name as written in source to a primitive.
func ParsePrimitive(s string) (FnArgPrimitive, bool) {
	switch s {
	case "string":
		return PrimString, true
	case "number":
		return PrimNumber, true
	case "bool", "boolean":
		return PrimBoolean, true
	case "tag":
		return PrimTag, true
	case "Sketch", "sketch":
		return PrimSketch, true
	case "SketchSurface", "sketch_surface":
		return PrimSketchSurface, true
	case "Solid", "solid":
		return PrimSolid, true
	}
	return "", false
}

// FnArgTypeKind selects which field of FnArgType is meaningful.
type FnArgTypeKind int

const (
	ArgPrimitive FnArgTypeKind = iota
	ArgArray
	ArgObject
)

// FnArgType is a parameter or return type annotation.
type FnArgType struct {
	Kind      FnArgTypeKind
	Primitive FnArgPrimitive // ArgPrimitive and ArgArray element type
	Fields    []*Parameter   // ArgObject
}

func (t *FnArgType) String() string {
	switch t.Kind {
	case ArgArray:
		return string(t.Primitive) + "[]"
	case ArgObject:
		s := "{"
		for i, f := range t.Fields {
			if i > 0 {
				s += ", "
			}
			s += f.Identifier.Name
			if f.Type != nil {
				s += ": " + f.Type.String()
			}
		}
		return s + "}"
	}
	return string(t.Primitive)
}

var argTypeKindNames = map[FnArgTypeKind]string{
	ArgPrimitive: "Primitive",
	ArgArray:     "Array",
	ArgObject:    "Object",
}

type argTypeJSON struct {
	Type       string         `json:"type"`
	Primitive  FnArgPrimitive `json:"primitive,omitempty"`
	Properties []*Parameter   `json:"properties,omitempty"`
}

// MarshalJSON tags the annotation with its kind: Primitive and Array carry
// the primitive, Object carries its properties.
func (t *FnArgType) MarshalJSON() ([]byte, error) {
	name, ok := argTypeKindNames[t.Kind]
	if !ok {
		return nil, fmt.Errorf("marshal arg type: unknown kind %d", t.Kind)
	}
	out := argTypeJSON{Type: name}
	if t.Kind == ArgObject {
		out.Properties = t.Fields
	} else {
		out.Primitive = t.Primitive
	}
	return json.Marshal(out)
}

func (t *FnArgType) UnmarshalJSON(data []byte) error {
	var in argTypeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Type {
	case "Primitive":
		*t = FnArgType{Kind: ArgPrimitive, Primitive: in.Primitive}
	case "Array":
		*t = FnArgType{Kind: ArgArray, Primitive: in.Primitive}
	case "Object":
		*t = FnArgType{Kind: ArgObject, Fields: in.Properties}
	default:
		return fmt.Errorf("unmarshal arg type: unknown type %q", in.Type)
	}
	return nil
}

// Parameter is one declared parameter of a function expression.
type Parameter struct {
	Identifier *Identifier `json:"identifier"`
	Type       *FnArgType  `json:"argType,omitempty"`
	Optional   bool        `json:"optional"`
	Digest     *Digest     `json:"digest,omitempty"`
}

// Range is the range of the parameter's identifier.
func (p *Parameter) Range() SourceRange { return p.Identifier.Range() }

// RequiredParamAfterOptionalParamError reports a required parameter declared
// after an optional one.
type RequiredParamAfterOptionalParamError struct {
	Param *Parameter
}

func (e *RequiredParamAfterOptionalParamError) Error() string {
	return fmt.Sprintf("KCL functions must declare any optional parameters after all the required parameters. "+
		"But your required parameter %s is _after_ an optional parameter. "+
		"You must move it to before the optional parameters instead.", e.Param.Identifier.Name)
}

// RequiredAndOptionalParams splits the parameter list, failing when a required
// parameter follows an optional one.
func (f *FunctionExpression) RequiredAndOptionalParams() (required, optional []*Parameter, err error) {
	foundOptional := false
	for _, p := range f.Params {
		if p.Optional {
			foundOptional = true
			optional = append(optional, p)
			continue
		}
		if foundOptional {
			return nil, nil, &RequiredParamAfterOptionalParamError{Param: p}
		}
		required = append(required, p)
	}
	return required, optional, nil
}

// RequiredParams returns the leading non-optional parameters.
func (f *FunctionExpression) RequiredParams() []*Parameter {
	var out []*Parameter
	for _, p := range f.Params {
		if p.Optional {
			break
		}
		out = append(out, p)
	}
	return out
}

// NumberOfArgs returns the minimum and maximum argument count the function accepts.
func (f *FunctionExpression) NumberOfArgs() (minArgs, maxArgs int) {
	return len(f.RequiredParams()), len(f.Params)
}
