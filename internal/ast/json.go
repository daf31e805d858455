package ast

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Every tagged node serializes with a "type" field naming its variant.
// Interface-typed fields are decoded by peeking at that field.

func withType(tag string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) < 2 || b[0] != '{' {
		return b, nil
	}
	out := make([]byte, 0, len(b)+len(tag)+12)
	out = append(out, `{"type":`...)
	out = strconv.AppendQuote(out, tag)
	if len(b) > 2 {
		out = append(out, ',')
	}
	return append(out, b[1:]...), nil
}

func (n *ImportStatement) MarshalJSON() ([]byte, error) {
	type alias ImportStatement
	return withType("ImportStatement", (*alias)(n))
}

func (n *ImportItem) MarshalJSON() ([]byte, error) {
	type alias ImportItem
	return withType("ImportItem", (*alias)(n))
}

func (n *ExpressionStatement) MarshalJSON() ([]byte, error) {
	type alias ExpressionStatement
	return withType("ExpressionStatement", (*alias)(n))
}

func (n *VariableDeclaration) MarshalJSON() ([]byte, error) {
	type alias VariableDeclaration
	return withType("VariableDeclaration", (*alias)(n))
}

func (n *VariableDeclarator) MarshalJSON() ([]byte, error) {
	type alias VariableDeclarator
	return withType("VariableDeclarator", (*alias)(n))
}

func (n *ReturnStatement) MarshalJSON() ([]byte, error) {
	type alias ReturnStatement
	return withType("ReturnStatement", (*alias)(n))
}

func (n *Literal) MarshalJSON() ([]byte, error) {
	type alias Literal
	return withType("Literal", (*alias)(n))
}

func (n *Identifier) MarshalJSON() ([]byte, error) {
	type alias Identifier
	return withType("Identifier", (*alias)(n))
}

func (n *TagDeclarator) MarshalJSON() ([]byte, error) {
	type alias TagDeclarator
	return withType("TagDeclarator", (*alias)(n))
}

func (n *BinaryExpression) MarshalJSON() ([]byte, error) {
	type alias BinaryExpression
	return withType("BinaryExpression", (*alias)(n))
}

func (n *UnaryExpression) MarshalJSON() ([]byte, error) {
	type alias UnaryExpression
	return withType("UnaryExpression", (*alias)(n))
}

func (n *FunctionExpression) MarshalJSON() ([]byte, error) {
	type alias FunctionExpression
	return withType("FunctionExpression", (*alias)(n))
}

func (n *Parameter) MarshalJSON() ([]byte, error) {
	type alias Parameter
	return withType("Parameter", (*alias)(n))
}

func (n *CallExpression) MarshalJSON() ([]byte, error) {
	type alias CallExpression
	return withType("CallExpression", (*alias)(n))
}

func (n *PipeExpression) MarshalJSON() ([]byte, error) {
	type alias PipeExpression
	return withType("PipeExpression", (*alias)(n))
}

func (n *PipeSubstitution) MarshalJSON() ([]byte, error) {
	type alias PipeSubstitution
	return withType("PipeSubstitution", (*alias)(n))
}

func (n *ArrayExpression) MarshalJSON() ([]byte, error) {
	type alias ArrayExpression
	return withType("ArrayExpression", (*alias)(n))
}

func (n *ArrayRangeExpression) MarshalJSON() ([]byte, error) {
	type alias ArrayRangeExpression
	return withType("ArrayRangeExpression", (*alias)(n))
}

func (n *ObjectExpression) MarshalJSON() ([]byte, error) {
	type alias ObjectExpression
	return withType("ObjectExpression", (*alias)(n))
}

func (n *ObjectProperty) MarshalJSON() ([]byte, error) {
	type alias ObjectProperty
	return withType("ObjectProperty", (*alias)(n))
}

func (n *MemberExpression) MarshalJSON() ([]byte, error) {
	type alias MemberExpression
	return withType("MemberExpression", (*alias)(n))
}

func (n *IfExpression) MarshalJSON() ([]byte, error) {
	type alias IfExpression
	return withType("IfExpression", (*alias)(n))
}

func (n *ElseIf) MarshalJSON() ([]byte, error) {
	type alias ElseIf
	return withType("ElseIf", (*alias)(n))
}

func (n *None) MarshalJSON() ([]byte, error) {
	type alias None
	return withType("None", (*alias)(n))
}

func peekType(data []byte) (string, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return "", err
	}
	return tag.Type, nil
}

func isNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	if isNull(data) {
		return nil, nil
	}
	tag, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("decode expr: %w", err)
	}
	var e Expr
	switch tag {
	case "Literal":
		e = &Literal{}
	case "Identifier":
		e = &Identifier{}
	case "TagDeclarator":
		e = &TagDeclarator{}
	case "BinaryExpression":
		e = &BinaryExpression{}
	case "FunctionExpression":
		e = &FunctionExpression{}
	case "CallExpression":
		e = &CallExpression{}
	case "PipeExpression":
		e = &PipeExpression{}
	case "PipeSubstitution":
		e = &PipeSubstitution{}
	case "ArrayExpression":
		e = &ArrayExpression{}
	case "ArrayRangeExpression":
		e = &ArrayRangeExpression{}
	case "ObjectExpression":
		e = &ObjectExpression{}
	case "MemberExpression":
		e = &MemberExpression{}
	case "UnaryExpression":
		e = &UnaryExpression{}
	case "IfExpression":
		e = &IfExpression{}
	case "None":
		e = &None{}
	default:
		return nil, fmt.Errorf("decode expr: unknown type %q", tag)
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag, err)
	}
	return e, nil
}

func decodeExprs(raw []json.RawMessage) ([]Expr, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]Expr, 0, len(raw))
	for _, r := range raw {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeBinaryPart(data json.RawMessage) (BinaryPart, error) {
	e, err := decodeExpr(data)
	if err != nil || e == nil {
		return nil, err
	}
	bp, ok := e.(BinaryPart)
	if !ok {
		return nil, fmt.Errorf("decode binary part: %T is not allowed as an operand", e)
	}
	return bp, nil
}

func decodeMemberObject(data json.RawMessage) (MemberObject, error) {
	e, err := decodeExpr(data)
	if err != nil || e == nil {
		return nil, err
	}
	mo, ok := e.(MemberObject)
	if !ok {
		return nil, fmt.Errorf("decode member object: unexpected %T", e)
	}
	return mo, nil
}

func decodeLiteralIdentifier(data json.RawMessage) (LiteralIdentifier, error) {
	e, err := decodeExpr(data)
	if err != nil || e == nil {
		return nil, err
	}
	li, ok := e.(LiteralIdentifier)
	if !ok {
		return nil, fmt.Errorf("decode member property: unexpected %T", e)
	}
	return li, nil
}

func decodeBodyItem(data json.RawMessage) (BodyItem, error) {
	tag, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("decode body item: %w", err)
	}
	var item BodyItem
	switch tag {
	case "ImportStatement":
		item = &ImportStatement{}
	case "ExpressionStatement":
		item = &ExpressionStatement{}
	case "VariableDeclaration":
		item = &VariableDeclaration{}
	case "ReturnStatement":
		item = &ReturnStatement{}
	default:
		return nil, fmt.Errorf("decode body item: unknown type %q", tag)
	}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag, err)
	}
	return item, nil
}

func (n *Program) UnmarshalJSON(data []byte) error {
	type alias Program
	aux := struct {
		*alias
		Body []json.RawMessage `json:"body"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Body = make([]BodyItem, 0, len(aux.Body))
	for _, raw := range aux.Body {
		item, err := decodeBodyItem(raw)
		if err != nil {
			return err
		}
		n.Body = append(n.Body, item)
	}
	return nil
}

func (n *ExpressionStatement) UnmarshalJSON(data []byte) error {
	type alias ExpressionStatement
	aux := struct {
		*alias
		Expression json.RawMessage `json:"expression"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Expression, err = decodeExpr(aux.Expression)
	return err
}

func (n *VariableDeclarator) UnmarshalJSON(data []byte) error {
	type alias VariableDeclarator
	aux := struct {
		*alias
		Init json.RawMessage `json:"init"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Init, err = decodeExpr(aux.Init)
	return err
}

func (n *ReturnStatement) UnmarshalJSON(data []byte) error {
	type alias ReturnStatement
	aux := struct {
		*alias
		Argument json.RawMessage `json:"argument"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Argument, err = decodeExpr(aux.Argument)
	return err
}

func (n *BinaryExpression) UnmarshalJSON(data []byte) error {
	type alias BinaryExpression
	aux := struct {
		*alias
		Left  json.RawMessage `json:"left"`
		Right json.RawMessage `json:"right"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if n.Left, err = decodeBinaryPart(aux.Left); err != nil {
		return err
	}
	n.Right, err = decodeBinaryPart(aux.Right)
	return err
}

func (n *UnaryExpression) UnmarshalJSON(data []byte) error {
	type alias UnaryExpression
	aux := struct {
		*alias
		Argument json.RawMessage `json:"argument"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Argument, err = decodeBinaryPart(aux.Argument)
	return err
}

func (n *CallExpression) UnmarshalJSON(data []byte) error {
	type alias CallExpression
	aux := struct {
		*alias
		Arguments []json.RawMessage `json:"arguments"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Arguments, err = decodeExprs(aux.Arguments)
	return err
}

func (n *PipeExpression) UnmarshalJSON(data []byte) error {
	type alias PipeExpression
	aux := struct {
		*alias
		Body []json.RawMessage `json:"body"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Body, err = decodeExprs(aux.Body)
	return err
}

func (n *ArrayExpression) UnmarshalJSON(data []byte) error {
	type alias ArrayExpression
	aux := struct {
		*alias
		Elements []json.RawMessage `json:"elements"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Elements, err = decodeExprs(aux.Elements)
	return err
}

func (n *ArrayRangeExpression) UnmarshalJSON(data []byte) error {
	type alias ArrayRangeExpression
	aux := struct {
		*alias
		StartElement json.RawMessage `json:"startElement"`
		EndElement   json.RawMessage `json:"endElement"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if n.StartElement, err = decodeExpr(aux.StartElement); err != nil {
		return err
	}
	n.EndElement, err = decodeExpr(aux.EndElement)
	return err
}

func (n *ObjectProperty) UnmarshalJSON(data []byte) error {
	type alias ObjectProperty
	aux := struct {
		*alias
		Value json.RawMessage `json:"value"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Value, err = decodeExpr(aux.Value)
	return err
}

func (n *MemberExpression) UnmarshalJSON(data []byte) error {
	type alias MemberExpression
	aux := struct {
		*alias
		Object   json.RawMessage `json:"object"`
		Property json.RawMessage `json:"property"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if n.Object, err = decodeMemberObject(aux.Object); err != nil {
		return err
	}
	n.Property, err = decodeLiteralIdentifier(aux.Property)
	return err
}

func (n *IfExpression) UnmarshalJSON(data []byte) error {
	type alias IfExpression
	aux := struct {
		*alias
		Cond json.RawMessage `json:"cond"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Cond, err = decodeExpr(aux.Cond)
	return err
}

func (n *ElseIf) UnmarshalJSON(data []byte) error {
	type alias ElseIf
	aux := struct {
		*alias
		Cond json.RawMessage `json:"cond"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	n.Cond, err = decodeExpr(aux.Cond)
	return err
}
