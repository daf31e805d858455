package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LiteralKind is the dynamic type of a literal value.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
)

// LiteralValue is a number, string or boolean. It serializes as the bare JSON value.
type LiteralValue struct {
	Kind   LiteralKind
	Number float64
	Str    string
	Bool   bool
}

func NumberValue(f float64) LiteralValue { return LiteralValue{Kind: LiteralNumber, Number: f} }
func StringValue(s string) LiteralValue  { return LiteralValue{Kind: LiteralString, Str: s} }
func BoolValue(b bool) LiteralValue      { return LiteralValue{Kind: LiteralBool, Bool: b} }

// NewNumber returns a numeric literal whose raw text is the shortest decimal form.
func NewNumber(f float64) *Literal {
	return &Literal{Value: NumberValue(f), Raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NewString returns a string literal quoted with single quotes.
func NewString(s string) *Literal {
	return &Literal{Value: StringValue(s), Raw: "'" + s + "'"}
}

func (v LiteralValue) String() string {
	switch v.Kind {
	case LiteralString:
		return v.Str
	case LiteralBool:
		return strconv.FormatBool(v.Bool)
	default:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
}

func (v LiteralValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case LiteralString:
		return json.Marshal(v.Str)
	case LiteralBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Number)
	}
}

func (v *LiteralValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("literal value: empty input")
	}
	switch data[0] {
	case '"':
		v.Kind = LiteralString
		return json.Unmarshal(data, &v.Str)
	case 't', 'f':
		v.Kind = LiteralBool
		return json.Unmarshal(data, &v.Bool)
	default:
		v.Kind = LiteralNumber
		if err := json.Unmarshal(data, &v.Number); err != nil {
			return fmt.Errorf("literal value: %w", err)
		}
		return nil
	}
}
