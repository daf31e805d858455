package ast_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/DeusData/kcl-ast/internal/ast"
)

func TestProgramJSONRoundTrip(t *testing.T) {
	prog := mustParse(t, pipeline+"\nexport z = -obj.a[0] != 1")
	want := prog.ComputeDigest()

	data, err := json.Marshal(prog)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type":"PipeExpression"`) {
		t.Errorf("pipe tag missing from %s", data)
	}
	if !strings.Contains(string(data), `"nonCodeNodes":{"1":[`) {
		t.Errorf("non-code keys should be strings: %s", data)
	}

	var back ast.Program
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := back.ComputeDigest(); got != want {
		t.Errorf("digest after round trip = %s, want %s", got, want)
	}
	if back.NonCodeNodeAt(14) == nil {
		t.Error("comment lost in round trip")
	}
}

func TestTypedFunctionJSONRoundTrip(t *testing.T) {
	code := "fn f = (a: number, b?: string[], c?: {w: number}): number => {\n  return a\n}\n"
	prog := mustParse(t, code)
	want := prog.ComputeDigest()

	data, err := json.Marshal(prog)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, frag := range []string{
		`"argType":{"type":"Primitive","primitive":"number"}`,
		`"argType":{"type":"Array","primitive":"string"}`,
		`"returnType":{"type":"Primitive","primitive":"number"}`,
		`"argType":{"type":"Object","properties":[`,
	} {
		if !strings.Contains(string(data), frag) {
			t.Errorf("missing %s in %s", frag, data)
		}
	}

	var back ast.Program
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := back.ComputeDigest(); got != want {
		t.Errorf("digest after round trip = %s, want %s", got, want)
	}
	if got := format(&back); got != code {
		t.Errorf("recast after round trip = %q, want %q", got, code)
	}
}

func TestArgTypeRejectsUnknownKind(t *testing.T) {
	var at ast.FnArgType
	if err := json.Unmarshal([]byte(`{"type":"Tuple"}`), &at); err == nil {
		t.Error("expected an error for an unknown annotation kind")
	}
}

func TestNonCodeMetaRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"x", "-1", "1.5", "99999999999"} {
		var m ast.NonCodeMeta
		err := json.Unmarshal([]byte(`{"nonCodeNodes":{"`+key+`":[]},"start":[]}`), &m)
		if !errors.Is(err, ast.ErrInvalidStatementIndex) {
			t.Errorf("key %q: expected ErrInvalidStatementIndex, got %v", key, err)
		}
	}

	var m ast.NonCodeMeta
	if err := json.Unmarshal([]byte(`{"nonCodeNodes":{"3":[]},"start":[]}`), &m); err != nil {
		t.Fatalf("valid key: %v", err)
	}
	if _, ok := m.NonCodeNodes[3]; !ok {
		t.Error("key 3 missing after decode")
	}
}

func TestLiteralValueJSON(t *testing.T) {
	lit := ast.NewString("a'b")
	data, err := json.Marshal(lit)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":"a'b"`) {
		t.Errorf("literal value not bare: %s", data)
	}
}
