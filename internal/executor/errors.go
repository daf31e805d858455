// Package executor is a tree-walking evaluator for KCL programs. It
// evaluates pipes through ast.EvaluatePipe and resolves calls against a
// registry of native, KCL-defined and user functions.
package executor

import (
	"fmt"
	"strings"

	"github.com/DeusData/kcl-ast/internal/ast"
)

// ErrorKind classifies a KclError.
type ErrorKind string

const (
	ErrSyntax              ErrorKind = "syntax"
	ErrSemantic            ErrorKind = "semantic"
	ErrType                ErrorKind = "type"
	ErrUndefinedValue      ErrorKind = "undefined_value"
	ErrValueAlreadyDefined ErrorKind = "value_already_defined"
	ErrUnexpected          ErrorKind = "unexpected"
	ErrInternal            ErrorKind = "internal"
)

// KclError is an evaluation failure located in the source.
type KclError struct {
	Kind         ErrorKind         `json:"kind"`
	SourceRanges []ast.SourceRange `json:"sourceRanges"`
	Message      string            `json:"msg"`
}

func (e *KclError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	for _, r := range e.SourceRanges {
		fmt.Fprintf(&b, " [%d, %d]", r.Start(), r.End())
	}
	return b.String()
}

func newError(kind ErrorKind, r ast.SourceRange, format string, args ...any) *KclError {
	return &KclError{Kind: kind, SourceRanges: []ast.SourceRange{r}, Message: fmt.Sprintf(format, args...)}
}
