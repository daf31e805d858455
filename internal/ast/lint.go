package ast

import (
	"fmt"
	"unicode"
)

// Finding is one lint result.
type Finding struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Range   SourceRange `json:"range"`
}

const (
	LintVariableCase = "Z0001"
	LintPropertyCase = "Z0002"
)

// Lint checks naming conventions: declarators and object keys must be camelCase.
func (p *Program) Lint() ([]Finding, error) {
	var findings []Finding
	err := Walk(p, func(n Node) error {
		switch n := n.(type) {
		case *VariableDeclarator:
			if !isCamelCase(n.ID.Name) {
				findings = append(findings, Finding{
					Code:    LintVariableCase,
					Message: fmt.Sprintf("Identifiers must be lowerCamelCase: found `%s`", n.ID.Name),
					Range:   n.ID.Range(),
				})
			}
		case *ObjectProperty:
			if !isCamelCase(n.Key.Name) {
				findings = append(findings, Finding{
					Code:    LintPropertyCase,
					Message: fmt.Sprintf("Object keys must be lowerCamelCase: found `%s`", n.Key.Name),
					Range:   n.Key.Range(),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// isCamelCase accepts a leading lowercase letter followed by letters and
// digits. A single leading underscore marks an unused name and is allowed.
func isCamelCase(name string) bool {
	if len(name) > 1 && name[0] == '_' {
		name = name[1:]
	}
	for i, r := range name {
		switch {
		case i == 0 && !unicode.IsLower(r):
			return false
		case r == '_':
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return false
		}
	}
	return name != ""
}
