package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
	"github.com/DeusData/kcl-ast/internal/recast"
)

type report struct {
	Digest   string                `json:"digest"`
	Symbols  []*ast.DocumentSymbol `json:"symbols"`
	Folds    []ast.FoldingRange    `json:"folds"`
	Findings []ast.Finding         `json:"findings"`
	AST      *ast.Program          `json:"ast"`
}

func build(code string) (*report, error) {
	prog, err := parser.Parse(code)
	if err != nil {
		return nil, err
	}
	findings, err := prog.Lint()
	if err != nil {
		return nil, err
	}
	return &report{
		Digest:   prog.ComputeDigest().String(),
		Symbols:  prog.DocumentSymbols(code),
		Folds:    prog.FoldingRanges(recast.Renderer(recast.DefaultOptions())),
		Findings: findings,
		AST:      prog,
	}, nil
}

func main() {
	var (
		source []byte
		err    error
	)
	if len(os.Args) > 1 && os.Args[1] != "-" {
		source, err = os.ReadFile(os.Args[1])
	} else {
		source, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	r, err := build(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
