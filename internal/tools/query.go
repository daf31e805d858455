package tools

import (
	"context"
	"fmt"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
	"github.com/DeusData/kcl-ast/internal/recast"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleHover(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	pos, err := resolveOffset(args, d.code)
	if err != nil {
		return errResult(err.Error()), nil
	}
	h := d.prog.HoverAt(pos, d.code)
	if h == nil {
		return jsonResult(map[string]any{"uri": d.uri, "offset": pos, "hover": nil}), nil
	}

	resp := map[string]any{"uri": d.uri, "offset": pos, "hover": h}
	// Attach the signature of the called function when it is known.
	if h.Kind == ast.HoverFunction || h.Kind == ast.HoverSignature {
		if sig := s.signature(d.prog, h.Name); sig != nil {
			resp["signature"] = sig
		}
	}
	return jsonResult(resp), nil
}

type signatureInfo struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Required int    `json:"required"`
	Optional int    `json:"optional"`
}

// signature looks name up among the program's declarations, then the
// standard library.
func (s *Server) signature(prog *ast.Program, name string) *signatureInfo {
	if def := prog.GetVariable(name); def != nil && def.Variable != nil {
		if fn, ok := def.Variable.Init.(*ast.FunctionExpression); ok {
			req, opt, err := fn.RequiredAndOptionalParams()
			if err != nil {
				return nil
			}
			return &signatureInfo{Name: name, Source: "local", Required: len(req), Optional: len(opt)}
		}
		return nil
	}
	if f, ok := s.exec.Lookup(name); ok {
		minArgs, maxArgs := f.Arity()
		opt := maxArgs - minArgs
		if maxArgs < 0 {
			opt = -1
		}
		return &signatureInfo{Name: name, Source: f.Kind().String(), Required: minArgs, Optional: opt}
	}
	return nil
}

func (s *Server) handleDocumentSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	symbols := d.prog.DocumentSymbols(d.code)
	if symbols == nil {
		symbols = []*ast.DocumentSymbol{}
	}
	return jsonResult(map[string]any{
		"uri":     d.uri,
		"symbols": symbols,
	}), nil
}

func (s *Server) handleFoldingRanges(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	ranges := d.prog.FoldingRanges(recast.Renderer(d.config().FormatOptions()))
	if ranges == nil {
		ranges = []ast.FoldingRange{}
	}
	return jsonResult(map[string]any{
		"uri":    d.uri,
		"ranges": ranges,
	}), nil
}

func (s *Server) handleCompletions(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	items := d.prog.CompletionItems()
	for _, name := range s.exec.StdNames() {
		items = append(items, ast.CompletionItem{Label: name, Kind: ast.CompletionFunction, Detail: "std"})
	}
	return jsonResult(map[string]any{
		"uri":   d.uri,
		"items": items,
	}), nil
}

func (s *Server) handleConstraintLevel(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	pos, err := resolveOffset(args, d.code)
	if err != nil {
		return errResult(err.Error()), nil
	}
	lvl, ok := d.prog.ConstraintLevelAt(pos)
	if !ok {
		return errResult(fmt.Sprintf("no statement at offset %d", pos)), nil
	}
	constrained := lvl.PartialOrFullRanges()
	if constrained == nil {
		constrained = []ast.SourceRange{}
	}
	return jsonResult(map[string]any{
		"uri":         d.uri,
		"offset":      pos,
		"level":       lvl,
		"constrained": constrained,
	}), nil
}

func (s *Server) handleGetAST(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	_, hasOffset := args["offset"]
	_, hasLine := args["line"]
	if !hasOffset && !hasLine {
		return jsonResult(map[string]any{
			"uri": d.uri,
			"ast": d.prog,
		}), nil
	}

	pos, err := resolveOffset(args, d.code)
	if err != nil {
		return errResult(err.Error()), nil
	}
	resp := map[string]any{"uri": d.uri, "offset": pos, "node": nil, "non_code": nil}
	if n := d.prog.NodeAt(pos); n != nil {
		resp["node"] = n
		resp["range"] = n.Range().ToLSPRange(d.code)
	}
	if nc := d.prog.NonCodeNodeAt(pos); nc != nil {
		resp["non_code"] = nc
	}
	return jsonResult(resp), nil
}

func (s *Server) handleDigest(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	if text, ok := args["text"].(string); ok {
		prog, parseErr := parser.Parse(text)
		if parseErr != nil {
			return syntaxErrorResult("text", text, parseErr), nil
		}
		return jsonResult(map[string]any{"digest": prog.ComputeDigest().String()}), nil
	}

	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()
	return jsonResult(map[string]any{
		"uri":    d.uri,
		"digest": d.digest,
	}), nil
}
