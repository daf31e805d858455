package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/parser"
	"github.com/DeusData/kcl-ast/internal/recast"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func validIdentifier(name string) bool {
	e, err := parser.ParseExpr(name)
	if err != nil {
		return false
	}
	id, ok := e.(*ast.Identifier)
	return ok && id.Name == name
}

func (s *Server) handleRenameSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	uri := getStringArg(args, "uri")
	newName := getStringArg(args, "new_name")
	if uri == "" || newName == "" {
		return errResult("uri and new_name are required"), nil
	}
	if !validIdentifier(newName) {
		return errResult(fmt.Sprintf("invalid identifier: %q", newName)), nil
	}

	s.docsMu.Lock()
	defer s.docsMu.Unlock()

	d, ok := s.docs[uri]
	if !ok {
		return errResult(fmt.Sprintf("document not open: %s", uri)), nil
	}
	pos, err := resolveOffset(args, d.code)
	if err != nil {
		return errResult(err.Error()), nil
	}

	// Rename a private copy so a failure leaves the open document intact.
	work, err := parser.Parse(d.code)
	if err != nil {
		return errResult(fmt.Sprintf("reparse %s: %v", uri, err)), nil
	}
	oldName, renamed := work.RenameSymbol(newName, pos)
	switch {
	case oldName == "":
		return errResult(fmt.Sprintf("no symbol at offset %d", pos)), nil
	case !renamed:
		return errResult(fmt.Sprintf("renaming %s to %s would be captured by another binding of %s", oldName, newName, newName)), nil
	}

	code := recast.Program(work, d.config().FormatOptions())
	prog, err := parser.Parse(code)
	if err != nil {
		return errResult(fmt.Sprintf("renamed source does not parse: %v", err)), nil
	}

	next := &document{
		uri:     d.uri,
		code:    code,
		prog:    prog,
		dir:     d.dir,
		version: d.version + 1,
		digest:  prog.ComputeDigest().String(),
	}
	s.docs[uri] = next

	slog.Info("tools.rename", "uri", uri, "from", oldName, "to", newName)
	return jsonResult(map[string]any{
		"uri":      uri,
		"version":  next.version,
		"old_name": oldName,
		"new_name": newName,
		"text":     code,
	}), nil
}

func (s *Server) handleFormatDocument(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	opts := d.config().FormatOptions()
	if n := getIntArg(args, "tab_size", 0); n > 0 {
		opts.TabSize = n
	}
	if useTabs, ok := getBoolArg(args, "use_tabs"); ok {
		opts.UseTabs = useTabs
	}

	text := recast.Program(d.prog, opts)
	return jsonResult(map[string]any{
		"uri":     d.uri,
		"text":    text,
		"changed": text != d.code,
	}), nil
}
