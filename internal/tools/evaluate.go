package tools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/executor"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// executorFor returns an executor that resolves imports next to the document.
func (s *Server) executorFor(d *document) (*executor.Executor, error) {
	if d.dir == "" {
		return s.exec, nil
	}
	return executor.NewExecutor(executor.WithImportFS(os.DirFS(d.dir)))
}

type evalError struct {
	Kind         executor.ErrorKind `json:"kind"`
	Message      string             `json:"msg"`
	SourceRanges []ast.SourceRange  `json:"sourceRanges"`
	Ranges       []ast.LSPRange     `json:"ranges"`
	Stage        *int               `json:"pipeStage,omitempty"`
}

func (s *Server) handleEvaluate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	d, err := s.docRLock(getStringArg(args, "uri"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer s.docsMu.RUnlock()

	ex, err := s.executorFor(d)
	if err != nil {
		return errResult(fmt.Sprintf("executor: %v", err)), nil
	}
	st, err := ex.ExecuteProgram(ctx, d.prog)
	if err != nil {
		return evalErrorResult(d, err), nil
	}

	exports := st.Exports
	if exports == nil {
		exports = []string{}
	}
	return jsonResult(map[string]any{
		"uri":      d.uri,
		"bindings": st.Memory.Snapshot(),
		"exports":  exports,
		"return":   st.Return,
	}), nil
}

func evalErrorResult(d *document, err error) *mcp.CallToolResult {
	var kerr *executor.KclError
	if !errors.As(err, &kerr) {
		return errResult(fmt.Sprintf("evaluate %s: %v", d.uri, err))
	}
	out := evalError{Kind: kerr.Kind, Message: kerr.Message, SourceRanges: kerr.SourceRanges}
	for _, r := range kerr.SourceRanges {
		out.Ranges = append(out.Ranges, r.ToLSPRange(d.code))
	}
	var stageErr *ast.PipeStageError
	if errors.As(err, &stageErr) {
		idx := stageErr.Index
		out.Stage = &idx
	}
	res := jsonResult(map[string]any{"uri": d.uri, "error": out})
	res.IsError = true
	return res
}
