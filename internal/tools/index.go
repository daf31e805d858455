package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/DeusData/kcl-ast/internal/index"
	"github.com/DeusData/kcl-ast/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// IndexWorkspace indexes root into the store. Runs are serialized so the
// tool, the watcher and scheduled reindexing never overlap.
func (s *Server) IndexWorkspace(ctx context.Context, root string) (*index.Result, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return index.New(s.store, root).Run(ctx)
}

// Reindex matches watcher.IndexFunc.
func (s *Server) Reindex(ctx context.Context, _, rootPath string) error {
	_, err := s.IndexWorkspace(ctx, rootPath)
	return err
}

// ReindexAll re-runs indexing for every known project.
func (s *Server) ReindexAll(ctx context.Context) error {
	projects, err := s.store.ListProjects()
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		if _, err := s.IndexWorkspace(ctx, p.RootPath); err != nil {
			return fmt.Errorf("reindex %s: %w", p.Name, err)
		}
	}
	return nil
}

func (s *Server) handleIndexWorkspace(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	rootPath := getStringArg(args, "root_path")
	if rootPath == "" {
		return errResult("root_path is required"), nil
	}

	// Resolve to absolute path
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	res, err := s.IndexWorkspace(ctx, absPath)
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	proj, _ := s.store.GetProject(res.Project)
	indexedAt := store.Now()
	if proj != nil {
		indexedAt = proj.IndexedAt
	}

	return jsonResult(map[string]any{
		"result":     res,
		"indexed_at": indexedAt,
	}), nil
}
