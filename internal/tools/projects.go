package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListProjects(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return errResult(fmt.Sprintf("list projects: %v", err)), nil
	}

	type projectInfo struct {
		Name      string `json:"name"`
		RootPath  string `json:"root_path"`
		IndexedAt string `json:"indexed_at"`
		Files     int    `json:"files"`
		Symbols   int    `json:"symbols"`
	}

	result := make([]projectInfo, 0, len(projects))
	for _, p := range projects {
		fc, _ := s.store.CountFiles(p.Name)
		sc, _ := s.store.CountSymbols(p.Name)
		result = append(result, projectInfo{
			Name:      p.Name,
			RootPath:  p.RootPath,
			IndexedAt: p.IndexedAt,
			Files:     fc,
			Symbols:   sc,
		})
	}

	return jsonResult(result), nil
}

// defaultProject returns the most recently indexed project name, or "".
func (s *Server) defaultProject() (string, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return "", err
	}
	name, latest := "", ""
	for _, p := range projects {
		// RFC 3339 UTC timestamps order lexically.
		if p.IndexedAt >= latest {
			name, latest = p.Name, p.IndexedAt
		}
	}
	return name, nil
}
