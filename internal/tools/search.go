package tools

import (
	"context"
	"fmt"

	"github.com/DeusData/kcl-ast/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

func (s *Server) handleSearchSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	projName := getStringArg(args, "project")
	if projName == "" {
		projName, err = s.defaultProject()
		if err != nil {
			return errResult(fmt.Sprintf("list projects: %v", err)), nil
		}
		if projName == "" {
			return errResult("no indexed projects; run index_workspace first"), nil
		}
	}

	limit := getIntArg(args, "limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	params := store.SearchParams{
		Project:     projName,
		Kind:        getStringArg(args, "kind"),
		NamePattern: getStringArg(args, "name_pattern"),
		FilePattern: getStringArg(args, "file_pattern"),
		Limit:       limit,
		Offset:      max(getIntArg(args, "offset", 0), 0),
	}

	output, err := s.store.Search(params)
	if err != nil {
		return errResult(fmt.Sprintf("search: %v", err)), nil
	}

	type resultEntry struct {
		Name          string `json:"name"`
		QualifiedName string `json:"qualified_name"`
		Kind          string `json:"kind"`
		Detail        string `json:"detail,omitempty"`
		FilePath      string `json:"file_path"`
		StartLine     int    `json:"start_line"`
		EndLine       int    `json:"end_line"`
		Parent        string `json:"parent,omitempty"`
	}

	results := make([]resultEntry, 0, len(output.Results))
	for _, r := range output.Results {
		results = append(results, resultEntry{
			Name:          r.Name,
			QualifiedName: r.QualifiedName,
			Kind:          r.Kind,
			Detail:        r.Detail,
			FilePath:      r.RelPath,
			StartLine:     r.StartLine,
			EndLine:       r.EndLine,
			Parent:        r.Parent,
		})
	}

	return jsonResult(map[string]any{
		"project":  projName,
		"total":    output.Total,
		"limit":    params.Limit,
		"offset":   params.Offset,
		"has_more": params.Offset+len(results) < output.Total,
		"results":  results,
	}), nil
}
