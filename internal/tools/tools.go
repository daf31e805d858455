package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DeusData/kcl-ast/internal/executor"
	"github.com/DeusData/kcl-ast/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported in the MCP implementation info.
var Version = "dev"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store *store.Store
	exec  *executor.Executor

	// docsMu guards docs. Opening, closing and renaming take the write lock;
	// every other tool holds the read lock for the duration of its query.
	docsMu sync.RWMutex
	docs   map[string]*document

	// indexMu serializes index runs between the tool, the watcher and cron.
	indexMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store) (*Server, error) {
	ex, err := executor.NewExecutor()
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	srv := &Server{
		store: s,
		exec:  ex,
		docs:  make(map[string]*document),
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "kcl-ast",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

const positionProps = `
				"uri": {
					"type": "string",
					"description": "URI of an open document"
				},
				"offset": {
					"type": "integer",
					"description": "Byte offset of the cursor. Takes precedence over line/character."
				},
				"line": {
					"type": "integer",
					"description": "Zero-based line of the cursor"
				},
				"character": {
					"type": "integer",
					"description": "Zero-based byte column of the cursor"
				}`

func positionSchema() json.RawMessage {
	return json.RawMessage(`{
			"type": "object",
			"properties": {` + positionProps + `
			},
			"required": ["uri"]
		}`)
}

func uriSchema() json.RawMessage {
	return json.RawMessage(`{
			"type": "object",
			"properties": {
				"uri": {
					"type": "string",
					"description": "URI of an open document"
				}
			},
			"required": ["uri"]
		}`)
}

func (s *Server) registerTools() {
	// 1. open_document
	s.mcp.AddTool(&mcp.Tool{
		Name:        "open_document",
		Description: "Parse a KCL document and keep it open for queries. Pass the source as 'text', or a 'path' to read it from disk. Returns the structural digest, symbol count and lint findings. Re-opening a URI replaces the previous version.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"uri": {
					"type": "string",
					"description": "Document identifier. Defaults to the absolute path when 'path' is given."
				},
				"text": {
					"type": "string",
					"description": "Full document source"
				},
				"path": {
					"type": "string",
					"description": "File to read when 'text' is omitted. Its directory is used to resolve imports and .kclconfig."
				}
			}
		}`),
	}, s.handleOpenDocument)

	// 2. close_document
	s.mcp.AddTool(&mcp.Tool{
		Name:        "close_document",
		Description: "Forget an open document.",
		InputSchema: uriSchema(),
	}, s.handleCloseDocument)

	// 3. hover
	s.mcp.AddTool(&mcp.Tool{
		Name:        "hover",
		Description: "Describe what sits under the cursor: a called function name, the argument index inside a call, or the shebang comment.",
		InputSchema: positionSchema(),
	}, s.handleHover)

	// 4. document_symbols
	s.mcp.AddTool(&mcp.Tool{
		Name:        "document_symbols",
		Description: "Return the document outline: every declared variable, function and tag with its kind, range and children (parameters, object properties).",
		InputSchema: uriSchema(),
	}, s.handleDocumentSymbols)

	// 5. folding_ranges
	s.mcp.AddTool(&mcp.Tool{
		Name:        "folding_ranges",
		Description: "Return one foldable region per multi-line top-level statement, with the first formatted line as collapsed text.",
		InputSchema: uriSchema(),
	}, s.handleFoldingRanges)

	// 6. completions
	s.mcp.AddTool(&mcp.Tool{
		Name:        "completions",
		Description: "List names an editor can offer while typing: declared variables, functions, tags and the standard library.",
		InputSchema: uriSchema(),
	}, s.handleCompletions)

	// 7. rename_symbol
	s.mcp.AddTool(&mcp.Tool{
		Name:        "rename_symbol",
		Description: "Rename the binding under the cursor and every reference to it in scope. The document is reformatted and its new text returned.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + positionProps + `,
				"new_name": {
					"type": "string",
					"description": "Replacement identifier"
				}
			},
			"required": ["uri", "new_name"]
		}`),
	}, s.handleRenameSymbol)

	// 8. constraint_level
	s.mcp.AddTool(&mcp.Tool{
		Name:        "constraint_level",
		Description: "Classify the expression of the statement under the cursor as none (literals only), partial or full (driven by references), with the ranges that carry constraints.",
		InputSchema: positionSchema(),
	}, s.handleConstraintLevel)

	// 9. get_ast
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_ast",
		Description: "Return the JSON syntax tree of an open document. With a cursor position, return only the deepest expression and the comment or blank-line node there.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {` + positionProps + `
			},
			"required": ["uri"]
		}`),
	}, s.handleGetAST)

	// 10. digest
	s.mcp.AddTool(&mcp.Tool{
		Name:        "digest",
		Description: "Return the structural digest of an open document or of a source snippet. Formatting and comment placement offsets do not affect it.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"uri": {
					"type": "string",
					"description": "URI of an open document"
				},
				"text": {
					"type": "string",
					"description": "Source to digest instead of an open document"
				}
			}
		}`),
	}, s.handleDigest)

	// 11. format_document
	s.mcp.AddTool(&mcp.Tool{
		Name:        "format_document",
		Description: "Pretty-print an open document. Options default to the workspace .kclconfig.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"uri": {
					"type": "string",
					"description": "URI of an open document"
				},
				"tab_size": {
					"type": "integer",
					"description": "Spaces per indentation level"
				},
				"use_tabs": {
					"type": "boolean",
					"description": "Indent with tabs"
				}
			},
			"required": ["uri"]
		}`),
	}, s.handleFormatDocument)

	// 12. evaluate
	s.mcp.AddTool(&mcp.Tool{
		Name:        "evaluate",
		Description: "Execute an open document and return the top-level bindings, exports and return value. Errors carry their kind and source ranges.",
		InputSchema: uriSchema(),
	}, s.handleEvaluate)

	// 13. index_workspace
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_workspace",
		Description: "Index every .kcl file under a directory into the symbol store. Unchanged files are skipped and whitespace-only edits only refresh offsets.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"root_path": {
					"type": "string",
					"description": "Absolute path to the workspace"
				}
			},
			"required": ["root_path"]
		}`),
	}, s.handleIndexWorkspace)

	// 14. search_symbols
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Search indexed symbols by kind, name pattern (regex) and file pattern (glob).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name. Defaults to the most recently indexed project."
				},
				"kind": {
					"type": "string",
					"description": "Symbol kind: function, variable, constant, array, object, property",
					"enum": ["function", "variable", "constant", "array", "object", "property"]
				},
				"name_pattern": {
					"type": "string",
					"description": "Regex pattern for the symbol name (e.g. '^flange')"
				},
				"file_pattern": {
					"type": "string",
					"description": "Glob pattern for the file path (e.g. 'parts/**')"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 50, max 200)"
				},
				"offset": {
					"type": "integer",
					"description": "Results to skip"
				}
			}
		}`),
	}, s.handleSearchSymbols)

	// 15. list_projects
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List all indexed workspaces with their indexed_at timestamp, root path, and file/symbol counts.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProjects)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument and whether it was present.
func getBoolArg(args map[string]any, key string) (value, ok bool) {
	v, present := args[key]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}
