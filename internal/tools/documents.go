package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/config"
	"github.com/DeusData/kcl-ast/internal/parser"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// document is one open source file with its parsed program.
type document struct {
	uri  string
	code string
	prog *ast.Program
	// dir is the directory imports and .kclconfig resolve against; empty for
	// documents opened from text.
	dir     string
	version int
	// digest is computed before the document is published or while the
	// write lock is held, since computing it refreshes cached node digests.
	digest string
}

func (d *document) config() *config.Config {
	if d.dir == "" {
		return config.Default()
	}
	return config.Load(d.dir)
}

// docRLock returns the open document for uri with the read lock held.
// The caller must call s.docsMu.RUnlock when the returned error is nil.
func (s *Server) docRLock(uri string) (*document, error) {
	if uri == "" {
		return nil, errors.New("uri is required")
	}
	s.docsMu.RLock()
	d, ok := s.docs[uri]
	if !ok {
		s.docsMu.RUnlock()
		return nil, fmt.Errorf("document not open: %s", uri)
	}
	return d, nil
}

// resolveOffset reads the cursor from args: "offset" wins, otherwise
// "line"/"character" are converted against code.
func resolveOffset(args map[string]any, code string) (int, error) {
	if _, ok := args["offset"]; ok {
		off := getIntArg(args, "offset", -1)
		if off < 0 || off > len(code) {
			return 0, fmt.Errorf("offset %d out of range [0, %d]", off, len(code))
		}
		return off, nil
	}
	if _, ok := args["line"]; !ok {
		return 0, errors.New("offset or line/character is required")
	}
	pos := ast.Position{
		Line:      getIntArg(args, "line", 0),
		Character: getIntArg(args, "character", 0),
	}
	if pos.Line < 0 || pos.Character < 0 {
		return 0, fmt.Errorf("invalid position %d:%d", pos.Line, pos.Character)
	}
	return ast.PositionToOffset(code, pos), nil
}

// syntaxErrorResult reports a parse failure with its location.
func syntaxErrorResult(uri, code string, err error) *mcp.CallToolResult {
	var se *parser.SyntaxError
	if errors.As(err, &se) {
		res := jsonResult(map[string]any{
			"uri":   uri,
			"error": se.Message,
			"range": se.Range().ToLSPRange(code),
		})
		res.IsError = true
		return res
	}
	return errResult(fmt.Sprintf("parse %s: %v", uri, err))
}

type openSummary struct {
	URI         string        `json:"uri"`
	Version     int           `json:"version"`
	Digest      string        `json:"digest"`
	Statements  int           `json:"statements"`
	Symbols     int           `json:"symbols"`
	Diagnostics []ast.Finding `json:"diagnostics"`
}

func (s *Server) handleOpenDocument(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	uri := getStringArg(args, "uri")
	text, hasText := args["text"].(string)
	path := getStringArg(args, "path")

	d := &document{uri: uri}
	switch {
	case hasText:
		d.code = text
		if path != "" {
			d.dir = filepath.Dir(path)
		}
	case path != "":
		absPath, absErr := filepath.Abs(path)
		if absErr != nil {
			return errResult(fmt.Sprintf("invalid path: %v", absErr)), nil
		}
		source, readErr := os.ReadFile(absPath)
		if readErr != nil {
			return errResult(fmt.Sprintf("read %s: %v", path, readErr)), nil
		}
		d.code = string(source)
		d.dir = filepath.Dir(absPath)
		if d.uri == "" {
			d.uri = absPath
		}
	default:
		return errResult("text or path is required"), nil
	}
	if d.uri == "" {
		return errResult("uri is required when opening from text"), nil
	}

	prog, err := parser.Parse(d.code)
	if err != nil {
		return syntaxErrorResult(d.uri, d.code, err), nil
	}
	d.prog = prog

	// Digest, outline and lint are independent passes over the tree.
	summary := openSummary{URI: d.uri, Statements: len(prog.Body)}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.digest = prog.ComputeDigest().String()
		return nil
	})
	g.Go(func() error {
		summary.Symbols = len(prog.DocumentSymbols(d.code))
		return nil
	})
	g.Go(func() error {
		findings, lintErr := prog.Lint()
		summary.Diagnostics = findings
		return lintErr
	})
	if err := g.Wait(); err != nil {
		return errResult(fmt.Sprintf("analyze %s: %v", d.uri, err)), nil
	}
	summary.Digest = d.digest
	if summary.Diagnostics == nil {
		summary.Diagnostics = []ast.Finding{}
	}

	s.docsMu.Lock()
	if prev, ok := s.docs[d.uri]; ok {
		d.version = prev.version + 1
	}
	s.docs[d.uri] = d
	s.docsMu.Unlock()
	summary.Version = d.version

	slog.Debug("tools.open", "uri", d.uri, "version", d.version, "statements", summary.Statements)
	return jsonResult(summary), nil
}

func (s *Server) handleCloseDocument(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	uri := getStringArg(args, "uri")
	if uri == "" {
		return errResult("uri is required"), nil
	}

	s.docsMu.Lock()
	_, ok := s.docs[uri]
	delete(s.docs, uri)
	s.docsMu.Unlock()

	if !ok {
		return errResult(fmt.Sprintf("document not open: %s", uri)), nil
	}
	return jsonResult(map[string]any{
		"closed": uri,
		"status": "ok",
	}), nil
}
