// Package index keeps the symbol store in sync with the .kcl files of a
// workspace.
package index

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/kcl-ast/internal/ast"
	"github.com/DeusData/kcl-ast/internal/config"
	"github.com/DeusData/kcl-ast/internal/discover"
	"github.com/DeusData/kcl-ast/internal/fqn"
	"github.com/DeusData/kcl-ast/internal/parser"
	"github.com/DeusData/kcl-ast/internal/store"
)

// Indexer indexes one workspace root into a store.
type Indexer struct {
	Store       *store.Store
	Root        string
	ProjectName string
	Config      *config.Config
}

// New creates an Indexer, loading .kclconfig from root.
func New(s *store.Store, root string) *Indexer {
	return &Indexer{
		Store:       s,
		Root:        root,
		ProjectName: fqn.ProjectName(root),
		Config:      config.Load(root),
	}
}

// Result summarizes one run.
type Result struct {
	Project string `json:"project"`
	Files   int    `json:"files"`
	// Changed files had a different structural digest.
	Changed int `json:"changed"`
	// Reformatted files changed bytes but kept their digest; only their
	// symbol offsets were rewritten.
	Reformatted int      `json:"reformatted"`
	Unchanged   int      `json:"unchanged"`
	Removed     int      `json:"removed"`
	Failed      []string `json:"failed,omitempty"`
	Symbols     int      `json:"symbols"`
}

// Semantic reports whether any file changed meaning, appeared or vanished.
func (r *Result) Semantic() bool {
	return r.Changed > 0 || r.Removed > 0
}

type parseResult struct {
	File    discover.FileInfo
	Record  store.FileRecord
	Symbols []*store.Symbol
	Err     error
}

// Run discovers, parses and stores the workspace within a single transaction.
// Files whose content hash is unchanged are not parsed again.
func (ix *Indexer) Run(ctx context.Context) (*Result, error) {
	slog.Info("index.start", "project", ix.ProjectName, "path", ix.Root)
	start := time.Now()

	files, err := discover.Discover(ctx, ix.Root, &discover.Options{ExcludePaths: ix.Config.Index.ExcludePaths})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	slog.Info("index.discovered", "files", len(files))

	stored, err := ix.Store.GetFiles(ix.ProjectName)
	if err != nil {
		return nil, err
	}

	res := &Result{Project: ix.ProjectName, Files: len(files)}

	// Stage 1: hash every file and parse the ones whose bytes changed
	// (CPU-bound, no DB, no shared state).
	results := make([]*parseResult, len(files))
	numWorkers := ix.Config.EffectiveMaxWorkers()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(numWorkers, 1))
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = ix.parseFile(f, stored[f.RelPath])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stage 2: sequential writes inside one transaction.
	err = ix.Store.WithTransaction(func(tx *store.Store) error {
		if err := tx.UpsertProject(ix.ProjectName, ix.Root); err != nil {
			return fmt.Errorf("upsert project: %w", err)
		}
		seen := make(map[string]bool, len(results))
		for _, r := range results {
			seen[r.File.RelPath] = true
			if r.Err != nil {
				slog.Warn("index.file.err", "path", r.File.RelPath, "err", r.Err)
				res.Failed = append(res.Failed, r.File.RelPath)
				continue
			}
			prev, known := stored[r.File.RelPath]
			switch {
			case known && prev.ContentHash == r.Record.ContentHash:
				res.Unchanged++
				continue
			case known && prev.Digest == r.Record.Digest:
				res.Reformatted++
			default:
				res.Changed++
			}
			if err := tx.UpsertFile(ix.ProjectName, r.Record); err != nil {
				return fmt.Errorf("upsert file %s: %w", r.File.RelPath, err)
			}
			if err := tx.ReplaceFileSymbols(ix.ProjectName, r.File.RelPath, r.Symbols); err != nil {
				return fmt.Errorf("symbols %s: %w", r.File.RelPath, err)
			}
		}
		for rel := range stored {
			if seen[rel] {
				continue
			}
			if err := tx.DeleteFile(ix.ProjectName, rel); err != nil {
				return fmt.Errorf("remove %s: %w", rel, err)
			}
			slog.Info("index.removed", "file", rel)
			res.Removed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Symbols, err = ix.Store.CountSymbols(ix.ProjectName); err != nil {
		slog.Warn("index.count", "project", ix.ProjectName, "err", err)
	}
	slog.Info("index.done",
		"project", ix.ProjectName,
		"changed", res.Changed,
		"reformatted", res.Reformatted,
		"unchanged", res.Unchanged,
		"removed", res.Removed,
		"failed", len(res.Failed),
		"symbols", res.Symbols,
		"elapsed", time.Since(start))
	return res, nil
}

// parseFile is a pure function: it reads and hashes a file and, when the
// bytes differ from prev, parses it and extracts its symbols.
func (ix *Indexer) parseFile(f discover.FileInfo, prev store.FileRecord) *parseResult {
	r := &parseResult{File: f}
	source, err := os.ReadFile(f.Path)
	if err != nil {
		r.Err = err
		return r
	}
	r.Record = store.FileRecord{RelPath: f.RelPath, ContentHash: contentHash(source)}
	if r.Record.ContentHash == prev.ContentHash {
		r.Record.Digest = prev.Digest
		return r
	}
	code := string(source)
	prog, err := parser.Parse(code)
	if err != nil {
		r.Err = err
		return r
	}
	r.Record.Digest = prog.ComputeDigest().String()
	r.Symbols = Symbols(ix.ProjectName, f.RelPath, code, prog)
	return r
}

func contentHash(b []byte) string {
	h := xxh3.Hash128(b).Bytes()
	return hex.EncodeToString(h[:])
}

// Symbols flattens the document outline of prog into store rows, qualifying
// nested names with their enclosing symbols.
func Symbols(project, relPath, code string, prog *ast.Program) []*store.Symbol {
	var out []*store.Symbol
	var walk func(syms []*ast.DocumentSymbol, scope []string, parent string)
	walk = func(syms []*ast.DocumentSymbol, scope []string, parent string) {
		for _, ds := range syms {
			path := append(append([]string(nil), scope...), ds.Name)
			qn := fqn.Compute(project, relPath, path...)
			out = append(out, &store.Symbol{
				Project:       project,
				RelPath:       relPath,
				Name:          ds.Name,
				QualifiedName: qn,
				Kind:          ds.Kind.String(),
				Detail:        ds.Detail,
				Start:         ds.Source.Start(),
				End:           ds.Source.End(),
				StartLine:     ds.Range.Start.Line,
				EndLine:       ds.Range.End.Line,
				Parent:        parent,
			})
			walk(ds.Children, path, qn)
		}
	}
	walk(prog.DocumentSymbols(code), nil, "")
	return out
}
