package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DeusData/kcl-ast/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

const mainSrc = "fn box = (w, h) => {\n  return w * h\n}\narea = box(2, 3)\n"

func setup(t *testing.T) (*Indexer, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.kcl"), mainSrc)
	writeFile(t, filepath.Join(dir, "parts", "flange.kcl"), "flange = { width: 4, depth: 2 }\n")
	writeFile(t, filepath.Join(dir, "broken.kcl"), "x = (\n")

	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, dir), dir
}

func TestRunIndexesSymbols(t *testing.T) {
	ix, _ := setup(t)
	res, err := ix.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Files != 3 || res.Changed != 2 || len(res.Failed) != 1 || res.Failed[0] != "broken.kcl" {
		t.Fatalf("unexpected result %+v", res)
	}
	// box, its params w and h, area, flange and its properties width and depth
	if res.Symbols != 7 {
		t.Errorf("expected 7 symbols, got %d", res.Symbols)
	}

	p := ix.ProjectName
	param, err := ix.Store.FindSymbolByQN(p, p+".main.box.w")
	if err != nil || param == nil {
		t.Fatalf("expected box.w symbol: %v", err)
	}
	if param.Parent != p+".main.box" {
		t.Errorf("parent = %q", param.Parent)
	}
	flange, err := ix.Store.FindSymbolByQN(p, p+".parts.flange.flange")
	if err != nil || flange == nil || flange.Kind != "object" {
		t.Fatalf("expected flange object symbol, got %+v %v", flange, err)
	}
}

func TestRunIsIncremental(t *testing.T) {
	ix, dir := setup(t)
	ctx := context.Background()
	if _, err := ix.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	res, err := ix.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Unchanged != 2 || res.Changed != 0 || res.Semantic() {
		t.Fatalf("expected no-op reindex, got %+v", res)
	}

	// Extra spaces move offsets without changing structure.
	writeFile(t, filepath.Join(dir, "main.kcl"), "fn box = (w, h) => {\n  return w * h\n}\narea = box(2,   3)\n")
	res, err = ix.Run(ctx)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if res.Reformatted != 1 || res.Changed != 0 {
		t.Fatalf("expected one reformatted file, got %+v", res)
	}
	area, err := ix.Store.FindSymbolByQN(ix.ProjectName, ix.ProjectName+".main.area")
	if err != nil || area == nil {
		t.Fatalf("area symbol missing: %v", err)
	}
	if want := len(mainSrc) + 2 - 1; area.End != want {
		t.Errorf("area end = %d, want %d", area.End, want)
	}

	writeFile(t, filepath.Join(dir, "main.kcl"), mainSrc+"volume = area * 4\n")
	if err := os.Remove(filepath.Join(dir, "parts", "flange.kcl")); err != nil {
		t.Fatal(err)
	}
	res, err = ix.Run(ctx)
	if err != nil {
		t.Fatalf("fourth Run: %v", err)
	}
	if res.Changed != 1 || res.Removed != 1 || !res.Semantic() {
		t.Fatalf("expected one change and one removal, got %+v", res)
	}
	if res.Symbols != 5 {
		t.Errorf("expected 5 symbols, got %d", res.Symbols)
	}
}

func TestRunCancelled(t *testing.T) {
	ix, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ix.Run(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
