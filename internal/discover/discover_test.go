package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
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

func TestDiscoverBasic(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "main.kcl"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "parts", "flange.kcl"), "w = 2\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# parts\n")
	writeFile(t, filepath.Join(dir, "node_modules", "junk.kcl"), "y = 3\n")

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	rels := map[string]bool{}
	for _, f := range files {
		if f.Path == "" || f.Size == 0 {
			t.Errorf("incomplete file info %+v", f)
		}
		rels[f.RelPath] = true
	}
	if !rels["main.kcl"] || !rels["parts/flange.kcl"] {
		t.Errorf("unexpected rel paths %v", rels)
	}
}

func TestDiscoverIgnoreFile(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "main.kcl"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "generated", "out.kcl"), "y = 1\n")
	writeFile(t, filepath.Join(dir, "scratch", "a.kcl"), "z = 1\n")
	writeFile(t, filepath.Join(dir, IgnoreFileName), "# comment\ngenerated/\n")

	files, err := Discover(context.Background(), dir, &Options{ExcludePaths: []string{"scr*"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "main.kcl" {
		t.Fatalf("expected only main.kcl, got %+v", files)
	}
}

func TestDiscoverCancellation(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "main.kcl"), "x = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancel

	_, err := Discover(ctx, dir, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
