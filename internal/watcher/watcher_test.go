package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DeusData/kcl-ast/internal/config"
	"github.com/DeusData/kcl-ast/internal/store"
)

func TestFingerprintEqual(t *testing.T) {
	base := fingerprint{
		"main.kcl":  {mtime: 10, size: 100},
		"parts.kcl": {mtime: 10, size: 200},
	}
	tests := []struct {
		name  string
		other fingerprint
		want  bool
	}{
		{"identical", fingerprint{"main.kcl": {10, 100}, "parts.kcl": {10, 200}}, true},
		{"size", fingerprint{"main.kcl": {10, 101}, "parts.kcl": {10, 200}}, false},
		{"mtime", fingerprint{"main.kcl": {11, 100}, "parts.kcl": {10, 200}}, false},
		{"removed", fingerprint{"main.kcl": {10, 100}}, false},
		{"renamed", fingerprint{"main.kcl": {10, 100}, "other.kcl": {10, 200}}, false},
	}
	for _, tt := range tests {
		if got := base.equal(tt.other); got != tt.want {
			t.Errorf("%s: equal = %v, want %v", tt.name, got, tt.want)
		}
	}
	if !(fingerprint{}).equal(fingerprint{}) {
		t.Error("empty fingerprints should be equal")
	}
}

func TestIntervalFor(t *testing.T) {
	tests := []struct {
		files int
		want  time.Duration
	}{
		{0, time.Second},
		{499, time.Second},
		{500, 2 * time.Second},
		{5000, 11 * time.Second},
		{100000, time.Minute},
	}
	for _, tt := range tests {
		if got := intervalFor(tt.files); got != tt.want {
			t.Errorf("intervalFor(%d) = %v, want %v", tt.files, got, tt.want)
		}
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.kcl"), []byte("x = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	fp, err := scan(context.Background(), dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(fp) != 1 {
		t.Fatalf("expected 1 file, got %d", len(fp))
	}
	s, ok := fp["main.kcl"]
	if !ok {
		t.Fatal("expected main.kcl in fingerprint")
	}
	if s.size == 0 || s.mtime == 0 {
		t.Errorf("incomplete stamp %+v", s)
	}
}

func newProject(t *testing.T) (*store.Store, string) {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "main.kcl"), []byte("x = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertProject(filepath.Base(tmpDir), tmpDir); err != nil {
		t.Fatal(err)
	}
	return s, tmpDir
}

func makeDue(w *Watcher) {
	for _, ws := range w.tracked {
		ws.due = time.Time{}
	}
}

func TestWatcherTriggersOnChange(t *testing.T) {
	s, tmpDir := newProject(t)

	var indexCount atomic.Int32
	w := New(s, func(_ context.Context, _, _ string) error {
		indexCount.Add(1)
		return nil
	})

	// The first sweep only records the baseline.
	w.sweep()
	makeDue(w)
	w.sweep()
	if indexCount.Load() != 0 {
		t.Errorf("unchanged workspace should not trigger index, got %d", indexCount.Load())
	}

	now := time.Now().Add(time.Second)
	if err := os.Chtimes(filepath.Join(tmpDir, "main.kcl"), now, now); err != nil {
		t.Fatal(err)
	}
	makeDue(w)
	w.sweep()
	if indexCount.Load() != 1 {
		t.Errorf("changed file should trigger index, got %d", indexCount.Load())
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "extra.kcl"), []byte("y = 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	makeDue(w)
	w.sweep()
	if indexCount.Load() != 2 {
		t.Errorf("new file should trigger index, got %d", indexCount.Load())
	}
}

func TestWatcherHonoursConfig(t *testing.T) {
	s, tmpDir := newProject(t)
	if err := os.WriteFile(filepath.Join(tmpDir, config.FileName), []byte("watch:\n  enabled: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var indexCount atomic.Int32
	w := New(s, func(_ context.Context, _, _ string) error {
		indexCount.Add(1)
		return nil
	})
	w.sweep()
	if err := os.WriteFile(filepath.Join(tmpDir, "extra.kcl"), []byte("y = 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	makeDue(w)
	w.sweep()
	if indexCount.Load() != 0 {
		t.Errorf("disabled watch should never index, got %d", indexCount.Load())
	}
}

func TestWatcherCancellation(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	w := New(s, func(_ context.Context, _, _ string) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop after context cancellation")
	}
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.UpsertProject("ghost", "/nonexistent/path"); err != nil {
		t.Fatal(err)
	}

	var indexCount atomic.Int32
	w := New(s, func(_ context.Context, _, _ string) error {
		indexCount.Add(1)
		return nil
	})

	w.sweep()
	if indexCount.Load() != 0 {
		t.Errorf("should not index missing root, got %d", indexCount.Load())
	}
}

func TestWatcherForgetsRemovedProjects(t *testing.T) {
	s, tmpDir := newProject(t)
	w := New(s, func(_ context.Context, _, _ string) error { return nil })
	w.sweep()
	if len(w.tracked) != 1 {
		t.Fatalf("expected one tracked workspace, got %d", len(w.tracked))
	}

	if err := s.DeleteProject(filepath.Base(tmpDir)); err != nil {
		t.Fatal(err)
	}
	makeDue(w)
	w.sweep()
	if len(w.tracked) != 0 {
		t.Errorf("removed project still tracked: %v", w.tracked)
	}
}
