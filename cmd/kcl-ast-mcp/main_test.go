package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/DeusData/kcl-ast/internal/config"
	"github.com/DeusData/kcl-ast/internal/store"
	"github.com/DeusData/kcl-ast/internal/tools"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.watch || opts.httpAddr != "" || opts.schedule != "" {
		t.Errorf("unexpected defaults %+v", opts)
	}

	opts, err = parseFlags([]string{"--http=:8080", "--no-watch", "--db=/tmp/x.db", "--schedule=@hourly"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.httpAddr != ":8080" || opts.watch || opts.dbPath != "/tmp/x.db" || opts.schedule != "@hourly" {
		t.Errorf("unexpected options %+v", opts)
	}

	if _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Error("unknown flag should fail")
	}
}

func TestParseFlagsScheduleFromConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte("index:\n  schedule: \"*/30 * * * *\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts, err := parseFlags([]string{"--root=" + dir})
	if err != nil {
		t.Fatal(err)
	}
	if opts.schedule != "*/30 * * * *" {
		t.Errorf("schedule = %q", opts.schedule)
	}

	opts, err = parseFlags([]string{"--root=" + dir, "--schedule=@daily"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.schedule != "@daily" {
		t.Errorf("explicit schedule should win, got %q", opts.schedule)
	}
}

type countingReindexer struct{ calls int }

func (c *countingReindexer) ReindexAll(context.Context) error {
	c.calls++
	return nil
}

func TestStartScheduler(t *testing.T) {
	ctx := context.Background()
	r := &countingReindexer{}

	c, err := startScheduler(ctx, r, "")
	if err != nil || c != nil {
		t.Fatalf("empty spec should disable scheduling, got %v %v", c, err)
	}

	if _, err := startScheduler(ctx, r, "not a cron spec"); err == nil {
		t.Error("invalid spec should fail")
	}

	c, err = startScheduler(ctx, r, "@every 1h")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Stop()
	if n := len(c.Entries()); n != 1 {
		t.Errorf("expected one entry, got %d", n)
	}
}

func newTestRouter(t *testing.T) (http.Handler, *tools.Server) {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	srv, err := tools.NewServer(s)
	if err != nil {
		t.Fatal(err)
	}
	return newRouter(srv, s), srv
}

func TestRouterHealthz(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouterProjects(t *testing.T) {
	h, srv := newTestRouter(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.kcl"), []byte("flange = { width: 4, depth: 2 }\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := srv.IndexWorkspace(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))
	var projects []store.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &projects); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if len(projects) != 1 || projects[0].Name != res.Project {
		t.Fatalf("unexpected projects %+v", projects)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/"+res.Project+"/symbols?kind=property", nil))
	var out store.SearchOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if out.Total != 2 {
		t.Errorf("expected width and depth, got %+v", out)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/missing/symbols", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing project = %d", rec.Code)
	}
}
