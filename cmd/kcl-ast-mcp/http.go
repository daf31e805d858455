package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/kcl-ast/internal/store"
	"github.com/DeusData/kcl-ast/internal/tools"
)

// newRouter serves the MCP endpoint over streamable HTTP plus a small
// read-only view of the symbol index.
func newRouter(srv *tools.Server, s *store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv.MCPServer()
	}, nil)
	r.Handle("/mcp", mcpHandler)

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			projects, err := s.ListProjects()
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			if projects == nil {
				projects = []*store.Project{}
			}
			writeJSON(w, http.StatusOK, projects)
		})
		r.Get("/{project}/symbols", func(w http.ResponseWriter, req *http.Request) {
			name := chi.URLParam(req, "project")
			proj, err := s.GetProject(name)
			if err != nil || proj == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found: " + name})
				return
			}
			q := req.URL.Query()
			limit, _ := strconv.Atoi(q.Get("limit"))
			offset, _ := strconv.Atoi(q.Get("offset"))
			out, err := s.Search(store.SearchParams{
				Project:     name,
				Kind:        q.Get("kind"),
				NamePattern: q.Get("name"),
				FilePattern: q.Get("file"),
				Limit:       limit,
				Offset:      max(offset, 0),
			})
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, out)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http.encode", "err", err)
	}
}

// serveHTTP blocks until ctx is cancelled or the listener fails.
func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http.listen", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
