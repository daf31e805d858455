package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/DeusData/kcl-ast/internal/config"
	"github.com/DeusData/kcl-ast/internal/store"
	"github.com/DeusData/kcl-ast/internal/tools"
	"github.com/DeusData/kcl-ast/internal/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

const usage = `usage: kcl-ast-mcp [--version] [--http=ADDR] [--root=DIR] [--db=PATH]
                   [--schedule=CRON] [--no-watch] [--debug]`

type options struct {
	httpAddr string
	root     string
	dbPath   string
	schedule string
	watch    bool
	debug    bool
	version  bool
}

func parseFlags(args []string) (options, error) {
	opts := options{watch: true}
	for _, a := range args {
		switch {
		case a == "--version":
			opts.version = true
		case a == "--no-watch":
			opts.watch = false
		case a == "--debug":
			opts.debug = true
		case strings.HasPrefix(a, "--http="):
			opts.httpAddr = strings.TrimPrefix(a, "--http=")
		case strings.HasPrefix(a, "--root="):
			opts.root = strings.TrimPrefix(a, "--root=")
		case strings.HasPrefix(a, "--db="):
			opts.dbPath = strings.TrimPrefix(a, "--db=")
		case strings.HasPrefix(a, "--schedule="):
			opts.schedule = strings.TrimPrefix(a, "--schedule=")
		default:
			return opts, fmt.Errorf("unknown argument %q", a)
		}
	}
	if opts.root != "" {
		abs, err := filepath.Abs(opts.root)
		if err != nil {
			return opts, fmt.Errorf("root: %w", err)
		}
		opts.root = abs
		// A schedule in the workspace config applies unless one was given.
		if opts.schedule == "" {
			opts.schedule = config.Load(abs).Index.Schedule
		}
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println("kcl-ast-mcp", version)
		os.Exit(0)
	}

	// stdout belongs to the stdio transport.
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s *store.Store
	if opts.dbPath != "" {
		s, err = store.OpenPath(opts.dbPath)
	} else {
		s, err = store.Open()
	}
	if err != nil {
		log.Fatalf("store open err=%v", err)
	}

	tools.Version = version
	srv, err := tools.NewServer(s)
	if err != nil {
		s.Close()
		log.Fatalf("server init err=%v", err)
	}

	if opts.root != "" {
		if res, indexErr := srv.IndexWorkspace(ctx, opts.root); indexErr != nil {
			slog.Warn("startup.index", "root", opts.root, "err", indexErr)
		} else {
			slog.Info("startup.index", "project", res.Project, "files", res.Files, "symbols", res.Symbols)
		}
	}

	if opts.watch {
		w := watcher.New(s, srv.Reindex)
		go w.Run(ctx)
	}

	sched, err := startScheduler(ctx, srv, opts.schedule)
	if err != nil {
		slog.Warn("schedule.invalid", "spec", opts.schedule, "err", err)
	}

	var runErr error
	if opts.httpAddr != "" {
		runErr = serveHTTP(ctx, opts.httpAddr, newRouter(srv, s))
	} else {
		runErr = srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
	}

	if sched != nil {
		<-sched.Stop().Done()
	}
	s.Close()
	if runErr != nil && ctx.Err() == nil {
		log.Fatalf("server err=%v", runErr)
	}
}
