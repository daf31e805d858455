package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/DeusData/kcl-ast/internal/config"
	"github.com/DeusData/kcl-ast/internal/discover"
	"github.com/DeusData/kcl-ast/internal/store"
)

const (
	tick        = time.Second
	maxInterval = time.Minute

	// filesPerStep is how many files add one second to a workspace's interval.
	filesPerStep = 500
)

// stamp is what the watcher remembers about one file.
type stamp struct {
	mtime int64
	size  int64
}

// fingerprint maps workspace-relative paths to stamps.
type fingerprint map[string]stamp

func (f fingerprint) equal(other fingerprint) bool {
	if len(f) != len(other) {
		return false
	}
	for rel, s := range f {
		if o, ok := other[rel]; !ok || o != s {
			return false
		}
	}
	return true
}

// workspace tracks one indexed project between polls.
type workspace struct {
	baseline fingerprint
	every    time.Duration
	due      time.Time
}

func (ws *workspace) postpone(d time.Duration) {
	ws.due = time.Now().Add(d)
}

// IndexFunc re-indexes the project rooted at rootPath.
type IndexFunc func(ctx context.Context, projectName, rootPath string) error

// Watcher polls every indexed workspace for .kcl changes and re-indexes the
// ones that changed. A workspace whose .kclconfig sets watch.enabled to
// false is left alone until the setting flips back.
type Watcher struct {
	store   *store.Store
	reindex IndexFunc
	tracked map[string]*workspace
	ctx     context.Context
}

// New returns a watcher over the projects in s.
func New(s *store.Store, reindex IndexFunc) *Watcher {
	return &Watcher{
		store:   s,
		reindex: reindex,
		tracked: make(map[string]*workspace),
		ctx:     context.Background(),
	}
}

// Run polls until ctx is cancelled. Each workspace is checked no more often
// than its own interval, which grows with its file count.
func (w *Watcher) Run(ctx context.Context) {
	w.ctx = ctx
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.sweep()
		}
	}
}

func (w *Watcher) sweep() {
	projects, err := w.store.ListProjects()
	if err != nil {
		slog.Warn("watcher.list", "err", err)
		return
	}

	live := make(map[string]bool, len(projects))
	now := time.Now()
	for _, proj := range projects {
		live[proj.Name] = true
		ws, ok := w.tracked[proj.Name]
		if !ok {
			ws = &workspace{every: tick}
			w.tracked[proj.Name] = ws
		} else if now.Before(ws.due) {
			continue
		}
		w.check(proj, ws)
	}
	for name := range w.tracked {
		if !live[name] {
			delete(w.tracked, name)
		}
	}
}

// check compares the workspace against its baseline. The first successful
// scan only records the baseline. A failed re-index keeps the old baseline
// so the change is picked up again on the next poll.
func (w *Watcher) check(proj *store.Project, ws *workspace) {
	if _, err := os.Stat(proj.RootPath); err != nil {
		slog.Warn("watcher.missing_root", "project", proj.Name, "path", proj.RootPath)
		ws.postpone(maxInterval)
		return
	}
	cfg := config.Load(proj.RootPath)
	if !cfg.EffectiveWatch() {
		ws.baseline = nil
		ws.postpone(maxInterval)
		return
	}

	current, err := scan(w.ctx, proj.RootPath, cfg.Index.ExcludePaths)
	if err != nil {
		slog.Warn("watcher.scan", "project", proj.Name, "err", err)
		ws.postpone(ws.every)
		return
	}
	ws.every = intervalFor(len(current))

	switch {
	case ws.baseline == nil:
		slog.Debug("watcher.baseline", "project", proj.Name, "files", len(current))
		ws.baseline = current
	case ws.baseline.equal(current):
	default:
		slog.Info("watcher.changed", "project", proj.Name, "files", len(current))
		if err := w.reindex(w.ctx, proj.Name, proj.RootPath); err != nil {
			slog.Warn("watcher.reindex", "project", proj.Name, "err", err)
		} else {
			ws.baseline = current
		}
	}
	ws.postpone(ws.every)
}

// scan stamps every .kcl file discover would index under root.
func scan(ctx context.Context, root string, exclude []string) (fingerprint, error) {
	files, err := discover.Discover(ctx, root, &discover.Options{ExcludePaths: exclude})
	if err != nil {
		return nil, err
	}
	fp := make(fingerprint, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		fp[f.RelPath] = stamp{mtime: info.ModTime().UnixNano(), size: info.Size()}
	}
	return fp, nil
}

func intervalFor(files int) time.Duration {
	return min(tick*time.Duration(1+files/filesPerStep), maxInterval)
}
