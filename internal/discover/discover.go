package discover

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the source file extension of the DSL.
const Extension = ".kcl"

// IgnoreFileName lists extra directory patterns to skip, one per line.
const IgnoreFileName = ".kclignore"

// ignoreDirs are directory names to skip during discovery.
var ignoreDirs = map[string]bool{
	".cache": true, ".git": true, ".hg": true, ".idea": true,
	".svn": true, ".tmp": true, ".vscode": true,
	"build": true, "dist": true, "node_modules": true, "out": true,
	"target": true, "tmp": true, "vendor": true,
}

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // slash-separated, relative to the workspace root
	Size    int64
}

// Options configures file discovery.
type Options struct {
	IgnoreFile   string   // path to an ignore file (optional, defaults to <root>/.kclignore)
	ExcludePaths []string // extra patterns, e.g. from .kclconfig
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if ignoreDirs[name] {
		return true
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.ToSlash(rel)); matched {
			return true
		}
	}
	return false
}

// Discover walks a workspace and returns all source files in walk order.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ignPath := filepath.Join(root, IgnoreFileName)
	if opts != nil && opts.IgnoreFile != "" {
		ignPath = opts.IgnoreFile
	}
	extraIgnore, _ := loadIgnoreFile(ignPath)
	if opts != nil {
		extraIgnore = append(extraIgnore, opts.ExcludePaths...)
	}

	var files []FileInfo

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)

		if info.IsDir() {
			if rel != "." && shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != Extension || !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
		})
		return nil
	})

	return files, err
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, strings.TrimSuffix(line, "/"))
		}
	}
	return patterns, scanner.Err()
}
