package fqn

import (
	"path/filepath"
	"strings"
)

// Compute returns the canonical qualified name for a symbol.
// Format: <project>.<rel_path_parts_dotted>.<scope...>.<name>
// Examples:
//   - bracket.parts.flange.thickness
//   - bracket.parts.box (box declared at the top of parts/main.kcl)
func Compute(project, relPath string, scope ...string) string {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	// main.kcl is the entry point of its directory
	if len(parts) > 1 && parts[len(parts)-1] == "main" {
		parts = parts[:len(parts)-1]
	}

	all := append([]string{project}, parts...)
	for _, s := range scope {
		if s != "" {
			all = append(all, s)
		}
	}
	return strings.Join(all, ".")
}

// ModuleQN returns the qualified name for a file.
func ModuleQN(project, relPath string) string {
	return Compute(project, relPath)
}

// ProjectName derives a project name from a workspace root directory.
func ProjectName(root string) string {
	name := filepath.Base(filepath.Clean(root))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "workspace"
	}
	return strings.ReplaceAll(name, ".", "_")
}
