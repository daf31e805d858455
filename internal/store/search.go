package store

import (
	"fmt"
	"regexp"
	"strings"
)

// SearchParams defines structured symbol search parameters.
type SearchParams struct {
	Project     string
	Kind        string
	NamePattern string // regex over name and qualified name
	FilePattern string // glob over rel_path
	Limit       int
	Offset      int
}

// SearchOutput wraps search results with total count for pagination.
type SearchOutput struct {
	Results []*Symbol `json:"results"`
	Total   int       `json:"total"`
}

// Search executes a parameterized search query with pagination support.
func (s *Store) Search(params SearchParams) (*SearchOutput, error) {
	// Limit=0 means use default; use a high ceiling for SQL
	if params.Limit <= 0 {
		params.Limit = 100000
	}

	var conditions []string
	var args []any

	conditions = append(conditions, "project = ?")
	args = append(args, params.Project)

	if params.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, params.Kind)
	}

	if params.FilePattern != "" {
		conditions = append(conditions, "rel_path LIKE ?")
		args = append(args, globToLike(params.FilePattern))
	}

	// Regex filtering happens in Go, so fetch more rows than the page.
	sqlLimit := params.Offset + params.Limit
	if params.NamePattern != "" || sqlLimit > 100000 {
		sqlLimit = 100000
	}

	query := fmt.Sprintf(`SELECT %s FROM symbols WHERE %s ORDER BY rel_path, start_offset, id LIMIT ?`,
		symbolCols, strings.Join(conditions, " AND "))
	args = append(args, sqlLimit)

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	syms, err := scanSymbols(rows)
	if err != nil {
		return nil, err
	}

	if params.NamePattern != "" {
		syms, err = filterByNamePattern(syms, params.NamePattern)
		if err != nil {
			return nil, err
		}
	}

	total := len(syms)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	return &SearchOutput{
		Results: syms[start:end],
		Total:   total,
	}, nil
}

// globToLike converts a glob pattern to SQL LIKE pattern.
func globToLike(pattern string) string {
	result := strings.ReplaceAll(pattern, "**", "%")
	result = strings.ReplaceAll(result, "*", "%")
	result = strings.ReplaceAll(result, "?", "_")
	return result
}

// filterByNamePattern filters symbols by a regex name pattern.
func filterByNamePattern(syms []*Symbol, pattern string) ([]*Symbol, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern: %w", err)
	}
	var filtered []*Symbol
	for _, sym := range syms {
		if re.MatchString(sym.Name) || re.MatchString(sym.QualifiedName) {
			filtered = append(filtered, sym)
		}
	}
	return filtered, nil
}
