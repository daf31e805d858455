package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Symbol is one document symbol of an indexed file. Start and End are byte
// offsets; lines are zero-based.
type Symbol struct {
	ID            int64  `json:"id"`
	Project       string `json:"project"`
	RelPath       string `json:"rel_path"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Detail        string `json:"detail,omitempty"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	Parent        string `json:"parent,omitempty"` // qualified name of the enclosing symbol, if any
}

const symbolCols = `id, project, rel_path, name, qualified_name, kind, detail, start_offset, end_offset, start_line, end_line, parent`

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numSymbolCols = 11
const symbolsBatchSize = 999 / numSymbolCols // = 90

// InsertSymbols writes syms in batched multi-row INSERTs.
func (s *Store) InsertSymbols(syms []*Symbol) error {
	for i := 0; i < len(syms); i += symbolsBatchSize {
		end := i + symbolsBatchSize
		if end > len(syms) {
			end = len(syms)
		}
		if err := s.insertSymbolChunk(syms[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertSymbolChunk(batch []*Symbol) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO symbols (project, rel_path, name, qualified_name, kind, detail, start_offset, end_offset, start_line, end_line, parent) VALUES `)

	args := make([]any, 0, len(batch)*numSymbolCols)
	for i, sym := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, sym.Project, sym.RelPath, sym.Name, sym.QualifiedName, sym.Kind, sym.Detail,
			sym.Start, sym.End, sym.StartLine, sym.EndLine, sym.Parent)
	}
	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert symbol batch: %w", err)
	}
	return nil
}

// ReplaceFileSymbols swaps every symbol of one file for syms.
func (s *Store) ReplaceFileSymbols(project, relPath string, syms []*Symbol) error {
	if _, err := s.q.Exec("DELETE FROM symbols WHERE project=? AND rel_path=?", project, relPath); err != nil {
		return fmt.Errorf("delete file symbols: %w", err)
	}
	return s.InsertSymbols(syms)
}

// FindSymbolByQN finds the first symbol with the given qualified name.
func (s *Store) FindSymbolByQN(project, qualifiedName string) (*Symbol, error) {
	row := s.q.QueryRow(`SELECT `+symbolCols+` FROM symbols WHERE project=? AND qualified_name=? ORDER BY id LIMIT 1`,
		project, qualifiedName)
	return scanSymbol(row)
}

// FindSymbolsByName finds symbols by project and name.
func (s *Store) FindSymbolsByName(project, name string) ([]*Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolCols+` FROM symbols WHERE project=? AND name=? ORDER BY rel_path, start_offset`,
		project, name)
	if err != nil {
		return nil, fmt.Errorf("find by name: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// FindSymbolsByFile finds all symbols in a given file, in source order.
func (s *Store) FindSymbolsByFile(project, relPath string) ([]*Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolCols+` FROM symbols WHERE project=? AND rel_path=? ORDER BY start_offset, id`,
		project, relPath)
	if err != nil {
		return nil, fmt.Errorf("find by file: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// CountSymbols returns the number of symbols in a project.
func (s *Store) CountSymbols(project string) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM symbols WHERE project=?", project).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSymbol(row scanner) (*Symbol, error) {
	var sym Symbol
	err := row.Scan(&sym.ID, &sym.Project, &sym.RelPath, &sym.Name, &sym.QualifiedName, &sym.Kind, &sym.Detail,
		&sym.Start, &sym.End, &sym.StartLine, &sym.EndLine, &sym.Parent)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &sym, nil
}

func scanSymbols(rows *sql.Rows) ([]*Symbol, error) {
	var result []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sym)
	}
	return result, rows.Err()
}
