package store

import "fmt"

// Project represents an indexed workspace.
type Project struct {
	Name      string `json:"name"`
	IndexedAt string `json:"indexed_at"`
	RootPath  string `json:"root_path"`
}

// UpsertProject creates or updates a project record.
func (s *Store) UpsertProject(name, rootPath string) error {
	_, err := s.q.Exec(`
		INSERT INTO projects (name, indexed_at, root_path) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET indexed_at=excluded.indexed_at, root_path=excluded.root_path`,
		name, Now(), rootPath)
	return err
}

// GetProject returns a project by name.
func (s *Store) GetProject(name string) (*Project, error) {
	var p Project
	err := s.q.QueryRow("SELECT name, indexed_at, root_path FROM projects WHERE name=?", name).
		Scan(&p.Name, &p.IndexedAt, &p.RootPath)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all indexed projects.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.q.Query("SELECT name, indexed_at, root_path FROM projects ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Name, &p.IndexedAt, &p.RootPath); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// DeleteProject deletes a project and all associated data (CASCADE).
func (s *Store) DeleteProject(name string) error {
	_, err := s.q.Exec("DELETE FROM projects WHERE name=?", name)
	return err
}

// FileRecord is the stored state of one indexed file. ContentHash covers the
// raw bytes; Digest is the structural digest of the parsed program.
type FileRecord struct {
	RelPath     string
	ContentHash string
	Digest      string
}

// UpsertFile stores the hashes of a file.
func (s *Store) UpsertFile(project string, f FileRecord) error {
	_, err := s.q.Exec(`
		INSERT INTO files (project, rel_path, content_hash, digest) VALUES (?, ?, ?, ?)
		ON CONFLICT(project, rel_path) DO UPDATE SET content_hash=excluded.content_hash, digest=excluded.digest`,
		project, f.RelPath, f.ContentHash, f.Digest)
	return err
}

// GetFiles returns rel_path → record for every file of a project.
func (s *Store) GetFiles(project string) (map[string]FileRecord, error) {
	rows, err := s.q.Query("SELECT rel_path, content_hash, digest FROM files WHERE project=?", project)
	if err != nil {
		return nil, fmt.Errorf("get files: %w", err)
	}
	defer rows.Close()
	result := make(map[string]FileRecord)
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.RelPath, &f.ContentHash, &f.Digest); err != nil {
			return nil, err
		}
		result[f.RelPath] = f
	}
	return result, rows.Err()
}

// DeleteFile removes a file and its symbols (CASCADE).
func (s *Store) DeleteFile(project, relPath string) error {
	_, err := s.q.Exec("DELETE FROM files WHERE project=? AND rel_path=?", project, relPath)
	return err
}

// CountFiles returns the number of indexed files in a project.
func (s *Store) CountFiles(project string) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM files WHERE project=?", project).Scan(&count)
	return count, err
}
