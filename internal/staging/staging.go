// Package staging manages the local temp directory where upload bodies are
// parked before ingestion. Paths are collision-free across concurrent
// requests, and removal tolerates files that are already gone so cleanup
// can run unconditionally on every exit path.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Stager stages byte streams into a shared temp directory.
type Stager struct {
	fs  afero.Fs
	dir string
}

// NewStager ensures dir exists on fs and returns a stager rooted there.
func NewStager(fs afero.Fs, dir string) (*Stager, error) {
	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Stager{fs: fs, dir: dir}, nil
}

// Dir returns the staging root.
func (s *Stager) Dir() string { return s.dir }

// Stage copies r into a freshly named temp file and returns its path along
// with the number of bytes written. The random suffix keeps concurrent
// requests from colliding.
func (s *Stager) Stage(r io.Reader) (string, int64, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("upload-%s.tmp", uuid.New()))

	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("creating staging file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(path)
		return "", 0, fmt.Errorf("staging upload: %w", err)
	}

	return path, n, nil
}

// Open re-opens a staged file for reading. Staged files are regular files,
// so callers may seek.
func (s *Stager) Open(path string) (afero.File, error) {
	return s.fs.Open(path)
}

// Remove deletes a staged file. A file that is already gone is not an
// error.
func (s *Stager) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing staged file %s: %w", path, err)
	}
	return nil
}

// Leftovers lists files still present under the staging root. Used by
// tests to assert the no-orphan guarantee.
func (s *Stager) Leftovers() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, fi := range infos {
		if !fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	return names, nil
}
