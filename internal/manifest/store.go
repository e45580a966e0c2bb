package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound means no manifest exists for the requested version.
// Expected for stale or externally managed instances; only the rollback
// target treats it as fatal.
var ErrNotFound = errors.New("manifest not found")

// Store reads and writes one manifest per deployed version under the
// deployment directory: <dir>/<versionId>-<suffix>.
type Store struct {
	dir    string
	suffix string
}

func NewStore(dir, suffix string) *Store {
	return &Store{dir: dir, suffix: suffix}
}

// Dir returns the deployment directory the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the manifest path for a version.
func (s *Store) Path(versionID string) string {
	return filepath.Join(s.dir, versionID+"-"+s.suffix)
}

// Read loads and parses the manifest for a version. A missing file maps
// to ErrNotFound.
func (s *Store) Read(versionID string) (*Document, error) {
	path := s.Path(versionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return doc, nil
}

// Write serializes the document and replaces the version's manifest
// atomically: temp file in the same directory, fsync, rename. A reader
// never observes a half-written manifest. The original file mode is
// preserved when the manifest already exists.
func (s *Store) Write(versionID string, doc *Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}

	path := s.Path(versionID)
	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(s.dir, "."+versionID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
