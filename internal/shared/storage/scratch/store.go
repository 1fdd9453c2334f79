package scratch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"resume-analyzer/internal/shared/util"
)

// ErrOutsideDir is returned when a path does not belong to the store.
var ErrOutsideDir = errors.New("path outside scratch dir")

// Store writes request-scoped uploads to uniquely named files on the local filesystem.
type Store struct {
	baseDir string
}

// New creates a scratch store rooted at baseDir. An empty baseDir uses os.TempDir.
func New(baseDir string) *Store {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = os.TempDir()
	}
	return &Store{baseDir: baseDir}
}

// Dir returns the directory scratch files are written to.
func (s *Store) Dir() string {
	return s.baseDir
}

// Save copies r into a new file named resume-<uuid><ext>, where ext comes from fileName.
// The file is created exclusively so two saves never share a path.
func (s *Store) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(s.baseDir, 0o700); err != nil {
		return "", 0, fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(s.baseDir, "resume-"+uuid.NewString()+util.SafeExtension(fileName))
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("open file: %w", err)
	}

	written, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		if copyErr != nil {
			return "", 0, fmt.Errorf("write body: %w", copyErr)
		}
		return "", 0, fmt.Errorf("close file: %w", closeErr)
	}
	return fullPath, written, nil
}

// Remove deletes a file previously returned by Save. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	rel, err := filepath.Rel(s.baseDir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return ErrOutsideDir
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}
