package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pscheid92/djmonitor/internal/domain"
)

const fileMode = 0o644

// FilePersister stores the record as indented JSON at path.
type FilePersister struct {
	path string
}

var _ Persister = (*FilePersister)(nil)

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the target file.
func (f *FilePersister) Path() string {
	return f.path
}

func (f *FilePersister) Load() (domain.Publication, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Publication{}, false, nil
	}
	if err != nil {
		return domain.Publication{}, false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var p domain.Publication
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Publication{}, false, fmt.Errorf("%w: %s: %w", domain.ErrCorruptState, f.path, err)
	}
	return p, true, nil
}

// CheckWritable verifies a save could succeed by creating and removing a file
// next to the target. The context is accepted for use as a readiness check.
func (f *FilePersister) CheckWritable(_ context.Context) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".check-*")
	if err != nil {
		return fmt.Errorf("config dir %s is not writable: %w", dir, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Save replaces the file atomically: the record is written to a temp file in
// the same directory, synced and renamed over the target.
func (f *FilePersister) Save(p domain.Publication) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal publication: %w", err)
	}

	if err := renameio.WriteFile(f.path, data, fileMode, renameio.WithTempDir(dir)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the rename. Not every platform supports fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
