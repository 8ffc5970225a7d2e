// Package cache stores the last unannotated rendering of every source unit.
//
// The snapshots are only a diff baseline: they are compared against fresh
// unannotated renders and never against annotated build output. Layout mirrors the
// unit names under the cache directory:
//
//	<dir>/style.css
//	<dir>/pages/home.css
package cache

import (
	"fmt"
	"path/filepath"

	"github.com/yacobolo/stylusdiff/internal/fsutil"
)

// Ext is the extension of snapshot files.
const Ext = ".css"

// Store reads and writes snapshots under a directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the snapshot file for a unit key ("style", "pages/home").
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key)+Ext)
}

// Read returns the snapshot for key. ok is false when no snapshot exists.
func (s *Store) Read(key string) (text string, ok bool, err error) {
	data, ok, err := fsutil.ReadOptional(s.Path(key))
	if err != nil {
		return "", false, fmt.Errorf("read cache snapshot %s: %w", key, err)
	}
	return string(data), ok, nil
}

// Write replaces the snapshot for key.
func (s *Store) Write(key, text string) error {
	if err := fsutil.WriteAtomic(s.Path(key), []byte(text)); err != nil {
		return fmt.Errorf("write cache snapshot %s: %w", key, err)
	}
	return nil
}

// Rebaseline stores text for key unless the snapshot already holds it.
func (s *Store) Rebaseline(key, text string) (bool, error) {
	written, err := fsutil.WriteIfChanged(s.Path(key), []byte(text))
	if err != nil {
		return false, fmt.Errorf("write cache snapshot %s: %w", key, err)
	}
	return written, nil
}
