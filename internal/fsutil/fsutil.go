// Package fsutil holds the small file helpers shared by the cache store and the
// artifact writer.
package fsutil

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadOptional reads path. A missing file is reported as ok=false, not an error.
func ReadOptional(path string) (data []byte, ok bool, err error) {
	// #nosec G304 - paths are derived from configured directories
	data, err = os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// WriteAtomic writes data to path through a temporary file in the same directory
// followed by a rename, creating parent directories as needed. Readers never see a
// partially written file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// WriteIfChanged writes data unless path already holds exactly those bytes.
// It reports whether a write happened.
func WriteIfChanged(path string, data []byte) (bool, error) {
	current, ok, err := ReadOptional(path)
	if err != nil {
		return false, err
	}
	if ok && bytes.Equal(current, data) {
		return false, nil
	}
	if err := WriteAtomic(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveOptional deletes path, ignoring a missing file. It reports whether a file
// was removed.
func RemoveOptional(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
