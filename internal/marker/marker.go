// Package marker decides whether a build directory holds annotated output: CSS
// compiled with line-origin comments or carrying a sourcemap reference.
package marker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var (
	// A "/* line 12 : " opener and a ".styl */" closer must both appear.
	lineOpenRe  = regexp.MustCompile(`(?m)^/\* line \d+ : `)
	lineCloseRe = regexp.MustCompile(`(?m)\.styl \*/$`)

	sourceMapRe = regexp.MustCompile(`(?m)^/\*# sourceMappingURL=`)
)

// Markers is what one file carries.
type Markers struct {
	LineComments bool
	SourceMapRef bool
}

// Any reports whether any marker was found.
func (m Markers) Any() bool {
	return m.LineComments || m.SourceMapRef
}

// Scan tests css for both marker kinds.
func Scan(css []byte) Markers {
	return Markers{
		LineComments: lineOpenRe.Match(css) && lineCloseRe.Match(css),
		SourceMapRef: sourceMapRe.Match(css),
	}
}

// Finding names the first file that carried markers.
type Finding struct {
	File string
	Markers
}

// errFound stops the walk at the first annotated file.
var errFound = errors.New("marker found")

// Find walks dir, including nested directories, in lexical order and returns the
// first regular file carrying markers. A missing or empty directory yields
// (nil, nil).
func Find(dir string) (*Finding, error) {
	var found *Finding
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		// #nosec G304 - path comes from the configured build directory
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		if m := Scan(data); m.Any() {
			found = &Finding{File: path, Markers: m}
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return nil, fmt.Errorf("read build dir: %w", err)
	}
	return found, nil
}

// Detect reports whether dir holds annotated output. Read failures count as
// "no markers".
func Detect(dir string) bool {
	f, err := Find(dir)
	return err == nil && f != nil
}
