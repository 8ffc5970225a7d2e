package reconcile

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"

	"github.com/yacobolo/stylusdiff/internal/fsutil"
	"github.com/yacobolo/stylusdiff/internal/render"
)

// Writer owns the build directory: compiled CSS plus optional sidecar maps.
type Writer struct {
	dir string
}

// NewWriter returns a writer for the build directory dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the build directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the build artifact for a unit name.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, filepath.FromSlash(name)+".css")
}

// MapPath returns the sidecar sourcemap for a unit name.
func (w *Writer) MapPath(name string) string {
	return w.Path(name) + ".map"
}

// Read returns the current artifact content. ok is false when it does not exist.
func (w *Writer) Read(name string) (css string, ok bool, err error) {
	data, ok, err := fsutil.ReadOptional(w.Path(name))
	if err != nil {
		return "", false, fmt.Errorf("read build artifact %s: %w", name, err)
	}
	return string(data), ok, nil
}

// Write stores art as the artifact for name. With an external sourcemap the
// sidecar is written next to the artifact and referenced from it; with an inline
// sourcemap the map is embedded. A stale sidecar is removed when the new artifact
// does not use one. Files already holding identical bytes are left alone; the
// result reports whether the artifact itself changed.
func (w *Writer) Write(name string, art *render.Artifact, opts render.Options) (bool, error) {
	css := art.CSS
	sidecar := false

	if art.Sourcemap != nil && !opts.Linenos {
		sm := *art.Sourcemap
		sm.File = path.Base(name) + ".css"
		if opts.Sourcemap != nil && opts.Sourcemap.Inline {
			ref, err := render.InlineSourceMappingComment(&sm)
			if err != nil {
				return false, fmt.Errorf("encode sourcemap %s: %w", name, err)
			}
			css = withTrailingNewline(css) + ref
		} else {
			data, err := json.Marshal(&sm)
			if err != nil {
				return false, fmt.Errorf("encode sourcemap %s: %w", name, err)
			}
			if _, err := fsutil.WriteIfChanged(w.MapPath(name), data); err != nil {
				return false, fmt.Errorf("write sourcemap %s: %w", name, err)
			}
			sidecar = true
			css = withTrailingNewline(css) + render.SourceMappingComment(sm.File+".map")
		}
	}

	if !sidecar {
		if _, err := fsutil.RemoveOptional(w.MapPath(name)); err != nil {
			return false, fmt.Errorf("remove stale sourcemap %s: %w", name, err)
		}
	}

	written, err := fsutil.WriteIfChanged(w.Path(name), []byte(css))
	if err != nil {
		return false, fmt.Errorf("write build artifact %s: %w", name, err)
	}
	return written, nil
}

func withTrailingNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
