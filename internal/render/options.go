package render

import "path/filepath"

// SourcemapOptions controls sourcemap emission. A nil *SourcemapOptions on Options
// means no sourcemap.
type SourcemapOptions struct {
	Inline     bool   // Embed the map as a data URI instead of writing a sidecar file
	SourceRoot string // Value of the map's sourceRoot field
	BasePath   string // Directory that "sources" entries are made relative to
}

// Options is the per-invocation render configuration. It is a value type: use the
// With* helpers to derive variants instead of mutating a shared instance.
type Options struct {
	Filename  string            // Source file path, used for @import resolution and error attribution
	Linenos   bool              // Emit "/* line N : file */" comments before each rule
	Sourcemap *SourcemapOptions // nil disables sourcemaps
	Compress  bool              // Minified output

	// Pass-through compiler settings. Engines that do not understand them ignore them.
	IncludePaths []string
	Plugins      []string
	ResolveURL   bool
}

// ForFile returns a copy of o bound to filename. When a sourcemap is requested and no
// base path was configured, baseDir is used.
func (o Options) ForFile(filename, baseDir string) Options {
	out := o.clone()
	out.Filename = filename
	if out.Sourcemap != nil && out.Sourcemap.BasePath == "" {
		if baseDir == "" {
			baseDir = filepath.Dir(filename)
		}
		out.Sourcemap.BasePath = baseDir
	}
	return out
}

// Clean returns the unannotated variant of o: no line comments and no sourcemap.
// Pass-through settings are kept.
func (o Options) Clean() Options {
	out := o.clone()
	out.Linenos = false
	out.Sourcemap = nil
	return out
}

// IsClean reports whether o requests neither line comments nor a sourcemap.
func (o Options) IsClean() bool {
	return !o.Linenos && o.Sourcemap == nil
}

// WantsSidecar reports whether rendering with o produces an external .map file.
func (o Options) WantsSidecar() bool {
	return !o.Linenos && o.Sourcemap != nil && !o.Sourcemap.Inline
}

func (o Options) clone() Options {
	out := o
	if o.Sourcemap != nil {
		sm := *o.Sourcemap
		out.Sourcemap = &sm
	}
	out.IncludePaths = append([]string(nil), o.IncludePaths...)
	out.Plugins = append([]string(nil), o.Plugins...)
	return out
}
