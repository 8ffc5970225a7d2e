// Package render turns Stylus sources into CSS through a pluggable engine.
//
// The Adapter is the only entry point the rest of the module uses. It binds the
// engine to a uniform contract: line comments and sourcemaps are never produced
// together, sourcemap reference comments are stripped from the CSS (the artifact
// writer decides where the map goes), and every compile failure surfaces as a
// *CompileError.
package render

import (
	"context"
	"errors"
)

var (
	// ErrNoFilename is returned when Options.Filename is empty.
	ErrNoFilename = errors.New("render: options.Filename is required")
	// ErrEngineUnavailable means the engine cannot run at all, e.g. the stylus
	// executable is missing. Unlike compile errors it is not tied to one source.
	ErrEngineUnavailable = errors.New("render: engine unavailable")
)

// Engine compiles a single Stylus source.
type Engine interface {
	Render(ctx context.Context, src string, opts Options) (*Artifact, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, src string, opts Options) (*Artifact, error)

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, src string, opts Options) (*Artifact, error) {
	return f(ctx, src, opts)
}

// Adapter normalizes an Engine.
type Adapter struct {
	engine Engine
}

// NewAdapter wraps engine.
func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Render compiles src. With opts.Linenos set, any sourcemap request is dropped.
func (a *Adapter) Render(ctx context.Context, src string, opts Options) (*Artifact, error) {
	if opts.Filename == "" {
		return nil, ErrNoFilename
	}
	opts = opts.clone()
	if opts.Linenos {
		opts.Sourcemap = nil
	}

	art, err := a.engine.Render(ctx, src, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, ErrEngineUnavailable) {
			return nil, err
		}
		var ce *CompileError
		if errors.As(err, &ce) {
			c := *ce
			if c.File == "" {
				c.File = opts.Filename
			}
			return nil, &c
		}
		return nil, &CompileError{File: opts.Filename, Message: err.Error()}
	}
	if art == nil {
		return nil, &CompileError{File: opts.Filename, Message: "engine returned no output"}
	}

	out := &Artifact{CSS: StripSourceMappingURL(art.CSS)}
	if opts.Sourcemap != nil {
		if art.Sourcemap == nil {
			return nil, &CompileError{Kind: "SourcemapError", File: opts.Filename, Message: "engine produced no sourcemap"}
		}
		sm := *art.Sourcemap
		if sm.SourceRoot == "" {
			sm.SourceRoot = opts.Sourcemap.SourceRoot
		}
		out.Sourcemap = &sm
	}
	return out, nil
}
