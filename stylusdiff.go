// Package stylusdiff compiles a directory of Stylus entry points to CSS and keeps
// the build output in sync with as few rewrites as possible.
//
// # Diff then render
//
// Run renders every source without annotations, compares the result with the
// snapshot recorded by the previous run, and only re-renders (in the requested
// final mode) the stylesheets whose CSS actually changed:
//
//	cfg := stylusdiff.Config{
//		SourceDir: "src/stylus",
//		BuildDir:  "bld/css",
//		CacheDir:  "tmp/stylus",
//	}
//	result, err := stylusdiff.Run(ctx, cfg, stylusdiff.Options{Linenos: true})
//
// When the build directory already holds annotated output (line comments or a
// sourcemap reference), the diff is skipped and every unit is rebuilt in the final
// mode so a run never silently flips the build between modes.
//
// # Other operations
//
//   - Compile renders and writes every unit unconditionally.
//   - FrontendCopy makes sure the build directory holds clean CSS before a
//     downstream copy.
//   - Watch re-runs Run whenever a source changes.
//
// # CLI Tool
//
//	go install github.com/yacobolo/stylusdiff/cmd/stylusdiff@latest
package stylusdiff

import (
	"log"

	"github.com/yacobolo/stylusdiff/internal/cache"
	"github.com/yacobolo/stylusdiff/internal/marker"
	"github.com/yacobolo/stylusdiff/internal/reconcile"
	"github.com/yacobolo/stylusdiff/internal/render"
	"github.com/yacobolo/stylusdiff/internal/source"
)

// Render types shared with callers.
type (
	Options          = render.Options
	SourcemapOptions = render.SourcemapOptions
	Engine           = render.Engine
	EngineFunc       = render.EngineFunc
	Artifact         = render.Artifact
	Sourcemap        = render.Sourcemap
	CompileError     = render.CompileError
	Finding          = marker.Finding
	Unit             = source.Unit
	UnitResult       = reconcile.Result
	Action           = reconcile.Action
)

// Per-unit outcomes.
const (
	Unchanged    = reconcile.Unchanged
	Baselined    = reconcile.Baselined
	CacheUpdated = reconcile.CacheUpdated
	Written      = reconcile.Written
	Failed       = reconcile.Failed
	Skipped      = reconcile.Skipped
)

// ErrEngineUnavailable is returned when the render engine cannot run at all.
var ErrEngineUnavailable = render.ErrEngineUnavailable

// Config holds the directories and runtime settings shared by all operations.
type Config struct {
	SourceDir string   // Directory holding the entry points
	Includes  []string // Glob patterns relative to SourceDir (default "*.styl")
	BuildDir  string   // Compiled CSS and sourcemaps
	CacheDir  string   // Unannotated snapshots used as the diff baseline

	Engine    Engine      // nil selects the in-process engine
	Jobs      int         // Concurrent units; <= 0 means GOMAXPROCS
	Logger    *log.Logger // Per-unit tracing; nil discards
	ShowDiffs bool        // Attach snapshot diffs to changed units
}

// NewCSSEngine returns the in-process engine.
func NewCSSEngine() Engine {
	return render.NewCSSEngine()
}

// NewExecEngine returns an engine that runs the stylus executable at bin.
func NewExecEngine(bin string) Engine {
	return render.NewExecEngine(bin)
}

func (c Config) engine() Engine {
	if c.Engine != nil {
		return c.Engine
	}
	return render.NewCSSEngine()
}

func (c Config) reconciler() *reconcile.Reconciler {
	return &reconcile.Reconciler{
		Renderer:  render.NewAdapter(c.engine()),
		Cache:     cache.New(c.CacheDir),
		Writer:    reconcile.NewWriter(c.BuildDir),
		SourceDir: c.SourceDir,
		Jobs:      c.Jobs,
		Logger:    c.Logger,
		ShowDiffs: c.ShowDiffs,
	}
}

func (c Config) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
