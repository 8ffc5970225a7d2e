package stylusdiff

import (
	"context"
	"fmt"
	"time"

	"github.com/yacobolo/stylusdiff/internal/marker"
	"github.com/yacobolo/stylusdiff/internal/source"
)

// Mode names the path an operation took.
type Mode string

const (
	// ModeDiff means the build output was clean and units were reconciled.
	ModeDiff Mode = "diff"
	// ModeAnnotated means markers were found, so every unit was rebuilt and rebaselined.
	ModeAnnotated Mode = "annotated"
	// ModeCompile is an unconditional render of every unit.
	ModeCompile Mode = "compile"
	// ModeCleanCopy means FrontendCopy re-rendered annotated output without annotations.
	ModeCleanCopy Mode = "clean-copy"
	// ModeAlreadyClean means FrontendCopy found clean output and rendered nothing.
	ModeAlreadyClean Mode = "already-clean"
)

// Result is the outcome of one operation.
type Result struct {
	Mode     Mode
	Marker   *Finding // First annotated build file, when one was found
	Units    []UnitResult
	Duration time.Duration
}

// Count returns the number of units that ended with action a.
func (r *Result) Count(a Action) int {
	n := 0
	for _, u := range r.Units {
		if u.Action == a {
			n++
		}
	}
	return n
}

// Failures returns the units that failed to compile.
func (r *Result) Failures() []UnitResult {
	var out []UnitResult
	for _, u := range r.Units {
		if u.Action == Failed {
			out = append(out, u)
		}
	}
	return out
}

// Run is the diff-then-render entry point. If the build directory carries
// annotation markers, every unit is rebuilt with final and its snapshot replaced;
// otherwise units are reconciled against their snapshots and only changed ones are
// rebuilt with final.
//
// Compile errors are reported per unit in the result. The error return is for
// storage failures, an unavailable engine and cancellation.
func Run(ctx context.Context, cfg Config, final Options) (*Result, error) {
	start := time.Now()

	units, err := source.Discover(cfg.SourceDir, cfg.Includes)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}

	finding, err := marker.Find(cfg.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("detect markers: %w", err)
	}

	rec := cfg.reconciler()
	result := &Result{Marker: finding}
	if finding != nil {
		cfg.logf("annotated output found in %s, rebuilding %d units", finding.File, len(units))
		result.Mode = ModeAnnotated
		result.Units, err = rec.RenderAll(ctx, units, final, true)
	} else {
		cfg.logf("reconciling %d units", len(units))
		result.Mode = ModeDiff
		result.Units, err = rec.Reconcile(ctx, units, final)
	}
	result.Duration = time.Since(start)
	if err != nil {
		return result, fmt.Errorf("reconcile failed: %w", err)
	}
	return result, nil
}

// Compile renders every unit with opts and writes every artifact. Snapshots are
// not touched.
func Compile(ctx context.Context, cfg Config, opts Options) (*Result, error) {
	start := time.Now()

	units, err := source.Discover(cfg.SourceDir, cfg.Includes)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}

	cfg.logf("compiling %d units", len(units))
	results, err := cfg.reconciler().RenderAll(ctx, units, opts, false)
	result := &Result{Mode: ModeCompile, Units: results, Duration: time.Since(start)}
	if err != nil {
		return result, fmt.Errorf("compile failed: %w", err)
	}
	return result, nil
}

// FrontendCopy prepares the build directory for a downstream copy. Annotated
// output is re-rendered without line comments or sourcemaps; clean output is
// left as it is. Pass-through settings in opts such as Compress still apply.
func FrontendCopy(ctx context.Context, cfg Config, opts Options) (*Result, error) {
	start := time.Now()

	finding, err := marker.Find(cfg.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("detect markers: %w", err)
	}
	if finding == nil {
		cfg.logf("build output is clean, nothing to render")
		return &Result{Mode: ModeAlreadyClean, Duration: time.Since(start)}, nil
	}

	units, err := source.Discover(cfg.SourceDir, cfg.Includes)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}

	cfg.logf("annotated output found in %s, rendering %d units clean", finding.File, len(units))
	results, err := cfg.reconciler().RenderAll(ctx, units, opts.Clean(), false)
	result := &Result{Mode: ModeCleanCopy, Marker: finding, Units: results, Duration: time.Since(start)}
	if err != nil {
		return result, fmt.Errorf("clean render failed: %w", err)
	}
	return result, nil
}

// Detect reports the first file in buildDir carrying annotation markers, or nil
// when the output is clean or the directory does not exist.
func Detect(buildDir string) (*Finding, error) {
	return marker.Find(buildDir)
}
