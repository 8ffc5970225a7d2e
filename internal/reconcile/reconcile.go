// Package reconcile keeps build artifacts in sync with their sources while
// rewriting as little as possible.
//
// Every pass renders each unit without annotations and compares that against the
// cached snapshot from the previous pass. Only units whose unannotated CSS moved
// are rendered again in the requested final mode, and only when the artifact on
// disk does not already hold the new CSS.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/yacobolo/stylusdiff/internal/cache"
	"github.com/yacobolo/stylusdiff/internal/render"
	"github.com/yacobolo/stylusdiff/internal/source"
)

// Action is what a pass did with one unit.
type Action int

const (
	Unchanged    Action = iota // Snapshot matched the fresh render, nothing written
	Baselined                  // No snapshot yet; recorded one and left the existing artifact alone
	CacheUpdated               // Snapshot refreshed; the artifact already held the new CSS
	Written                    // Artifact rendered in the final mode and written
	Failed                     // Compile error; snapshot and artifact untouched
	Skipped                    // Source vanished after discovery; nothing read or written
)

func (a Action) String() string {
	switch a {
	case Unchanged:
		return "unchanged"
	case Baselined:
		return "baselined"
	case CacheUpdated:
		return "cache-updated"
	case Written:
		return "written"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Result is the outcome for one unit.
type Result struct {
	Unit   source.Unit
	Action Action
	Err    error  // Set when Action is Failed, usually a *render.CompileError
	Diff   string // Unified diff of the previous snapshot against the new render, when ShowDiffs is set
}

// Reconciler runs passes over a set of units.
type Reconciler struct {
	Renderer  *render.Adapter
	Cache     *cache.Store
	Writer    *Writer
	SourceDir string      // Base for sourcemap "sources"; defaults to each unit's directory
	Jobs      int         // Concurrent units; <= 0 means GOMAXPROCS
	Logger    *log.Logger // nil discards
	ShowDiffs bool
}

// Reconcile runs one diff pass. Compile errors are reported per unit in the
// results. The returned error is reserved for conditions that make the whole pass
// meaningless: storage failures, an unavailable engine, or cancellation. Units
// already in flight still finish before it is returned; units not yet started are
// reported as Skipped.
func (r *Reconciler) Reconcile(ctx context.Context, units []source.Unit, final render.Options) ([]Result, error) {
	return r.each(ctx, units, func(ctx context.Context, u source.Unit) (Result, error) {
		return r.reconcileUnit(ctx, u, final)
	})
}

// RenderAll renders every unit with opts and writes every artifact, bypassing the
// diff. With rebaseline set the unannotated render of each unit is also stored as
// its snapshot. Files already holding identical bytes are not rewritten.
func (r *Reconciler) RenderAll(ctx context.Context, units []source.Unit, opts render.Options, rebaseline bool) ([]Result, error) {
	return r.each(ctx, units, func(ctx context.Context, u source.Unit) (Result, error) {
		return r.renderUnit(ctx, u, opts, rebaseline)
	})
}

type unitFunc func(ctx context.Context, u source.Unit) (Result, error)

func (r *Reconciler) each(ctx context.Context, units []source.Unit, fn unitFunc) ([]Result, error) {
	results := make([]Result, len(units))

	// gctx only gates the start of new units; units in flight keep ctx and finish.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs())
	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Unit: u, Action: Skipped}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return nil
			}
			res, err := fn(ctx, u)
			if err != nil {
				return fmt.Errorf("%s: %w", u.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Reconciler) jobs() int {
	if r.Jobs > 0 {
		return r.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

func (r *Reconciler) reconcileUnit(ctx context.Context, u source.Unit, final render.Options) (Result, error) {
	res := Result{Unit: u}

	src, ok, err := readSource(u)
	if err != nil {
		return res, err
	}
	if !ok {
		r.logf("%s: source disappeared, skipping", u.Name)
		res.Action = Skipped
		return res, nil
	}

	final = final.ForFile(u.Path, r.SourceDir)
	clean, err := r.Renderer.Render(ctx, src, final.Clean())
	if err != nil {
		return failed(res, err)
	}
	cssNew := clean.CSS

	cached, hasCache, err := r.Cache.Read(u.Name)
	if err != nil {
		return res, err
	}

	if !hasCache {
		_, hasArtifact, err := r.Writer.Read(u.Name)
		if err != nil {
			return res, err
		}
		if hasArtifact {
			r.logf("%s: no snapshot, recording baseline", u.Name)
			res.Action = Baselined
			return res, r.Cache.Write(u.Name, cssNew)
		}
		r.logf("%s: no snapshot and no artifact, building", u.Name)
		return r.writeFinal(ctx, res, src, clean, final)
	}

	if cached == cssNew {
		r.logf("%s: unchanged", u.Name)
		res.Action = Unchanged
		return res, nil
	}

	if r.ShowDiffs {
		res.Diff = unifiedDiff(u.Name, cached, cssNew)
	}

	current, hasArtifact, err := r.Writer.Read(u.Name)
	if err != nil {
		return res, err
	}
	if hasArtifact && current == cssNew {
		r.logf("%s: artifact already current, refreshing snapshot", u.Name)
		res.Action = CacheUpdated
		return res, r.Cache.Write(u.Name, cssNew)
	}

	r.logf("%s: changed, rendering final output", u.Name)
	return r.writeFinal(ctx, res, src, clean, final)
}

// writeFinal renders the final mode, writes the artifact and then records the
// snapshot. The snapshot is stored last so a failed final render is retried on the
// next pass.
func (r *Reconciler) writeFinal(ctx context.Context, res Result, src string, clean *render.Artifact, final render.Options) (Result, error) {
	art := clean
	if !final.IsClean() {
		var err error
		art, err = r.Renderer.Render(ctx, src, final)
		if err != nil {
			return failed(res, err)
		}
	}
	if _, err := r.Writer.Write(res.Unit.Name, art, final); err != nil {
		return res, err
	}
	res.Action = Written
	return res, r.Cache.Write(res.Unit.Name, clean.CSS)
}

func (r *Reconciler) renderUnit(ctx context.Context, u source.Unit, opts render.Options, rebaseline bool) (Result, error) {
	res := Result{Unit: u}

	src, ok, err := readSource(u)
	if err != nil {
		return res, err
	}
	if !ok {
		r.logf("%s: source disappeared, skipping", u.Name)
		res.Action = Skipped
		return res, nil
	}

	opts = opts.ForFile(u.Path, r.SourceDir)
	var clean *render.Artifact
	if rebaseline || opts.IsClean() {
		clean, err = r.Renderer.Render(ctx, src, opts.Clean())
		if err != nil {
			return failed(res, err)
		}
	}

	art := clean
	if !opts.IsClean() {
		art, err = r.Renderer.Render(ctx, src, opts)
		if err != nil {
			return failed(res, err)
		}
	}

	written, err := r.Writer.Write(u.Name, art, opts)
	if err != nil {
		return res, err
	}
	if rebaseline {
		if _, err := r.Cache.Rebaseline(u.Name, clean.CSS); err != nil {
			return res, err
		}
	}

	if written {
		r.logf("%s: written", u.Name)
		res.Action = Written
	} else {
		r.logf("%s: artifact already current", u.Name)
		res.Action = Unchanged
	}
	return res, nil
}

// failed records a compile error on res. Any other error aborts the pass.
func failed(res Result, err error) (Result, error) {
	var ce *render.CompileError
	if !errors.As(err, &ce) {
		return res, err
	}
	res.Action = Failed
	res.Err = ce
	return res, nil
}

func readSource(u source.Unit) (string, bool, error) {
	// #nosec G304 - unit paths come from discovery under the source dir
	data, err := os.ReadFile(u.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read source: %w", err)
	}
	return string(data), true, nil
}

func unifiedDiff(name, before, after string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: filepath.ToSlash(filepath.Join("cache", name+cache.Ext)),
		ToFile:   name + ".css",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}
