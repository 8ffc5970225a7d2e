package stylusdiff

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// RunFunc receives the outcome of every run started by Watch.
type RunFunc func(*Result, error)

// Watch runs Run once, then again whenever a .styl file under cfg.SourceDir is
// created, written, removed or renamed. Runs never overlap: changes that arrive
// while a run is in progress are folded into a single follow-up run. Watch returns
// nil once ctx is canceled.
func Watch(ctx context.Context, cfg Config, final Options, onRun RunFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	skip := skipDirs(cfg)
	if err := watchTree(watcher, cfg.SourceDir, skip); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	pending := make(chan struct{}, 1)
	pending <- struct{}{}
	trigger := func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-pending:
				res, err := Run(ctx, cfg, final)
				if ctx.Err() != nil {
					return
				}
				if onRun != nil {
					onRun(res, err)
				}
			}
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, event.Name, skip); err != nil {
						cfg.logf("watch: %v", err)
					}
					trigger()
					continue
				}
			}
			if event.Op == fsnotify.Chmod || !strings.EqualFold(filepath.Ext(event.Name), ".styl") {
				continue
			}
			cfg.logf("watch: %s %s", event.Op, event.Name)
			trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cfg.logf("watch error: %v", err)
		}
	}
}

// skipDirs lists output directories that must not be watched when they live
// inside the source tree.
func skipDirs(cfg Config) map[string]bool {
	skip := make(map[string]bool)
	for _, dir := range []string{cfg.BuildDir, cfg.CacheDir} {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			skip[abs] = true
		}
	}
	return skip
}

// watchTree adds root and every directory below it.
func watchTree(w *fsnotify.Watcher, root string, skip map[string]bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && skip[abs] {
			return filepath.SkipDir
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
