// Package source enumerates the stylesheet entry points of a source directory.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultIncludes matches the entry points directly inside the source directory.
var DefaultIncludes = []string{"*.styl"}

// Unit is one compilable entry point.
type Unit struct {
	Name string // Slash-separated path relative to the source dir, without extension: "style", "pages/home"
	Path string // File path
}

// Discover returns the units under dir matching includes, in reverse name order.
// Only regular files count; symlinks, directories and files ignored by a
// .gitignore in dir are skipped. A missing dir yields no units.
func Discover(dir string, includes []string) ([]Unit, error) {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat source dir: %w", err)
	}

	gi := loadGitIgnore(dir)
	seen := make(map[string]bool)
	var units []Unit

	for _, pattern := range includes {
		// Use doublestar for ** glob support
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			info, err := os.Lstat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(dir, match)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if gi != nil && gi.MatchesPath(rel) {
				continue
			}
			units = append(units, Unit{
				Name: strings.TrimSuffix(rel, filepath.Ext(rel)),
				Path: match,
			})
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Name > units[j].Name })
	return units, nil
}

// loadGitIgnore compiles dir/.gitignore. No file means no filtering.
func loadGitIgnore(dir string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
