package render

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// CSSEngine renders the CSS-compatible subset of Stylus in process: brace syntax,
// "//" comments, nested rules with "&" parent references, at-rule blocks (nested
// at-rules bubble up), and @import of partials. Output follows stylus formatting.
type CSSEngine struct{}

// NewCSSEngine returns an in-process engine.
func NewCSSEngine() *CSSEngine {
	return &CSSEngine{}
}

// Render compiles src as opts.Filename.
func (*CSSEngine) Render(ctx context.Context, src string, opts Options) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imp := &importer{
		ctx:      ctx,
		includes: opts.IncludePaths,
		active:   make(map[string]bool),
	}

	items, err := imp.parseFile(opts.Filename, src)
	if err != nil {
		return nil, err
	}

	out, err := flatten(items, nil)
	if err != nil {
		return nil, err
	}

	em := &emitter{compress: opts.Compress, linenos: opts.Linenos && !opts.Compress}
	if opts.Sourcemap != nil {
		em.maps = newMapBuilder()
	}
	em.items(out, 0)

	art := &Artifact{CSS: em.b.String()}
	if em.maps != nil {
		art.Sourcemap = em.maps.build(opts.Sourcemap)
	}
	return art, nil
}

// importer parses files and splices @import targets in place.
type importer struct {
	ctx      context.Context
	includes []string
	active   map[string]bool
}

func (im *importer) parseFile(file, src string) ([]node, error) {
	if err := im.ctx.Err(); err != nil {
		return nil, err
	}
	key := filepath.Clean(file)
	if im.active[key] {
		return nil, &CompileError{Kind: "ImportError", File: file, Message: "import loop has been found"}
	}
	im.active[key] = true
	defer delete(im.active, key)

	toks, err := tokenize(file, src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: file, toks: toks}
	items, err := p.parseBody(false)
	if err != nil {
		return nil, err
	}
	return im.expand(file, items)
}

func (im *importer) expand(file string, items []node) ([]node, error) {
	out := make([]node, 0, len(items))
	for _, n := range items {
		at, ok := n.(*atNode)
		if !ok || (at.name != "@import" && at.name != "@require") || at.hasBlock {
			out = append(out, n)
			continue
		}
		target, literal := importTarget(at.prelude)
		if literal {
			out = append(out, n)
			continue
		}
		paths, err := im.resolve(file, target)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, &CompileError{
				Kind:    "ImportError",
				File:    file,
				Line:    at.line,
				Column:  at.col,
				Message: "failed to locate @import file " + withStylExt(target),
			}
		}
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, &CompileError{Kind: "ImportError", File: file, Line: at.line, Column: at.col, Message: err.Error()}
			}
			sub, err := im.parseFile(path, string(data))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// importTarget unquotes an @import prelude. Plain CSS imports (url(), .css files,
// remote URLs, media-qualified imports) are reported as literal and kept as-is.
func importTarget(prelude string) (string, bool) {
	if strings.HasPrefix(prelude, "url(") {
		return "", true
	}
	unq, err := strconv.Unquote(prelude)
	if err != nil {
		if len(prelude) >= 2 && prelude[0] == '\'' && prelude[len(prelude)-1] == '\'' {
			unq = prelude[1 : len(prelude)-1]
		} else {
			return "", true
		}
	}
	if strings.HasSuffix(unq, ".css") || strings.Contains(unq, "://") || strings.HasPrefix(unq, "//") {
		return "", true
	}
	return unq, false
}

func withStylExt(name string) string {
	if filepath.Ext(name) == ".styl" {
		return name
	}
	return name + ".styl"
}

// resolve finds the files an import refers to, looking next to the importing
// file first and then in the include paths. Glob imports expand to all matches.
func (im *importer) resolve(from, target string) ([]string, error) {
	dirs := append([]string{filepath.Dir(from)}, im.includes...)
	for _, dir := range dirs {
		base := filepath.Join(dir, filepath.FromSlash(target))

		if strings.ContainsAny(target, "*?[{") {
			matches, err := doublestar.FilepathGlob(withStylExt(base))
			if err != nil {
				return nil, &CompileError{Kind: "ImportError", File: from, Message: err.Error()}
			}
			if len(matches) > 0 {
				sort.Strings(matches)
				return matches, nil
			}
			continue
		}

		for _, candidate := range []string{base, withStylExt(base), filepath.Join(base, "index.styl")} {
			info, err := os.Stat(candidate)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, &CompileError{Kind: "ImportError", File: from, Message: err.Error()}
			}
			if info.Mode().IsRegular() {
				return []string{candidate}, nil
			}
		}
	}
	return nil, nil
}
