package render

import (
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
)

const vlqChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// sourceMappingRe matches a sourcemap reference comment in either the "#" or the
// legacy "@" form.
var sourceMappingRe = regexp.MustCompile(`(?m)/\*[@#][ \t]+sourceMappingURL=.*?\*/[ \t]*$\n?`)

// StripSourceMappingURL removes sourcemap reference comments from css.
func StripSourceMappingURL(css string) string {
	return sourceMappingRe.ReplaceAllString(css, "")
}

// SourceMappingComment returns the reference comment that points at url.
func SourceMappingComment(url string) string {
	return "/*# sourceMappingURL=" + url + " */\n"
}

// InlineSourceMappingComment returns a reference comment embedding m as a base64 data URI.
func InlineSourceMappingComment(m *Sourcemap) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return SourceMappingComment("data:application/json;charset=utf-8;base64," +
		base64.StdEncoding.EncodeToString(data)), nil
}

// mapping is one segment: generated position to original position, all 0-based.
type mapping struct {
	genLine, genCol int
	src             int
	srcLine, srcCol int
}

// mapBuilder collects mappings while CSS is generated.
type mapBuilder struct {
	sources  []string
	index    map[string]int
	mappings []mapping
}

func newMapBuilder() *mapBuilder {
	return &mapBuilder{index: make(map[string]int)}
}

func (b *mapBuilder) add(genLine, genCol int, file string, srcLine, srcCol int) {
	idx, ok := b.index[file]
	if !ok {
		idx = len(b.sources)
		b.index[file] = idx
		b.sources = append(b.sources, file)
	}
	b.mappings = append(b.mappings, mapping{genLine, genCol, idx, srcLine, srcCol})
}

// build produces the final map. Sources are made relative to opts.BasePath.
func (b *mapBuilder) build(opts *SourcemapOptions) *Sourcemap {
	sources := make([]string, len(b.sources))
	for i, s := range b.sources {
		sources[i] = relSource(opts.BasePath, s)
	}
	return &Sourcemap{
		Version:    3,
		SourceRoot: opts.SourceRoot,
		Sources:    sources,
		Names:      []string{},
		Mappings:   encodeMappings(b.mappings),
	}
}

func relSource(base, file string) string {
	if base == "" {
		return filepath.ToSlash(file)
	}
	absBase, err1 := filepath.Abs(base)
	absFile, err2 := filepath.Abs(file)
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(absBase, absFile)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// encodeMappings expects ms ordered by generated position.
func encodeMappings(ms []mapping) string {
	var b strings.Builder
	line := 0
	prevCol, prevSrc, prevSrcLine, prevSrcCol := 0, 0, 0, 0
	first := true
	for _, m := range ms {
		for line < m.genLine {
			b.WriteByte(';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		writeVLQ(&b, m.genCol-prevCol)
		writeVLQ(&b, m.src-prevSrc)
		writeVLQ(&b, m.srcLine-prevSrcLine)
		writeVLQ(&b, m.srcCol-prevSrcCol)
		prevCol, prevSrc, prevSrcLine, prevSrcCol = m.genCol, m.src, m.srcLine, m.srcCol
	}
	return b.String()
}

func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b.WriteByte(vlqChars[digit])
		if u == 0 {
			return
		}
	}
}
