package render

import (
	"fmt"
	"strings"
)

// Sourcemap is a version 3 source map.
type Sourcemap struct {
	Version    int      `json:"version"`
	File       string   `json:"file"`
	SourceRoot string   `json:"sourceRoot,omitempty"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`
}

// Artifact is the output of a single render.
type Artifact struct {
	CSS       string
	Sourcemap *Sourcemap
}

// CompileError describes a source that failed to compile.
type CompileError struct {
	Kind    string // "ParseError", "ImportError", ...
	File    string
	Line    int // 1-based, 0 when unknown
	Column  int // 1-based, 0 when unknown
	Message string
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&b, ":%d", e.Column)
			}
		}
		b.WriteString(": ")
	}
	if e.Kind != "" {
		b.WriteString(e.Kind)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}
