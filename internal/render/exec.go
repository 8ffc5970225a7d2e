package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ExecEngine renders through the stylus command line compiler. The source text is
// written to a scratch directory so that in-memory sources compile exactly like
// files on disk; imports resolve against the original file's directory.
type ExecEngine struct {
	Bin string // Path to the stylus executable, "stylus" when empty
}

// NewExecEngine returns an engine running bin.
func NewExecEngine(bin string) *ExecEngine {
	return &ExecEngine{Bin: bin}
}

// stylusErrRe matches the first line of a stylus diagnostic:
// "ParseError: /path/style.styl:3:5".
var stylusErrRe = regexp.MustCompile(`(?m)^(\w*Error): (.+?):(\d+):(\d+)\s*$`)

// Render runs the compiler on src.
func (e *ExecEngine) Render(ctx context.Context, src string, opts Options) (*Artifact, error) {
	bin := e.Bin
	if bin == "" {
		bin = "stylus"
	}

	scratch, err := os.MkdirTemp("", "stylusdiff-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	name := filepath.Base(opts.Filename)
	if filepath.Ext(name) != ".styl" {
		name += ".styl"
	}
	input := filepath.Join(scratch, name)
	outDir := filepath.Join(scratch, "out")
	if err := os.WriteFile(input, []byte(src), 0o600); err != nil {
		return nil, fmt.Errorf("write scratch source: %w", err)
	}

	// #nosec G204 - bin comes from trusted configuration
	cmd := exec.CommandContext(ctx, bin, e.args(opts, input, outDir)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, parseStylusError(stderr.String(), input, opts.Filename, err)
	}

	cssPath := filepath.Join(outDir, strings.TrimSuffix(name, ".styl")+".css")
	cssOut, err := os.ReadFile(cssPath)
	if err != nil {
		return nil, fmt.Errorf("read compiler output: %w", err)
	}
	art := &Artifact{CSS: strings.ReplaceAll(string(cssOut), input, opts.Filename)}

	if opts.Sourcemap != nil {
		data, err := os.ReadFile(cssPath + ".map")
		if err != nil {
			return nil, fmt.Errorf("read compiler sourcemap: %w", err)
		}
		var sm Sourcemap
		if err := json.Unmarshal(data, &sm); err != nil {
			return nil, fmt.Errorf("decode compiler sourcemap: %w", err)
		}
		art.Sourcemap = &sm
	}
	return art, nil
}

func (e *ExecEngine) args(opts Options, input, outDir string) []string {
	args := []string{"--out", outDir, "--include", filepath.Dir(opts.Filename)}
	for _, p := range opts.IncludePaths {
		args = append(args, "--include", p)
	}
	for _, p := range opts.Plugins {
		args = append(args, "--use", p)
	}
	if opts.Linenos {
		args = append(args, "--line-numbers")
	}
	if opts.Compress {
		args = append(args, "--compress")
	}
	if opts.ResolveURL {
		args = append(args, "--resolve-url")
	}
	if opts.Sourcemap != nil {
		// Always external; the artifact writer decides between sidecar and inline.
		args = append(args, "--sourcemap")
		if opts.Sourcemap.SourceRoot != "" {
			args = append(args, "--sourcemap-root", opts.Sourcemap.SourceRoot)
		}
		if opts.Sourcemap.BasePath != "" {
			args = append(args, "--sourcemap-base", opts.Sourcemap.BasePath)
		}
	}
	return append(args, input)
}

// parseStylusError turns compiler stderr into a CompileError attributed to the
// original file rather than the scratch copy.
func parseStylusError(stderr, scratchPath, filename string, runErr error) error {
	var execErr *exec.Error
	var pathErr *fs.PathError
	if errors.As(runErr, &execErr) || errors.As(runErr, &pathErr) {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, runErr)
	}

	ce := &CompileError{File: filename, Message: strings.TrimSpace(stderr)}
	if m := stylusErrRe.FindStringSubmatch(stderr); m != nil {
		ce.Kind = m[1]
		if m[2] != scratchPath {
			ce.File = m[2]
		}
		ce.Line, _ = strconv.Atoi(m[3])
		ce.Column, _ = strconv.Atoi(m[4])
		ce.Message = lastNonEmptyLine(stderr)
	}
	if ce.Message == "" {
		ce.Message = runErr.Error()
	}
	ce.Message = strings.ReplaceAll(ce.Message, scratchPath, filename)
	return ce
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
