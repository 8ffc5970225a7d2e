package stylusdiff

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	styleSrc = "body { background: #fff; }\na { color: #333; }\na:hover, a:focus { color: #808080; }\n"
	styleCSS = "body {\n  background: #fff;\n}\na {\n  color: #333;\n}\na:hover,\na:focus {\n  color: #808080;\n}\n"
	printSrc = "body { color: #000; }\n"
	printCSS = "body {\n  color: #000;\n}\n"
)

type testEnv struct {
	cfg     Config
	renders atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{}
	engine := NewCSSEngine()
	env.cfg = Config{
		SourceDir: filepath.Join(root, "src"),
		BuildDir:  filepath.Join(root, "bld"),
		CacheDir:  filepath.Join(root, "tmp"),
		Engine: EngineFunc(func(ctx context.Context, src string, opts Options) (*Artifact, error) {
			env.renders.Add(1)
			return engine.Render(ctx, src, opts)
		}),
	}
	require.NoError(t, os.MkdirAll(env.cfg.SourceDir, 0o755))
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.cfg.SourceDir, name+".styl"), []byte(content), 0o644))
}

func (e *testEnv) read(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name+".css"))
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) artifact(t *testing.T, name string) string {
	return e.read(t, e.cfg.BuildDir, name)
}

func (e *testEnv) snapshot(t *testing.T, name string) string {
	return e.read(t, e.cfg.CacheDir, name)
}

func (e *testEnv) run(t *testing.T, final Options) *Result {
	t.Helper()
	res, err := Run(context.Background(), e.cfg, final)
	require.NoError(t, err)
	return res
}

func actionsOf(res *Result) map[string]Action {
	out := make(map[string]Action)
	for _, u := range res.Units {
		out[u.Unit.Name] = u.Action
	}
	return out
}

func TestRunDiffMode(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)
	env.write(t, "print", printSrc)

	res := env.run(t, Options{})
	assert.Equal(t, ModeDiff, res.Mode)
	assert.Nil(t, res.Marker)
	assert.Equal(t, 2, res.Count(Written))
	assert.Equal(t, styleCSS, env.artifact(t, "style"))
	assert.Equal(t, printCSS, env.snapshot(t, "print"))

	// Reverse name order.
	require.Len(t, res.Units, 2)
	assert.Equal(t, "style", res.Units[0].Unit.Name)
	assert.Equal(t, "print", res.Units[1].Unit.Name)

	res = env.run(t, Options{})
	assert.Equal(t, ModeDiff, res.Mode)
	assert.Equal(t, 2, res.Count(Unchanged))
}

func TestRunAnnotatedOutputBypassesDiff(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)
	env.write(t, "print", printSrc)
	annotated := Options{Linenos: true}

	env.run(t, annotated)
	before := env.artifact(t, "style")

	// Snapshots say nothing changed, but one artifact was tampered with.
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.BuildDir, "print.css"), []byte("/* line 1 : x.styl */\nbody{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.CacheDir, "style.css"), []byte("stale"), 0o644))

	env.renders.Store(0)
	res := env.run(t, annotated)
	assert.Equal(t, ModeAnnotated, res.Mode)
	require.NotNil(t, res.Marker)
	assert.True(t, res.Marker.LineComments)

	got := actionsOf(res)
	assert.Equal(t, Written, got["print"])
	assert.Equal(t, Unchanged, got["style"], "identical bytes are not rewritten")
	assert.Equal(t, int32(4), env.renders.Load(), "every unit renders clean and final")

	assert.Equal(t, before, env.artifact(t, "style"))
	assert.Contains(t, env.artifact(t, "print"), "color: #000;")
	assert.Equal(t, styleCSS, env.snapshot(t, "style"))
}

func TestRunSwitchBackToClean(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)

	env.run(t, Options{Linenos: true})
	res := env.run(t, Options{})
	assert.Equal(t, ModeAnnotated, res.Mode)
	assert.Equal(t, styleCSS, env.artifact(t, "style"))

	found, err := Detect(env.cfg.BuildDir)
	require.NoError(t, err)
	assert.Nil(t, found)

	res = env.run(t, Options{})
	assert.Equal(t, ModeDiff, res.Mode)
	assert.Equal(t, Unchanged, res.Units[0].Action)
}

func TestRunSourcemapSwitchesToAnnotatedMode(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)

	env.run(t, Options{Sourcemap: &SourcemapOptions{}})
	assert.FileExists(t, filepath.Join(env.cfg.BuildDir, "style.css.map"))

	found, err := Detect(env.cfg.BuildDir)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.SourceMapRef)

	res := env.run(t, Options{Sourcemap: &SourcemapOptions{}})
	assert.Equal(t, ModeAnnotated, res.Mode)
}

func TestRunMissingSourceDir(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.SourceDir = filepath.Join(t.TempDir(), "nope")

	res := env.run(t, Options{Linenos: true})
	assert.Empty(t, res.Units)
	assert.Equal(t, int32(0), env.renders.Load())
}

func TestRunReportsCompileErrors(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)
	env.write(t, "broken", "a {\n")

	res := env.run(t, Options{})
	failures := res.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "broken", failures[0].Unit.Name)
	assert.Equal(t, 1, res.Count(Written))
}

func TestRunEngineUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)
	env.cfg.Engine = NewExecEngine(filepath.Join(t.TempDir(), "no-such-stylus"))

	_, err := Run(context.Background(), env.cfg, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestCompile(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)

	res, err := Compile(context.Background(), env.cfg, Options{Linenos: true})
	require.NoError(t, err)
	assert.Equal(t, ModeCompile, res.Mode)
	assert.Equal(t, Written, res.Units[0].Action)
	assert.Contains(t, env.artifact(t, "style"), "/* line 1 : ")

	assert.NoDirExists(t, env.cfg.CacheDir)

	res, err = Compile(context.Background(), env.cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, Written, res.Units[0].Action)
	assert.Equal(t, styleCSS, env.artifact(t, "style"))
}

func TestFrontendCopy(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)

	// Clean output: nothing to render.
	env.run(t, Options{})
	env.renders.Store(0)
	res, err := FrontendCopy(context.Background(), env.cfg, Options{Linenos: true})
	require.NoError(t, err)
	assert.Equal(t, ModeAlreadyClean, res.Mode)
	assert.Empty(t, res.Units)
	assert.Equal(t, int32(0), env.renders.Load())

	// Annotated output is rendered clean.
	_, err = Compile(context.Background(), env.cfg, Options{Linenos: true})
	require.NoError(t, err)
	res, err = FrontendCopy(context.Background(), env.cfg, Options{Linenos: true, Sourcemap: &SourcemapOptions{}})
	require.NoError(t, err)
	assert.Equal(t, ModeCleanCopy, res.Mode)
	require.NotNil(t, res.Marker)
	assert.Equal(t, styleCSS, env.artifact(t, "style"))
	assert.NoFileExists(t, filepath.Join(env.cfg.BuildDir, "style.css.map"))

	found, err := Detect(env.cfg.BuildDir)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFrontendCopyKeepsCompress(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "style", styleSrc)

	_, err := Compile(context.Background(), env.cfg, Options{Linenos: true})
	require.NoError(t, err)
	_, err = FrontendCopy(context.Background(), env.cfg, Options{Linenos: true, Compress: true})
	require.NoError(t, err)
	assert.Equal(t, "body{background:#fff}a{color:#333}a:hover,a:focus{color:#808080}", env.artifact(t, "style"))
}

func (e *testEnv) writeNested(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.cfg.SourceDir, filepath.FromSlash(name)+".styl")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFrontendCopyNestedUnits(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Includes = []string{"**/*.styl"}
	env.writeNested(t, "pages/home", styleSrc)

	_, err := Compile(context.Background(), env.cfg, Options{Linenos: true})
	require.NoError(t, err)
	require.Contains(t, env.artifact(t, "pages/home"), "/* line 1 : ")

	res, err := FrontendCopy(context.Background(), env.cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, ModeCleanCopy, res.Mode)
	require.NotNil(t, res.Marker)
	assert.Equal(t, filepath.Join(env.cfg.BuildDir, "pages", "home.css"), res.Marker.File)
	assert.Equal(t, styleCSS, env.artifact(t, "pages/home"))
}

func TestRunNestedAnnotatedOutputBypassesDiff(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Includes = []string{"**/*.styl"}
	env.writeNested(t, "pages/home", styleSrc)

	_, err := Compile(context.Background(), env.cfg, Options{Linenos: true})
	require.NoError(t, err)

	res := env.run(t, Options{Linenos: true})
	assert.Equal(t, ModeAnnotated, res.Mode)
	require.NotNil(t, res.Marker)
	assert.Equal(t, styleCSS, env.snapshot(t, "pages/home"))
}
