package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/stylusdiff/internal/render"
)

func testMap() *render.Sourcemap {
	return &render.Sourcemap{Version: 3, Sources: []string{"home.styl"}, Names: []string{}, Mappings: "AAAA"}
}

func TestWriterPaths(t *testing.T) {
	w := NewWriter("bld")
	assert.Equal(t, filepath.Join("bld", "pages", "home.css"), w.Path("pages/home"))
	assert.Equal(t, filepath.Join("bld", "pages", "home.css.map"), w.MapPath("pages/home"))
}

func TestWriterSidecar(t *testing.T) {
	w := NewWriter(t.TempDir())
	opts := render.Options{Sourcemap: &render.SourcemapOptions{}}

	written, err := w.Write("pages/home", &render.Artifact{CSS: "a {\n  color: red;\n}", Sourcemap: testMap()}, opts)
	require.NoError(t, err)
	assert.True(t, written)

	css, ok, err := w.Read("pages/home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a {\n  color: red;\n}\n/*# sourceMappingURL=home.css.map */\n", css)

	data, err := os.ReadFile(w.MapPath("pages/home"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file":"home.css"`)
}

func TestWriterInline(t *testing.T) {
	w := NewWriter(t.TempDir())
	opts := render.Options{Sourcemap: &render.SourcemapOptions{Inline: true}}

	_, err := w.Write("style", &render.Artifact{CSS: "a {}\n", Sourcemap: testMap()}, opts)
	require.NoError(t, err)

	css, _, err := w.Read("style")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(css, "a {}\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64,"))
	assert.NoFileExists(t, w.MapPath("style"))
}

func TestWriterRemovesStaleSidecar(t *testing.T) {
	w := NewWriter(t.TempDir())
	withMap := render.Options{Sourcemap: &render.SourcemapOptions{}}

	_, err := w.Write("style", &render.Artifact{CSS: "a {}\n", Sourcemap: testMap()}, withMap)
	require.NoError(t, err)
	require.FileExists(t, w.MapPath("style"))

	_, err = w.Write("style", &render.Artifact{CSS: "a {}\n"}, render.Options{Linenos: true})
	require.NoError(t, err)
	assert.NoFileExists(t, w.MapPath("style"))

	css, _, err := w.Read("style")
	require.NoError(t, err)
	assert.Equal(t, "a {}\n", css)
}

func TestWriterSkipsIdenticalContent(t *testing.T) {
	w := NewWriter(t.TempDir())
	art := &render.Artifact{CSS: "a {}\n"}

	written, err := w.Write("style", art, render.Options{})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = w.Write("style", art, render.Options{})
	require.NoError(t, err)
	assert.False(t, written)
}

func TestWriterReadMissing(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "missing"))
	css, ok, err := w.Read("style")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, css)
}
