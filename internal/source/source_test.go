package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func names(units []Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Name)
	}
	return out
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "style.styl"), "")
	writeFile(t, filepath.Join(dir, "admin.styl"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "partials", "_base.styl"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dir.styl"), 0o755))

	units, err := Discover(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"style", "admin"}, names(units))
	assert.Equal(t, filepath.Join(dir, "style.styl"), units[0].Path)
}

func TestDiscoverRecursiveIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "style.styl"), "")
	writeFile(t, filepath.Join(dir, "pages", "home.styl"), "")

	units, err := Discover(dir, []string{"**/*.styl", "*.styl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"style", "pages/home"}, names(units), "duplicates collapse")
}

func TestDiscoverMissingDir(t *testing.T) {
	units, err := Discover(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestDiscoverGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "scratch.styl\n")
	writeFile(t, filepath.Join(dir, "style.styl"), "")
	writeFile(t, filepath.Join(dir, "scratch.styl"), "")

	units, err := Discover(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"style"}, names(units))
}

func TestDiscoverSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "style.styl"), "")
	if err := os.Symlink(filepath.Join(dir, "style.styl"), filepath.Join(dir, "alias.styl")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	units, err := Discover(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"style"}, names(units))
}

func TestDiscoverBadPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), []string{"[unclosed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glob pattern")
}
