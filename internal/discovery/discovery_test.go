package discovery

import (
	"fmt"
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

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	files, err := Discover(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestDiscover_SingleFile(t *testing.T) {
	dir := t.TempDir()
	py := filepath.Join(dir, "a.py")
	txt := filepath.Join(dir, "b.txt")
	writeFile(t, py, "def add(a, b):\n    return a + b\n")
	writeFile(t, txt, "notes")

	files, err := Discover(py, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{py}, files)

	files, err = Discover(txt, Options{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.py", "b.txt", "c.js", "d.jsx", "e.ts", "f.tsx", "g.java", "h.go", "README.md"} {
		writeFile(t, filepath.Join(dir, name), "x")
	}

	files, err := Discover(dir, Options{})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{"a.py", "c.js", "d.jsx", "e.ts", "f.tsx", "g.java"}, names)
}

func TestDiscover_Bounded(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"fewer than limit", 7, 7},
		{"exactly limit", 20, 20},
		{"more than limit", 35, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for i := 0; i < tt.count; i++ {
				sub := filepath.Join(dir, fmt.Sprintf("pkg%d", i%3))
				writeFile(t, filepath.Join(sub, fmt.Sprintf("mod_%02d.py", i)), "x = 1\n")
			}

			files, err := Discover(dir, Options{})
			require.NoError(t, err)
			assert.Len(t, files, tt.want)
		})
	}
}

func TestDiscover_Deterministic(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 30; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("d%d", i%4), fmt.Sprintf("f%02d.js", i)), "x")
	}

	first, err := Discover(dir, Options{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Discover(dir, Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDiscover_SkipsExcludedAndHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "app.py"), "x")
	writeFile(t, filepath.Join(dir, "node_modules", "lib.js"), "x")
	writeFile(t, filepath.Join(dir, ".git", "hook.py"), "x")
	writeFile(t, filepath.Join(dir, "tests", "generated", "python", "test_app.py"), "x")
	writeFile(t, filepath.Join(dir, "tests", "test_real.py"), "x")

	files, err := Discover(dir, Options{ExcludePaths: []string{"tests/generated"}})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.ElementsMatch(t, []string{"src/app.py", "tests/test_real.py"}, rel)
}

func TestDiscover_CustomLimit(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%d.ts", i)), "x")
	}
	files, err := Discover(dir, Options{MaxFiles: 4})
	require.NoError(t, err)
	assert.Len(t, files, 4)
}
