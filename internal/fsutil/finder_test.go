package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.hcl", "a/z.hcl", "a/notes.txt", ".cache/skip.hcl", "c/d/e.hcl"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	files, err := FindFilesByExtension(root, ".hcl")

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "z.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "c", "d", "e.hcl"),
	}, files)
}

func TestFindFilesByExtension_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".hcl")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("empty extension", func(t *testing.T) {
		assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
	})
}
