package ftpfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatPathMissing(t *testing.T) {
	fs := New()
	st := fs.StatPath(filepath.Join(t.TempDir(), "nope"))
	assert.False(t, st.Exists)
}

func TestMkdirStatRename(t *testing.T) {
	fs := New()
	root := t.TempDir()
	dir := filepath.Join(root, "sub")
	require.NoError(t, fs.Mkdir(dir))

	st := fs.StatPath(dir)
	require.True(t, st.Exists)
	assert.Equal(t, Directory, st.Kind)

	renamed := filepath.Join(root, "sub2")
	require.NoError(t, fs.Rename(dir, renamed))
	assert.True(t, fs.StatPath(renamed).Exists)
	assert.False(t, fs.StatPath(dir).Exists)
}

func TestUnlinkFile(t *testing.T) {
	fs := New()
	root := t.TempDir()
	p := filepath.Join(root, "a.bin")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0644))
	require.NoError(t, fs.UnlinkFile(p))
	assert.False(t, fs.StatPath(p).Exists)
}

func TestEnumerateSkipsDotFiles(t *testing.T) {
	fs := New()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "visible.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0777))

	entries, err := fs.Enumerate(root)
	require.NoError(t, err)
	names := map[string]Kind{}
	for _, e := range entries {
		names[e.Name] = e.Kind
	}
	assert.Contains(t, names, "visible.txt")
	assert.Contains(t, names, "subdir")
	assert.NotContains(t, names, ".hidden")
	assert.Equal(t, Directory, names["subdir"])
	assert.Equal(t, File, names["visible.txt"])
}

func TestRemoveDirRecursiveEmptySucceeds(t *testing.T) {
	fs := New()
	root := t.TempDir()
	dir := filepath.Join(root, "empty")
	require.NoError(t, fs.Mkdir(dir))
	require.NoError(t, fs.RemoveDirRecursive(dir, false))
	assert.False(t, fs.StatPath(dir).Exists)
}

// TestRemoveDirRecursiveNonEmptyWithoutDeleteFilesFails exercises the
// §9 open question this repo resolves in favour of an honest error:
// the original silently reports success on a non-empty directory when
// remove_files=false; this port surfaces the real error instead so
// RMD correctly replies 550 (see DESIGN.md).
func TestRemoveDirRecursiveNonEmptyWithoutDeleteFilesFails(t *testing.T) {
	fs := New()
	root := t.TempDir()
	dir := filepath.Join(root, "nonempty")
	require.NoError(t, fs.Mkdir(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0644))

	err := fs.RemoveDirRecursive(dir, false)
	assert.Error(t, err)
	assert.True(t, fs.StatPath(dir).Exists)
}

func TestRemoveDirRecursiveWithDeleteFiles(t *testing.T) {
	fs := New()
	root := t.TempDir()
	dir := filepath.Join(root, "tree")
	require.NoError(t, fs.Mkdir(dir))
	require.NoError(t, fs.Mkdir(filepath.Join(dir, "sub")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "g.txt"), []byte("y"), 0644))

	require.NoError(t, fs.RemoveDirRecursive(dir, true))
	assert.False(t, fs.StatPath(dir).Exists)
}
