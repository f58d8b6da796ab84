package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	db := filepath.Join(tmp, "state", "client", "bulletin.db")

	got, err := EnsureParentDir(db)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "state", "client"), got)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureParentDir_StripsURIParts(t *testing.T) {
	tmp := t.TempDir()
	got, err := EnsureParentDir("file:" + filepath.Join(tmp, "a", "b.db") + "?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "a"), got)
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "x", "y.db")

	first, err := EnsureParentDir(db)
	require.NoError(t, err)
	second, err := EnsureParentDir(db)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestIsFileDSN(t *testing.T) {
	require.True(t, IsFileDSN("bulletin.db"))
	require.True(t, IsFileDSN("file:/var/lib/bulletin.db"))
	require.False(t, IsFileDSN(":memory:"))
	require.False(t, IsFileDSN("file:shared?mode=memory&cache=shared"))
	require.False(t, IsFileDSN(""))
}
