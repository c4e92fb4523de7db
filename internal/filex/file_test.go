package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_RelativeResolvesAgainstCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("uploads")
	require.NoError(t, err)

	want := filepath.Join(tmp, "uploads")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_AbsoluteNested(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "a", "b")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	again, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestEnsureDir_FailsUnderFile(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := EnsureDir(filepath.Join(blocker, "sub"))
	require.Error(t, err)
}

func TestWritePrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.txt")

	require.NoError(t, WritePrivateFile(path, []byte("first version")))
	require.NoError(t, WritePrivateFile(path, []byte("second")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(b))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}
