package archive

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestPlace_File(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scratch", "a.zip")
	dst := filepath.Join(dir, "root", "2024", "01", "a.zip")
	writeFile(t, src, "new")

	require.NoError(t, Place(src, dst))
	assert.Equal(t, "new", readFile(t, dst))
	assert.NoFileExists(t, src)
}

func TestPlace_ReplacesPriorOccupant(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "root", "2024", "01", "20240101_id1")
	writeFile(t, filepath.Join(dst, "stale.txt"), "old")

	src := filepath.Join(dir, "scratch", "20240101_id1")
	writeFile(t, filepath.Join(src, "id1.mp3"), "fresh")

	require.NoError(t, Place(src, dst))
	assert.NoFileExists(t, filepath.Join(dst, "stale.txt"))
	assert.Equal(t, "fresh", readFile(t, filepath.Join(dst, "id1.mp3")))
}

func TestPlace_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Place(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	assert.True(t, IsNotExist(err))
}

func TestPlace_CrossDeviceFallback(t *testing.T) {
	orig := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	t.Cleanup(func() { renameFunc = orig })

	dir := t.TempDir()
	src := filepath.Join(dir, "scratch", "20240101_id1")
	writeFile(t, filepath.Join(src, "id1.mp3"), "audio")
	writeFile(t, filepath.Join(src, "subs", "id1.en.vtt"), "WEBVTT")
	dst := filepath.Join(dir, "root", "2024", "01", "20240101_id1")

	require.NoError(t, Place(src, dst))
	assert.Equal(t, "audio", readFile(t, filepath.Join(dst, "id1.mp3")))
	assert.Equal(t, "WEBVTT", readFile(t, filepath.Join(dst, "subs", "id1.en.vtt")))
	assert.NoDirExists(t, src)
	assert.NoDirExists(t, dst+".partial")
}
