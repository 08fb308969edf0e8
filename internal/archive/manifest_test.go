package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-archiver/internal/checksum"
)

func TestManifest(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2024", "01", "20240101_id1")
	writeFile(t, filepath.Join(dir, "id1.mp3"), "")
	writeFile(t, filepath.Join(dir, "id1.info.json"), "{}")
	writeFile(t, filepath.Join(dir, "subs", "id1.en.vtt"), "WEBVTT")

	files, err := Manifest(root, dir, nil)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "2024/01/20240101_id1/id1.info.json", files[0].Path)
	assert.Equal(t, "2024/01/20240101_id1/id1.mp3", files[1].Path)
	assert.Equal(t, checksum.Empty, files[1].Hash)
	assert.Equal(t, int64(0), files[1].Size)
	assert.Equal(t, "2024/01/20240101_id1/subs/id1.en.vtt", files[2].Path)
	assert.Equal(t, int64(8), TreeSize(files))

	again, err := Manifest(root, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, TreeDigest(files), TreeDigest(again))
	assert.NotEqual(t, TreeDigest(files), TreeDigest(files[:2]))
}

func TestManifest_MissingDir(t *testing.T) {
	_, err := Manifest(t.TempDir(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.True(t, IsNotExist(err))
}

func TestVerify(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	ledger := NewLedger(root)

	good := filepath.Join(root, "2024", "01", "good.zip")
	writeFile(t, good, "content")
	goodSum, err := checksum.File(good, nil)
	require.NoError(t, err)

	bad := filepath.Join(root, "2024", "01", "bad.zip")
	writeFile(t, bad, "changed")

	require.NoError(t, ledger.Append(ctx, goodSum, "2024/01/good.zip"))
	require.NoError(t, ledger.Append(ctx, checksum.Empty, "2024/01/bad.zip"))
	require.NoError(t, ledger.Append(ctx, checksum.Empty, "2024/01/gone.zip"))

	entries, err := ledger.Read()
	require.NoError(t, err)

	quick, err := Verify(ctx, root, entries, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, quick.Checked)
	require.Len(t, quick.Problems, 1)
	assert.Equal(t, ProblemMissing, quick.Problems[0].Kind)

	full, err := Verify(ctx, root, entries, true, nil)
	require.NoError(t, err)
	require.Len(t, full.Problems, 2)
	assert.Equal(t, Problem{Path: "2024/01/bad.zip", Kind: ProblemMismatch,
		Detail: "expected " + checksum.Empty + ", got " + mustHash(t, bad)}, full.Problems[0])
	assert.Equal(t, "2024/01/gone.zip", full.Problems[1].Path)
	assert.False(t, full.OK())

	require.NoError(t, os.Remove(bad))
}

func mustHash(t *testing.T, path string) string {
	t.Helper()
	sum, err := checksum.File(path, nil)
	require.NoError(t, err)
	return sum
}
