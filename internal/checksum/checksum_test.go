package checksum

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestFile_Empty(t *testing.T) {
	path := writeFile(t, nil)

	sum, err := File(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Empty, sum)
}

func TestFile_Deterministic(t *testing.T) {
	content := bytes.Repeat([]byte("media"), 100_000) // spans several chunks
	path := writeFile(t, content)

	first, err := File(path, nil)
	require.NoError(t, err)
	second, err := File(path, nil)
	require.NoError(t, err)

	expected := sha256.Sum256(content)
	assert.Equal(t, first, second)
	assert.Equal(t, hex.EncodeToString(expected[:]), first)
}

func TestFile_Missing(t *testing.T) {
	sum, err := File(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, sum)
}

func TestReader_Observer(t *testing.T) {
	size := ChunkSize * ReportEvery * 2
	var calls []int64
	obs := ObserverFunc(func(_ string, n int64) { calls = append(calls, n) })

	_, n, err := Reader(io.LimitReader(zeroReader{}, int64(size)), "big", obs)
	require.NoError(t, err)
	assert.EqualValues(t, size, n)
	assert.Equal(t, []int64{int64(ChunkSize * ReportEvery), int64(size)}, calls)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("device gone")
}

func TestReader_ErrorNeverReturnsDigest(t *testing.T) {
	sum, _, err := Reader(&failingReader{}, "broken", nil)
	require.Error(t, err)
	assert.Empty(t, sum)
}

func TestDedupKey(t *testing.T) {
	a, b := "https://example.com/a", "https://example.com/b"

	tests := []struct {
		name  string
		left  []string
		right []string
		equal bool
	}{
		{"permutation", []string{a, b}, []string{b, a}, true},
		{"duplicates", []string{a, b, a}, []string{b, a}, true},
		{"different sets", []string{a}, []string{a, b}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, DedupKey(tt.left) == DedupKey(tt.right))
		})
	}
}

func TestDedupKey_Format(t *testing.T) {
	expected := sha1.Sum([]byte("a::b::"))
	assert.Equal(t, hex.EncodeToString(expected[:]), DedupKey([]string{"b", "a"}))
}
