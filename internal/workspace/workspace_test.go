package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-archiver/internal/checksum"
	"github.com/ytget/yt-archiver/internal/model"
)

func TestNew_Deterministic(t *testing.T) {
	root := t.TempDir()
	key := checksum.DedupKey([]string{"https://a", "https://b"})

	ws, err := New(root, key, Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".tmp", "dl_"+key), ws.Dir())
	assert.Equal(t, filepath.Join(root, ".tmp", "ydl_cache"), ws.CacheDir())
	assert.DirExists(t, ws.Dir())
	assert.DirExists(t, ws.CacheDir())

	// idempotent creation
	again, err := New(root, key, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, ws.Dir(), again.Dir())
}

func TestNew_CustomCache(t *testing.T) {
	root := t.TempDir()
	cache := filepath.Join(t.TempDir(), "cache")

	ws, err := New(root, "k", Options{CacheDir: cache}, nil)
	require.NoError(t, err)
	assert.Equal(t, cache, ws.CacheDir())
	assert.DirExists(t, cache)
}

func TestNew_Ephemeral(t *testing.T) {
	tempRoot := t.TempDir()

	a, err := New(t.TempDir(), "", Options{Ephemeral: true, TempRoot: tempRoot}, nil)
	require.NoError(t, err)
	b, err := New(t.TempDir(), "", Options{Ephemeral: true, TempRoot: tempRoot}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Dir(), b.Dir())
	assert.True(t, strings.HasPrefix(filepath.Base(a.Dir()), ScratchPrefix))
	assert.Equal(t, tempRoot, filepath.Dir(a.Dir()))
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(t.TempDir(), "", Options{}, nil)
	assert.Error(t, err)
}

func TestLayout(t *testing.T) {
	ws, err := New(t.TempDir(), "k", Options{}, nil)
	require.NoError(t, err)

	item := model.Item{ID: "id1", UploadDate: "20240101"}
	assert.Equal(t, filepath.Join(ws.Dir(), "20240101_id1"), ws.ItemDir(item))
	assert.Equal(t, filepath.Join(ws.Dir(), "%(upload_date)s_%(id)s/%(id)s.%(ext)s"), ws.OutputTemplate())
	assert.Equal(t, filepath.Join(ws.Dir(), "x.zip"), ws.Path("x.zip"))
}

func TestClose_RemovesScratch(t *testing.T) {
	root := t.TempDir()
	ws, err := New(root, "k", Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, ws.Lock())

	nested := filepath.Join(ws.Dir(), "20240101_id", "id.mp3")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(nested, []byte("x"), 0o644))

	ws.Close()

	assert.NoDirExists(t, ws.Dir())
	assert.FileExists(t, ws.Dir()+LockSuffix)
	// cache survives, it is shared between invocations
	assert.DirExists(t, ws.CacheDir())

	// closing twice is harmless
	ws.Close()
}

func TestLock_Contention(t *testing.T) {
	root := t.TempDir()
	first, err := New(root, "same", Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, first.Lock())
	defer first.Close()

	second, err := New(root, "same", Options{}, nil)
	require.NoError(t, err)

	err = second.Lock()
	require.Error(t, err)
	assert.Equal(t, model.ReasonSystem, model.ReasonOf(err))
	assert.ErrorIs(t, err, ErrWorkspaceLocked)
}

func TestClose_LoserKeepsHolderScratch(t *testing.T) {
	root := t.TempDir()
	holder, err := New(root, "same", Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, holder.Lock())

	inflight := filepath.Join(holder.Dir(), "20240101_id1", "id1.mp3")
	require.NoError(t, os.MkdirAll(filepath.Dir(inflight), 0o755))
	require.NoError(t, os.WriteFile(inflight, []byte("partial"), 0o644))

	loser, err := New(root, "same", Options{}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, loser.Lock(), ErrWorkspaceLocked)
	loser.Close()

	assert.FileExists(t, inflight)

	// the holder still owns the lock after the loser closed
	third, err := New(root, "same", Options{}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, third.Lock(), ErrWorkspaceLocked)
	third.Close()

	holder.Close()
	assert.NoDirExists(t, holder.Dir())

	next, err := New(root, "same", Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, next.Lock())
	next.Close()
}
