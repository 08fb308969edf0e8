package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/model"
	"github.com/ytget/yt-archiver/internal/platform"
)

// Layout constants
const (
	TmpDirName      = ".tmp"
	ScratchPrefix   = "dl_"
	CacheDirName    = "ydl_cache"
	LockSuffix      = ".lock"
	OutputTemplate  = "%(upload_date)s_%(id)s/%(id)s.%(ext)s"
	EphemeralSubdir = "yt-archiver"
)

// ErrWorkspaceLocked is returned when another invocation holds the workspace
var ErrWorkspaceLocked = errors.New("workspace is locked by another invocation")

// Workspace is the scratch area of one invocation
type Workspace struct {
	dir      string
	cacheDir string
	lock     *flock.Flock
	owned    bool
	log      logger.Logger
}

// Options tune workspace creation
type Options struct {
	// CacheDir overrides the engine cache directory
	CacheDir string
	// Ephemeral selects a random directory under TempRoot instead of the dedup key
	Ephemeral bool
	// TempRoot is the parent of ephemeral workspaces, os.TempDir() when empty
	TempRoot string
}

// New creates (or reuses) the workspace for key under root
func New(root, key string, opts Options, log logger.Logger) (*Workspace, error) {
	if log == nil {
		log = logger.NewNop()
	}
	tmp := filepath.Join(root, TmpDirName)

	ws := &Workspace{log: log}
	if opts.Ephemeral {
		parent := opts.TempRoot
		if parent == "" {
			parent = filepath.Join(os.TempDir(), EphemeralSubdir)
		}
		ws.dir = filepath.Join(parent, ScratchPrefix+newRandomName())
	} else {
		if key == "" {
			return nil, fmt.Errorf("workspace key is required")
		}
		ws.dir = filepath.Join(tmp, ScratchPrefix+key)
	}

	ws.cacheDir = opts.CacheDir
	if ws.cacheDir == "" {
		ws.cacheDir = filepath.Join(tmp, CacheDirName)
	}

	if err := platform.CreateDirectoryIfNotExists(ws.dir); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	if err := platform.CreateDirectoryIfNotExists(ws.cacheDir); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	ws.lock = flock.New(ws.dir + LockSuffix)
	log.Debug("workspace ready", logger.String("dir", ws.dir), logger.String("cache", ws.cacheDir))
	return ws, nil
}

// Lock takes the advisory lock guarding this workspace without blocking
func (w *Workspace) Lock() error {
	locked, err := w.lock.TryLock()
	if err != nil {
		return model.NewError(model.ReasonSystem, "could not lock workspace", err)
	}
	if !locked {
		return model.NewError(model.ReasonSystem, ErrWorkspaceLocked.Error(), ErrWorkspaceLocked)
	}
	w.owned = true
	return nil
}

// Dir returns the scratch directory
func (w *Workspace) Dir() string { return w.dir }

// CacheDir returns the engine cache directory
func (w *Workspace) CacheDir() string { return w.cacheDir }

// OutputTemplate returns the engine output template rooted at the scratch directory
func (w *Workspace) OutputTemplate() string {
	return filepath.Join(w.dir, OutputTemplate)
}

// ItemDir returns the directory the engine writes item's files into
func (w *Workspace) ItemDir(item model.Item) string {
	return filepath.Join(w.dir, item.DirName())
}

// Path joins elem onto the scratch directory
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.dir}, elem...)...)
}

// Close removes the scratch tree and releases the lock; failures are only logged.
// A workspace that never acquired the lock leaves the directory to its holder.
// The lock file stays in place so peers always contend on the same inode.
func (w *Workspace) Close() {
	if !w.owned {
		return
	}
	w.owned = false
	platform.RemoveAll(w.dir, func(err error) {
		w.log.Warn("could not remove scratch directory", logger.String("dir", w.dir), logger.Error(err))
	})
	if err := w.lock.Unlock(); err != nil {
		w.log.Warn("could not release workspace lock", logger.Error(err))
	}
}

// newRandomName uses UUID v7 so ephemeral workspaces sort chronologically
func newRandomName() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
