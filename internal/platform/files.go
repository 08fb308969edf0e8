package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// File permissions
const (
	DefaultDirPermissions  = 0o755
	DefaultFilePermissions = 0o644
)

// Probe file prefix used by IsWritableDir
const writableProbePattern = ".probe-*"

// CreateDirectoryIfNotExists creates dirPath and any missing ancestors
func CreateDirectoryIfNotExists(dirPath string) error {
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return fmt.Errorf("create directory %s: %w", dirPath, err)
	}
	return nil
}

// ExpandPath expands a leading "~" and returns an absolute, cleaned path
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

// IsWritableDir checks that path is an existing directory we can create files in
func IsWritableDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	f, err := os.CreateTemp(path, writableProbePattern)
	if err != nil {
		return fmt.Errorf("path is not writable: %s", path)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

// RemoveAll removes path recursively and reports the error to onErr instead of returning it
func RemoveAll(path string, onErr func(error)) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil && onErr != nil {
		onErr(err)
	}
}
