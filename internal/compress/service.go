package compress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ytget/yt-archiver/internal/logger"
)

// Zip constants for packaging settings
const (
	// Executable
	ZipCommand = "zip"

	// Store only, no compression
	StoreOnlyLevel = "-0"
	RecursiveFlag  = "-r"
	QuietFlag      = "-q"

	// Archive everything below the working directory
	CurrentDir = "."

	// Output extension
	ZipExtension = ".zip"
)

// ErrZipNotFound is returned when the packaging tool is not installed
var ErrZipNotFound = errors.New("zip executable not found in PATH")

// ToolError is a non zero exit of the packaging tool
type ToolError struct {
	ExitCode int
	Output   string
}

func (e *ToolError) Error() string {
	output := strings.TrimSpace(e.Output)
	if output == "" {
		return fmt.Sprintf("zip exited with status %d", e.ExitCode)
	}
	return output
}

// Packager handles zip packaging operations
type Packager struct {
	zipPath string
	log     logger.Logger
}

var _ Archiver = (*Packager)(nil)

// NewPackager creates a packager, failing fast when zip is not on PATH
func NewPackager(log logger.Logger) (*Packager, error) {
	path, err := exec.LookPath(ZipCommand)
	if err != nil {
		return nil, ErrZipNotFound
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Packager{zipPath: path, log: log}, nil
}

// Package implements Archiver
func (p *Packager) Package(ctx context.Context, srcDir, dstFile string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("package source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("package source %s is not a directory", srcDir)
	}

	// zip resolves dst relative to its working directory
	dst, err := filepath.Abs(dstFile)
	if err != nil {
		return fmt.Errorf("resolve package path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create package directory: %w", err)
	}
	// zip updates an existing archive in place instead of replacing it
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale package: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.zipPath, BuildZipArgs(dst)...)
	cmd.Dir = srcDir

	p.log.Debug("packaging directory",
		logger.String("src", srcDir),
		logger.String("dst", dst))

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Remove(dst)
			return &ToolError{ExitCode: exitErr.ExitCode(), Output: string(output)}
		}
		return fmt.Errorf("failed to run zip: %w", err)
	}

	if err := os.RemoveAll(srcDir); err != nil {
		return fmt.Errorf("remove packaged directory: %w", err)
	}
	return nil
}

// BuildZipArgs builds the zip command arguments
func BuildZipArgs(dstFile string) []string {
	return []string{
		StoreOnlyLevel, // No compression
		RecursiveFlag,  // Whole tree
		QuietFlag,      // Diagnostics only
		dstFile,        // Output archive
		CurrentDir,     // Input: working directory
	}
}
