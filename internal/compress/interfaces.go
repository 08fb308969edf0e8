package compress

import (
	"context"
)

// Archiver defines the interface for the packaging service.
type Archiver interface {
	// Package stores the whole srcDir tree into dstFile and removes srcDir
	Package(ctx context.Context, srcDir, dstFile string) error
}
