package pipeline

import (
	"fmt"
	"time"
)

// Packaging selects how an item's output directory is stored
type Packaging string

const (
	// PackagingNone moves the directory tree as is
	PackagingNone Packaging = "none"
	// PackagingZip stores the directory as one store-only zip file
	PackagingZip Packaging = "zip"
)

// ParsePackaging converts a user supplied value into a Packaging
func ParsePackaging(value string) (Packaging, error) {
	switch Packaging(value) {
	case PackagingZip, "":
		return PackagingZip, nil
	case PackagingNone:
		return PackagingNone, nil
	default:
		return "", fmt.Errorf("unknown packaging %q (expected %s or %s)", value, PackagingZip, PackagingNone)
	}
}

// HashScope selects what the integrity digest covers
type HashScope string

const (
	// HashScopeFile hashes the single packaged file
	HashScopeFile HashScope = "file"
	// HashScopeTree hashes every regular file of the placed tree
	HashScopeTree HashScope = "tree"
)

// Config configures the pipeline
type Config struct {
	Packaging Packaging
	// Ephemeral uses a random workspace under TempRoot instead of the dedup key
	Ephemeral bool
	TempRoot  string

	Verbose bool
	// SplitReasons reports network faults separately from system faults
	SplitReasons       bool
	ProgressInterval   time.Duration
	FFmpegProgressFile string
}

// HashScope is derived from the packaging mode
func (c Config) HashScope() HashScope {
	if c.Packaging == PackagingNone {
		return HashScopeTree
	}
	return HashScopeFile
}
