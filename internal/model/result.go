package model

import (
	"fmt"
	"strings"
)

// DigestAlgorithmSHA256 tags digests produced by the content hasher
const DigestAlgorithmSHA256 = "sha256"

// Digest is an algorithm-tagged content digest
type Digest struct {
	Algorithm string
	Hex       string
}

// NewSHA256Digest wraps a hex encoded SHA-256 digest
func NewSHA256Digest(hex string) Digest {
	return Digest{Algorithm: DigestAlgorithmSHA256, Hex: hex}
}

// String renders the digest as "<algorithm>:<hex>"
func (d Digest) String() string {
	if d.Hex == "" {
		return ""
	}
	return d.Algorithm + ":" + d.Hex
}

// MarshalText implements encoding.TextMarshaler
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Digest) UnmarshalText(text []byte) error {
	algo, hex, ok := strings.Cut(string(text), ":")
	if !ok || algo == "" || hex == "" {
		return fmt.Errorf("malformed digest %q", string(text))
	}
	d.Algorithm = algo
	d.Hex = hex
	return nil
}

// ArchiveRecord describes one artifact placed into the durable store
type ArchiveRecord struct {
	Path   string `json:"path"` // relative to the archive root
	Size   int64  `json:"size"`
	Digest Digest `json:"digest"`
}

// FileRecord describes one regular file of a placed directory tree
type FileRecord struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// ItemResult is the success record emitted for one archived item
type ItemResult struct {
	ID string `json:"id"`
	ArchiveRecord
	Files      []FileRecord   `json:"files,omitempty"`
	UploadDate string         `json:"upload_date"`
	Info       map[string]any `json:"info"`
}

// PipelineResult is the aggregate outcome of a successful invocation
type PipelineResult struct {
	Items []ItemResult
}

// TotalSize returns the sum of all archived item sizes
func (r *PipelineResult) TotalSize() int64 {
	var total int64
	for _, it := range r.Items {
		total += it.Size
	}
	return total
}
