package checksum

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// Hashing constants
const (
	// ChunkSize is the fixed read size used while hashing
	ChunkSize = 128 * 1024

	// ReportEvery is the number of chunks between observer notifications (~64 MiB)
	ReportEvery = 512

	// Empty is the SHA-256 digest of the empty input
	Empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// DedupDelimiter terminates every URL fed into the dedup key
	DedupDelimiter = "::"
)

// Observer is notified periodically while a large file is hashed
type Observer interface {
	OnHashProgress(path string, bytesRead int64)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(path string, bytesRead int64)

// OnHashProgress calls f(path, bytesRead)
func (f ObserverFunc) OnHashProgress(path string, bytesRead int64) { f(path, bytesRead) }

// File returns the hex encoded SHA-256 digest of the file at path.
// The file is read through the raw descriptor in ChunkSize reads with one reused buffer.
func File(path string, obs Observer) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s for hashing: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	sum, n, err := Reader(f, path, obs)
	if err != nil {
		return "", err
	}
	// a file shrinking under us is a truncated read
	if fi.Mode().IsRegular() && n != fi.Size() {
		return "", fmt.Errorf("hash %s: read %d of %d bytes: %w", path, n, fi.Size(), io.ErrUnexpectedEOF)
	}
	return sum, nil
}

// Reader hashes r until EOF and returns the digest and number of bytes consumed.
// name is only used for observer notifications and error messages.
func Reader(r io.Reader, name string, obs Observer) (string, int64, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)

	var (
		total  int64
		chunks int
	)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			total += int64(n)
			chunks++
			if obs != nil && chunks%ReportEvery == 0 {
				obs.OnHashProgress(name, total)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", total, fmt.Errorf("read %s: %w", name, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// DedupKey returns the SHA-1 hex digest of the sorted, de-duplicated URL set,
// each URL followed by DedupDelimiter.
func DedupKey(urls []string) string {
	set := make(map[string]struct{}, len(urls))
	sorted := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, seen := set[u]; seen {
			continue
		}
		set[u] = struct{}{}
		sorted = append(sorted, u)
	}
	sort.Strings(sorted)

	h := sha1.New()
	for _, u := range sorted {
		io.WriteString(h, u)
		io.WriteString(h, DedupDelimiter)
	}
	return hex.EncodeToString(h.Sum(nil))
}
