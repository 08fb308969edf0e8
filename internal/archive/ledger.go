package archive

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Ledger constants
const (
	LedgerFileName = "SHA256SUMS"
	// LedgerLockName lives under the root's .tmp directory
	LedgerLockName   = LedgerFileName + ".lock"
	ledgerLockDir    = ".tmp"
	ledgerRetryDelay = 50 * time.Millisecond
	binaryMarker     = "*"
)

// Entry is one ledger line
type Entry struct {
	Hex  string
	Path string // relative to the archive root, forward slashes
}

// String renders the entry as a SHA256SUMS line without the newline
func (e Entry) String() string {
	return e.Hex + " " + binaryMarker + e.Path
}

// Ledger is the append-only integrity ledger at the archive root
type Ledger struct {
	root string
	path string
	lock *flock.Flock
}

// NewLedger returns the ledger of root
func NewLedger(root string) *Ledger {
	return &Ledger{
		root: root,
		path: filepath.Join(root, LedgerFileName),
		lock: flock.New(filepath.Join(root, ledgerLockDir, LedgerLockName)),
	}
}

// Path returns the ledger file path
func (l *Ledger) Path() string { return l.path }

// Append writes one line for relPath and forces it to disk before returning.
// Appends from concurrent invocations are serialized by an advisory lock.
func (l *Ledger) Append(ctx context.Context, hex, relPath string) error {
	if hex == "" || relPath == "" {
		return fmt.Errorf("ledger entry needs a digest and a path")
	}
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0o755); err != nil {
		return fmt.Errorf("create ledger lock directory: %w", err)
	}

	locked, err := l.lock.TryLockContext(ctx, ledgerRetryDelay)
	if err != nil {
		return fmt.Errorf("lock ledger: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock ledger: not acquired")
	}
	defer l.lock.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	line := Entry{Hex: hex, Path: filepath.ToSlash(relPath)}.String() + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append to ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	return f.Close()
}

// Read parses every ledger line in file order. A missing ledger is empty.
func (l *Ledger) Read() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("ledger line %d: %w", n, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return entries, nil
}

// ParseEntry parses "<hex> *<path>" (binary) or "<hex>  <path>" (text) lines
func ParseEntry(line string) (Entry, error) {
	hex, rest, ok := strings.Cut(line, " ")
	if !ok || len(hex) != 64 {
		return Entry{}, fmt.Errorf("malformed entry %q", line)
	}
	switch {
	case strings.HasPrefix(rest, binaryMarker):
		rest = rest[len(binaryMarker):]
	case strings.HasPrefix(rest, " "):
		rest = rest[1:]
	}
	if rest == "" {
		return Entry{}, fmt.Errorf("malformed entry %q", line)
	}
	return Entry{Hex: strings.ToLower(hex), Path: rest}, nil
}

// Latest keeps the last entry per path, ordered by first appearance
func Latest(entries []Entry) []Entry {
	index := make(map[string]int, len(entries))
	var out []Entry
	for _, e := range entries {
		if i, ok := index[e.Path]; ok {
			out[i] = e
			continue
		}
		index[e.Path] = len(out)
		out = append(out, e)
	}
	return out
}
