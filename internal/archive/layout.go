package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// UploadDateLayout is the engine's 8 digit upload date format
const UploadDateLayout = "20060102"

// ErrInvalidUploadDate is returned for an absent or malformed upload date
var ErrInvalidUploadDate = errors.New("invalid upload date")

// ParseUploadDate parses a YYYYMMDD upload date. It never defaults.
func ParseUploadDate(s string) (time.Time, error) {
	if len(s) != len(UploadDateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidUploadDate, s)
	}
	t, err := time.Parse(UploadDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidUploadDate, s)
	}
	return t, nil
}

// DestPath returns <root>/<YYYY>/<MM>/<date>_<id><ext>
func DestPath(root, date, id, ext string) (string, error) {
	t, err := ParseUploadDate(date)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("item id is required")
	}
	return filepath.Join(root, t.Format("2006"), t.Format("01"), date+"_"+id+ext), nil
}

// RelPath returns path relative to root using forward slashes
func RelPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}
