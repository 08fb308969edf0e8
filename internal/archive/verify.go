package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ytget/yt-archiver/internal/checksum"
)

// ProblemKind classifies a verification failure
type ProblemKind string

const (
	ProblemMissing  ProblemKind = "missing"
	ProblemMismatch ProblemKind = "mismatch"
	ProblemError    ProblemKind = "error"
)

// Problem is one ledger entry that failed verification
type Problem struct {
	Path   string      `json:"path"`
	Kind   ProblemKind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

// VerifyReport summarizes a verification pass
type VerifyReport struct {
	Checked  int       `json:"checked"`
	Problems []Problem `json:"problems"`
}

// OK reports whether every entry passed
func (r *VerifyReport) OK() bool { return len(r.Problems) == 0 }

// Verify checks that every latest ledger entry exists below root and, with
// hashes set, that its content still matches the recorded digest.
func Verify(ctx context.Context, root string, entries []Entry, hashes bool, obs checksum.Observer) (*VerifyReport, error) {
	report := &VerifyReport{Problems: []Problem{}}

	for _, e := range Latest(entries) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Checked++
		path := filepath.Join(root, filepath.FromSlash(e.Path))

		info, err := os.Stat(path)
		if err != nil {
			kind := ProblemError
			if IsNotExist(err) {
				kind = ProblemMissing
			}
			report.Problems = append(report.Problems, Problem{Path: e.Path, Kind: kind, Detail: err.Error()})
			continue
		}
		if !hashes {
			continue
		}
		if !info.Mode().IsRegular() {
			report.Problems = append(report.Problems, Problem{Path: e.Path, Kind: ProblemError, Detail: "not a regular file"})
			continue
		}

		sum, err := checksum.File(path, obs)
		if err != nil {
			report.Problems = append(report.Problems, Problem{Path: e.Path, Kind: ProblemError, Detail: err.Error()})
			continue
		}
		if sum != e.Hex {
			report.Problems = append(report.Problems, Problem{
				Path:   e.Path,
				Kind:   ProblemMismatch,
				Detail: fmt.Sprintf("expected %s, got %s", e.Hex, sum),
			})
		}
	}
	return report, nil
}
