package model

import "fmt"

// ProgressUnknown marks a progress snapshot without a known total
const ProgressUnknown = "unk"

// Progress is a normalized progress snapshot forwarded to observers
type Progress struct {
	Finished   bool   `json:"finished"`
	Done       string `json:"done"`
	Downloaded int64  `json:"downloaded,omitempty"`
	Total      int64  `json:"total,omitempty"`
}

// NewProgress builds a snapshot from byte counters; total <= 0 means unknown
func NewProgress(finished bool, downloaded, total int64) Progress {
	p := Progress{Finished: finished, Done: ProgressUnknown}
	if total > 0 {
		p.Downloaded = downloaded
		p.Total = total
		p.Done = fmt.Sprintf("%.2f%%", float64(downloaded)*100/float64(total))
	}
	return p
}
