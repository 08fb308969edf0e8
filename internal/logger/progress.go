package logger

import (
	"encoding/json"

	"github.com/ytget/yt-archiver/internal/model"
)

// ProgressMarker tags log lines carrying a JSON progress snapshot
const ProgressMarker = "__progress__"

// ProgressSink receives normalized progress snapshots
type ProgressSink interface {
	Progress(p model.Progress)
}

// LogProgressSink writes every snapshot as "__progress__ {json}" log message
type LogProgressSink struct {
	log Logger
}

// NewProgressSink creates a sink backed by log
func NewProgressSink(log Logger) *LogProgressSink {
	return &LogProgressSink{log: log}
}

// Progress logs the snapshot at info level
func (s *LogProgressSink) Progress(p model.Progress) {
	s.log.Info(FormatProgress(p))
}

// FormatProgress renders the marker line payload for p
func FormatProgress(p model.Progress) string {
	raw, err := json.Marshal(p)
	if err != nil {
		return ProgressMarker + " {}"
	}
	return ProgressMarker + " " + string(raw)
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(p model.Progress)

// Progress calls f(p)
func (f ProgressFunc) Progress(p model.Progress) { f(p) }
