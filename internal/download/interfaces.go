package download

import (
	"context"
	"time"
)

// ProgressStatusFinished is the engine status of a completed download
const ProgressStatusFinished = "finished"

// ProgressEvent is a raw progress report from the engine
type ProgressEvent struct {
	Status     string
	Downloaded int64
	Total      int64 // <= 0 when unknown
	Elapsed    time.Duration
	ETA        time.Duration
}

// Finished reports whether the event marks a completed download
func (ev ProgressEvent) Finished() bool {
	return ev.Status == ProgressStatusFinished
}

// Hooks are invoked by the engine while it runs
type Hooks struct {
	// OnItem receives the metadata mapping of every finalized item
	OnItem func(info map[string]any)
	// OnProgress receives periodic progress events
	OnProgress func(ev ProgressEvent)
}

// Engine defines the capability the session needs from a download engine.
type Engine interface {
	// Configure replaces the declarative options used by subsequent runs
	Configure(opts Options) error
	// Run downloads all urls in one batch, invoking hooks along the way.
	// Failures raised by the engine are returned as *EngineError.
	Run(ctx context.Context, urls []string, hooks Hooks) error
}

// Inspector is implemented by engines able to resolve metadata without downloading.
type Inspector interface {
	Inspect(ctx context.Context, opts Options, url string) (map[string]any, error)
}
