package download

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// yt-dlp output plumbing
const (
	// ItemMarker prefixes the metadata line printed once per finalized item
	ItemMarker = "__item__"
	// PrintItemTemplate prints the full info dict after the item reached its final path
	PrintItemTemplate = "after_move:" + ItemMarker + "%()j"

	DefaultEngineProgressInterval = 500 * time.Millisecond
)

// YTDLP is the Engine backed by the yt-dlp executable
type YTDLP struct {
	interval time.Duration
	opts     Options
}

// NewYTDLP creates a yt-dlp engine reporting progress every interval
func NewYTDLP(interval time.Duration) *YTDLP {
	if interval <= 0 {
		interval = DefaultEngineProgressInterval
	}
	return &YTDLP{interval: interval}
}

// InstallEngine makes sure a yt-dlp executable is available, downloading it if needed
func InstallEngine(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	return nil
}

// Configure implements Engine
func (e *YTDLP) Configure(opts Options) error {
	if opts.OutputTemplate == "" {
		return fmt.Errorf("output template is required")
	}
	e.opts = opts
	return nil
}

// Run implements Engine
func (e *YTDLP) Run(ctx context.Context, urls []string, hooks Hooks) error {
	dl := ytdlp.New()
	if hooks.OnProgress != nil {
		dl.ProgressFunc(e.interval, func(update ytdlp.ProgressUpdate) {
			hooks.OnProgress(progressEvent(&update))
		})
	}

	args := append(e.opts.Args(), "--print", PrintItemTemplate, "--")
	args = append(args, urls...)

	result, err := dl.Run(ctx, args...)
	if result != nil && hooks.OnItem != nil {
		for _, info := range ParseItems(result.Stdout) {
			hooks.OnItem(info)
		}
	}
	if err != nil {
		return newEngineError(err, result)
	}
	return nil
}

// Inspect implements Inspector
func (e *YTDLP) Inspect(ctx context.Context, opts Options, url string) (map[string]any, error) {
	args := append(opts.Args(), "--dump-single-json", "--flat-playlist", "--", url)

	result, err := ytdlp.New().Run(ctx, args...)
	if err != nil {
		return nil, newEngineError(err, result)
	}

	info, err := decodeInfo(strings.TrimSpace(result.Stdout))
	if err != nil {
		return nil, fmt.Errorf("could not decode engine metadata: %w", err)
	}
	return info, nil
}

// ParseItems decodes every ItemMarker line of engine stdout in output order
func ParseItems(stdout string) []map[string]any {
	var items []map[string]any

	scanner := bufio.NewScanner(strings.NewReader(stdout))
	// info dicts of long videos easily exceed the default token size
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, ItemMarker)
		if idx < 0 {
			continue
		}
		info, err := decodeInfo(line[idx+len(ItemMarker):])
		if err != nil {
			continue
		}
		items = append(items, info)
	}
	return items
}

func decodeInfo(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var info map[string]any
	if err := dec.Decode(&info); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("empty metadata document")
	}
	return info, nil
}

func progressEvent(update *ytdlp.ProgressUpdate) ProgressEvent {
	ev := ProgressEvent{
		Status:     string(update.Status),
		Downloaded: int64(update.DownloadedBytes),
		Total:      int64(update.TotalBytes),
		ETA:        update.ETA(),
	}
	if !update.Started.IsZero() {
		ev.Elapsed = time.Since(update.Started)
	}
	return ev
}

func newEngineError(err error, result *ytdlp.Result) *EngineError {
	engErr := &EngineError{ExitCode: -1, Cause: err}
	if result == nil {
		return engErr
	}

	engErr.ExitCode = result.ExitCode
	engErr.Message = LastErrorLine(result.Stderr)
	if cause := ParseRemoteCause(result.Stderr); cause != nil {
		engErr.Cause = cause
	}
	return engErr
}
