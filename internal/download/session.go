package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/model"
)

// DefaultProgressInterval is the minimum spacing of forwarded progress snapshots
const DefaultProgressInterval = time.Second

// Config configures a download session
type Config struct {
	Preset  model.Preset
	Verbose bool
	// SplitReasons distinguishes network from system faults
	SplitReasons bool
	// ProgressInterval throttles progress snapshots; finished events always pass
	ProgressInterval time.Duration
	// FFmpegProgressFile receives ffmpeg post-processor progress when set
	FFmpegProgressFile string
}

// Session drives the engine for one batch of URLs
type Session struct {
	engine Engine
	cfg    Config
	log    logger.Logger
	sink   logger.ProgressSink
	onItem func(info map[string]any)
}

// NewSession creates a session around engine
func NewSession(engine Engine, cfg Config, log logger.Logger, sink logger.ProgressSink) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Preset == "" {
		cfg.Preset = model.DefaultPreset
	}
	return &Session{engine: engine, cfg: cfg, log: log, sink: sink}
}

// SetItemCallback sets the callback the recording hook forwards accepted items to
func (s *Session) SetItemCallback(callback func(info map[string]any)) {
	s.onItem = callback
}

// Download fetches urls into outputTemplate and returns the finalized items in
// the order the engine first finalized them.
func (s *Session) Download(ctx context.Context, urls []string, outputTemplate, cacheDir string) ([]model.Item, error) {
	opts := PresetOptions(s.cfg.Preset, s.cfg.Verbose).WithFFmpegProgress(s.cfg.FFmpegProgressFile)
	opts.OutputTemplate = outputTemplate
	opts.CacheDir = cacheDir

	if err := s.engine.Configure(opts); err != nil {
		return nil, fmt.Errorf("configure engine: %w", err)
	}

	rec := NewRecorder(s.log, s.onItem)
	hooks := Hooks{OnItem: rec.Handle}
	if s.sink != nil {
		hooks.OnProgress = newProgressForwarder(s.sink, s.cfg.ProgressInterval, s.log).Handle
	}

	s.log.Info("starting download",
		logger.Strings("urls", urls),
		logger.String("preset", s.cfg.Preset.String()))

	if err := s.engine.Run(ctx, urls, hooks); err != nil {
		return nil, Classify(err, s.cfg.SplitReasons)
	}

	items := rec.Items()
	s.log.Info("download finished", logger.Int("items", len(items)))
	return items, nil
}

// Inspect resolves lightweight metadata for url without downloading
func (s *Session) Inspect(ctx context.Context, url, cacheDir string) (map[string]any, error) {
	inspector, ok := s.engine.(Inspector)
	if !ok {
		return nil, fmt.Errorf("engine does not support metadata lookup")
	}
	opts := CommonOptions(s.cfg.Verbose)
	opts.CacheDir = cacheDir

	info, err := inspector.Inspect(ctx, opts, url)
	if err != nil {
		return nil, Classify(err, s.cfg.SplitReasons)
	}
	return info, nil
}

// Recorder intercepts item finalization: it drops items without an id and
// live items, keeps the last metadata seen per id in first-seen order, and
// forwards accepted items to next.
type Recorder struct {
	mu    sync.Mutex
	order []string
	items map[string]model.Item
	next  func(info map[string]any)
	log   logger.Logger
}

// NewRecorder creates a recorder forwarding to next (may be nil)
func NewRecorder(log logger.Logger, next func(info map[string]any)) *Recorder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Recorder{items: make(map[string]model.Item), next: next, log: log}
}

// Handle records info and forwards it
func (r *Recorder) Handle(info map[string]any) {
	item := model.ItemFromInfo(info)
	if !item.HasID() {
		r.log.Debug("skipping item without id")
		return
	}
	if item.IsLive {
		r.log.Info("skipping live item", logger.String("id", item.ID))
		return
	}

	r.mu.Lock()
	if _, seen := r.items[item.ID]; !seen {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = item
	r.mu.Unlock()

	r.log.Debug("item finalized", logger.String("id", item.ID), logger.String("title", item.Title()))
	if r.next != nil {
		r.next(info)
	}
}

// Items returns the recorded items in first-seen order
func (r *Recorder) Items() []model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// progressForwarder normalizes engine events and throttles them
type progressForwarder struct {
	sink    logger.ProgressSink
	limiter *rate.Limiter
	log     logger.Logger
}

func newProgressForwarder(sink logger.ProgressSink, interval time.Duration, log logger.Logger) *progressForwarder {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &progressForwarder{sink: sink, limiter: rate.NewLimiter(limit, 1), log: log}
}

// Handle forwards ev; a misbehaving sink never reaches the engine
func (p *progressForwarder) Handle(ev ProgressEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("progress sink panicked", logger.Any("panic", r))
		}
	}()

	snap := model.NewProgress(ev.Finished(), ev.Downloaded, ev.Total)
	if !snap.Finished && !p.limiter.Allow() {
		return
	}
	p.sink.Progress(snap)
}
