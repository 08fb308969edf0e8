// Package pipeline runs one acquisition-to-archive invocation: workspace,
// download session, per-item packaging, hashing and placement, cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ytget/yt-archiver/internal/archive"
	"github.com/ytget/yt-archiver/internal/checksum"
	"github.com/ytget/yt-archiver/internal/compress"
	"github.com/ytget/yt-archiver/internal/download"
	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/model"
	"github.com/ytget/yt-archiver/internal/platform"
	"github.com/ytget/yt-archiver/internal/report"
	"github.com/ytget/yt-archiver/internal/workspace"
)

// Skip causes reported to the metrics observer
const (
	SkipMissingOutput = "missing_output"
)

// Catalog records archived items
type Catalog interface {
	RecordItem(ctx context.Context, item model.ItemResult) error
}

// Observer receives per-item counters
type Observer interface {
	ObserveItem(size int64)
	ObserveSkip(cause string)
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithPackager overrides the zip packager
func WithPackager(p compress.Archiver) Option {
	return func(pl *Pipeline) { pl.packager = p }
}

// WithProgressSink forwards download progress to sink
func WithProgressSink(sink logger.ProgressSink) Option {
	return func(pl *Pipeline) { pl.sink = sink }
}

// WithCatalog records every archived item in c
func WithCatalog(c Catalog) Option {
	return func(pl *Pipeline) { pl.catalog = c }
}

// WithObserver reports per-item counters to o
func WithObserver(o Observer) Option {
	return func(pl *Pipeline) { pl.observer = o }
}

// Pipeline archives the items of download requests
type Pipeline struct {
	cfg      Config
	engine   download.Engine
	packager compress.Archiver
	log      logger.Logger
	sink     logger.ProgressSink
	catalog  Catalog
	observer Observer
}

// New creates a pipeline. With zip packaging the zip tool is resolved here,
// so a missing tool fails before any engine call.
func New(cfg Config, engine download.Engine, log logger.Logger, opts ...Option) (*Pipeline, error) {
	if engine == nil {
		return nil, fmt.Errorf("download engine is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Packaging == "" {
		cfg.Packaging = PackagingZip
	}

	p := &Pipeline{cfg: cfg, engine: engine, log: log}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.Packaging == PackagingZip && p.packager == nil {
		packager, err := compress.NewPackager(log)
		if err != nil {
			return nil, model.NewError(model.ReasonUnknown, err.Error(), err)
		}
		p.packager = packager
	}
	return p, nil
}

// Run executes req and returns the ordered item records or a single error.
func (p *Pipeline) Run(ctx context.Context, req model.Request) (*model.PipelineResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := platform.CreateDirectoryIfNotExists(req.Root); err != nil {
		return nil, model.NewError(model.ReasonSystem, err.Error(), err)
	}
	if err := platform.IsWritableDir(req.Root); err != nil {
		return nil, model.NewError(model.ReasonSystem, "archive root is not writable", err)
	}

	key := checksum.DedupKey(req.URLs)
	log := p.log.With(logger.String("key", key))

	ws, err := workspace.New(req.Root, key, workspace.Options{
		CacheDir:  req.CacheDir,
		Ephemeral: p.cfg.Ephemeral,
		TempRoot:  p.cfg.TempRoot,
	}, log)
	if err != nil {
		return nil, model.NewError(model.ReasonSystem, err.Error(), err)
	}
	defer ws.Close()

	if err := ws.Lock(); err != nil {
		return nil, err
	}

	session := download.NewSession(p.engine, download.Config{
		Preset:             req.Preset,
		Verbose:            p.cfg.Verbose,
		SplitReasons:       p.cfg.SplitReasons,
		ProgressInterval:   p.cfg.ProgressInterval,
		FFmpegProgressFile: p.cfg.FFmpegProgressFile,
	}, log, p.sink)
	session.SetItemCallback(func(info map[string]any) {
		log.Debug("item finalized", logger.Any("id", info[model.InfoKeyID]))
	})

	items, err := session.Download(ctx, req.URLs, ws.OutputTemplate(), ws.CacheDir())
	if err != nil {
		return nil, err
	}

	// a wrong date would shelve the item in the wrong shard, so nothing is
	// placed unless every item carries a valid one
	for _, item := range items {
		if _, err := archive.ParseUploadDate(item.UploadDate); err != nil {
			return nil, model.NewError(model.ReasonUnknown,
				fmt.Sprintf("item %s has no valid upload date: %v", item.ID, err), err)
		}
	}

	ledger := archive.NewLedger(req.Root)
	result := &model.PipelineResult{Items: []model.ItemResult{}}

	for _, item := range items {
		itemLog := log.With(logger.String("id", item.ID))

		src := ws.ItemDir(item)
		if _, err := os.Stat(src); err != nil {
			if archive.IsNotExist(err) {
				itemLog.Warn("no output directory for finalized item, skipping", logger.String("dir", src))
				if p.observer != nil {
					p.observer.ObserveSkip(SkipMissingOutput)
				}
				continue
			}
			return nil, model.NewError(model.ReasonUnknown, "could not stat output directory", err)
		}

		var rec model.ItemResult
		if p.cfg.HashScope() == HashScopeTree {
			rec, err = p.archiveTree(ctx, req.Root, ledger, item, src, itemLog)
		} else {
			rec, err = p.archiveFile(ctx, req.Root, ledger, ws, item, src, itemLog)
		}
		if err != nil {
			return nil, err
		}

		if p.catalog != nil {
			if err := p.catalog.RecordItem(ctx, rec); err != nil {
				return nil, err
			}
		}
		if p.observer != nil {
			p.observer.ObserveItem(rec.Size)
		}
		itemLog.Info("item archived", logger.String("path", rec.Path), logger.Int64("size", rec.Size))
		result.Items = append(result.Items, rec)
	}

	log.Info("batch archived",
		logger.Int("items", len(result.Items)),
		logger.Int64("bytes", result.TotalSize()))
	return result, nil
}

// archiveFile packages src, hashes the package and places it
func (p *Pipeline) archiveFile(ctx context.Context, root string, ledger *archive.Ledger, ws *workspace.Workspace,
	item model.Item, src string, log logger.Logger) (model.ItemResult, error) {
	dst, err := archive.DestPath(root, item.UploadDate, item.ID, compress.ZipExtension)
	if err != nil {
		return model.ItemResult{}, err
	}

	packaged := ws.Path(item.DirName() + compress.ZipExtension)
	if err := p.packager.Package(ctx, src, packaged); err != nil {
		var toolErr *compress.ToolError
		if errors.As(err, &toolErr) {
			return model.ItemResult{}, model.NewError(model.ReasonUnknown, toolErr.Error(), err)
		}
		return model.ItemResult{}, fmt.Errorf("package item %s: %w", item.ID, err)
	}

	sum, err := checksum.File(packaged, hashObserver(log))
	if err != nil {
		return model.ItemResult{}, err
	}
	info, err := os.Stat(packaged)
	if err != nil {
		return model.ItemResult{}, model.NewError(model.ReasonUnknown, "could not stat output file", err)
	}

	if err := archive.Place(packaged, dst); err != nil {
		return model.ItemResult{}, err
	}
	rel, err := archive.RelPath(root, dst)
	if err != nil {
		return model.ItemResult{}, err
	}
	if err := ledger.Append(ctx, sum, rel); err != nil {
		return model.ItemResult{}, err
	}

	return model.ItemResult{
		ID: item.ID,
		ArchiveRecord: model.ArchiveRecord{
			Path:   rel,
			Size:   info.Size(),
			Digest: model.NewSHA256Digest(sum),
		},
		UploadDate: item.UploadDate,
		Info:       report.StripInfo(item.Info),
	}, nil
}

// archiveTree places src as a directory and records every file in it
func (p *Pipeline) archiveTree(ctx context.Context, root string, ledger *archive.Ledger,
	item model.Item, src string, log logger.Logger) (model.ItemResult, error) {
	dst, err := archive.DestPath(root, item.UploadDate, item.ID, "")
	if err != nil {
		return model.ItemResult{}, err
	}
	if err := archive.Place(src, dst); err != nil {
		return model.ItemResult{}, err
	}

	files, err := archive.Manifest(root, dst, hashObserver(log))
	if err != nil {
		return model.ItemResult{}, model.NewError(model.ReasonUnknown, err.Error(), err)
	}
	for _, f := range files {
		log.Info("output file", logger.String("path", f.Path))
		if err := ledger.Append(ctx, f.Hash, f.Path); err != nil {
			return model.ItemResult{}, err
		}
	}
	rel, err := archive.RelPath(root, dst)
	if err != nil {
		return model.ItemResult{}, err
	}

	return model.ItemResult{
		ID: item.ID,
		ArchiveRecord: model.ArchiveRecord{
			Path:   rel,
			Size:   archive.TreeSize(files),
			Digest: model.NewSHA256Digest(archive.TreeDigest(files)),
		},
		Files:      files,
		UploadDate: item.UploadDate,
		Info:       report.StripInfo(item.Info),
	}, nil
}

func hashObserver(log logger.Logger) checksum.Observer {
	return checksum.ObserverFunc(func(path string, bytesRead int64) {
		log.Debug("hashing", logger.String("path", path), logger.Int64("bytes", bytesRead))
	})
}
