package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-archiver/internal/catalog"
	"github.com/ytget/yt-archiver/internal/compress"
	"github.com/ytget/yt-archiver/internal/config"
	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/metrics"
	"github.com/ytget/yt-archiver/internal/model"
	"github.com/ytget/yt-archiver/internal/pipeline"
	"github.com/ytget/yt-archiver/internal/report"
)

func (a *App) newDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [flags] URL...",
		Short: "Download URLs and archive every resolved item",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bindFlags(cmd, map[string]string{
				"root":         config.KeyArchiveRoot,
				"cache":        config.KeyCacheDir,
				"preset":       config.KeyPreset,
				"package":      config.KeyPackage,
				"ephemeral":    config.KeyEphemeral,
				"catalog":      config.KeyCatalogPath,
				"metrics-file": config.KeyMetricsFile,
			})
		},
		RunE: a.runDownload,
	}

	flags := cmd.Flags()
	flags.String("root", "", "archive root directory")
	flags.String("cache", "", "engine cache directory (default <root>/.tmp/ydl_cache)")
	flags.String("preset", config.DefaultPreset, "format preset: audio or video")
	flags.String("package", config.DefaultPackage, "packaging: zip or none")
	flags.Bool("ephemeral", false, "use a random scratch directory instead of the dedup key")
	flags.String("catalog", "", "sqlite catalog of archived items")
	flags.String("metrics-file", "", "write prometheus metrics to this textfile")
	return cmd
}

func (a *App) runDownload(cmd *cobra.Command, urls []string) error {
	log, err := a.logger()
	if err != nil {
		return err
	}
	started := time.Now()

	var m *metrics.Metrics
	metricsFile, err := a.settings.GetMetricsFile()
	if err != nil {
		return a.fail(err)
	}
	if metricsFile != "" {
		m = metrics.New()
	}

	result, err := a.download(cmd, urls, log, m)

	if m != nil {
		m.ObserveRun(started, err)
		if werr := m.WriteTextfile(metricsFile); werr != nil {
			log.Warn("could not write metrics", logger.String("file", metricsFile), logger.Error(werr))
		}
	}
	if err != nil {
		return a.fail(err)
	}
	if err := report.WriteSuccess(a.Stdout, result); err != nil {
		return a.fail(err)
	}
	return nil
}

func (a *App) download(cmd *cobra.Command, urls []string, log logger.Logger, m *metrics.Metrics) (*model.PipelineResult, error) {
	ctx := cmd.Context()

	root, err := a.settings.GetArchiveRoot()
	if err != nil {
		return nil, err
	}
	cacheDir, err := a.settings.GetCacheDir()
	if err != nil {
		return nil, err
	}
	preset, err := a.settings.GetPreset()
	if err != nil {
		return nil, err
	}
	cfg, err := a.settings.PipelineConfig()
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithProgressSink(logger.NewProgressSink(log))}
	// zip must be resolved before the engine factory, which may fetch yt-dlp
	if cfg.Packaging == pipeline.PackagingZip {
		packager, err := compress.NewPackager(log)
		if err != nil {
			return nil, model.NewError(model.ReasonUnknown, err.Error(), err)
		}
		opts = append(opts, pipeline.WithPackager(packager))
	}
	if m != nil {
		opts = append(opts, pipeline.WithObserver(m))
	}

	catalogPath, err := a.settings.GetCatalogPath()
	if err != nil {
		return nil, err
	}
	if catalogPath != "" {
		store, err := catalog.Open(catalogPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		opts = append(opts, pipeline.WithCatalog(store))
	}

	engine, err := a.NewEngine(ctx, a.settings)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(cfg, engine, log, opts...)
	if err != nil {
		return nil, err
	}

	return p.Run(ctx, model.Request{
		URLs:     urls,
		Preset:   preset,
		Root:     root,
		CacheDir: cacheDir,
	})
}
