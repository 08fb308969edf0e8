package cli

import (
	"github.com/spf13/cobra"

	"github.com/ytget/yt-archiver/internal/config"
	"github.com/ytget/yt-archiver/internal/download"
	"github.com/ytget/yt-archiver/internal/model"
	"github.com/ytget/yt-archiver/internal/platform"
	"github.com/ytget/yt-archiver/internal/report"
)

func (a *App) newInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info URL",
		Short: "Print lightweight metadata for URL without downloading",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bindFlags(cmd, map[string]string{"cache": config.KeyCacheDir})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.info(cmd, args[0])
			if err != nil {
				return a.fail(err)
			}
			if err := report.WriteJSON(a.Stdout, result); err != nil {
				return a.fail(err)
			}
			return nil
		},
	}
	cmd.Flags().String("cache", "", "engine cache directory")
	return cmd
}

func (a *App) info(cmd *cobra.Command, rawURL string) (*model.InfoResult, error) {
	log, err := a.logger()
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	if platform.IsPlaylistURL(rawURL) {
		lister := platform.NewPlaylistLister()
		if a.Playlists != nil {
			lister = platform.NewPlaylistListerWithSource(a.Playlists)
		}
		id, entries, err := lister.List(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return &model.InfoResult{URL: rawURL, Playlist: id, Entries: entries}, nil
	}

	cacheDir, err := a.settings.GetCacheDir()
	if err != nil {
		return nil, err
	}
	engine, err := a.NewEngine(ctx, a.settings)
	if err != nil {
		return nil, err
	}
	session := download.NewSession(engine, download.Config{
		Verbose:      a.debug,
		SplitReasons: a.settings.GetSplitReasons(),
	}, log, nil)

	info, err := session.Inspect(ctx, rawURL, cacheDir)
	if err != nil {
		return nil, err
	}
	return &model.InfoResult{URL: rawURL, Info: report.StripInfo(info)}, nil
}
