// Package cli implements the yt-archiver command line: download, info,
// verify and version.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ytget/yt-archiver/internal/config"
	"github.com/ytget/yt-archiver/internal/download"
	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/platform"
	"github.com/ytget/yt-archiver/internal/report"
)

// ExitCodeSuccess is returned when every command step succeeded
const ExitCodeSuccess = 0

// errReported marks a failure whose payload was already written
var errReported = errors.New("failure reported")

// EngineFactory builds the download engine for a command invocation
type EngineFactory func(ctx context.Context, settings *config.Settings) (download.Engine, error)

// App carries the process level collaborators of the commands
type App struct {
	Version   string
	Stdout    io.Writer
	Stderr    io.Writer
	NewEngine EngineFactory
	// NewLogger overrides logger construction, used by tests
	NewLogger func(settings *config.Settings) (logger.Logger, error)
	// Playlists lists playlist URLs for the info command
	Playlists platform.PlaylistSource

	settings *config.Settings
	cfgFile  string
	debug    bool
	log      logger.Logger
}

// NewApp creates an App writing to the process streams
func NewApp(version string) *App {
	return &App{
		Version:   version,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NewEngine: DefaultEngine,
		settings:  config.NewSettings(),
	}
}

// DefaultEngine builds the yt-dlp engine, installing yt-dlp first when configured
func DefaultEngine(ctx context.Context, settings *config.Settings) (download.Engine, error) {
	if settings.GetEngineInstall() {
		if err := download.InstallEngine(ctx); err != nil {
			return nil, err
		}
	}
	return download.NewYTDLP(download.DefaultEngineProgressInterval), nil
}

// Execute runs the command line and returns the process exit code
func (a *App) Execute(ctx context.Context, args []string) int {
	if a.settings == nil {
		a.settings = config.NewSettings()
	}
	root := a.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	if a.log != nil {
		defer a.log.Sync()
	}
	if err == nil {
		return ExitCodeSuccess
	}
	if errors.Is(err, errReported) {
		return report.ExitCodeFailure
	}
	// usage and setup failures never reached a command body
	return report.Fail(a.Stderr, a.log, err)
}

// fail writes the failure payload once and returns a marker error
func (a *App) fail(err error) error {
	report.Fail(a.Stderr, a.log, err)
	return fmt.Errorf("%w: %w", errReported, err)
}

// logger returns the invocation logger, building it on first use
func (a *App) logger() (logger.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}
	if a.debug {
		a.settings.Set(config.KeyLogLevel, "debug")
	}

	var (
		log logger.Logger
		err error
	)
	if a.NewLogger != nil {
		log, err = a.NewLogger(a.settings)
	} else {
		var path string
		path, err = a.settings.GetLogFile()
		if err == nil {
			log, err = logger.NewFile(path, a.settings.GetLogLevel())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log
	return log, nil
}
