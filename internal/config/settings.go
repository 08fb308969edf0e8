package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ytget/yt-archiver/internal/model"
	"github.com/ytget/yt-archiver/internal/pipeline"
	"github.com/ytget/yt-archiver/internal/platform"
)

// Settings keys
const (
	KeyArchiveRoot      = "archive.root"
	KeyCacheDir         = "archive.cache_dir"
	KeyPackage          = "archive.package"
	KeyEphemeral        = "archive.ephemeral"
	KeyTempRoot         = "archive.temp_root"
	KeyPreset           = "download.preset"
	KeyVerbose          = "download.verbose"
	KeySplitReasons     = "download.split_reasons"
	KeyProgressInterval = "download.progress_interval"
	KeyEngineInstall    = "engine.install"
	KeyLogFile          = "log.file"
	KeyLogLevel         = "log.level"
	KeyCatalogPath      = "catalog.path"
	KeyMetricsFile      = "metrics.file"
)

// Default values
const (
	DefaultPackage          = string(pipeline.PackagingZip)
	DefaultPreset           = string(model.DefaultPreset)
	DefaultSplitReasons     = true
	DefaultProgressInterval = time.Second
	DefaultLogLevel         = "info"

	// EnvPrefix prefixes every environment override, e.g. YTA_ARCHIVE_ROOT
	EnvPrefix = "YTA"
	// ConfigName is searched in the working directory and ~/.config/yt-archiver
	ConfigName = "yt-archiver"
)

// FFmpegLogSuffix names the ffmpeg progress file written next to the log file
const FFmpegLogSuffix = "-ffmpeg.log"

// Settings manages application configuration
type Settings struct {
	v *viper.Viper
}

// NewSettings creates a settings manager with defaults and environment overrides
func NewSettings() *Settings {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyArchiveRoot, "")
	v.SetDefault(KeyCacheDir, "")
	v.SetDefault(KeyPackage, DefaultPackage)
	v.SetDefault(KeyEphemeral, false)
	v.SetDefault(KeyTempRoot, "")
	v.SetDefault(KeyPreset, DefaultPreset)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeySplitReasons, DefaultSplitReasons)
	v.SetDefault(KeyProgressInterval, DefaultProgressInterval)
	v.SetDefault(KeyEngineInstall, false)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyCatalogPath, "")
	v.SetDefault(KeyMetricsFile, "")

	return &Settings{v: v}
}

// Load reads .env and the optional config file. An explicit configFile must
// exist; otherwise a missing file is fine.
func (s *Settings) Load(configFile string) error {
	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if configFile != "" {
		path, err := platform.ExpandPath(configFile)
		if err != nil {
			return err
		}
		s.v.SetConfigFile(path)
	} else {
		s.v.SetConfigName(ConfigName)
		s.v.SetConfigType("yaml")
		s.v.AddConfigPath(".")
		s.v.AddConfigPath("$HOME/.config/" + ConfigName)
	}

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// BindFlag makes flag override key when it was set on the command line
func (s *Settings) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind to %s", key)
	}
	if err := s.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
	}
	return nil
}

// Set overrides key for the rest of the process
func (s *Settings) Set(key string, value any) {
	s.v.Set(key, value)
}

// ConfigFileUsed returns the config file that was read, if any
func (s *Settings) ConfigFileUsed() string {
	return s.v.ConfigFileUsed()
}

// GetArchiveRoot returns the expanded archive root
func (s *Settings) GetArchiveRoot() (string, error) {
	root := s.v.GetString(KeyArchiveRoot)
	if root == "" {
		return "", fmt.Errorf("archive root is not configured (--root or %s_ARCHIVE_ROOT)", EnvPrefix)
	}
	return platform.ExpandPath(root)
}

// GetCacheDir returns the expanded engine cache directory, empty for the default
func (s *Settings) GetCacheDir() (string, error) {
	return s.expandOptional(KeyCacheDir)
}

// GetPackaging returns the configured packaging mode
func (s *Settings) GetPackaging() (pipeline.Packaging, error) {
	return pipeline.ParsePackaging(s.v.GetString(KeyPackage))
}

// GetPreset returns the configured preset
func (s *Settings) GetPreset() (model.Preset, error) {
	return model.ParsePreset(s.v.GetString(KeyPreset))
}

// GetProgressInterval returns the progress throttle interval
func (s *Settings) GetProgressInterval() time.Duration {
	d := s.v.GetDuration(KeyProgressInterval)
	if d < 0 {
		return DefaultProgressInterval
	}
	return d
}

// GetEngineInstall returns whether yt-dlp is downloaded when missing
func (s *Settings) GetEngineInstall() bool {
	return s.v.GetBool(KeyEngineInstall)
}

// GetLogFile returns the expanded log file path, empty for stderr
func (s *Settings) GetLogFile() (string, error) {
	return s.expandOptional(KeyLogFile)
}

// GetLogLevel returns the log level
func (s *Settings) GetLogLevel() string {
	return s.v.GetString(KeyLogLevel)
}

// GetCatalogPath returns the expanded catalog database path, empty when disabled
func (s *Settings) GetCatalogPath() (string, error) {
	return s.expandOptional(KeyCatalogPath)
}

// GetMetricsFile returns the expanded metrics textfile path, empty when disabled
func (s *Settings) GetMetricsFile() (string, error) {
	return s.expandOptional(KeyMetricsFile)
}

// GetSplitReasons returns whether network and system faults are distinguished
func (s *Settings) GetSplitReasons() bool {
	return s.v.GetBool(KeySplitReasons)
}

// PipelineConfig assembles the pipeline configuration
func (s *Settings) PipelineConfig() (pipeline.Config, error) {
	packaging, err := s.GetPackaging()
	if err != nil {
		return pipeline.Config{}, err
	}
	tempRoot, err := s.expandOptional(KeyTempRoot)
	if err != nil {
		return pipeline.Config{}, err
	}
	logFile, err := s.GetLogFile()
	if err != nil {
		return pipeline.Config{}, err
	}

	cfg := pipeline.Config{
		Packaging:        packaging,
		Ephemeral:        s.v.GetBool(KeyEphemeral),
		TempRoot:         tempRoot,
		Verbose:          s.v.GetBool(KeyVerbose),
		SplitReasons:     s.GetSplitReasons(),
		ProgressInterval: s.GetProgressInterval(),
	}
	if logFile != "" {
		cfg.FFmpegProgressFile = FFmpegProgressFile(logFile)
	}
	return cfg, nil
}

// FFmpegProgressFile derives the ffmpeg progress file from the log file path
func FFmpegProgressFile(logFile string) string {
	return strings.TrimSuffix(logFile, ".log") + FFmpegLogSuffix
}

func (s *Settings) expandOptional(key string) (string, error) {
	value := s.v.GetString(key)
	if value == "" {
		return "", nil
	}
	return platform.ExpandPath(value)
}
