package download

import (
	"sort"
	"strings"

	"github.com/ytget/yt-archiver/internal/model"
)

// Stream selection and post-processing constants
const (
	AudioFormatSelector = "bestaudio/best"
	AudioCodec          = "mp3"
	AudioQuality        = "64K"
	AudioChannelsArg    = "-ac"
	AudioChannels       = "1"
	ExtractAudioPP      = "ExtractAudio"

	VideoFormatSelector = "bestvideo+bestaudio/best"
	VideoContainer      = "mkv"

	SubtitleLanguagesAll = "all"
	LiveFilter           = "!is_live"
	GeoBypassMode        = "default"

	// FFmpegPP keys post-processor arguments applied to every ffmpeg invocation
	FFmpegPP          = "ffmpeg"
	FFmpegProgressArg = "-progress"
	FFmpegFilePrefix  = "file:"
)

// Options is the declarative option mapping handed to the engine
type Options struct {
	Quiet        bool
	NoColor      bool
	GeoBypass    bool
	Verbose      bool
	AbortOnError bool
	SkipLive     bool

	Format            string
	ExtractAudio      bool
	AudioFormat       string
	AudioQuality      string
	NoPostOverwrites  bool
	PostprocessorArgs map[string][]string // post-processor name -> ffmpeg args
	MergeOutputFormat string

	WriteAllThumbnails bool
	WriteSubs          bool
	SubLangs           string
	WriteInfoJSON      bool

	OutputTemplate string
	CacheDir       string
}

// CommonOptions returns the options shared by every engine invocation
func CommonOptions(verbose bool) Options {
	return Options{
		Quiet:        true,
		NoColor:      true,
		GeoBypass:    true,
		Verbose:      verbose,
		AbortOnError: true,
	}
}

// PresetOptions returns the download options for preset
func PresetOptions(preset model.Preset, verbose bool) Options {
	opts := CommonOptions(verbose)
	opts.SkipLive = true
	opts.WriteAllThumbnails = true
	opts.WriteSubs = true
	opts.SubLangs = SubtitleLanguagesAll
	opts.WriteInfoJSON = true

	switch preset {
	case model.PresetAudio:
		opts.Format = AudioFormatSelector
		opts.ExtractAudio = true
		opts.AudioFormat = AudioCodec
		opts.AudioQuality = AudioQuality
		opts.NoPostOverwrites = true
		opts.PostprocessorArgs = map[string][]string{
			ExtractAudioPP: {AudioChannelsArg, AudioChannels},
		}
	default:
		opts.Format = VideoFormatSelector
		opts.MergeOutputFormat = VideoContainer
	}
	return opts
}

// WithFFmpegProgress makes every ffmpeg post-processor report progress into path
func (o Options) WithFFmpegProgress(path string) Options {
	if path == "" {
		return o
	}
	extra := []string{FFmpegProgressArg, FFmpegFilePrefix + path}

	pp := make(map[string][]string, len(o.PostprocessorArgs)+1)
	for name, args := range o.PostprocessorArgs {
		pp[name] = append(append([]string(nil), args...), extra...)
	}
	if _, ok := pp[FFmpegPP]; !ok {
		pp[FFmpegPP] = extra
	}
	o.PostprocessorArgs = pp
	return o
}

// Args renders the options as yt-dlp command line flags
func (o Options) Args() []string {
	var args []string
	add := func(flag string, values ...string) {
		args = append(args, flag)
		args = append(args, values...)
	}

	if o.Quiet {
		add("--quiet")
	}
	if o.NoColor {
		add("--no-colors")
	}
	if o.GeoBypass {
		add("--xff", GeoBypassMode)
	}
	if o.Verbose {
		add("--verbose")
	}
	if o.AbortOnError {
		add("--abort-on-error")
	}
	if o.SkipLive {
		add("--match-filter", LiveFilter)
	}
	if o.Format != "" {
		add("--format", o.Format)
	}
	if o.ExtractAudio {
		add("--extract-audio")
		if o.AudioFormat != "" {
			add("--audio-format", o.AudioFormat)
		}
		if o.AudioQuality != "" {
			add("--audio-quality", o.AudioQuality)
		}
	}
	if o.NoPostOverwrites {
		add("--no-post-overwrites")
	}
	names := make([]string, 0, len(o.PostprocessorArgs))
	for name := range o.PostprocessorArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		add("--postprocessor-args", name+":"+joinShell(o.PostprocessorArgs[name]))
	}
	if o.MergeOutputFormat != "" {
		add("--merge-output-format", o.MergeOutputFormat)
	}
	if o.WriteAllThumbnails {
		add("--write-all-thumbnails")
	}
	if o.WriteSubs {
		add("--write-subs")
	}
	if o.SubLangs != "" {
		add("--sub-langs", o.SubLangs)
	}
	if o.WriteInfoJSON {
		add("--write-info-json")
	}
	if o.CacheDir != "" {
		add("--cache-dir", o.CacheDir)
	}
	if o.OutputTemplate != "" {
		add("--output", o.OutputTemplate)
	}
	return args
}

// joinShell joins args the way yt-dlp splits them back (shlex)
func joinShell(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\") {
			a = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(a) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
