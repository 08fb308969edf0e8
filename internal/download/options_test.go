package download

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ytget/yt-archiver/internal/model"
)

func argValue(args []string, flag string) (string, bool) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestPresetOptions_Audio(t *testing.T) {
	args := PresetOptions(model.PresetAudio, false).Args()

	format, _ := argValue(args, "--format")
	assert.Equal(t, "bestaudio/best", format)
	assert.True(t, hasFlag(args, "--extract-audio"))
	codec, _ := argValue(args, "--audio-format")
	assert.Equal(t, "mp3", codec)
	quality, _ := argValue(args, "--audio-quality")
	assert.Equal(t, "64K", quality)
	pp, _ := argValue(args, "--postprocessor-args")
	assert.Equal(t, "ExtractAudio:-ac 1", pp)
	assert.True(t, hasFlag(args, "--no-post-overwrites"))
	assert.False(t, hasFlag(args, "--merge-output-format"))
}

func TestPresetOptions_Video(t *testing.T) {
	args := PresetOptions(model.PresetVideo, false).Args()

	format, _ := argValue(args, "--format")
	assert.Equal(t, "bestvideo+bestaudio/best", format)
	container, _ := argValue(args, "--merge-output-format")
	assert.Equal(t, "mkv", container)
	assert.False(t, hasFlag(args, "--extract-audio"))
}

func TestPresetOptions_Common(t *testing.T) {
	for _, preset := range model.Presets() {
		t.Run(preset.String(), func(t *testing.T) {
			args := PresetOptions(preset, false).Args()

			assert.True(t, hasFlag(args, "--quiet"))
			assert.True(t, hasFlag(args, "--abort-on-error"))
			assert.True(t, hasFlag(args, "--write-all-thumbnails"))
			assert.True(t, hasFlag(args, "--write-subs"))
			assert.True(t, hasFlag(args, "--write-info-json"))
			langs, _ := argValue(args, "--sub-langs")
			assert.Equal(t, "all", langs)
			xff, _ := argValue(args, "--xff")
			assert.Equal(t, "default", xff)
			filter, _ := argValue(args, "--match-filter")
			assert.Equal(t, "!is_live", filter)
			assert.False(t, hasFlag(args, "--verbose"))
		})
	}

	assert.True(t, hasFlag(PresetOptions(model.PresetVideo, true).Args(), "--verbose"))
}

func TestOptions_PathsAndTemplate(t *testing.T) {
	opts := PresetOptions(model.PresetVideo, false)
	opts.OutputTemplate = "/srv/.tmp/dl_x/%(upload_date)s_%(id)s/%(id)s.%(ext)s"
	opts.CacheDir = "/srv/.tmp/ydl_cache"
	args := opts.Args()

	out, _ := argValue(args, "--output")
	assert.Equal(t, opts.OutputTemplate, out)
	cache, _ := argValue(args, "--cache-dir")
	assert.Equal(t, opts.CacheDir, cache)
}

func TestOptions_WithFFmpegProgress(t *testing.T) {
	audio := PresetOptions(model.PresetAudio, false).WithFFmpegProgress("/var/log/run one-ffmpeg.log")

	var pps []string
	args := audio.Args()
	for i, a := range args {
		if a == "--postprocessor-args" {
			pps = append(pps, args[i+1])
		}
	}
	assert.Equal(t, []string{
		`ExtractAudio:-ac 1 -progress "file:/var/log/run one-ffmpeg.log"`,
		`ffmpeg:-progress "file:/var/log/run one-ffmpeg.log"`,
	}, pps)

	// original options are not mutated
	base := PresetOptions(model.PresetAudio, false)
	assert.Equal(t, []string{"-ac", "1"}, base.PostprocessorArgs[ExtractAudioPP])

	unchanged := base.WithFFmpegProgress("")
	assert.Len(t, unchanged.PostprocessorArgs, 1)
}

func TestCommonOptions(t *testing.T) {
	args := CommonOptions(false).Args()
	assert.False(t, hasFlag(args, "--write-info-json"))
	assert.False(t, strings.Contains(strings.Join(args, " "), "--format"))
}
