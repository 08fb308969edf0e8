package model

import (
	"fmt"
	"strings"
)

// Preset selects a named bundle of engine options
type Preset string

const (
	// PresetAudio downloads the best audio stream and converts it to mono mp3
	PresetAudio Preset = "audio"

	// PresetVideo downloads the best video and audio streams merged into mkv
	PresetVideo Preset = "video"
)

// DefaultPreset is used when no preset is configured
const DefaultPreset = PresetVideo

// String returns the string representation of Preset
func (p Preset) String() string {
	return string(p)
}

// ParsePreset converts a user supplied value into a Preset
func ParsePreset(value string) (Preset, error) {
	switch Preset(strings.ToLower(strings.TrimSpace(value))) {
	case PresetAudio:
		return PresetAudio, nil
	case PresetVideo:
		return PresetVideo, nil
	case "":
		return DefaultPreset, nil
	default:
		return "", fmt.Errorf("unknown preset %q (expected %s or %s)", value, PresetAudio, PresetVideo)
	}
}

// Presets returns all supported presets
func Presets() []Preset {
	return []Preset{PresetAudio, PresetVideo}
}

// Request describes one pipeline invocation
type Request struct {
	URLs     []string
	Preset   Preset
	Root     string // archive root
	CacheDir string // engine cache directory, derived from Root when empty
}

// Validate checks that the request can be executed
func (r *Request) Validate() error {
	if len(r.URLs) == 0 {
		return fmt.Errorf("at least one URL is required")
	}
	for _, u := range r.URLs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("empty URL in request")
		}
	}
	if r.Root == "" {
		return fmt.Errorf("archive root is required")
	}
	if _, err := ParsePreset(string(r.Preset)); err != nil {
		return err
	}
	return nil
}
