package download

// Package download drives the external extraction engine (yt-dlp via
// github.com/lrstanley/go-ytdlp) for one batch of URLs. It builds the preset
// options, intercepts per-item finalization and progress events, and maps
// engine failures onto the network/system/unknown taxonomy.
