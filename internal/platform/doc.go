package platform

// Package platform contains OS integration and external tooling glue:
// filesystem helpers used by the workspace and archive layers, and playlist
// listing through the native ytdlp client.
