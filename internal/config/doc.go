package config

// Package config loads yt-archiver settings through viper: built-in defaults,
// an optional YAML file, YTA_ prefixed environment variables (including a
// .env file) and command line flags, in increasing precedence.
