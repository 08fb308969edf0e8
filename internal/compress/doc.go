package compress

// Package compress packages a per-item output directory into a single
// store-only zip archive using the external zip tool.
