package logger

// Package logger provides the structured logger handed down to every pipeline
// component and the progress sink that emits marker-tagged progress lines for
// a supervising process.
