package model

// Package model defines domain data structures shared across the archiver:
// requests, resolved items, archive records, progress snapshots and the error
// taxonomy reported to supervising processes.
