// Package logging assembles structured slog loggers and formatting helpers used
// across bdremux.
//
// It owns the configurable console/JSON handlers, rotates file output through
// lumberjack, and exposes context-aware helpers so pipeline code can tag log
// lines with input paths, stages and playlists. Every record of a run carries
// the run's session id. The package also provides a no-op logger for tests.
package logging
