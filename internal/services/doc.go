// Package services defines shared utilities consumed by the remux pipeline
// stages.
//
// Key responsibilities:
//   - Context helpers that stamp input paths, stage names, playlists and the
//     run session identifier for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the error kinds shown in the run summary and history.
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
