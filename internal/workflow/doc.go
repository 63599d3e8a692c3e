// Package workflow drives top-level inputs through the remux pipeline.
//
// The Manager classifies each input (disc root, BDMV directory, single
// playlist or loose container), gives it a temp directory, scans and builds
// Work Units for disc inputs, runs them through the execution engine, then
// decides, deduplicates, converts and final-muxes every produced container.
// Per-input failures become outcomes in the run Summary; only structural
// errors (temp directory creation, termination) abort the run.
//
// Outcomes are written to the history store when one is configured.
package workflow
