// Package main hosts the bdremux CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, wires the execution
// engine, history store and workflow manager for remux runs, and exposes the
// supporting commands: playlist scans, dependency checks, configuration
// scaffolding, run history and temp directory maintenance.
//
// Keep this package lean: behavior lives in the internal packages and is only
// surfaced here.
package main
