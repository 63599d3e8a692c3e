// Package preflight verifies, before a run starts, that the output and temp
// directories are writable and that the external tools are installed.
//
// The deps command renders every result; the remux command refuses to start
// when a required check fails.
package preflight
