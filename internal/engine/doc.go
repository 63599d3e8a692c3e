// Package engine runs external commands for the remux pipeline.
//
// Every command is checked against an allowed exit code set ({0}, or {0, 1}
// when warnings are tolerated) and its declared outputs are removed when it
// fails. RunUnit drives the Work Unit state machine: the primary mux, then on
// failure the sequential split workers and the join, with a degraded success
// when the join exits with the configured irrecoverable code. RunPool runs
// audio jobs on a bounded goroutine pool and returns once every job finished.
//
// An Engine is a session object: it tracks the running child processes, the
// active pools and the active temp directory so Terminate can stop all of
// them.
package engine
