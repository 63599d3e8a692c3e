// Package staging owns the temp root: one directory per top-level input,
// removed according to the keep policy, plus startup cleanup of stale
// directories left by interrupted runs. The temp root is locked for the
// duration of a run so two runs never share it.
package staging
