// Package dedup collapses audio tracks whose decoded content is identical.
//
// Hashes are taken over the decoded PCM of each job's source extraction, so
// two tracks carrying the same audio are recognized regardless of container
// framing or the target codec. Within every group of equal hashes the lowest
// track index survives and the others are downgraded to a removal, which
// also deletes their temporary files.
package dedup
