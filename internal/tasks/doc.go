// Package tasks turns scanned playlists into Work Units: a primary mkvmerge
// command plus, where it makes sense, a fallback pair of per-clip split
// commands and a join command.
//
// Two modes exist. Split mode muxes every clip on its own and tracks a shared
// set of remaining clips so a clip referenced by several playlists is muxed
// once. Direct mode muxes each playlist in one command, falling back to
// per-clip units for playlists without language metadata or with repeated
// clips, and emitting a single chapter-split command when the configured
// split sizes partition the chapter count exactly.
package tasks
