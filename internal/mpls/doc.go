// Package mpls models Blu-ray playlists and their clips, and resolves which
// playlists of a disc are distinct titles.
//
// Playlist parsing is delegated to a Parser; the default implementation reads
// `mkvmerge -J` output. The scanner folds duplicate playlists, drops
// multi-clip playlists fully covered by single-clip ones and sorts the
// survivors by file name.
package mpls
