// Package tracks decides what happens to every track of a muxed container.
//
// Decide walks the mkvmerge track list once, in index order, and returns one
// Modification per track: Copy, Replace (with files produced by an audio or
// video job) or Remove (with a reason). Language filtering, subtitle pruning,
// the TrueHD/AC-3 and TrueHD/DTS-HD coupling rules and lossless re-encoding
// all happen here. The package also builds the ffmpeg, flac and opusenc
// commands for the jobs it schedules and the final mkvmerge command that
// assembles the result.
package tracks
