// Package language normalizes the language codes found in playlists, mkvmerge
// track properties and user configuration to ISO 639-2 so the track language
// policy can compare them.
package language
