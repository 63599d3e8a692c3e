// Package mkvmerge decodes `mkvmerge -J` identification output for playlists
// and containers.
package mkvmerge
