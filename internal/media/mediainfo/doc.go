// Package mediainfo decodes `mediainfo --Output=JSON` for video frame rate,
// scan type, colour metadata and subtitle element counts.
package mediainfo
