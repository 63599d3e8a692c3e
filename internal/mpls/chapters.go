package mpls

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteClipChapters writes an OGM chapter file for the clip at position index
// (0-based) of m's unique clip list into dir. It returns an empty path when the clip
// has no marks.
func WriteClipChapters(m Mpls, index int, dir string) (string, error) {
	marks := m.ChaptersForClip(index)
	if len(marks) == 0 {
		return "", nil
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.chapters.txt", m.Stem(), index+1))
	if err := os.WriteFile(path, []byte(formatOGM(marks)), 0o644); err != nil {
		return "", fmt.Errorf("write chapters: %w", err)
	}
	return path, nil
}

func formatOGM(marks []Chapter) string {
	var b strings.Builder
	for i, mark := range marks {
		n := i + 1
		fmt.Fprintf(&b, "CHAPTER%02d=%s\n", n, formatTimestamp(mark.Offset))
		fmt.Fprintf(&b, "CHAPTER%02dNAME=Chapter %02d\n", n, n)
	}
	return b.String()
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, d/time.Millisecond)
}
