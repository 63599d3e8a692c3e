package tasks

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"bdremux/internal/converter"
)

// Mode selects how playlists are muxed.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeSplit  Mode = "split"
)

// ParseMode maps a configuration value to a Mode, defaulting to direct.
func ParseMode(value string) Mode {
	if strings.EqualFold(strings.TrimSpace(value), string(ModeSplit)) {
		return ModeSplit
	}
	return ModeDirect
}

// WorkUnit is one muxing task consumed once by the execution engine.
type WorkUnit struct {
	// Input is the playlist or clip path the unit muxes.
	Input string
	// Playlist is the owning playlist path.
	Playlist string
	Main     *converter.Converter
	// ChapterSplit marks a main command whose output is split by chapters
	// into several numbered files.
	ChapterSplit bool
	Splits       []*converter.Converter
	Join         *converter.Converter
	// Ignorable marks units whose failure is not a pipeline failure.
	Ignorable bool
}

// HasFallback reports whether a split/join pair exists.
func (u WorkUnit) HasFallback() bool {
	return len(u.Splits) > 0 && u.Join != nil
}

// Name labels the unit for logs and history.
func (u WorkUnit) Name() string {
	return filepath.Base(u.Input)
}

// SplitOutputs returns the files written by the split workers, in order.
func (u WorkUnit) SplitOutputs() []string {
	var out []string
	for _, c := range u.Splits {
		out = append(out, c.Outputs...)
	}
	return out
}

// SplitPoints converts chapter split sizes into one-based chapter numbers at
// which mkvmerge starts a new file. The trailing boundary is dropped. Sizes
// that do not sum to chapters yield nil.
func SplitPoints(sizes []int, chapters int) []int {
	if len(sizes) < 2 || chapters <= 0 {
		return nil
	}
	sum := 0
	for _, size := range sizes {
		if size <= 0 {
			return nil
		}
		sum += size
	}
	if sum != chapters {
		return nil
	}
	points := make([]int, 0, len(sizes)-1)
	next := 1
	for _, size := range sizes[:len(sizes)-1] {
		next += size
		points = append(points, next)
	}
	return points
}

// ChapterSplitOutputs lists the numbered files mkvmerge wrote for a
// chapter-split command whose declared output is path.
func ChapterSplitOutputs(path string) ([]string, error) {
	ext := filepath.Ext(path)
	pattern := strings.TrimSuffix(path, ext) + "-*" + ext
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob chapter split outputs: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
