package mpls

import (
	"cmp"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Chapter is one playlist mark, located by the position of its clip in
// UniqueClips and its offset from the start of that clip.
type Chapter struct {
	Clip   int
	Offset time.Duration
}

// Mpls is one parsed Blu-ray playlist. Identity is the file path, but equality
// and ordering are defined over (duration, size, clips, languages).
type Mpls struct {
	Path string
	// Clips lists the referenced stream files in playback order.
	Clips        []string
	Duration     time.Duration
	Size         int64
	Languages    []string
	ChapterCount int
	// Chapters holds chapter marks when the parser can supply them.
	Chapters []Chapter
	// Compressed is set when the clip list repeats clips; Duration and Size
	// are then already divided by the repeat factor.
	Compressed bool
}

// Clip is one stream file of a playlist. Playlist is the owning playlist's
// path, used as a lookup key.
type Clip struct {
	Playlist  string
	Path      string
	Languages []string
	// ChapterFile is an OGM chapter file for this clip, empty when none.
	ChapterFile string
	// Index is the 1-based position in a multi-clip playlist, 0 otherwise.
	Index int
}

// Name returns the playlist file name, used for display ordering.
func (m Mpls) Name() string {
	return filepath.Base(m.Path)
}

// Stem returns the playlist file name without extension.
func (m Mpls) Stem() string {
	return strings.TrimSuffix(m.Name(), filepath.Ext(m.Path))
}

// SingleClip reports whether the playlist references exactly one clip.
func (m Mpls) SingleClip() bool {
	return len(m.Clips) == 1
}

// HasLanguages reports whether any stream carries language metadata.
func (m Mpls) HasLanguages() bool {
	for _, lang := range m.Languages {
		if lang != "" && lang != "und" {
			return true
		}
	}
	return false
}

// UniqueClips returns the clip list with repeats removed, in first-seen order.
func (m Mpls) UniqueClips() []string {
	seen := make(map[string]struct{}, len(m.Clips))
	out := make([]string, 0, len(m.Clips))
	for _, c := range m.Clips {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Key identifies duplicate playlists.
func (m Mpls) Key() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(int64(m.Duration), 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(m.Size, 10))
	b.WriteByte('|')
	b.WriteString(strings.Join(m.Clips, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(m.Languages, ","))
	return b.String()
}

// Equal reports whether two playlists describe the same title.
func (m Mpls) Equal(other Mpls) bool {
	return m.Key() == other.Key()
}

// Compare orders playlists by duration, size, clips and languages.
func Compare(a, b Mpls) int {
	if c := cmp.Compare(a.Duration, b.Duration); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Size, b.Size); c != 0 {
		return c
	}
	if c := slices.Compare(a.Clips, b.Clips); c != 0 {
		return c
	}
	return slices.Compare(a.Languages, b.Languages)
}

// ClipsOf expands a playlist into its unique clips. Multi-clip playlists number
// their clips from 1. Chapter files are attached by the caller.
func ClipsOf(m Mpls) []Clip {
	unique := m.UniqueClips()
	clips := make([]Clip, 0, len(unique))
	for i, path := range unique {
		clip := Clip{
			Playlist:  m.Path,
			Path:      path,
			Languages: append([]string(nil), m.Languages...),
		}
		if len(unique) > 1 {
			clip.Index = i + 1
		}
		clips = append(clips, clip)
	}
	return clips
}

// ChaptersForClip returns the marks that fall in the clip at position index
// (0-based) of the clip list.
func (m Mpls) ChaptersForClip(index int) []Chapter {
	var out []Chapter
	for _, ch := range m.Chapters {
		if ch.Clip == index {
			out = append(out, ch)
		}
	}
	return out
}
