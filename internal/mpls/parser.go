package mpls

import (
	"context"
	"errors"
	"time"

	"bdremux/internal/converter"
	"bdremux/internal/media/mkvmerge"
)

// Parser turns one playlist file into an Mpls.
type Parser interface {
	Parse(ctx context.Context, path string) (Mpls, error)
}

// MkvmergeParser reads playlists through `mkvmerge -J`, which reports the clip
// list, declared duration and size, chapter count and stream languages. Mark
// timestamps are not part of that output, so Chapters is read from the
// playlist's PlayListMark section.
type MkvmergeParser struct {
	Binary string
	Runner converter.Runner
}

// Parse identifies path and converts the playlist properties.
func (p MkvmergeParser) Parse(ctx context.Context, path string) (Mpls, error) {
	result, err := mkvmerge.Identify(ctx, p.Runner, p.Binary, path)
	if err != nil {
		return Mpls{}, err
	}
	props := result.Container.Properties
	if len(props.PlaylistFiles) == 0 {
		return Mpls{}, errors.New("playlist references no clips")
	}
	m := Mpls{
		Path:         path,
		Clips:        append([]string(nil), props.PlaylistFiles...),
		Duration:     result.PlaylistDuration(),
		Size:         props.PlaylistSize,
		Languages:    result.Languages(),
		ChapterCount: result.ChapterCount(),
	}
	chapters, err := ReadChapters(path, m.Clips)
	if err != nil {
		return Mpls{}, err
	}
	m.Chapters = chapters
	if m.ChapterCount == 0 {
		m.ChapterCount = len(chapters)
	}
	normalizeRepeats(&m)
	return m, nil
}

// normalizeRepeats flags playlists that loop the same clips and scales their
// declared duration and size down to a single pass.
func normalizeRepeats(m *Mpls) {
	unique := len(m.UniqueClips())
	if unique == 0 || unique == len(m.Clips) {
		return
	}
	m.Compressed = true
	m.Duration = time.Duration(int64(m.Duration) * int64(unique) / int64(len(m.Clips)))
	m.Size = m.Size * int64(unique) / int64(len(m.Clips))
}
