package tasks

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"bdremux/internal/converter"
	"bdremux/internal/logging"
	"bdremux/internal/mpls"
	"bdremux/internal/services"
)

// Options configures a Builder.
type Options struct {
	Mkvmerge string
	// TempDir receives mux outputs and chapter files.
	TempDir      string
	Mode         Mode
	ChapterSplit []int
}

// Builder constructs Work Units for scanned playlists.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder returns a builder writing into opts.TempDir.
func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if strings.TrimSpace(opts.Mkvmerge) == "" {
		opts.Mkvmerge = "mkvmerge"
	}
	if opts.Mode == "" {
		opts.Mode = ModeDirect
	}
	return &Builder{opts: opts, logger: logging.NewComponentLogger(logger, "tasks")}
}

// Build returns the Work Units for playlists in order. Chapter files are
// written to the temp directory as a side effect.
func (b *Builder) Build(playlists []mpls.Mpls) ([]WorkUnit, error) {
	var units []WorkUnit
	switch b.opts.Mode {
	case ModeSplit:
		remaining := make(map[string]struct{})
		for _, m := range playlists {
			for _, clip := range m.UniqueClips() {
				remaining[clip] = struct{}{}
			}
		}
		for _, m := range playlists {
			clipUnits, err := b.clipUnits(m, remaining, false)
			if err != nil {
				return nil, err
			}
			units = append(units, clipUnits...)
		}
	default:
		for _, m := range playlists {
			playlistUnits, err := b.directUnits(m)
			if err != nil {
				return nil, err
			}
			units = append(units, playlistUnits...)
		}
	}
	return units, nil
}

func (b *Builder) directUnits(m mpls.Mpls) ([]WorkUnit, error) {
	if !m.HasLanguages() || m.Compressed {
		b.logger.Info("playlist muxed per clip",
			logging.String(logging.FieldPlaylist, m.Name()),
			logging.Bool("has_languages", m.HasLanguages()),
			logging.Bool("compressed", m.Compressed),
			logging.String(logging.FieldDecisionType, "per_clip_fallback"),
		)
		return b.clipUnits(m, nil, true)
	}

	if points := SplitPoints(b.opts.ChapterSplit, m.ChapterCount); len(points) > 0 {
		return []WorkUnit{b.chapterSplitUnit(m, points)}, nil
	}
	if len(b.opts.ChapterSplit) > 0 {
		b.logger.Info("chapter split sizes do not match playlist",
			logging.String(logging.FieldPlaylist, m.Name()),
			logging.Int("chapters", m.ChapterCount),
			logging.Any("sizes", b.opts.ChapterSplit),
		)
	}

	clips := mpls.ClipsOf(m)
	output := filepath.Join(b.opts.TempDir, m.Stem()+".mkv")
	args := []string{"-o", output}
	args = append(args, languageArgs(m.Languages)...)
	if m.ChapterCount > 0 {
		args = append(args, "--chapters", m.Path)
	}
	args = append(args, joinInputs(clipPaths(clips))...)
	unit := WorkUnit{
		Input:    m.Path,
		Playlist: m.Path,
		Main: converter.New("mux", b.opts.Mkvmerge, args...).
			WithInputs(clipPaths(clips)...).
			WithOutputs(output),
	}
	if len(clips) < 2 {
		return []WorkUnit{unit}, nil
	}

	hasMarks := len(m.Chapters) > 0
	parts := make([]string, 0, len(clips))
	for i, clip := range clips {
		part := filepath.Join(b.opts.TempDir, fmt.Sprintf("%s_part%d.mkv", m.Stem(), i+1))
		split, err := b.clipCommand("split", m, clip, i, part)
		if err != nil {
			return nil, err
		}
		unit.Splits = append(unit.Splits, split)
		parts = append(parts, part)
	}
	joinArgs := []string{"-o", output}
	if !hasMarks && m.ChapterCount > 0 {
		joinArgs = append(joinArgs, "--chapters", m.Path)
	}
	joinArgs = append(joinArgs, joinInputs(parts)...)
	unit.Join = converter.New("join", b.opts.Mkvmerge, joinArgs...).
		WithInputs(parts...).
		WithOutputs(output)
	return []WorkUnit{unit}, nil
}

func (b *Builder) chapterSplitUnit(m mpls.Mpls, points []int) WorkUnit {
	output := filepath.Join(b.opts.TempDir, m.Stem()+".mkv")
	chapters := make([]string, len(points))
	for i, p := range points {
		chapters[i] = strconv.Itoa(p)
	}
	args := []string{"-o", output, "--split", "chapters:" + strings.Join(chapters, ",")}
	args = append(args, m.Path)
	b.logger.Info("playlist split by chapters",
		logging.String(logging.FieldPlaylist, m.Name()),
		logging.Any("split_points", points),
		logging.String(logging.FieldDecisionType, "chapter_split"),
	)
	return WorkUnit{
		Input:        m.Path,
		Playlist:     m.Path,
		ChapterSplit: true,
		Main: converter.New("mux", b.opts.Mkvmerge, args...).
			WithInputs(m.Path).
			WithOutputs(output),
	}
}

// clipUnits emits one unit per clip of m. A non-nil remaining set is shared
// across playlists; clips no longer in it are skipped.
func (b *Builder) clipUnits(m mpls.Mpls, remaining map[string]struct{}, ignorable bool) ([]WorkUnit, error) {
	clips := mpls.ClipsOf(m)
	units := make([]WorkUnit, 0, len(clips))
	for i, clip := range clips {
		if remaining != nil {
			if _, ok := remaining[clip.Path]; !ok {
				b.logger.Debug("clip already scheduled",
					logging.String(logging.FieldPlaylist, m.Name()),
					logging.String("clip", filepath.Base(clip.Path)),
				)
				continue
			}
			delete(remaining, clip.Path)
		}
		output := filepath.Join(b.opts.TempDir, clipOutputName(m, clip))
		main, err := b.clipCommand("mux", m, clip, i, output)
		if err != nil {
			return nil, err
		}
		units = append(units, WorkUnit{
			Input:     clip.Path,
			Playlist:  m.Path,
			Main:      main,
			Ignorable: ignorable,
		})
	}
	return units, nil
}

func (b *Builder) clipCommand(name string, m mpls.Mpls, clip mpls.Clip, position int, output string) (*converter.Converter, error) {
	chapterFile, err := mpls.WriteClipChapters(m, position, b.opts.TempDir)
	if err != nil {
		return nil, services.Wrap(services.ErrSubTask, "tasks", "chapters", m.Name(), err)
	}
	args := []string{"-o", output}
	args = append(args, languageArgs(clip.Languages)...)
	if chapterFile != "" {
		args = append(args, "--chapters", chapterFile)
	}
	args = append(args, clip.Path)
	return converter.New(name, b.opts.Mkvmerge, args...).
		WithInputs(clip.Path).
		WithOutputs(output), nil
}

func clipOutputName(m mpls.Mpls, clip mpls.Clip) string {
	if clip.Index == 0 {
		return m.Stem() + ".mkv"
	}
	return fmt.Sprintf("%s_%d.mkv", m.Stem(), clip.Index)
}

// languageArgs tags every stream with a known language; mkvmerge track ids
// follow the playlist stream order.
func languageArgs(languages []string) []string {
	var args []string
	for id, lang := range languages {
		if lang == "" || lang == "und" {
			continue
		}
		args = append(args, "--language", fmt.Sprintf("%d:%s", id, lang))
	}
	return args
}

// joinInputs places mkvmerge's append operator between inputs.
func joinInputs(paths []string) []string {
	out := make([]string, 0, len(paths)*2)
	for i, p := range paths {
		if i > 0 {
			out = append(out, "+")
		}
		out = append(out, p)
	}
	return out
}

func clipPaths(clips []mpls.Clip) []string {
	out := make([]string, len(clips))
	for i, c := range clips {
		out[i] = c.Path
	}
	return out
}
