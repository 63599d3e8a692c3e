package mkvmerge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bdremux/internal/converter"
)

// Track types reported by mkvmerge.
const (
	TypeVideo     = "video"
	TypeAudio     = "audio"
	TypeSubtitles = "subtitles"
)

// Result is the decoded `mkvmerge -J` identification tree.
type Result struct {
	FileName  string    `json:"file_name"`
	Container Container `json:"container"`
	Tracks    []Track   `json:"tracks"`
	Chapters  []Chapter `json:"chapters"`
	Errors    []string  `json:"errors"`
	Warnings  []string  `json:"warnings"`
}

// Container describes the identified file. Playlist fields are only populated
// for Blu-ray MPLS files.
type Container struct {
	Recognized bool                `json:"recognized"`
	Supported  bool                `json:"supported"`
	Type       string              `json:"type"`
	Properties ContainerProperties `json:"properties"`
}

// ContainerProperties holds the container level properties used by the scanner.
type ContainerProperties struct {
	Playlist         bool     `json:"playlist"`
	PlaylistChapters int      `json:"playlist_chapters"`
	PlaylistDuration int64    `json:"playlist_duration"`
	PlaylistFiles    []string `json:"playlist_file"`
	PlaylistSize     int64    `json:"playlist_size"`
	Duration         int64    `json:"duration"`
}

// Chapter summarizes one chapter edition.
type Chapter struct {
	NumEntries int `json:"num_entries"`
}

// Track is one physical track of a container.
type Track struct {
	ID         int        `json:"id"`
	Type       string     `json:"type"`
	Codec      string     `json:"codec"`
	Properties Properties `json:"properties"`
}

// Properties are the per-track properties mkvmerge reports.
type Properties struct {
	CodecID        string `json:"codec_id"`
	Language       string `json:"language"`
	LanguageIETF   string `json:"language_ietf"`
	TrackName      string `json:"track_name"`
	Channels       int    `json:"audio_channels"`
	BitsPerSample  int    `json:"audio_bits_per_sample"`
	SamplingFreq   int    `json:"audio_sampling_frequency"`
	EnabledTrack   *bool  `json:"enabled_track"`
	DefaultTrack   bool   `json:"default_track"`
	ForcedTrack    bool   `json:"forced_track"`
	Commentary     bool   `json:"flag_commentary"`
	HearingImpair  bool   `json:"flag_hearing_impaired"`
	VisualImpair   bool   `json:"flag_visual_impaired"`
	Original       bool   `json:"flag_original"`
	NumberOfFrames string `json:"tag_number_of_frames"`
	PixelDims      string `json:"pixel_dimensions"`
}

// Enabled reports the enabled flag, which defaults to true when absent.
func (t Track) Enabled() bool {
	return t.Properties.EnabledTrack == nil || *t.Properties.EnabledTrack
}

// Language returns the ISO 639-2 language, "und" when unset.
func (t Track) Language() string {
	lang := strings.TrimSpace(t.Properties.Language)
	if lang == "" {
		return "und"
	}
	return lang
}

// PlaylistDuration returns the declared playlist duration.
func (r Result) PlaylistDuration() time.Duration {
	return time.Duration(r.Container.Properties.PlaylistDuration)
}

// ChapterCount returns the playlist chapter count, falling back to the first
// chapter edition for non-playlist containers.
func (r Result) ChapterCount() int {
	if r.Container.Properties.PlaylistChapters > 0 {
		return r.Container.Properties.PlaylistChapters
	}
	if len(r.Chapters) > 0 {
		return r.Chapters[0].NumEntries
	}
	return 0
}

// Languages returns the language of every track in order.
func (r Result) Languages() []string {
	langs := make([]string, 0, len(r.Tracks))
	for _, t := range r.Tracks {
		langs = append(langs, t.Language())
	}
	return langs
}

// Identify runs `mkvmerge -J path` through runner and decodes the result.
func Identify(ctx context.Context, runner converter.Runner, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "mkvmerge"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("mkvmerge identify: empty path")
	}
	if runner == nil {
		runner = converter.ExecRunner{}
	}

	output, err := runner.Output(ctx, binary, "-J", path)
	if err != nil && len(output) == 0 {
		return Result{}, fmt.Errorf("mkvmerge identify: %w", err)
	}

	var result Result
	if jsonErr := json.Unmarshal(output, &result); jsonErr != nil {
		if err != nil {
			return Result{}, fmt.Errorf("mkvmerge identify: %w", err)
		}
		return Result{}, fmt.Errorf("mkvmerge parse: %w", jsonErr)
	}
	if !result.Container.Recognized {
		msg := "container not recognized"
		if len(result.Errors) > 0 {
			msg = strings.Join(result.Errors, "; ")
		}
		return Result{}, fmt.Errorf("mkvmerge identify %s: %s", path, msg)
	}
	return result, nil
}
