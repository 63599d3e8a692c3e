package mkvmerge

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubRunner struct {
	output []byte
	err    error
	args   []string
}

func (s *stubRunner) Output(_ context.Context, program string, args ...string) ([]byte, error) {
	s.args = append([]string{program}, args...)
	return s.output, s.err
}

const playlistJSON = `{
  "container": {
    "recognized": true,
    "supported": true,
    "type": "Blu-ray playlist",
    "properties": {
      "playlist": true,
      "playlist_chapters": 12,
      "playlist_duration": 5400000000000,
      "playlist_file": ["/disc/BDMV/STREAM/00001.m2ts", "/disc/BDMV/STREAM/00002.m2ts"],
      "playlist_size": 30000000000
    }
  },
  "file_name": "/disc/BDMV/PLAYLIST/00800.mpls",
  "tracks": [
    {"id": 0, "type": "video", "codec": "AVC/H.264/MPEG-4p10", "properties": {"language": "und"}},
    {"id": 1, "type": "audio", "codec": "TrueHD Atmos", "properties": {"language": "eng", "audio_channels": 8}},
    {"id": 2, "type": "audio", "codec": "AC-3", "properties": {"language": "eng", "audio_channels": 6, "enabled_track": false}},
    {"id": 3, "type": "subtitles", "codec": "HDMV PGS", "properties": {}}
  ]
}`

func TestIdentifyPlaylist(t *testing.T) {
	runner := &stubRunner{output: []byte(playlistJSON)}
	result, err := Identify(context.Background(), runner, "", "/disc/BDMV/PLAYLIST/00800.mpls")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if runner.args[0] != "mkvmerge" || runner.args[1] != "-J" {
		t.Fatalf("unexpected invocation %v", runner.args)
	}
	if result.ChapterCount() != 12 {
		t.Fatalf("expected 12 chapters, got %d", result.ChapterCount())
	}
	if result.PlaylistDuration() != 90*time.Minute {
		t.Fatalf("unexpected duration %v", result.PlaylistDuration())
	}
	if len(result.Container.Properties.PlaylistFiles) != 2 {
		t.Fatalf("expected 2 clips, got %v", result.Container.Properties.PlaylistFiles)
	}
	langs := result.Languages()
	if len(langs) != 4 || langs[1] != "eng" || langs[3] != "und" {
		t.Fatalf("unexpected languages %v", langs)
	}
	if !result.Tracks[1].Enabled() || result.Tracks[2].Enabled() {
		t.Fatal("unexpected enabled flags")
	}
}

func TestIdentifyUnrecognized(t *testing.T) {
	runner := &stubRunner{output: []byte(`{"container":{"recognized":false},"errors":["unknown format"]}`)}
	_, err := Identify(context.Background(), runner, "mkvmerge", "/x.bin")
	if err == nil {
		t.Fatal("expected error for unrecognized container")
	}
}

func TestIdentifyRunnerFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("exit status 2")}
	if _, err := Identify(context.Background(), runner, "mkvmerge", "/x.mkv"); err == nil {
		t.Fatal("expected runner error")
	}
}

func TestIdentifyEmptyPath(t *testing.T) {
	if _, err := Identify(context.Background(), &stubRunner{}, "mkvmerge", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
