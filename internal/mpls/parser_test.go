package mpls

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testMark struct {
	kind  byte
	item  uint16
	stamp uint32
}

// buildMPLS encodes a minimal playlist with the given PlayItems (clip name,
// IN time in 45 kHz ticks) and PlayListMarks.
func buildMPLS(clips []string, in []uint32, marks []testMark) []byte {
	var playlist []byte
	playlist = binary.BigEndian.AppendUint32(playlist, 0)
	playlist = append(playlist, 0, 0)
	playlist = binary.BigEndian.AppendUint16(playlist, uint16(len(clips)))
	playlist = binary.BigEndian.AppendUint16(playlist, 0)
	for i, clip := range clips {
		item := []byte(clip)
		item = append(item, "M2TS"...)
		item = append(item, 0, 1, 0)
		item = binary.BigEndian.AppendUint32(item, in[i])
		item = binary.BigEndian.AppendUint32(item, in[i]+45000*600)
		item = append(item, make([]byte, 8)...)
		playlist = binary.BigEndian.AppendUint16(playlist, uint16(len(item)))
		playlist = append(playlist, item...)
	}
	binary.BigEndian.PutUint32(playlist, uint32(len(playlist)-4))

	var markSection []byte
	markSection = binary.BigEndian.AppendUint32(markSection, uint32(2+14*len(marks)))
	markSection = binary.BigEndian.AppendUint16(markSection, uint16(len(marks)))
	for _, m := range marks {
		markSection = append(markSection, 0, m.kind)
		markSection = binary.BigEndian.AppendUint16(markSection, m.item)
		markSection = binary.BigEndian.AppendUint32(markSection, m.stamp)
		markSection = append(markSection, 0x10, 0x11, 0, 0, 0, 0)
	}

	header := make([]byte, 40)
	copy(header, "MPLS0200")
	binary.BigEndian.PutUint32(header[8:], uint32(len(header)))
	binary.BigEndian.PutUint32(header[12:], uint32(len(header)+len(playlist)))
	out := append(header, playlist...)
	return append(out, markSection...)
}

func writeMPLS(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "BDMV", "PLAYLIST", "00005.mpls")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	return path
}

type stubRunner struct{ output string }

func (s stubRunner) Output(context.Context, string, ...string) ([]byte, error) {
	return []byte(s.output), nil
}

func TestMkvmergeParser(t *testing.T) {
	runner := stubRunner{output: `{
	  "container": {"recognized": true, "properties": {
	    "playlist": true, "playlist_chapters": 4, "playlist_duration": 600000000000,
	    "playlist_size": 1000,
	    "playlist_file": ["/s/00001.m2ts", "/s/00001.m2ts"]
	  }},
	  "tracks": [
	    {"id": 0, "type": "video", "codec": "HEVC", "properties": {}},
	    {"id": 1, "type": "audio", "codec": "DTS-HD Master Audio", "properties": {"language": "jpn"}}
	  ]
	}`}
	path := writeMPLS(t, buildMPLS(
		[]string{"00001", "00001"},
		[]uint32{90000, 90000},
		[]testMark{{kind: 1, item: 0, stamp: 90000}, {kind: 1, item: 0, stamp: 90000 + 45000*300}, {kind: 1, item: 1, stamp: 90000}},
	))
	m, err := MkvmergeParser{Runner: runner}.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !m.Compressed {
		t.Fatal("expected repeated clip list to be compressed")
	}
	if m.Duration != 5*time.Minute || m.Size != 500 {
		t.Fatalf("unexpected scaled duration/size: %v %d", m.Duration, m.Size)
	}
	if m.ChapterCount != 4 || len(m.Languages) != 2 || m.Languages[1] != "jpn" {
		t.Fatalf("unexpected playlist %+v", m)
	}
	if !m.HasLanguages() {
		t.Fatal("expected language metadata")
	}
	want := []Chapter{{Clip: 0, Offset: 0}, {Clip: 0, Offset: 5 * time.Minute}}
	if len(m.Chapters) != len(want) || m.Chapters[0] != want[0] || m.Chapters[1] != want[1] {
		t.Fatalf("expected repeated marks folded onto the unique clip, got %+v", m.Chapters)
	}
}

func TestReadChaptersPerClip(t *testing.T) {
	path := writeMPLS(t, buildMPLS(
		[]string{"00001", "00002"},
		[]uint32{0, 45000 * 10},
		[]testMark{
			{kind: 1, item: 0, stamp: 0},
			{kind: 1, item: 0, stamp: 45000 * 90},
			{kind: 2, item: 0, stamp: 45000 * 100},
			{kind: 1, item: 1, stamp: 45000 * 10},
			{kind: 1, item: 1, stamp: 45000*70 + 22500},
		},
	))
	chapters, err := ReadChapters(path, []string{"/s/00001.m2ts", "/s/00002.m2ts"})
	if err != nil {
		t.Fatalf("ReadChapters: %v", err)
	}
	want := []Chapter{
		{Clip: 0, Offset: 0},
		{Clip: 0, Offset: 90 * time.Second},
		{Clip: 1, Offset: 0},
		{Clip: 1, Offset: time.Minute + 500*time.Millisecond},
	}
	if len(chapters) != len(want) {
		t.Fatalf("expected %d chapters, got %+v", len(want), chapters)
	}
	for i := range want {
		if chapters[i] != want[i] {
			t.Fatalf("chapter %d = %+v, want %+v", i, chapters[i], want[i])
		}
	}
}

func TestReadChaptersRejectsTruncatedPlaylist(t *testing.T) {
	data := buildMPLS([]string{"00001"}, []uint32{0}, []testMark{{kind: 1}})
	path := writeMPLS(t, data[:len(data)-8])
	if _, err := ReadChapters(path, []string{"/s/00001.m2ts"}); err == nil {
		t.Fatal("expected error for truncated mark section")
	}
	if _, err := ReadChapters(writeMPLS(t, []byte("MPLS")), nil); err == nil {
		t.Fatal("expected error for short header")
	}
}

func TestMkvmergeParserRejectsEmptyClipList(t *testing.T) {
	runner := stubRunner{output: `{"container": {"recognized": true, "properties": {"playlist": true}}, "tracks": []}`}
	path := writeMPLS(t, buildMPLS(nil, nil, nil))
	if _, err := (MkvmergeParser{Runner: runner}).Parse(context.Background(), path); err == nil {
		t.Fatal("expected error for playlist without clips")
	}
}
