package tracks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveIsIdempotent(t *testing.T) {
	m := CopyTrack(3, "audio")
	if err := m.Remove(ReasonLanguageFilter); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := m.Remove(ReasonDuplicateAudioHash); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if m.Action != ActionRemove || m.Reason != ReasonLanguageFilter {
		t.Fatalf("expected first reason to stick, got %+v", m)
	}
}

func TestRemoveDeletesReplacementFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{filepath.Join(dir, "a.flac"), filepath.Join(dir, "a_stereo.flac")}
	for _, f := range files[:1] {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	m := Modification{Action: ActionReplace, TrackID: 1, Type: "audio", Files: files}
	if err := m.Remove(ReasonDuplicateAudioHash); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(files[0]); !os.IsNotExist(err) {
		t.Fatal("expected replacement file to be deleted")
	}
	if len(m.Files) != 0 || m.Reason != ReasonDuplicateAudioHash {
		t.Fatalf("unexpected modification %+v", m)
	}
	if err := m.Remove(ReasonTrackDisabled); err != nil || m.Reason != ReasonDuplicateAudioHash {
		t.Fatalf("expected repeated remove to be a no-op, got %v %+v", err, m)
	}
}

func TestModificationString(t *testing.T) {
	if got := RemoveTrack(2, "audio", ReasonExtraDTSHD).String(); got != "2:audio remove (extraDTSHD)" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := ActionReplace.String(); got != "replace" {
		t.Fatalf("unexpected action %q", got)
	}
}

func TestRevertRestoresCopy(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.flac")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := Modification{Action: ActionReplace, TrackID: 4, Type: "audio", Files: []string{file}, Name: "FLAC 5.1"}
	if err := m.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if m.Action != ActionCopy || m.TrackID != 4 || m.Type != "audio" || m.Files != nil || m.Name != "" {
		t.Fatalf("unexpected modification %+v", m)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatal("expected replacement file to be deleted")
	}

	removed := RemoveTrack(5, "audio", ReasonLanguageFilter)
	if err := removed.Revert(); err != nil || removed.Action != ActionRemove {
		t.Fatalf("expected remove to stay, got %+v %v", removed, err)
	}
}
