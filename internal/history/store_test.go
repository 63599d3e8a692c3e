package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bdremux/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := history.Input{
		SessionID: "s1",
		Path:      "/discs/MOVIE",
		Status:    history.StatusSuccess,
		Outputs:   []string{"/out/MOVIE/00800.mkv"},
		StartedAt: base,
		Duration:  90 * time.Second,
		Units: []history.Unit{
			{Name: "00800.mpls", State: "success", Degraded: true, Outputs: []string{"a.mkv", "b.mkv"}, Duration: time.Second},
			{Name: "00801.mpls", State: "failed", Error: "mux failure"},
		},
	}
	if _, err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second := history.Input{
		SessionID: "s1",
		Path:      "/discs/OTHER",
		Status:    history.StatusFailed,
		ErrorKind: "no_playlists",
		Error:     "no playlists found",
		StartedAt: base.Add(time.Minute),
	}
	if _, err := store.Record(ctx, second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(recent))
	}
	if recent[0].Path != "/discs/OTHER" || recent[0].ErrorKind != "no_playlists" || recent[0].Outputs != nil {
		t.Fatalf("unexpected newest input %+v", recent[0])
	}
	got := recent[1]
	if got.Status != history.StatusSuccess || got.Duration != 90*time.Second || !got.StartedAt.Equal(base) {
		t.Fatalf("unexpected input %+v", got)
	}
	if len(got.Outputs) != 1 || got.Outputs[0] != "/out/MOVIE/00800.mkv" {
		t.Fatalf("unexpected outputs %v", got.Outputs)
	}
	if len(got.Units) != 2 || !got.Units[0].Degraded || len(got.Units[0].Outputs) != 2 || got.Units[1].Error != "mux failure" {
		t.Fatalf("unexpected units %+v", got.Units)
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d %v", len(limited), err)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), history.Input{SessionID: "s", Path: "/x", Status: history.StatusCanceled}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rows, err := reopened.Recent(context.Background(), 0)
	if err != nil || len(rows) != 1 || rows[0].Status != history.StatusCanceled {
		t.Fatalf("unexpected rows %+v %v", rows, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
