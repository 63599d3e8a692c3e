package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"bdremux/internal/config"
	"bdremux/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.TempDir = t.TempDir()
	cfg.Tools.Mkvmerge = "definitely-missing-mkvmerge"

	results := RunAll(&cfg)
	failed := Failed(results)
	found := false
	for _, r := range failed {
		if r.Name == "mkvmerge" {
			found = true
		}
		if r.Name == "Output directory" || r.Name == "Temp directory" {
			t.Fatalf("unexpected directory failure: %+v", r)
		}
	}
	if !found {
		t.Fatalf("expected mkvmerge among failed checks, got %+v", failed)
	}
}

func TestFromStatusOptional(t *testing.T) {
	r := FromStatus(deps.Status{Name: "opusenc", Optional: true, Detail: "binary \"opusenc\" not found"})
	if r.Required || r.Passed {
		t.Fatalf("unexpected result %+v", r)
	}
	if len(Failed([]Result{r})) != 0 {
		t.Fatal("optional failures must not block a run")
	}
}
