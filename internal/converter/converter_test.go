package converter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConverterString(t *testing.T) {
	c := New("mux", "mkvmerge", "-o", "/tmp/out dir/x.mkv", "a.m2ts", "+", "b.m2ts", "--title", "it's")
	want := `mkvmerge -o '/tmp/out dir/x.mkv' a.m2ts + b.m2ts --title 'it'\''s'`
	if got := c.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestConverterTracksFiles(t *testing.T) {
	c := New("extract", "ffmpeg", "-i", "in.mkv").WithInputs("in.mkv").WithOutputs("a.wav", "b.wav")
	if len(c.Inputs) != 1 || c.Inputs[0] != "in.mkv" {
		t.Fatalf("unexpected inputs %v", c.Inputs)
	}
	if len(c.Outputs) != 2 {
		t.Fatalf("unexpected outputs %v", c.Outputs)
	}
}

func TestNewCopiesArgs(t *testing.T) {
	args := []string{"-J", "file"}
	c := New("identify", "mkvmerge", args...)
	args[0] = "mutated"
	if c.Args[0] != "-J" {
		t.Fatal("expected converter to own its argument slice")
	}
}

func TestExecRunnerOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tool")
	body := "#!/bin/sh\necho \"args:$*\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	out, err := ExecRunner{}.Output(context.Background(), script, "-J", "x")
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if strings.TrimSpace(string(out)) != "args:-J x" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExecRunnerIncludesStderr(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tool")
	body := "#!/bin/sh\necho 'bad file' >&2\nexit 2\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	_, err := ExecRunner{}.Output(context.Background(), script)
	if err == nil || !strings.Contains(err.Error(), "bad file") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
