package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type cliEnv struct {
	root       string
	configPath string
	outputDir  string
	tempDir    string
	binDir     string
}

func setupCLIEnv(t *testing.T, missingTool string) cliEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	env := cliEnv{
		root:       root,
		configPath: filepath.Join(root, "bdremux.toml"),
		outputDir:  filepath.Join(root, "out"),
		tempDir:    filepath.Join(root, "tmp"),
		binDir:     filepath.Join(root, "bin"),
	}
	if err := os.MkdirAll(env.binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	tools := map[string]string{}
	for _, name := range []string{"mkvmerge", "ffmpeg", "flac", "opusenc", "mediainfo"} {
		path := filepath.Join(env.binDir, name)
		tools[name] = path
		if name == missingTool {
			continue
		}
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	body := fmt.Sprintf(`[paths]
output_dir = %q
temp_dir = %q
log_dir = %q
history_db = %q

[tools]
mkvmerge = %q
ffmpeg = %q
flac = %q
opusenc = %q
mediainfo = %q
`,
		env.outputDir, env.tempDir, filepath.Join(root, "logs"), filepath.Join(root, "history.db"),
		tools["mkvmerge"], tools["ffmpeg"], tools["flac"], tools["opusenc"], tools["mediainfo"],
	)
	if err := os.WriteFile(env.configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "bdremux.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, env.configPath) {
		t.Fatalf("expected config path in output, got %q", out)
	}
	if !strings.Contains(out, "lossless_codec") || !strings.Contains(out, "flac") {
		t.Fatalf("expected defaults in output, got %q", out)
	}
}

func TestDepsReportsMissingBinary(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps with every tool present: %v", err)
	}
	if !strings.Contains(out, "mkvmerge") || !strings.Contains(out, "OK") {
		t.Fatalf("unexpected deps output %q", out)
	}

	env = setupCLIEnv(t, "mediainfo")
	out, _, err = runCLI(t, []string{"deps"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when mediainfo is missing")
	}
	if !strings.Contains(out, "MISSING") {
		t.Fatalf("expected MISSING label, got %q", out)
	}
}

func TestTempListAndClean(t *testing.T) {
	env := setupCLIEnv(t, "")

	out, _, err := runCLI(t, []string{"temp", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("temp list: %v", err)
	}
	if !strings.Contains(out, "No temp directories found") {
		t.Fatalf("unexpected empty listing %q", out)
	}

	old := filepath.Join(env.tempDir, "old_disc-1")
	recent := filepath.Join(env.tempDir, "new_disc-2")
	for _, dir := range []string{old, recent} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "track.wav"), []byte("pcm"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	stale := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	out, _, err = runCLI(t, []string{"temp", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("temp list: %v", err)
	}
	if !strings.Contains(out, "old_disc-1") || !strings.Contains(out, "3d") {
		t.Fatalf("expected stale directory listed, got %q", out)
	}

	out, _, err = runCLI(t, []string{"temp", "clean", "--older-than", "48h"}, env.configPath)
	if err != nil {
		t.Fatalf("temp clean: %v", err)
	}
	if !strings.Contains(out, "Removed 1 temp directories") {
		t.Fatalf("unexpected clean output %q", out)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected stale directory removed, stat err=%v", err)
	}
	if _, err := os.Stat(recent); err != nil {
		t.Fatalf("expected recent directory kept: %v", err)
	}

	if _, _, err := runCLI(t, []string{"temp", "clean"}, env.configPath); err != nil {
		t.Fatalf("temp clean all: %v", err)
	}
	if _, err := os.Stat(recent); !os.IsNotExist(err) {
		t.Fatalf("expected every directory removed, stat err=%v", err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRemuxMissingInputFailsAndIsRecorded(t *testing.T) {
	env := setupCLIEnv(t, "")
	missing := filepath.Join(env.root, "nowhere.mkv")

	out, _, err := runCLI(t, []string{"remux", missing}, env.configPath)
	if !errors.Is(err, errInputsFailed) {
		t.Fatalf("expected errInputsFailed, got %v", err)
	}
	if !strings.Contains(out, "nowhere.mkv") || !strings.Contains(out, "input_missing") {
		t.Fatalf("expected failed input in summary, got %q", out)
	}
	if !strings.Contains(out, "0 succeeded, 1 failed") {
		t.Fatalf("expected counts line, got %q", out)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "nowhere.mkv") || !strings.Contains(out, "Failed") {
		t.Fatalf("expected recorded failure, got %q", out)
	}
}

func TestRemuxPreflightFailure(t *testing.T) {
	env := setupCLIEnv(t, "mkvmerge")
	_, _, err := runCLI(t, []string{"remux", filepath.Join(env.root, "disc")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "bdremux deps") {
		t.Fatalf("expected preflight error, got %v", err)
	}
}

func TestRemuxRejectsInvalidMode(t *testing.T) {
	env := setupCLIEnv(t, "")
	_, _, err := runCLI(t, []string{"remux", "--mode", "sideways", filepath.Join(env.root, "disc")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "mux.mode") {
		t.Fatalf("expected mode validation error, got %v", err)
	}
}
