package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bdremux/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.OutputDir != filepath.Join(tempHome, "remux") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	wantTemp := filepath.Join(tempHome, ".cache", "bdremux", "tmp")
	if cfg.Paths.TempDir != wantTemp {
		t.Fatalf("unexpected temp dir: got %q want %q", cfg.Paths.TempDir, wantTemp)
	}
	if cfg.Mux.Mode != "direct" {
		t.Fatalf("expected direct mux mode by default, got %q", cfg.Mux.Mode)
	}
	if cfg.Mux.JoinFailureExitCode != 2 {
		t.Fatalf("expected join failure exit code 2, got %d", cfg.Mux.JoinFailureExitCode)
	}
	if cfg.KeepTempPolicy() != "on_failure" {
		t.Fatalf("unexpected keep policy %q", cfg.KeepTempPolicy())
	}
	if !cfg.Audio.RemoveExtraDTS {
		t.Fatal("expected remove_extra_dts enabled by default")
	}
	if cfg.WorkerCount() != runtime.NumCPU() {
		t.Fatalf("expected worker count to default to NumCPU, got %d", cfg.WorkerCount())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.TempDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bdremux.toml")

	type payload struct {
		Language struct {
			Preferred []string `toml:"preferred"`
		} `toml:"language"`
		Audio struct {
			LosslessCodec string `toml:"lossless_codec"`
		} `toml:"audio"`
		Mux struct {
			Mode         string `toml:"mode"`
			ChapterSplit []int  `toml:"chapter_split"`
		} `toml:"mux"`
		Workflow struct {
			Workers  int    `toml:"workers"`
			KeepTemp string `toml:"keep_temp"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Language.Preferred = []string{" JPN ", "eng", "jpn"}
	custom.Audio.LosslessCodec = "OPUS"
	custom.Mux.Mode = "split"
	custom.Mux.ChapterSplit = []int{5, 5}
	custom.Workflow.Workers = 3
	custom.Workflow.KeepTemp = "Never"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if got := strings.Join(cfg.Language.Preferred, ","); got != "jpn,eng" {
		t.Fatalf("expected normalized preferred languages, got %q", got)
	}
	if cfg.Audio.LosslessCodec != "opus" {
		t.Fatalf("expected lowercased codec, got %q", cfg.Audio.LosslessCodec)
	}
	if cfg.Mux.Mode != "split" {
		t.Fatalf("expected split mode, got %q", cfg.Mux.Mode)
	}
	if cfg.WorkerCount() != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.WorkerCount())
	}
	if cfg.KeepTempPolicy() != "never" {
		t.Fatalf("expected never keep policy, got %q", cfg.KeepTempPolicy())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "codec", body: "[audio]\nlossless_codec = \"mp3\"\n", wantErr: "audio.lossless_codec"},
		{name: "mode", body: "[mux]\nmode = \"weird\"\n", wantErr: "mux.mode"},
		{name: "join code", body: "[mux]\njoin_failure_exit_code = 1\n", wantErr: "join_failure_exit_code"},
		{name: "keep", body: "[workflow]\nkeep_temp = \"sometimes\"\n", wantErr: "workflow.keep_temp"},
		{name: "split", body: "[mux]\nchapter_split = [5, 0]\n", wantErr: "chapter_split"},
		{name: "unknown key", body: "[mux]\nsplitting = true\n", wantErr: "parse config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bdremux.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in error, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if len(cfg.Video.AllowedFPS) == 0 {
		t.Fatal("expected sample config to carry allowed frame rates")
	}
}

func TestEnvOverridesOutputDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out := filepath.Join(t.TempDir(), "out")
	t.Setenv("BDREMUX_OUTPUT_DIR", out)
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != out {
		t.Fatalf("expected env output dir %q, got %q", out, cfg.Paths.OutputDir)
	}
}
