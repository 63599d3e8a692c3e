package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	TempDir   string `toml:"temp_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Tools names the external binaries the pipeline shells out to.
type Tools struct {
	Mkvmerge  string `toml:"mkvmerge"`
	FFmpeg    string `toml:"ffmpeg"`
	Flac      string `toml:"flac"`
	Opusenc   string `toml:"opusenc"`
	Mediainfo string `toml:"mediainfo"`
}

// Language contains the track language policy.
type Language struct {
	Preferred       []string `toml:"preferred"`
	Excluded        []string `toml:"excluded"`
	PrimaryFallback bool     `toml:"primary_fallback"`
	PreventNoAudio  bool     `toml:"prevent_no_audio"`
}

// Audio contains lossless handling and re-encode settings.
type Audio struct {
	// LosslessCodec is the target for lossless sources: flac, opus or aac.
	LosslessCodec string `toml:"lossless_codec"`
	// GrossCodec is the target for lossy sources flagged for fixing (plain DTS).
	GrossCodec string `toml:"gross_codec"`
	// BitratePerChannel is the lossy bitrate in kbit/s per source channel.
	BitratePerChannel int      `toml:"bitrate_per_channel"`
	DownmixStereo     bool     `toml:"downmix_stereo"`
	CopyCodecs        []string `toml:"copy_codecs"`
	FixDTS            bool     `toml:"fix_dts"`
	RemoveExtraDTS    bool     `toml:"remove_extra_dts"`
	KeepDisabled      bool     `toml:"keep_disabled"`
}

// Subtitles contains subtitle pruning settings.
type Subtitles struct {
	MinElements int `toml:"min_elements"`
}

// Video contains video validation and re-encode settings.
type Video struct {
	Reencode        bool      `toml:"reencode"`
	Codec           string    `toml:"codec"`
	CRF             int       `toml:"crf"`
	Preset          string    `toml:"preset"`
	PixelFormat     string    `toml:"pixel_format"`
	ProgressiveOnly bool      `toml:"progressive_only"`
	AllowedFPS      []float64 `toml:"allowed_fps"`
}

// Mux contains playlist muxing and fallback settings.
type Mux struct {
	Mode                string `toml:"mode"`
	ChapterSplit        []int  `toml:"chapter_split"`
	IgnoreWarnings      bool   `toml:"ignore_warnings"`
	JoinFailureExitCode int    `toml:"join_failure_exit_code"`
}

// Workflow contains scheduling and temp directory lifecycle settings.
type Workflow struct {
	Workers        int    `toml:"workers"`
	KeepTemp       string `toml:"keep_temp"`
	Overwrite      bool   `toml:"overwrite"`
	StaleTempHours int    `toml:"stale_temp_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for bdremux.
//
// Configuration sections by subsystem:
//   - Paths: output, temp, log and history locations
//   - Tools: external binaries (mkvmerge, ffmpeg, flac, opusenc, mediainfo)
//   - Language: which audio/subtitle languages survive
//   - Audio: lossless re-encode targets and TrueHD/DTS coupling switches
//   - Subtitles: minimum element count for subtitle tracks
//   - Video: frame rate validation and optional re-encode
//   - Mux: direct/split mode, chapter splitting and fallback exit codes
//   - Workflow: pool size and temp directory retention
//   - Logging: log format, level, and rotation
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Language  Language  `toml:"language"`
	Audio     Audio     `toml:"audio"`
	Subtitles Subtitles `toml:"subtitles"`
	Video     Video     `toml:"video"`
	Mux       Mux       `toml:"mux"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bdremux/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bdremux.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.TempDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WorkerCount returns the audio pool size, defaulting to the processor count.
func (c *Config) WorkerCount() int {
	if c.Workflow.Workers > 0 {
		return c.Workflow.Workers
	}
	return runtime.NumCPU()
}

// KeepTempPolicy returns the normalized temp directory retention policy.
func (c *Config) KeepTempPolicy() string {
	return strings.ToLower(strings.TrimSpace(c.Workflow.KeepTemp))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
