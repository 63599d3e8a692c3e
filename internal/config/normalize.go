package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeLanguage()
	c.normalizeAudio()
	c.normalizeMux()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("BDREMUX_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("BDREMUX_TEMP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TempDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(strings.TrimSpace(c.Paths.TempDir)); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.Mkvmerge = defaultIfEmpty(c.Tools.Mkvmerge, "mkvmerge")
	c.Tools.FFmpeg = defaultIfEmpty(c.Tools.FFmpeg, "ffmpeg")
	c.Tools.Flac = defaultIfEmpty(c.Tools.Flac, "flac")
	c.Tools.Opusenc = defaultIfEmpty(c.Tools.Opusenc, "opusenc")
	c.Tools.Mediainfo = defaultIfEmpty(c.Tools.Mediainfo, "mediainfo")
}

func (c *Config) normalizeLanguage() {
	c.Language.Preferred = lowerList(c.Language.Preferred)
	c.Language.Excluded = lowerList(c.Language.Excluded)
}

func (c *Config) normalizeAudio() {
	c.Audio.LosslessCodec = strings.ToLower(defaultIfEmpty(c.Audio.LosslessCodec, defaultLosslessCodec))
	c.Audio.GrossCodec = strings.ToLower(defaultIfEmpty(c.Audio.GrossCodec, defaultGrossCodec))
	if c.Audio.BitratePerChannel <= 0 {
		c.Audio.BitratePerChannel = defaultBitratePerChannel
	}
	c.Audio.CopyCodecs = lowerList(c.Audio.CopyCodecs)
}

func (c *Config) normalizeMux() {
	c.Mux.Mode = strings.ToLower(defaultIfEmpty(c.Mux.Mode, defaultMuxMode))
}

func (c *Config) normalizeWorkflow() {
	c.Workflow.KeepTemp = strings.ToLower(defaultIfEmpty(c.Workflow.KeepTemp, defaultKeepTemp))
	c.Workflow.KeepTemp = strings.ReplaceAll(c.Workflow.KeepTemp, "-", "_")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaultIfEmpty(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(defaultIfEmpty(c.Logging.Level, defaultLogLevel))
	if value, ok := os.LookupEnv("BDREMUX_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
}

func defaultIfEmpty(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func lowerList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
