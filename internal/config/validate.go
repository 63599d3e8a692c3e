package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	audioCodecs = []string{"flac", "opus", "aac"}
	muxModes    = []string{"direct", "split"}
	keepPolicy  = []string{"always", "on_failure", "never"}
	logFormats  = []string{"console", "json"}
	logLevels   = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateMux(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.TempDir == "" {
		return errors.New("paths.temp_dir must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if !slices.Contains(audioCodecs, c.Audio.LosslessCodec) {
		return fmt.Errorf("audio.lossless_codec must be one of %v, got %q", audioCodecs, c.Audio.LosslessCodec)
	}
	if !slices.Contains(audioCodecs, c.Audio.GrossCodec) {
		return fmt.Errorf("audio.gross_codec must be one of %v, got %q", audioCodecs, c.Audio.GrossCodec)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Reencode && c.Video.Codec == "" {
		return errors.New("video.codec must be set when video.reencode is true")
	}
	if c.Video.CRF < 0 || c.Video.CRF > 63 {
		return errors.New("video.crf must be between 0 and 63")
	}
	for _, fps := range c.Video.AllowedFPS {
		if fps <= 0 {
			return fmt.Errorf("video.allowed_fps entries must be positive, got %v", fps)
		}
	}
	return nil
}

func (c *Config) validateMux() error {
	if !slices.Contains(muxModes, c.Mux.Mode) {
		return fmt.Errorf("mux.mode must be one of %v, got %q", muxModes, c.Mux.Mode)
	}
	for _, size := range c.Mux.ChapterSplit {
		if size <= 0 {
			return errors.New("mux.chapter_split sizes must be positive")
		}
	}
	if c.Mux.JoinFailureExitCode <= 1 {
		return errors.New("mux.join_failure_exit_code must be greater than 1")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 0 {
		return errors.New("workflow.workers must not be negative")
	}
	if !slices.Contains(keepPolicy, c.Workflow.KeepTemp) {
		return fmt.Errorf("workflow.keep_temp must be one of %v, got %q", keepPolicy, c.Workflow.KeepTemp)
	}
	if c.Workflow.StaleTempHours < 0 {
		return errors.New("workflow.stale_temp_hours must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", logFormats, c.Logging.Format)
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", logLevels, c.Logging.Level)
	}
	return nil
}
