package config

const (
	defaultOutputDir           = "~/remux"
	defaultTempDir             = "~/.cache/bdremux/tmp"
	defaultLogDir              = "~/.local/share/bdremux/logs"
	defaultHistoryDB           = "~/.local/share/bdremux/history.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogMaxSizeMB        = 50
	defaultLogMaxBackups       = 5
	defaultLogMaxAgeDays       = 30
	defaultLosslessCodec       = "flac"
	defaultGrossCodec          = "opus"
	defaultBitratePerChannel   = 96
	defaultSubtitleMinElements = 10
	defaultVideoCodec          = "libx265"
	defaultVideoCRF            = 18
	defaultVideoPreset         = "slow"
	defaultVideoPixelFormat    = "yuv420p10le"
	defaultMuxMode             = "direct"
	defaultJoinFailureExitCode = 2
	defaultKeepTemp            = "on_failure"
	defaultStaleTempHours      = 48
)

// defaultAllowedFPS lists the frame rates found on Blu-ray and broadcast sources.
var defaultAllowedFPS = []float64{23.976, 24, 25, 29.97, 30, 50, 59.94, 60}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			TempDir:   defaultTempDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Tools: Tools{
			Mkvmerge:  "mkvmerge",
			FFmpeg:    "ffmpeg",
			Flac:      "flac",
			Opusenc:   "opusenc",
			Mediainfo: "mediainfo",
		},
		Language: Language{
			PrimaryFallback: true,
			PreventNoAudio:  true,
		},
		Audio: Audio{
			LosslessCodec:     defaultLosslessCodec,
			GrossCodec:        defaultGrossCodec,
			BitratePerChannel: defaultBitratePerChannel,
			RemoveExtraDTS:    true,
		},
		Subtitles: Subtitles{
			MinElements: defaultSubtitleMinElements,
		},
		Video: Video{
			Codec:       defaultVideoCodec,
			CRF:         defaultVideoCRF,
			Preset:      defaultVideoPreset,
			PixelFormat: defaultVideoPixelFormat,
			AllowedFPS:  append([]float64(nil), defaultAllowedFPS...),
		},
		Mux: Mux{
			Mode:                defaultMuxMode,
			JoinFailureExitCode: defaultJoinFailureExitCode,
		},
		Workflow: Workflow{
			KeepTemp:       defaultKeepTemp,
			StaleTempHours: defaultStaleTempHours,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
