package tracks

import (
	"slices"

	"bdremux/internal/config"
	"bdremux/internal/language"
)

// LanguagePolicy decides which audio and subtitle languages survive.
type LanguagePolicy struct {
	Preferred []string
	Excluded  []string
	// PrimaryFallback keeps only the container's primary language when no
	// preferred languages are configured.
	PrimaryFallback bool
	// PreventNoAudio admits the primary language when the filter would
	// otherwise drop every audio track.
	PreventNoAudio bool
}

// VideoPolicy validates and optionally re-encodes video.
type VideoPolicy struct {
	Reencode        bool
	Codec           string
	CRF             int
	Preset          string
	PixelFormat     string
	ProgressiveOnly bool
	AllowedFPS      []float64
}

// Policy is the full decision configuration.
type Policy struct {
	Language            LanguagePolicy
	KeepDisabled        bool
	MinSubtitleElements int
	RemoveExtraDTS      bool
	FixDTS              bool
	LosslessCodec       string
	GrossCodec          string
	BitratePerChannel   int
	DownmixStereo       bool
	// CopyCodecs lists codec tokens that are never re-encoded.
	CopyCodecs []string
	Video      VideoPolicy
}

// PolicyFromConfig builds the decision policy from configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	copyCodecs := make([]string, 0, len(cfg.Audio.CopyCodecs))
	for _, c := range cfg.Audio.CopyCodecs {
		if token := normalizeToken(c); token != "" {
			copyCodecs = append(copyCodecs, token)
		}
	}
	return Policy{
		Language: LanguagePolicy{
			Preferred:       language.NormalizeList(cfg.Language.Preferred),
			Excluded:        language.NormalizeList(cfg.Language.Excluded),
			PrimaryFallback: cfg.Language.PrimaryFallback,
			PreventNoAudio:  cfg.Language.PreventNoAudio,
		},
		KeepDisabled:        cfg.Audio.KeepDisabled,
		MinSubtitleElements: cfg.Subtitles.MinElements,
		RemoveExtraDTS:      cfg.Audio.RemoveExtraDTS,
		FixDTS:              cfg.Audio.FixDTS,
		LosslessCodec:       cfg.Audio.LosslessCodec,
		GrossCodec:          cfg.Audio.GrossCodec,
		BitratePerChannel:   cfg.Audio.BitratePerChannel,
		DownmixStereo:       cfg.Audio.DownmixStereo,
		CopyCodecs:          copyCodecs,
		Video: VideoPolicy{
			Reencode:        cfg.Video.Reencode,
			Codec:           cfg.Video.Codec,
			CRF:             cfg.Video.CRF,
			Preset:          cfg.Video.Preset,
			PixelFormat:     cfg.Video.PixelFormat,
			ProgressiveOnly: cfg.Video.ProgressiveOnly,
			AllowedFPS:      append([]float64(nil), cfg.Video.AllowedFPS...),
		},
	}
}

// Protected reports whether codec must be copied untouched.
func (p Policy) Protected(codec Codec) bool {
	return slices.Contains(p.CopyCodecs, codec.Token())
}

// admits applies the language filter. Undetermined languages always pass.
// primary is the container's primary language; relaxed additionally admits it.
func (p LanguagePolicy) admits(lang, primary string, relaxed bool) bool {
	lang = language.Normalize(lang)
	if language.IsUndetermined(lang) {
		return true
	}
	if relaxed && primary != "" && lang == primary {
		return true
	}
	if language.Contains(p.Excluded, lang) {
		return false
	}
	if len(p.Preferred) > 0 {
		return language.Contains(p.Preferred, lang)
	}
	if p.PrimaryFallback && primary != "" {
		return lang == primary
	}
	return true
}
