package tracks

import (
	"strconv"
	"strings"

	"bdremux/internal/media/mkvmerge"
)

// Codec is the audio codec family of a track.
type Codec int

const (
	CodecOther Codec = iota
	CodecTrueHD
	CodecAC3
	CodecEAC3
	CodecDTS
	CodecDTSHDMA
	CodecDTSHDHRA
	CodecFLAC
	CodecALAC
	CodecPCM
)

var codecTokens = map[Codec]string{
	CodecOther:    "other",
	CodecTrueHD:   "truehd",
	CodecAC3:      "ac3",
	CodecEAC3:     "eac3",
	CodecDTS:      "dts",
	CodecDTSHDMA:  "dtshdma",
	CodecDTSHDHRA: "dtshdhra",
	CodecFLAC:     "flac",
	CodecALAC:     "alac",
	CodecPCM:      "pcm",
}

// Token is the lowercase name used by the copy_codecs setting.
func (c Codec) Token() string {
	return codecTokens[c]
}

// Lossless reports whether the codec is lossless.
func (c Codec) Lossless() bool {
	switch c {
	case CodecTrueHD, CodecDTSHDMA, CodecFLAC, CodecALAC, CodecPCM:
		return true
	default:
		return false
	}
}

// Classify maps a track's codec name and codec id to a family.
func Classify(track mkvmerge.Track) Codec {
	if track.Type != mkvmerge.TypeAudio {
		return CodecOther
	}
	name := strings.ToLower(strings.TrimSpace(track.Codec))
	id := strings.ToUpper(strings.TrimSpace(track.Properties.CodecID))
	switch {
	case strings.Contains(name, "truehd"), strings.Contains(name, "mlp"), id == "A_TRUEHD", id == "A_MLP":
		return CodecTrueHD
	case strings.Contains(name, "master audio"), strings.Contains(name, "dts-hd ma"):
		return CodecDTSHDMA
	case strings.Contains(name, "high resolution"), strings.Contains(name, "dts-hd hr"):
		return CodecDTSHDHRA
	case strings.HasPrefix(name, "dts"), strings.HasPrefix(id, "A_DTS"):
		return CodecDTS
	case strings.Contains(name, "e-ac-3"), id == "A_EAC3":
		return CodecEAC3
	case strings.HasPrefix(name, "ac-3"), id == "A_AC3":
		return CodecAC3
	case strings.Contains(name, "flac"), id == "A_FLAC":
		return CodecFLAC
	case strings.Contains(name, "alac"), id == "A_ALAC":
		return CodecALAC
	case strings.Contains(name, "pcm"), strings.HasPrefix(id, "A_PCM"), strings.Contains(name, "lossless"):
		return CodecPCM
	default:
		return CodecOther
	}
}

// normalizeToken lowercases value and strips everything but letters and
// digits, so "DTS-HD MA" and "dtshd_ma" both read as "dtshdma".
func normalizeToken(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	token := b.String()
	if token == "dtshd" {
		return "dtshdma"
	}
	return token
}

// channelCount returns the track's channel count, guessing from the track
// name layout ("5.1", "7.1") when mkvmerge omits it.
func channelCount(track mkvmerge.Track) int {
	if track.Properties.Channels > 0 {
		return track.Properties.Channels
	}
	name := strings.ToLower(track.Properties.TrackName)
	for _, layout := range []struct {
		prefix   string
		channels int
	}{{"7.1", 8}, {"6.1", 7}, {"5.1", 6}, {"4.0", 4}, {"2.1", 3}, {"2.0", 2}, {"1.0", 1}} {
		if strings.Contains(name, layout.prefix) {
			return layout.channels
		}
	}
	return 0
}

// layoutLabel renders a channel count the way track names usually do.
func layoutLabel(channels int) string {
	switch channels {
	case 1:
		return "1.0"
	case 2:
		return "2.0"
	case 3:
		return "2.1"
	case 6:
		return "5.1"
	case 7:
		return "6.1"
	case 8:
		return "7.1"
	case 0:
		return ""
	default:
		return strconv.Itoa(channels) + "ch"
	}
}

// Summary renders a short human-readable description of a track.
func Summary(track mkvmerge.Track) string {
	parts := make([]string, 0, 4)
	parts = append(parts, track.Language())
	if track.Codec != "" {
		parts = append(parts, track.Codec)
	}
	if label := layoutLabel(channelCount(track)); label != "" && track.Type == mkvmerge.TypeAudio {
		parts = append(parts, label)
	}
	if title := strings.TrimSpace(track.Properties.TrackName); title != "" {
		parts = append(parts, title)
	}
	return strings.Join(parts, " | ")
}
