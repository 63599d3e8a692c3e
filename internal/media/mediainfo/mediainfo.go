package mediainfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bdremux/internal/converter"
)

// Result is the decoded `mediainfo --Output=JSON` payload.
type Result struct {
	Media Media `json:"media"`
}

// Media wraps the per-track entries.
type Media struct {
	Ref    string  `json:"@ref"`
	Tracks []Track `json:"track"`
}

// Track is one mediainfo track entry. mediainfo reports every value as a string.
type Track struct {
	Type                    string `json:"@type"`
	StreamOrder             string `json:"StreamOrder"`
	ID                      string `json:"ID"`
	Format                  string `json:"Format"`
	Width                   string `json:"Width"`
	Height                  string `json:"Height"`
	PixelAspectRatio        string `json:"PixelAspectRatio"`
	FrameRate               string `json:"FrameRate"`
	FrameRateMode           string `json:"FrameRate_Mode"`
	ScanType                string `json:"ScanType"`
	BitDepth                string `json:"BitDepth"`
	ColourPrimaries         string `json:"colour_primaries"`
	TransferCharacteristics string `json:"transfer_characteristics"`
	MatrixCoefficients      string `json:"matrix_coefficients"`
	ElementCount            string `json:"ElementCount"`
}

// Inspect runs mediainfo through runner and decodes the JSON response.
func Inspect(ctx context.Context, runner converter.Runner, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "mediainfo"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("mediainfo inspect: empty path")
	}
	if runner == nil {
		runner = converter.ExecRunner{}
	}

	output, err := runner.Output(ctx, binary, "--Output=JSON", path)
	if err != nil {
		return Result{}, fmt.Errorf("mediainfo inspect: %w", err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("mediainfo parse: %w", err)
	}
	return result, nil
}

// Video returns the first video track.
func (r Result) Video() (Track, bool) {
	for _, t := range r.Media.Tracks {
		if strings.EqualFold(t.Type, "Video") {
			return t, true
		}
	}
	return Track{}, false
}

// ByStreamOrder returns the track whose StreamOrder matches the zero-based
// stream index mkvmerge reports as the track id.
func (r Result) ByStreamOrder(index int) (Track, bool) {
	want := strconv.Itoa(index)
	for _, t := range r.Media.Tracks {
		if strings.EqualFold(t.Type, "General") {
			continue
		}
		if strings.TrimSpace(t.StreamOrder) == want {
			return t, true
		}
	}
	return Track{}, false
}

// FPS parses the frame rate, returning NaN when absent or malformed.
func (t Track) FPS() float64 {
	value := strings.TrimSpace(t.FrameRate)
	if value == "" {
		return math.NaN()
	}
	fps, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return fps
}

// Progressive reports whether the scan type is progressive. Missing scan type
// is treated as progressive, which is what mediainfo omits it for.
func (t Track) Progressive() bool {
	switch strings.ToLower(strings.TrimSpace(t.ScanType)) {
	case "", "progressive":
		return true
	default:
		return false
	}
}

// Elements returns the subtitle element count, or -1 when unknown.
func (t Track) Elements() int {
	value := strings.TrimSpace(t.ElementCount)
	if value == "" {
		return -1
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

// Colour returns the colour metadata mapped to ffmpeg option values. Unknown
// entries are omitted.
func (t Track) Colour() map[string]string {
	out := make(map[string]string, 3)
	if v := ffmpegColour(t.ColourPrimaries); v != "" {
		if v == "bt2020nc" {
			v = "bt2020"
		}
		out["color_primaries"] = v
	}
	if v := ffmpegColour(t.TransferCharacteristics); v != "" {
		out["color_trc"] = v
	}
	if v := ffmpegColour(t.MatrixCoefficients); v != "" {
		out["colorspace"] = v
	}
	return out
}

func ffmpegColour(value string) string {
	switch strings.TrimSpace(value) {
	case "BT.709":
		return "bt709"
	case "BT.2020", "BT.2020 non-constant":
		return "bt2020nc"
	case "PQ", "SMPTE ST 2084":
		return "smpte2084"
	case "HLG":
		return "arib-std-b67"
	case "BT.601 NTSC", "SMPTE 170M":
		return "smpte170m"
	case "BT.601 PAL", "BT.470 System B/G":
		return "bt470bg"
	default:
		return ""
	}
}
