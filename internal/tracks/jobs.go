package tracks

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bdremux/internal/config"
	"bdremux/internal/converter"
)

// Tools names the binaries used by the generated commands.
type Tools struct {
	Mkvmerge string
	FFmpeg   string
	Flac     string
	Opusenc  string
}

// ToolsFromConfig copies the tool paths from configuration.
func ToolsFromConfig(cfg *config.Config) Tools {
	return Tools{
		Mkvmerge: cfg.Tools.Mkvmerge,
		FFmpeg:   cfg.Tools.FFmpeg,
		Flac:     cfg.Tools.Flac,
		Opusenc:  cfg.Tools.Opusenc,
	}
}

// AudioJob converts one audio track. Source is the decoded PCM extraction,
// Output the encoded replacement and Downmix an optional stereo variant.
type AudioJob struct {
	// Track is the index in the container's track list.
	Track        int
	TrackID      int
	Source       string
	SampleFormat string
	Output       string
	Downmix      string
	Codec        string
	BitrateKbps  int
	Channels     int
}

// Files lists every file the job writes, the extraction included.
func (j AudioJob) Files() []string {
	files := []string{j.Source, j.Output}
	if j.Downmix != "" {
		files = append(files, j.Downmix)
	}
	return files
}

// VideoJob re-encodes the video track through ffmpeg.
type VideoJob struct {
	Track       int
	TrackID     int
	Output      string
	Codec       string
	CRF         int
	Preset      string
	PixelFormat string
	// Colour holds ffmpeg colour options copied from mediainfo.
	Colour map[string]string
}

func codecExtension(codec string) string {
	switch codec {
	case "opus":
		return ".opus"
	case "aac":
		return ".m4a"
	default:
		return ".flac"
	}
}

func generatedName(codec string, channels int) string {
	label := map[string]string{"flac": "FLAC", "opus": "Opus", "aac": "AAC"}[codec]
	if label == "" {
		label = strings.ToUpper(codec)
	}
	if layout := layoutLabel(channels); layout != "" {
		return label + " " + layout
	}
	return label
}

func ffmpegBase() []string {
	return []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-y"}
}

// ExtractCommand decodes every job's source track of the container into PCM
// in a single ffmpeg pass. It returns nil when there is nothing to extract.
func ExtractCommand(tools Tools, source string, jobs []AudioJob) *converter.Converter {
	if len(jobs) == 0 {
		return nil
	}
	args := append(ffmpegBase(), "-i", source)
	outputs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		args = append(args,
			"-map", "0:"+strconv.Itoa(job.TrackID),
			"-c:a", job.SampleFormat,
			"-rf64", "auto",
			job.Source,
		)
		outputs = append(outputs, job.Source)
	}
	return converter.New("extract", program(tools.FFmpeg, "ffmpeg"), args...).
		WithInputs(source).
		WithOutputs(outputs...)
}

// EncodeCommands returns the commands producing the job's output and, when
// requested, its stereo downmix.
func (j AudioJob) EncodeCommands(tools Tools) []*converter.Converter {
	var main *converter.Converter
	switch j.Codec {
	case "opus":
		main = converter.New("encode", program(tools.Opusenc, "opusenc"),
			"--quiet", "--bitrate", strconv.Itoa(j.BitrateKbps), j.Source, j.Output)
	case "aac":
		main = converter.New("encode", program(tools.FFmpeg, "ffmpeg"),
			append(ffmpegBase(), "-i", j.Source, "-c:a", "aac", "-b:a", kbps(j.BitrateKbps), j.Output)...)
	default:
		main = converter.New("encode", program(tools.Flac, "flac"),
			"-8", "--silent", "-f", "-o", j.Output, j.Source)
	}
	commands := []*converter.Converter{main.WithInputs(j.Source).WithOutputs(j.Output)}
	if j.Downmix == "" {
		return commands
	}

	args := append(ffmpegBase(), "-i", j.Source, "-ac", "2")
	switch j.Codec {
	case "opus":
		args = append(args, "-c:a", "libopus", "-b:a", kbps(stereoBitrate(j)))
	case "aac":
		args = append(args, "-c:a", "aac", "-b:a", kbps(stereoBitrate(j)))
	default:
		args = append(args, "-c:a", "flac", "-compression_level", "8")
	}
	args = append(args, j.Downmix)
	downmix := converter.New("downmix", program(tools.FFmpeg, "ffmpeg"), args...).
		WithInputs(j.Source).
		WithOutputs(j.Downmix)
	return append(commands, downmix)
}

func stereoBitrate(j AudioJob) int {
	if j.Channels <= 0 {
		return j.BitrateKbps
	}
	return j.BitrateKbps / j.Channels * 2
}

// Command returns the ffmpeg invocation re-encoding the video track.
func (v VideoJob) Command(tools Tools, source string) *converter.Converter {
	args := append(ffmpegBase(), "-i", source,
		"-map", "0:"+strconv.Itoa(v.TrackID),
		"-c:v", v.Codec,
		"-crf", strconv.Itoa(v.CRF),
	)
	if v.Preset != "" {
		args = append(args, "-preset", v.Preset)
	}
	if v.PixelFormat != "" {
		args = append(args, "-pix_fmt", v.PixelFormat)
	}
	keys := make([]string, 0, len(v.Colour))
	for k := range v.Colour {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-"+k, v.Colour[k])
	}
	args = append(args, v.Output)
	return converter.New("video", program(tools.FFmpeg, "ffmpeg"), args...).
		WithInputs(source).
		WithOutputs(v.Output)
}

func kbps(n int) string {
	return fmt.Sprintf("%dk", n)
}

func program(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
