package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"bdremux/internal/config"
)

// Requirement defines an external binary the remux pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements lists the binaries a run with cfg needs. Encoders that the
// configured codecs never use are reported as optional.
func Requirements(cfg *config.Config) []Requirement {
	usesCodec := func(codec string) bool {
		return cfg.Audio.LosslessCodec == codec || cfg.Audio.GrossCodec == codec
	}
	return []Requirement{
		{Name: "mkvmerge", Command: cfg.Tools.Mkvmerge, Description: "Identifies containers and playlists, muxes output"},
		{Name: "ffmpeg", Command: cfg.Tools.FFmpeg, Description: "Extracts and decodes audio, AAC and video encodes"},
		{Name: "mediainfo", Command: cfg.Tools.Mediainfo, Description: "Frame rate, scan type and subtitle element counts"},
		{Name: "flac", Command: cfg.Tools.Flac, Description: "FLAC encoder", Optional: !usesCodec("flac")},
		{Name: "opusenc", Command: cfg.Tools.Opusenc, Description: "Opus encoder", Optional: !usesCodec("opus")},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable, non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
