package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bdremux/internal/mpls"
	"bdremux/internal/services"
	"bdremux/internal/textutil"
)

// InputKind classifies a top-level input.
type InputKind int

const (
	// KindDisc is a disc root or BDMV directory containing PLAYLIST.
	KindDisc InputKind = iota
	// KindPlaylist is a single .mpls file.
	KindPlaylist
	// KindContainer is a loose media container, remuxed without scanning.
	KindContainer
)

func (k InputKind) String() string {
	switch k {
	case KindDisc:
		return "disc"
	case KindPlaylist:
		return "playlist"
	default:
		return "container"
	}
}

var containerExtensions = map[string]struct{}{
	".mkv":  {},
	".mka":  {},
	".m2ts": {},
	".mts":  {},
	".ts":   {},
	".mp4":  {},
	".m4v":  {},
	".avi":  {},
	".vob":  {},
}

// Input is a classified top-level input.
type Input struct {
	Path string
	Kind InputKind
	// Name names the output directory.
	Name string
}

// ClassifyInput resolves path to an Input. Missing paths and unsupported
// files report ErrInputMissing; a directory without BDMV/PLAYLIST reports
// ErrNoPlaylists.
func ClassifyInput(path string) (Input, error) {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	info, err := os.Stat(cleaned)
	if err != nil {
		return Input{}, services.Wrap(services.ErrInputMissing, "classify", "stat", cleaned, err)
	}
	if info.IsDir() {
		if _, ok := mpls.PlaylistDir(cleaned); !ok {
			return Input{}, services.Wrap(services.ErrNoPlaylists, "classify", "disc",
				fmt.Sprintf("%s has no BDMV/PLAYLIST directory", cleaned), nil)
		}
		return Input{Path: cleaned, Kind: KindDisc, Name: textutil.SanitizeFileName(discName(cleaned), "disc")}, nil
	}

	ext := strings.ToLower(filepath.Ext(cleaned))
	stem := strings.TrimSuffix(filepath.Base(cleaned), filepath.Ext(cleaned))
	if ext == ".mpls" {
		return Input{Path: cleaned, Kind: KindPlaylist, Name: textutil.SanitizeFileName(discName(filepath.Dir(cleaned)), "disc")}, nil
	}
	if _, ok := containerExtensions[ext]; ok {
		return Input{Path: cleaned, Kind: KindContainer, Name: textutil.SanitizeFileName(stem, "input")}, nil
	}
	return Input{}, services.Wrap(services.ErrInputMissing, "classify", "file",
		fmt.Sprintf("unsupported input %s", cleaned), nil)
}

// discName names a disc after its root, skipping the BDMV and PLAYLIST
// directories.
func discName(dir string) string {
	for {
		base := filepath.Base(dir)
		switch strings.ToUpper(base) {
		case "BDMV", "PLAYLIST":
			parent := filepath.Dir(dir)
			if parent == dir {
				return base
			}
			dir = parent
			continue
		}
		return base
	}
}
