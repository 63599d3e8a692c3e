package tracks

import (
	"strconv"
	"strings"

	"bdremux/internal/converter"
	"bdremux/internal/media/mkvmerge"
)

var typeSelectors = []struct {
	typ  string
	keep string
	drop string
}{
	{mkvmerge.TypeVideo, "--video-tracks", "-D"},
	{mkvmerge.TypeAudio, "--audio-tracks", "-A"},
	{mkvmerge.TypeSubtitles, "--subtitle-tracks", "-S"},
}

// FinalMux assembles output from source and the replacement files named by
// mods. Copied tracks are selected from source by id, replacement files are
// appended as extra inputs, and --track-order preserves the original track
// order.
func FinalMux(tools Tools, source, output string, mods []Modification) *converter.Converter {
	args := []string{"-o", output}
	for _, sel := range typeSelectors {
		var ids []string
		for _, m := range mods {
			if m.Action == ActionCopy && m.Type == sel.typ {
				ids = append(ids, strconv.Itoa(m.TrackID))
			}
		}
		if len(ids) == 0 {
			args = append(args, sel.drop)
			continue
		}
		args = append(args, sel.keep, strings.Join(ids, ","))
	}
	args = append(args, source)

	inputs := []string{source}
	var order []string
	for _, m := range mods {
		switch m.Action {
		case ActionCopy:
			order = append(order, "0:"+strconv.Itoa(m.TrackID))
		case ActionReplace:
			for j, file := range m.Files {
				args = append(args, replacementArgs(m, j)...)
				args = append(args, file)
				inputs = append(inputs, file)
				order = append(order, strconv.Itoa(len(inputs)-1)+":0")
			}
		}
	}
	if len(order) > 0 {
		args = append(args, "--track-order", strings.Join(order, ","))
	}
	return converter.New("final", program(tools.Mkvmerge, "mkvmerge"), args...).
		WithInputs(inputs...).
		WithOutputs(output)
}

// replacementArgs tags file j of a Replace. Files after the first are stereo
// downmixes and never default.
func replacementArgs(m Modification, j int) []string {
	var args []string
	if m.Language != "" {
		args = append(args, "--language", "0:"+m.Language)
	}
	name := m.Name
	if j > 0 {
		name = strings.TrimSpace(name + " Stereo")
	}
	if name != "" {
		args = append(args, "--track-name", "0:"+name)
	}
	args = append(args,
		"--default-track-flag", flag(m.Flags.Default && j == 0),
		"--forced-display-flag", flag(m.Flags.Forced),
	)
	for _, f := range []struct {
		option string
		set    bool
	}{
		{"--commentary-flag", m.Flags.Commentary},
		{"--hearing-impaired-flag", m.Flags.HearingImpaired},
		{"--visual-impaired-flag", m.Flags.VisualImpaired},
		{"--original-flag", m.Flags.Original},
	} {
		if f.set {
			args = append(args, f.option, flag(true))
		}
	}
	return args
}

func flag(set bool) string {
	if set {
		return "0:1"
	}
	return "0:0"
}
