package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bdremux/internal/converter"
	"bdremux/internal/language"
	"bdremux/internal/logging"
	"bdremux/internal/mpls"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <disc>",
		Short: "List the distinct playlists of a disc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			parser := mpls.MkvmergeParser{Binary: cfg.Tools.Mkvmerge, Runner: converter.ExecRunner{}}
			playlists, err := mpls.NewScanner(parser, logging.NewNop()).Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPlaylists(playlists))
			return nil
		},
	}
}

func renderPlaylists(playlists []mpls.Mpls) string {
	rows := make([][]string, 0, len(playlists))
	for _, m := range playlists {
		langs := make([]string, 0, len(m.Languages))
		for _, code := range m.Languages {
			langs = append(langs, language.DisplayName(code))
		}
		clips := strconv.Itoa(len(m.Clips))
		if m.Compressed {
			clips += fmt.Sprintf(" (%d unique)", len(m.UniqueClips()))
		}
		rows = append(rows, []string{
			m.Name(),
			formatPlaylistDuration(m.Duration),
			humanize.IBytes(uint64(max(m.Size, 0))),
			clips,
			strconv.Itoa(m.ChapterCount),
			strings.Join(langs, ", "),
		})
	}
	return renderTable([]column{
		{title: "Playlist"},
		{title: "Duration", align: alignRight},
		{title: "Size", align: alignRight},
		{title: "Clips", align: alignRight},
		{title: "Chapters", align: alignRight},
		{title: "Languages", maxWidth: detailWidth},
	}, rows, nil)
}

func formatPlaylistDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
