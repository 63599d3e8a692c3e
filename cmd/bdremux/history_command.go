package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bdremux/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showUnits bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent remux runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			inputs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(inputs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprint(out, renderHistory(inputs, showUnits, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of inputs to show")
	cmd.Flags().BoolVar(&showUnits, "units", false, "Show the work units of each input")
	return cmd
}

func renderHistory(inputs []history.Input, showUnits, colorize bool) string {
	var rows [][]string
	for _, in := range inputs {
		degraded := false
		for _, u := range in.Units {
			degraded = degraded || u.Degraded
		}
		rows = append(rows, []string{
			humanize.Time(in.StartedAt),
			filepath.Base(in.Path),
			statusLabel(in.Status, degraded, colorize),
			strconv.Itoa(len(in.Outputs)),
			formatElapsed(in.Duration),
			in.ErrorKind,
		})
		if !showUnits {
			continue
		}
		for _, u := range in.Units {
			state := u.State
			if u.Degraded {
				state += " (split)"
			}
			rows = append(rows, []string{"", "  " + u.Name, state, strconv.Itoa(len(u.Outputs)), formatElapsed(u.Duration), firstLine(strings.TrimSpace(u.Error))})
		}
	}
	return renderTable([]column{
		{title: "Started"},
		{title: "Input"},
		{title: "Status"},
		{title: "Outputs", align: alignRight},
		{title: "Elapsed", align: alignRight},
		{title: "Error", maxWidth: detailWidth},
	}, rows, nil)
}
