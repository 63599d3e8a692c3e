package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bdremux/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check required directories and external binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkLabel(r, colorize), yesNo(r.Required), r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]column{
				{title: "Check"},
				{title: "Status"},
				{title: "Required"},
				{title: "Detail", maxWidth: detailWidth},
			}, rows, nil))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func checkLabel(r preflight.Result, colorize bool) string {
	label, color := "OK", ansiGreen
	switch {
	case r.Passed:
	case r.Required:
		label, color = "MISSING", ansiRed
	default:
		label, color = "OPTIONAL", ansiYellow
	}
	if !colorize {
		return label
	}
	return color + label + ansiReset
}
