package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bdremux/internal/logging"
	"bdremux/internal/staging"
)

func newTempCommand(ctx *commandContext) *cobra.Command {
	tempCmd := &cobra.Command{
		Use:   "temp",
		Short: "Manage temp directories kept by previous runs",
	}

	tempCmd.AddCommand(newTempListCommand(ctx))
	tempCmd.AddCommand(newTempCleanCommand(ctx))

	return tempCmd
}

func newTempListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List temp directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tempDir := strings.TrimSpace(cfg.Paths.TempDir)
			dirs, err := staging.ListDirectories(tempDir)
			if err != nil {
				return fmt.Errorf("list temp directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No temp directories found")
				return nil
			}

			fmt.Fprintf(out, "Temp directory: %s\n\n", tempDir)
			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				totalSize += dir.Size
				rows = append(rows, []string{
					dir.Name,
					formatAge(time.Since(dir.ModTime).Truncate(time.Minute)),
					humanize.IBytes(uint64(max(dir.Size, 0))),
				})
			}
			fmt.Fprint(out, renderTable([]column{
				{title: "Directory"},
				{title: "Age", align: alignRight},
				{title: "Size", align: alignRight},
			}, rows, []string{
				fmt.Sprintf("Total: %d directories", len(dirs)),
				"",
				humanize.IBytes(uint64(max(totalSize, 0))),
			}))
			return nil
		},
	}
}

func newTempCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove temp directories",
		Long: `Remove temp directories left behind by earlier runs.

By default every directory is removed. Use --older-than to keep recent ones.
The temp root is locked while cleaning, so a running remux is never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := staging.Open(cfg.Paths.TempDir, logging.NewNop())
			if err != nil {
				return err
			}
			defer root.Close()

			maxAge := olderThan
			if maxAge <= 0 {
				maxAge = time.Nanosecond
			}
			result := staging.CleanStale(cmd.Context(), root.Path(), maxAge, logging.NewNop())
			return printCleanResult(cmd, result)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove directories older than this (e.g. 48h)")
	return cmd
}

func printCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No temp directories to clean")
		return nil
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Removed %d temp directories, %d errors\n", len(result.Removed), len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return nil
	}
	fmt.Fprintf(out, "Removed %d temp directories\n", len(result.Removed))
	return nil
}

func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
