package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bdremux/internal/config"
	"bdremux/internal/engine"
	"bdremux/internal/history"
	"bdremux/internal/logging"
	"bdremux/internal/preflight"
	"bdremux/internal/services"
	"bdremux/internal/workflow"
)

// errInputsFailed reports that the run finished with failed inputs. The
// summary table already explains them, so main only sets the exit status.
var errInputsFailed = errors.New("one or more inputs failed")

func newRemuxCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir string
		mode      string
		overwrite bool
		keepTemp  string
		workers   int
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "remux <input>...",
		Short: "Remux discs, playlists or containers",
		Long: `Remux every input into <output_dir>/<input name>/.

An input is a disc root (or its BDMV directory), a single .mpls playlist or a
loose media container. Failed inputs are reported in the summary and make the
command exit with status 1; remaining inputs are still processed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRemuxFlags(cmd, cfg, outputDir, mode, overwrite, keepTemp, workers); err != nil {
				return err
			}
			return runRemux(cmd, cfg, args, !noHistory)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Override paths.output_dir")
	cmd.Flags().StringVar(&mode, "mode", "", "Mux mode: direct or split")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing outputs")
	cmd.Flags().StringVar(&keepTemp, "keep-temp", "", "Temp retention: always, on_failure or never")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Audio conversion pool size")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	return cmd
}

func applyRemuxFlags(cmd *cobra.Command, cfg *config.Config, outputDir, mode string, overwrite bool, keepTemp string, workers int) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		expanded, err := config.ExpandPath(outputDir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Paths.OutputDir = expanded
	}
	if flags.Changed("mode") {
		cfg.Mux.Mode = strings.ToLower(strings.TrimSpace(mode))
	}
	if flags.Changed("overwrite") {
		cfg.Workflow.Overwrite = overwrite
	}
	if flags.Changed("keep-temp") {
		cfg.Workflow.KeepTemp = strings.ToLower(strings.TrimSpace(keepTemp))
	}
	if flags.Changed("workers") {
		cfg.Workflow.Workers = workers
	}
	return cfg.Validate()
}

func runRemux(cmd *cobra.Command, cfg *config.Config, inputs []string, recordHistory bool) error {
	if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed (run `bdremux deps`): %s", strings.Join(details, "; "))
	}

	sessionID := uuid.NewString()
	logger, err := logging.NewFromConfig(cfg, sessionID)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithIgnoreWarnings(cfg.Mux.IgnoreWarnings),
		engine.WithJoinFailureCode(cfg.Mux.JoinFailureExitCode),
		engine.WithWorkers(cfg.WorkerCount()),
	)

	opts := []workflow.Option{workflow.WithSessionID(sessionID)}
	if recordHistory {
		store, err := history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
				logging.String("path", cfg.Paths.HistoryDB),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run will not appear in bdremux history"),
			)
		} else {
			defer store.Close()
			opts = append(opts, workflow.WithRecorder(store))
		}
	}
	manager := workflow.NewManager(cfg, eng, logger, opts...)

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-runCtx.Done():
			if cmd.Context().Err() == nil {
				eng.Terminate()
			}
		case <-done:
		}
	}()

	summary, runErr := manager.Run(runCtx, inputs)
	out := cmd.OutOrStdout()
	printSummary(out, summary, shouldColorize(out))

	if runErr != nil {
		if errors.Is(runErr, services.ErrCanceled) {
			return context.Canceled
		}
		return runErr
	}
	if summary.Failed() > 0 {
		return errInputsFailed
	}
	return nil
}

func printSummary(out io.Writer, summary workflow.Summary, colorize bool) {
	if len(summary.Inputs) == 0 {
		fmt.Fprintln(out, "No inputs processed")
		return
	}
	rows := make([][]string, 0, len(summary.Inputs))
	for _, in := range summary.Inputs {
		detail := ""
		switch {
		case in.Err != nil:
			detail = services.Kind(in.Err) + ": " + firstLine(in.Err.Error())
		case len(in.Outputs) > 0:
			detail = filepath.Dir(in.Outputs[0])
		}
		if n := in.Skipped(); n > 0 {
			detail += fmt.Sprintf(" (%d clips skipped)", n)
		}
		if in.TempDir != "" {
			detail += " (temp kept: " + in.TempDir + ")"
		}
		detail = strings.TrimSpace(detail)
		rows = append(rows, []string{
			filepath.Base(in.Input),
			statusLabel(in.Status, in.Degraded(), colorize),
			fmt.Sprintf("%d", len(in.Outputs)),
			formatElapsed(in.Duration),
			detail,
		})
	}
	fmt.Fprint(out, renderTable([]column{
		{title: "Input"},
		{title: "Status"},
		{title: "Outputs", align: alignRight},
		{title: "Elapsed", align: alignRight},
		{title: "Detail", maxWidth: detailWidth},
	}, rows, nil))
	fmt.Fprintf(out, "%s succeeded, %s failed in %s\n",
		humanize.Comma(int64(summary.Succeeded())),
		humanize.Comma(int64(summary.Failed())),
		formatElapsed(summary.Duration),
	)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
