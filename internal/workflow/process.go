package workflow

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"bdremux/internal/engine"
	"bdremux/internal/logging"
	"bdremux/internal/mpls"
	"bdremux/internal/services"
	"bdremux/internal/staging"
)

// processInput runs one top-level input. The returned error is set only when
// the run must abort.
func (m *Manager) processInput(ctx context.Context, root *staging.Root, path string) (InputOutcome, error) {
	outcome := InputOutcome{Input: path, Started: time.Now()}
	ctx = services.WithInput(ctx, path)
	logger := logging.WithContext(ctx, m.logger)

	in, err := ClassifyInput(path)
	if err != nil {
		return m.finish(logger, outcome, err), nil
	}
	outcome.Kind = in.Kind
	logger.Info("input started",
		logging.String("kind", in.Kind.String()),
		logging.String(logging.FieldEventType, "input_start"),
	)

	dir, err := root.Create(path)
	if err != nil {
		return m.finish(logger, outcome, err), err
	}
	m.engine.SetTempDir(dir.Path)
	defer m.engine.SetTempDir("")

	var errs []error
	containers, units, err := m.produceContainers(ctx, in, dir.Path)
	outcome.Units = units
	if err != nil {
		errs = append(errs, err)
	}
	outputDir := filepath.Join(m.cfg.Paths.OutputDir, in.Name)
	for _, container := range containers {
		if services.Fatal(errors.Join(errs...)) {
			break
		}
		output, err := m.remuxContainer(ctx, container, dir.Path, outputDir)
		if err != nil {
			errs = append(errs, err)
			logging.WarnWithContext(logger, "container failed", "container_failed",
				logging.String("container", filepath.Base(container)),
				logging.String("error_kind", services.Kind(err)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "title missing from output"),
			)
			continue
		}
		outcome.Outputs = append(outcome.Outputs, output)
	}

	inputErr := errors.Join(errs...)
	if !root.Finish(dir, m.keep, inputErr == nil) && !m.engine.Terminated() {
		outcome.TempDir = dir.Path
	}
	outcome = m.finish(logger, outcome, inputErr)
	if services.Fatal(inputErr) {
		return outcome, inputErr
	}
	return outcome, nil
}

// produceContainers returns the containers to remux: the input itself for a
// loose container, otherwise the outputs of every successful Work Unit.
func (m *Manager) produceContainers(ctx context.Context, in Input, tempDir string) ([]string, []engine.Outcome, error) {
	if in.Kind == KindContainer {
		return []string{in.Path}, nil, nil
	}

	var playlists []mpls.Mpls
	switch in.Kind {
	case KindPlaylist:
		p, err := m.parser.Parse(ctx, in.Path)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrIdentification, "scan", "parse", in.Path, err)
		}
		playlists = []mpls.Mpls{p}
	default:
		scanned, err := mpls.NewScanner(m.parser, m.logger).Scan(ctx, in.Path)
		if err != nil {
			return nil, nil, err
		}
		playlists = scanned
	}

	units, err := m.builder(tempDir).Build(playlists)
	if err != nil {
		return nil, nil, err
	}

	var (
		containers []string
		outcomes   []engine.Outcome
		errs       []error
	)
	for _, u := range units {
		unitCtx := services.WithPlaylist(ctx, filepath.Base(u.Playlist))
		o := m.engine.RunUnit(unitCtx, u)
		outcomes = append(outcomes, o)
		logUnit(logging.WithContext(unitCtx, m.logger), o)
		if o.Succeeded() {
			containers = append(containers, o.Outputs...)
			continue
		}
		errs = append(errs, o.Err)
		if services.Fatal(o.Err) {
			break
		}
	}
	if len(errs) == 0 && len(units) > 0 && len(containers) == 0 {
		var skipped []error
		for _, o := range outcomes {
			if o.Ignored {
				skipped = append(skipped, o.Err)
			}
		}
		return nil, outcomes, services.Wrap(services.ErrMux, "mux", "units", "no unit produced a container", errors.Join(skipped...))
	}
	return containers, outcomes, errors.Join(errs...)
}

func logUnit(logger *slog.Logger, o engine.Outcome) {
	attrs := []logging.Attr{
		logging.String("unit", o.Unit.Name()),
		logging.String("state", o.State.String()),
		logging.Int("outputs", len(o.Outputs)),
		logging.Duration("elapsed", o.Duration),
	}
	switch {
	case o.Degraded:
		logging.WarnWithContext(logger, "unit kept split outputs", "unit_degraded",
			append(attrs,
				logging.String(logging.FieldErrorHint, "join the parts manually with mkvmerge"),
				logging.String(logging.FieldImpact, "title is delivered in several files"),
			)...)
	case o.Ignored:
		logging.WarnWithContext(logger, "unit skipped", "unit_skipped",
			append(attrs,
				logging.Error(o.Err),
				logging.String(logging.FieldImpact, "clip missing from output"),
			)...)
	case o.Succeeded():
		logger.Info("unit finished", logging.Args(attrs...)...)
	default:
		logging.WarnWithContext(logger, "unit failed", "unit_failed",
			append(attrs,
				logging.Error(o.Err),
				logging.String(logging.FieldImpact, "title missing from output"),
			)...)
	}
}

func (m *Manager) finish(logger *slog.Logger, outcome InputOutcome, err error) InputOutcome {
	outcome.Err = err
	outcome.Status = statusFor(err)
	outcome.Duration = time.Since(outcome.Started)
	if err != nil {
		logging.ErrorWithContext(logger, "input failed", "input_failed",
			logging.String("error_kind", services.Kind(err)),
			logging.Int("outputs", len(outcome.Outputs)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return outcome
	}
	logger.Info("input finished",
		logging.Int("outputs", len(outcome.Outputs)),
		logging.Duration("elapsed", outcome.Duration),
		logging.String(logging.FieldEventType, "input_complete"),
	)
	return outcome
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrCanceled):
		return "re-run the input"
	case errors.Is(err, services.ErrOutputExists):
		return "set workflow.overwrite or remove the existing output"
	case errors.Is(err, services.ErrNoPlaylists):
		return "point bdremux at the disc root or a playlist"
	case errors.Is(err, services.ErrUnsupportedFPS):
		return "extend video.allowed_fps if the rate is intended"
	case errors.Is(err, services.ErrNonProgressive):
		return "disable video.progressive_only to accept interlaced video"
	case errors.Is(err, services.ErrDirectoryCreate):
		return "check paths.temp_dir and paths.output_dir permissions"
	default:
		return "inspect the kept temp directory and the log"
	}
}
