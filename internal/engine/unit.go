package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bdremux/internal/logging"
	"bdremux/internal/services"
	"bdremux/internal/tasks"
)

// State is a Work Unit state.
type State int

const (
	StatePending State = iota
	StateRunningMain
	StateMainFailed
	StateRunningSplitWorkers
	StateRunningJoin
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunningMain:
		return "running_main"
	case StateMainFailed:
		return "main_failed"
	case StateRunningSplitWorkers:
		return "running_split_workers"
	case StateRunningJoin:
		return "running_join"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the final result of one Work Unit.
type Outcome struct {
	Unit     tasks.WorkUnit
	State    State
	Outputs  []string
	// Degraded marks a success whose outputs are the split files because
	// the join could not be completed.
	Degraded bool
	// Ignored marks an optional unit whose mux failed. Err keeps the failure.
	Ignored  bool
	Err      error
	// Trace lists the states the unit passed through.
	Trace    []State
	Duration time.Duration
}

// Succeeded reports whether the unit ended in StateSuccess.
func (o Outcome) Succeeded() bool {
	return o.State == StateSuccess
}

type unitRun struct {
	outcome Outcome
	started time.Time
}

func (r *unitRun) enter(s State) {
	r.outcome.State = s
	r.outcome.Trace = append(r.outcome.Trace, s)
}

func (r *unitRun) succeed(outputs []string) Outcome {
	r.enter(StateSuccess)
	r.outcome.Outputs = outputs
	r.outcome.Duration = time.Since(r.started)
	return r.outcome
}

func (r *unitRun) fail(err error) Outcome {
	r.enter(StateFailed)
	r.outcome.Err = err
	r.outcome.Duration = time.Since(r.started)
	return r.outcome
}

// RunUnit drives u through its state machine. The split workers run one at a
// time and the first failing worker fails the unit.
func (e *Engine) RunUnit(ctx context.Context, u tasks.WorkUnit) Outcome {
	ctx = services.WithPlaylist(ctx, u.Playlist)
	logger := logging.WithContext(ctx, e.logger).With(logging.String("unit", u.Name()))
	run := &unitRun{outcome: Outcome{Unit: u}, started: time.Now()}
	run.enter(StatePending)

	if e.Terminated() {
		return run.fail(e.canceled("mux"))
	}

	run.enter(StateRunningMain)
	mainErr := e.Run(ctx, u.Main)
	if mainErr == nil {
		outputs, err := e.mainOutputs(u)
		if err != nil {
			return run.fail(services.Wrap(services.ErrMux, "mux", "collect outputs", u.Name(), err))
		}
		logger.Info("unit muxed", logging.Int("outputs", len(outputs)))
		return run.succeed(outputs)
	}

	run.enter(StateMainFailed)
	if u.ChapterSplit {
		e.removeChapterSplitParts(logger, u)
	}
	if errors.Is(mainErr, services.ErrCanceled) || e.Terminated() {
		return run.fail(e.canceled("mux"))
	}
	if u.Ignorable {
		logging.WarnWithContext(logger, "optional mux failed; skipping", "mux_ignored",
			logging.Error(mainErr),
			logging.String(logging.FieldImpact, "clip left out of the output"),
		)
		run.outcome.Ignored = true
		run.outcome.Err = services.Wrap(services.ErrMux, "mux", "main", u.Name(), mainErr)
		return run.succeed(nil)
	}
	if !u.HasFallback() {
		return run.fail(services.Wrap(services.ErrMux, "mux", "main", u.Name(), mainErr))
	}

	logging.WarnWithContext(logger, "direct mux failed; falling back to split and join", "mux_fallback",
		logging.Error(mainErr),
		logging.Int("split_workers", len(u.Splits)),
		logging.String(logging.FieldImpact, "playlist muxed clip by clip"),
	)
	run.enter(StateRunningSplitWorkers)
	for _, split := range u.Splits {
		if e.Terminated() {
			return run.fail(e.canceled("split"))
		}
		if err := e.Run(ctx, split); err != nil {
			if errors.Is(err, services.ErrCanceled) {
				return run.fail(err)
			}
			return run.fail(services.Wrap(services.ErrMux, "split", "worker", split.String(), err))
		}
	}

	if e.Terminated() {
		return run.fail(e.canceled("join"))
	}
	run.enter(StateRunningJoin)
	joinErr := e.Run(ctx, u.Join)
	if joinErr == nil {
		return run.succeed(append([]string(nil), u.Join.Outputs...))
	}
	if errors.Is(joinErr, services.ErrCanceled) {
		return run.fail(joinErr)
	}
	var step *StepError
	if errors.As(joinErr, &step) && (step.Launch != nil || step.Code == e.joinFailureCode) {
		logging.WarnWithContext(logger, "join failed; keeping split outputs", "join_degraded",
			logging.Error(joinErr),
			logging.Int("parts", len(u.SplitOutputs())),
			logging.String(logging.FieldImpact, "title delivered as several files"),
		)
		run.outcome.Degraded = true
		return run.succeed(u.SplitOutputs())
	}
	return run.fail(services.Wrap(services.ErrMux, "join", "run", u.Name(), joinErr))
}

func (e *Engine) removeChapterSplitParts(logger *slog.Logger, u tasks.WorkUnit) {
	if len(u.Main.Outputs) == 0 {
		return
	}
	parts, err := tasks.ChapterSplitOutputs(u.Main.Outputs[0])
	if err != nil {
		logger.Debug("failed to list chapter split parts", logging.Error(err))
		return
	}
	e.removeOutputs(logger, parts)
}

func (e *Engine) mainOutputs(u tasks.WorkUnit) ([]string, error) {
	if !u.ChapterSplit || len(u.Main.Outputs) == 0 {
		return append([]string(nil), u.Main.Outputs...), nil
	}
	outputs, err := tasks.ChapterSplitOutputs(u.Main.Outputs[0])
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("no chapter split files next to %s", u.Main.Outputs[0])
	}
	return outputs, nil
}
