package workflow

import (
	"errors"
	"time"

	"bdremux/internal/engine"
	"bdremux/internal/history"
	"bdremux/internal/services"
)

// InputOutcome is the result of one top-level input.
type InputOutcome struct {
	Input   string
	Kind    InputKind
	Status  history.Status
	Err     error
	Outputs []string
	Units   []engine.Outcome
	// TempDir is set when the temp directory was kept.
	TempDir  string
	Started  time.Time
	Duration time.Duration
}

// Succeeded reports whether the input produced its outputs without failure.
func (o InputOutcome) Succeeded() bool {
	return o.Status == history.StatusSuccess
}

// Degraded reports whether any unit fell back to split outputs.
func (o InputOutcome) Degraded() bool {
	for _, u := range o.Units {
		if u.Degraded {
			return true
		}
	}
	return false
}

// Skipped counts optional units whose mux failed and were left out.
func (o InputOutcome) Skipped() int {
	n := 0
	for _, u := range o.Units {
		if u.Ignored {
			n++
		}
	}
	return n
}

func (o InputOutcome) historyRow(sessionID string) history.Input {
	row := history.Input{
		SessionID: sessionID,
		Path:      o.Input,
		Status:    o.Status,
		Outputs:   o.Outputs,
		StartedAt: o.Started,
		Duration:  o.Duration,
	}
	if o.Err != nil {
		row.ErrorKind = services.Kind(o.Err)
		row.Error = o.Err.Error()
	}
	for _, u := range o.Units {
		unit := history.Unit{
			Name:     u.Unit.Name(),
			State:    u.State.String(),
			Degraded: u.Degraded,
			Outputs:  u.Outputs,
			Duration: u.Duration,
		}
		if u.Ignored {
			unit.State = "skipped"
		}
		if u.Err != nil {
			unit.Error = u.Err.Error()
		}
		row.Units = append(row.Units, unit)
	}
	return row
}

func statusFor(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusSuccess
	case errors.Is(err, services.ErrCanceled):
		return history.StatusCanceled
	default:
		return history.StatusFailed
	}
}

func canceledOutcome(path string) InputOutcome {
	err := services.Wrap(services.ErrCanceled, "workflow", "input", "run aborted before this input", nil)
	return InputOutcome{Input: path, Status: history.StatusCanceled, Err: err, Started: time.Now()}
}

// Summary collects every input outcome of a run.
type Summary struct {
	SessionID string
	Inputs    []InputOutcome
	Duration  time.Duration
}

// Succeeded counts successful inputs.
func (s Summary) Succeeded() int {
	n := 0
	for _, in := range s.Inputs {
		if in.Succeeded() {
			n++
		}
	}
	return n
}

// Failed counts inputs that did not succeed, canceled ones included.
func (s Summary) Failed() int {
	return len(s.Inputs) - s.Succeeded()
}
