package preflight

import (
	"bdremux/internal/config"
	"bdremux/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Required results block a run when they fail.
	Required bool
	Detail   string
}

// RunAll checks the directories a run writes into and the external binaries
// it invokes.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		required(CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir)),
		required(CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir)),
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		results = append(results, FromStatus(status))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Required && !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// FromStatus converts a binary availability status into a preflight result.
func FromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Required: !status.Optional}
	switch {
	case status.Available:
		result.Detail = status.Path
	case status.Optional:
		result.Detail = status.Detail + " (optional)"
	default:
		result.Detail = status.Detail
	}
	return result
}

func required(r Result) Result {
	r.Required = true
	return r
}
