package converter

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Converter describes one external command: the program, its arguments and
// the files it reads and writes. It is pure data; the engine decides when and
// how it runs.
type Converter struct {
	// Name labels the step in logs and history (mux, split, join, extract, encode).
	Name    string
	Program string
	Args    []string
	Inputs  []string
	Outputs []string
}

// New builds a converter for program with the provided arguments.
func New(name, program string, args ...string) *Converter {
	return &Converter{Name: name, Program: program, Args: append([]string(nil), args...)}
}

// WithInputs records the files the command reads.
func (c *Converter) WithInputs(paths ...string) *Converter {
	c.Inputs = append(c.Inputs, paths...)
	return c
}

// WithOutputs records the files the command writes. The engine removes them
// when the command fails.
func (c *Converter) WithOutputs(paths ...string) *Converter {
	c.Outputs = append(c.Outputs, paths...)
	return c
}

// String renders the command line with shell quoting, for logs.
func (c *Converter) String() string {
	if c == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Program))
	for _, arg := range c.Args {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\$`!*?[]()<>|;&#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// Runner executes a short-lived command and returns its standard output.
// Identification tools (mkvmerge -J, mediainfo) are invoked through it.
type Runner interface {
	Output(ctx context.Context, program string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Output runs program and returns stdout. Stderr is folded into the error.
func (ExecRunner) Output(ctx context.Context, program string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, program, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", program, err, msg)
		}
		return out, fmt.Errorf("%s: %w", program, err)
	}
	return out, nil
}
