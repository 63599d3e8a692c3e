package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"bdremux/internal/converter"
)

const stderrTailLines = 20

// Process is a started command.
type Process interface {
	// Wait blocks until the process exits. A normal exit reports its code
	// with a nil error; termination by signal or a wait failure reports -1
	// and an error.
	Wait() (int, error)
	// Terminate asks the process and its children to stop.
	Terminate() error
	// Stderr returns the last lines the process wrote to standard error.
	Stderr() string
}

// Executor starts commands. Tests inject stubs through WithExecutor.
type Executor interface {
	Start(ctx context.Context, c *converter.Converter) (Process, error)
}

type processExecutor struct{}

func (processExecutor) Start(ctx context.Context, c *converter.Converter) (Process, error) {
	cmd := exec.Command(c.Program, c.Args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	tail := &tailBuffer{max: stderrTailLines}
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Program, err)
	}
	p := &process{cmd: cmd, tail: tail, done: make(chan struct{})}
	go p.watch(ctx)
	return p, nil
}

type process struct {
	cmd  *exec.Cmd
	tail *tailBuffer
	done chan struct{}
	once sync.Once
	code int
	err  error
}

// watch terminates the process group when ctx ends first.
func (p *process) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = p.Terminate()
	case <-p.done:
	}
}

func (p *process) Wait() (int, error) {
	p.once.Do(func() {
		err := p.cmd.Wait()
		close(p.done)
		if err == nil {
			return
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			p.code = exitErr.ExitCode()
			return
		}
		p.code = -1
		p.err = err
	})
	return p.code, p.err
}

func (p *process) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := unix.Kill(-p.cmd.Process.Pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal process group: %w", err)
	}
	return nil
}

func (p *process) Stderr() string {
	return p.tail.String()
}

// tailBuffer keeps the last max lines written to it.
type tailBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial strings.Builder
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range string(b) {
		if c == '\n' || c == '\r' {
			t.flush()
			continue
		}
		t.partial.WriteRune(c)
	}
	return len(b), nil
}

func (t *tailBuffer) flush() {
	line := strings.TrimSpace(t.partial.String())
	t.partial.Reset()
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := append([]string(nil), t.lines...)
	if rest := strings.TrimSpace(t.partial.String()); rest != "" {
		lines = append(lines, rest)
	}
	return strings.Join(lines, "\n")
}
