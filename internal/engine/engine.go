package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bdremux/internal/converter"
	"bdremux/internal/fileutil"
	"bdremux/internal/logging"
	"bdremux/internal/services"
)

// DefaultJoinFailureCode is the mkvmerge error exit code.
const DefaultJoinFailureCode = 2

// StepError describes a failed command.
type StepError struct {
	Step    string
	Program string
	// Code is the exit code, -1 when the process did not exit normally.
	Code int
	// Launch is set when the process could not be started or waited on.
	Launch error
	Stderr string
}

func (e *StepError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", e.Step, e.Program)
	if e.Launch != nil {
		fmt.Fprintf(&b, ": %v", e.Launch)
	} else {
		fmt.Fprintf(&b, " exited with code %d", e.Code)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", lastLine(e.Stderr))
	}
	return b.String()
}

func (e *StepError) Unwrap() error {
	return e.Launch
}

// Option configures an Engine.
type Option func(*Engine)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Engine) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIgnoreWarnings widens the allowed exit codes to {0, 1}.
func WithIgnoreWarnings(ignore bool) Option {
	return func(e *Engine) {
		e.allowed = []int{0}
		if ignore {
			e.allowed = []int{0, 1}
		}
	}
}

// WithJoinFailureCode sets the join exit code that yields a degraded success.
func WithJoinFailureCode(code int) Option {
	return func(e *Engine) {
		if code > 1 {
			e.joinFailureCode = code
		}
	}
}

// WithWorkers sets the default pool size.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine runs commands and tracks what Terminate must stop.
type Engine struct {
	exec            Executor
	logger          *slog.Logger
	allowed         []int
	joinFailureCode int
	workers         int

	terminated atomic.Bool

	mu      sync.Mutex
	running map[Process]struct{}
	pools   map[int]context.CancelFunc
	nextID  int
	tempDir string
}

// New constructs an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		exec:            processExecutor{},
		logger:          logging.NewNop(),
		allowed:         []int{0},
		joinFailureCode: DefaultJoinFailureCode,
		workers:         runtime.NumCPU(),
		running:         make(map[Process]struct{}),
		pools:           make(map[int]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "engine")
	return e
}

// Workers returns the default pool size.
func (e *Engine) Workers() int {
	return e.workers
}

// SetTempDir records the active temp directory, removed by Terminate. An
// empty dir clears it.
func (e *Engine) SetTempDir(dir string) {
	e.mu.Lock()
	e.tempDir = dir
	e.mu.Unlock()
}

// Terminated reports whether Terminate was called.
func (e *Engine) Terminated() bool {
	return e.terminated.Load()
}

// Terminate stops the session: running processes are signalled, pools are
// cancelled and the active temp directory is removed best-effort. It is safe
// to call from a signal handler goroutine and more than once.
func (e *Engine) Terminate() {
	if e.terminated.Swap(true) {
		return
	}
	e.mu.Lock()
	procs := make([]Process, 0, len(e.running))
	for p := range e.running {
		procs = append(procs, p)
	}
	cancels := make([]context.CancelFunc, 0, len(e.pools))
	for _, cancel := range e.pools {
		cancels = append(cancels, cancel)
	}
	dir := e.tempDir
	e.mu.Unlock()

	e.logger.Warn("terminating",
		logging.Int("running_processes", len(procs)),
		logging.Int("active_pools", len(cancels)),
		logging.String(logging.FieldEventType, "terminate"),
		logging.String(logging.FieldErrorHint, "re-run the remaining inputs"),
		logging.String(logging.FieldImpact, "in-flight work is discarded"),
	)
	for _, cancel := range cancels {
		cancel()
	}
	for _, p := range procs {
		if err := p.Terminate(); err != nil {
			e.logger.Debug("signal failed", logging.Error(err))
		}
	}
	if dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Debug("temp dir removal failed", logging.String("path", dir), logging.Error(err))
		}
	}
}

func (e *Engine) canceled(stage string) error {
	return services.Wrap(services.ErrCanceled, stage, "run", "terminated", nil)
}

// Run executes c and checks its exit code. Declared outputs are removed when
// the command fails.
func (e *Engine) Run(ctx context.Context, c *converter.Converter) (err error) {
	if c == nil {
		return errors.New("nil command")
	}
	if e.Terminated() {
		return e.canceled(c.Name)
	}
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()
	logger.Debug("command started", logging.String("step", c.Name), logging.String("command", c.String()))

	defer func() {
		if r := recover(); r != nil {
			err = &StepError{Step: c.Name, Program: c.Program, Code: -1, Launch: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			e.removeOutputs(logger, c.Outputs)
		}
	}()

	proc, startErr := e.exec.Start(ctx, c)
	if startErr != nil {
		return &StepError{Step: c.Name, Program: c.Program, Code: -1, Launch: startErr}
	}
	e.track(proc, true)
	if e.Terminated() {
		_ = proc.Terminate()
	}
	code, waitErr := proc.Wait()
	e.track(proc, false)

	if e.Terminated() || ctx.Err() != nil {
		if waitErr != nil || !slices.Contains(e.allowed, code) {
			return e.canceled(c.Name)
		}
	}
	if waitErr != nil {
		return &StepError{Step: c.Name, Program: c.Program, Code: code, Launch: waitErr, Stderr: proc.Stderr()}
	}
	if !slices.Contains(e.allowed, code) {
		return &StepError{Step: c.Name, Program: c.Program, Code: code, Stderr: proc.Stderr()}
	}
	if code != 0 {
		logging.WarnWithContext(logger, "command finished with warnings", "command_warning",
			logging.String("step", c.Name),
			logging.Int("exit_code", code),
			logging.String("stderr", lastLine(proc.Stderr())),
			logging.String(logging.FieldImpact, "output accepted because warnings are tolerated"),
		)
	}
	logger.Debug("command finished",
		logging.String("step", c.Name),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (e *Engine) track(p Process, add bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if add {
		e.running[p] = struct{}{}
		return
	}
	delete(e.running, p)
}

func (e *Engine) removeOutputs(logger *slog.Logger, paths []string) {
	for _, path := range paths {
		if err := fileutil.RemoveIfExists(path); err != nil {
			logger.Debug("failed to remove partial output", logging.String("path", path), logging.Error(err))
		}
	}
}

// RunPool runs jobs on at most workers goroutines (the engine default when
// workers <= 0) and returns once all of them finished. errs is index-aligned
// with jobs. Terminate cancels the context passed to the jobs.
func (e *Engine) RunPool(ctx context.Context, workers int, jobs []func(context.Context) error) []error {
	errs := make([]error, len(jobs))
	if len(jobs) == 0 {
		return errs
	}
	if workers <= 0 {
		workers = e.workers
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	id := e.registerPool(cancel)
	defer e.unregisterPool(id)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		if e.Terminated() || ctx.Err() != nil {
			errs[i] = e.canceled("pool")
			continue
		}
		g.Go(func() error {
			if e.Terminated() || ctx.Err() != nil {
				errs[i] = e.canceled("pool")
				return nil
			}
			errs[i] = job(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (e *Engine) registerPool(cancel context.CancelFunc) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.pools[e.nextID] = cancel
	if e.terminated.Load() {
		cancel()
	}
	return e.nextID
}

func (e *Engine) unregisterPool(id int) {
	e.mu.Lock()
	delete(e.pools, id)
	e.mu.Unlock()
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
