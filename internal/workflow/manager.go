package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bdremux/internal/config"
	"bdremux/internal/converter"
	"bdremux/internal/dedup"
	"bdremux/internal/engine"
	"bdremux/internal/history"
	"bdremux/internal/logging"
	"bdremux/internal/mpls"
	"bdremux/internal/staging"
	"bdremux/internal/tasks"
	"bdremux/internal/tracks"
)

// Recorder persists input outcomes.
type Recorder interface {
	Record(ctx context.Context, in history.Input) (int64, error)
}

// Manager runs top-level inputs through the pipeline.
type Manager struct {
	cfg       *config.Config
	engine    *engine.Engine
	logger    *slog.Logger
	runner    converter.Runner
	parser    mpls.Parser
	hasher    dedup.Hasher
	recorder  Recorder
	sessionID string

	tools  tracks.Tools
	policy tracks.Policy
	keep   staging.KeepPolicy
}

// Option configures a Manager.
type Option func(*Manager)

// WithRunner sets the runner used for identification commands.
func WithRunner(r converter.Runner) Option {
	return func(m *Manager) {
		if r != nil {
			m.runner = r
		}
	}
}

// WithParser replaces the playlist parser.
func WithParser(p mpls.Parser) Option {
	return func(m *Manager) {
		if p != nil {
			m.parser = p
		}
	}
}

// WithHasher replaces the decoded-audio hasher.
func WithHasher(h dedup.Hasher) Option {
	return func(m *Manager) {
		if h != nil {
			m.hasher = h
		}
	}
}

// WithRecorder enables history recording.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithSessionID sets the session id stored with history rows.
func WithSessionID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.sessionID = id
		}
	}
}

// NewManager constructs a manager executing through eng.
func NewManager(cfg *config.Config, eng *engine.Engine, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:       cfg,
		engine:    eng,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		runner:    converter.ExecRunner{},
		sessionID: uuid.NewString(),
		tools:     tracks.ToolsFromConfig(cfg),
		policy:    tracks.PolicyFromConfig(cfg),
		keep:      staging.ParseKeepPolicy(cfg.KeepTempPolicy()),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.parser == nil {
		m.parser = mpls.MkvmergeParser{Binary: cfg.Tools.Mkvmerge, Runner: m.runner}
	}
	if m.hasher == nil {
		m.hasher = dedup.FFmpegHasher{Binary: cfg.Tools.FFmpeg}
	}
	return m
}

// Run processes inputs in order. The returned error is non-nil only for
// failures that abort the run; the Summary holds every input processed so
// far either way.
func (m *Manager) Run(ctx context.Context, inputs []string) (Summary, error) {
	started := time.Now()
	summary := Summary{SessionID: m.sessionID}

	root, err := staging.Open(m.cfg.Paths.TempDir, m.logger)
	if err != nil {
		logging.ErrorWithContext(m.logger, "temp root unavailable", "temp_root_failed",
			logging.String("path", m.cfg.Paths.TempDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.temp_dir or stop the other bdremux run"),
		)
		return summary, err
	}
	defer func() {
		if err := root.Close(); err != nil {
			m.logger.Debug("temp root unlock failed", logging.Error(err))
		}
	}()

	if hours := m.cfg.Workflow.StaleTempHours; hours > 0 {
		result := staging.CleanStale(ctx, root.Path(), time.Duration(hours)*time.Hour, m.logger)
		if len(result.Removed) > 0 {
			m.logger.Info("stale temp directories removed", logging.Int("count", len(result.Removed)))
		}
	}

	m.logger.Info("run started",
		logging.Int("inputs", len(inputs)),
		logging.String("mux_mode", m.cfg.Mux.Mode),
		logging.Int("workers", m.engine.Workers()),
		logging.String(logging.FieldEventType, "run_start"),
	)

	var fatal error
	for _, path := range inputs {
		if fatal != nil || m.engine.Terminated() || ctx.Err() != nil {
			summary.Inputs = append(summary.Inputs, canceledOutcome(path))
			continue
		}
		outcome, err := m.processInput(ctx, root, path)
		summary.Inputs = append(summary.Inputs, outcome)
		m.record(ctx, outcome)
		if err != nil {
			fatal = err
		}
	}
	summary.Duration = time.Since(started)

	m.logger.Info("run finished",
		logging.Int("succeeded", summary.Succeeded()),
		logging.Int("failed", summary.Failed()),
		logging.Duration("elapsed", summary.Duration),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return summary, fatal
}

func (m *Manager) builder(tempDir string) *tasks.Builder {
	return tasks.NewBuilder(tasks.Options{
		Mkvmerge:     m.cfg.Tools.Mkvmerge,
		TempDir:      tempDir,
		Mode:         tasks.ParseMode(m.cfg.Mux.Mode),
		ChapterSplit: m.cfg.Mux.ChapterSplit,
	}, m.logger)
}

func (m *Manager) record(ctx context.Context, outcome InputOutcome) {
	if m.recorder == nil {
		return
	}
	// Recording must survive a terminated run.
	ctx = context.WithoutCancel(ctx)
	if _, err := m.recorder.Record(ctx, outcome.historyRow(m.sessionID)); err != nil {
		logging.WarnWithContext(m.logger, "failed to record history", "history_record_failed",
			logging.String(logging.FieldInput, outcome.Input),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from bdremux history"),
		)
	}
}
