package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bdremux/internal/logging"
	"bdremux/internal/services"
	"bdremux/internal/textutil"
)

const lockFileName = ".bdremux.lock"

// KeepPolicy controls when a temp directory survives its input.
type KeepPolicy string

const (
	KeepAlways    KeepPolicy = "always"
	KeepOnFailure KeepPolicy = "on_failure"
	KeepNever     KeepPolicy = "never"
)

// ParseKeepPolicy maps a configuration value to a KeepPolicy, defaulting to
// KeepOnFailure.
func ParseKeepPolicy(value string) KeepPolicy {
	switch KeepPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case KeepAlways:
		return KeepAlways
	case KeepNever:
		return KeepNever
	default:
		return KeepOnFailure
	}
}

// Keep reports whether a directory is kept for an input that succeeded or not.
func (p KeepPolicy) Keep(succeeded bool) bool {
	switch p {
	case KeepAlways:
		return true
	case KeepNever:
		return false
	default:
		return !succeeded
	}
}

// ErrLocked reports that another run holds the temp root.
var ErrLocked = errors.New("temp root is locked by another run")

// Root is a locked temp root.
type Root struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// Open creates and locks the temp root.
func Open(path string, logger *slog.Logger) (*Root, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrDirectoryCreate, "staging", "open", "temp root not configured", nil)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, services.Wrap(services.ErrDirectoryCreate, "staging", "open", path, err)
	}
	lock := flock.New(filepath.Join(path, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrDirectoryCreate, "staging", "lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrDirectoryCreate, "staging", "lock", path, ErrLocked)
	}
	return &Root{path: path, lock: lock, logger: logging.NewComponentLogger(logger, "staging")}, nil
}

// Path returns the temp root.
func (r *Root) Path() string {
	return r.path
}

// Close releases the lock.
func (r *Root) Close() error {
	if r == nil || r.lock == nil {
		return nil
	}
	if err := r.lock.Unlock(); err != nil {
		return fmt.Errorf("release temp root lock: %w", err)
	}
	_ = os.Remove(r.lock.Path())
	return nil
}

// Dir is the temp directory of one top-level input.
type Dir struct {
	Path  string
	Input string
}

// Create makes a fresh directory for input named after its sanitized base
// name and a random suffix.
func (r *Root) Create(input string) (*Dir, error) {
	base := filepath.Base(strings.TrimRight(input, string(filepath.Separator)))
	name := textutil.SanitizeToken(base) + "-" + uuid.NewString()
	path := filepath.Join(r.path, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, services.Wrap(services.ErrDirectoryCreate, "staging", "create", path, err)
	}
	r.logger.Debug("temp directory created", logging.String("path", path), logging.String(logging.FieldInput, input))
	return &Dir{Path: path, Input: input}, nil
}

// Finish applies policy once the input is done and reports whether the
// directory was removed.
func (r *Root) Finish(d *Dir, policy KeepPolicy, succeeded bool) bool {
	if d == nil {
		return false
	}
	if policy.Keep(succeeded) {
		r.logger.Info("temp directory kept",
			logging.String("path", d.Path),
			logging.String("keep_policy", string(policy)),
			logging.Bool("succeeded", succeeded),
		)
		return false
	}
	if err := os.RemoveAll(d.Path); err != nil {
		logging.WarnWithContext(r.logger, "failed to remove temp directory", "temp_cleanup_failed",
			logging.String("path", d.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return false
	}
	return true
}
