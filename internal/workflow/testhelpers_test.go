package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bdremux/internal/config"
	"bdremux/internal/converter"
	"bdremux/internal/engine"
	"bdremux/internal/history"
	"bdremux/internal/logging"
	"bdremux/internal/mpls"
)

const progressiveMediainfo = `{"media":{"track":[{"@type":"General"},{"@type":"Video","StreamOrder":"0","FrameRate":"23.976","ScanType":"Progressive"}]}}`

func identifyJSON(tracks ...string) string {
	return `{"container":{"recognized":true,"supported":true,"type":"Matroska"},"tracks":[` + strings.Join(tracks, ",") + `]}`
}

func videoJSON(id int) string {
	return fmt.Sprintf(`{"id":%d,"type":"video","codec":"AVC/H.264/MPEG-4p10"}`, id)
}

func audioJSON(id int, codec, lang string, channels int) string {
	return fmt.Sprintf(`{"id":%d,"type":"audio","codec":%q,"properties":{"language":%q,"audio_channels":%d,"audio_bits_per_sample":24}}`,
		id, codec, lang, channels)
}

func subtitleJSON(id int, lang string, frames int) string {
	return fmt.Sprintf(`{"id":%d,"type":"subtitles","codec":"HDMV PGS","properties":{"language":%q,"tag_number_of_frames":"%d"}}`,
		id, lang, frames)
}

// stubRunner answers mkvmerge -J by the identified file's base name and
// mediainfo with a fixed progressive video payload.
type stubRunner struct {
	identify map[string]string
	fallback string
}

func (r stubRunner) Output(_ context.Context, program string, args ...string) ([]byte, error) {
	path := args[len(args)-1]
	switch program {
	case "mkvmerge":
		if payload, ok := r.identify[filepath.Base(path)]; ok {
			return []byte(payload), nil
		}
		if r.fallback != "" {
			return []byte(r.fallback), nil
		}
		return nil, fmt.Errorf("no identification for %s", path)
	case "mediainfo":
		return []byte(progressiveMediainfo), nil
	default:
		return nil, fmt.Errorf("unexpected program %s", program)
	}
}

// stubExecutor records every command and writes its declared outputs.
type stubExecutor struct {
	mu    sync.Mutex
	calls []*converter.Converter
	code  func(c *converter.Converter) int
}

type stubProcess struct{ code int }

func (p stubProcess) Wait() (int, error) { return p.code, nil }
func (p stubProcess) Terminate() error   { return nil }
func (p stubProcess) Stderr() string     { return "stub failure" }

func (s *stubExecutor) Start(_ context.Context, c *converter.Converter) (engine.Process, error) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	for _, out := range c.Outputs {
		_ = os.MkdirAll(filepath.Dir(out), 0o755)
		_ = os.WriteFile(out, []byte(c.Name), 0o644)
	}
	code := 0
	if s.code != nil {
		code = s.code(c)
	}
	return stubProcess{code: code}, nil
}

func (s *stubExecutor) named(name string) []*converter.Converter {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*converter.Converter
	for _, c := range s.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// stubHasher hashes by the source file suffix.
type stubHasher struct {
	sums map[string]uint64
	errs map[string]error
}

func (h stubHasher) Hash(_ context.Context, path string) (uint64, error) {
	for suffix, err := range h.errs {
		if strings.HasSuffix(path, suffix) {
			return 0, err
		}
	}
	for suffix, sum := range h.sums {
		if strings.HasSuffix(path, suffix) {
			return sum, nil
		}
	}
	return 0, errors.New("unknown source")
}

type stubParser map[string]mpls.Mpls

func (p stubParser) Parse(_ context.Context, path string) (mpls.Mpls, error) {
	m, ok := p[filepath.Base(path)]
	if !ok {
		return mpls.Mpls{}, errors.New("unparseable")
	}
	m.Path = path
	return m, nil
}

type memRecorder struct {
	mu   sync.Mutex
	rows []history.Input
}

func (r *memRecorder) Record(_ context.Context, in history.Input) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, in)
	return int64(len(r.rows)), nil
}

type fixture struct {
	base     string
	cfg      *config.Config
	exec     *stubExecutor
	recorder *memRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Workflow.StaleTempHours = 0
	return &fixture{base: base, cfg: &cfg, exec: &stubExecutor{}, recorder: &memRecorder{}}
}

func (f *fixture) manager(opts ...Option) *Manager {
	eng := engine.New(engine.WithExecutor(f.exec), engine.WithWorkers(2))
	opts = append([]Option{WithRecorder(f.recorder), WithSessionID("session-1")}, opts...)
	return NewManager(f.cfg, eng, logging.NewNop(), opts...)
}

func writeFile(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func tempDirs(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read temp root: %v", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}
