package mpls

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bdremux/internal/logging"
	"bdremux/internal/services"
)

// Scanner resolves which playlists of a disc represent distinct titles.
type Scanner struct {
	parser Parser
	logger *slog.Logger
}

// NewScanner constructs a scanner backed by parser.
func NewScanner(parser Parser, logger *slog.Logger) *Scanner {
	return &Scanner{parser: parser, logger: logging.NewComponentLogger(logger, "scanner")}
}

// PlaylistDir locates the PLAYLIST directory of a disc root. Both the disc
// root and the BDMV directory itself are accepted.
func PlaylistDir(root string) (string, bool) {
	for _, candidate := range []string{
		filepath.Join(root, "BDMV", "PLAYLIST"),
		filepath.Join(root, "PLAYLIST"),
	} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Scan parses every playlist under root and returns the distinct titles
// sorted by file name. Playlists that fail to parse are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Mpls, error) {
	dir, ok := PlaylistDir(root)
	if !ok {
		return nil, services.Wrap(services.ErrNoPlaylists, "scan", "locate", fmt.Sprintf("no PLAYLIST directory under %s", root), nil)
	}
	files, err := listPlaylists(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrNoPlaylists, "scan", "list", dir, err)
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrNoPlaylists, "scan", "list", fmt.Sprintf("%s is empty", dir), nil)
	}

	parsed := make([]Mpls, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrCanceled, "scan", "parse", "", err)
		}
		m, err := s.parser.Parse(ctx, path)
		if err != nil {
			logging.WarnWithContext(s.logger, "playlist parse failed; skipping", "playlist_parse_failed",
				logging.String(logging.FieldPlaylist, filepath.Base(path)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "playlist excluded from remux"),
			)
			continue
		}
		parsed = append(parsed, m)
	}
	if len(parsed) == 0 {
		return nil, services.Wrap(services.ErrNoPlaylists, "scan", "parse", fmt.Sprintf("no playlist in %s could be parsed", dir), nil)
	}

	result := Fold(parsed)
	s.logger.Info("playlists scanned",
		logging.String("dir", dir),
		logging.Int("parsed", len(parsed)),
		logging.Int("retained", len(result)),
	)
	return result, nil
}

func listPlaylists(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mpls") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Fold removes duplicate playlists and returns the survivors sorted by file
// name.
//
// Playlists are split into single-clip and multi-clip sets and duplicates are
// folded within each set, keeping the candidate with more chapters. A
// multi-clip playlist whose clips are all covered by retained single-clip
// playlists is dropped. The reverse case is left alone.
func Fold(playlists []Mpls) []Mpls {
	var singles, multis []Mpls
	for _, m := range playlists {
		if m.SingleClip() {
			singles = append(singles, m)
		} else {
			multis = append(multis, m)
		}
	}
	singles = foldDuplicates(singles)
	multis = foldDuplicates(multis)

	covered := make(map[string]struct{}, len(singles))
	for _, m := range singles {
		covered[m.Clips[0]] = struct{}{}
	}
	result := append([]Mpls(nil), singles...)
	for _, m := range multis {
		if coveredBy(m, covered) {
			continue
		}
		result = append(result, m)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

func foldDuplicates(playlists []Mpls) []Mpls {
	index := make(map[string]int, len(playlists))
	out := make([]Mpls, 0, len(playlists))
	for _, m := range playlists {
		key := m.Key()
		pos, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, m)
			continue
		}
		if m.ChapterCount > out[pos].ChapterCount {
			out[pos] = m
		}
	}
	return out
}

func coveredBy(m Mpls, covered map[string]struct{}) bool {
	if len(covered) == 0 {
		return false
	}
	for _, clip := range m.Clips {
		if _, ok := covered[clip]; !ok {
			return false
		}
	}
	return true
}
