package workflow

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bdremux/internal/dedup"
	"bdremux/internal/fileutil"
	"bdremux/internal/logging"
	"bdremux/internal/media/mediainfo"
	"bdremux/internal/media/mkvmerge"
	"bdremux/internal/services"
	"bdremux/internal/tracks"
)

// remuxContainer decides on the tracks of source, converts what needs
// converting and writes the final container into outputDir. The final mux
// lands in tempDir first so outputDir never holds a partial file.
func (m *Manager) remuxContainer(ctx context.Context, source, tempDir, outputDir string) (string, error) {
	name := filepath.Base(source)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	logger := logging.WithContext(ctx, m.logger).With(logging.String("container", name))

	output := filepath.Join(outputDir, stem+".mkv")
	if fileutil.Exists(output) {
		if !m.cfg.Workflow.Overwrite {
			return "", services.Wrap(services.ErrOutputExists, "final", "output", output, nil)
		}
		logger.Info("overwriting existing output", logging.String("output", output))
	}

	ident, err := mkvmerge.Identify(ctx, m.runner, m.cfg.Tools.Mkvmerge, source)
	if err != nil {
		return "", services.Wrap(services.ErrIdentification, "identify", "mkvmerge", name, err)
	}
	info, err := mediainfo.Inspect(ctx, m.runner, m.cfg.Tools.Mediainfo, source)
	if err != nil {
		return "", services.Wrap(services.ErrIdentification, "identify", "mediainfo", name, err)
	}

	decision, err := tracks.Decide(ident.Tracks, info, m.policy, tracks.Target{Source: source, TempDir: tempDir})
	if err != nil {
		return "", err
	}
	logDecision(logger, ident.Tracks, decision)
	mods := decision.Mods

	if cmd := tracks.ExtractCommand(m.tools, source, decision.Audio); cmd != nil {
		if err := m.engine.Run(ctx, cmd); err != nil {
			return "", services.Wrap(services.ErrExtraction, "extract", "ffmpeg", name, err)
		}
	}
	jobs, err := m.dedupe(ctx, logger, mods, decision.Audio)
	if err != nil {
		return "", err
	}
	if err := m.encode(ctx, logger, mods, jobs); err != nil {
		return "", err
	}
	if v := decision.Video; v != nil {
		if err := m.engine.Run(ctx, v.Command(m.tools, source)); err != nil {
			return "", services.Wrap(services.ErrSubTask, "video", "ffmpeg", name, err)
		}
	}

	staged := filepath.Join(tempDir, "final", stem+".mkv")
	if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
		return "", services.Wrap(services.ErrDirectoryCreate, "final", "directory", filepath.Dir(staged), err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrSubTask, "final", "output directory", outputDir, err)
	}
	if err := m.engine.Run(ctx, tracks.FinalMux(m.tools, source, staged, mods)); err != nil {
		return "", services.Wrap(services.ErrMux, "final", "mkvmerge", output, err)
	}
	if err := fileutil.MoveFile(staged, output); err != nil {
		_ = fileutil.RemoveIfExists(staged)
		return "", services.Wrap(services.ErrMux, "final", "publish", output, err)
	}
	logger.Info("output written",
		logging.String("output", output),
		logging.String(logging.FieldEventType, "output_written"),
	)
	return output, nil
}

// dedupe hashes every extracted source in the pool and drops duplicates once
// all hashes are in. A track whose source cannot be hashed is copied instead.
func (m *Manager) dedupe(ctx context.Context, logger *slog.Logger, mods []tracks.Modification, jobs []tracks.AudioJob) ([]tracks.AudioJob, error) {
	if len(jobs) < 2 {
		return jobs, nil
	}
	sums := make([]uint64, len(jobs))
	work := make([]func(context.Context) error, len(jobs))
	for i, job := range jobs {
		work[i] = func(ctx context.Context) error {
			sum, err := m.hasher.Hash(ctx, job.Source)
			if err != nil {
				return services.Wrap(services.ErrHashValidation, "dedup", "hash", filepath.Base(job.Source), err)
			}
			sums[i] = sum
			return nil
		}
	}
	errs := m.engine.RunPool(ctx, 0, work)

	hashes := make(map[int]uint64, len(jobs))
	valid := make([]tracks.AudioJob, 0, len(jobs))
	for i, err := range errs {
		if err != nil {
			if errors.Is(err, services.ErrCanceled) {
				return nil, err
			}
			m.fallbackToCopy(logger, mods, jobs[i], err)
			continue
		}
		hashes[jobs[i].Track] = sums[i]
		valid = append(valid, jobs[i])
	}
	_, kept := dedup.Dedupe(mods, valid, hashes, m.logger)
	return kept, nil
}

// encode runs every job's commands in the pool. Failed jobs fall back to
// copying the source track.
func (m *Manager) encode(ctx context.Context, logger *slog.Logger, mods []tracks.Modification, jobs []tracks.AudioJob) error {
	work := make([]func(context.Context) error, len(jobs))
	for i, job := range jobs {
		work[i] = func(ctx context.Context) error {
			for _, cmd := range job.EncodeCommands(m.tools) {
				if err := m.engine.Run(ctx, cmd); err != nil {
					return err
				}
			}
			return nil
		}
	}
	errs := m.engine.RunPool(ctx, 0, work)
	for i, err := range errs {
		if err == nil {
			_ = fileutil.RemoveIfExists(jobs[i].Source)
			continue
		}
		if errors.Is(err, services.ErrCanceled) {
			return err
		}
		m.fallbackToCopy(logger, mods, jobs[i], err)
	}
	return nil
}

func (m *Manager) fallbackToCopy(logger *slog.Logger, mods []tracks.Modification, job tracks.AudioJob, cause error) {
	if job.Track >= 0 && job.Track < len(mods) {
		if err := mods[job.Track].Revert(); err != nil {
			logger.Debug("failed to delete converted audio", logging.Error(err))
		}
	}
	_ = fileutil.RemoveIfExists(job.Source)
	logging.WarnWithContext(logger, "audio conversion failed; copying source track", "audio_fallback",
		logging.Int("track", job.TrackID),
		logging.String("codec", job.Codec),
		logging.String("error_kind", services.Kind(cause)),
		logging.Error(cause),
		logging.String(logging.FieldImpact, "track kept in its original codec"),
	)
}

func logDecision(logger *slog.Logger, list []mkvmerge.Track, d tracks.Decision) {
	for i, mod := range d.Mods {
		attrs := logging.DecisionAttrs("track", mod.Action.String(), string(mod.Reason))
		attrs = append(attrs, logging.Int("track", mod.TrackID), logging.String("type", mod.Type))
		if i < len(list) {
			attrs = append(attrs, logging.String("source", tracks.Summary(list[i])))
		}
		logger.Debug("track decision", logging.Args(attrs...)...)
	}
	logger.Info("tracks decided",
		logging.Int("tracks", len(d.Mods)),
		logging.Int("audio_jobs", len(d.Audio)),
		logging.Bool("video_reencode", d.Video != nil),
		logging.String("primary_language", d.Primary),
		logging.Bool("language_relaxed", d.Relaxed),
	)
}
