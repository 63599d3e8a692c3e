package dedup

import (
	"log/slog"
	"sort"

	"bdremux/internal/fileutil"
	"bdremux/internal/logging"
	"bdremux/internal/tracks"
)

// Dedupe downgrades every job whose source hash repeats an earlier track's
// hash to Remove(duplicateAudioHash) and returns the revised modifications
// with the jobs that remain. Jobs without a hash are kept. mods is modified
// in place.
func Dedupe(mods []tracks.Modification, jobs []tracks.AudioJob, hashes map[int]uint64, logger *slog.Logger) ([]tracks.Modification, []tracks.AudioJob) {
	logger = logging.NewComponentLogger(logger, "dedup")

	ordered := append([]tracks.AudioJob(nil), jobs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Track < ordered[j].Track })

	first := make(map[uint64]int, len(ordered))
	kept := make([]tracks.AudioJob, 0, len(ordered))
	for _, job := range ordered {
		sum, ok := hashes[job.Track]
		if !ok {
			kept = append(kept, job)
			continue
		}
		owner, seen := first[sum]
		if !seen {
			first[sum] = job.Track
			kept = append(kept, job)
			continue
		}
		if job.Track < 0 || job.Track >= len(mods) {
			continue
		}
		if err := mods[job.Track].Remove(tracks.ReasonDuplicateAudioHash); err != nil {
			logging.WarnWithContext(logger, "failed to delete duplicate audio files", "dedup_cleanup_failed",
				logging.Int("track", job.TrackID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "temporary files left behind"),
			)
		}
		_ = fileutil.RemoveIfExists(job.Source)
		logger.Info("duplicate audio removed",
			logging.Int("track", job.TrackID),
			logging.Int("duplicate_of", mods[owner].TrackID),
			logging.String(logging.FieldDecisionType, "audio_dedup"),
		)
	}
	return mods, kept
}
