package tracks

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"bdremux/internal/language"
	"bdremux/internal/media/mediainfo"
	"bdremux/internal/media/mkvmerge"
	"bdremux/internal/services"
)

const fpsTolerance = 0.01

// Target names the container being decided on and where job files go.
type Target struct {
	Source  string
	TempDir string
	// Stem prefixes every job file; defaults to the source file name.
	Stem string
}

// Decision is the outcome of Decide. Mods is index-aligned with the input
// track list.
type Decision struct {
	Mods  []Modification
	Audio []AudioJob
	Video *VideoJob
	// Primary is the container's primary language, empty when every audio
	// track is undetermined.
	Primary string
	// Relaxed reports that the language filter admitted the primary
	// language to keep at least one audio track.
	Relaxed bool
}

// Decide returns one Modification per track plus the jobs that produce the
// files of every Replace. Missing video metadata, an unsupported frame rate
// or interlaced video in progressive-only mode fail the whole container.
func Decide(tracks []mkvmerge.Track, info mediainfo.Result, policy Policy, target Target) (Decision, error) {
	if err := checkVideo(tracks, info, policy.Video); err != nil {
		return Decision{}, err
	}
	if strings.TrimSpace(target.Stem) == "" {
		base := filepath.Base(target.Source)
		target.Stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	d := &decider{
		tracks: tracks,
		info:   info,
		policy: policy,
		target: target,
	}
	d.primary = primaryLanguage(tracks)
	d.relaxed = policy.Language.PreventNoAudio && d.primary != "" && d.admittedAudio() == 0

	mods := make([]Modification, len(tracks))
	for i := 0; i < len(tracks); i++ {
		mods[i] = d.decide(i)
		if Classify(tracks[i]) == CodecTrueHD && i+1 < len(tracks) && Classify(tracks[i+1]) == CodecAC3 {
			mods[i+1] = RemoveTrack(tracks[i+1].ID, mkvmerge.TypeAudio, ReasonEmbedAC3InTrueHD)
			i++
		}
	}

	return Decision{
		Mods:    mods,
		Audio:   d.audio,
		Video:   d.video,
		Primary: d.primary,
		Relaxed: d.relaxed,
	}, nil
}

type decider struct {
	tracks  []mkvmerge.Track
	info    mediainfo.Result
	policy  Policy
	target  Target
	primary string
	relaxed bool
	audio   []AudioJob
	video   *VideoJob
}

func (d *decider) decide(i int) Modification {
	track := d.tracks[i]
	if !track.Enabled() && !d.policy.KeepDisabled {
		return RemoveTrack(track.ID, track.Type, ReasonTrackDisabled)
	}
	switch track.Type {
	case mkvmerge.TypeVideo:
		if d.policy.Video.Reencode && d.video == nil {
			return d.scheduleVideo(i)
		}
		return CopyTrack(track.ID, track.Type)
	case mkvmerge.TypeSubtitles:
		if n := d.subtitleElements(track); n >= 0 && n < d.policy.MinSubtitleElements {
			return RemoveTrack(track.ID, track.Type, ReasonSubtitleCount)
		}
		if !d.policy.Language.admits(track.Language(), d.primary, d.relaxed) {
			return RemoveTrack(track.ID, track.Type, ReasonLanguageFilter)
		}
		return CopyTrack(track.ID, track.Type)
	case mkvmerge.TypeAudio:
		return d.decideAudio(i)
	default:
		return CopyTrack(track.ID, track.Type)
	}
}

func (d *decider) decideAudio(i int) Modification {
	track := d.tracks[i]
	if !d.policy.Language.admits(track.Language(), d.primary, d.relaxed) {
		return RemoveTrack(track.ID, track.Type, ReasonLanguageFilter)
	}
	codec := Classify(track)
	if codec == CodecDTSHDMA && d.policy.RemoveExtraDTS && d.hasTrueHDPartner(i) {
		return RemoveTrack(track.ID, track.Type, ReasonExtraDTSHD)
	}
	switch {
	case d.policy.Protected(codec):
		return CopyTrack(track.ID, track.Type)
	case codec.Lossless():
		return d.scheduleAudio(i, d.policy.LosslessCodec)
	case codec == CodecDTS && d.policy.FixDTS:
		return d.scheduleAudio(i, d.policy.GrossCodec)
	default:
		return CopyTrack(track.ID, track.Type)
	}
}

// hasTrueHDPartner looks for a TrueHD track with the same language and
// channel count next to the DTS-HD track at i: before it (skipping an
// embedded AC-3 core) or, failing that, after it. A disabled TrueHD track
// only counts when disabled tracks are kept.
func (d *decider) hasTrueHDPartner(i int) bool {
	var candidates []int
	switch {
	case i-1 >= 0 && Classify(d.tracks[i-1]) == CodecTrueHD:
		candidates = append(candidates, i-1)
	case i-2 >= 0 && Classify(d.tracks[i-1]) == CodecAC3 && Classify(d.tracks[i-2]) == CodecTrueHD:
		candidates = append(candidates, i-2)
	}
	if i+1 < len(d.tracks) && Classify(d.tracks[i+1]) == CodecTrueHD {
		candidates = append(candidates, i+1)
	}
	dts := d.tracks[i]
	for _, j := range candidates {
		partner := d.tracks[j]
		if !partner.Enabled() && !d.policy.KeepDisabled {
			continue
		}
		if language.Equal(partner.Language(), dts.Language()) && channelCount(partner) == channelCount(dts) {
			return true
		}
	}
	return false
}

func (d *decider) scheduleAudio(i int, codec string) Modification {
	track := d.tracks[i]
	channels := channelCount(track)
	base := filepath.Join(d.target.TempDir, fmt.Sprintf("%s_t%d", d.target.Stem, track.ID))
	job := AudioJob{
		Track:        i,
		TrackID:      track.ID,
		Source:       base + ".wav",
		SampleFormat: sampleFormat(track),
		Output:       base + codecExtension(codec),
		Codec:        codec,
		Channels:     channels,
	}
	if codec != "flac" {
		perChannel := d.policy.BitratePerChannel
		if channels > 0 {
			job.BitrateKbps = perChannel * channels
		} else {
			job.BitrateKbps = perChannel * 2
		}
	}
	files := []string{job.Output}
	if d.policy.DownmixStereo && channels > 2 {
		job.Downmix = base + "_stereo" + codecExtension(codec)
		files = append(files, job.Downmix)
	}
	d.audio = append(d.audio, job)

	lang := language.Normalize(track.Language())
	name := strings.TrimSpace(track.Properties.TrackName)
	if name == "" {
		name = generatedName(codec, channels)
	}
	return Modification{
		Action:   ActionReplace,
		TrackID:  track.ID,
		Type:     track.Type,
		Files:    files,
		Language: lang,
		Name:     name,
		Flags:    flagsOf(track),
	}
}

func (d *decider) scheduleVideo(i int) Modification {
	track := d.tracks[i]
	v, _ := d.info.Video()
	job := &VideoJob{
		Track:       i,
		TrackID:     track.ID,
		Output:      filepath.Join(d.target.TempDir, fmt.Sprintf("%s_t%d_video.mkv", d.target.Stem, track.ID)),
		Codec:       d.policy.Video.Codec,
		CRF:         d.policy.Video.CRF,
		Preset:      d.policy.Video.Preset,
		PixelFormat: d.policy.Video.PixelFormat,
		Colour:      v.Colour(),
	}
	d.video = job
	return Modification{
		Action:   ActionReplace,
		TrackID:  track.ID,
		Type:     track.Type,
		Files:    []string{job.Output},
		Language: language.Normalize(track.Language()),
		Name:     strings.TrimSpace(track.Properties.TrackName),
		Flags:    flagsOf(track),
	}
}

func (d *decider) admittedAudio() int {
	count := 0
	for _, t := range d.tracks {
		if t.Type != mkvmerge.TypeAudio {
			continue
		}
		if !t.Enabled() && !d.policy.KeepDisabled {
			continue
		}
		if d.policy.Language.admits(t.Language(), d.primary, false) {
			count++
		}
	}
	return count
}

// subtitleElements prefers the mediainfo element count and falls back to the
// mkvmerge frame count tag. It returns -1 when neither is known.
func (d *decider) subtitleElements(track mkvmerge.Track) int {
	if mi, ok := d.info.ByStreamOrder(track.ID); ok {
		if n := mi.Elements(); n >= 0 {
			return n
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(track.Properties.NumberOfFrames)); err == nil {
		return n
	}
	return -1
}

func primaryLanguage(tracks []mkvmerge.Track) string {
	for _, t := range tracks {
		if t.Type != mkvmerge.TypeAudio {
			continue
		}
		if lang := language.Normalize(t.Language()); !language.IsUndetermined(lang) {
			return lang
		}
	}
	return ""
}

func checkVideo(tracks []mkvmerge.Track, info mediainfo.Result, policy VideoPolicy) error {
	hasVideo := false
	for _, t := range tracks {
		if t.Type == mkvmerge.TypeVideo {
			hasVideo = true
			break
		}
	}
	if !hasVideo {
		return nil
	}
	v, ok := info.Video()
	if !ok {
		return services.Wrap(services.ErrIdentification, "decide", "video metadata", "mediainfo reported no video track", nil)
	}
	fps := v.FPS()
	if math.IsNaN(fps) {
		return services.Wrap(services.ErrUnsupportedFPS, "decide", "frame rate", "frame rate unknown", nil)
	}
	if len(policy.AllowedFPS) > 0 && !fpsAllowed(fps, policy.AllowedFPS) {
		return services.Wrap(services.ErrUnsupportedFPS, "decide", "frame rate", fmt.Sprintf("%.3f fps not allowed", fps), nil)
	}
	if policy.ProgressiveOnly && !v.Progressive() {
		return services.Wrap(services.ErrNonProgressive, "decide", "scan type", fmt.Sprintf("scan type %q", v.ScanType), nil)
	}
	return nil
}

func fpsAllowed(fps float64, allowed []float64) bool {
	for _, candidate := range allowed {
		if math.Abs(candidate-fps) <= fpsTolerance {
			return true
		}
	}
	return false
}

func flagsOf(track mkvmerge.Track) Flags {
	p := track.Properties
	return Flags{
		Default:         p.DefaultTrack,
		Forced:          p.ForcedTrack,
		Commentary:      p.Commentary,
		HearingImpaired: p.HearingImpair,
		VisualImpaired:  p.VisualImpair,
		Original:        p.Original,
	}
}

func sampleFormat(track mkvmerge.Track) string {
	if bits := track.Properties.BitsPerSample; bits > 0 && bits <= 16 {
		return "pcm_s16le"
	}
	return "pcm_s24le"
}
