package tracks

import (
	"errors"
	"fmt"
	"os"
)

// Action tags a Modification.
type Action int

const (
	ActionCopy Action = iota
	ActionReplace
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionReplace:
		return "replace"
	case ActionRemove:
		return "remove"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Reason explains a removal.
type Reason string

const (
	ReasonTrackDisabled      Reason = "trackDisabled"
	ReasonSubtitleCount      Reason = "subtitleCount"
	ReasonLanguageFilter     Reason = "languageFilter"
	ReasonEmbedAC3InTrueHD   Reason = "embedAC3InTrueHD"
	ReasonExtraDTSHD         Reason = "extraDTSHD"
	ReasonDuplicateAudioHash Reason = "duplicateAudioHash"
)

// Flags are the Matroska track flags carried onto replacement files.
type Flags struct {
	Default         bool
	Forced          bool
	Commentary      bool
	HearingImpaired bool
	VisualImpaired  bool
	Original        bool
}

// Modification is the decision for one input track. Which fields are
// meaningful depends on Action: Files, Language, Name and Flags for Replace,
// Reason for Remove.
type Modification struct {
	Action  Action
	TrackID int
	Type    string
	// Files are owned by a Replace and deleted when it is downgraded.
	Files    []string
	Language string
	Name     string
	Flags    Flags
	Reason   Reason
}

// CopyTrack keeps the track unchanged.
func CopyTrack(id int, typ string) Modification {
	return Modification{Action: ActionCopy, TrackID: id, Type: typ}
}

// RemoveTrack drops the track.
func RemoveTrack(id int, typ string, reason Reason) Modification {
	return Modification{Action: ActionRemove, TrackID: id, Type: typ, Reason: reason}
}

// Remove downgrades m to a removal. Files owned by a Replace are deleted.
// Removing an already removed modification keeps the first reason. The
// modification is downgraded even when a file cannot be deleted.
func (m *Modification) Remove(reason Reason) error {
	if m.Action == ActionRemove {
		return nil
	}
	var errs []error
	for _, path := range m.Files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	m.Action = ActionRemove
	m.Reason = reason
	m.Files = nil
	return errors.Join(errs...)
}

// Revert turns a Replace back into a Copy of the source track, deleting the
// owned files. Other actions are left unchanged.
func (m *Modification) Revert() error {
	if m.Action != ActionReplace {
		return nil
	}
	var errs []error
	for _, path := range m.Files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	*m = CopyTrack(m.TrackID, m.Type)
	return errors.Join(errs...)
}

// String renders the decision for logs.
func (m Modification) String() string {
	switch m.Action {
	case ActionRemove:
		return fmt.Sprintf("%d:%s remove (%s)", m.TrackID, m.Type, m.Reason)
	case ActionReplace:
		return fmt.Sprintf("%d:%s replace %d file(s)", m.TrackID, m.Type, len(m.Files))
	default:
		return fmt.Sprintf("%d:%s copy", m.TrackID, m.Type)
	}
}
