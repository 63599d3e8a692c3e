package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported per input and per work unit. Each marker is retained
// through Wrap so callers can classify failures with errors.Is.
var (
	ErrInputMissing    = errors.New("input missing")
	ErrOutputExists    = errors.New("output already exists")
	ErrNoPlaylists     = errors.New("no playlists found")
	ErrIdentification  = errors.New("identification failure")
	ErrExtraction      = errors.New("extraction failure")
	ErrHashValidation  = errors.New("hash validation failure")
	ErrMux             = errors.New("mux failure")
	ErrUnsupportedFPS  = errors.New("unsupported input fps")
	ErrNonProgressive  = errors.New("non-progressive input in progressive-only mode")
	ErrDirectoryCreate = errors.New("directory create failure")
	ErrSubTask         = errors.New("sub-task failure")
	ErrCanceled        = errors.New("canceled")
)

var kinds = []struct {
	marker error
	name   string
}{
	{ErrCanceled, "canceled"},
	{ErrInputMissing, "input_missing"},
	{ErrOutputExists, "output_exists"},
	{ErrNoPlaylists, "no_playlists"},
	{ErrIdentification, "identification"},
	{ErrExtraction, "extraction"},
	{ErrHashValidation, "hash_validation"},
	{ErrMux, "mux"},
	{ErrUnsupportedFPS, "unsupported_fps"},
	{ErrNonProgressive, "non_progressive"},
	{ErrDirectoryCreate, "directory_create"},
	{ErrSubTask, "sub_task"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrSubTask
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the most specific error kind carried by err. Unclassified errors
// report "sub_task"; nil reports an empty string.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "sub_task"
}

// Fatal reports whether err must abort the whole run instead of being recorded
// as the outcome of a single input.
func Fatal(err error) bool {
	return errors.Is(err, ErrDirectoryCreate) || errors.Is(err, ErrCanceled)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "remux failure"
	}
	return strings.Join(parts, ": ")
}
