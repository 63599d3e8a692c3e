package dedup

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hasher computes a content hash for a decoded audio file.
type Hasher interface {
	Hash(ctx context.Context, path string) (uint64, error)
}

// FFmpegHasher decodes the first audio stream of a file to raw 32-bit PCM
// and hashes the stream as it is produced.
type FFmpegHasher struct {
	Binary string
}

// Hash runs ffmpeg and hashes its standard output.
func (h FFmpegHasher) Hash(ctx context.Context, path string) (uint64, error) {
	binary := strings.TrimSpace(h.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, //nolint:gosec
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", path, "-map", "0:a:0", "-f", "s32le", "-",
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", binary, err)
	}
	digest := xxhash.New()
	written, copyErr := io.Copy(digest, stdout)
	waitErr := cmd.Wait()
	if copyErr != nil {
		return 0, fmt.Errorf("read decoded audio: %w", copyErr)
	}
	if waitErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return 0, fmt.Errorf("decode %s: %w: %s", path, waitErr, msg)
		}
		return 0, fmt.Errorf("decode %s: %w", path, waitErr)
	}
	if written == 0 {
		return 0, fmt.Errorf("decode %s: no audio samples", path)
	}
	return digest.Sum64(), nil
}
