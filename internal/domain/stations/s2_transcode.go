package stations

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/scribenote/scribenote/internal/pipeline"
)

// S2Transcode converts the platform's native voice codec into MP3 for the
// transcription service and measures the duration off the converted file.
// The measured duration is what gets debited, not the platform's estimate.
type S2Transcode struct{}

func NewS2Transcode() *S2Transcode {
	return &S2Transcode{}
}

func (s *S2Transcode) Run(ctx context.Context, srcPath string) (string, int, error) {
	outPath := filepath.Join(filepath.Dir(srcPath), "converted.mp3")

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-loglevel", "error",
		"-i", srcPath,
		"-f", "mp3",
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"-ar", "44100",
		"-y",
		outPath,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", 0, &pipeline.ConversionError{
			Output: strings.TrimSpace(string(out)),
			Err:    fmt.Errorf("ffmpeg: %w", err),
		}
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return "", 0, &pipeline.ConversionError{Err: fmt.Errorf("stat converted file: %w", err)}
	}
	if info.Size() == 0 {
		return "", 0, &pipeline.ConversionError{Err: fmt.Errorf("converted file is empty")}
	}

	seconds, err := s.probeDuration(ctx, outPath)
	if err != nil {
		return "", 0, &pipeline.ConversionError{Err: err}
	}

	return outPath, seconds, nil
}

func (s *S2Transcode) probeDuration(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(
		ctx,
		"ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	return parseProbeDuration(string(out))
}

// parseProbeDuration rounds up to whole seconds so partial seconds are
// never billed as zero.
func parseProbeDuration(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)

	secs, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", trimmed, err)
	}
	if secs < 0 {
		return 0, fmt.Errorf("negative duration %q", trimmed)
	}

	return int(math.Ceil(secs)), nil
}
