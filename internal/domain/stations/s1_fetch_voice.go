package stations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scribenote/scribenote/internal/ports"
)

// S1FetchVoice downloads the platform voice artifact into the job's scoped
// work directory.
type S1FetchVoice struct {
	msgr ports.Messenger
}

func NewS1FetchVoice(msgr ports.Messenger) *S1FetchVoice {
	return &S1FetchVoice{msgr: msgr}
}

func (s *S1FetchVoice) Run(ctx context.Context, fileRef, workDir string) (string, error) {
	dst := filepath.Join(workDir, "source.oga")

	if err := s.msgr.DownloadFile(ctx, fileRef, dst); err != nil {
		return "", fmt.Errorf("fetch voice artifact: %w", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return "", fmt.Errorf("stat voice artifact: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("downloaded voice artifact is empty")
	}

	return dst, nil
}
