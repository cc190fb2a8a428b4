package stations

import (
	"context"
	"errors"
	"time"

	"github.com/scribenote/scribenote/internal/pipeline"
	"github.com/scribenote/scribenote/internal/ports"
)

const defaultRetryDelay = 2 * time.Second

// S3Transcribe wraps the speech-recognition client with the retry policy:
// transient failures get exactly one more attempt after a fixed delay,
// terminal ones surface immediately.
type S3Transcribe struct {
	stt        ports.Transcriber
	retryDelay time.Duration
}

func NewS3Transcribe(stt ports.Transcriber) *S3Transcribe {
	return &S3Transcribe{stt: stt, retryDelay: defaultRetryDelay}
}

func (s *S3Transcribe) WithRetryDelay(d time.Duration) *S3Transcribe {
	s.retryDelay = d
	return s
}

func (s *S3Transcribe) Run(ctx context.Context, audioPath, languageHint string) (string, error) {
	text, err := s.stt.Transcribe(ctx, audioPath, languageHint)
	if err == nil {
		return text, nil
	}

	var terr *pipeline.TranscriptionError
	if !errors.As(err, &terr) || !terr.Kind.Transient() {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.retryDelay):
	}

	text, err = s.stt.Transcribe(ctx, audioPath, languageHint)
	if err != nil {
		return "", err
	}
	return text, nil
}
