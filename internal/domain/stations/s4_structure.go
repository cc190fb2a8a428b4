package stations

import (
	"context"
	"errors"
	"time"

	"github.com/scribenote/scribenote/internal/models"
	"github.com/scribenote/scribenote/internal/pipeline"
	"github.com/scribenote/scribenote/internal/ports"
)

// S4Structure applies the same single-retry policy to the language-model
// client. Terminal failures are returned to the orchestrator, which still
// holds the raw transcript as a fallback.
type S4Structure struct {
	llm        ports.Structurer
	retryDelay time.Duration
}

func NewS4Structure(llm ports.Structurer) *S4Structure {
	return &S4Structure{llm: llm, retryDelay: defaultRetryDelay}
}

func (s *S4Structure) WithRetryDelay(d time.Duration) *S4Structure {
	s.retryDelay = d
	return s
}

func (s *S4Structure) Run(ctx context.Context, transcript string, mode models.Mode) (string, error) {
	text, err := s.llm.Structure(ctx, transcript, mode)
	if err == nil {
		return text, nil
	}

	var serr *pipeline.StructuringError
	if !errors.As(err, &serr) || !serr.Kind.Transient() {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.retryDelay):
	}

	text, err = s.llm.Structure(ctx, transcript, mode)
	if err != nil {
		return "", err
	}
	return text, nil
}
