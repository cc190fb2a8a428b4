package stations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/scribenote/scribenote/internal/models"
	"github.com/scribenote/scribenote/internal/pipeline"
	"github.com/stretchr/testify/require"
)

type scriptedTranscriber struct {
	mu    sync.Mutex
	calls int
	errs  []error
	text  string
}

func (s *scriptedTranscriber) Transcribe(context.Context, string, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return s.text, nil
}

type scriptedStructurer struct {
	mu    sync.Mutex
	calls int
	errs  []error
	text  string
}

func (s *scriptedStructurer) Structure(context.Context, string, models.Mode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return s.text, nil
}

func TestTranscribeRetriesTransientOnce(t *testing.T) {
	t.Parallel()

	stt := &scriptedTranscriber{
		errs: []error{&pipeline.TranscriptionError{Kind: pipeline.KindServiceUnavailable, Err: fmt.Errorf("503")}},
		text: "ok",
	}

	text, err := NewS3Transcribe(stt).WithRetryDelay(0).Run(context.Background(), "a.mp3", "")
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.Equal(t, 2, stt.calls)
}

func TestTranscribeGivesUpAfterSecondFailure(t *testing.T) {
	t.Parallel()

	stt := &scriptedTranscriber{
		errs: []error{
			&pipeline.TranscriptionError{Kind: pipeline.KindRateLimited, Err: fmt.Errorf("429")},
			&pipeline.TranscriptionError{Kind: pipeline.KindRateLimited, Err: fmt.Errorf("429")},
		},
	}

	_, err := NewS3Transcribe(stt).WithRetryDelay(0).Run(context.Background(), "a.mp3", "")
	require.Error(t, err)
	require.Equal(t, 2, stt.calls)

	var terr *pipeline.TranscriptionError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, pipeline.KindRateLimited, terr.Kind)
}

func TestTranscribeDoesNotRetryTerminalFailures(t *testing.T) {
	t.Parallel()

	stt := &scriptedTranscriber{
		errs: []error{&pipeline.TranscriptionError{Kind: pipeline.KindInvalidAudio, Err: fmt.Errorf("bad audio")}},
	}

	_, err := NewS3Transcribe(stt).WithRetryDelay(0).Run(context.Background(), "a.mp3", "")
	require.Error(t, err)
	require.Equal(t, 1, stt.calls)
}

func TestStructureRetriesTransientOnce(t *testing.T) {
	t.Parallel()

	llm := &scriptedStructurer{
		errs: []error{&pipeline.StructuringError{Kind: pipeline.KindRateLimited, Err: fmt.Errorf("429")}},
		text: "structured",
	}

	text, err := NewS4Structure(llm).WithRetryDelay(0).Run(context.Background(), "raw", models.ModeBasic)
	require.NoError(t, err)
	require.Equal(t, "structured", text)
	require.Equal(t, 2, llm.calls)
}

func TestStructureDoesNotRetryUnknownFailures(t *testing.T) {
	t.Parallel()

	llm := &scriptedStructurer{
		errs: []error{&pipeline.StructuringError{Kind: pipeline.KindUnknown, Err: fmt.Errorf("boom")}},
	}

	_, err := NewS4Structure(llm).WithRetryDelay(0).Run(context.Background(), "raw", models.ModeBasic)
	require.Error(t, err)
	require.Equal(t, 1, llm.calls)
}
