// Package pipeline holds the classified failures of the voice pipeline.
// The orchestrator converts every external-service error into exactly one
// of these before it ever reaches the user.
package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrNotAdmin = errors.New("caller is not the configured admin")

// Kind classifies a transcription or structuring failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindServiceUnavailable
	KindInvalidAudio
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindInvalidAudio:
		return "invalid_audio"
	default:
		return "unknown"
	}
}

// Transient reports whether a single bounded retry is worthwhile.
func (k Kind) Transient() bool {
	return k == KindRateLimited || k == KindServiceUnavailable
}

// KindFromStatus maps an upstream HTTP status to a failure kind.
func KindFromStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500:
		return KindServiceUnavailable
	case code == http.StatusBadRequest || code == http.StatusUnsupportedMediaType:
		return KindInvalidAudio
	default:
		return KindUnknown
	}
}

// ConversionError is terminal: codec failures are not transient.
type ConversionError struct {
	Output string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("audio conversion failed: %v (%s)", e.Err, e.Output)
	}
	return fmt.Sprintf("audio conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

type TranscriptionError struct {
	Kind Kind
	Err  error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed (%s): %v", e.Kind, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

type StructuringError struct {
	Kind Kind
	Err  error
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("structuring failed (%s): %v", e.Kind, e.Err)
}

func (e *StructuringError) Unwrap() error { return e.Err }
