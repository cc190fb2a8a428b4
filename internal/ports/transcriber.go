package ports

import "context"

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (string, error)
}
