package ports

import (
	"context"

	"github.com/scribenote/scribenote/internal/models"
)

// Messenger is the messaging-platform client: an inbound update stream plus
// the outbound calls the pipeline needs. The wire protocol stays behind it.
type Messenger interface {
	Updates() <-chan models.Update

	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// SendModeKeyboard presents the three structuring modes, tagged with the
	// job's correlation id, and returns the prompt message id.
	SendModeKeyboard(ctx context.Context, chatID int64, text, jobID string) (int, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error

	DownloadFile(ctx context.Context, fileRef, dstPath string) error
}
