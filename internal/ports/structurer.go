package ports

import (
	"context"

	"github.com/scribenote/scribenote/internal/models"
)

type Structurer interface {
	Structure(ctx context.Context, transcript string, mode models.Mode) (string, error)
}
