package ports

import (
	"context"
	"time"

	"github.com/scribenote/scribenote/internal/models"
)

type UserRepository interface {
	// EnsureUser upserts the user on first contact and returns it.
	EnsureUser(ctx context.Context, userID int64) (*models.User, error)
	SetPrivileged(ctx context.Context, userID int64, privileged bool) error

	// InsertUsage appends one ledger entry. Appends are atomic per record;
	// nothing ever updates or deletes them.
	InsertUsage(ctx context.Context, rec *models.UsageRecord) error
	ConsumedSince(ctx context.Context, userID int64, since time.Time) (int, error)
	TotalConsumed(ctx context.Context, userID int64) (int, error)
}
