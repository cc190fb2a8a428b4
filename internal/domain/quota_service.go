package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/scribenote/scribenote/internal/models"
	"github.com/scribenote/scribenote/internal/pipeline"
	"github.com/scribenote/scribenote/internal/ports"
)

// QuotaService is the admission gate in front of the pipeline. Consumption
// is a windowed aggregate over the append-only ledger, so the daily reset
// at UTC midnight needs no job: the window just moves.
type QuotaService struct {
	repo        ports.UserRepository
	capSeconds  int
	adminUserID int64

	now func() time.Time
}

func NewQuotaService(repo ports.UserRepository, capSeconds int, adminUserID int64) *QuotaService {
	return &QuotaService{
		repo:        repo,
		capSeconds:  capSeconds,
		adminUserID: adminUserID,
		now:         time.Now,
	}
}

func (s *QuotaService) CapSeconds() int { return s.capSeconds }

// CheckAdmission admits or denies a request for requestedSeconds of
// transcription. requestedSeconds may be zero when the duration is not yet
// known; the check then degrades to the plain cap threshold.
func (s *QuotaService) CheckAdmission(ctx context.Context, userID int64, requestedSeconds int) (models.Admission, error) {
	user, err := s.repo.EnsureUser(ctx, userID)
	if err != nil {
		return models.Admission{}, err
	}

	if user.IsPrivileged {
		return models.Admission{Allowed: true, Unlimited: true}, nil
	}

	consumed, err := s.repo.ConsumedSince(ctx, userID, utcMidnight(s.now()))
	if err != nil {
		return models.Admission{}, err
	}

	remaining := s.capSeconds - consumed
	if remaining < 0 {
		remaining = 0
	}

	if consumed >= s.capSeconds || consumed+requestedSeconds > s.capSeconds {
		return models.Admission{Allowed: false, Remaining: remaining}, nil
	}

	return models.Admission{Allowed: true, Remaining: remaining}, nil
}

// RecordUsage appends one ledger entry. Called exactly once per successful
// transcription, before the result is delivered.
func (s *QuotaService) RecordUsage(ctx context.Context, userID int64, seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("record usage: negative duration %d", seconds)
	}
	return s.repo.InsertUsage(ctx, &models.UsageRecord{UserID: userID, Seconds: seconds})
}

// SetPrivileged toggles the unlimited flag. Only the configured admin
// identity may call it; the mutation is idempotent.
func (s *QuotaService) SetPrivileged(ctx context.Context, actorID, targetID int64, privileged bool) error {
	if actorID != s.adminUserID {
		return pipeline.ErrNotAdmin
	}
	return s.repo.SetPrivileged(ctx, targetID, privileged)
}

func (s *QuotaService) UsageSummary(ctx context.Context, userID int64) (models.UsageSummary, error) {
	user, err := s.repo.EnsureUser(ctx, userID)
	if err != nil {
		return models.UsageSummary{}, err
	}

	consumed, err := s.repo.ConsumedSince(ctx, userID, utcMidnight(s.now()))
	if err != nil {
		return models.UsageSummary{}, err
	}

	total, err := s.repo.TotalConsumed(ctx, userID)
	if err != nil {
		return models.UsageSummary{}, err
	}

	return models.UsageSummary{
		UserID:        userID,
		ConsumedToday: consumed,
		TotalSeconds:  total,
		IsPrivileged:  user.IsPrivileged,
	}, nil
}

// UntilReset reports how long until the quota window rolls over.
func (s *QuotaService) UntilReset() time.Duration {
	now := s.now().UTC()
	return utcMidnight(now).Add(24 * time.Hour).Sub(now)
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
