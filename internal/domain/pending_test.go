package domain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scribenote/scribenote/internal/models"
	"github.com/stretchr/testify/require"
)

func newJobWithArtifacts(t *testing.T, id string) *models.PendingJob {
	t.Helper()

	workDir := filepath.Join(t.TempDir(), "job-"+id)
	require.NoError(t, os.MkdirAll(workDir, 0o755))

	audioPath := filepath.Join(workDir, "converted.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("audio"), 0o644))

	return &models.PendingJob{
		ID:        id,
		UserID:    1,
		ChatID:    1,
		WorkDir:   workDir,
		AudioPath: audioPath,
		Seconds:   60,
		CreatedAt: time.Now(),
	}
}

func TestPendingJobsConsumeOnce(t *testing.T) {
	t.Parallel()

	arena := NewPendingJobs(time.Minute)
	arena.Put(newJobWithArtifacts(t, "a"))

	job, ok := arena.Consume("a")
	require.True(t, ok)
	require.Equal(t, "a", job.ID)

	_, ok = arena.Consume("a")
	require.False(t, ok)
	require.Equal(t, 0, arena.Len())
}

func TestPendingJobsConsumeUnknown(t *testing.T) {
	t.Parallel()

	arena := NewPendingJobs(time.Minute)
	_, ok := arena.Consume("missing")
	require.False(t, ok)
}

func TestPendingJobsDiscardRemovesArtifacts(t *testing.T) {
	t.Parallel()

	arena := NewPendingJobs(time.Minute)
	job := newJobWithArtifacts(t, "a")
	arena.Put(job)

	_, ok := arena.Discard("a")
	require.True(t, ok)
	require.NoDirExists(t, job.WorkDir)
}

func TestPendingJobsDoubleDiscardIsNoop(t *testing.T) {
	t.Parallel()

	arena := NewPendingJobs(time.Minute)
	arena.Put(newJobWithArtifacts(t, "a"))

	_, ok := arena.Discard("a")
	require.True(t, ok)

	// duplicate timeout plus explicit cancel must not raise or double-free
	_, ok = arena.Discard("a")
	require.False(t, ok)
	_, ok = arena.Discard("a")
	require.False(t, ok)
}

func TestPendingJobsExpiredSelection(t *testing.T) {
	t.Parallel()

	arena := NewPendingJobs(10 * time.Minute)

	stale := newJobWithArtifacts(t, "stale")
	stale.CreatedAt = time.Now().Add(-11 * time.Minute)
	arena.Put(stale)

	fresh := newJobWithArtifacts(t, "fresh")
	arena.Put(fresh)

	expired := arena.expired(time.Now())
	require.Len(t, expired, 1)
	require.Equal(t, "stale", expired[0].ID)
}
