package domain

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/scribenote/scribenote/internal/models"
)

const sweepInterval = time.Minute

// PendingJobs is the arena of converted artifacts waiting for a mode
// choice, keyed by correlation id. Jobs leave exactly once: consumed by a
// selection or discarded (expiry, cancellation). Discarding removes the
// job's work directory; discarding twice is a no-op.
type PendingJobs struct {
	mu   sync.Mutex
	jobs map[string]*models.PendingJob
	ttl  time.Duration
}

func NewPendingJobs(ttl time.Duration) *PendingJobs {
	return &PendingJobs{
		jobs: make(map[string]*models.PendingJob),
		ttl:  ttl,
	}
}

func (p *PendingJobs) Put(job *models.PendingJob) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs[job.ID] = job
}

// Consume removes and returns the job; ok is false if it was already
// consumed, discarded, or never existed.
func (p *PendingJobs) Consume(id string) (*models.PendingJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, ok := p.jobs[id]
	if !ok {
		return nil, false
	}
	delete(p.jobs, id)
	return job, true
}

// Discard drops the job and its on-disk artifacts.
func (p *PendingJobs) Discard(id string) (*models.PendingJob, bool) {
	job, ok := p.Consume(id)
	if !ok {
		return nil, false
	}
	if job.WorkDir != "" {
		_ = os.RemoveAll(job.WorkDir)
	}
	return job, true
}

func (p *PendingJobs) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

// Sweep discards jobs older than the TTL until ctx is cancelled, reporting
// each expired job through onExpire. Bounds resource retention for
// abandoned interactions.
func (p *PendingJobs) Sweep(ctx context.Context, onExpire func(job *models.PendingJob)) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, job := range p.expired(time.Now()) {
				if _, ok := p.Discard(job.ID); ok && onExpire != nil {
					onExpire(job)
				}
			}
		}
	}
}

func (p *PendingJobs) expired(now time.Time) []*models.PendingJob {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []*models.PendingJob
	for _, job := range p.jobs {
		if now.Sub(job.CreatedAt) > p.ttl {
			out = append(out, job)
		}
	}
	return out
}
