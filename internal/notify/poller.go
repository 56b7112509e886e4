// Package notify watches smart-list jobs for a workspace and surfaces
// status transitions to a client-facing sink exactly once each.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/store"
)

// Sink receives one callback per observed status change.
type Sink interface {
	JobTransition(job recipe.SmartListJob)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(job recipe.SmartListJob)

// JobTransition implements Sink.
func (f SinkFunc) JobTransition(job recipe.SmartListJob) { f(job) }

// Poller periodically lists a workspace's recent jobs and diffs each
// against the last status it saw. Unchanged statuses are never
// re-announced; a job's first sighting counts as a transition.
type Poller struct {
	jobs        store.SmartListStore
	sink        Sink
	workspaceID string
	pageSize    int
	interval    time.Duration
	logger      *zap.Logger

	lastSeen map[string]recipe.SmartListJobStatus
}

// NewPoller builds a Poller for one workspace.
func NewPoller(jobs store.SmartListStore, sink Sink, workspaceID string, pageSize int, interval time.Duration, logger *zap.Logger) *Poller {
	if pageSize <= 0 {
		pageSize = 20
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		jobs:        jobs,
		sink:        sink,
		workspaceID: workspaceID,
		pageSize:    pageSize,
		interval:    interval,
		logger:      logger,
		lastSeen:    make(map[string]recipe.SmartListJobStatus),
	}
}

// Poll runs one list-and-diff round.
func (p *Poller) Poll(ctx context.Context) error {
	jobs, err := p.jobs.ListJobs(ctx, p.workspaceID, p.pageSize)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if prior, seen := p.lastSeen[job.ID]; seen && prior == job.Status {
			continue
		}
		p.lastSeen[job.ID] = job.Status
		p.sink.JobTransition(job)
	}
	return nil
}

// Run polls until the context ends. List errors are logged and retried on
// the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.logger.Warn("poll smart list jobs failed",
					zap.String("workspace_id", p.workspaceID), zap.Error(err))
			}
		}
	}
}
