// Package smartlist drives asynchronous smart-list generation jobs through
// QUEUED -> RUNNING -> {SUCCEEDED, FAILED}.
package smartlist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/events"
	"github.com/simmerhq/simmer/internal/metrics"
	"github.com/simmerhq/simmer/internal/queue"
	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/store"
)

// DefaultStaleWindow is how long a RUNNING job is trusted to still be alive.
// Past it, a re-invocation reclaims the job from a presumed-dead worker.
const DefaultStaleWindow = 10 * time.Minute

const maxErrorLen = 500

// ListGenerator produces the smart list for one week.
type ListGenerator interface {
	Generate(ctx context.Context, weekID, shoppingListID string) (recipe.SmartList, error)
}

// RunResult reports how a run invocation resolved. Skipped means the job
// was already terminal or safely in progress; nothing was done.
type RunResult struct {
	OK      bool `json:"ok"`
	Skipped bool `json:"skipped,omitempty"`
}

// Orchestrator owns job lifecycle transitions. The claim check is a
// cooperative lock substitute: racing invocations at the stale boundary may
// both proceed, which the idempotent-overwrite list save makes harmless.
type Orchestrator struct {
	jobs        store.SmartListStore
	generator   ListGenerator
	tasks       queue.Queue
	publisher   events.Publisher
	ids         recipe.IDGenerator
	clock       recipe.Clock
	logger      *zap.Logger
	staleWindow time.Duration
}

// New builds an Orchestrator. tasks and publisher may be nil when async
// triggering or eventing is not wired.
func New(jobs store.SmartListStore, generator ListGenerator, tasks queue.Queue, publisher events.Publisher, ids recipe.IDGenerator, clock recipe.Clock, logger *zap.Logger, staleWindow time.Duration) *Orchestrator {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if staleWindow <= 0 {
		staleWindow = DefaultStaleWindow
	}
	metrics.Init()
	return &Orchestrator{
		jobs:        jobs,
		generator:   generator,
		tasks:       tasks,
		publisher:   publisher,
		ids:         ids,
		clock:       clock,
		logger:      logger,
		staleWindow: staleWindow,
	}
}

// Enqueue creates a QUEUED job and fires a best-effort async trigger. A
// trigger failure is swallowed; the job stays QUEUED for an external retry.
func (o *Orchestrator) Enqueue(ctx context.Context, workspaceID, weekID, shoppingListID string) (recipe.SmartListJob, error) {
	id, err := o.ids.NewID()
	if err != nil {
		return recipe.SmartListJob{}, fmt.Errorf("generate job id: %w", err)
	}
	job := recipe.SmartListJob{
		ID:             id,
		WorkspaceID:    workspaceID,
		WeekID:         weekID,
		ShoppingListID: shoppingListID,
		Status:         recipe.SmartListJobQueued,
		UpdatedAt:      o.clock.Now(),
	}
	if err := o.jobs.CreateJob(ctx, job); err != nil {
		return recipe.SmartListJob{}, fmt.Errorf("create job: %w", err)
	}
	if o.tasks != nil {
		if err := o.tasks.Enqueue(ctx, queue.Task{Kind: queue.KindSmartList, ID: job.ID}); err != nil {
			o.logger.Warn("smart list trigger failed, job stays queued",
				zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	return job, nil
}

// RunJob drives one job toward a terminal status. A terminal job or one
// freshly RUNNING resolves as a skipped success; a RUNNING job past the
// stale window is reclaimed and re-run. Generation failures are persisted
// as FAILED and returned to the caller.
func (o *Orchestrator) RunJob(ctx context.Context, jobID string) (RunResult, error) {
	job, err := o.jobs.GetJob(ctx, jobID)
	if err != nil {
		return RunResult{}, err
	}
	if job.Status.Terminal() {
		return RunResult{OK: true, Skipped: true}, nil
	}

	now := o.clock.Now()
	claimed, err := o.jobs.ClaimJob(ctx, jobID, now, now.Add(-o.staleWindow))
	if err != nil {
		return RunResult{}, err
	}
	if !claimed {
		// Another worker holds the job within the stale window.
		return RunResult{OK: true, Skipped: true}, nil
	}

	list, genErr := o.generator.Generate(ctx, job.WeekID, job.ShoppingListID)
	finished := o.clock.Now()
	if genErr != nil {
		message := truncateError(genErr)
		if err := o.jobs.CompleteJob(ctx, jobID, recipe.SmartListJobFailed, "", message, finished); err != nil {
			return RunResult{}, fmt.Errorf("persist failed job: %w", err)
		}
		o.emit(ctx, job, recipe.SmartListJobFailed, "", message, finished)
		metrics.ObserveSmartListJob(string(recipe.SmartListJobFailed))
		return RunResult{}, fmt.Errorf("generate smart list: %w", genErr)
	}

	if err := o.jobs.CompleteJob(ctx, jobID, recipe.SmartListJobSucceeded, list.ID, "", finished); err != nil {
		return RunResult{}, fmt.Errorf("persist succeeded job: %w", err)
	}
	o.emit(ctx, job, recipe.SmartListJobSucceeded, list.ID, "", finished)
	metrics.ObserveSmartListJob(string(recipe.SmartListJobSucceeded))
	o.logger.Info("smart list generated",
		zap.String("job_id", jobID),
		zap.String("smart_list_id", list.ID),
		zap.Int("items", len(list.Items)))
	return RunResult{OK: true}, nil
}

func (o *Orchestrator) emit(ctx context.Context, job recipe.SmartListJob, status recipe.SmartListJobStatus, smartListID, errorText string, at time.Time) {
	_, err := o.publisher.Publish(ctx, events.KindSmartListJobFinished, events.SmartListJobFinished{
		JobID:       job.ID,
		WorkspaceID: job.WorkspaceID,
		WeekID:      job.WeekID,
		Status:      string(status),
		SmartListID: smartListID,
		ErrorText:   errorText,
		FinishedAt:  at,
	})
	if err != nil {
		o.logger.Warn("publish smart list event failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func truncateError(err error) string {
	message := err.Error()
	if len(message) > maxErrorLen {
		message = message[:maxErrorLen]
	}
	return message
}
