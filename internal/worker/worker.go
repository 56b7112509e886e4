// Package worker implements the background task execution loop.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/metrics"
	"github.com/simmerhq/simmer/internal/queue"
	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/smartlist"
)

// ImportRunner drives one import to a terminal status.
type ImportRunner interface {
	Run(ctx context.Context, importID string) (recipe.ImportStatus, error)
}

// SmartListRunner drives one smart-list job to a terminal status.
type SmartListRunner interface {
	RunJob(ctx context.Context, jobID string) (smartlist.RunResult, error)
}

// Worker consumes queued tasks and routes them to the matching runner.
type Worker struct {
	tasks      queue.Queue
	imports    ImportRunner
	smartLists SmartListRunner
	logger     *zap.Logger
}

// New constructs a Worker.
func New(tasks queue.Queue, imports ImportRunner, smartLists SmartListRunner, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Worker{
		tasks:      tasks,
		imports:    imports,
		smartLists: smartLists,
		logger:     logger,
	}
}

// Run blocks, consuming tasks until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, err := w.tasks.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			return
		}
		w.process(ctx, task)
	}
}

// process executes one task. Runner errors are already persisted on the
// job record; here they are only logged.
func (w *Worker) process(ctx context.Context, task queue.Task) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	switch task.Kind {
	case queue.KindImport:
		status, err := w.imports.Run(ctx, task.ID)
		if err != nil {
			w.logger.Warn("import run failed",
				zap.String("import_id", task.ID),
				zap.String("status", string(status)),
				zap.Error(err))
		}
	case queue.KindSmartList:
		if _, err := w.smartLists.RunJob(ctx, task.ID); err != nil {
			w.logger.Warn("smart list run failed",
				zap.String("job_id", task.ID),
				zap.Error(err))
		}
	default:
		w.logger.Error("unknown task kind", zap.String("kind", string(task.Kind)), zap.String("id", task.ID))
	}
}
