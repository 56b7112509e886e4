package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/queue"
	queuememory "github.com/simmerhq/simmer/internal/queue/memory"
	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/smartlist"
)

type countingImportRunner struct {
	calls atomic.Int64
	err   error
}

func (r *countingImportRunner) Run(context.Context, string) (recipe.ImportStatus, error) {
	r.calls.Add(1)
	return recipe.ImportStatusSuccess, r.err
}

type countingSmartListRunner struct {
	calls atomic.Int64
}

func (r *countingSmartListRunner) RunJob(context.Context, string) (smartlist.RunResult, error) {
	r.calls.Add(1)
	return smartlist.RunResult{OK: true}, nil
}

func TestWorkerRoutesTasksByKind(t *testing.T) {
	t.Parallel()

	q := queuememory.NewQueue(4)
	imports := &countingImportRunner{}
	smartLists := &countingSmartListRunner{}
	w := New(q, imports, smartLists, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Task{Kind: queue.KindImport, ID: "imp-1"}))
	require.NoError(t, q.Enqueue(ctx, queue.Task{Kind: queue.KindSmartList, ID: "job-1"}))
	require.NoError(t, q.Enqueue(ctx, queue.Task{Kind: queue.KindImport, ID: "imp-2"}))
	q.Close()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain the queue")
	}

	require.Equal(t, int64(2), imports.calls.Load())
	require.Equal(t, int64(1), smartLists.calls.Load())
}

func TestWorkerKeepsGoingAfterRunnerError(t *testing.T) {
	t.Parallel()

	q := queuememory.NewQueue(4)
	imports := &countingImportRunner{err: errors.New("scrape blew up")}
	w := New(q, imports, &countingSmartListRunner{}, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Task{Kind: queue.KindImport, ID: "imp-1"}))
	require.NoError(t, q.Enqueue(ctx, queue.Task{Kind: queue.KindImport, ID: "imp-2"}))
	q.Close()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain the queue")
	}

	require.Equal(t, int64(2), imports.calls.Load())
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	q := queuememory.NewQueue(1)
	w := New(q, &countingImportRunner{}, &countingSmartListRunner{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
