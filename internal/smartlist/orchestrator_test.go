package smartlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/events"
	eventsmemory "github.com/simmerhq/simmer/internal/events/memory"
	"github.com/simmerhq/simmer/internal/queue"
	queuememory "github.com/simmerhq/simmer/internal/queue/memory"
	"github.com/simmerhq/simmer/internal/recipe"
	storememory "github.com/simmerhq/simmer/internal/store/memory"
)

type movableClock struct{ now time.Time }

func (c *movableClock) Now() time.Time { return c.now }

type seqIDs struct{ n int }

func (g *seqIDs) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(context.Context, string, string) (recipe.SmartList, error) {
	return recipe.SmartList{}, g.err
}

type harness struct {
	store     *storememory.Store
	queue     *queuememory.Queue
	events    *eventsmemory.Recorder
	clock     *movableClock
	orch      *Orchestrator
	generator *Generator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := storememory.New()
	q := queuememory.NewQueue(8)
	recorder := eventsmemory.NewRecorder()
	clock := &movableClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	ids := &seqIDs{}
	gen := NewGenerator(st, ids, clock)
	orch := New(st, gen, q, recorder, ids, clock, zap.NewNop(), DefaultStaleWindow)

	ctx := context.Background()
	qty := 200.0
	unit := "g"
	require.NoError(t, st.SaveRecipe(ctx, recipe.Recipe{
		ID:    "rec-1",
		Title: "Orzo",
		IngredientLines: []recipe.IngredientLine{
			{RecipeID: "rec-1", Position: 0, Raw: "200g orzo", Name: "orzo", Quantity: &qty, Unit: &unit},
		},
	}))
	require.NoError(t, st.AddRecipeToWeek(ctx, "week-1", "rec-1"))
	return &harness{store: st, queue: q, events: recorder, clock: clock, orch: orch, generator: gen}
}

func (h *harness) enqueue(t *testing.T) recipe.SmartListJob {
	t.Helper()
	job, err := h.orch.Enqueue(context.Background(), "ws-1", "week-1", "shop-1")
	require.NoError(t, err)
	return job
}

func TestEnqueueCreatesQueuedJobAndFiresTrigger(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	job := h.enqueue(t)

	require.Equal(t, recipe.SmartListJobQueued, job.Status)
	stored, err := h.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, recipe.SmartListJobQueued, stored.Status)

	task, err := h.queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, queue.KindSmartList, task.Kind)
	require.Equal(t, job.ID, task.ID)
}

type brokenQueue struct{}

func (brokenQueue) Enqueue(context.Context, queue.Task) error { return errors.New("broker down") }
func (brokenQueue) Dequeue(context.Context) (queue.Task, error) {
	return queue.Task{}, errors.New("broker down")
}
func (brokenQueue) Close() {}

func TestEnqueueSwallowsTriggerFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	orch := New(h.store, h.generator, brokenQueue{}, h.events, &seqIDs{n: 100}, h.clock, zap.NewNop(), DefaultStaleWindow)

	job, err := orch.Enqueue(context.Background(), "ws-1", "week-1", "shop-1")
	require.NoError(t, err)

	stored, err := h.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, recipe.SmartListJobQueued, stored.Status)
}

func TestRunJobGeneratesAndSucceeds(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	job := h.enqueue(t)

	result, err := h.orch.RunJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.False(t, result.Skipped)

	stored, err := h.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, recipe.SmartListJobSucceeded, stored.Status)
	require.NotEmpty(t, stored.SmartListID)
	require.NotNil(t, stored.FinishedAt)

	list, err := h.store.GetSmartList(context.Background(), stored.SmartListID)
	require.NoError(t, err)
	require.Equal(t, int64(1), list.WeekVersion)
	require.Len(t, list.Items, 1)
	require.Equal(t, "200g orzo", list.Items[0].DisplayText)
	require.Equal(t, []string{"rec-1"}, list.Items[0].SourceRecipeIDs)
	require.Equal(t, []string{"200g orzo"}, list.Items[0].SourceLines)

	published := h.events.Events()
	require.Len(t, published, 1)
	require.Equal(t, events.KindSmartListJobFinished, published[0].Kind)
}

func TestRunJobOnSucceededIsSkippedNoOp(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	job := h.enqueue(t)

	_, err := h.orch.RunJob(context.Background(), job.ID)
	require.NoError(t, err)

	result, err := h.orch.RunJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.True(t, result.Skipped)
}

func TestRunJobFreshRunningIsSkipped(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	job := h.enqueue(t)

	claimed, err := h.store.ClaimJob(context.Background(), job.ID, h.clock.now, h.clock.now.Add(-DefaultStaleWindow))
	require.NoError(t, err)
	require.True(t, claimed)

	// Re-invocation three minutes into another worker's run.
	h.clock.now = h.clock.now.Add(3 * time.Minute)
	result, err := h.orch.RunJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.True(t, result.Skipped)
}

func TestRunJobReclaimsStaleRunning(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	job := h.enqueue(t)

	claimed, err := h.store.ClaimJob(context.Background(), job.ID, h.clock.now, h.clock.now.Add(-DefaultStaleWindow))
	require.NoError(t, err)
	require.True(t, claimed)

	// Fifteen minutes later the original worker is presumed dead.
	h.clock.now = h.clock.now.Add(15 * time.Minute)
	result, err := h.orch.RunJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.False(t, result.Skipped)

	stored, err := h.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, recipe.SmartListJobSucceeded, stored.Status)
}

func TestRunJobFailurePersistsTruncatedError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	job := h.enqueue(t)

	longErr := errors.New(strings.Repeat("x", 900))
	orch := New(h.store, failingGenerator{err: longErr}, nil, h.events, &seqIDs{n: 200}, h.clock, zap.NewNop(), DefaultStaleWindow)

	_, err := orch.RunJob(context.Background(), job.ID)
	require.Error(t, err)

	stored, getErr := h.store.GetJob(context.Background(), job.ID)
	require.NoError(t, getErr)
	require.Equal(t, recipe.SmartListJobFailed, stored.Status)
	require.Len(t, stored.ErrorText, 500)
	require.NotNil(t, stored.FinishedAt)
}

func TestRunJobUnknownIDPropagates(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.orch.RunJob(context.Background(), "missing")
	require.Error(t, err)
}
