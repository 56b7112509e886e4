package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/recipe"
	storememory "github.com/simmerhq/simmer/internal/store/memory"
)

func TestPollEmitsEachTransitionExactlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := storememory.New()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, st.CreateJob(ctx, recipe.SmartListJob{
		ID: "job-1", WorkspaceID: "ws-1", Status: recipe.SmartListJobQueued, UpdatedAt: base,
	}))

	var transitions []recipe.SmartListJob
	poller := NewPoller(st, SinkFunc(func(job recipe.SmartListJob) {
		transitions = append(transitions, job)
	}), "ws-1", 10, time.Second, zap.NewNop())

	// First sighting announces QUEUED.
	require.NoError(t, poller.Poll(ctx))
	require.Len(t, transitions, 1)
	require.Equal(t, recipe.SmartListJobQueued, transitions[0].Status)

	// Unchanged status is not re-announced.
	require.NoError(t, poller.Poll(ctx))
	require.Len(t, transitions, 1)

	claimed, err := st.ClaimJob(ctx, "job-1", base.Add(time.Minute), base.Add(-9*time.Minute))
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, poller.Poll(ctx))
	require.Len(t, transitions, 2)
	require.Equal(t, recipe.SmartListJobRunning, transitions[1].Status)

	require.NoError(t, st.CompleteJob(ctx, "job-1", recipe.SmartListJobSucceeded, "sl-1", "", base.Add(2*time.Minute)))

	require.NoError(t, poller.Poll(ctx))
	require.NoError(t, poller.Poll(ctx))
	require.Len(t, transitions, 3)
	require.Equal(t, recipe.SmartListJobSucceeded, transitions[2].Status)
	require.Equal(t, "sl-1", transitions[2].SmartListID)
}

func TestPollScopedToWorkspace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := storememory.New()
	now := time.Now().UTC()

	require.NoError(t, st.CreateJob(ctx, recipe.SmartListJob{
		ID: "mine", WorkspaceID: "ws-1", Status: recipe.SmartListJobQueued, UpdatedAt: now,
	}))
	require.NoError(t, st.CreateJob(ctx, recipe.SmartListJob{
		ID: "theirs", WorkspaceID: "ws-2", Status: recipe.SmartListJobQueued, UpdatedAt: now,
	}))

	var seen []string
	poller := NewPoller(st, SinkFunc(func(job recipe.SmartListJob) {
		seen = append(seen, job.ID)
	}), "ws-1", 10, time.Second, zap.NewNop())

	require.NoError(t, poller.Poll(ctx))
	require.Equal(t, []string{"mine"}, seen)
}
