package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	blobmemory "github.com/simmerhq/simmer/internal/blob/memory"
	"github.com/simmerhq/simmer/internal/events"
	eventsmemory "github.com/simmerhq/simmer/internal/events/memory"
	"github.com/simmerhq/simmer/internal/fetch"
	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/scrape"
	"github.com/simmerhq/simmer/internal/store"
	storememory "github.com/simmerhq/simmer/internal/store/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubScraper struct {
	result scrape.Result
	err    error
}

func (s stubScraper) Scrape(context.Context, string) (scrape.Result, error) {
	return s.result, s.err
}

type fixture struct {
	store    *storememory.Store
	blobs    *blobmemory.BlobStore
	events   *eventsmemory.Recorder
	runner   *Runner
	importID string
}

func newFixture(t *testing.T, scraper Scraper) *fixture {
	t.Helper()
	st := storememory.New()
	blobs := blobmemory.NewBlobStore()
	recorder := eventsmemory.NewRecorder()
	clock := fixedClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	runner := New(st, scraper, blobs, recorder, clock, zap.NewNop(), "")

	require.NoError(t, st.CreateImport(context.Background(), recipe.ImportRequest{
		ID:             "imp-1",
		SourceURL:      "https://example.com/recipe",
		Status:         recipe.ImportStatusQueued,
		TargetRecipeID: "rec-1",
		Submitted:      clock.now,
	}))
	return &fixture{store: st, blobs: blobs, events: recorder, runner: runner, importID: "imp-1"}
}

func TestRun_SuccessUpdatesRecipeAndClearsDraft(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubScraper{result: scrape.Result{
		Extracted: recipe.ExtractedRecipe{
			Title:           "Creamy Tomato Orzo",
			IngredientLines: []string{"1 tbsp olive oil", "200g orzo"},
			DirectionsText:  "1. Cook the orzo.",
			Confidence:      recipe.ConfidenceHigh,
		},
		Strategy: scrape.StrategySchemaOrg,
		Body:     []byte("<html>page</html>"),
	}})

	status, err := f.runner.Run(context.Background(), f.importID)
	require.NoError(t, err)
	require.Equal(t, recipe.ImportStatusSuccess, status)

	req, err := f.store.GetImport(context.Background(), f.importID)
	require.NoError(t, err)
	require.Equal(t, recipe.ImportStatusSuccess, req.Status)
	require.Empty(t, req.ErrorText)
	require.Equal(t, "memory://imports/imp-1/payload.html", req.RawPayloadURI)

	rec, err := f.store.GetRecipe(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Equal(t, "Creamy Tomato Orzo", rec.Title)
	require.False(t, rec.Draft)
	require.Len(t, rec.IngredientLines, 2)
	require.Equal(t, "olive oil", rec.IngredientLines[0].Name)
	require.Equal(t, "orzo", rec.IngredientLines[1].Name)

	published := f.events.Events()
	require.Len(t, published, 1)
	require.Equal(t, events.KindImportFinished, published[0].Kind)
}

func TestRun_ImageOnlyIsPartialAndStaysDraft(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubScraper{result: scrape.Result{
		Extracted: recipe.ExtractedRecipe{
			ImageURL:   "https://example.com/dish.jpg",
			Confidence: recipe.ConfidenceMedium,
		},
		Strategy: scrape.StrategyMetadata,
	}})

	status, err := f.runner.Run(context.Background(), f.importID)
	require.NoError(t, err)
	require.Equal(t, recipe.ImportStatusPartial, status)

	rec, err := f.store.GetRecipe(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/dish.jpg", rec.ImageURL)
	require.True(t, rec.Draft, "partial import must leave the recipe a draft")
}

func TestRun_NothingRecoveredFailsNormally(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubScraper{result: scrape.Result{
		Extracted: recipe.ExtractedRecipe{Confidence: recipe.ConfidenceLow},
		Strategy:  scrape.StrategyMetadata,
	}})

	status, err := f.runner.Run(context.Background(), f.importID)
	require.NoError(t, err)
	require.Equal(t, recipe.ImportStatusFailed, status)

	req, err := f.store.GetImport(context.Background(), f.importID)
	require.NoError(t, err)
	require.Equal(t, "No usable recipe data found.", req.ErrorText)

	// No patch: the target recipe was never created.
	_, err = f.store.GetRecipe(context.Background(), "rec-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_FetchErrorRewritesToHTTPStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubScraper{err: &fetch.HTTPStatusError{StatusCode: 404}})

	status, err := f.runner.Run(context.Background(), f.importID)
	require.Error(t, err)
	require.Equal(t, recipe.ImportStatusFailed, status)

	req, getErr := f.store.GetImport(context.Background(), f.importID)
	require.NoError(t, getErr)
	require.Equal(t, recipe.ImportStatusFailed, req.Status)
	require.Equal(t, "fetch failed: status 404", req.ErrorText)
}

func TestRun_NonQueuedImportIsNoOp(t *testing.T) {
	t.Parallel()

	scraper := stubScraper{err: errors.New("should not be called")}
	f := newFixture(t, scraper)

	require.NoError(t, f.store.SetImportRunning(context.Background(), f.importID, time.Now().UTC()))

	status, err := f.runner.Run(context.Background(), f.importID)
	require.NoError(t, err)
	require.Equal(t, recipe.ImportStatusRunning, status)
	require.Empty(t, f.events.Events())
}

func TestRun_UnknownImportPropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubScraper{})
	_, err := f.runner.Run(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}
