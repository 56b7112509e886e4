// Package importer runs the import state machine: queued -> running ->
// {success, partial, failed}.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/blob"
	"github.com/simmerhq/simmer/internal/events"
	"github.com/simmerhq/simmer/internal/fetch"
	"github.com/simmerhq/simmer/internal/ingredient"
	"github.com/simmerhq/simmer/internal/metrics"
	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/scrape"
	"github.com/simmerhq/simmer/internal/store"
)

// noUsableDataMessage is the stored failure message when a scrape completed
// but recovered nothing worth keeping.
const noUsableDataMessage = "No usable recipe data found."

// Scraper runs the extraction ladder for one URL.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (scrape.Result, error)
}

// Runner executes one import end to end.
type Runner struct {
	store      store.ImportStore
	scraper    Scraper
	blobs      blob.Store
	publisher  events.Publisher
	clock      recipe.Clock
	logger     *zap.Logger
	blobPrefix string
}

// New builds a Runner. blobs and publisher may be the no-op
// implementations when archival or eventing is not configured.
func New(st store.ImportStore, scraper Scraper, blobs blob.Store, publisher events.Publisher, clock recipe.Clock, logger *zap.Logger, blobPrefix string) *Runner {
	if blobs == nil {
		blobs = blob.Noop{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Runner{
		store:      st,
		scraper:    scraper,
		blobs:      blobs,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
		blobPrefix: blobPrefix,
	}
}

// Run drives one import to a terminal status. Already-started imports are an
// idempotent no-op. A scrape exception is persisted as "failed" and returned
// to the caller; a scrape that merely found nothing completes normally with
// status "failed".
func (r *Runner) Run(ctx context.Context, importID string) (recipe.ImportStatus, error) {
	req, err := r.store.GetImport(ctx, importID)
	if err != nil {
		return "", err
	}
	if req.Status != recipe.ImportStatusQueued {
		r.logger.Info("import already started, skipping",
			zap.String("import_id", importID),
			zap.String("status", string(req.Status)))
		return req.Status, nil
	}
	if err := r.store.SetImportRunning(ctx, importID, r.clock.Now()); err != nil {
		return "", err
	}

	result, scrapeErr := r.scraper.Scrape(ctx, req.SourceURL)

	payloadURI := r.archivePayload(ctx, importID, result.Body)

	if scrapeErr != nil {
		message := errorMessage(scrapeErr)
		finished := r.clock.Now()
		if err := r.store.CompleteImport(ctx, importID, store.ImportCompletion{
			Status:        recipe.ImportStatusFailed,
			ErrorText:     message,
			RawPayloadURI: payloadURI,
			FinishedAt:    finished,
		}); err != nil {
			return "", err
		}
		r.emit(ctx, req, recipe.ImportStatusFailed, message)
		metrics.ObserveImport(string(recipe.ImportStatusFailed))
		return recipe.ImportStatusFailed, fmt.Errorf("scrape %s: %w", req.SourceURL, scrapeErr)
	}

	metrics.ObserveScrape(result.Strategy, string(result.Extracted.Confidence))

	status, errorText := classify(result.Extracted)
	completion := store.ImportCompletion{
		Status:        status,
		ErrorText:     errorText,
		RawPayloadURI: payloadURI,
		FinishedAt:    r.clock.Now(),
	}
	if status != recipe.ImportStatusFailed {
		completion.Patch = buildPatch(result.Extracted, status == recipe.ImportStatusSuccess)
		completion.Lines = parseLines(req.TargetRecipeID, result.Extracted.IngredientLines)
	}
	if err := r.store.CompleteImport(ctx, importID, completion); err != nil {
		return "", err
	}
	r.emit(ctx, req, status, errorText)
	metrics.ObserveImport(string(status))
	r.logger.Info("import finished",
		zap.String("import_id", importID),
		zap.String("status", string(status)),
		zap.String("strategy", result.Strategy))
	return status, nil
}

func (r *Runner) archivePayload(ctx context.Context, importID string, body []byte) string {
	if len(body) == 0 {
		return ""
	}
	path := blob.PayloadPath(r.blobPrefix, importID)
	uri, err := r.blobs.PutObject(ctx, path, "text/html", bytes.NewReader(body))
	if err != nil {
		// Archival is best-effort; the import proceeds without it.
		r.logger.Warn("archive payload failed", zap.String("import_id", importID), zap.Error(err))
		return ""
	}
	return uri
}

func (r *Runner) emit(ctx context.Context, req recipe.ImportRequest, status recipe.ImportStatus, errorText string) {
	_, err := r.publisher.Publish(ctx, events.KindImportFinished, events.ImportFinished{
		ImportID:   req.ID,
		RecipeID:   req.TargetRecipeID,
		SourceURL:  req.SourceURL,
		Status:     string(status),
		ErrorText:  errorText,
		FinishedAt: r.clock.Now(),
	})
	if err != nil {
		r.logger.Warn("publish import event failed", zap.String("import_id", req.ID), zap.Error(err))
	}
}

// classify applies the success bar: title plus list content is a success;
// any recovered metadata is partial; nothing usable is a failure.
func classify(ex recipe.ExtractedRecipe) (recipe.ImportStatus, string) {
	if ex.Title != "" && ex.HasIngredientsOrDirections() {
		return recipe.ImportStatusSuccess, ""
	}
	if ex.Title != "" || ex.ImageURL != "" || ex.Description != "" {
		return recipe.ImportStatusPartial, ""
	}
	return recipe.ImportStatusFailed, noUsableDataMessage
}

// buildPatch maps scraped values onto a patch; empty values stay nil so the
// store never erases user data. The draft flag clears only on success.
func buildPatch(ex recipe.ExtractedRecipe, success bool) *recipe.RecipePatch {
	patch := &recipe.RecipePatch{
		PrepMinutes:  ex.PrepMinutes,
		CookMinutes:  ex.CookMinutes,
		TotalMinutes: ex.TotalMinutes,
		Servings:     ex.Servings,
	}
	if ex.Title != "" {
		patch.Title = &ex.Title
	}
	if ex.ImageURL != "" {
		patch.ImageURL = &ex.ImageURL
	}
	if ex.Description != "" {
		patch.Description = &ex.Description
	}
	if ex.Yields != "" {
		patch.Yields = &ex.Yields
	}
	if ex.DirectionsText != "" {
		patch.DirectionsText = &ex.DirectionsText
	}
	if success {
		draft := false
		patch.Draft = &draft
	}
	return patch
}

func parseLines(recipeID string, raws []string) []recipe.IngredientLine {
	lines := make([]recipe.IngredientLine, 0, len(raws))
	for i, raw := range raws {
		parsed := ingredient.Parse(raw)
		lines = append(lines, recipe.IngredientLine{
			RecipeID: recipeID,
			Position: i,
			Raw:      parsed.Raw,
			Name:     parsed.Name,
			Quantity: parsed.Quantity,
			Unit:     parsed.Unit,
			Notes:    parsed.Notes,
		})
	}
	return lines
}

// errorMessage renders a stored, user-readable failure message, preferring
// the HTTP status when the error carried one.
func errorMessage(err error) string {
	if code, ok := fetch.StatusFromError(err); ok {
		return fmt.Sprintf("fetch failed: status %d", code)
	}
	message := err.Error()
	if len(message) > 500 {
		message = strings.TrimSpace(message[:500])
	}
	return message
}
