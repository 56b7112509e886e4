// Package scrape orchestrates recipe extraction from a fetched page,
// trying strategies from most to least trustworthy.
package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/assist"
	"github.com/simmerhq/simmer/internal/extract/caption"
	"github.com/simmerhq/simmer/internal/extract/schemaorg"
	"github.com/simmerhq/simmer/internal/fetch"
	"github.com/simmerhq/simmer/internal/recipe"
)

// Strategy tags recorded on results for diagnostics.
const (
	StrategySchemaOrg = "schema_org"
	StrategyCaption   = "caption"
	StrategyText      = "text"
	StrategyMetadata  = "metadata"
)

// Fetcher is the page-retrieval dependency.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Result, error)
}

// Result carries the extracted recipe plus every intermediate artifact
// needed to explain how extraction went.
type Result struct {
	Extracted recipe.ExtractedRecipe

	Strategy      string
	Platform      string
	CaptionText   string
	CaptionSource string

	FetchedURL string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Orchestrator runs the extraction ladder for one URL.
type Orchestrator struct {
	fetcher Fetcher
	assist  *assist.Assist
	logger  *zap.Logger
}

// New builds an orchestrator. assist may be disabled (it degrades to the
// heuristic parsers alone).
func New(fetcher Fetcher, ai *assist.Assist, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{fetcher: fetcher, assist: ai, logger: logger}
}

// Scrape fetches the URL and extracts the best recipe it can. Fetch errors
// propagate; extraction never fails, it only degrades confidence.
func (o *Orchestrator) Scrape(ctx context.Context, rawURL string) (Result, error) {
	fetched, err := o.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Result{FetchedURL: rawURL}, err
	}
	result := Result{
		FetchedURL: rawURL,
		FinalURL:   fetched.FinalURL,
		StatusCode: fetched.StatusCode,
		Body:       fetched.Body,
	}

	if extracted, ok := schemaorg.Extract(fetched.Body); ok {
		o.logger.Debug("structured recipe found", zap.String("url", rawURL))
		result.Extracted = extracted
		result.Strategy = StrategySchemaOrg
		return result, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(fetched.Body)))
	if err != nil {
		// Unparseable markup: nothing further can run.
		result.Extracted = recipe.ExtractedRecipe{Confidence: recipe.ConfidenceLow}
		result.Strategy = StrategyMetadata
		return result, nil
	}

	baseline := Baseline(doc)
	platform := DetectPlatform(firstNonEmpty(fetched.FinalURL, rawURL))
	result.Platform = platform

	if platform != "" {
		return o.scrapeCaption(ctx, doc, baseline, platform, result), nil
	}

	if fromText, ok := o.scrapeText(doc, baseline); ok {
		result.Extracted = fromText
		result.Strategy = StrategyText
		return result, nil
	}

	result.Extracted = baseline
	result.Strategy = StrategyMetadata
	return result, nil
}

// scrapeCaption runs the platform caption ladder: locate caption text,
// parse heuristically, optionally ask the assist, and overlay onto the
// metadata baseline.
func (o *Orchestrator) scrapeCaption(ctx context.Context, doc *goquery.Document, baseline recipe.ExtractedRecipe, platform string, result Result) Result {
	text, source := CaptionText(doc)
	result.CaptionText = text
	result.CaptionSource = source
	result.Strategy = StrategyCaption

	parsed := caption.ForPlatform(platform).Parse(text)
	merged := overlayCaption(baseline, parsed)

	if !parsed.HasContent() && o.assist != nil && o.assist.Enabled() {
		if ai := o.assist.Recipe(ctx, text, platform); ai != nil {
			merged = overlayExtracted(merged, *ai)
		}
	}

	if merged.HasIngredientsOrDirections() {
		merged.Confidence = recipe.ConfidenceMedium
	} else {
		merged.Confidence = recipe.ConfidenceLow
	}
	result.Extracted = merged
	return result
}

// scrapeText strips markup and runs the generic parser; accepted only when
// it recovered list content.
func (o *Orchestrator) scrapeText(doc *goquery.Document, baseline recipe.ExtractedRecipe) (recipe.ExtractedRecipe, bool) {
	text := VisibleText(doc)
	if text == "" {
		return recipe.ExtractedRecipe{}, false
	}
	parsed := caption.Generic{}.Parse(text)
	if !parsed.HasContent() {
		return recipe.ExtractedRecipe{}, false
	}
	merged := overlayCaption(baseline, parsed)
	merged.Confidence = recipe.ConfidenceLow
	return merged, true
}

// overlayCaption lays parsed caption fields over the baseline; parsed
// values win when present.
func overlayCaption(base recipe.ExtractedRecipe, p caption.ParsedCaption) recipe.ExtractedRecipe {
	out := base
	if p.Title != "" {
		out.Title = p.Title
	}
	if p.Description != "" {
		out.Description = p.Description
	}
	if len(p.IngredientLines) > 0 {
		out.IngredientLines = p.IngredientLines
	}
	if len(p.DirectionLines) > 0 {
		out.DirectionsText = strings.Join(p.DirectionLines, "\n")
	}
	return out
}

// overlayExtracted fills gaps in the merged result from an assist response
// without clobbering heuristic output.
func overlayExtracted(base, ai recipe.ExtractedRecipe) recipe.ExtractedRecipe {
	out := base
	if out.Title == "" {
		out.Title = ai.Title
	}
	if out.Description == "" {
		out.Description = ai.Description
	}
	if out.ImageURL == "" {
		out.ImageURL = ai.ImageURL
	}
	if len(out.IngredientLines) == 0 {
		out.IngredientLines = ai.IngredientLines
	}
	if out.DirectionsText == "" {
		out.DirectionsText = ai.DirectionsText
	}
	if out.PrepMinutes == nil {
		out.PrepMinutes = ai.PrepMinutes
	}
	if out.CookMinutes == nil {
		out.CookMinutes = ai.CookMinutes
	}
	if out.TotalMinutes == nil {
		out.TotalMinutes = ai.TotalMinutes
	}
	if out.Servings == nil {
		out.Servings = ai.Servings
	}
	if out.Yields == "" {
		out.Yields = ai.Yields
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
