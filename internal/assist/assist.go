// Package assist wraps the external text-to-structure capability that turns
// messy caption text into a structured recipe. It is strictly best-effort:
// any failure degrades to "no assist" and the caller proceeds with its
// heuristic output.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/hash/sha256"
	"github.com/simmerhq/simmer/internal/recipe"
)

// TextGenerator is the model call behind the assist.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Assist deduplicates and coerces model calls. A nil generator soft-disables
// the assist entirely.
type Assist struct {
	gen    TextGenerator
	cache  Cache
	hasher *sha256.Hasher
	logger *zap.Logger
}

// New builds an Assist. gen may be nil (assist disabled).
func New(gen TextGenerator, cache Cache, logger *zap.Logger) *Assist {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assist{
		gen:    gen,
		cache:  cache,
		hasher: sha256.New(),
		logger: logger,
	}
}

// Enabled reports whether a generator is configured.
func (a *Assist) Enabled() bool {
	return a != nil && a.gen != nil
}

// Recipe returns a structured recipe for the caption, or nil when the
// assist is disabled, the caption is empty, or the call fails. Concurrent
// identical requests share one in-flight call; a failed call is evicted so
// a later retry can succeed, a successful one is retained.
func (a *Assist) Recipe(ctx context.Context, captionText, platformTag string) *recipe.ExtractedRecipe {
	if !a.Enabled() || strings.TrimSpace(captionText) == "" {
		return nil
	}
	key, err := a.hasher.Hash([]byte(platformTag + "\n" + captionText))
	if err != nil {
		a.logger.Warn("assist hash failed", zap.Error(err))
		return nil
	}

	entry, existed := a.cache.GetOrCreate(key)
	if existed {
		result, err := entry.Wait(ctx)
		if err != nil {
			a.logger.Debug("assist await failed", zap.Error(err))
			return nil
		}
		return result
	}

	result, err := a.generate(ctx, captionText, platformTag)
	if err != nil {
		a.cache.Delete(key)
		entry.resolve(nil, err)
		a.logger.Warn("assist call failed", zap.String("platform", platformTag), zap.Error(err))
		return nil
	}
	entry.resolve(result, nil)
	return result
}

const promptTemplate = `You are a recipe extraction expert. The text below is a %s caption.
Extract the recipe and return strictly one JSON object with this shape, no prose:
{
  "title": "string",
  "image_url": "string or null",
  "description": "string or null",
  "prep_min": number or null,
  "cook_min": number or null,
  "total_min": number or null,
  "servings": number or null,
  "yields": "string or null",
  "ingredient_lines": ["one ingredient per entry"],
  "directions": ["one step per entry"]
}

Caption:
%s`

func (a *Assist) generate(ctx context.Context, captionText, platformTag string) (*recipe.ExtractedRecipe, error) {
	raw, err := a.gen.GenerateContent(ctx, fmt.Sprintf(promptTemplate, platformTag, captionText))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return coerceResponse(raw)
}

// coerceResponse defensively types every field of the model output.
// Malformed fields become null/empty; they are never trusted as-is.
func coerceResponse(raw string) (*recipe.ExtractedRecipe, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal assist response: %w", err)
	}
	out := &recipe.ExtractedRecipe{
		Title:           coerceString(payload["title"]),
		ImageURL:        coerceString(payload["image_url"]),
		Description:     coerceString(payload["description"]),
		PrepMinutes:     coerceInt(payload["prep_min"]),
		CookMinutes:     coerceInt(payload["cook_min"]),
		TotalMinutes:    coerceInt(payload["total_min"]),
		Servings:        coerceInt(payload["servings"]),
		Yields:          coerceString(payload["yields"]),
		IngredientLines: coerceStrings(payload["ingredient_lines"]),
		Confidence:      recipe.ConfidenceMedium,
	}
	out.DirectionsText = strings.Join(coerceStrings(payload["directions"]), "\n")
	return out, nil
}

// extractJSONObject trims model chatter (markdown fences, prose) around the
// outermost JSON object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceInt(v any) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case string:
		var i int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &i); err == nil {
			return &i
		}
	}
	return nil
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
