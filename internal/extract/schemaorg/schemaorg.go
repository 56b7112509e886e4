// Package schemaorg extracts embedded schema.org Recipe metadata from HTML.
// Publishers embed it as JSON-LD script blocks, either as a flat object, an
// array, or wrapped in an @graph envelope. Malformed blocks are skipped
// silently; extraction degrades rather than fails.
package schemaorg

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/simmerhq/simmer/internal/recipe"
)

// Extract scans the document for a Recipe node. The second return value is
// false when no recipe metadata was found. A found recipe is always graded
// high confidence.
func Extract(html []byte) (recipe.ExtractedRecipe, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return recipe.ExtractedRecipe{}, false
	}

	var node map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true // skip malformed block
		}
		if found := findRecipeNode(payload); found != nil {
			node = found
			return false
		}
		return true
	})
	if node == nil {
		return recipe.ExtractedRecipe{}, false
	}
	return fromNode(node), true
}

// findRecipeNode walks a decoded JSON-LD payload looking for a node typed
// "Recipe" (the @type may be a string or a list of strings).
func findRecipeNode(payload any) map[string]any {
	switch v := payload.(type) {
	case map[string]any:
		if isRecipeType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findRecipeNode(graph)
		}
	case []any:
		for _, item := range v {
			if found := findRecipeNode(item); found != nil {
				return found
			}
		}
	}
	return nil
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "Recipe")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

func fromNode(node map[string]any) recipe.ExtractedRecipe {
	yields := yieldText(node["recipeYield"])
	out := recipe.ExtractedRecipe{
		Title:           stringValue(node["name"]),
		ImageURL:        imageURL(node["image"]),
		Description:     stringValue(node["description"]),
		PrepMinutes:     durationMinutes(stringValue(node["prepTime"])),
		CookMinutes:     durationMinutes(stringValue(node["cookTime"])),
		TotalMinutes:    durationMinutes(stringValue(node["totalTime"])),
		Servings:        leadingInt(yields),
		Yields:          yields,
		IngredientLines: stringList(node["recipeIngredient"]),
		Confidence:      recipe.ConfidenceHigh,
	}
	if len(out.IngredientLines) == 0 {
		out.IngredientLines = stringList(node["ingredients"]) // legacy key
	}
	out.DirectionsText = strings.Join(instructionLines(node["recipeInstructions"]), "\n")
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// imageURL accepts a plain string, an array (first resolvable entry wins),
// or an ImageObject carrying a url field.
func imageURL(v any) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case []any:
		for _, item := range img {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	case map[string]any:
		return stringValue(img["url"])
	}
	return ""
}

func yieldText(v any) string {
	switch y := v.(type) {
	case string:
		return strings.TrimSpace(y)
	case float64:
		return strconv.FormatFloat(y, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(y))
		for _, item := range y {
			if s := yieldText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := stringValue(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringValue(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// instructionLines flattens recipeInstructions in document order. Entries
// may be plain strings, HowToStep objects with a text field, or
// HowToSection objects nesting sub-steps under itemListElement.
func instructionLines(v any) []string {
	switch inst := v.(type) {
	case string:
		return splitInstructionText(inst)
	case []any:
		var out []string
		for _, item := range inst {
			out = append(out, instructionLines(item)...)
		}
		return out
	case map[string]any:
		if nested, ok := inst["itemListElement"]; ok {
			return instructionLines(nested)
		}
		if text := stringValue(inst["text"]); text != "" {
			return []string{text}
		}
		if name := stringValue(inst["name"]); name != "" {
			return []string{name}
		}
	}
	return nil
}

func splitInstructionText(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

var durationPattern = regexp.MustCompile(`(?i)^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:\d+(?:\.\d+)?S)?)?$`)

// durationMinutes converts an ISO-8601-like duration ("PT1H30M") to whole
// minutes. Unparseable input yields nil, never a guess.
func durationMinutes(s string) *int {
	if s == "" {
		return nil
	}
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	days, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	hours, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	total := days*24*60 + hours*60 + minutes
	if total == 0 && m[1] == "" && m[2] == "" && m[3] == "" {
		return nil
	}
	return &total
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

var leadingIntPattern = regexp.MustCompile(`^\s*(\d+)`)

func leadingInt(s string) *int {
	m := leadingIntPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
