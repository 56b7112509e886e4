// Package caption turns free-text video/photo captions into best-effort
// recipes. Captions carry no schema guarantee, so each platform gets its own
// heuristic parser behind a shared Parser interface, plus a generic parser
// for unknown sources.
package caption

import (
	"html"
	"regexp"
	"strings"

	"github.com/simmerhq/simmer/internal/recipe"
)

// ParsedCaption is the best-effort recipe recovered from caption text.
type ParsedCaption struct {
	Title           string
	Description     string
	IngredientLines []string
	DirectionLines  []string
	Confidence      recipe.Confidence
}

// HasContent reports whether any list content was recovered.
func (p ParsedCaption) HasContent() bool {
	return len(p.IngredientLines) > 0 || len(p.DirectionLines) > 0
}

// Parser is one platform's caption heuristic.
type Parser interface {
	// Platform is the source tag recorded in scrape diagnostics.
	Platform() string
	// Parse never fails; an unusable caption produces an empty,
	// low-confidence result.
	Parse(text string) ParsedCaption
}

// ForPlatform returns the parser for a detected platform tag, falling back
// to the generic parser.
func ForPlatform(tag string) Parser {
	switch tag {
	case PlatformTikTok:
		return TikTok{}
	case PlatformInstagram:
		return Instagram{}
	default:
		return Generic{}
	}
}

// Platform tags used by the orchestrator and the assist prompt.
const (
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformGeneric   = "generic"
)

var (
	ingredientHeadings = []string{"ingredients", "what you need", "you'll need", "you will need"}
	directionHeadings  = []string{"instructions", "directions", "method", "steps", "how to"}

	numberedStepPattern = regexp.MustCompile(`(?i)^\s*(?:\d+\s*[.)]|step\s+\d+)`)
	leadingQtyPattern   = regexp.MustCompile(`^\s*(?:\d+\s+\d+\s*/\s*\d+|\d+\s*/\s*\d+|\d+(?:[.,]\d+)?|[¼½¾⅓⅔⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞])`)
	ctaPattern          = regexp.MustCompile(`(?i)\b(follow|comment|link in bio|link in my bio|subscribe|like and save|save this|dm me|tag a friend|full recipe on|recipe linked)\b`)
)

// normalizeLines decodes HTML entities and splits the caption into trimmed
// lines, preserving empties so paragraph boundaries stay visible.
func normalizeLines(text string) []string {
	decoded := html.UnescapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	lines := strings.Split(decoded, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// isIngredientHeading matches lines like "Ingredients:", "✨ What you need".
func isIngredientHeading(line string) bool {
	return isHeading(line, ingredientHeadings)
}

// isDirectionHeading matches lines like "Method", "How to:".
func isDirectionHeading(line string) bool {
	return isHeading(line, directionHeadings)
}

func isHeading(line string, keywords []string) bool {
	cleaned := strings.ToLower(strings.TrimRight(stripBullet(line), ":-–— "))
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || len(cleaned) > 40 {
		return false
	}
	for _, kw := range keywords {
		if cleaned == kw || strings.HasPrefix(cleaned, kw+":") || strings.HasPrefix(cleaned, kw+" ") && len(cleaned) <= len(kw)+12 {
			return true
		}
	}
	return false
}

// isBulletLine detects -, •, * prefixes and leading pictographic emoji.
func isBulletLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '-', '*':
		return true
	}
	r := []rune(trimmed)[0]
	return r == '•' || isPictographic(r)
}

// stripBullet removes a single leading bullet or emoji marker.
func stripBullet(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	runes := []rune(trimmed)
	switch runes[0] {
	case '-', '*', '•':
		return strings.TrimSpace(string(runes[1:]))
	}
	if isPictographic(runes[0]) {
		i := 1
		for i < len(runes) && (isPictographic(runes[i]) || runes[i] == '️') {
			i++
		}
		return strings.TrimSpace(string(runes[i:]))
	}
	return trimmed
}

// isPictographic covers the emoji blocks captions actually use for bullets.
func isPictographic(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // misc symbols, emoticons, supplemental
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r == 0x2B50 || r == 0x2705 || r == 0x2714:
		return true
	default:
		return false
	}
}

// startsWithQuantity reports a leading integer, decimal, fraction, or
// unicode vulgar fraction.
func startsWithQuantity(line string) bool {
	return leadingQtyPattern.MatchString(stripBullet(line))
}

// isNumberedStep matches "1.", "2)", "Step 3" style lines.
func isNumberedStep(line string) bool {
	return numberedStepPattern.MatchString(line)
}

// looksLikeIngredient is the block-free fallback signal: a bulleted or
// quantity-led short line.
func looksLikeIngredient(line string) bool {
	if line == "" || len(line) > 120 {
		return false
	}
	if isIngredientHeading(line) || isDirectionHeading(line) || isNumberedStep(line) {
		return false
	}
	return isBulletLine(line) || startsWithQuantity(line)
}

// looksLikeStep is the block-free fallback signal for directions. Numbered
// prefixes ("1.", "step 2") separate steps from quantity-led ingredients.
func looksLikeStep(line string) bool {
	return isNumberedStep(line)
}

func isCTALine(line string) bool {
	return ctaPattern.MatchString(line)
}

// listConfidence applies the shared grading rule: medium only when both
// lists are non-empty.
func listConfidence(ingredients, directions []string) recipe.Confidence {
	if len(ingredients) > 0 && len(directions) > 0 {
		return recipe.ConfidenceMedium
	}
	return recipe.ConfidenceLow
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
