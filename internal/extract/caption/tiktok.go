package caption

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TikTok parses short-video captions: dense text, emoji bullets, and a
// hashtag wall at the end.
type TikTok struct{}

// Platform implements Parser.
func (TikTok) Platform() string { return PlatformTikTok }

var hashtagToken = regexp.MustCompile(`#[^\s#]+`)

// Parse implements Parser.
func (p TikTok) Parse(text string) ParsedCaption {
	text = stripHashtagTail(text)
	lines := normalizeLines(text)

	ingredients, directions, ingStart := tiktokBlocks(lines)
	if len(ingredients) == 0 && len(directions) == 0 {
		ingredients, directions = scatteredLists(lines)
		ingStart = len(lines)
	}

	title := leadingTitle(lines)
	if title == "" {
		title = synthesizeTitle(ingredients, directions)
	}
	title = truncate(title, 80)

	return ParsedCaption{
		Title:           title,
		Description:     tiktokDescription(lines, ingStart, title),
		IngredientLines: ingredients,
		DirectionLines:  directions,
		Confidence:      listConfidence(ingredients, directions),
	}
}

// stripHashtagTail cuts the trailing hashtag wall. When the final 30% of the
// caption is more than 60% hashtag characters by length, everything from the
// first hashtag in that region is dropped.
func stripHashtagTail(text string) string {
	runes := []rune(text)
	if len(runes) < 20 {
		return text
	}
	tailStart := len(runes) * 7 / 10
	tail := string(runes[tailStart:])
	hashLen := 0
	for _, tok := range hashtagToken.FindAllString(tail, -1) {
		hashLen += len([]rune(tok))
	}
	if hashLen*10 <= len([]rune(tail))*6 {
		return text
	}
	cut := strings.Index(tail, "#")
	if cut < 0 {
		return text
	}
	return strings.TrimSpace(string(runes[:tailStart]) + tail[:cut])
}

// tiktokBlocks locates ingredient and direction blocks by heading, or by the
// first matching line when a heading is missing. ingStart is the line index
// where ingredient content begins, used to bound the description.
func tiktokBlocks(lines []string) (ingredients, directions []string, ingStart int) {
	ingStart = len(lines)
	ingHead, dirHead := -1, -1
	for i, line := range lines {
		if ingHead < 0 && isIngredientHeading(line) {
			ingHead = i
		}
		if dirHead < 0 && isDirectionHeading(line) {
			dirHead = i
		}
	}

	from := ingHead + 1
	if ingHead < 0 {
		from = firstMatch(lines, looksLikeIngredient)
		if from < 0 {
			from = len(lines)
		}
	}
	for i := from; i < len(lines); i++ {
		line := lines[i]
		if i == dirHead || isDirectionHeading(line) || looksLikeStep(line) {
			break
		}
		if line == "" {
			if len(ingredients) > 0 {
				break
			}
			continue
		}
		if ingHead < 0 && !looksLikeIngredient(line) {
			break
		}
		ingredients = append(ingredients, stripBullet(line))
		if i < ingStart {
			ingStart = i
		}
	}
	if ingHead >= 0 && ingHead < ingStart {
		ingStart = ingHead
	}

	from = dirHead + 1
	if dirHead < 0 {
		from = firstMatch(lines, looksLikeStep)
		if from < 0 {
			return ingredients, nil, ingStart
		}
	}
	for i := from; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			if len(directions) > 0 {
				break
			}
			continue
		}
		if isIngredientHeading(line) || isCTALine(line) {
			break
		}
		if dirHead < 0 && !looksLikeStep(line) {
			break
		}
		directions = append(directions, line)
	}
	return ingredients, directions, ingStart
}

// scatteredLists is the no-block fallback: accept ingredient-like and
// step-like lines from anywhere when there are enough of each (at least 3
// and 2 respectively) to look like a real recipe.
func scatteredLists(lines []string) (ingredients, directions []string) {
	for _, line := range lines {
		switch {
		case looksLikeIngredient(line):
			ingredients = append(ingredients, stripBullet(line))
		case looksLikeStep(line):
			directions = append(directions, line)
		}
	}
	if len(ingredients) < 3 || len(directions) < 2 {
		return nil, nil
	}
	return ingredients, directions
}

// leadingTitle picks the first short non-CTA line among the first three
// non-empty lines.
func leadingTitle(lines []string) string {
	seen := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		seen++
		if seen > 3 {
			break
		}
		if isCTALine(line) || isIngredientHeading(line) || isDirectionHeading(line) || looksLikeIngredient(line) {
			continue
		}
		if len([]rune(line)) <= 80 {
			return line
		}
	}
	return ""
}

var titleCaser = cases.Title(language.English)

// synthesizeTitle builds "<leading verb of step 1> <first ingredient, qty
// stripped>" when no caption line works as a title.
func synthesizeTitle(ingredients, directions []string) string {
	if len(ingredients) == 0 || len(directions) == 0 {
		return ""
	}
	step := numberedStepPattern.ReplaceAllString(directions[0], "")
	fields := strings.Fields(step)
	if len(fields) == 0 {
		return ""
	}
	verb := strings.TrimRight(fields[0], ".,!")
	name := strings.TrimSpace(leadingQtyPattern.ReplaceAllString(ingredients[0], ""))
	return titleCaser.String(strings.TrimSpace(verb + " " + name))
}

func tiktokDescription(lines []string, ingStart int, title string) string {
	var parts []string
	for i := 0; i < len(lines) && i < ingStart; i++ {
		line := lines[i]
		if line == "" || line == title || isCTALine(line) {
			continue
		}
		if isIngredientHeading(line) || isDirectionHeading(line) {
			break
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func firstMatch(lines []string, match func(string) bool) int {
	for i, line := range lines {
		if match(line) {
			return i
		}
	}
	return -1
}
