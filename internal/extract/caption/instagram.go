package caption

import "strings"

// Instagram parses photo/video post captions: a prose paragraph up front,
// then headed ingredient and direction sections. Some authors write the
// whole ingredient list inline, separated by " - ".
type Instagram struct{}

// Platform implements Parser.
func (Instagram) Platform() string { return PlatformInstagram }

// Parse implements Parser.
func (p Instagram) Parse(text string) ParsedCaption {
	lines := normalizeLines(text)

	ingHead := firstMatch(lines, isIngredientHeading)
	listStart := ingHead
	if listStart < 0 {
		listStart = firstMatch(lines, func(l string) bool {
			return isDirectionHeading(l) || looksLikeIngredient(l) || looksLikeStep(l)
		})
	}

	ingredients := instagramIngredients(lines, ingHead)
	directions := instagramDirections(lines)

	return ParsedCaption{
		Title:           instagramTitle(lines, ingHead),
		Description:     leadingParagraph(lines, listStart),
		IngredientLines: ingredients,
		DirectionLines:  directions,
		Confidence:      listConfidence(ingredients, directions),
	}
}

// instagramIngredients takes the text between the ingredient heading and the
// next direction heading or numbered step. Lines holding an inline
// hyphen-list (two or more " - " separators) are split into separate lines.
func instagramIngredients(lines []string, ingHead int) []string {
	if ingHead < 0 {
		return nil
	}
	var out []string
	for i := ingHead + 1; i < len(lines); i++ {
		line := lines[i]
		if isDirectionHeading(line) || looksLikeStep(line) {
			break
		}
		if line == "" {
			if len(out) > 0 {
				break
			}
			continue
		}
		out = append(out, splitInlineList(line)...)
	}
	return out
}

// splitInlineList breaks "olive oil - 2 cloves garlic - salt" style lines
// apart; single hyphens inside a name ("pre - heated") are left alone.
func splitInlineList(line string) []string {
	if strings.Count(line, " - ") < 2 {
		return []string{stripBullet(line)}
	}
	parts := strings.Split(line, " - ")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(stripBullet(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func instagramDirections(lines []string) []string {
	dirHead := firstMatch(lines, isDirectionHeading)
	from := dirHead + 1
	if dirHead < 0 {
		from = firstMatch(lines, looksLikeStep)
		if from < 0 {
			return nil
		}
	}
	var out []string
	for i := from; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			if len(out) > 0 {
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
		out = append(out, line)
	}
	return out
}

// instagramTitle prefers the first short non-heading line; otherwise the
// first sentence before the ingredient heading, when it fits a title.
func instagramTitle(lines []string, ingHead int) string {
	for _, line := range lines {
		if line == "" {
			continue
		}
		if isIngredientHeading(line) || isDirectionHeading(line) {
			break
		}
		if isCTALine(line) || looksLikeIngredient(line) || looksLikeStep(line) {
			continue
		}
		if len([]rune(line)) <= 80 {
			return line
		}
		break
	}
	end := ingHead
	if end < 0 {
		end = len(lines)
	}
	lead := strings.Join(nonEmpty(lines[:end]), " ")
	if sentence := firstSentence(lead); len([]rune(sentence)) <= 80 {
		return sentence
	}
	return ""
}

// leadingParagraph joins the non-empty lines preceding the first heading or
// list content.
func leadingParagraph(lines []string, listStart int) string {
	end := listStart
	if end < 0 {
		end = len(lines)
	}
	return strings.Join(nonEmpty(lines[:end]), " ")
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			return strings.TrimSpace(text[:i])
		}
	}
	return text
}

func nonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
