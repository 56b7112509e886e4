package caption

// Generic is the platform-agnostic fallback: a single-pass three-state line
// scanner switched by heading lines.
type Generic struct{}

// Platform implements Parser.
func (Generic) Platform() string { return PlatformGeneric }

type scanState int

const (
	stateUnknown scanState = iota
	stateIngredients
	stateDirections
)

// Parse implements Parser. Confidence is medium only when both lists came
// back non-empty.
func (p Generic) Parse(text string) ParsedCaption {
	lines := normalizeLines(text)

	var (
		ingredients []string
		directions  []string
		title       string
	)
	state := stateUnknown
	for _, line := range lines {
		if line == "" {
			continue
		}
		switch {
		case isIngredientHeading(line):
			state = stateIngredients
			continue
		case isDirectionHeading(line):
			state = stateDirections
			continue
		}
		switch state {
		case stateIngredients:
			ingredients = append(ingredients, stripBullet(line))
		case stateDirections:
			directions = append(directions, line)
		default:
			if title == "" && len([]rune(line)) <= 80 && !isCTALine(line) {
				title = line
			}
		}
	}

	return ParsedCaption{
		Title:           title,
		IngredientLines: ingredients,
		DirectionLines:  directions,
		Confidence:      listConfidence(ingredients, directions),
	}
}
