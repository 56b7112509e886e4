// Package ingredient decomposes free-text ingredient lines and normalizes
// quantities, units, and names for aggregation.
package ingredient

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/simmerhq/simmer/internal/recipe"
)

// Canonical unit aliases. Unmatched tokens stay part of the name.
var unitAliases = map[string]string{
	"g": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg", "kilo": "kg", "kilos": "kg",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"cup": "cup", "cups": "cup",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
}

// Discretely countable foods that read naturally as "2 eggs"; a bare
// quantity on one of these gets the synthetic unit "pcs".
var countableNames = map[string]struct{}{
	"egg":          {},
	"lemon":        {},
	"lime":         {},
	"tomato":       {},
	"onion":        {},
	"garlic clove": {},
}

var (
	parentheticalPattern = regexp.MustCompile(`\(([^)]*)\)`)
	toTastePattern       = regexp.MustCompile(`(?i),?\s*\bto taste\b`)
	optionalPattern      = regexp.MustCompile(`(?i),?\s*\boptional\b`)
	quantityPattern      = regexp.MustCompile(`^\s*(\d+\s+\d+\s*/\s*\d+|\d+\s*/\s*\d+|\d+(?:[.,]\d+)?(?:\s*[¼½¾⅓⅔⅛])?|[¼½¾⅓⅔⅛])`)
	unitTokenPattern     = regexp.MustCompile(`^\s*([A-Za-z]+)\.?\s*`)
	punctPattern         = regexp.MustCompile(`[^a-z0-9 ]+`)
	spacePattern         = regexp.MustCompile(`\s+`)
)

var vulgarFractions = map[rune]float64{
	'¼': 0.25, '½': 0.5, '¾': 0.75, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '⅛': 0.125,
}

// Parse decomposes one raw line. It is pure: identical input always yields
// identical output. A missing quantity is not an error.
func Parse(raw string) recipe.ParsedIngredient {
	out := recipe.ParsedIngredient{Raw: raw}
	rest := strings.TrimSpace(raw)

	var notes []string
	rest = parentheticalPattern.ReplaceAllStringFunc(rest, func(m string) string {
		inner := strings.TrimSpace(strings.Trim(m, "()"))
		if inner != "" {
			notes = append(notes, inner)
		}
		return " "
	})
	if toTastePattern.MatchString(rest) {
		notes = append(notes, "to taste")
		rest = toTastePattern.ReplaceAllString(rest, " ")
	}
	if optionalPattern.MatchString(rest) {
		notes = append(notes, "optional")
		rest = optionalPattern.ReplaceAllString(rest, " ")
	}
	if len(notes) > 0 {
		joined := strings.Join(notes, ", ")
		out.Notes = &joined
	}

	rest = strings.TrimSpace(rest)
	if m := quantityPattern.FindStringSubmatch(rest); m != nil {
		if qty, ok := parseQuantity(m[1]); ok {
			out.Quantity = &qty
			rest = strings.TrimSpace(rest[len(m[0]):])
		}
	}

	if m := unitTokenPattern.FindStringSubmatch(rest); m != nil {
		if canonical, ok := unitAliases[strings.ToLower(m[1])]; ok {
			out.Unit = &canonical
			rest = rest[len(m[0]):]
		}
	}

	rest = strings.TrimPrefix(rest, "of ")
	out.Name = normalizeName(rest)

	if out.Unit == nil && out.Quantity != nil {
		if _, countable := countableNames[out.Name]; countable {
			pcs := "pcs"
			out.Unit = &pcs
		}
	}
	return out
}

// parseQuantity handles mixed numbers ("1 1/2"), fractions ("3/4"),
// decimals ("1.5", "1,5"), integers, and unicode vulgar fractions.
func parseQuantity(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}

	runes := []rune(token)
	if frac, ok := vulgarFractions[runes[len(runes)-1]]; ok {
		whole := strings.TrimSpace(string(runes[:len(runes)-1]))
		if whole == "" {
			return frac, true
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(whole, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return n + frac, true
	}

	fields := strings.Fields(token)
	if len(fields) == 2 {
		whole, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, false
		}
		frac, ok := parseFraction(fields[1])
		if !ok {
			return 0, false
		}
		return whole + frac, true
	}
	if strings.Contains(token, "/") {
		return parseFraction(token)
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFraction(token string) (float64, bool) {
	parts := strings.SplitN(strings.ReplaceAll(token, " ", ""), "/", 2)
	if len(parts) != 2 {
		return 0, false
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0, false
	}
	return num / den, true
}

// normalizeName lowercases, maps punctuation to spaces, collapses
// whitespace, and singularizes the final word.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
	if s == "" {
		return s
	}
	words := strings.Split(s, " ")
	words[len(words)-1] = singularize(words[len(words)-1])
	return strings.Join(words, " ")
}

func singularize(word string) string {
	switch {
	case len(word) > 3 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 3 && strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case len(word) > 1 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	default:
		return word
	}
}
