package ingredient

import "strings"

// UnitClass buckets canonical units for merge keys: two lines only combine
// when their units are dimensionally compatible.
func UnitClass(unit string) string {
	switch unit {
	case "g", "kg", "oz", "lb":
		return "mass"
	case "ml", "l", "tsp", "tbsp", "cup":
		return "volume"
	case "pcs":
		return "count"
	case "":
		return "none"
	default:
		return "other"
	}
}

// Volume of one unit in milliliters.
var volumeML = map[string]float64{
	"ml":   1,
	"l":    1000,
	"tsp":  5,
	"tbsp": 15,
	"cup":  240,
}

// Names treated as liquids: volume stays volume, reported in ml.
var liquidKeywords = []string{"milk", "water", "oil", "stock", "broth"}

// Density table (g per ml) for dry goods commonly measured by volume.
var densityGPerML = map[string]float64{
	"flour": 0.53,
	"sugar": 0.85,
	"rice":  0.85,
	"oats":  0.36,
}

// ToMetric converts a parsed quantity/unit pair for the metric view.
// kg and l scale unconditionally. Cooking volumes (cup/tbsp/tsp) convert to
// ml for liquids, to grams via the density table for known dry goods, and
// stay untouched when the ingredient is ambiguous: no guessing.
func ToMetric(name string, quantity *float64, unit *string) (*float64, *string) {
	if quantity == nil || unit == nil {
		return quantity, unit
	}
	qty := *quantity
	u := *unit

	switch u {
	case "kg":
		return metric(qty*1000, "g")
	case "l":
		qty *= 1000
		u = "ml"
	}

	if u == "ml" {
		if density, ok := densityFor(name); ok && !isLiquid(name) {
			return metric(qty*density, "g")
		}
		return metric(qty, "ml")
	}

	perML, isVolume := volumeML[u]
	if !isVolume {
		return metric(qty, u)
	}
	ml := qty * perML
	if isLiquid(name) {
		return metric(ml, "ml")
	}
	if density, ok := densityFor(name); ok {
		return metric(ml*density, "g")
	}
	// Ambiguous dry volume, left as-is.
	return metric(qty, u)
}

func metric(qty float64, unit string) (*float64, *string) {
	return &qty, &unit
}

func isLiquid(name string) bool {
	for _, kw := range liquidKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

func densityFor(name string) (float64, bool) {
	for kw, density := range densityGPerML {
		if strings.Contains(name, kw) {
			return density, true
		}
	}
	return 0, false
}
