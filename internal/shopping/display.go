package shopping

import (
	"strconv"
	"strings"
)

// Display renders "<qty><unit> <name>", with " (<notes>)" appended when
// notes exist. Quantity-less items render as just the name. Integers print
// unformatted; anything else rounds to one decimal with a trailing ".0"
// dropped.
func Display(qty *float64, unit *string, name string, notes *string) string {
	var b strings.Builder
	if qty != nil {
		b.WriteString(FormatQuantity(*qty))
		if unit != nil && *unit != "" {
			b.WriteString(*unit)
		}
		b.WriteString(" ")
	}
	b.WriteString(name)
	if notes != nil && *notes != "" {
		b.WriteString(" (")
		b.WriteString(*notes)
		b.WriteString(")")
	}
	return b.String()
}

// FormatQuantity prints integers bare and other values to one decimal.
func FormatQuantity(qty float64) string {
	rounded := strconv.FormatFloat(qty, 'f', 1, 64)
	return strings.TrimSuffix(rounded, ".0")
}
