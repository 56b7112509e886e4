package ingredient

import "strings"

// Category is one entry of the fixed taxonomy.
type Category struct {
	Key      string
	Label    string
	Keywords []string
}

// Taxonomy is the ordered category list. Order is significant: keyword sets
// overlap (an egg is dairy-aisle here, so "egg" must win before anything
// later would claim it), and the first match in list order wins.
var Taxonomy = []Category{
	{Key: "produce", Label: "Produce", Keywords: []string{
		"apple", "banana", "lemon", "lime", "orange", "berry", "grape",
		"onion", "garlic", "tomato", "carrot", "potato", "spinach", "lettuce",
		"broccoli", "cucumber", "mushroom", "avocado", "zucchini", "kale",
		"cabbage", "celery", "ginger", "cilantro", "parsley", "basil",
		"thyme", "rosemary", "mint", "scallion", "leek", "shallot",
	}},
	{Key: "meat", Label: "Meat & Fish", Keywords: []string{
		"chicken", "beef", "pork", "lamb", "turkey", "sausage", "bacon",
		"ham", "mince", "steak", "fish", "salmon", "tuna", "cod", "shrimp",
		"prawn", "anchov",
	}},
	{Key: "dairy", Label: "Dairy & Eggs", Keywords: []string{
		"milk", "cheese", "butter", "cream", "yogurt", "yoghurt", "egg",
		"ricotta", "mozzarella", "parmesan", "feta",
	}},
	{Key: "bakery", Label: "Bakery", Keywords: []string{
		"bread", "bun", "roll", "bagel", "tortilla", "pita", "croissant",
		"baguette",
	}},
	{Key: "pantry", Label: "Pantry", Keywords: []string{
		"flour", "sugar", "rice", "pasta", "orzo", "noodle", "oil",
		"vinegar", "sauce", "stock", "broth", "honey", "oats", "bean",
		"lentil", "chickpea", "quinoa", "breadcrumb", "yeast", "cocoa",
		"chocolate", "vanilla", "mustard", "ketchup", "mayo",
	}},
	{Key: "spices", Label: "Spices", Keywords: []string{
		"salt", "pepper", "cumin", "paprika", "cinnamon", "oregano",
		"chili", "turmeric", "coriander", "nutmeg", "curry powder",
		"spice", "seasoning",
	}},
	{Key: "frozen", Label: "Frozen", Keywords: []string{
		"frozen", "ice cream", "pea",
	}},
	{Key: "canned", Label: "Canned", Keywords: []string{
		"canned", "tinned", "tin of", "can of",
	}},
	{Key: "other", Label: "Other", Keywords: nil},
}

// Categorize returns the key of the first category whose keyword
// substring-matches the lowercased name; "other" is the default.
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, cat := range Taxonomy {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				return cat.Key
			}
		}
	}
	return "other"
}

// CategoryLabel resolves a key to its display label.
func CategoryLabel(key string) string {
	for _, cat := range Taxonomy {
		if cat.Key == key {
			return cat.Label
		}
	}
	return "Other"
}
