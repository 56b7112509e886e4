package shopping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simmerhq/simmer/internal/ingredient"
	"github.com/simmerhq/simmer/internal/recipe"
)

func line(recipeID string, pos int, raw, name string, qty *float64, unit, notes *string) recipe.IngredientLine {
	return recipe.IngredientLine{
		RecipeID: recipeID,
		Position: pos,
		Raw:      raw,
		Name:     name,
		Quantity: qty,
		Unit:     unit,
		Notes:    notes,
	}
}

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func weekRecipes() []recipe.Recipe {
	return []recipe.Recipe{
		{
			ID:    "r1",
			Title: "Pasta",
			IngredientLines: []recipe.IngredientLine{
				line("r1", 0, "200g flour", "flour", f(200), s("g"), nil),
				line("r1", 1, "2 eggs", "egg", f(2), s("pcs"), nil),
				line("r1", 2, "1 onion", "onion", f(1), s("pcs"), nil),
			},
		},
		{
			ID:    "r2",
			Title: "Pancakes",
			IngredientLines: []recipe.IngredientLine{
				line("r2", 0, "300g flour", "flour", f(300), s("g"), nil),
				line("r2", 1, "3 eggs", "egg", f(3), s("pcs"), nil),
				line("r2", 2, "salt to taste", "salt", nil, nil, s("to taste")),
			},
		},
	}
}

func findItem(t *testing.T, sections []CategorySection, name string) Item {
	t.Helper()
	for _, section := range sections {
		for _, item := range section.Items {
			if item.Name == name {
				return item
			}
		}
	}
	t.Fatalf("item %q not found", name)
	return Item{}
}

func TestAggregated_MergesAcrossRecipes(t *testing.T) {
	t.Parallel()

	sections := Aggregated(weekRecipes(), Options{})

	flour := findItem(t, sections, "flour")
	require.Equal(t, 500.0, *flour.Quantity)
	require.Equal(t, []string{"r1", "r2"}, flour.SourceRecipeIDs)
	require.Equal(t, "500g flour", flour.DisplayText)

	eggs := findItem(t, sections, "egg")
	require.Equal(t, 5.0, *eggs.Quantity)
	require.Equal(t, "5pcs egg", eggs.DisplayText)
}

func TestAggregated_EveryItemKeepsSourceRef(t *testing.T) {
	t.Parallel()

	for _, section := range Aggregated(weekRecipes(), Options{}) {
		for _, item := range section.Items {
			require.NotEmpty(t, item.SourceRecipeIDs, "item %s", item.Name)
		}
	}
}

func TestAggregated_QuantifiedAndUnquantifiedStaySeparate(t *testing.T) {
	t.Parallel()

	recipes := []recipe.Recipe{
		{ID: "r1", IngredientLines: []recipe.IngredientLine{
			line("r1", 0, "olive oil", "olive oil", nil, nil, nil),
		}},
		{ID: "r2", IngredientLines: []recipe.IngredientLine{
			line("r2", 0, "2 tbsp olive oil", "olive oil", f(2), s("tbsp"), nil),
		}},
	}
	sections := Aggregated(recipes, Options{})
	var count int
	for _, section := range sections {
		count += len(section.Items)
	}
	// Different has-quantity flags mean different merge keys.
	require.Equal(t, 2, count)
}

func TestAggregated_MergeOrderIndependentQuantity(t *testing.T) {
	t.Parallel()

	a := []recipe.Recipe{
		{ID: "r1", IngredientLines: []recipe.IngredientLine{
			line("r1", 0, "100g rice", "rice", f(100), s("g"), nil),
		}},
		{ID: "r2", IngredientLines: []recipe.IngredientLine{
			line("r2", 0, "250g rice", "rice", f(250), s("g"), nil),
		}},
	}
	b := []recipe.Recipe{a[1], a[0]}

	qa := *findItem(t, Aggregated(a, Options{}), "rice").Quantity
	qb := *findItem(t, Aggregated(b, Options{}), "rice").Quantity
	require.Equal(t, qa, qb)
}

func TestAggregated_NotesSplitItems(t *testing.T) {
	t.Parallel()

	recipes := []recipe.Recipe{
		{ID: "r1", IngredientLines: []recipe.IngredientLine{
			line("r1", 0, "1 cup walnuts (toasted)", "walnut", f(1), s("cup"), s("toasted")),
			line("r1", 1, "1 cup walnuts", "walnut", f(1), s("cup"), nil),
		}},
	}
	sections := Aggregated(recipes, Options{})
	var count int
	for _, section := range sections {
		count += len(section.Items)
	}
	require.Equal(t, 2, count)
}

func TestAggregated_MetricView(t *testing.T) {
	t.Parallel()

	recipes := []recipe.Recipe{
		{ID: "r1", IngredientLines: []recipe.IngredientLine{
			line("r1", 0, "1 cup milk", "milk", f(1), s("cup"), nil),
			line("r1", 1, "100 ml milk", "milk", f(100), s("ml"), nil),
		}},
	}
	milk := findItem(t, Aggregated(recipes, Options{Metric: true}), "milk")
	require.Equal(t, 340.0, *milk.Quantity)
	require.Equal(t, "340ml milk", milk.DisplayText)
}

func TestAggregated_SourcePreservingMode(t *testing.T) {
	t.Parallel()

	sections := Aggregated(weekRecipes(), Options{PreserveSources: true})
	flour := findItem(t, sections, "flour")
	require.Equal(t, []string{"200g flour", "300g flour"}, flour.SourceLines)
}

func TestByRecipe_GroupsAndSkipsEmpty(t *testing.T) {
	t.Parallel()

	sections := ByRecipe(weekRecipes(), Options{})

	var pantry *RecipeSection
	for i := range sections {
		if sections[i].Category == "pantry" {
			pantry = &sections[i]
		}
	}
	require.NotNil(t, pantry)
	require.Len(t, pantry.Recipes, 2) // both recipes contributed flour
	require.Equal(t, "Pasta", pantry.Recipes[0].RecipeTitle)

	// Only r2 contributed a spice item; r1 must not appear there.
	for _, section := range sections {
		if section.Category == "spices" {
			require.Len(t, section.Recipes, 1)
			require.Equal(t, "r2", section.Recipes[0].RecipeID)
		}
	}
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	require.Equal(t, "500g flour", Display(f(500), s("g"), "flour", nil))
	require.Equal(t, "1.5cup flour", Display(f(1.5), s("cup"), "flour", nil))
	require.Equal(t, "2 cloves garlic", Display(f(2), nil, "cloves garlic", nil))
	require.Equal(t, "salt (to taste)", Display(nil, nil, "salt", s("to taste")))
	require.Equal(t, "basil", Display(nil, nil, "basil", nil))
	require.Equal(t, "0.3tsp nutmeg", Display(f(1.0/3), s("tsp"), "nutmeg", nil))
}

// A displayed quantity must survive a reparse of its own display text to
// within one-decimal rounding, so lists can be re-imported losslessly.
func TestDisplayReparseRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		qty  float64
		unit string
		food string
	}{
		{"integer", 2, "cup", "flour"},
		{"half", 1.5, "cup", "flour"},
		{"quarter", 0.75, "l", "milk"},
		{"third", 1.0 / 3, "tsp", "nutmeg"},
		{"two thirds", 2.0 / 3, "cup", "stock"},
		{"large", 500, "g", "flour"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			text := Display(f(tc.qty), s(tc.unit), tc.food, nil)
			parsed := ingredient.Parse(text)
			require.NotNil(t, parsed.Quantity, "display %q lost its quantity", text)
			require.InDelta(t, tc.qty, *parsed.Quantity, 0.05+1e-9,
				"display %q reparsed to %v", text, *parsed.Quantity)
			require.NotNil(t, parsed.Unit)
			require.Equal(t, tc.unit, *parsed.Unit)
		})
	}
}
