package caption

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simmerhq/simmer/internal/recipe"
)

func TestInstagram_HeadedSections(t *testing.T) {
	t.Parallel()

	text := "Lemon ricotta pancakes\n\n" +
		"Sunday mornings deserve better than cereal.\n\n" +
		"Ingredients\n" +
		"1 cup ricotta\n" +
		"2 eggs\n" +
		"1 lemon, zested\n" +
		"1 cup flour\n\n" +
		"Directions\n" +
		"1. Whisk ricotta, eggs and zest.\n" +
		"2. Fold in flour.\n" +
		"3. Fry in butter.\n"
	got := Instagram{}.Parse(text)
	require.Equal(t, "Lemon ricotta pancakes", got.Title)
	require.Len(t, got.IngredientLines, 4)
	require.Len(t, got.DirectionLines, 3)
	require.Equal(t, recipe.ConfidenceMedium, got.Confidence)
	require.Contains(t, got.Description, "Sunday mornings")
}

func TestInstagram_InlineHyphenListSplit(t *testing.T) {
	t.Parallel()

	text := "Ingredients\n" +
		"2 tbsp olive oil - 3 cloves garlic - 1 tin tomatoes - salt to taste\n" +
		"Method\n" +
		"1. Cook it all down.\n"
	got := Instagram{}.Parse(text)
	require.Equal(t, []string{
		"2 tbsp olive oil",
		"3 cloves garlic",
		"1 tin tomatoes",
		"salt to taste",
	}, got.IngredientLines)
}

func TestInstagram_SingleHyphenNotSplit(t *testing.T) {
	t.Parallel()

	text := "Ingredients\n" +
		"1 cup pre - soaked beans\n" +
		"Method\n" +
		"1. Simmer.\n"
	got := Instagram{}.Parse(text)
	require.Equal(t, []string{"1 cup pre - soaked beans"}, got.IngredientLines)
}

func TestInstagram_IngredientBlockEndsAtNumberedStep(t *testing.T) {
	t.Parallel()

	text := "Ingredients:\n" +
		"500g beef mince\n" +
		"1 onion\n" +
		"1. Brown the mince.\n" +
		"2. Add the onion.\n"
	got := Instagram{}.Parse(text)
	require.Equal(t, []string{"500g beef mince", "1 onion"}, got.IngredientLines)
	require.Len(t, got.DirectionLines, 2)
}

func TestInstagram_FirstSentenceTitleFallback(t *testing.T) {
	t.Parallel()

	text := "These garlicky smashed potatoes are the only side you need. Trust me on this one.\n\n" +
		"Ingredients\n" +
		"1kg baby potatoes\n" +
		"4 cloves garlic\n"
	got := Instagram{}.Parse(text)
	require.Equal(t, "These garlicky smashed potatoes are the only side you need", got.Title)
}

func TestInstagram_NoIngredientsLowConfidence(t *testing.T) {
	t.Parallel()

	got := Instagram{}.Parse("just a pretty food photo #nofilter")
	require.False(t, got.HasContent())
	require.Equal(t, recipe.ConfidenceLow, got.Confidence)
}
