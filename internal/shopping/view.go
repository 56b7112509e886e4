// Package shopping builds per-recipe and aggregated shopping views from the
// parsed ingredient lines of a week's meals.
package shopping

import (
	"fmt"
	"strings"

	"github.com/simmerhq/simmer/internal/ingredient"
	"github.com/simmerhq/simmer/internal/recipe"
)

// Options controls view construction.
type Options struct {
	// Metric runs the unit converter; the raw-unit view bypasses it.
	Metric bool
	// PreserveSources records the original raw lines on each item.
	PreserveSources bool
}

// Item is one aggregated shopping entry. It always retains at least one
// source recipe reference.
type Item struct {
	MergeKey        string   `json:"merge_key"`
	Category        string   `json:"category"`
	Name            string   `json:"name"`
	Quantity        *float64 `json:"quantity"`
	Unit            *string  `json:"unit"`
	Notes           *string  `json:"notes"`
	DisplayText     string   `json:"display_text"`
	SourceRecipeIDs []string `json:"source_recipe_ids"`
	SourceLines     []string `json:"source_lines,omitempty"`
}

// CategorySection is one category of the aggregated view, in taxonomy order.
type CategorySection struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Items    []Item `json:"items"`
}

// RecipeGroup holds one recipe's items inside a category.
type RecipeGroup struct {
	RecipeID    string `json:"recipe_id"`
	RecipeTitle string `json:"recipe_title"`
	Items       []Item `json:"items"`
}

// RecipeSection is one category of the per-recipe view.
type RecipeSection struct {
	Category string        `json:"category"`
	Label    string        `json:"label"`
	Recipes  []RecipeGroup `json:"recipes"`
}

// MergeKey derives the tuple deciding which entries may combine: category,
// normalized name, unit class, notes, and whether a quantity exists. Lines
// merge iff keys are equal, so quantified and unquantified duplicates stay
// separate entries.
func MergeKey(category, name, unit, notes string, hasQuantity bool) string {
	return strings.Join([]string{
		category,
		name,
		ingredient.UnitClass(unit),
		notes,
		fmt.Sprintf("%t", hasQuantity),
	}, "|")
}

// Aggregated merges the week's ingredient lines across recipes. Quantities
// sum when both sides carry one; an item created without a quantity stays
// quantity-less (the earliest occurrence's shape dominates).
func Aggregated(recipes []recipe.Recipe, opts Options) []CategorySection {
	order := make([]string, 0, 16)
	byKey := make(map[string]*Item)

	for _, r := range recipes {
		for _, line := range r.IngredientLines {
			item := buildItem(r.ID, line, opts)
			existing, ok := byKey[item.MergeKey]
			if !ok {
				copied := item
				byKey[item.MergeKey] = &copied
				order = append(order, item.MergeKey)
				continue
			}
			mergeInto(existing, item)
		}
	}

	sections := make([]CategorySection, 0, len(ingredient.Taxonomy))
	for _, cat := range ingredient.Taxonomy {
		section := CategorySection{Category: cat.Key, Label: cat.Label}
		for _, key := range order {
			item := byKey[key]
			if item.Category != cat.Key {
				continue
			}
			item.DisplayText = Display(item.Quantity, item.Unit, item.Name, item.Notes)
			section.Items = append(section.Items, *item)
		}
		if len(section.Items) > 0 {
			sections = append(sections, section)
		}
	}
	return sections
}

// ByRecipe groups items per category by originating recipe, preserving
// recipe order. A recipe appears under a category only when it contributed
// at least one item there.
func ByRecipe(recipes []recipe.Recipe, opts Options) []RecipeSection {
	sections := make([]RecipeSection, 0, len(ingredient.Taxonomy))
	for _, cat := range ingredient.Taxonomy {
		section := RecipeSection{Category: cat.Key, Label: cat.Label}
		for _, r := range recipes {
			group := RecipeGroup{RecipeID: r.ID, RecipeTitle: r.Title}
			for _, line := range r.IngredientLines {
				item := buildItem(r.ID, line, opts)
				if item.Category != cat.Key {
					continue
				}
				item.DisplayText = Display(item.Quantity, item.Unit, item.Name, item.Notes)
				group.Items = append(group.Items, item)
			}
			if len(group.Items) > 0 {
				section.Recipes = append(section.Recipes, group)
			}
		}
		if len(section.Recipes) > 0 {
			sections = append(sections, section)
		}
	}
	return sections
}

func buildItem(recipeID string, line recipe.IngredientLine, opts Options) Item {
	qty, unit := line.Quantity, line.Unit
	if opts.Metric {
		qty, unit = ingredient.ToMetric(line.Name, qty, unit)
	}
	notes := ""
	if line.Notes != nil {
		notes = *line.Notes
	}
	category := ingredient.Categorize(line.Name)
	item := Item{
		MergeKey:        MergeKey(category, line.Name, derefOr(unit, ""), notes, qty != nil),
		Category:        category,
		Name:            line.Name,
		Quantity:        qty,
		Unit:            unit,
		Notes:           line.Notes,
		SourceRecipeIDs: []string{recipeID},
	}
	if opts.PreserveSources {
		item.SourceLines = []string{line.Raw}
	}
	return item
}

// mergeInto folds an incoming item into an existing one with the same key.
// Summation only happens when both sides carry a quantity; an existing
// quantity-less item is left quantity-less.
func mergeInto(existing *Item, incoming Item) {
	if existing.Quantity != nil && incoming.Quantity != nil {
		sum := *existing.Quantity + *incoming.Quantity
		existing.Quantity = &sum
	}
	for _, id := range incoming.SourceRecipeIDs {
		if !contains(existing.SourceRecipeIDs, id) {
			existing.SourceRecipeIDs = append(existing.SourceRecipeIDs, id)
		}
	}
	existing.SourceLines = append(existing.SourceLines, incoming.SourceLines...)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
