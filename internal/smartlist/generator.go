package smartlist

import (
	"context"
	"fmt"

	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/shopping"
	"github.com/simmerhq/simmer/internal/store"
)

// Generator builds the normalized smart list for one planning week: metric
// units, category-merged items, full provenance, and the week version at
// generation time for staleness checks.
type Generator struct {
	store store.Store
	ids   recipe.IDGenerator
	clock recipe.Clock
}

// NewGenerator builds a Generator.
func NewGenerator(st store.Store, ids recipe.IDGenerator, clock recipe.Clock) *Generator {
	return &Generator{store: st, ids: ids, clock: clock}
}

// Generate aggregates the week's recipes into a smart list and persists it,
// overwriting any prior list for the same (week, shopping list) pair.
func (g *Generator) Generate(ctx context.Context, weekID, shoppingListID string) (recipe.SmartList, error) {
	recipes, err := g.store.ListWeekRecipes(ctx, weekID)
	if err != nil {
		return recipe.SmartList{}, fmt.Errorf("load week recipes: %w", err)
	}
	version, err := g.store.WeekVersion(ctx, weekID)
	if err != nil {
		return recipe.SmartList{}, fmt.Errorf("load week version: %w", err)
	}

	sections := shopping.Aggregated(recipes, shopping.Options{
		Metric:          true,
		PreserveSources: true,
	})

	id, err := g.ids.NewID()
	if err != nil {
		return recipe.SmartList{}, fmt.Errorf("generate list id: %w", err)
	}
	list := recipe.SmartList{
		ID:             id,
		WeekID:         weekID,
		ShoppingListID: shoppingListID,
		WeekVersion:    version,
		Items:          flattenSections(sections),
		CreatedAt:      g.clock.Now(),
	}
	if err := g.store.SaveSmartList(ctx, list); err != nil {
		return recipe.SmartList{}, fmt.Errorf("save smart list: %w", err)
	}
	return list, nil
}

func flattenSections(sections []shopping.CategorySection) []recipe.SmartListItem {
	var items []recipe.SmartListItem
	for _, section := range sections {
		for _, item := range section.Items {
			items = append(items, recipe.SmartListItem{
				Category:        item.Category,
				Name:            item.Name,
				Quantity:        item.Quantity,
				Unit:            item.Unit,
				Notes:           item.Notes,
				DisplayText:     item.DisplayText,
				SourceRecipeIDs: item.SourceRecipeIDs,
				SourceLines:     item.SourceLines,
			})
		}
	}
	return items
}
