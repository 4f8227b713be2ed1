package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// RecipeRef identifies the recipe a derived shopping-list item came from.
type RecipeRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// ShoppingListItem is a single entry on the shopping list. Items with a
// non-nil Recipe are derived and owned by regeneration; items without one
// are manual and owned by the user.
type ShoppingListItem struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Amount    string             `json:"amount"`
	Unit      string             `json:"unit"`
	Category  IngredientCategory `json:"category"`
	Completed bool               `json:"completed"`
	Recipe    *RecipeRef         `json:"recipe,omitempty"`
}

// Derived reports whether the item was generated from a planned recipe.
func (i ShoppingListItem) Derived() bool {
	return i.Recipe != nil
}

// GenerateShoppingList emits one item per (recipe, ingredient) pair in input
// order. Ids are unique within the returned batch only. Repeated ingredient
// names are not merged: amounts use heterogeneous units.
func GenerateShoppingList(recipes []Recipe) []ShoppingListItem {
	items := make([]ShoppingListItem, 0)
	next := 1
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			items = append(items, ShoppingListItem{
				ID:       strconv.Itoa(next),
				Name:     ing.Name,
				Amount:   ing.Amount,
				Unit:     ing.Unit,
				Category: Categorize(ing.Name),
				Recipe:   &RecipeRef{ID: r.ID, Title: r.Title},
			})
			next++
		}
	}
	return items
}
