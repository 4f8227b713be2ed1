package domain

import "strings"

// IngredientCategory is the closed set of shopping-list aisles.
type IngredientCategory string

const (
	CategoryProduce     IngredientCategory = "Produce"
	CategoryMeatSeafood IngredientCategory = "Meat & Seafood"
	CategoryDairyEggs   IngredientCategory = "Dairy & Eggs"
	CategoryPantry      IngredientCategory = "Pantry"
	CategoryGrainsBread IngredientCategory = "Grains & Bread"
	CategoryHerbsSpices IngredientCategory = "Herbs & Spices"
	CategoryCondiments  IngredientCategory = "Condiments"
	CategoryOther       IngredientCategory = "Other"
)

// Categories lists every category in display order.
var Categories = []IngredientCategory{
	CategoryProduce,
	CategoryMeatSeafood,
	CategoryDairyEggs,
	CategoryPantry,
	CategoryGrainsBread,
	CategoryHerbsSpices,
	CategoryCondiments,
	CategoryOther,
}

type keywordGroup struct {
	category IngredientCategory
	keywords []string
}

// Evaluation order matters: the first group with a matching keyword wins.
var keywordGroups = []keywordGroup{
	{CategoryProduce, []string{"lettuce", "tomato", "cucumber", "carrot", "pepper", "onion", "garlic", "potato", "avocado", "mushroom"}},
	{CategoryMeatSeafood, []string{"chicken", "beef", "fish", "salmon", "shrimp", "pork"}},
	{CategoryDairyEggs, []string{"milk", "cheese", "yogurt", "cream", "butter", "egg"}},
	{CategoryGrainsBread, []string{"flour", "rice", "pasta", "bread", "bagel", "wrap", "quinoa"}},
	{CategoryHerbsSpices, []string{"basil", "oregano", "thyme", "mint", "spice", "seasoning"}},
	{CategoryCondiments, []string{"oil", "vinegar", "sauce", "dressing", "mayo", "mustard"}},
	{CategoryPantry, []string{"bean", "lentil", "chickpea", "stock", "broth", "sugar", "salt"}},
}

// Categorize maps a free-text ingredient name to a category by
// case-insensitive substring match. Unmatched names are CategoryOther.
func Categorize(name string) IngredientCategory {
	lower := strings.ToLower(name)
	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.category
			}
		}
	}
	return CategoryOther
}

// ParseCategory validates a user-supplied category name. Blank input is
// treated as CategoryOther.
func ParseCategory(s string) (IngredientCategory, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryOther, true
	}
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}
