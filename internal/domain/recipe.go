package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ingredient is a single line of a recipe's ingredient list. Amount and Unit
// are free text ("1/2", "cup", "unit").
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// InfluencerRef is the owning influencer as shown alongside a recipe.
type InfluencerRef struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// Recipe is read-only from the planner's point of view.
type Recipe struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Image        string        `json:"image"`
	PrepTime     int           `json:"prepTime"`
	CookTime     int           `json:"cookTime"`
	Servings     int           `json:"servings"`
	Calories     int           `json:"calories"`
	Tags         []string      `json:"tags"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions []string      `json:"instructions"`
	Influencer   InfluencerRef `json:"influencer"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Clone returns a copy that shares no slices with r.
func (r Recipe) Clone() Recipe {
	c := r
	c.Tags = append([]string(nil), r.Tags...)
	c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	c.Instructions = append([]string(nil), r.Instructions...)
	return c
}

// ErrNotFound is returned by repositories when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// RecipeCatalog is the port for reading recipes curated by influencers.
type RecipeCatalog interface {
	GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error)
	ListRecipes(ctx context.Context) ([]Recipe, error)
}
